// Package upload describes the file-evidence contract of the workflow
// operations: which content types each field accepts and how many files.
package upload

import (
	"fmt"
	"strings"

	"rncflow/internal/errs"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
)

// DefaultMaxBytes is the per-file limit when none is configured.
const DefaultMaxBytes int64 = 10 << 20

// File is an uploaded blob held in memory until the file store persists it.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (f File) Size() int64 { return int64(len(f.Data)) }

type Policy struct {
	Field   string
	Allowed []string
	Min     int
	Max     int
}

var (
	NFe = Policy{Field: "nfe", Allowed: []string{ContentTypePDF}, Min: 1, Max: 1}

	ReturnNFe = Policy{Field: "nfe_retorno", Allowed: []string{ContentTypePDF}, Min: 1, Max: 1}

	CompensationProof = Policy{
		Field:   "comprovante",
		Allowed: []string{ContentTypePDF, ContentTypeJPEG, ContentTypePNG},
		Min:     1,
		Max:     1,
	}

	InspectionPhotos = Policy{
		Field:   "fotos",
		Allowed: []string{ContentTypeJPEG, ContentTypePNG},
		Min:     1,
		Max:     10,
	}

	PlanDocument = Policy{
		Field:   "document",
		Allowed: []string{ContentTypePDF, ContentTypeJPEG, ContentTypePNG},
		Min:     1,
		Max:     1,
	}
)

// Check validates count, content type and size of files against p.
func (p Policy) Check(op string, files []File, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if len(files) < p.Min {
		return errs.New(errs.KindMissingRequiredFile, op, "field %q requires at least %d file(s)", p.Field, p.Min)
	}
	if p.Max > 0 && len(files) > p.Max {
		return errs.New(errs.KindTooManyFiles, op, "field %q accepts at most %d file(s), got %d", p.Field, p.Max, len(files))
	}
	for _, f := range files {
		if f.Size() == 0 {
			return errs.New(errs.KindMissingRequiredFile, op, "file %q in field %q is empty", f.Filename, p.Field)
		}
		if !p.accepts(f.ContentType) {
			return errs.New(errs.KindUnsupportedFileType, op,
				"file %q has type %q; field %q accepts %s", f.Filename, f.ContentType, p.Field, strings.Join(p.Allowed, ", "))
		}
		if f.Size() > maxBytes {
			return errs.Validationf(op, "file %q exceeds %s", f.Filename, humanBytes(maxBytes))
		}
	}
	return nil
}

func (p Policy) accepts(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	for _, allowed := range p.Allowed {
		if ct == allowed {
			return true
		}
	}
	return false
}

func humanBytes(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%d MiB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}
