// Package document renders the evidentiary notice document of an RNC.
// Byte-level PDF generation is out of scope: the local renderer produces a
// plain-text notice and hands it to the file store.
package document

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"text/template"
	"time"

	"rncflow/internal/domain/rnc"
	"rncflow/internal/domain/upload"
	"rncflow/internal/errs"
	"rncflow/internal/ports"
)

const noticeFolder = "rncs/documentos"

var noticeTemplate = template.Must(template.New("notice").Funcs(template.FuncMap{
	"date": func(t *time.Time, loc *time.Location) string {
		if t == nil {
			return "-"
		}
		return t.In(loc).Format("02/01/2006")
	},
}).Parse(`REGISTRO DE NÃO CONFORMIDADE {{.Doc.Notice.Numero}}

Fornecedor:      {{.Doc.Supplier.Name}}{{if .Doc.Supplier.CNPJ}} (CNPJ {{.Doc.Supplier.CNPJ}}){{end}}
Status:          {{.Doc.Notice.Status}}
Quantidade:      {{.Doc.Notice.Quantidade.String}} {{.Doc.Notice.Unidade}}
Nota fiscal:     {{or .Doc.Notice.NotaFiscal "-"}}
AR:              {{or .Doc.Notice.NumeroAR "-"}}
Reincidente:     {{if .Doc.Notice.Reincidente}}SIM{{if .Doc.Prior}} (RNC anterior {{.Doc.Prior.Numero}}){{end}}{{else}}NÃO{{end}}
Início do prazo: {{date .Doc.Notice.PrazoInicio .Loc}}
Prazo final:     {{.Due}}

DESCRIÇÃO
{{or .Doc.Notice.Descricao "-"}}

O fornecedor tem {{.Window}} dias corridos a partir do início do prazo para
apresentar um plano de ação.

Gerado em {{.Generated}}
`))

type NoticeRenderer struct {
	files ports.FileStore
	loc   *time.Location
}

var _ ports.DocumentRenderer = (*NoticeRenderer)(nil)

func NewNoticeRenderer(files ports.FileStore, loc *time.Location) *NoticeRenderer {
	if loc == nil {
		loc = time.UTC
	}
	return &NoticeRenderer{files: files, loc: loc}
}

func (r *NoticeRenderer) RenderNotice(ctx context.Context, doc ports.NoticeDocument) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	if strings.TrimSpace(doc.Notice.Numero) == "" {
		return "", errs.Validationf("document.render_notice", "notice number is required")
	}

	generated := doc.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	due := "-"
	if doc.Notice.PrazoInicio != nil {
		start := doc.Notice.PrazoInicio.In(r.loc)
		due = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, r.loc).
			AddDate(0, 0, rnc.ResponseWindowDays).
			Format("02/01/2006")
	}

	var buf bytes.Buffer
	if err := noticeTemplate.Execute(&buf, map[string]any{
		"Doc":       doc,
		"Loc":       r.loc,
		"Due":       due,
		"Window":    rnc.ResponseWindowDays,
		"Generated": generated.In(r.loc).Format("02/01/2006 15:04"),
	}); err != nil {
		return "", errs.Wrap(err, "execute notice template")
	}

	filename := strings.NewReplacer(":", "_", "/", "_").Replace(doc.Notice.Numero) + ".txt"
	path, err := r.files.Store(ctx, noticeFolder, upload.File{
		Filename:    filename,
		ContentType: "text/plain; charset=utf-8",
		Data:        buf.Bytes(),
	})
	if err != nil {
		return "", errs.Wrap(err, "store notice document")
	}
	return path, nil
}
