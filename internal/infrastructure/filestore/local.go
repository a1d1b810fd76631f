// Package filestore keeps uploaded evidence on the local disk under a
// configured root. Returned paths are relative to that root and always use
// forward slashes.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"rncflow/internal/domain/upload"
	"rncflow/internal/errs"
	"rncflow/internal/ports"
)

type LocalStore struct {
	root string
	now  func() time.Time
}

var _ ports.FileStore = (*LocalStore)(nil)

func NewLocalStore(root string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errs.Wrapf(err, "resolve storage root %q", root)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errs.Wrapf(err, "create storage root %q", abs)
	}
	return &LocalStore{root: abs, now: time.Now}, nil
}

func (s *LocalStore) Root() string { return s.root }

// Store writes file under folder/YYYY/MM/<uuid><ext>. The extension comes
// from the sniffed content, not from the client file name.
func (s *LocalStore) Store(ctx context.Context, folder string, file upload.File) (string, error) {
	if err := checkContext(ctx); err != nil {
		return "", err
	}
	if len(file.Data) == 0 {
		return "", errs.New(errs.KindMissingRequiredFile, "filestore.store", "file %q is empty", file.Filename)
	}

	folder = strings.Trim(path.Clean("/"+filepath.ToSlash(folder)), "/")
	now := s.now().UTC()
	name := uuid.NewString() + mimetype.Detect(file.Data).Extension()
	rel := path.Join(folder, fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())), name)

	abs, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", errs.Wrap(err, "create upload directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".upload-*")
	if err != nil {
		return "", errs.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(file.Data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", errs.Wrap(err, "write upload")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", errs.Wrap(err, "close upload")
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmpName)
		return "", errs.Wrap(err, "check context")
	}
	if err := os.Rename(tmpName, abs); err != nil {
		_ = os.Remove(tmpName)
		return "", errs.Wrap(err, "move upload into place")
	}
	return rel, nil
}

// Delete is a no-op for paths that no longer exist.
func (s *LocalStore) Delete(ctx context.Context, rel string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	abs, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errs.Wrapf(err, "delete %q", rel)
	}
	return nil
}

func (s *LocalStore) Exists(ctx context.Context, rel string) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}
	abs, err := s.resolve(rel)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, errs.Wrapf(err, "stat %q", rel)
	}
	return info.Mode().IsRegular(), nil
}

// Open returns the stored bytes and their sniffed content type.
func (s *LocalStore) Open(ctx context.Context, rel string) ([]byte, string, error) {
	if err := checkContext(ctx); err != nil {
		return nil, "", err
	}
	abs, err := s.resolve(rel)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", errs.NotFoundf("filestore.open", "file %q not found", rel)
		}
		return nil, "", errs.Wrapf(err, "read %q", rel)
	}
	return data, mimetype.Detect(data).String(), nil
}

func (s *LocalStore) resolve(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", errs.Validationf("filestore", "path is required")
	}
	clean := path.Clean("/" + filepath.ToSlash(rel))
	abs := filepath.Join(s.root, filepath.FromSlash(clean))
	if abs != s.root && !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		return "", errs.Validationf("filestore", "path %q escapes storage root", rel)
	}
	return abs, nil
}

func checkContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	return nil
}
