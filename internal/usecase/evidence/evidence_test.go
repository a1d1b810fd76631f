package evidence

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"rncflow/internal/domain/upload"
	"rncflow/internal/errs"
)

type recordingStore struct {
	stored  []string
	deleted []string
	failAt  int
}

func (r *recordingStore) Store(_ context.Context, folder string, _ upload.File) (string, error) {
	if r.failAt > 0 && len(r.stored)+1 == r.failAt {
		return "", errors.New("disk full")
	}
	path := fmt.Sprintf("%s/%d", folder, len(r.stored)+1)
	r.stored = append(r.stored, path)
	return path, nil
}

func (r *recordingStore) Delete(_ context.Context, path string) error {
	r.deleted = append(r.deleted, path)
	return nil
}

func (r *recordingStore) Exists(context.Context, string) (bool, error) { return true, nil }

func photo(name string) upload.File {
	return upload.File{Filename: name, ContentType: upload.ContentTypeJPEG, Data: []byte{0xff, 0xd8, 0xff}}
}

func TestSaveStoresEveryFile(t *testing.T) {
	files := &recordingStore{}
	store := NewStore(files, 0, 0)

	paths, err := store.Save(context.Background(), "conserto.aprovar_inspecao", "consertos/fotos",
		upload.InspectionPhotos, []upload.File{photo("a.jpg"), photo("b.jpg")})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if len(paths) != 2 || paths[0] != "consertos/fotos/1" {
		t.Fatalf("Save() paths = %v", paths)
	}
}

func TestSaveRejectsBeforeWriting(t *testing.T) {
	files := &recordingStore{}
	store := NewStore(files, 0, 0)

	_, err := store.Save(context.Background(), "devolucao.emitir_nfe", "devolucoes/nfe", upload.NFe, nil)
	if errs.KindOf(err) != errs.KindMissingRequiredFile {
		t.Fatalf("Save() error = %v, want MissingRequiredFile", err)
	}
	_, err = store.Save(context.Background(), "devolucao.emitir_nfe", "devolucoes/nfe", upload.NFe, []upload.File{photo("nota.jpg")})
	if errs.KindOf(err) != errs.KindUnsupportedFileType {
		t.Fatalf("Save() error = %v, want UnsupportedFileType", err)
	}
	if len(files.stored) != 0 {
		t.Fatalf("stored = %v, want none", files.stored)
	}
}

func TestSaveRemovesPartialWrites(t *testing.T) {
	files := &recordingStore{failAt: 3}
	store := NewStore(files, 0, 0)

	_, err := store.Save(context.Background(), "conserto.rejeitar_inspecao", "consertos/fotos",
		upload.InspectionPhotos, []upload.File{photo("a.jpg"), photo("b.jpg"), photo("c.jpg")})
	if err == nil {
		t.Fatalf("Save() error = nil, want store failure")
	}
	if len(files.deleted) != 2 {
		t.Fatalf("deleted = %v, want the two stored files", files.deleted)
	}
}

func TestDiscardSkipsEmptyPaths(t *testing.T) {
	files := &recordingStore{}
	store := NewStore(files, 0, 0)

	store.Discard(context.Background(), "", "rncs/planos/x.pdf")
	if len(files.deleted) != 1 || files.deleted[0] != "rncs/planos/x.pdf" {
		t.Fatalf("deleted = %v", files.deleted)
	}
}
