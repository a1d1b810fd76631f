package filestore

import (
	"context"
	"strings"
	"testing"
	"time"

	"rncflow/internal/domain/upload"
	"rncflow/internal/errs"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	store.now = func() time.Time { return time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	rel, err := store.Store(ctx, "devolucoes/nfe", upload.File{Filename: "nota.pdf", Data: pdfBytes})
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if !strings.HasPrefix(rel, "devolucoes/nfe/2025/02/") || !strings.HasSuffix(rel, ".pdf") {
		t.Fatalf("Store() path = %q", rel)
	}

	ok, err := store.Exists(ctx, rel)
	if err != nil || !ok {
		t.Fatalf("Exists() = %v, %v", ok, err)
	}
	data, contentType, err := store.Open(ctx, rel)
	if err != nil || string(data) != string(pdfBytes) || contentType != "application/pdf" {
		t.Fatalf("Open() = %q, %q, %v", data, contentType, err)
	}

	if err := store.Delete(ctx, rel); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, rel); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	if ok, _ := store.Exists(ctx, rel); ok {
		t.Fatalf("Exists() after delete = true")
	}
}

func TestLocalStoreRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	ctx := context.Background()

	rel, err := store.Store(ctx, "../../etc", upload.File{Filename: "x.pdf", Data: pdfBytes})
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if strings.Contains(rel, "..") || !strings.HasPrefix(rel, "etc/") {
		t.Fatalf("Store() path = %q", rel)
	}
	if _, err := store.Exists(ctx, ""); errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("Exists(\"\") error = %v", err)
	}
	if _, err := store.Store(ctx, "x", upload.File{Filename: "empty.pdf"}); errs.KindOf(err) != errs.KindMissingRequiredFile {
		t.Fatalf("Store(empty) error = %v", err)
	}
}
