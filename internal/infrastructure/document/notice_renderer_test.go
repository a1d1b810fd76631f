package document

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"rncflow/internal/domain/rnc"
	"rncflow/internal/domain/upload"
	"rncflow/internal/ports"
)

type memoryStore struct {
	folder string
	file   upload.File
}

func (m *memoryStore) Store(_ context.Context, folder string, file upload.File) (string, error) {
	m.folder = folder
	m.file = file
	return folder + "/" + file.Filename, nil
}

func (m *memoryStore) Delete(context.Context, string) error { return nil }

func (m *memoryStore) Exists(context.Context, string) (bool, error) { return true, nil }

func TestRenderNotice(t *testing.T) {
	store := &memoryStore{}
	renderer := NewNoticeRenderer(store, time.UTC)

	start := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	prior := rnc.Notice{Numero: "RNC:001/2025"}
	path, err := renderer.RenderNotice(context.Background(), ports.NoticeDocument{
		Notice: rnc.Notice{
			Numero:      "RNC:002/2025",
			Status:      rnc.StatusEnviada,
			Quantidade:  decimal.RequireFromString("4.5"),
			Unidade:     "kg",
			Reincidente: true,
			PrazoInicio: &start,
		},
		Supplier:    ports.Supplier{Name: "Fornecedor A"},
		Prior:       &prior,
		GeneratedAt: start,
	})
	if err != nil {
		t.Fatalf("RenderNotice() error = %v", err)
	}
	if path != "rncs/documentos/RNC_002_2025.txt" {
		t.Fatalf("RenderNotice() path = %q", path)
	}

	body := string(store.file.Data)
	for _, want := range []string{"RNC:002/2025", "Fornecedor A", "4.5 kg", "RNC anterior RNC:001/2025", "08/03/2025"} {
		if !strings.Contains(body, want) {
			t.Fatalf("document missing %q:\n%s", want, body)
		}
	}
}

func TestRenderNoticeRequiresNumero(t *testing.T) {
	renderer := NewNoticeRenderer(&memoryStore{}, nil)
	if _, err := renderer.RenderNotice(context.Background(), ports.NoticeDocument{}); err == nil {
		t.Fatalf("RenderNotice() expected error without numero")
	}
}
