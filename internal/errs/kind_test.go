package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOfThroughWrap(t *testing.T) {
	base := StateMismatch("devolucao.emitir_nfe", "DEVOLUCAO_SOLICITADA", "DEVOLUCAO_COLETADA")
	wrapped := Wrap(fmt.Errorf("tx: %w", base), "emit nfe")

	if KindOf(wrapped) != KindInvalidState {
		t.Fatalf("KindOf() = %s", KindOf(wrapped))
	}
	if !errors.Is(wrapped, InvalidState) {
		t.Fatalf("errors.Is(InvalidState) = false")
	}
	if errors.Is(wrapped, NotFound) {
		t.Fatalf("errors.Is(NotFound) = true")
	}
	if !strings.Contains(wrapped.Error(), `expected "DEVOLUCAO_SOLICITADA", actual "DEVOLUCAO_COLETADA"`) {
		t.Fatalf("Error() = %q", wrapped.Error())
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if KindOf(nil) != "" {
		t.Fatalf("KindOf(nil) = %q", KindOf(nil))
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatalf("KindOf(plain) = %q", KindOf(errors.New("boom")))
	}
	if _, ok := As(errors.New("boom")); ok {
		t.Fatalf("As(plain) ok = true")
	}
}

func TestSentinelDoesNotMatchSpecificError(t *testing.T) {
	specific := NotFoundf("rnc.get", "rnc %d not found", 4)
	if errors.Is(NotFound, specific) {
		t.Fatalf("sentinel matched a specific error as target")
	}
	if !errors.Is(specific, NotFound) {
		t.Fatalf("specific error did not match sentinel")
	}
}
