package access

import (
	"testing"

	"rncflow/internal/errs"
)

func TestActorRequire(t *testing.T) {
	reader := Actor{UserID: 1, Permissions: []string{RNCRead}}
	admin := Actor{UserID: 2, Permissions: []string{AdminAll}}

	if err := reader.Require("rnc.get", RNCRead); err != nil {
		t.Fatalf("reader Require(rnc.read) error = %v", err)
	}
	if err := reader.Require("rnc.delete", RNCDelete); errs.KindOf(err) != errs.KindForbidden {
		t.Fatalf("reader Require(rnc.delete) error = %v", err)
	}
	if err := admin.Require("conserto.confirmar_coleta", ConsertoConfirmPickup); err != nil {
		t.Fatalf("admin Require() error = %v", err)
	}
	if err := (Actor{}).Require("rnc.get", RNCRead); errs.KindOf(err) != errs.KindUnauthorized {
		t.Fatalf("anonymous Require() error = %v", err)
	}
}

func TestWithAdmin(t *testing.T) {
	got := WithAdmin(RNCRead, AdminAll, RNCRead)
	if len(got) != 2 || got[0] != RNCRead || got[1] != AdminAll {
		t.Fatalf("WithAdmin() = %v", got)
	}
}
