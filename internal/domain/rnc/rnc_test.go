package rnc

import (
	"errors"
	"testing"
	"time"

	"rncflow/internal/errs"
)

func TestNumero(t *testing.T) {
	if got := NextSequencial(0); got != 1 {
		t.Fatalf("NextSequencial(0) = %d", got)
	}
	if got := NextSequencial(41); got != 42 {
		t.Fatalf("NextSequencial(41) = %d", got)
	}
	if got := FormatNumero(3, 2025); got != "RNC:003/2025" {
		t.Fatalf("FormatNumero() = %q", got)
	}
	if got := FormatNumero(1234, 2025); got != "RNC:1234/2025" {
		t.Fatalf("FormatNumero() wide = %q", got)
	}
	seq, ano, ok := ParseNumero("RNC:017/2024")
	if !ok || seq != 17 || ano != 2024 {
		t.Fatalf("ParseNumero() = %d %d %v", seq, ano, ok)
	}
	if _, _, ok := ParseNumero("INC:001/2024"); ok {
		t.Fatalf("ParseNumero() accepted a non-rnc number")
	}
}

func TestDaysElapsedUsesCalendarMidnights(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	start := time.Date(2025, 5, 1, 23, 50, 0, 0, loc)
	cases := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2025, 5, 1, 23, 59, 0, 0, loc), 0},
		{time.Date(2025, 5, 2, 0, 1, 0, 0, loc), 1},
		{time.Date(2025, 5, 6, 8, 0, 0, 0, loc), 5},
		{time.Date(2025, 5, 8, 0, 0, 0, 0, loc), 7},
	}
	for _, tc := range cases {
		if got := DaysElapsed(start, tc.now, loc); got != tc.want {
			t.Fatalf("DaysElapsed(%v) = %d, want %d", tc.now, got, tc.want)
		}
	}
}

func TestDeadlineFor(t *testing.T) {
	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	n := Notice{Status: StatusEnviada, PrazoInicio: &start}

	cases := []struct {
		days      int
		remaining int
		level     DeadlineLevel
	}{
		{0, 7, DeadlineNone},
		{4, 3, DeadlineNone},
		{5, 2, DeadlineWarning},
		{6, 1, DeadlineWarning},
		{7, 0, DeadlineUrgent},
		{9, 0, DeadlineOverdue},
	}
	for _, tc := range cases {
		d, ok := DeadlineFor(n, start.AddDate(0, 0, tc.days), time.UTC)
		if !ok {
			t.Fatalf("DeadlineFor() not tracked")
		}
		if d.DaysElapsed != tc.days || d.DaysRemaining != tc.remaining || d.Level != tc.level {
			t.Fatalf("day %d: %+v", tc.days, d)
		}
	}

	d, _ := DeadlineFor(n, start, time.UTC)
	if want := time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC); !d.Due.Equal(want) {
		t.Fatalf("Due = %v, want %v", d.Due, want)
	}

	n.Status = StatusConcluida
	if _, ok := DeadlineFor(n, start, time.UTC); ok {
		t.Fatalf("Concluída should not be deadline tracked")
	}
	n.Status = StatusAceita
	n.PrazoInicio = nil
	if _, ok := DeadlineFor(n, start, time.UTC); ok {
		t.Fatalf("missing prazoInicio should not be tracked")
	}
}

func TestPlanGuards(t *testing.T) {
	if err := CheckAcceptPlan(StatusEnviada); err != nil {
		t.Fatalf("CheckAcceptPlan() error = %v", err)
	}
	err := CheckRejectPlan(StatusAceita)
	e, ok := errs.As(err)
	if !ok || e.Kind != errs.KindInvalidState || e.Expected != string(StatusEnviada) || e.Actual != string(StatusAceita) {
		t.Fatalf("CheckRejectPlan() error = %v", err)
	}
	if _, err := NormalizeJustification("  "); errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("NormalizeJustification() error = %v", err)
	}
	if j, _ := NormalizeJustification(" prazo curto "); j != "prazo curto" {
		t.Fatalf("NormalizeJustification() = %q", j)
	}
}

func TestAdministrativeTransitions(t *testing.T) {
	if err := CheckAdministrativeTransition(StatusEnviada, StatusEmAnalise); err != nil {
		t.Fatalf("Enviada -> Em análise error = %v", err)
	}
	if err := CheckAdministrativeTransition(StatusAceita, StatusConcluida); err != nil {
		t.Fatalf("Aceita -> Concluída error = %v", err)
	}
	if err := CheckAdministrativeTransition(StatusEnviada, StatusAceita); !errors.Is(err, errs.InvalidState) {
		t.Fatalf("Enviada -> Aceita must go through the plan operations, got %v", err)
	}
	if err := CheckAdministrativeTransition(StatusConcluida, StatusEnviada); !errors.Is(err, errs.InvalidState) {
		t.Fatalf("Concluída is final, got %v", err)
	}
}

func TestCheckReincidence(t *testing.T) {
	prior := &Notice{ID: 3, Numero: "RNC:001/2025", SupplierID: 10}
	id := uint64(3)

	if err := CheckReincidence(10, false, nil, nil); err != nil {
		t.Fatalf("non-repeat error = %v", err)
	}
	if err := CheckReincidence(10, true, nil, nil); errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("missing prior id error = %v", err)
	}
	if err := CheckReincidence(10, true, &id, nil); errs.KindOf(err) != errs.KindNotFound {
		t.Fatalf("unknown prior error = %v", err)
	}
	if err := CheckReincidence(11, true, &id, prior); errs.KindOf(err) != errs.KindInvalidReference {
		t.Fatalf("other supplier error = %v", err)
	}
	if err := CheckReincidence(10, true, &id, prior); err != nil {
		t.Fatalf("same supplier error = %v", err)
	}
}

func TestRemediationGuards(t *testing.T) {
	n := Notice{Numero: "RNC:001/2025", Status: StatusEnviada}
	if err := CheckCanOpenRemediation(n, "devolucao.create"); errs.KindOf(err) != errs.KindInvalidState {
		t.Fatalf("open from Enviada error = %v", err)
	}
	n.Status = StatusAceita
	if err := CheckCanOpenRemediation(n, "devolucao.create"); err != nil {
		t.Fatalf("open from Aceita error = %v", err)
	}
	n.Remediation = RemediationConserto
	if err := CheckCanOpenRemediation(n, "devolucao.create"); errs.KindOf(err) != errs.KindConflict {
		t.Fatalf("second remediation error = %v", err)
	}
	if err := CheckRemovable(n, 0); errs.KindOf(err) != errs.KindConflict {
		t.Fatalf("CheckRemovable() error = %v", err)
	}
}

func TestCheckRemovableWithRepeats(t *testing.T) {
	n := Notice{Numero: "RNC:001/2025", Status: StatusEnviada}
	if err := CheckRemovable(n, 0); err != nil {
		t.Fatalf("CheckRemovable(unreferenced) error = %v", err)
	}
	if err := CheckRemovable(n, 2); errs.KindOf(err) != errs.KindConflict {
		t.Fatalf("CheckRemovable(referenced) error = %v", err)
	}
}
