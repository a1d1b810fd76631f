package remediation

import (
	"errors"
	"testing"
	"time"

	"rncflow/internal/errs"
)

var t0 = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

func TestDevolucaoHappyPath(t *testing.T) {
	d := NewDevolucao(7, "AR-1", " obs ", 1)
	if d.Status != DevolucaoSolicitada {
		t.Fatalf("initial status = %s", d.Status)
	}
	if err := d.EmitNFe(2, t0, "devolucoes/nfe.pdf"); err != nil {
		t.Fatalf("EmitNFe() error = %v", err)
	}
	if err := d.ConfirmPickup(3, t0.Add(time.Hour)); err != nil {
		t.Fatalf("ConfirmPickup() error = %v", err)
	}
	if err := d.ConfirmReceipt(4, t0.Add(2*time.Hour)); err != nil {
		t.Fatalf("ConfirmReceipt() error = %v", err)
	}
	if err := d.ConfirmCompensation(5, t0.Add(3*time.Hour), "devolucoes/proof.png"); err != nil {
		t.Fatalf("ConfirmCompensation() error = %v", err)
	}
	if d.Status != DevolucaoFinalizado {
		t.Fatalf("status = %s, want FINALIZADO", d.Status)
	}
	if d.NFeEmitida.By != 2 || d.Coleta.By != 3 || d.Recebimento.By != 4 || d.Compensacao.By != 5 {
		t.Fatalf("stamps = %+v %+v %+v %+v", d.NFeEmitida, d.Coleta, d.Recebimento, d.Compensacao)
	}
	if got := d.Files(); len(got) != 2 {
		t.Fatalf("Files() = %v", got)
	}
	if !DevolucaoWorkflow.IsTerminal(d.Status) {
		t.Fatalf("FINALIZADO should be terminal")
	}
}

func TestDevolucaoSkipAheadLeavesRecordUnchanged(t *testing.T) {
	d := NewDevolucao(7, "AR-1", "", 1)
	d.Status = DevolucaoColetada
	before := d

	err := d.EmitNFe(2, t0, "nfe.pdf")
	if !errors.Is(err, errs.InvalidState) {
		t.Fatalf("EmitNFe() error = %v, want InvalidState", err)
	}
	e, ok := errs.As(err)
	if !ok || e.Expected != "DEVOLUCAO_SOLICITADA" || e.Actual != "DEVOLUCAO_COLETADA" {
		t.Fatalf("EmitNFe() error detail = %+v", e)
	}
	if d.NFeEmitida.IsSet() || d.NFePdfPath != "" || d.Status != before.Status {
		t.Fatalf("devolucao mutated on failed transition: %+v", d)
	}
}

func TestDevolucaoMissingFileRollsBackStamp(t *testing.T) {
	d := NewDevolucao(7, "AR-1", "", 1)
	err := d.EmitNFe(2, t0, "  ")
	if errs.KindOf(err) != errs.KindMissingRequiredFile {
		t.Fatalf("EmitNFe() kind = %s", errs.KindOf(err))
	}
	if d.NFeEmitida.IsSet() || d.Status != DevolucaoSolicitada {
		t.Fatalf("devolucao mutated: %+v", d)
	}
}

func TestStampRequiresActor(t *testing.T) {
	d := NewDevolucao(7, "AR-1", "", 1)
	if err := d.EmitNFe(0, t0, "nfe.pdf"); errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("EmitNFe() error = %v, want validation", err)
	}
}

func TestCheckFreight(t *testing.T) {
	if _, _, err := CheckFreight("FOB", ""); errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("FOB without carrier error = %v", err)
	}
	f, carrier, err := CheckFreight("cif", "")
	if err != nil || f != FreteCIF || carrier != "" {
		t.Fatalf("CIF without carrier = %s %q %v", f, carrier, err)
	}
	if f, carrier, err := CheckFreight(" fob ", " Transportes X "); err != nil || f != FreteFOB || carrier != "Transportes X" {
		t.Fatalf("FOB with carrier = %s %q %v", f, carrier, err)
	}
	if _, _, err := CheckFreight("EXW", "x"); errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("unknown frete error = %v", err)
	}
}

func advanceToReturned(t *testing.T) Conserto {
	t.Helper()
	c, err := NewConserto(9, "AR-9", "CIF", "", "", 1)
	if err != nil {
		t.Fatalf("NewConserto() error = %v", err)
	}
	steps := []func() error{
		func() error { return c.EmitNFe(1, t0, "nfe.pdf") },
		func() error { return c.ConfirmPickup(1, t0) },
		func() error { return c.ConfirmReceipt(1, t0) },
		func() error { return c.ConfirmReturn(1, t0.AddDate(0, 0, 10), "retorno.pdf") },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d error = %v", i, err)
		}
	}
	return c
}

func TestConsertoReceiptOpensRepairWindow(t *testing.T) {
	c, err := NewConserto(9, "AR-9", "FOB", "Carrier", "", 1)
	if err != nil {
		t.Fatalf("NewConserto() error = %v", err)
	}
	if c.Status != ConsertoSolicitada || c.Inspection.Result != InspectionPending {
		t.Fatalf("initial = %s %s", c.Status, c.Inspection.Result)
	}
	if err := c.ConfirmReceipt(1, t0); !errors.Is(err, errs.InvalidState) {
		t.Fatalf("ConfirmReceipt() before pickup error = %v", err)
	}
	if c.PrazoConsertoInicio != nil {
		t.Fatalf("repair window set on failed transition")
	}

	_ = c.EmitNFe(1, t0, "nfe.pdf")
	_ = c.ConfirmPickup(1, t0)
	if err := c.ConfirmReceipt(2, t0); err != nil {
		t.Fatalf("ConfirmReceipt() error = %v", err)
	}
	if !c.PrazoConsertoInicio.Equal(t0) {
		t.Fatalf("inicio = %v", c.PrazoConsertoInicio)
	}
	if want := t0.AddDate(0, 0, 30); !c.PrazoConsertoFim.Equal(want) {
		t.Fatalf("fim = %v, want %v", c.PrazoConsertoFim, want)
	}

	remaining, ok := c.RepairDaysRemaining(t0.AddDate(0, 0, 27), time.UTC)
	if !ok || remaining != 3 {
		t.Fatalf("RepairDaysRemaining() = %d %v", remaining, ok)
	}
	if remaining, _ := c.RepairDaysRemaining(t0.AddDate(0, 0, 45), time.UTC); remaining != 0 {
		t.Fatalf("RepairDaysRemaining() overdue = %d", remaining)
	}
}

func TestConsertoInspectionFork(t *testing.T) {
	photos := []Photo{{Kind: PhotoApproval, Path: "a.jpg"}}

	approved := advanceToReturned(t)
	if err := approved.ApproveInspection(3, t0, "", photos); err != nil {
		t.Fatalf("ApproveInspection() error = %v", err)
	}
	if approved.Status != ConsertoFinalizado {
		t.Fatalf("status = %s", approved.Status)
	}
	if ok, decided := approved.Inspection.Approved(); !ok || !decided {
		t.Fatalf("Approved() = %v %v", ok, decided)
	}
	if err := approved.RejectInspection(3, t0, "late", photos); !errors.Is(err, errs.InvalidState) {
		t.Fatalf("RejectInspection() after approval error = %v", err)
	}

	rejected := advanceToReturned(t)
	if err := rejected.RejectInspection(3, t0, "   ", photos); errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("RejectInspection() blank description error = %v", err)
	}
	if rejected.Status != ConsertoMaterialRetornado || rejected.Inspection.Stamp.IsSet() {
		t.Fatalf("conserto mutated on failed rejection: %+v", rejected)
	}
	if err := rejected.RejectInspection(3, t0, "riscado", photos); err != nil {
		t.Fatalf("RejectInspection() error = %v", err)
	}
	if rejected.Status != ConsertoRejeitado || rejected.Inspection.Result != InspectionRejected {
		t.Fatalf("rejected = %s %s", rejected.Status, rejected.Inspection.Result)
	}
	if got := rejected.Files(); len(got) != 3 {
		t.Fatalf("Files() = %v", got)
	}
}

func TestConsertoInspectionPhotoCount(t *testing.T) {
	c := advanceToReturned(t)
	if err := c.ApproveInspection(3, t0, "", nil); errs.KindOf(err) != errs.KindMissingRequiredFile {
		t.Fatalf("no photos error = %v", err)
	}
	many := make([]Photo, 11)
	if err := c.ApproveInspection(3, t0, "", many); errs.KindOf(err) != errs.KindTooManyFiles {
		t.Fatalf("11 photos error = %v", err)
	}
	if c.Status != ConsertoMaterialRetornado {
		t.Fatalf("status = %s", c.Status)
	}
}

func TestWorkflowExpected(t *testing.T) {
	from, ok := ConsertoWorkflow.Expected(ActionConfirmReturn)
	if !ok || from != ConsertoRecebido {
		t.Fatalf("Expected() = %s %v", from, ok)
	}
	if _, ok := DevolucaoWorkflow.Expected(ActionConfirmReturn); ok {
		t.Fatalf("devolucao has no return action")
	}
	if _, err := DevolucaoWorkflow.Advance(ActionApproveInspection, DevolucaoRecebida); errs.KindOf(err) != errs.KindInternal {
		t.Fatalf("undefined action error = %v", err)
	}
	if ConsertoWorkflow.Position(ConsertoRecebido) != 3 {
		t.Fatalf("Position() = %d", ConsertoWorkflow.Position(ConsertoRecebido))
	}
}
