package conserto

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rncflow/internal/domain/access"
	"rncflow/internal/domain/remediation"
	domainrnc "rncflow/internal/domain/rnc"
	"rncflow/internal/domain/upload"
	"rncflow/internal/errs"
	"rncflow/internal/ports"
	"rncflow/internal/usecase/devolucao"
	"rncflow/internal/usecase/usecasetest"
)

type harness struct {
	svc    *Service
	f      *usecasetest.Fixture
	clock  *usecasetest.Clock
	admin  access.Actor
	notice domainrnc.Notice
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	f := usecasetest.New(t)
	clock := &usecasetest.Clock{Now: time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)}
	svc := NewService(f.UOW, f.RNCs, f.Consertos, f.Evidence, f.Location)
	svc.now = clock.Func()
	supplier := f.Supplier(t, "Acme")
	return &harness{
		svc:    svc,
		f:      f,
		clock:  clock,
		admin:  f.Admin(t, "qualidade@example.com"),
		notice: f.Notice(t, supplier.ID, 1, domainrnc.StatusAceita, clock.Now),
	}
}

func (h *harness) received(t *testing.T) View {
	t.Helper()
	ctx := context.Background()
	c, err := h.svc.Create(ctx, h.admin, CreateInput{RncID: h.notice.ID, Frete: "CIF"})
	require.NoError(t, err)
	c, err = h.svc.EmitNFe(ctx, h.admin, c.ID, []upload.File{usecasetest.PDF("nfe.pdf")})
	require.NoError(t, err)
	c, err = h.svc.ConfirmPickup(ctx, h.admin, c.ID)
	require.NoError(t, err)
	c, err = h.svc.ConfirmReceipt(ctx, h.admin, c.ID)
	require.NoError(t, err)
	return c
}

func TestConsertoFreight(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Create(ctx, h.admin, CreateInput{RncID: h.notice.ID, Frete: "FOB"})
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))

	_, err = h.svc.Create(ctx, h.admin, CreateInput{RncID: h.notice.ID, Frete: "aéreo"})
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))

	stored, err := h.f.RNCs.Get(ctx, h.notice.ID)
	require.NoError(t, err)
	assert.Equal(t, domainrnc.RemediationNone, stored.Remediation)

	c, err := h.svc.Create(ctx, h.admin, CreateInput{RncID: h.notice.ID, Frete: "fob", Transportadora: "Rápido Sul"})
	require.NoError(t, err)
	assert.Equal(t, remediation.FreteFOB, c.Frete)
	assert.Equal(t, "Rápido Sul", c.Transportadora)
	assert.Equal(t, remediation.ConsertoSolicitada, c.Status)
	assert.Nil(t, c.RepairDaysRemaining)
}

func TestConsertoCreateUnknownRNC(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Create(context.Background(), h.admin, CreateInput{RncID: 4242, Frete: "cif"})
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestConsertoRepairWindow(t *testing.T) {
	h := newHarness(t)
	c := h.received(t)

	assert.Equal(t, remediation.ConsertoRecebido, c.Status)
	require.NotNil(t, c.PrazoConsertoInicio)
	require.NotNil(t, c.PrazoConsertoFim)
	assert.True(t, c.PrazoConsertoFim.Equal(c.PrazoConsertoInicio.AddDate(0, 0, remediation.RepairWindowDays)))
	require.NotNil(t, c.RepairDaysRemaining)
	assert.Equal(t, 30, *c.RepairDaysRemaining)

	h.clock.Advance(27 * 24 * time.Hour)
	got, err := h.svc.Get(context.Background(), h.admin, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RepairDaysRemaining)
	assert.Equal(t, 3, *got.RepairDaysRemaining)
}

func TestConsertoInspectionRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.received(t)

	_, err := h.svc.ApproveInspection(ctx, h.admin, c.ID, "ok", []upload.File{usecasetest.JPEG("a.jpg")})
	assert.Equal(t, errs.KindInvalidState, errs.KindOf(err))

	c, err = h.svc.ConfirmReturn(ctx, h.admin, c.ID, []upload.File{usecasetest.PDF("retorno.pdf")})
	require.NoError(t, err)
	assert.Equal(t, remediation.ConsertoMaterialRetornado, c.Status)

	_, err = h.svc.RejectInspection(ctx, h.admin, c.ID, " ", []upload.File{usecasetest.JPEG("a.jpg")})
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))

	_, err = h.svc.RejectInspection(ctx, h.admin, c.ID, "trinca na carcaça", nil)
	assert.Equal(t, errs.KindMissingRequiredFile, errs.KindOf(err))

	tooMany := make([]upload.File, 11)
	for i := range tooMany {
		tooMany[i] = usecasetest.JPEG("f.jpg")
	}
	_, err = h.svc.RejectInspection(ctx, h.admin, c.ID, "trinca na carcaça", tooMany)
	assert.Equal(t, errs.KindTooManyFiles, errs.KindOf(err))

	c, err = h.svc.RejectInspection(ctx, h.admin, c.ID, "trinca na carcaça",
		[]upload.File{usecasetest.JPEG("a.jpg"), usecasetest.JPEG("b.jpg")})
	require.NoError(t, err)
	assert.Equal(t, remediation.ConsertoRejeitado, c.Status)

	got, err := h.svc.Get(ctx, h.admin, c.ID)
	require.NoError(t, err)
	approved, decided := got.Inspection.Approved()
	assert.True(t, decided)
	assert.False(t, approved)
	assert.Equal(t, "trinca na carcaça", got.Inspection.Descricao)
	require.Len(t, got.Inspection.Photos, 2)
	for _, p := range got.Inspection.Photos {
		assert.Equal(t, remediation.PhotoRejection, p.Kind)
		assert.True(t, h.f.Exists(t, p.Path))
	}

	_, err = h.svc.ApproveInspection(ctx, h.admin, c.ID, "ok", []upload.File{usecasetest.JPEG("a.jpg")})
	assert.Equal(t, errs.KindInvalidState, errs.KindOf(err))
}

func TestConsertoInspectionApproved(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.received(t)
	c, err := h.svc.ConfirmReturn(ctx, h.admin, c.ID, []upload.File{usecasetest.PDF("retorno.pdf")})
	require.NoError(t, err)

	c, err = h.svc.ApproveInspection(ctx, h.admin, c.ID, "", []upload.File{usecasetest.JPEG("a.jpg")})
	require.NoError(t, err)
	assert.Equal(t, remediation.ConsertoFinalizado, c.Status)
	approved, decided := c.Inspection.Approved()
	assert.True(t, approved && decided)
}

func TestRemediationsAreMutuallyExclusive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	devolucoes := devolucao.NewService(h.f.UOW, h.f.RNCs, h.f.Devolucoes, h.f.Evidence)

	_, err := devolucoes.Create(ctx, h.admin, devolucao.CreateInput{RncID: h.notice.ID})
	require.NoError(t, err)

	_, err = h.svc.Create(ctx, h.admin, CreateInput{RncID: h.notice.ID, Frete: "CIF"})
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))

	items, err := h.svc.List(ctx, h.admin, ports.RemediationFilter{RncID: h.notice.ID})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestConsertoRemoveDeletesPhotosAndFiles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.received(t)
	c, err := h.svc.ConfirmReturn(ctx, h.admin, c.ID, []upload.File{usecasetest.PDF("retorno.pdf")})
	require.NoError(t, err)
	c, err = h.svc.ApproveInspection(ctx, h.admin, c.ID, "ok", []upload.File{usecasetest.JPEG("a.jpg")})
	require.NoError(t, err)
	files := c.Files()
	require.Len(t, files, 3)

	require.NoError(t, h.svc.Remove(ctx, h.admin, c.ID))
	for _, p := range files {
		assert.False(t, h.f.Exists(t, p), p)
	}
	stored, err := h.f.RNCs.Get(ctx, h.notice.ID)
	require.NoError(t, err)
	assert.Equal(t, domainrnc.RemediationNone, stored.Remediation)
}
