package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"rncflow/internal/domain/inc"
	"rncflow/internal/domain/notification"
	"rncflow/internal/domain/remediation"
	"rncflow/internal/domain/rnc"
	"rncflow/internal/errs"
	"rncflow/internal/infrastructure/persistence/sqlstore/model"
	"rncflow/internal/ports"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "rncflow.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func newNotice(supplierID uint64, incID uint64, seq int) *rnc.Notice {
	start := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	return &rnc.Notice{
		Numero:      rnc.FormatNumero(seq, 2025),
		Sequencial:  seq,
		Ano:         2025,
		SupplierID:  supplierID,
		IncID:       incID,
		Quantidade:  decimal.RequireFromString("12.5"),
		Unidade:     "kg",
		Status:      rnc.StatusEnviada,
		PrazoInicio: &start,
		CreatedByID: 1,
	}
}

func TestINCUpdateStatusIsConditional(t *testing.T) {
	repo := NewINCRepository(setupDB(t))
	ctx := context.Background()

	record := inc.Inc{SupplierID: 1, Quantidade: decimal.NewFromInt(3), Unidade: "un", Status: inc.StatusEmAnalise, CreatedByID: 1}
	if err := repo.Create(ctx, &record); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.UpdateStatus(ctx, record.ID, inc.StatusEmAnalise, inc.StatusRNCEnviada); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	err := repo.UpdateStatus(ctx, record.ID, inc.StatusEmAnalise, inc.StatusRNCEnviada)
	if e, ok := errs.As(err); !ok || e.Kind != errs.KindInvalidState || e.Actual != string(inc.StatusRNCEnviada) {
		t.Fatalf("second UpdateStatus() error = %v", err)
	}

	got, err := repo.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Quantidade.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("Quantidade = %s", got.Quantidade)
	}
	if _, err := repo.Get(ctx, 999); errs.KindOf(err) != errs.KindNotFound {
		t.Fatalf("Get(missing) error = %v", err)
	}
}

func TestRNCSequencialUniquePerSupplierYear(t *testing.T) {
	repo := NewRNCRepository(setupDB(t))
	ctx := context.Background()

	current, err := repo.MaxSequencial(ctx, 10, 2025)
	if err != nil || current != 0 {
		t.Fatalf("MaxSequencial() empty = %d, %v", current, err)
	}
	if err := repo.Create(ctx, newNotice(10, 1, 1)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, newNotice(10, 2, 2)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, newNotice(11, 3, 1)); err != nil {
		t.Fatalf("Create() other supplier error = %v", err)
	}

	current, err = repo.MaxSequencial(ctx, 10, 2025)
	if err != nil || current != 2 {
		t.Fatalf("MaxSequencial() = %d, %v", current, err)
	}

	err = repo.Create(ctx, newNotice(10, 4, 2))
	if !errors.Is(err, ports.ErrDuplicateKey) || errs.KindOf(err) != errs.KindConflict {
		t.Fatalf("duplicate sequencial error = %v", err)
	}
}

func TestRNCUpdateRequiresExpectedStatus(t *testing.T) {
	repo := NewRNCRepository(setupDB(t))
	ctx := context.Background()

	notice := newNotice(10, 1, 1)
	if err := repo.Create(ctx, notice); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	accepted := *notice
	accepted.Status = rnc.StatusAceita
	accepted.PlanoAcaoPath = "rncs/plano.pdf"
	if err := repo.Update(ctx, accepted, rnc.StatusEnviada); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	stale := *notice
	stale.PrazoInicio = nil
	err := repo.Update(ctx, stale, rnc.StatusEnviada)
	if e, ok := errs.As(err); !ok || e.Expected != string(rnc.StatusEnviada) || e.Actual != string(rnc.StatusAceita) {
		t.Fatalf("stale Update() error = %v", err)
	}

	got, err := repo.Get(ctx, notice.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != rnc.StatusAceita || got.PlanoAcaoPath != "rncs/plano.pdf" || got.PrazoInicio == nil {
		t.Fatalf("Get() = %+v", got)
	}
}

func TestRNCClaimRemediationIsExclusive(t *testing.T) {
	repo := NewRNCRepository(setupDB(t))
	ctx := context.Background()

	notice := newNotice(10, 1, 1)
	if err := repo.Create(ctx, notice); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.ClaimRemediation(ctx, notice.ID, rnc.RemediationDevolucao); errs.KindOf(err) != errs.KindInvalidState {
		t.Fatalf("claim on Enviada error = %v", err)
	}

	accepted := *notice
	accepted.Status = rnc.StatusAceita
	if err := repo.Update(ctx, accepted, rnc.StatusEnviada); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := repo.ClaimRemediation(ctx, notice.ID, rnc.RemediationDevolucao); err != nil {
		t.Fatalf("first claim error = %v", err)
	}
	if err := repo.ClaimRemediation(ctx, notice.ID, rnc.RemediationConserto); errs.KindOf(err) != errs.KindConflict {
		t.Fatalf("second claim error = %v", err)
	}

	if err := repo.ReleaseRemediation(ctx, notice.ID, rnc.RemediationDevolucao); err != nil {
		t.Fatalf("ReleaseRemediation() error = %v", err)
	}
	if err := repo.ClaimRemediation(ctx, notice.ID, rnc.RemediationConserto); err != nil {
		t.Fatalf("claim after release error = %v", err)
	}
}

func TestRNCListDeadlineTrackedAndEvents(t *testing.T) {
	repo := NewRNCRepository(setupDB(t))
	ctx := context.Background()

	tracked := newNotice(10, 1, 1)
	untracked := newNotice(10, 2, 2)
	untracked.Status = rnc.StatusEmAnalise
	noStart := newNotice(10, 3, 3)
	noStart.PrazoInicio = nil
	for _, n := range []*rnc.Notice{tracked, untracked, noStart} {
		if err := repo.Create(ctx, n); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	items, err := repo.ListDeadlineTracked(ctx)
	if err != nil {
		t.Fatalf("ListDeadlineTracked() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != tracked.ID {
		t.Fatalf("ListDeadlineTracked() = %+v", items)
	}

	event := rnc.Event{RncID: tracked.ID, Kind: rnc.EventPlanRejected, ActorID: 2, Justification: "incompleto"}
	if err := repo.AppendEvent(ctx, &event); err != nil {
		t.Fatalf("AppendEvent() error = %v", err)
	}
	events, err := repo.ListEvents(ctx, tracked.ID)
	if err != nil || len(events) != 1 || events[0].Justification != "incompleto" {
		t.Fatalf("ListEvents() = %+v, %v", events, err)
	}

	if err := repo.Delete(ctx, tracked.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if events, _ := repo.ListEvents(ctx, tracked.ID); len(events) != 0 {
		t.Fatalf("events survived delete: %+v", events)
	}
}

func TestDevolucaoUpdatePersistsStamps(t *testing.T) {
	repo := NewDevolucaoRepository(setupDB(t))
	ctx := context.Background()

	d := remediation.NewDevolucao(5, "AR-5", "", 1)
	if err := repo.Create(ctx, &d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	dup := remediation.NewDevolucao(5, "AR-5", "", 1)
	if err := repo.Create(ctx, &dup); errs.KindOf(err) != errs.KindConflict {
		t.Fatalf("second devolucao for rnc error = %v", err)
	}

	at := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	if err := d.EmitNFe(3, at, "devolucoes/nfe.pdf"); err != nil {
		t.Fatalf("EmitNFe() error = %v", err)
	}
	if err := repo.Update(ctx, d, remediation.DevolucaoSolicitada); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := repo.Update(ctx, d, remediation.DevolucaoSolicitada); errs.KindOf(err) != errs.KindInvalidState {
		t.Fatalf("replayed Update() error = %v", err)
	}

	got, err := repo.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != remediation.DevolucaoNFeEmitida || got.NFeEmitida.By != 3 || !got.NFeEmitida.At.Equal(at) {
		t.Fatalf("Get() = %+v", got)
	}
	if got.Coleta.IsSet() {
		t.Fatalf("Coleta stamp set: %+v", got.Coleta)
	}
}

func TestConsertoPhotosAndCascade(t *testing.T) {
	db := setupDB(t)
	repo := NewConsertoRepository(db)
	ctx := context.Background()

	c, err := remediation.NewConserto(6, "AR-6", "CIF", "", "", 1)
	if err != nil {
		t.Fatalf("NewConserto() error = %v", err)
	}
	if err := repo.Create(ctx, &c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	at := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	steps := []struct {
		from remediation.ConsertoStatus
		run  func() error
	}{
		{remediation.ConsertoSolicitada, func() error { return c.EmitNFe(1, at, "nfe.pdf") }},
		{remediation.ConsertoNFeEmitida, func() error { return c.ConfirmPickup(1, at) }},
		{remediation.ConsertoColetado, func() error { return c.ConfirmReceipt(1, at) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			t.Fatalf("transition from %s error = %v", step.from, err)
		}
		if err := repo.Update(ctx, &c, step.from); err != nil {
			t.Fatalf("Update() from %s error = %v", step.from, err)
		}
	}

	open, err := repo.ListRepairWindowOpen(ctx)
	if err != nil || len(open) != 1 {
		t.Fatalf("ListRepairWindowOpen() = %+v, %v", open, err)
	}
	if want := at.AddDate(0, 0, 30); !open[0].PrazoConsertoFim.Equal(want) {
		t.Fatalf("PrazoConsertoFim = %v, want %v", open[0].PrazoConsertoFim, want)
	}

	if err := c.ConfirmReturn(1, at, "retorno.pdf"); err != nil {
		t.Fatalf("ConfirmReturn() error = %v", err)
	}
	if err := repo.Update(ctx, &c, remediation.ConsertoRecebido); err != nil {
		t.Fatalf("Update() return error = %v", err)
	}
	photos := []remediation.Photo{
		{Kind: remediation.PhotoRejection, Path: "f1.jpg"},
		{Kind: remediation.PhotoRejection, Path: "f2.png"},
	}
	if err := c.RejectInspection(2, at, "trincado", photos); err != nil {
		t.Fatalf("RejectInspection() error = %v", err)
	}
	if err := repo.Update(ctx, &c, remediation.ConsertoMaterialRetornado); err != nil {
		t.Fatalf("Update() inspection error = %v", err)
	}
	if c.Inspection.Photos[0].ID == 0 || c.Inspection.Photos[1].ConsertoID != c.ID {
		t.Fatalf("photo ids not assigned: %+v", c.Inspection.Photos)
	}

	got, err := repo.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != remediation.ConsertoRejeitado || got.Inspection.Result != remediation.InspectionRejected || len(got.Inspection.Photos) != 2 {
		t.Fatalf("Get() = %+v", got)
	}

	if err := repo.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	var count int64
	if err := db.Model(&model.ConsertoPhoto{}).Count(&count).Error; err != nil || count != 0 {
		t.Fatalf("photos after delete = %d, %v", count, err)
	}
}

func TestNotificationUpsertIfAbsent(t *testing.T) {
	repo := NewNotificationRepository(setupDB(t))
	ctx := context.Background()

	n := notification.Notification{
		UserID:     7,
		TypeCode:   "rnc_prazo_hoje",
		UniqueKey:  "rnc_prazo_hoje_1_2025-04-08",
		EntityType: "rnc",
		EntityID:   1,
		Title:      "RNC:001/2025",
		Severity:   notification.SeverityUrgent,
	}
	first, created, err := repo.UpsertIfAbsent(ctx, n)
	if err != nil || !created {
		t.Fatalf("first UpsertIfAbsent() created=%v err=%v", created, err)
	}
	second, created, err := repo.UpsertIfAbsent(ctx, n)
	if err != nil || created {
		t.Fatalf("second UpsertIfAbsent() created=%v err=%v", created, err)
	}
	if second.ID != first.ID {
		t.Fatalf("second UpsertIfAbsent() id = %d, want %d", second.ID, first.ID)
	}

	other := n
	other.UserID = 8
	if _, created, err := repo.UpsertIfAbsent(ctx, other); err != nil || !created {
		t.Fatalf("other recipient created=%v err=%v", created, err)
	}

	if err := repo.MarkRead(ctx, 8, first.ID); errs.KindOf(err) != errs.KindNotFound {
		t.Fatalf("MarkRead() foreign error = %v", err)
	}
	if err := repo.MarkRead(ctx, 7, first.ID); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	unread, err := repo.ListForUser(ctx, 7, ports.NotificationFilter{UnreadOnly: true})
	if err != nil || len(unread) != 0 {
		t.Fatalf("ListForUser(unread) = %+v, %v", unread, err)
	}
}

func TestNotificationSettingsDefaultEnabled(t *testing.T) {
	repo := NewNotificationRepository(setupDB(t))
	ctx := context.Background()

	types := []notification.TypeMeta{
		{Code: "rnc_prazo_2dias", Name: "2 dias", Module: "rnc"},
		{Code: "rnc_prazo_hoje", Name: "hoje", Module: "rnc"},
	}
	if err := repo.UpsertTypes(ctx, types); err != nil {
		t.Fatalf("UpsertTypes() error = %v", err)
	}
	types[1].Name = "vence hoje"
	if err := repo.UpsertTypes(ctx, types); err != nil {
		t.Fatalf("UpsertTypes() resync error = %v", err)
	}

	if err := repo.SetEnabled(ctx, 7, "rnc_prazo_hoje", false); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}
	if err := repo.SetEnabled(ctx, 7, "nope", false); errs.KindOf(err) != errs.KindNotFound {
		t.Fatalf("SetEnabled(unknown) error = %v", err)
	}

	settings, err := repo.ListSettings(ctx, 7)
	if err != nil || len(settings) != 2 {
		t.Fatalf("ListSettings() = %+v, %v", settings, err)
	}
	for _, s := range settings {
		want := s.Type.Code != "rnc_prazo_hoje"
		if s.Enabled != want {
			t.Fatalf("setting %s enabled = %v", s.Type.Code, s.Enabled)
		}
		if s.Type.Code == "rnc_prazo_hoje" && s.Type.Name != "vence hoje" {
			t.Fatalf("type name not resynced: %q", s.Type.Name)
		}
	}

	disabled, err := repo.DisabledUserIDs(ctx, "rnc_prazo_hoje")
	if err != nil {
		t.Fatalf("DisabledUserIDs() error = %v", err)
	}
	if _, ok := disabled[7]; !ok || len(disabled) != 1 {
		t.Fatalf("DisabledUserIDs() = %v", disabled)
	}
}

func TestDirectoryUsersByPermission(t *testing.T) {
	repo := NewDirectoryRepository(setupDB(t))
	ctx := context.Background()

	users := []ports.User{
		{Name: "Ana", Email: "ana@example.com", Permissions: []string{"rnc.read"}},
		{Name: "Bia", Email: "bia@example.com", Permissions: []string{"admin.all"}},
		{Name: "Caio", Email: "caio@example.com", Permissions: []string{"inc.read"}},
	}
	for i := range users {
		if err := repo.CreateUser(ctx, &users[i]); err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}
	}
	if err := repo.CreateUser(ctx, &ports.User{Name: "dup", Email: "ANA@example.com"}); errs.KindOf(err) != errs.KindConflict {
		t.Fatalf("duplicate email error = %v", err)
	}

	ids, err := repo.UserIDsWithAnyPermission(ctx, []string{"rnc.read", "admin.all"})
	if err != nil {
		t.Fatalf("UserIDsWithAnyPermission() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != users[0].ID || ids[1] != users[1].ID {
		t.Fatalf("UserIDsWithAnyPermission() = %v", ids)
	}

	supplier := ports.Supplier{Name: "Metalurgica Sul", CNPJ: "00.000.000/0001-00"}
	if err := repo.CreateSupplier(ctx, &supplier); err != nil {
		t.Fatalf("CreateSupplier() error = %v", err)
	}
	if got, err := repo.GetSupplier(ctx, supplier.ID); err != nil || got.Name != "Metalurgica Sul" {
		t.Fatalf("GetSupplier() = %+v, %v", got, err)
	}
}
