package notification

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rncflow/internal/domain/access"
	domain "rncflow/internal/domain/notification"
	"rncflow/internal/domain/remediation"
	domainrnc "rncflow/internal/domain/rnc"
	"rncflow/internal/errs"
	"rncflow/internal/infrastructure/lock"
	"rncflow/internal/ports"
	"rncflow/internal/usecase/usecasetest"
)

type recordingPublisher struct {
	published []domain.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, n domain.Notification) error {
	p.published = append(p.published, n)
	return nil
}

type harness struct {
	f         *usecasetest.Fixture
	engine    *Engine
	svc       *Service
	clock     *usecasetest.Clock
	publisher *recordingPublisher
	start     time.Time
}

// prazo starts 2025-03-10 10:00 in São Paulo.
func newHarness(t *testing.T, includeConserto bool) *harness {
	t.Helper()
	f := usecasetest.New(t)
	start := time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)
	clock := &usecasetest.Clock{Now: start}
	publisher := &recordingPublisher{}
	engine := NewEngine(
		DefaultRules(f.RNCs, f.Consertos, f.Location, includeConserto),
		f.Directory, f.Notifications, publisher, f.Cache, f.Location,
	)
	engine.now = clock.Func()
	require.NoError(t, engine.SyncTypes(context.Background()))
	return &harness{
		f:         f,
		engine:    engine,
		svc:       NewService(engine, f.Notifications),
		clock:     clock,
		publisher: publisher,
		start:     start,
	}
}

func (h *harness) at(days int, hour int) {
	day := h.start.In(h.f.Location).AddDate(0, 0, days)
	h.clock.Now = time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, h.f.Location).UTC()
}

func codes(items []domain.Notification) []string {
	out := make([]string, 0, len(items))
	for _, n := range items {
		out = append(out, n.TypeCode)
	}
	return out
}

func TestSweepFollowsResponseWindow(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	supplier := h.f.Supplier(t, "Acme")
	notice := h.f.Notice(t, supplier.ID, 1, domainrnc.StatusEnviada, h.start)
	reader := h.f.Actor(t, "leitor@example.com", access.RNCRead)
	admin := h.f.Admin(t, "admin@example.com")
	h.f.Actor(t, "logistica@example.com", access.DevolucaoRead)

	h.at(4, 9)
	report, err := h.engine.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Rules)
	assert.Equal(t, 0, report.Created)

	h.at(5, 0)
	report, err = h.engine.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Candidates)
	assert.Equal(t, 2, report.Created)

	items, err := h.svc.List(ctx, reader, ports.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	n := items[0]
	assert.Equal(t, "rnc_prazo_2dias", n.TypeCode)
	assert.Equal(t, domain.SeverityWarning, n.Severity)
	assert.Equal(t, notice.ID, n.EntityID)
	assert.Equal(t, "rnc_prazo_2dias_"+strconv.FormatUint(notice.ID, 10)+"_2025-03-15", n.UniqueKey)

	h.at(5, 23)
	report, err = h.engine.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 2, report.Duplicates)
	assert.Len(t, h.publisher.published, 2)

	h.at(6, 8)
	_, err = h.engine.Sweep(ctx)
	require.NoError(t, err)
	h.at(7, 8)
	_, err = h.engine.Sweep(ctx)
	require.NoError(t, err)
	h.at(8, 8)
	report, err = h.engine.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Candidates)

	items, err = h.svc.List(ctx, admin, ports.NotificationFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"rnc_prazo_2dias", "rnc_prazo_1dia", "rnc_prazo_hoje"}, codes(items))
	for _, n := range items {
		if n.TypeCode == "rnc_prazo_hoje" {
			assert.Equal(t, domain.SeverityUrgent, n.Severity)
		}
	}
}

func TestSweepRespectsOptOut(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	supplier := h.f.Supplier(t, "Acme")
	h.f.Notice(t, supplier.ID, 1, domainrnc.StatusAceita, h.start)
	quiet := h.f.Actor(t, "quieto@example.com", access.RNCRead)
	loud := h.f.Actor(t, "atento@example.com", access.RNCRead)

	require.NoError(t, h.svc.SetEnabled(ctx, quiet, "RNC_PRAZO_HOJE", false))
	err := h.svc.SetEnabled(ctx, quiet, "rnc_prazo_inexistente", false)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	settings, err := h.svc.ListSettings(ctx, quiet)
	require.NoError(t, err)
	require.Len(t, settings, 3)
	for _, s := range settings {
		assert.Equal(t, s.Type.Code != "rnc_prazo_hoje", s.Enabled, s.Type.Code)
	}

	h.at(7, 10)
	report, err := h.engine.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)

	items, err := h.svc.List(ctx, quiet, ports.NotificationFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
	items, err = h.svc.List(ctx, loud, ports.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, h.svc.MarkRead(ctx, loud, items[0].ID))
	unread, err := h.svc.List(ctx, loud, ports.NotificationFilter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unread)

	err = h.svc.MarkRead(ctx, quiet, items[0].ID)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestSweepIgnoresUntrackedStatuses(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	supplier := h.f.Supplier(t, "Acme")
	h.f.Notice(t, supplier.ID, 1, domainrnc.StatusAguardandoResposta, h.start)
	h.f.Notice(t, supplier.ID, 2, domainrnc.StatusConcluida, h.start)
	h.f.Admin(t, "admin@example.com")

	h.at(7, 10)
	report, err := h.engine.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Candidates)
}

type brokenRule struct{}

func (brokenRule) Meta() domain.TypeMeta {
	return domain.TypeMeta{Code: "quebrada", Name: "quebrada", Module: domain.ModuleRNC}
}
func (brokenRule) Permissions() []string { return []string{access.RNCRead} }
func (brokenRule) Evaluate(context.Context, time.Time) ([]domain.Candidate, error) {
	return nil, errors.New("query timeout")
}

type panickingRule struct{ brokenRule }

func (panickingRule) Evaluate(context.Context, time.Time) ([]domain.Candidate, error) {
	panic("nil map")
}

func TestSweepIsolatesFailingRules(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	supplier := h.f.Supplier(t, "Acme")
	h.f.Notice(t, supplier.ID, 1, domainrnc.StatusEnviada, h.start)
	h.f.Admin(t, "admin@example.com")

	h.engine.rules = append([]domain.Rule{brokenRule{}, panickingRule{}}, h.engine.rules...)
	h.at(5, 10)
	report, err := h.engine.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failures)
	assert.Equal(t, 1, report.Created)
	assert.Contains(t, report.PerRule[0].Error, "query timeout")

	last, found, err := h.engine.LastReport(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, report.Created, last.Created)
	assert.Equal(t, report.Failures, last.Failures)
	assert.Len(t, last.PerRule, 5)
}

func TestConsertoRulesAreOptIn(t *testing.T) {
	ctx := context.Background()

	off := newHarness(t, false)
	assert.Len(t, off.engine.Types(), 3)

	h := newHarness(t, true)
	assert.Len(t, h.engine.Types(), 5)
	supplier := h.f.Supplier(t, "Acme")
	notice := h.f.Notice(t, supplier.ID, 1, domainrnc.StatusAceita, h.start)
	h.f.Actor(t, "reparo@example.com", access.ConsertoRead)

	c, err := remediation.NewConserto(notice.ID, notice.NumeroAR, "CIF", "", "", 1)
	require.NoError(t, err)
	require.NoError(t, h.f.Consertos.Create(ctx, &c))
	expected := c.Status
	for _, step := range []func() error{
		func() error { return c.EmitNFe(1, h.start, "consertos/nfe/x.pdf") },
		func() error { return c.ConfirmPickup(1, h.start) },
		func() error { return c.ConfirmReceipt(1, h.start) },
	} {
		require.NoError(t, step())
		require.NoError(t, h.f.Consertos.Update(ctx, &c, expected))
		expected = c.Status
	}

	h.at(27, 10)
	report, err := h.engine.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)

	h.at(30, 10)
	report, err = h.engine.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)

	h.at(31, 10)
	report, err = h.engine.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Candidates)
}

func TestAdminOperationsRequirePermission(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	reader := h.f.Actor(t, "leitor@example.com", access.RNCRead)
	operator := h.f.Actor(t, "ops@example.com", access.NotificationsAdmin)

	_, err := h.svc.Sweep(ctx, reader)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))
	_, err = h.svc.Sweep(ctx, access.Actor{})
	assert.Equal(t, errs.KindUnauthorized, errs.KindOf(err))

	types, err := h.svc.SyncTypes(ctx, operator)
	require.NoError(t, err)
	assert.Len(t, types, 3)

	_, found, err := h.svc.LastSweep(ctx, operator)
	require.NoError(t, err)
	assert.False(t, found)
	_, err = h.svc.Sweep(ctx, operator)
	require.NoError(t, err)
	_, found, err = h.svc.LastSweep(ctx, operator)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestSchedulerSkipsWhenLocked(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	locker := lock.NewLocalLocker()
	scheduler := NewScheduler(h.engine, locker, SchedulerOptions{Interval: time.Minute, Timeout: 10 * time.Second})

	release, ok, err := locker.TryLock(ctx, SweepLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, scheduler.RunOnce(ctx))

	require.NoError(t, release(ctx))
	assert.True(t, scheduler.RunOnce(ctx))
	assert.True(t, scheduler.RunOnce(ctx))
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, false)
	scheduler := NewScheduler(h.engine, lock.NewLocalLocker(), SchedulerOptions{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scheduler.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
