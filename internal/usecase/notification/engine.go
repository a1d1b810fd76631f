// Package notification runs the deadline notification engine and the
// per-user notification inbox and settings.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rncflow/internal/bootstrap/logging"
	"rncflow/internal/domain/access"
	domain "rncflow/internal/domain/notification"
	"rncflow/internal/errs"
	"rncflow/internal/infrastructure/metrics"
	"rncflow/internal/ports"
)

const engineComponent = "usecase.notification.engine"

// Report summarizes one sweep.
type Report struct {
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Rules      int          `json:"rules"`
	Candidates int          `json:"candidates"`
	Created    int          `json:"created"`
	Duplicates int          `json:"duplicates"`
	Failures   int          `json:"failures"`
	PerRule    []RuleReport `json:"per_rule"`
}

type RuleReport struct {
	Code       string `json:"code"`
	Candidates int    `json:"candidates"`
	Recipients int    `json:"recipients"`
	Created    int    `json:"created"`
	Duplicates int    `json:"duplicates"`
	Failures   int    `json:"failures"`
	Error      string `json:"error,omitempty"`
}

type Engine struct {
	rules         []domain.Rule
	directory     ports.Directory
	notifications ports.NotificationRepository
	publisher     ports.NotificationPublisher
	cache         ports.Cache
	loc           *time.Location
	now           func() time.Time
}

func NewEngine(
	rules []domain.Rule,
	directory ports.Directory,
	notifications ports.NotificationRepository,
	publisher ports.NotificationPublisher,
	cache ports.Cache,
	loc *time.Location,
) *Engine {
	return &Engine{
		rules:         rules,
		directory:     directory,
		notifications: notifications,
		publisher:     publisher,
		cache:         cache,
		loc:           location(loc),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Types lists the metadata of every registered rule.
func (e *Engine) Types() []domain.TypeMeta {
	out := make([]domain.TypeMeta, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, r.Meta())
	}
	return out
}

// SyncTypes upserts the registry into the stored notification types.
func (e *Engine) SyncTypes(ctx context.Context) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	types := e.Types()
	if err := e.notifications.UpsertTypes(ctx, types); err != nil {
		return err
	}
	logging.Info(logging.WithComponent(ctx, engineComponent), "notification types synced",
		slog.Int("count", len(types)),
	)
	return nil
}

// Sweep evaluates every rule once. A failing rule or recipient is counted
// and logged; the remaining work continues.
func (e *Engine) Sweep(ctx context.Context) (Report, error) {
	if err := e.check(ctx); err != nil {
		return Report{}, err
	}
	logCtx := logging.WithComponent(ctx, engineComponent)

	started := time.Now()
	now := e.now()
	report := Report{StartedAt: now, Rules: len(e.rules)}
	day := now.In(e.loc)

	for _, rule := range e.rules {
		if err := ctx.Err(); err != nil {
			return report, errs.Wrap(err, "sweep interrupted")
		}
		rr := e.runRule(logCtx, rule, now, day)
		report.Candidates += rr.Candidates
		report.Created += rr.Created
		report.Duplicates += rr.Duplicates
		report.Failures += rr.Failures
		report.PerRule = append(report.PerRule, rr)
	}

	report.FinishedAt = e.now()
	metrics.SweepDuration.Observe(time.Since(started).Seconds())
	e.saveReport(logCtx, report)

	logging.Info(logCtx, "notification sweep finished",
		slog.Int("rules", report.Rules),
		slog.Int("candidates", report.Candidates),
		slog.Int("created", report.Created),
		slog.Int("duplicates", report.Duplicates),
		slog.Int("failures", report.Failures),
	)
	return report, nil
}

func (e *Engine) runRule(ctx context.Context, rule domain.Rule, now time.Time, day time.Time) (rr RuleReport) {
	meta := rule.Meta()
	code := domain.NormalizeCode(meta.Code)
	rr.Code = code
	ctx = logging.WithAttrs(ctx, slog.String("rule", code))

	fail := func(err error) {
		rr.Failures++
		rr.Error = err.Error()
		metrics.RuleFailures.WithLabelValues(code).Inc()
		logging.Error(ctx, "notification rule failed", slog.Any("err", errs.Loggable(err)))
	}
	defer func() {
		if r := recover(); r != nil {
			fail(errs.WithStack(fmt.Errorf("rule panicked: %v", r)))
		}
	}()

	candidates, err := rule.Evaluate(ctx, now)
	if err != nil {
		fail(errs.Wrap(err, "evaluate rule"))
		return rr
	}
	rr.Candidates = len(candidates)
	if len(candidates) == 0 {
		return rr
	}

	recipients, err := e.recipients(ctx, rule, code)
	if err != nil {
		fail(err)
		return rr
	}
	rr.Recipients = len(recipients)

	for _, c := range candidates {
		key := domain.UniqueKey(code, c.EntityID, day)
		for _, userID := range recipients {
			created, err := e.deliver(ctx, code, key, userID, c, now)
			switch {
			case err != nil:
				rr.Failures++
				metrics.RuleFailures.WithLabelValues(code).Inc()
				logging.Warn(ctx, "notification delivery failed",
					slog.Uint64("entity_id", c.EntityID),
					slog.Uint64("user_id", userID),
					slog.Any("err", errs.Loggable(err)),
				)
			case created:
				rr.Created++
				metrics.NotificationsCreated.WithLabelValues(code).Inc()
			default:
				rr.Duplicates++
				metrics.NotificationsDuplicate.WithLabelValues(code).Inc()
			}
		}
	}
	return rr
}

// recipients are the holders of any rule permission or admin.all, minus
// the users who disabled code.
func (e *Engine) recipients(ctx context.Context, rule domain.Rule, code string) ([]uint64, error) {
	ids, err := e.directory.UserIDsWithAnyPermission(ctx, access.WithAdmin(rule.Permissions()...))
	if err != nil {
		return nil, errs.Wrap(err, "resolve recipients")
	}
	disabled, err := e.notifications.DisabledUserIDs(ctx, code)
	if err != nil {
		return nil, errs.Wrap(err, "resolve disabled recipients")
	}
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, off := disabled[id]; off {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

func (e *Engine) deliver(ctx context.Context, code string, key string, userID uint64, c domain.Candidate, now time.Time) (bool, error) {
	stored, created, err := e.notifications.UpsertIfAbsent(ctx, domain.Notification{
		UserID:     userID,
		TypeCode:   code,
		UniqueKey:  key,
		EntityType: c.EntityType,
		EntityID:   c.EntityID,
		Title:      c.Title,
		Message:    c.Message,
		Severity:   c.Severity,
		Link:       c.Link,
		CreatedAt:  now,
	})
	if err != nil {
		return false, err
	}
	if created && e.publisher != nil {
		if err := e.publisher.Publish(ctx, stored); err != nil {
			logging.Warn(ctx, "publish notification failed",
				slog.Uint64("notification_id", stored.ID),
				slog.Any("err", errs.Loggable(err)),
			)
		}
	}
	return created, nil
}

func (e *Engine) saveReport(ctx context.Context, report Report) {
	if e.cache == nil {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		logging.Warn(ctx, "encode sweep report failed", slog.Any("err", errs.Loggable(err)))
		return
	}
	if err := e.cache.Set(context.WithoutCancel(ctx), ports.LastSweepKey, string(raw), 0); err != nil {
		logging.Warn(ctx, "store sweep report failed", slog.Any("err", errs.Loggable(err)))
	}
}

// LastReport returns the most recent stored sweep report.
func (e *Engine) LastReport(ctx context.Context) (Report, bool, error) {
	if err := e.check(ctx); err != nil {
		return Report{}, false, err
	}
	if e.cache == nil {
		return Report{}, false, nil
	}
	raw, found, err := e.cache.Get(ctx, ports.LastSweepKey)
	if err != nil || !found {
		return Report{}, false, err
	}
	var report Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return Report{}, false, errs.Wrap(err, "decode sweep report")
	}
	return report, true, nil
}

func (e *Engine) check(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if e.directory == nil {
		return errors.New("directory is required")
	}
	if e.notifications == nil {
		return errors.New("notification repository is required")
	}
	return nil
}
