package notification

import (
	"context"
	"errors"
	"log/slog"

	"rncflow/internal/bootstrap/logging"
	"rncflow/internal/domain/access"
	domain "rncflow/internal/domain/notification"
	"rncflow/internal/errs"
	"rncflow/internal/ports"
)

// Service is the actor-facing side of the engine: a user's own inbox and
// settings, plus the admin triggers.
type Service struct {
	engine        *Engine
	notifications ports.NotificationRepository
}

func NewService(engine *Engine, notifications ports.NotificationRepository) *Service {
	return &Service{engine: engine, notifications: notifications}
}

func (s *Service) ListSettings(ctx context.Context, actor access.Actor) ([]domain.Setting, error) {
	if err := s.authenticated(ctx, actor, "notification.list_settings"); err != nil {
		return nil, err
	}
	return s.notifications.ListSettings(ctx, actor.UserID)
}

// SetEnabled turns one rule code on or off for the actor.
func (s *Service) SetEnabled(ctx context.Context, actor access.Actor, code string, enabled bool) error {
	const op = "notification.set_enabled"
	if err := s.authenticated(ctx, actor, op); err != nil {
		return err
	}
	code = domain.NormalizeCode(code)
	if code == "" {
		return errs.Validationf(op, "notification type code is required")
	}
	if err := s.notifications.SetEnabled(ctx, actor.UserID, code, enabled); err != nil {
		return err
	}
	logging.Info(logging.WithComponent(ctx, "usecase.notification"), "notification setting changed",
		slog.Uint64("user_id", actor.UserID),
		slog.String("code", code),
		slog.Bool("enabled", enabled),
	)
	return nil
}

func (s *Service) List(ctx context.Context, actor access.Actor, filter ports.NotificationFilter) ([]domain.Notification, error) {
	if err := s.authenticated(ctx, actor, "notification.list"); err != nil {
		return nil, err
	}
	return s.notifications.ListForUser(ctx, actor.UserID, filter)
}

func (s *Service) MarkRead(ctx context.Context, actor access.Actor, id uint64) error {
	if err := s.authenticated(ctx, actor, "notification.mark_read"); err != nil {
		return err
	}
	return s.notifications.MarkRead(ctx, actor.UserID, id)
}

func (s *Service) SyncTypes(ctx context.Context, actor access.Actor) ([]domain.TypeMeta, error) {
	if err := s.admin(ctx, actor, "notification.sync_types"); err != nil {
		return nil, err
	}
	if err := s.engine.SyncTypes(ctx); err != nil {
		return nil, err
	}
	return s.notifications.ListTypes(ctx)
}

func (s *Service) Sweep(ctx context.Context, actor access.Actor) (Report, error) {
	if err := s.admin(ctx, actor, "notification.sweep"); err != nil {
		return Report{}, err
	}
	return s.engine.Sweep(ctx)
}

func (s *Service) LastSweep(ctx context.Context, actor access.Actor) (Report, bool, error) {
	if err := s.admin(ctx, actor, "notification.last_sweep"); err != nil {
		return Report{}, false, err
	}
	return s.engine.LastReport(ctx)
}

func (s *Service) authenticated(ctx context.Context, actor access.Actor, op string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.notifications == nil {
		return errors.New("notification repository is required")
	}
	if actor.UserID == 0 {
		return errs.New(errs.KindUnauthorized, op, "authentication required")
	}
	return nil
}

func (s *Service) admin(ctx context.Context, actor access.Actor, op string) error {
	if err := s.authenticated(ctx, actor, op); err != nil {
		return err
	}
	if s.engine == nil {
		return errors.New("notification engine is required")
	}
	return actor.Require(op, access.NotificationsAdmin)
}
