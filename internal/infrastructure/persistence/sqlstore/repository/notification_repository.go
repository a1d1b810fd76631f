package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rncflow/internal/domain/notification"
	"rncflow/internal/errs"
	"rncflow/internal/infrastructure/persistence/sqlstore/model"
	"rncflow/internal/ports"
)

type NotificationRepository struct {
	db *gorm.DB
}

var _ ports.NotificationRepository = (*NotificationRepository)(nil)

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) UpsertTypes(ctx context.Context, types []notification.TypeMeta) error {
	if len(types) == 0 {
		return nil
	}
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	rows := make([]model.NotificationType, 0, len(types))
	for _, t := range types {
		rows = append(rows, model.NotificationType{
			Code:        notification.NormalizeCode(t.Code),
			Name:        t.Name,
			Description: t.Description,
			Module:      t.Module,
		})
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "module", "updated_at"}),
	}).Create(&rows).Error; err != nil {
		return errs.Wrap(err, "upsert notification types")
	}
	return nil
}

func (r *NotificationRepository) ListTypes(ctx context.Context) ([]notification.TypeMeta, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.NotificationType
	if err := db.Order("module asc, code asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query notification types")
	}

	items := make([]notification.TypeMeta, 0, len(rows))
	for _, row := range rows {
		items = append(items, notification.TypeMeta{
			Code:        row.Code,
			Name:        row.Name,
			Description: row.Description,
			Module:      row.Module,
		})
	}
	return items, nil
}

func (r *NotificationRepository) TypeExists(ctx context.Context, code string) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.Model(&model.NotificationType{}).
		Where("code = ?", notification.NormalizeCode(code)).
		Count(&count).Error; err != nil {
		return false, errs.Wrap(err, "count notification type")
	}
	return count > 0, nil
}

func (r *NotificationRepository) DisabledUserIDs(ctx context.Context, code string) (map[uint64]struct{}, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var ids []uint64
	if err := db.Model(&model.UserNotificationSetting{}).
		Where("type_code = ? AND enabled = ?", notification.NormalizeCode(code), false).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, errs.Wrap(err, "query disabled users")
	}

	out := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (r *NotificationRepository) SetEnabled(ctx context.Context, userID uint64, code string, enabled bool) error {
	code = notification.NormalizeCode(code)
	exists, err := r.TypeExists(ctx, code)
	if err != nil {
		return err
	}
	if !exists {
		return errs.NotFoundf("notification.set_enabled", "notification type %q not found", code)
	}

	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := model.UserNotificationSetting{
		UserID:    userID,
		TypeCode:  code,
		Enabled:   enabled,
		UpdatedAt: time.Now().UTC(),
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "type_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert notification setting")
	}
	return nil
}

func (r *NotificationRepository) ListSettings(ctx context.Context, userID uint64) ([]notification.Setting, error) {
	types, err := r.ListTypes(ctx)
	if err != nil {
		return nil, err
	}
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.UserNotificationSetting
	if err := db.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query notification settings")
	}
	enabled := make(map[string]bool, len(rows))
	for _, row := range rows {
		enabled[row.TypeCode] = row.Enabled
	}

	items := make([]notification.Setting, 0, len(types))
	for _, t := range types {
		on, set := enabled[t.Code]
		items = append(items, notification.Setting{Type: t, Enabled: !set || on})
	}
	return items, nil
}

func (r *NotificationRepository) UpsertIfAbsent(ctx context.Context, n notification.Notification) (notification.Notification, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return notification.Notification{}, false, err
	}

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	row := model.Notification{
		UserID:     n.UserID,
		UniqueKey:  n.UniqueKey,
		TypeCode:   notification.NormalizeCode(n.TypeCode),
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		Title:      n.Title,
		Message:    n.Message,
		Severity:   string(n.Severity),
		Link:       n.Link,
		CreatedAt:  n.CreatedAt,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "unique_key"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return notification.Notification{}, false, errs.Wrap(result.Error, "insert notification")
	}
	if result.RowsAffected > 0 {
		return mapNotification(row), true, nil
	}

	var existing model.Notification
	if err := db.Where("user_id = ? AND unique_key = ?", n.UserID, n.UniqueKey).Take(&existing).Error; err != nil {
		return notification.Notification{}, false, errs.Wrap(err, "query existing notification")
	}
	return mapNotification(existing), false, nil
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID uint64, filter ports.NotificationFilter) ([]notification.Notification, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Notification{}).Where("user_id = ?", userID)
	if filter.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var rows []model.Notification
	if err := paginate(query.Order("id desc"), filter.Limit, filter.Offset).Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query notifications")
	}

	items := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items, nil
}

// MarkRead is idempotent; a notification owned by someone else is
// reported as not found.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID uint64, id uint64) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	var row model.Notification
	if err := db.Where("id = ? AND user_id = ?", id, userID).Take(&row).Error; err != nil {
		return notFound(err, "notification.mark_read", "notification", id)
	}
	if row.ReadAt != nil {
		return nil
	}
	if err := db.Model(&model.Notification{}).
		Where("id = ?", id).
		Update("read_at", time.Now().UTC()).Error; err != nil {
		return errs.Wrap(err, "mark notification read")
	}
	return nil
}

func mapNotification(row model.Notification) notification.Notification {
	return notification.Notification{
		ID:         row.ID,
		UserID:     row.UserID,
		TypeCode:   row.TypeCode,
		UniqueKey:  row.UniqueKey,
		EntityType: row.EntityType,
		EntityID:   row.EntityID,
		Title:      row.Title,
		Message:    row.Message,
		Severity:   notification.Severity(row.Severity),
		Link:       row.Link,
		Read:       row.ReadAt != nil,
		ReadAt:     row.ReadAt,
		CreatedAt:  row.CreatedAt,
	}
}
