package model

import "time"

type NotificationType struct {
	Code        string    `gorm:"column:code;size:100;primaryKey"`
	Name        string    `gorm:"column:name;size:255;not null"`
	Description string    `gorm:"column:description;type:text"`
	Module      string    `gorm:"column:module;size:40;not null;index"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (NotificationType) TableName() string {
	return "notification_types"
}

// UserNotificationSetting rows exist only once a user changed a default;
// no row means enabled.
type UserNotificationSetting struct {
	UserID    uint64    `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	TypeCode  string    `gorm:"column:type_code;size:100;primaryKey;index"`
	Enabled   bool      `gorm:"column:enabled;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (UserNotificationSetting) TableName() string {
	return "user_notification_settings"
}

type Notification struct {
	ID         uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID     uint64     `gorm:"column:user_id;not null;uniqueIndex:uk_notifications_user_key,priority:1"`
	UniqueKey  string     `gorm:"column:unique_key;size:191;not null;uniqueIndex:uk_notifications_user_key,priority:2"`
	TypeCode   string     `gorm:"column:type_code;size:100;not null;index"`
	EntityType string     `gorm:"column:entity_type;size:40;not null"`
	EntityID   uint64     `gorm:"column:entity_id;not null"`
	Title      string     `gorm:"column:title;size:255;not null"`
	Message    string     `gorm:"column:message;type:text"`
	Severity   string     `gorm:"column:severity;size:20;not null"`
	Link       string     `gorm:"column:link;size:255"`
	ReadAt     *time.Time `gorm:"column:read_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null"`
}

func (Notification) TableName() string {
	return "notifications"
}
