// Package notification holds the deadline notification vocabulary: rule
// metadata, the candidates a rule produces and the delivered records.
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityUrgent  Severity = "urgent"
)

// TypeMeta describes a rule so it can be listed in user settings.
type TypeMeta struct {
	Code        string
	Name        string
	Description string
	Module      string
}

// Candidate is one entity a rule wants to notify about in the current sweep.
type Candidate struct {
	EntityID   uint64
	EntityType string
	Title      string
	Message    string
	Severity   Severity
	Link       string
}

// Rule is a self-describing deadline watcher. Evaluate must be read-only;
// delivery and deduplication happen in the engine.
type Rule interface {
	Meta() TypeMeta
	// Permissions lists the codes whose holders receive the rule's
	// notifications. admin.all is always added by the engine.
	Permissions() []string
	Evaluate(ctx context.Context, now time.Time) ([]Candidate, error)
}

// Notification is a delivered record.
type Notification struct {
	ID         uint64
	UserID     uint64
	TypeCode   string
	UniqueKey  string
	EntityType string
	EntityID   uint64
	Title      string
	Message    string
	Severity   Severity
	Link       string
	Read       bool
	ReadAt     *time.Time
	CreatedAt  time.Time
}

// Setting is one user's enablement of a rule code. Absent rows mean enabled.
type Setting struct {
	Type    TypeMeta
	Enabled bool
}

// UniqueKey is {code}_{entityId}_{YYYY-MM-DD}, the date taken in the
// caller's timezone.
func UniqueKey(code string, entityID uint64, day time.Time) string {
	return fmt.Sprintf("%s_%d_%s", code, entityID, day.Format(time.DateOnly))
}

// NormalizeCode trims and lower-cases a rule code.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
