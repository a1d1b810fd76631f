package ports

import (
	"context"
	"time"

	"rncflow/internal/domain/notification"
	"rncflow/internal/domain/rnc"
	"rncflow/internal/domain/upload"
)

type Supplier struct {
	ID        uint64
	Name      string
	CNPJ      string
	CreatedAt time.Time
}

type User struct {
	ID          uint64
	Name        string
	Email       string
	Permissions []string
	CreatedAt   time.Time
}

// Directory is the identity and supplier collaborator.
type Directory interface {
	GetSupplier(ctx context.Context, id uint64) (Supplier, error)
	GetUser(ctx context.Context, id uint64) (User, error)
	PermissionsOf(ctx context.Context, userID uint64) ([]string, error)
	// UserIDsWithAnyPermission returns ids holding at least one of codes,
	// sorted ascending.
	UserIDsWithAnyPermission(ctx context.Context, codes []string) ([]uint64, error)
	CreateSupplier(ctx context.Context, supplier *Supplier) error
	CreateUser(ctx context.Context, user *User) error
}

// FileStore keeps uploaded evidence. Delete is best-effort for callers:
// failures are logged, never returned to the user.
type FileStore interface {
	Store(ctx context.Context, folder string, file upload.File) (path string, err error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}

// NoticeDocument is everything the renderer needs for one notice.
type NoticeDocument struct {
	Notice      rnc.Notice
	Supplier    Supplier
	Prior       *rnc.Notice
	GeneratedAt time.Time
}

type DocumentRenderer interface {
	RenderNotice(ctx context.Context, doc NoticeDocument) (path string, err error)
}

// NotificationPublisher fans newly created notifications out to live
// consumers. The record is already persisted when Publish runs.
type NotificationPublisher interface {
	Publish(ctx context.Context, n notification.Notification) error
}

// Locker serializes work across processes. release is nil when ok is
// false.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}
