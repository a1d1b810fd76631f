package ports

import (
	"context"
	"errors"

	"rncflow/internal/domain/inc"
	"rncflow/internal/domain/notification"
	"rncflow/internal/domain/remediation"
	"rncflow/internal/domain/rnc"
)

// ErrDuplicateKey is wrapped into the Conflict error a repository returns
// when an insert hits a unique index.
var ErrDuplicateKey = errors.New("duplicate key")

type INCFilter struct {
	SupplierID uint64
	Status     inc.Status
	Limit      int
	Offset     int
}

type INCRepository interface {
	Get(ctx context.Context, id uint64) (inc.Inc, error)
	List(ctx context.Context, filter INCFilter) ([]inc.Inc, error)
	Create(ctx context.Context, record *inc.Inc) error
	// UpdateStatus moves the INC only when it is currently in from.
	UpdateStatus(ctx context.Context, id uint64, from inc.Status, to inc.Status) error
}

type RNCFilter struct {
	SupplierID uint64
	Status     rnc.Status
	Ano        int
	Sequencial int
	Limit      int
	Offset     int
}

type RNCRepository interface {
	Get(ctx context.Context, id uint64) (rnc.Notice, error)
	List(ctx context.Context, filter RNCFilter) ([]rnc.Notice, error)
	// ListDeadlineTracked returns notices in a tracked status with
	// prazoInicio set.
	ListDeadlineTracked(ctx context.Context) ([]rnc.Notice, error)
	MaxSequencial(ctx context.Context, supplierID uint64, ano int) (int, error)
	Create(ctx context.Context, notice *rnc.Notice) error
	// Update persists status, prazoInicio, plan path and pdf path only when
	// the stored status still equals expected.
	Update(ctx context.Context, notice rnc.Notice, expected rnc.Status) error
	SetDocument(ctx context.Context, id uint64, path string) error
	// ClaimRemediation links kind to an accepted notice that has none yet.
	ClaimRemediation(ctx context.Context, id uint64, kind rnc.RemediationKind) error
	ReleaseRemediation(ctx context.Context, id uint64, kind rnc.RemediationKind) error
	// CountReferencing counts notices naming id as their rncAnteriorId.
	CountReferencing(ctx context.Context, id uint64) (int64, error)
	Delete(ctx context.Context, id uint64) error
	AppendEvent(ctx context.Context, event *rnc.Event) error
	ListEvents(ctx context.Context, rncID uint64) ([]rnc.Event, error)
}

type RemediationFilter struct {
	RncID  uint64
	Status string
	Limit  int
	Offset int
}

type DevolucaoRepository interface {
	Get(ctx context.Context, id uint64) (remediation.Devolucao, error)
	List(ctx context.Context, filter RemediationFilter) ([]remediation.Devolucao, error)
	Create(ctx context.Context, record *remediation.Devolucao) error
	// Update persists a transition only when the stored status equals
	// expected.
	Update(ctx context.Context, record remediation.Devolucao, expected remediation.DevolucaoStatus) error
	Delete(ctx context.Context, id uint64) error
}

type ConsertoRepository interface {
	// Get returns the conserto with its inspection photos.
	Get(ctx context.Context, id uint64) (remediation.Conserto, error)
	List(ctx context.Context, filter RemediationFilter) ([]remediation.Conserto, error)
	ListRepairWindowOpen(ctx context.Context) ([]remediation.Conserto, error)
	Create(ctx context.Context, record *remediation.Conserto) error
	// Update persists a transition only when the stored status equals
	// expected, inserting photos that have no id yet.
	Update(ctx context.Context, record *remediation.Conserto, expected remediation.ConsertoStatus) error
	// Delete removes photos first, then the record.
	Delete(ctx context.Context, id uint64) error
}

type NotificationFilter struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

type NotificationRepository interface {
	UpsertTypes(ctx context.Context, types []notification.TypeMeta) error
	ListTypes(ctx context.Context) ([]notification.TypeMeta, error)
	TypeExists(ctx context.Context, code string) (bool, error)
	// DisabledUserIDs returns the users that opted out of code.
	DisabledUserIDs(ctx context.Context, code string) (map[uint64]struct{}, error)
	SetEnabled(ctx context.Context, userID uint64, code string, enabled bool) error
	ListSettings(ctx context.Context, userID uint64) ([]notification.Setting, error)
	// UpsertIfAbsent inserts n unless (userID, uniqueKey) exists, in which
	// case the stored record is returned with created=false.
	UpsertIfAbsent(ctx context.Context, n notification.Notification) (stored notification.Notification, created bool, err error)
	ListForUser(ctx context.Context, userID uint64, filter NotificationFilter) ([]notification.Notification, error)
	MarkRead(ctx context.Context, userID uint64, id uint64) error
}
