package rnc

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rncflow/internal/errs"
)

// RemediationKind records which remediation workflow, if any, an accepted
// notice has opened. A notice holds at most one.
type RemediationKind string

const (
	RemediationNone      RemediationKind = ""
	RemediationDevolucao RemediationKind = "devolucao"
	RemediationConserto  RemediationKind = "conserto"
)

// Notice is a formal non-conformance notice (RNC) issued to a supplier.
// Quantidade, Unidade, NotaFiscal and NumeroAR are an immutable snapshot of
// the source INC taken at creation.
type Notice struct {
	ID            uint64
	Numero        string
	Sequencial    int
	Ano           int
	SupplierID    uint64
	IncID         uint64
	Quantidade    decimal.Decimal
	Unidade       string
	NotaFiscal    string
	NumeroAR      string
	Descricao     string
	Reincidente   bool
	RncAnteriorID *uint64
	Status        Status
	PrazoInicio   *time.Time
	PdfPath       string
	PlanoAcaoPath string
	Remediation   RemediationKind
	CreatedByID   uint64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type EventKind string

const (
	EventCreated             EventKind = "criada"
	EventPlanAccepted        EventKind = "plano_aceito"
	EventPlanRejected        EventKind = "plano_rejeitado"
	EventStatusChanged       EventKind = "status_alterado"
	EventDocumentRegenerated EventKind = "documento_gerado"
)

// Event is an append-only audit entry on a notice.
type Event struct {
	ID            uint64
	RncID         uint64
	Kind          EventKind
	ActorID       uint64
	FromStatus    Status
	ToStatus      Status
	Justification string
	DocumentPath  string
	OccurredAt    time.Time
}

// CheckReincidence validates the link to a prior notice. prior is nil when
// the referenced id does not exist.
func CheckReincidence(supplierID uint64, reincidente bool, priorID *uint64, prior *Notice) error {
	const op = "rnc.create"
	if !reincidente {
		if priorID != nil {
			return errs.Validationf(op, "rncAnteriorId given but reincidente is false")
		}
		return nil
	}
	if priorID == nil || *priorID == 0 {
		return errs.Validationf(op, "reincidente requires rncAnteriorId")
	}
	if prior == nil {
		return errs.NotFoundf(op, "prior rnc %d not found", *priorID)
	}
	if prior.SupplierID != supplierID {
		return errs.New(errs.KindInvalidReference, op,
			"prior rnc %s belongs to supplier %d, not %d", prior.Numero, prior.SupplierID, supplierID)
	}
	return nil
}

// CheckCanOpenRemediation guards creation of a Devolução or Conserto.
func CheckCanOpenRemediation(n Notice, op string) error {
	if n.Status != StatusAceita {
		return errs.StateMismatch(op, string(StatusAceita), string(n.Status))
	}
	if n.Remediation != RemediationNone {
		return errs.New(errs.KindConflict, op, "rnc %s already has a %s", n.Numero, n.Remediation)
	}
	return nil
}

// CheckRemovable blocks deleting a notice that still has a remediation or
// that later repeat notices point to as their prior occurrence.
func CheckRemovable(n Notice, referencedBy int64) error {
	if n.Remediation != RemediationNone {
		return errs.New(errs.KindConflict, "rnc.remove",
			"rnc %s has a linked %s; remove it first", n.Numero, n.Remediation)
	}
	if referencedBy > 0 {
		return errs.New(errs.KindConflict, "rnc.remove",
			"rnc %s is the prior occurrence of %d repeat rnc(s)", n.Numero, referencedBy)
	}
	return nil
}

func NormalizeJustification(raw string) (string, error) {
	j := strings.TrimSpace(raw)
	if j == "" {
		return "", errs.Validationf("rnc.reject_plan", "justification is required")
	}
	return j, nil
}
