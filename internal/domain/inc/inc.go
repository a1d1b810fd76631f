// Package inc holds the initial non-conformance intake record (INC) a notice
// is derived from. Only the fields the RNC workflow snapshots are modelled.
package inc

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rncflow/internal/errs"
)

type Status string

const (
	StatusEmAnalise  Status = "Em análise"
	StatusRNCEnviada Status = "RNC enviada"
)

type Inc struct {
	ID          uint64
	SupplierID  uint64
	Quantidade  decimal.Decimal
	Unidade     string
	NotaFiscal  string
	NumeroAR    string
	Descricao   string
	Status      Status
	CreatedByID uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (i Inc) Validate() error {
	const op = "inc.validate"
	if i.SupplierID == 0 {
		return errs.Validationf(op, "supplierId is required")
	}
	if !i.Quantidade.IsPositive() {
		return errs.Validationf(op, "quantidade must be greater than zero")
	}
	if strings.TrimSpace(i.Unidade) == "" {
		return errs.Validationf(op, "unidade is required")
	}
	return nil
}

// CheckCanRaiseNotice gates RNC creation on the INC status.
func CheckCanRaiseNotice(i Inc) error {
	if i.Status != StatusEmAnalise {
		return errs.StateMismatch("rnc.create", string(StatusEmAnalise), string(i.Status))
	}
	return nil
}
