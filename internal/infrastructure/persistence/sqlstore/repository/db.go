package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"rncflow/internal/errs"
	"rncflow/internal/ports"
)

// dbFromContext returns the transaction stored in ctx, or base.
func dbFromContext(ctx context.Context, base *gorm.DB) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return base.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

// writeError classifies driver errors that callers react to.
func writeError(err error, op string, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &errs.Error{Kind: errs.KindConflict, Op: op, Msg: msg, Err: ports.ErrDuplicateKey}
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return &errs.Error{Kind: errs.KindInvalidReference, Op: op, Msg: msg, Err: err}
	}
	return errs.Wrap(err, op+": "+msg)
}

func notFound(err error, op string, entity string, id uint64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFoundf(op, "%s %d not found", entity, id)
	}
	return errs.Wrapf(err, "%s: query %s", op, entity)
}

func paginate(query *gorm.DB, limit int, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

func ptrUint(v uint64) *uint64 {
	if v == 0 {
		return nil
	}
	return &v
}

func derefUint(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}
