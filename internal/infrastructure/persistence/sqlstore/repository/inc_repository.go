package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"rncflow/internal/domain/inc"
	"rncflow/internal/errs"
	"rncflow/internal/infrastructure/persistence/sqlstore/model"
	"rncflow/internal/ports"
)

type INCRepository struct {
	db *gorm.DB
}

var _ ports.INCRepository = (*INCRepository)(nil)

func NewINCRepository(db *gorm.DB) *INCRepository {
	return &INCRepository{db: db}
}

func (r *INCRepository) Get(ctx context.Context, id uint64) (inc.Inc, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return inc.Inc{}, err
	}

	var row model.Inc
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		return inc.Inc{}, notFound(err, "inc.get", "inc", id)
	}
	return mapInc(row), nil
}

func (r *INCRepository) List(ctx context.Context, filter ports.INCFilter) ([]inc.Inc, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Inc{})
	if filter.SupplierID != 0 {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	var rows []model.Inc
	if err := paginate(query.Order("id desc"), filter.Limit, filter.Offset).Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query incs")
	}

	items := make([]inc.Inc, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapInc(row))
	}
	return items, nil
}

func (r *INCRepository) Create(ctx context.Context, record *inc.Inc) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = record.CreatedAt

	row := model.Inc{
		SupplierID:  record.SupplierID,
		Quantidade:  record.Quantidade,
		Unidade:     record.Unidade,
		NotaFiscal:  record.NotaFiscal,
		NumeroAR:    record.NumeroAR,
		Descricao:   record.Descricao,
		Status:      string(record.Status),
		CreatedByID: record.CreatedByID,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return writeError(err, "inc.create", "insert inc")
	}
	record.ID = row.ID
	return nil
}

func (r *INCRepository) UpdateStatus(ctx context.Context, id uint64, from inc.Status, to inc.Status) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Model(&model.Inc{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]any{
			"status":     string(to),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "update inc status")
	}
	if result.RowsAffected == 0 {
		current, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		return errs.StateMismatch("inc.update_status", string(from), string(current.Status))
	}
	return nil
}

func mapInc(row model.Inc) inc.Inc {
	return inc.Inc{
		ID:          row.ID,
		SupplierID:  row.SupplierID,
		Quantidade:  row.Quantidade,
		Unidade:     row.Unidade,
		NotaFiscal:  row.NotaFiscal,
		NumeroAR:    row.NumeroAR,
		Descricao:   row.Descricao,
		Status:      inc.Status(row.Status),
		CreatedByID: row.CreatedByID,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
