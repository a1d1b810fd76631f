package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"rncflow/internal/domain/remediation"
	"rncflow/internal/errs"
	"rncflow/internal/infrastructure/persistence/sqlstore/model"
	"rncflow/internal/ports"
)

type DevolucaoRepository struct {
	db *gorm.DB
}

var _ ports.DevolucaoRepository = (*DevolucaoRepository)(nil)

func NewDevolucaoRepository(db *gorm.DB) *DevolucaoRepository {
	return &DevolucaoRepository{db: db}
}

func (r *DevolucaoRepository) Get(ctx context.Context, id uint64) (remediation.Devolucao, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return remediation.Devolucao{}, err
	}

	var row model.Devolucao
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		return remediation.Devolucao{}, notFound(err, "devolucao.get", "devolucao", id)
	}
	return mapDevolucao(row), nil
}

func (r *DevolucaoRepository) List(ctx context.Context, filter ports.RemediationFilter) ([]remediation.Devolucao, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Devolucao{})
	if filter.RncID != 0 {
		query = query.Where("rnc_id = ?", filter.RncID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var rows []model.Devolucao
	if err := paginate(query.Order("id desc"), filter.Limit, filter.Offset).Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query devolucoes")
	}

	items := make([]remediation.Devolucao, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapDevolucao(row))
	}
	return items, nil
}

func (r *DevolucaoRepository) Create(ctx context.Context, record *remediation.Devolucao) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.UpdatedAt = record.CreatedAt

	row := devolucaoRow(*record)
	if err := db.Create(&row).Error; err != nil {
		return writeError(err, "devolucao.create", "insert devolucao")
	}
	record.ID = row.ID
	return nil
}

func (r *DevolucaoRepository) Update(ctx context.Context, record remediation.Devolucao, expected remediation.DevolucaoStatus) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := devolucaoRow(record)
	result := db.Model(&model.Devolucao{}).
		Where("id = ? AND status = ?", record.ID, string(expected)).
		Updates(map[string]any{
			"status":                        row.Status,
			"nfe_pdf_path":                  row.NFePdfPath,
			"nfe_emitida_por_id":            row.NFeEmitidaPorID,
			"nfe_emitida_em":                row.NFeEmitidaEm,
			"coleta_confirmada_por_id":      row.ColetaConfirmadaPorID,
			"data_coleta":                   row.DataColeta,
			"recebimento_confirmado_por_id": row.RecebimentoConfirmadoPorID,
			"data_recebimento":              row.DataRecebimento,
			"compensacao_confirmada_por_id": row.CompensacaoConfirmadaPorID,
			"data_compensacao":              row.DataCompensacao,
			"compensacao_path":              row.CompensacaoPath,
			"updated_at":                    row.UpdatedAt,
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "update devolucao")
	}
	if result.RowsAffected == 0 {
		current, err := r.Get(ctx, record.ID)
		if err != nil {
			return err
		}
		return errs.StateMismatch("devolucao.update", string(expected), string(current.Status))
	}
	return nil
}

func (r *DevolucaoRepository) Delete(ctx context.Context, id uint64) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Where("id = ?", id).Delete(&model.Devolucao{})
	if result.Error != nil {
		return errs.Wrap(result.Error, "delete devolucao")
	}
	if result.RowsAffected == 0 {
		return errs.NotFoundf("devolucao.remove", "devolucao %d not found", id)
	}
	return nil
}

func devolucaoRow(d remediation.Devolucao) model.Devolucao {
	updatedAt := d.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	return model.Devolucao{
		ID:                         d.ID,
		RncID:                      d.RncID,
		ArOrigem:                   d.ArOrigem,
		Status:                     string(d.Status),
		Observacao:                 d.Observacao,
		NFePdfPath:                 d.NFePdfPath,
		NFeEmitidaPorID:            ptrUint(d.NFeEmitida.By),
		NFeEmitidaEm:               d.NFeEmitida.At,
		ColetaConfirmadaPorID:      ptrUint(d.Coleta.By),
		DataColeta:                 d.Coleta.At,
		RecebimentoConfirmadoPorID: ptrUint(d.Recebimento.By),
		DataRecebimento:            d.Recebimento.At,
		CompensacaoConfirmadaPorID: ptrUint(d.Compensacao.By),
		DataCompensacao:            d.Compensacao.At,
		CompensacaoPath:            d.CompensacaoPath,
		CreatedByID:                d.CreatedByID,
		CreatedAt:                  d.CreatedAt,
		UpdatedAt:                  updatedAt,
	}
}

func mapDevolucao(row model.Devolucao) remediation.Devolucao {
	return remediation.Devolucao{
		ID:              row.ID,
		RncID:           row.RncID,
		ArOrigem:        row.ArOrigem,
		Status:          remediation.DevolucaoStatus(row.Status),
		Observacao:      row.Observacao,
		NFePdfPath:      row.NFePdfPath,
		NFeEmitida:      stamp(row.NFeEmitidaPorID, row.NFeEmitidaEm),
		Coleta:          stamp(row.ColetaConfirmadaPorID, row.DataColeta),
		Recebimento:     stamp(row.RecebimentoConfirmadoPorID, row.DataRecebimento),
		Compensacao:     stamp(row.CompensacaoConfirmadaPorID, row.DataCompensacao),
		CompensacaoPath: row.CompensacaoPath,
		CreatedByID:     row.CreatedByID,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func stamp(by *uint64, at *time.Time) remediation.Stamp {
	if at == nil {
		return remediation.Stamp{}
	}
	t := at.UTC()
	return remediation.Stamp{By: derefUint(by), At: &t}
}
