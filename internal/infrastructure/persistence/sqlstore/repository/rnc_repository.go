package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"rncflow/internal/domain/rnc"
	"rncflow/internal/errs"
	"rncflow/internal/infrastructure/persistence/sqlstore/model"
	"rncflow/internal/ports"
)

type RNCRepository struct {
	db *gorm.DB
}

var _ ports.RNCRepository = (*RNCRepository)(nil)

func NewRNCRepository(db *gorm.DB) *RNCRepository {
	return &RNCRepository{db: db}
}

func (r *RNCRepository) Get(ctx context.Context, id uint64) (rnc.Notice, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return rnc.Notice{}, err
	}

	var row model.Rnc
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		return rnc.Notice{}, notFound(err, "rnc.get", "rnc", id)
	}
	return mapRnc(row), nil
}

func (r *RNCRepository) List(ctx context.Context, filter ports.RNCFilter) ([]rnc.Notice, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Rnc{})
	if filter.SupplierID != 0 {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Ano != 0 {
		query = query.Where("ano = ?", filter.Ano)
	}
	if filter.Sequencial != 0 {
		query = query.Where("sequencial = ?", filter.Sequencial)
	}

	var rows []model.Rnc
	if err := paginate(query.Order("id desc"), filter.Limit, filter.Offset).Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query rncs")
	}
	return mapRncs(rows), nil
}

func (r *RNCRepository) ListDeadlineTracked(ctx context.Context) ([]rnc.Notice, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	statuses := make([]string, 0, len(rnc.DeadlineTrackedStatuses))
	for _, s := range rnc.DeadlineTrackedStatuses {
		statuses = append(statuses, string(s))
	}

	var rows []model.Rnc
	if err := db.
		Where("status IN ? AND prazo_inicio IS NOT NULL", statuses).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query deadline tracked rncs")
	}
	return mapRncs(rows), nil
}

func (r *RNCRepository) MaxSequencial(ctx context.Context, supplierID uint64, ano int) (int, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var current int
	if err := db.Model(&model.Rnc{}).
		Select("COALESCE(MAX(sequencial), 0)").
		Where("supplier_id = ? AND ano = ?", supplierID, ano).
		Scan(&current).Error; err != nil {
		return 0, errs.Wrap(err, "query max sequencial")
	}
	return current, nil
}

func (r *RNCRepository) Create(ctx context.Context, notice *rnc.Notice) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	if notice.CreatedAt.IsZero() {
		notice.CreatedAt = time.Now().UTC()
	}
	notice.UpdatedAt = notice.CreatedAt

	row := model.Rnc{
		Numero:          notice.Numero,
		SupplierID:      notice.SupplierID,
		Ano:             notice.Ano,
		Sequencial:      notice.Sequencial,
		IncID:           notice.IncID,
		Quantidade:      notice.Quantidade,
		Unidade:         notice.Unidade,
		NotaFiscal:      notice.NotaFiscal,
		NumeroAR:        notice.NumeroAR,
		Descricao:       notice.Descricao,
		Reincidente:     notice.Reincidente,
		RncAnteriorID:   notice.RncAnteriorID,
		Status:          string(notice.Status),
		PrazoInicio:     notice.PrazoInicio,
		PdfPath:         notice.PdfPath,
		PlanoAcaoPath:   notice.PlanoAcaoPath,
		RemediationKind: string(notice.Remediation),
		CreatedByID:     notice.CreatedByID,
		CreatedAt:       notice.CreatedAt,
		UpdatedAt:       notice.UpdatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return writeError(err, "rnc.create", "insert rnc")
	}
	notice.ID = row.ID
	return nil
}

func (r *RNCRepository) Update(ctx context.Context, notice rnc.Notice, expected rnc.Status) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	updatedAt := notice.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	result := db.Model(&model.Rnc{}).
		Where("id = ? AND status = ?", notice.ID, string(expected)).
		Updates(map[string]any{
			"status":          string(notice.Status),
			"prazo_inicio":    notice.PrazoInicio,
			"plano_acao_path": notice.PlanoAcaoPath,
			"pdf_path":        notice.PdfPath,
			"updated_at":      updatedAt,
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "update rnc")
	}
	if result.RowsAffected == 0 {
		current, err := r.Get(ctx, notice.ID)
		if err != nil {
			return err
		}
		return errs.StateMismatch("rnc.update", string(expected), string(current.Status))
	}
	return nil
}

func (r *RNCRepository) SetDocument(ctx context.Context, id uint64, path string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Model(&model.Rnc{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"pdf_path":   path,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "update rnc document")
	}
	if result.RowsAffected == 0 {
		return errs.NotFoundf("rnc.set_document", "rnc %d not found", id)
	}
	return nil
}

// ClaimRemediation is a conditional update on the notice row. Two requests
// racing to open a Devolução and a Conserto serialize on it: the loser sees
// zero rows affected.
func (r *RNCRepository) ClaimRemediation(ctx context.Context, id uint64, kind rnc.RemediationKind) error {
	op := string(kind) + ".create"
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Model(&model.Rnc{}).
		Where("id = ? AND status = ? AND remediation_kind = ?", id, string(rnc.StatusAceita), string(rnc.RemediationNone)).
		Updates(map[string]any{
			"remediation_kind": string(kind),
			"updated_at":       time.Now().UTC(),
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "claim rnc remediation")
	}
	if result.RowsAffected == 1 {
		return nil
	}

	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := rnc.CheckCanOpenRemediation(current, op); err != nil {
		return err
	}
	return errs.New(errs.KindConflict, op, "rnc %d remediation claimed concurrently", id)
}

func (r *RNCRepository) ReleaseRemediation(ctx context.Context, id uint64, kind rnc.RemediationKind) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	if err := db.Model(&model.Rnc{}).
		Where("id = ? AND remediation_kind = ?", id, string(kind)).
		Updates(map[string]any{
			"remediation_kind": string(rnc.RemediationNone),
			"updated_at":       time.Now().UTC(),
		}).Error; err != nil {
		return errs.Wrap(err, "release rnc remediation")
	}
	return nil
}

func (r *RNCRepository) CountReferencing(ctx context.Context, id uint64) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.Rnc{}).Where("rnc_anterior_id = ?", id).Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count referencing rncs")
	}
	return count, nil
}

func (r *RNCRepository) Delete(ctx context.Context, id uint64) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	if err := db.Where("rnc_id = ?", id).Delete(&model.RncEvent{}).Error; err != nil {
		return errs.Wrap(err, "delete rnc events")
	}
	result := db.Where("id = ?", id).Delete(&model.Rnc{})
	if result.Error != nil {
		return writeError(result.Error, "rnc.remove", "delete rnc")
	}
	if result.RowsAffected == 0 {
		return errs.NotFoundf("rnc.remove", "rnc %d not found", id)
	}
	return nil
}

func (r *RNCRepository) AppendEvent(ctx context.Context, event *rnc.Event) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	row := model.RncEvent{
		RncID:         event.RncID,
		Kind:          string(event.Kind),
		ActorID:       event.ActorID,
		FromStatus:    string(event.FromStatus),
		ToStatus:      string(event.ToStatus),
		Justification: event.Justification,
		DocumentPath:  event.DocumentPath,
		OccurredAt:    event.OccurredAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert rnc event")
	}
	event.ID = row.ID
	return nil
}

func (r *RNCRepository) ListEvents(ctx context.Context, rncID uint64) ([]rnc.Event, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.RncEvent
	if err := db.
		Where("rnc_id = ?", rncID).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query rnc events")
	}

	items := make([]rnc.Event, 0, len(rows))
	for _, row := range rows {
		items = append(items, rnc.Event{
			ID:            row.ID,
			RncID:         row.RncID,
			Kind:          rnc.EventKind(row.Kind),
			ActorID:       row.ActorID,
			FromStatus:    rnc.Status(row.FromStatus),
			ToStatus:      rnc.Status(row.ToStatus),
			Justification: row.Justification,
			DocumentPath:  row.DocumentPath,
			OccurredAt:    row.OccurredAt,
		})
	}
	return items, nil
}

func mapRncs(rows []model.Rnc) []rnc.Notice {
	items := make([]rnc.Notice, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapRnc(row))
	}
	return items
}

func mapRnc(row model.Rnc) rnc.Notice {
	return rnc.Notice{
		ID:            row.ID,
		Numero:        row.Numero,
		Sequencial:    row.Sequencial,
		Ano:           row.Ano,
		SupplierID:    row.SupplierID,
		IncID:         row.IncID,
		Quantidade:    row.Quantidade,
		Unidade:       row.Unidade,
		NotaFiscal:    row.NotaFiscal,
		NumeroAR:      row.NumeroAR,
		Descricao:     row.Descricao,
		Reincidente:   row.Reincidente,
		RncAnteriorID: row.RncAnteriorID,
		Status:        rnc.Status(row.Status),
		PrazoInicio:   row.PrazoInicio,
		PdfPath:       row.PdfPath,
		PlanoAcaoPath: row.PlanoAcaoPath,
		Remediation:   rnc.RemediationKind(row.RemediationKind),
		CreatedByID:   row.CreatedByID,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}
