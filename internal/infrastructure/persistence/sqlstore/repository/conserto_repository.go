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

type ConsertoRepository struct {
	db *gorm.DB
}

var _ ports.ConsertoRepository = (*ConsertoRepository)(nil)

func NewConsertoRepository(db *gorm.DB) *ConsertoRepository {
	return &ConsertoRepository{db: db}
}

func (r *ConsertoRepository) Get(ctx context.Context, id uint64) (remediation.Conserto, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return remediation.Conserto{}, err
	}

	var row model.Conserto
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		return remediation.Conserto{}, notFound(err, "conserto.get", "conserto", id)
	}
	photos, err := listPhotos(db, []uint64{row.ID})
	if err != nil {
		return remediation.Conserto{}, err
	}
	return mapConserto(row, photos[row.ID]), nil
}

func (r *ConsertoRepository) List(ctx context.Context, filter ports.RemediationFilter) ([]remediation.Conserto, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Conserto{})
	if filter.RncID != 0 {
		query = query.Where("rnc_id = ?", filter.RncID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var rows []model.Conserto
	if err := paginate(query.Order("id desc"), filter.Limit, filter.Offset).Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query consertos")
	}
	return hydrateConsertos(db, rows)
}

// ListRepairWindowOpen returns consertos received by the supplier and not
// yet returned, the only stage where the 30-day window runs.
func (r *ConsertoRepository) ListRepairWindowOpen(ctx context.Context) ([]remediation.Conserto, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Conserto
	if err := db.
		Where("status = ? AND prazo_conserto_fim IS NOT NULL", string(remediation.ConsertoRecebido)).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query open repair windows")
	}
	return hydrateConsertos(db, rows)
}

func (r *ConsertoRepository) Create(ctx context.Context, record *remediation.Conserto) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.UpdatedAt = record.CreatedAt

	row := consertoRow(*record)
	if err := db.Create(&row).Error; err != nil {
		return writeError(err, "conserto.create", "insert conserto")
	}
	record.ID = row.ID
	return nil
}

func (r *ConsertoRepository) Update(ctx context.Context, record *remediation.Conserto, expected remediation.ConsertoStatus) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := consertoRow(*record)
	result := db.Model(&model.Conserto{}).
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
			"prazo_conserto_inicio":         row.PrazoConsertoInicio,
			"prazo_conserto_fim":            row.PrazoConsertoFim,
			"retorno_confirmado_por_id":     row.RetornoConfirmadoPorID,
			"data_retorno":                  row.DataRetorno,
			"nfe_retorno_pdf_path":          row.NFeRetornoPdfPath,
			"inspecao_resultado":            row.InspecaoResultado,
			"inspecao_descricao":            row.InspecaoDescricao,
			"inspecao_por_id":               row.InspecaoPorID,
			"data_inspecao":                 row.DataInspecao,
			"updated_at":                    row.UpdatedAt,
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "update conserto")
	}
	if result.RowsAffected == 0 {
		var current model.Conserto
		if err := db.Where("id = ?", record.ID).Take(&current).Error; err != nil {
			return notFound(err, "conserto.update", "conserto", record.ID)
		}
		return errs.StateMismatch("conserto.update", string(expected), current.Status)
	}

	for i := range record.Inspection.Photos {
		photo := &record.Inspection.Photos[i]
		if photo.ID != 0 {
			continue
		}
		if photo.CreatedAt.IsZero() {
			photo.CreatedAt = row.UpdatedAt
		}
		photoRow := model.ConsertoPhoto{
			ConsertoID: record.ID,
			Kind:       string(photo.Kind),
			Path:       photo.Path,
			CreatedAt:  photo.CreatedAt,
		}
		if err := db.Create(&photoRow).Error; err != nil {
			return errs.Wrap(err, "insert conserto photo")
		}
		photo.ID = photoRow.ID
		photo.ConsertoID = record.ID
	}
	return nil
}

func (r *ConsertoRepository) Delete(ctx context.Context, id uint64) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	if err := db.Where("conserto_id = ?", id).Delete(&model.ConsertoPhoto{}).Error; err != nil {
		return errs.Wrap(err, "delete conserto photos")
	}
	result := db.Where("id = ?", id).Delete(&model.Conserto{})
	if result.Error != nil {
		return errs.Wrap(result.Error, "delete conserto")
	}
	if result.RowsAffected == 0 {
		return errs.NotFoundf("conserto.remove", "conserto %d not found", id)
	}
	return nil
}

func hydrateConsertos(db *gorm.DB, rows []model.Conserto) ([]remediation.Conserto, error) {
	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	photos, err := listPhotos(db, ids)
	if err != nil {
		return nil, err
	}

	items := make([]remediation.Conserto, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapConserto(row, photos[row.ID]))
	}
	return items, nil
}

func listPhotos(db *gorm.DB, consertoIDs []uint64) (map[uint64][]remediation.Photo, error) {
	out := make(map[uint64][]remediation.Photo, len(consertoIDs))
	if len(consertoIDs) == 0 {
		return out, nil
	}

	var rows []model.ConsertoPhoto
	if err := db.
		Where("conserto_id IN ?", consertoIDs).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query conserto photos")
	}
	for _, row := range rows {
		out[row.ConsertoID] = append(out[row.ConsertoID], remediation.Photo{
			ID:         row.ID,
			ConsertoID: row.ConsertoID,
			Kind:       remediation.PhotoKind(row.Kind),
			Path:       row.Path,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out, nil
}

func consertoRow(c remediation.Conserto) model.Conserto {
	updatedAt := c.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	result := c.Inspection.Result
	if result == "" {
		result = remediation.InspectionPending
	}
	return model.Conserto{
		ID:                         c.ID,
		RncID:                      c.RncID,
		ArOrigem:                   c.ArOrigem,
		Frete:                      string(c.Frete),
		Transportadora:             c.Transportadora,
		Status:                     string(c.Status),
		Observacao:                 c.Observacao,
		NFePdfPath:                 c.NFePdfPath,
		NFeEmitidaPorID:            ptrUint(c.NFeEmitida.By),
		NFeEmitidaEm:               c.NFeEmitida.At,
		ColetaConfirmadaPorID:      ptrUint(c.Coleta.By),
		DataColeta:                 c.Coleta.At,
		RecebimentoConfirmadoPorID: ptrUint(c.Recebimento.By),
		DataRecebimento:            c.Recebimento.At,
		PrazoConsertoInicio:        c.PrazoConsertoInicio,
		PrazoConsertoFim:           c.PrazoConsertoFim,
		RetornoConfirmadoPorID:     ptrUint(c.Retorno.By),
		DataRetorno:                c.Retorno.At,
		NFeRetornoPdfPath:          c.NFeRetornoPdfPath,
		InspecaoResultado:          string(result),
		InspecaoDescricao:          c.Inspection.Descricao,
		InspecaoPorID:              ptrUint(c.Inspection.Stamp.By),
		DataInspecao:               c.Inspection.Stamp.At,
		CreatedByID:                c.CreatedByID,
		CreatedAt:                  c.CreatedAt,
		UpdatedAt:                  updatedAt,
	}
}

func mapConserto(row model.Conserto, photos []remediation.Photo) remediation.Conserto {
	c := remediation.Conserto{
		ID:                  row.ID,
		RncID:               row.RncID,
		ArOrigem:            row.ArOrigem,
		Frete:               remediation.Frete(row.Frete),
		Transportadora:      row.Transportadora,
		Status:              remediation.ConsertoStatus(row.Status),
		Observacao:          row.Observacao,
		NFePdfPath:          row.NFePdfPath,
		NFeEmitida:          stamp(row.NFeEmitidaPorID, row.NFeEmitidaEm),
		Coleta:              stamp(row.ColetaConfirmadaPorID, row.DataColeta),
		Recebimento:         stamp(row.RecebimentoConfirmadoPorID, row.DataRecebimento),
		PrazoConsertoInicio: utcPtr(row.PrazoConsertoInicio),
		PrazoConsertoFim:    utcPtr(row.PrazoConsertoFim),
		Retorno:             stamp(row.RetornoConfirmadoPorID, row.DataRetorno),
		NFeRetornoPdfPath:   row.NFeRetornoPdfPath,
		Inspection: remediation.Inspection{
			Result:    remediation.InspectionResult(row.InspecaoResultado),
			Descricao: row.InspecaoDescricao,
			Stamp:     stamp(row.InspecaoPorID, row.DataInspecao),
			Photos:    photos,
		},
		CreatedByID: row.CreatedByID,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if c.Inspection.Result == "" {
		c.Inspection.Result = remediation.InspectionPending
	}
	return c
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
