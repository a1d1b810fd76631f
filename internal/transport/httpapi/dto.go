package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	domaininc "rncflow/internal/domain/inc"
	domainnotification "rncflow/internal/domain/notification"
	"rncflow/internal/domain/remediation"
	domainrnc "rncflow/internal/domain/rnc"
	"rncflow/internal/usecase/conserto"
	"rncflow/internal/usecase/rnc"
)

type createINCRequest struct {
	SupplierID uint64          `json:"supplierId" validate:"required"`
	Quantidade decimal.Decimal `json:"quantidade"`
	Unidade    string          `json:"unidade" validate:"required"`
	NotaFiscal string          `json:"notaFiscal" validate:"required"`
	NumeroAR   string          `json:"numeroAr" validate:"required"`
	Descricao  string          `json:"descricao"`
}

type createRNCRequest struct {
	IncID         uint64  `json:"incId" validate:"required"`
	Descricao     string  `json:"descricao"`
	Reincidente   bool    `json:"reincidente"`
	RncAnteriorID *uint64 `json:"rncAnteriorId"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type createDevolucaoRequest struct {
	RncID      uint64 `json:"rncId" validate:"required"`
	Observacao string `json:"observacao"`
}

type createConsertoRequest struct {
	RncID          uint64 `json:"rncId" validate:"required"`
	Frete          string `json:"frete" validate:"required"`
	Transportadora string `json:"transportadora"`
	Observacao     string `json:"observacao"`
}

type settingRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type incResponse struct {
	ID          uint64          `json:"id"`
	SupplierID  uint64          `json:"supplierId"`
	Quantidade  decimal.Decimal `json:"quantidade"`
	Unidade     string          `json:"unidade"`
	NotaFiscal  string          `json:"notaFiscal"`
	NumeroAR    string          `json:"numeroAr"`
	Descricao   string          `json:"descricao"`
	Status      string          `json:"status"`
	CreatedByID uint64          `json:"createdById"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func newINCResponse(i domaininc.Inc) incResponse {
	return incResponse{
		ID:          i.ID,
		SupplierID:  i.SupplierID,
		Quantidade:  i.Quantidade,
		Unidade:     i.Unidade,
		NotaFiscal:  i.NotaFiscal,
		NumeroAR:    i.NumeroAR,
		Descricao:   i.Descricao,
		Status:      string(i.Status),
		CreatedByID: i.CreatedByID,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

type deadlineResponse struct {
	Start         time.Time `json:"start"`
	Due           time.Time `json:"due"`
	DaysElapsed   int       `json:"daysElapsed"`
	DaysRemaining int       `json:"daysRemaining"`
	Level         string    `json:"level"`
}

type rncResponse struct {
	ID            uint64            `json:"id"`
	Numero        string            `json:"numero"`
	Sequencial    int               `json:"sequencial"`
	Ano           int               `json:"ano"`
	SupplierID    uint64            `json:"supplierId"`
	IncID         uint64            `json:"incId"`
	Quantidade    decimal.Decimal   `json:"quantidade"`
	Unidade       string            `json:"unidade"`
	NotaFiscal    string            `json:"notaFiscal"`
	NumeroAR      string            `json:"numeroAr"`
	Descricao     string            `json:"descricao"`
	Reincidente   bool              `json:"reincidente"`
	RncAnteriorID *uint64           `json:"rncAnteriorId,omitempty"`
	Status        string            `json:"status"`
	PrazoInicio   *time.Time        `json:"prazoInicio,omitempty"`
	PdfPath       string            `json:"pdfPath,omitempty"`
	PlanoAcaoPath string            `json:"planoAcaoPath,omitempty"`
	Remediation   string            `json:"remediation,omitempty"`
	Deadline      *deadlineResponse `json:"deadline,omitempty"`
	CreatedByID   uint64            `json:"createdById"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func newRNCResponse(v rnc.View) rncResponse {
	out := rncResponse{
		ID:            v.ID,
		Numero:        v.Numero,
		Sequencial:    v.Sequencial,
		Ano:           v.Ano,
		SupplierID:    v.SupplierID,
		IncID:         v.IncID,
		Quantidade:    v.Quantidade,
		Unidade:       v.Unidade,
		NotaFiscal:    v.NotaFiscal,
		NumeroAR:      v.NumeroAR,
		Descricao:     v.Descricao,
		Reincidente:   v.Reincidente,
		RncAnteriorID: v.RncAnteriorID,
		Status:        string(v.Status),
		PrazoInicio:   v.PrazoInicio,
		PdfPath:       v.PdfPath,
		PlanoAcaoPath: v.PlanoAcaoPath,
		Remediation:   string(v.Remediation),
		CreatedByID:   v.CreatedByID,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
	if d := v.Deadline; d != nil {
		out.Deadline = &deadlineResponse{
			Start:         d.Start,
			Due:           d.Due,
			DaysElapsed:   d.DaysElapsed,
			DaysRemaining: d.DaysRemaining,
			Level:         string(d.Level),
		}
	}
	return out
}

type eventResponse struct {
	ID            uint64    `json:"id"`
	Kind          string    `json:"kind"`
	ActorID       uint64    `json:"actorId"`
	FromStatus    string    `json:"fromStatus,omitempty"`
	ToStatus      string    `json:"toStatus,omitempty"`
	Justification string    `json:"justification,omitempty"`
	DocumentPath  string    `json:"documentPath,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func newEventResponse(e domainrnc.Event) eventResponse {
	return eventResponse{
		ID:            e.ID,
		Kind:          string(e.Kind),
		ActorID:       e.ActorID,
		FromStatus:    string(e.FromStatus),
		ToStatus:      string(e.ToStatus),
		Justification: e.Justification,
		DocumentPath:  e.DocumentPath,
		OccurredAt:    e.OccurredAt,
	}
}

type stampResponse struct {
	By uint64    `json:"by"`
	At time.Time `json:"at"`
}

func newStamp(s remediation.Stamp) *stampResponse {
	if !s.IsSet() {
		return nil
	}
	return &stampResponse{By: s.By, At: *s.At}
}

type devolucaoResponse struct {
	ID              uint64         `json:"id"`
	RncID           uint64         `json:"rncId"`
	ArOrigem        string         `json:"arOrigem"`
	Status          string         `json:"status"`
	Observacao      string         `json:"observacao,omitempty"`
	NFePdfPath      string         `json:"nfePdfPath,omitempty"`
	NFeEmitida      *stampResponse `json:"nfeEmitida,omitempty"`
	Coleta          *stampResponse `json:"coleta,omitempty"`
	Recebimento     *stampResponse `json:"recebimento,omitempty"`
	Compensacao     *stampResponse `json:"compensacao,omitempty"`
	CompensacaoPath string         `json:"compensacaoPath,omitempty"`
	CreatedByID     uint64         `json:"createdById"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func newDevolucaoResponse(d remediation.Devolucao) devolucaoResponse {
	return devolucaoResponse{
		ID:              d.ID,
		RncID:           d.RncID,
		ArOrigem:        d.ArOrigem,
		Status:          string(d.Status),
		Observacao:      d.Observacao,
		NFePdfPath:      d.NFePdfPath,
		NFeEmitida:      newStamp(d.NFeEmitida),
		Coleta:          newStamp(d.Coleta),
		Recebimento:     newStamp(d.Recebimento),
		Compensacao:     newStamp(d.Compensacao),
		CompensacaoPath: d.CompensacaoPath,
		CreatedByID:     d.CreatedByID,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type photoResponse struct {
	ID        uint64    `json:"id"`
	Kind      string    `json:"kind"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
}

type inspectionResponse struct {
	Result    string          `json:"result,omitempty"`
	Descricao string          `json:"descricao,omitempty"`
	Stamp     *stampResponse  `json:"stamp,omitempty"`
	Photos    []photoResponse `json:"photos"`
}

type consertoResponse struct {
	ID                  uint64             `json:"id"`
	RncID               uint64             `json:"rncId"`
	ArOrigem            string             `json:"arOrigem"`
	Frete               string             `json:"frete"`
	Transportadora      string             `json:"transportadora,omitempty"`
	Status              string             `json:"status"`
	Observacao          string             `json:"observacao,omitempty"`
	NFePdfPath          string             `json:"nfePdfPath,omitempty"`
	NFeEmitida          *stampResponse     `json:"nfeEmitida,omitempty"`
	Coleta              *stampResponse     `json:"coleta,omitempty"`
	Recebimento         *stampResponse     `json:"recebimento,omitempty"`
	PrazoConsertoInicio *time.Time         `json:"prazoConsertoInicio,omitempty"`
	PrazoConsertoFim    *time.Time         `json:"prazoConsertoFim,omitempty"`
	RepairDaysRemaining *int               `json:"repairDaysRemaining,omitempty"`
	Retorno             *stampResponse     `json:"retorno,omitempty"`
	NFeRetornoPdfPath   string             `json:"nfeRetornoPdfPath,omitempty"`
	Inspection          inspectionResponse `json:"inspection"`
	CreatedByID         uint64             `json:"createdById"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

func newConsertoResponse(v conserto.View) consertoResponse {
	photos := make([]photoResponse, 0, len(v.Inspection.Photos))
	for _, p := range v.Inspection.Photos {
		photos = append(photos, photoResponse{ID: p.ID, Kind: string(p.Kind), Path: p.Path, CreatedAt: p.CreatedAt})
	}
	return consertoResponse{
		ID:                  v.ID,
		RncID:               v.RncID,
		ArOrigem:            v.ArOrigem,
		Frete:               string(v.Frete),
		Transportadora:      v.Transportadora,
		Status:              string(v.Status),
		Observacao:          v.Observacao,
		NFePdfPath:          v.NFePdfPath,
		NFeEmitida:          newStamp(v.NFeEmitida),
		Coleta:              newStamp(v.Coleta),
		Recebimento:         newStamp(v.Recebimento),
		PrazoConsertoInicio: v.PrazoConsertoInicio,
		PrazoConsertoFim:    v.PrazoConsertoFim,
		RepairDaysRemaining: v.RepairDaysRemaining,
		Retorno:             newStamp(v.Retorno),
		NFeRetornoPdfPath:   v.NFeRetornoPdfPath,
		Inspection: inspectionResponse{
			Result:    string(v.Inspection.Result),
			Descricao: v.Inspection.Descricao,
			Stamp:     newStamp(v.Inspection.Stamp),
			Photos:    photos,
		},
		CreatedByID: v.CreatedByID,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

type typeResponse struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Module      string `json:"module"`
}

func newTypeResponse(t domainnotification.TypeMeta) typeResponse {
	return typeResponse{Code: t.Code, Name: t.Name, Description: t.Description, Module: t.Module}
}

type settingResponse struct {
	Type    typeResponse `json:"type"`
	Enabled bool         `json:"enabled"`
}

type notificationResponse struct {
	ID         uint64     `json:"id"`
	TypeCode   string     `json:"typeCode"`
	EntityType string     `json:"entityType"`
	EntityID   uint64     `json:"entityId"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	Severity   string     `json:"severity"`
	Link       string     `json:"link,omitempty"`
	Read       bool       `json:"read"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func newNotificationResponse(n domainnotification.Notification) notificationResponse {
	return notificationResponse{
		ID:         n.ID,
		TypeCode:   n.TypeCode,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		Title:      n.Title,
		Message:    n.Message,
		Severity:   string(n.Severity),
		Link:       n.Link,
		Read:       n.Read,
		ReadAt:     n.ReadAt,
		CreatedAt:  n.CreatedAt,
	}
}

func mapAll[T any, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
