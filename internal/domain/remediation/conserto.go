package remediation

import (
	"strings"
	"time"

	"rncflow/internal/errs"
)

type ConsertoStatus string

const (
	ConsertoSolicitada        ConsertoStatus = "CONSERTO_SOLICITADA"
	ConsertoNFeEmitida        ConsertoStatus = "NFE_EMITIDA"
	ConsertoColetado          ConsertoStatus = "CONSERTO_COLETADO"
	ConsertoRecebido          ConsertoStatus = "CONSERTO_RECEBIDO"
	ConsertoMaterialRetornado ConsertoStatus = "MATERIAL_RETORNADO"
	ConsertoFinalizado        ConsertoStatus = "FINALIZADO"
	ConsertoRejeitado         ConsertoStatus = "REJEITADO"
)

var ConsertoWorkflow = NewWorkflow("conserto",
	[]ConsertoStatus{
		ConsertoSolicitada,
		ConsertoNFeEmitida,
		ConsertoColetado,
		ConsertoRecebido,
		ConsertoMaterialRetornado,
		ConsertoFinalizado,
		ConsertoRejeitado,
	},
	Transition[ConsertoStatus]{Action: ActionEmitNFe, From: ConsertoSolicitada, To: ConsertoNFeEmitida},
	Transition[ConsertoStatus]{Action: ActionConfirmPickup, From: ConsertoNFeEmitida, To: ConsertoColetado},
	Transition[ConsertoStatus]{Action: ActionConfirmReceipt, From: ConsertoColetado, To: ConsertoRecebido},
	Transition[ConsertoStatus]{Action: ActionConfirmReturn, From: ConsertoRecebido, To: ConsertoMaterialRetornado},
	Transition[ConsertoStatus]{Action: ActionApproveInspection, From: ConsertoMaterialRetornado, To: ConsertoFinalizado},
	Transition[ConsertoStatus]{Action: ActionRejectInspection, From: ConsertoMaterialRetornado, To: ConsertoRejeitado},
)

// RepairWindowDays is the repair SLA started when the supplier receives the
// material.
const RepairWindowDays = 30

type Frete string

const (
	FreteFOB Frete = "FOB"
	FreteCIF Frete = "CIF"
)

// CheckFreight validates the freight type and the carrier, which is only
// required for FOB.
func CheckFreight(frete string, transportadora string) (Frete, string, error) {
	const op = "conserto.create"
	f := Frete(strings.ToUpper(strings.TrimSpace(frete)))
	carrier := strings.TrimSpace(transportadora)
	switch f {
	case FreteFOB:
		if carrier == "" {
			return "", "", errs.Validationf(op, "transportadora is required when frete is FOB")
		}
	case FreteCIF:
	default:
		return "", "", errs.Validationf(op, "frete must be FOB or CIF, got %q", frete)
	}
	return f, carrier, nil
}

type InspectionResult string

const (
	InspectionPending  InspectionResult = "PENDENTE"
	InspectionApproved InspectionResult = "APROVADA"
	InspectionRejected InspectionResult = "REJEITADA"
)

type PhotoKind string

const (
	PhotoApproval  PhotoKind = "aprovacao"
	PhotoRejection PhotoKind = "rejeicao"
)

type Photo struct {
	ID         uint64
	ConsertoID uint64
	Kind       PhotoKind
	Path       string
	CreatedAt  time.Time
}

// Inspection is the return-inspection outcome. Result is Pending until one
// of the two terminal transitions runs.
type Inspection struct {
	Result    InspectionResult
	Descricao string
	Stamp     Stamp
	Photos    []Photo
}

// Approved returns (approved, decided).
func (i Inspection) Approved() (bool, bool) {
	switch i.Result {
	case InspectionApproved:
		return true, true
	case InspectionRejected:
		return false, true
	default:
		return false, false
	}
}

// Conserto is the repair workflow of an accepted RNC.
type Conserto struct {
	ID                  uint64
	RncID               uint64
	ArOrigem            string
	Frete               Frete
	Transportadora      string
	Status              ConsertoStatus
	Observacao          string
	NFePdfPath          string
	NFeEmitida          Stamp
	Coleta              Stamp
	Recebimento         Stamp
	PrazoConsertoInicio *time.Time
	PrazoConsertoFim    *time.Time
	Retorno             Stamp
	NFeRetornoPdfPath   string
	Inspection          Inspection
	CreatedByID         uint64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func NewConserto(rncID uint64, arOrigem string, frete string, transportadora string, observacao string, createdBy uint64) (Conserto, error) {
	f, carrier, err := CheckFreight(frete, transportadora)
	if err != nil {
		return Conserto{}, err
	}
	return Conserto{
		RncID:          rncID,
		ArOrigem:       arOrigem,
		Frete:          f,
		Transportadora: carrier,
		Status:         ConsertoWorkflow.Initial(),
		Observacao:     strings.TrimSpace(observacao),
		Inspection:     Inspection{Result: InspectionPending},
		CreatedByID:    createdBy,
	}, nil
}

// Files returns every stored file reference of c, photos included.
func (c Conserto) Files() []string {
	out := nonEmpty(c.NFePdfPath, c.NFeRetornoPdfPath)
	for _, p := range c.Inspection.Photos {
		if strings.TrimSpace(p.Path) != "" {
			out = append(out, p.Path)
		}
	}
	return out
}

// RepairDaysRemaining is max(0, days until PrazoConsertoFim), false before
// the window opens.
func (c Conserto) RepairDaysRemaining(now time.Time, loc *time.Location) (int, bool) {
	if c.PrazoConsertoFim == nil {
		return 0, false
	}
	if loc == nil {
		loc = time.UTC
	}
	n := now.In(loc)
	e := c.PrazoConsertoFim.In(loc)
	nowDay := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, time.UTC)
	remaining := int(endDay.Sub(nowDay) / (24 * time.Hour))
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

func (c *Conserto) EmitNFe(by uint64, at time.Time, nfePath string) error {
	return c.apply(ActionEmitNFe, by, at, &c.NFeEmitida, func() error {
		if strings.TrimSpace(nfePath) == "" {
			return errs.New(errs.KindMissingRequiredFile, "conserto.emitir_nfe", "nfe pdf is required")
		}
		c.NFePdfPath = nfePath
		return nil
	})
}

func (c *Conserto) ConfirmPickup(by uint64, at time.Time) error {
	return c.apply(ActionConfirmPickup, by, at, &c.Coleta, nil)
}

// ConfirmReceipt opens the 30-day repair window at the receipt instant.
func (c *Conserto) ConfirmReceipt(by uint64, at time.Time) error {
	return c.apply(ActionConfirmReceipt, by, at, &c.Recebimento, func() error {
		start := at.UTC()
		end := start.AddDate(0, 0, RepairWindowDays)
		c.PrazoConsertoInicio = &start
		c.PrazoConsertoFim = &end
		return nil
	})
}

func (c *Conserto) ConfirmReturn(by uint64, at time.Time, returnNFePath string) error {
	return c.apply(ActionConfirmReturn, by, at, &c.Retorno, func() error {
		if strings.TrimSpace(returnNFePath) == "" {
			return errs.New(errs.KindMissingRequiredFile, "conserto.confirmar_retorno", "return nfe pdf is required")
		}
		c.NFeRetornoPdfPath = returnNFePath
		return nil
	})
}

func (c *Conserto) ApproveInspection(by uint64, at time.Time, descricao string, photos []Photo) error {
	return c.apply(ActionApproveInspection, by, at, &c.Inspection.Stamp, func() error {
		if err := checkPhotos("conserto.aprovar_inspecao", photos); err != nil {
			return err
		}
		c.Inspection.Result = InspectionApproved
		c.Inspection.Descricao = strings.TrimSpace(descricao)
		c.Inspection.Photos = append(c.Inspection.Photos, photos...)
		return nil
	})
}

func (c *Conserto) RejectInspection(by uint64, at time.Time, descricao string, photos []Photo) error {
	return c.apply(ActionRejectInspection, by, at, &c.Inspection.Stamp, func() error {
		const op = "conserto.rejeitar_inspecao"
		desc := strings.TrimSpace(descricao)
		if desc == "" {
			return errs.Validationf(op, "descricao is required to reject an inspection")
		}
		if err := checkPhotos(op, photos); err != nil {
			return err
		}
		c.Inspection.Result = InspectionRejected
		c.Inspection.Descricao = desc
		c.Inspection.Photos = append(c.Inspection.Photos, photos...)
		return nil
	})
}

const maxInspectionPhotos = 10

func checkPhotos(op string, photos []Photo) error {
	if len(photos) == 0 {
		return errs.New(errs.KindMissingRequiredFile, op, "at least one photo is required")
	}
	if len(photos) > maxInspectionPhotos {
		return errs.New(errs.KindTooManyFiles, op, "at most %d photos, got %d", maxInspectionPhotos, len(photos))
	}
	return nil
}

func (c *Conserto) apply(action Action, by uint64, at time.Time, stamp *Stamp, extra func() error) error {
	next, err := ConsertoWorkflow.Advance(action, c.Status)
	if err != nil {
		return err
	}
	snapshot := *c
	snapshot.Inspection.Photos = append([]Photo(nil), c.Inspection.Photos...)
	if err := stamp.record("conserto."+string(action), by, at); err != nil {
		*c = snapshot
		return err
	}
	if extra != nil {
		if err := extra(); err != nil {
			*c = snapshot
			return err
		}
	}
	c.Status = next
	c.UpdatedAt = at.UTC()
	return nil
}
