package remediation

import (
	"strings"
	"time"

	"rncflow/internal/errs"
)

type DevolucaoStatus string

const (
	DevolucaoSolicitada DevolucaoStatus = "DEVOLUCAO_SOLICITADA"
	DevolucaoNFeEmitida DevolucaoStatus = "NFE_EMITIDA"
	DevolucaoColetada   DevolucaoStatus = "DEVOLUCAO_COLETADA"
	DevolucaoRecebida   DevolucaoStatus = "DEVOLUCAO_RECEBIDA"
	DevolucaoFinalizado DevolucaoStatus = "FINALIZADO"
)

var DevolucaoWorkflow = NewWorkflow("devolucao",
	[]DevolucaoStatus{
		DevolucaoSolicitada,
		DevolucaoNFeEmitida,
		DevolucaoColetada,
		DevolucaoRecebida,
		DevolucaoFinalizado,
	},
	Transition[DevolucaoStatus]{Action: ActionEmitNFe, From: DevolucaoSolicitada, To: DevolucaoNFeEmitida},
	Transition[DevolucaoStatus]{Action: ActionConfirmPickup, From: DevolucaoNFeEmitida, To: DevolucaoColetada},
	Transition[DevolucaoStatus]{Action: ActionConfirmReceipt, From: DevolucaoColetada, To: DevolucaoRecebida},
	Transition[DevolucaoStatus]{Action: ActionConfirmCompensation, From: DevolucaoRecebida, To: DevolucaoFinalizado},
)

// Devolucao is the goods-return workflow of an accepted RNC.
type Devolucao struct {
	ID              uint64
	RncID           uint64
	ArOrigem        string
	Status          DevolucaoStatus
	Observacao      string
	NFePdfPath      string
	NFeEmitida      Stamp
	Coleta          Stamp
	Recebimento     Stamp
	Compensacao     Stamp
	CompensacaoPath string
	CreatedByID     uint64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewDevolucao(rncID uint64, arOrigem string, observacao string, createdBy uint64) Devolucao {
	return Devolucao{
		RncID:       rncID,
		ArOrigem:    arOrigem,
		Status:      DevolucaoWorkflow.Initial(),
		Observacao:  strings.TrimSpace(observacao),
		CreatedByID: createdBy,
	}
}

// Files returns every stored file reference of d.
func (d Devolucao) Files() []string {
	return nonEmpty(d.NFePdfPath, d.CompensacaoPath)
}

func (d *Devolucao) EmitNFe(by uint64, at time.Time, nfePath string) error {
	return d.apply(ActionEmitNFe, by, at, &d.NFeEmitida, func() error {
		if strings.TrimSpace(nfePath) == "" {
			return errs.New(errs.KindMissingRequiredFile, "devolucao.emitir_nfe", "nfe pdf is required")
		}
		d.NFePdfPath = nfePath
		return nil
	})
}

func (d *Devolucao) ConfirmPickup(by uint64, at time.Time) error {
	return d.apply(ActionConfirmPickup, by, at, &d.Coleta, nil)
}

func (d *Devolucao) ConfirmReceipt(by uint64, at time.Time) error {
	return d.apply(ActionConfirmReceipt, by, at, &d.Recebimento, nil)
}

func (d *Devolucao) ConfirmCompensation(by uint64, at time.Time, proofPath string) error {
	return d.apply(ActionConfirmCompensation, by, at, &d.Compensacao, func() error {
		if strings.TrimSpace(proofPath) == "" {
			return errs.New(errs.KindMissingRequiredFile, "devolucao.confirmar_compensacao", "compensation proof is required")
		}
		d.CompensacaoPath = proofPath
		return nil
	})
}

// apply guards, stamps and moves d in one step; on error d is unchanged.
func (d *Devolucao) apply(action Action, by uint64, at time.Time, stamp *Stamp, extra func() error) error {
	next, err := DevolucaoWorkflow.Advance(action, d.Status)
	if err != nil {
		return err
	}
	snapshot := *d
	if err := stamp.record("devolucao."+string(action), by, at); err != nil {
		*d = snapshot
		return err
	}
	if extra != nil {
		if err := extra(); err != nil {
			*d = snapshot
			return err
		}
	}
	d.Status = next
	d.UpdatedAt = at.UTC()
	return nil
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
