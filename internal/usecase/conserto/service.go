// Package conserto runs the repair workflow of an accepted RNC, from the
// outbound NF-e to the return inspection.
package conserto

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"rncflow/internal/bootstrap/logging"
	"rncflow/internal/domain/access"
	"rncflow/internal/domain/remediation"
	domainrnc "rncflow/internal/domain/rnc"
	"rncflow/internal/domain/upload"
	"rncflow/internal/errs"
	"rncflow/internal/infrastructure/metrics"
	"rncflow/internal/ports"
	"rncflow/internal/usecase/evidence"
)

const (
	component     = "usecase.conserto"
	nfeFolder     = "consertos/nfe"
	retornoFolder = "consertos/nfe_retorno"
	photoFolder   = "consertos/fotos"
)

type Service struct {
	uow       ports.UnitOfWork
	rncs      ports.RNCRepository
	consertos ports.ConsertoRepository
	evidence  *evidence.Store
	loc       *time.Location
	now       func() time.Time
}

func NewService(
	uow ports.UnitOfWork,
	rncs ports.RNCRepository,
	consertos ports.ConsertoRepository,
	store *evidence.Store,
	loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		uow:       uow,
		rncs:      rncs,
		consertos: consertos,
		evidence:  store,
		loc:       loc,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// View adds the remaining repair days once the supplier has received the
// material.
type View struct {
	remediation.Conserto
	RepairDaysRemaining *int
}

type CreateInput struct {
	RncID          uint64
	Frete          string
	Transportadora string
	Observacao     string
}

func (s *Service) view(c remediation.Conserto) View {
	v := View{Conserto: c}
	if days, ok := c.RepairDaysRemaining(s.now(), s.loc); ok {
		v.RepairDaysRemaining = &days
	}
	return v
}

// Create opens a Conserto on an accepted RNC. Claim and insert commit
// together.
func (s *Service) Create(ctx context.Context, actor access.Actor, input CreateInput) (View, error) {
	const op = "conserto.create"
	if err := s.check(ctx); err != nil {
		return View{}, err
	}
	if err := actor.Require(op, access.ConsertoCreate); err != nil {
		return View{}, err
	}
	if input.RncID == 0 {
		return View{}, errs.Validationf(op, "rncId is required")
	}
	if _, _, err := remediation.CheckFreight(input.Frete, input.Transportadora); err != nil {
		return View{}, err
	}

	var record remediation.Conserto
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		notice, err := s.rncs.Get(txCtx, input.RncID)
		if err != nil {
			return err
		}
		if err := domainrnc.CheckCanOpenRemediation(notice, op); err != nil {
			return err
		}
		if err := s.rncs.ClaimRemediation(txCtx, notice.ID, domainrnc.RemediationConserto); err != nil {
			return err
		}

		record, err = remediation.NewConserto(notice.ID, notice.NumeroAR, input.Frete, input.Transportadora, input.Observacao, actor.UserID)
		if err != nil {
			return err
		}
		record.CreatedAt = s.now()
		return s.consertos.Create(txCtx, &record)
	}); err != nil {
		return View{}, err
	}

	logging.Info(logging.WithComponent(ctx, component), "conserto created",
		slog.Uint64("conserto_id", record.ID),
		slog.Uint64("rnc_id", record.RncID),
		slog.String("frete", string(record.Frete)),
		slog.String("to", string(record.Status)),
	)
	return s.view(record), nil
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id uint64) (View, error) {
	if err := s.check(ctx); err != nil {
		return View{}, err
	}
	if err := actor.Require("conserto.get", access.ConsertoRead); err != nil {
		return View{}, err
	}
	c, err := s.consertos.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.view(c), nil
}

func (s *Service) List(ctx context.Context, actor access.Actor, filter ports.RemediationFilter) ([]View, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if err := actor.Require("conserto.list", access.ConsertoRead); err != nil {
		return nil, err
	}
	records, err := s.consertos.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]View, 0, len(records))
	for _, c := range records {
		items = append(items, s.view(c))
	}
	return items, nil
}

func (s *Service) EmitNFe(ctx context.Context, actor access.Actor, id uint64, files []upload.File) (View, error) {
	return s.transition(ctx, actor, id, remediation.ActionEmitNFe, access.ConsertoEmitNFe,
		&upload.NFe, nfeFolder, files,
		func(c *remediation.Conserto, at time.Time, paths []string) error {
			return c.EmitNFe(actor.UserID, at, paths[0])
		})
}

func (s *Service) ConfirmPickup(ctx context.Context, actor access.Actor, id uint64) (View, error) {
	return s.transition(ctx, actor, id, remediation.ActionConfirmPickup, access.ConsertoConfirmPickup,
		nil, "", nil,
		func(c *remediation.Conserto, at time.Time, _ []string) error {
			return c.ConfirmPickup(actor.UserID, at)
		})
}

// ConfirmReceipt records the supplier's receipt and starts the 30-day
// repair window.
func (s *Service) ConfirmReceipt(ctx context.Context, actor access.Actor, id uint64) (View, error) {
	return s.transition(ctx, actor, id, remediation.ActionConfirmReceipt, access.ConsertoConfirmReceipt,
		nil, "", nil,
		func(c *remediation.Conserto, at time.Time, _ []string) error {
			return c.ConfirmReceipt(actor.UserID, at)
		})
}

func (s *Service) ConfirmReturn(ctx context.Context, actor access.Actor, id uint64, files []upload.File) (View, error) {
	return s.transition(ctx, actor, id, remediation.ActionConfirmReturn, access.ConsertoConfirmReturn,
		&upload.ReturnNFe, retornoFolder, files,
		func(c *remediation.Conserto, at time.Time, paths []string) error {
			return c.ConfirmReturn(actor.UserID, at, paths[0])
		})
}

func (s *Service) ApproveInspection(ctx context.Context, actor access.Actor, id uint64, descricao string, files []upload.File) (View, error) {
	return s.transition(ctx, actor, id, remediation.ActionApproveInspection, access.ConsertoInspect,
		&upload.InspectionPhotos, photoFolder, files,
		func(c *remediation.Conserto, at time.Time, paths []string) error {
			return c.ApproveInspection(actor.UserID, at, descricao, photos(remediation.PhotoApproval, paths, at))
		})
}

// RejectInspection ends the repair as rejected. A description is required
// and is checked before any photo is stored.
func (s *Service) RejectInspection(ctx context.Context, actor access.Actor, id uint64, descricao string, files []upload.File) (View, error) {
	if strings.TrimSpace(descricao) == "" {
		if err := s.check(ctx); err != nil {
			return View{}, err
		}
		if err := actor.Require("conserto.rejeitar_inspecao", access.ConsertoInspect); err != nil {
			return View{}, err
		}
		return View{}, errs.Validationf("conserto.rejeitar_inspecao", "descricao is required to reject an inspection")
	}
	return s.transition(ctx, actor, id, remediation.ActionRejectInspection, access.ConsertoInspect,
		&upload.InspectionPhotos, photoFolder, files,
		func(c *remediation.Conserto, at time.Time, paths []string) error {
			return c.RejectInspection(actor.UserID, at, descricao, photos(remediation.PhotoRejection, paths, at))
		})
}

// Remove deletes photos, the record and the RNC claim in one transaction,
// then the stored files.
func (s *Service) Remove(ctx context.Context, actor access.Actor, id uint64) error {
	const op = "conserto.remove"
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := actor.Require(op, access.ConsertoDelete); err != nil {
		return err
	}

	var record remediation.Conserto
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		c, err := s.consertos.Get(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.consertos.Delete(txCtx, id); err != nil {
			return err
		}
		record = c
		return s.rncs.ReleaseRemediation(txCtx, c.RncID, domainrnc.RemediationConserto)
	}); err != nil {
		return err
	}

	s.evidence.Discard(ctx, record.Files()...)
	logging.Info(logging.WithComponent(ctx, component), "conserto removed",
		slog.Uint64("conserto_id", record.ID),
		slog.Uint64("rnc_id", record.RncID),
	)
	return nil
}

type applyFunc func(c *remediation.Conserto, at time.Time, paths []string) error

func (s *Service) transition(
	ctx context.Context,
	actor access.Actor,
	id uint64,
	action remediation.Action,
	permission string,
	policy *upload.Policy,
	folder string,
	files []upload.File,
	apply applyFunc,
) (View, error) {
	op := "conserto." + string(action)
	if err := s.check(ctx); err != nil {
		return View{}, err
	}
	if err := actor.Require(op, permission); err != nil {
		return View{}, err
	}

	current, err := s.consertos.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	if _, err := remediation.ConsertoWorkflow.Advance(action, current.Status); err != nil {
		return View{}, err
	}

	var paths []string
	if policy != nil {
		paths, err = s.evidence.Save(ctx, op, folder, *policy, files)
		if err != nil {
			return View{}, err
		}
	}

	var (
		record remediation.Conserto
		from   remediation.ConsertoStatus
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		c, err := s.consertos.Get(txCtx, id)
		if err != nil {
			return err
		}
		from = c.Status
		if err := apply(&c, s.now(), paths); err != nil {
			return err
		}
		if err := s.consertos.Update(txCtx, &c, from); err != nil {
			return err
		}
		record = c
		return nil
	}); err != nil {
		s.evidence.Discard(ctx, paths...)
		return View{}, err
	}

	metrics.WorkflowTransitions.WithLabelValues("conserto", string(action)).Inc()
	logging.Info(logging.WithComponent(ctx, component), "conserto transition applied",
		slog.Uint64("conserto_id", record.ID),
		slog.String("action", string(action)),
		slog.String("from", string(from)),
		slog.String("to", string(record.Status)),
	)
	return s.view(record), nil
}

func photos(kind remediation.PhotoKind, paths []string, at time.Time) []remediation.Photo {
	out := make([]remediation.Photo, 0, len(paths))
	for _, p := range paths {
		out = append(out, remediation.Photo{Kind: kind, Path: p, CreatedAt: at.UTC()})
	}
	return out
}

func (s *Service) check(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.uow == nil {
		return errors.New("unit of work is required")
	}
	if s.rncs == nil || s.consertos == nil {
		return errors.New("rnc and conserto repositories are required")
	}
	return nil
}
