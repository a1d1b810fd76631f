// Package devolucao runs the goods-return workflow of an accepted RNC.
package devolucao

import (
	"context"
	"errors"
	"log/slog"
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
	component         = "usecase.devolucao"
	nfeFolder         = "devolucoes/nfe"
	compensacaoFolder = "devolucoes/compensacao"
)

type Service struct {
	uow        ports.UnitOfWork
	rncs       ports.RNCRepository
	devolucoes ports.DevolucaoRepository
	evidence   *evidence.Store
	now        func() time.Time
}

func NewService(uow ports.UnitOfWork, rncs ports.RNCRepository, devolucoes ports.DevolucaoRepository, store *evidence.Store) *Service {
	return &Service{
		uow:        uow,
		rncs:       rncs,
		devolucoes: devolucoes,
		evidence:   store,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type CreateInput struct {
	RncID      uint64
	Observacao string
}

// Create opens a Devolução on an accepted RNC. The RNC claim and the insert
// commit together, so a concurrent Conserto on the same RNC loses.
func (s *Service) Create(ctx context.Context, actor access.Actor, input CreateInput) (remediation.Devolucao, error) {
	const op = "devolucao.create"
	if err := s.check(ctx); err != nil {
		return remediation.Devolucao{}, err
	}
	if err := actor.Require(op, access.DevolucaoCreate); err != nil {
		return remediation.Devolucao{}, err
	}
	if input.RncID == 0 {
		return remediation.Devolucao{}, errs.Validationf(op, "rncId is required")
	}

	var record remediation.Devolucao
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		notice, err := s.rncs.Get(txCtx, input.RncID)
		if err != nil {
			return err
		}
		if err := domainrnc.CheckCanOpenRemediation(notice, op); err != nil {
			return err
		}
		if err := s.rncs.ClaimRemediation(txCtx, notice.ID, domainrnc.RemediationDevolucao); err != nil {
			return err
		}

		record = remediation.NewDevolucao(notice.ID, notice.NumeroAR, input.Observacao, actor.UserID)
		record.CreatedAt = s.now()
		return s.devolucoes.Create(txCtx, &record)
	}); err != nil {
		return remediation.Devolucao{}, err
	}

	logging.Info(logging.WithComponent(ctx, component), "devolucao created",
		slog.Uint64("devolucao_id", record.ID),
		slog.Uint64("rnc_id", record.RncID),
		slog.String("to", string(record.Status)),
	)
	return record, nil
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id uint64) (remediation.Devolucao, error) {
	if err := s.check(ctx); err != nil {
		return remediation.Devolucao{}, err
	}
	if err := actor.Require("devolucao.get", access.DevolucaoRead); err != nil {
		return remediation.Devolucao{}, err
	}
	return s.devolucoes.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, actor access.Actor, filter ports.RemediationFilter) ([]remediation.Devolucao, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if err := actor.Require("devolucao.list", access.DevolucaoRead); err != nil {
		return nil, err
	}
	return s.devolucoes.List(ctx, filter)
}

func (s *Service) EmitNFe(ctx context.Context, actor access.Actor, id uint64, files []upload.File) (remediation.Devolucao, error) {
	return s.transition(ctx, actor, id, remediation.ActionEmitNFe, access.DevolucaoEmitNFe,
		&upload.NFe, nfeFolder, files,
		func(d *remediation.Devolucao, at time.Time, paths []string) error {
			return d.EmitNFe(actor.UserID, at, paths[0])
		})
}

func (s *Service) ConfirmPickup(ctx context.Context, actor access.Actor, id uint64) (remediation.Devolucao, error) {
	return s.transition(ctx, actor, id, remediation.ActionConfirmPickup, access.DevolucaoConfirmPickup,
		nil, "", nil,
		func(d *remediation.Devolucao, at time.Time, _ []string) error {
			return d.ConfirmPickup(actor.UserID, at)
		})
}

func (s *Service) ConfirmReceipt(ctx context.Context, actor access.Actor, id uint64) (remediation.Devolucao, error) {
	return s.transition(ctx, actor, id, remediation.ActionConfirmReceipt, access.DevolucaoConfirmReceipt,
		nil, "", nil,
		func(d *remediation.Devolucao, at time.Time, _ []string) error {
			return d.ConfirmReceipt(actor.UserID, at)
		})
}

func (s *Service) ConfirmCompensation(ctx context.Context, actor access.Actor, id uint64, files []upload.File) (remediation.Devolucao, error) {
	return s.transition(ctx, actor, id, remediation.ActionConfirmCompensation, access.DevolucaoConfirmCompensation,
		&upload.CompensationProof, compensacaoFolder, files,
		func(d *remediation.Devolucao, at time.Time, paths []string) error {
			return d.ConfirmCompensation(actor.UserID, at, paths[0])
		})
}

// Remove deletes the Devolução and frees its RNC for a new remediation.
func (s *Service) Remove(ctx context.Context, actor access.Actor, id uint64) error {
	const op = "devolucao.remove"
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := actor.Require(op, access.DevolucaoDelete); err != nil {
		return err
	}

	var record remediation.Devolucao
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		d, err := s.devolucoes.Get(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.devolucoes.Delete(txCtx, id); err != nil {
			return err
		}
		record = d
		return s.rncs.ReleaseRemediation(txCtx, d.RncID, domainrnc.RemediationDevolucao)
	}); err != nil {
		return err
	}

	s.evidence.Discard(ctx, record.Files()...)
	logging.Info(logging.WithComponent(ctx, component), "devolucao removed",
		slog.Uint64("devolucao_id", record.ID),
		slog.Uint64("rnc_id", record.RncID),
	)
	return nil
}

type applyFunc func(d *remediation.Devolucao, at time.Time, paths []string) error

// transition checks the stage, stores uploads, then applies and persists
// the step under the stage it was loaded in. Uploads are removed when the
// transaction fails.
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
) (remediation.Devolucao, error) {
	op := "devolucao." + string(action)
	if err := s.check(ctx); err != nil {
		return remediation.Devolucao{}, err
	}
	if err := actor.Require(op, permission); err != nil {
		return remediation.Devolucao{}, err
	}

	current, err := s.devolucoes.Get(ctx, id)
	if err != nil {
		return remediation.Devolucao{}, err
	}
	if _, err := remediation.DevolucaoWorkflow.Advance(action, current.Status); err != nil {
		return remediation.Devolucao{}, err
	}

	var paths []string
	if policy != nil {
		paths, err = s.evidence.Save(ctx, op, folder, *policy, files)
		if err != nil {
			return remediation.Devolucao{}, err
		}
	}

	var (
		record remediation.Devolucao
		from   remediation.DevolucaoStatus
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		d, err := s.devolucoes.Get(txCtx, id)
		if err != nil {
			return err
		}
		from = d.Status
		if err := apply(&d, s.now(), paths); err != nil {
			return err
		}
		if err := s.devolucoes.Update(txCtx, d, from); err != nil {
			return err
		}
		record = d
		return nil
	}); err != nil {
		s.evidence.Discard(ctx, paths...)
		return remediation.Devolucao{}, err
	}

	metrics.WorkflowTransitions.WithLabelValues("devolucao", string(action)).Inc()
	logging.Info(logging.WithComponent(ctx, component), "devolucao transition applied",
		slog.Uint64("devolucao_id", record.ID),
		slog.String("action", string(action)),
		slog.String("from", string(from)),
		slog.String("to", string(record.Status)),
	)
	return record, nil
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
	if s.rncs == nil || s.devolucoes == nil {
		return errors.New("rnc and devolucao repositories are required")
	}
	return nil
}
