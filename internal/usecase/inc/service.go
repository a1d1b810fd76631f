// Package inc exposes the intake records RNCs are raised from. Status is
// owned by the RNC service; this package only creates and reads.
package inc

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rncflow/internal/bootstrap/logging"
	"rncflow/internal/domain/access"
	domaininc "rncflow/internal/domain/inc"
	"rncflow/internal/errs"
	"rncflow/internal/ports"
)

type Service struct {
	incs      ports.INCRepository
	directory ports.Directory
	now       func() time.Time
}

func NewService(incs ports.INCRepository, directory ports.Directory) *Service {
	return &Service{
		incs:      incs,
		directory: directory,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type CreateInput struct {
	SupplierID uint64
	Quantidade decimal.Decimal
	Unidade    string
	NotaFiscal string
	NumeroAR   string
	Descricao  string
}

func (s *Service) Create(ctx context.Context, actor access.Actor, input CreateInput) (domaininc.Inc, error) {
	const op = "inc.create"
	if err := s.check(ctx); err != nil {
		return domaininc.Inc{}, err
	}
	if err := actor.Require(op, access.INCCreate); err != nil {
		return domaininc.Inc{}, err
	}

	record := domaininc.Inc{
		SupplierID:  input.SupplierID,
		Quantidade:  input.Quantidade,
		Unidade:     strings.TrimSpace(input.Unidade),
		NotaFiscal:  strings.TrimSpace(input.NotaFiscal),
		NumeroAR:    strings.TrimSpace(input.NumeroAR),
		Descricao:   strings.TrimSpace(input.Descricao),
		Status:      domaininc.StatusEmAnalise,
		CreatedByID: actor.UserID,
		CreatedAt:   s.now(),
	}
	if err := record.Validate(); err != nil {
		return domaininc.Inc{}, err
	}
	if _, err := s.directory.GetSupplier(ctx, record.SupplierID); err != nil {
		return domaininc.Inc{}, err
	}
	if err := s.incs.Create(ctx, &record); err != nil {
		return domaininc.Inc{}, err
	}

	logging.Info(logging.WithComponent(ctx, "usecase.inc"), "inc created",
		slog.Uint64("inc_id", record.ID),
		slog.Uint64("supplier_id", record.SupplierID),
	)
	return record, nil
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id uint64) (domaininc.Inc, error) {
	if err := s.check(ctx); err != nil {
		return domaininc.Inc{}, err
	}
	if err := actor.Require("inc.get", access.INCRead); err != nil {
		return domaininc.Inc{}, err
	}
	return s.incs.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, actor access.Actor, filter ports.INCFilter) ([]domaininc.Inc, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if err := actor.Require("inc.list", access.INCRead); err != nil {
		return nil, err
	}
	return s.incs.List(ctx, filter)
}

func (s *Service) check(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.incs == nil {
		return errors.New("inc repository is required")
	}
	if s.directory == nil {
		return errors.New("directory is required")
	}
	return nil
}
