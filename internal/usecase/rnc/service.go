// Package rnc runs the RNC lifecycle: numbered creation with document
// rendering, action plan review, administrative sub-states and removal.
package rnc

import (
	"context"
	"errors"
	"strings"
	"time"

	"rncflow/internal/domain/access"
	domainrnc "rncflow/internal/domain/rnc"
	"rncflow/internal/errs"
	"rncflow/internal/ports"
	"rncflow/internal/usecase/evidence"
)

// maxCreateAttempts bounds retries when two creations race for the same
// sequencial.
const maxCreateAttempts = 3

const (
	planFolder     = "rncs/planos"
	component      = "usecase.rnc"
	workflowMetric = "rnc"
)

type Service struct {
	uow           ports.UnitOfWork
	rncs          ports.RNCRepository
	incs          ports.INCRepository
	directory     ports.Directory
	renderer      ports.DocumentRenderer
	evidence      *evidence.Store
	loc           *time.Location
	renderTimeout time.Duration
	now           func() time.Time
}

type Options struct {
	Location      *time.Location
	RenderTimeout time.Duration
}

func NewService(
	uow ports.UnitOfWork,
	rncs ports.RNCRepository,
	incs ports.INCRepository,
	directory ports.Directory,
	renderer ports.DocumentRenderer,
	store *evidence.Store,
	opts Options,
) *Service {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		uow:           uow,
		rncs:          rncs,
		incs:          incs,
		directory:     directory,
		renderer:      renderer,
		evidence:      store,
		loc:           loc,
		renderTimeout: opts.RenderTimeout,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// View is a notice plus its response deadline when one is running.
type View struct {
	domainrnc.Notice
	Deadline *domainrnc.Deadline
}

type CreateInput struct {
	IncID         uint64
	Descricao     string
	Reincidente   bool
	RncAnteriorID *uint64
}

type ListInput struct {
	SupplierID uint64
	Status     string
	Ano        int
	// Numero narrows the list to one formatted number, e.g. RNC:003/2025.
	Numero     string
	Limit      int
	Offset     int
}

func (s *Service) view(n domainrnc.Notice) View {
	v := View{Notice: n}
	if d, ok := domainrnc.DeadlineFor(n, s.now(), s.loc); ok {
		v.Deadline = &d
	}
	return v
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
	if s.rncs == nil {
		return errors.New("rnc repository is required")
	}
	if s.incs == nil {
		return errors.New("inc repository is required")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id uint64) (View, error) {
	if err := s.check(ctx); err != nil {
		return View{}, err
	}
	if err := actor.Require("rnc.get", access.RNCRead); err != nil {
		return View{}, err
	}
	n, err := s.rncs.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.view(n), nil
}

func (s *Service) List(ctx context.Context, actor access.Actor, input ListInput) ([]View, error) {
	const op = "rnc.list"
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if err := actor.Require(op, access.RNCRead); err != nil {
		return nil, err
	}

	filter := ports.RNCFilter{
		SupplierID: input.SupplierID,
		Ano:        input.Ano,
		Limit:      input.Limit,
		Offset:     input.Offset,
	}
	if input.Status != "" {
		status, err := domainrnc.ParseStatus(input.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}
	if numero := strings.TrimSpace(input.Numero); numero != "" {
		sequencial, ano, ok := domainrnc.ParseNumero(numero)
		if !ok {
			return nil, errs.Validationf(op, "numero %q is not in the RNC:NNN/AAAA format", numero)
		}
		if filter.Ano != 0 && filter.Ano != ano {
			return nil, errs.Validationf(op, "numero %q does not belong to ano %d", numero, filter.Ano)
		}
		filter.Sequencial = sequencial
		filter.Ano = ano
	}

	notices, err := s.rncs.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]View, 0, len(notices))
	for _, n := range notices {
		items = append(items, s.view(n))
	}
	return items, nil
}

// History returns the audit trail of a notice, oldest first.
func (s *Service) History(ctx context.Context, actor access.Actor, id uint64) ([]domainrnc.Event, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if err := actor.Require("rnc.history", access.RNCRead); err != nil {
		return nil, err
	}
	if _, err := s.rncs.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.rncs.ListEvents(ctx, id)
}
