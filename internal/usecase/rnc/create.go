package rnc

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"rncflow/internal/bootstrap/logging"
	"rncflow/internal/domain/access"
	domaininc "rncflow/internal/domain/inc"
	domainrnc "rncflow/internal/domain/rnc"
	"rncflow/internal/errs"
	"rncflow/internal/infrastructure/metrics"
	"rncflow/internal/ports"
)

// Create raises a notice from an INC in "Em análise". Numbering, the notice
// document and the INC status flip commit together; a lost sequencial race
// retries the whole transaction.
func (s *Service) Create(ctx context.Context, actor access.Actor, input CreateInput) (View, error) {
	const op = "rnc.create"
	if err := s.check(ctx); err != nil {
		return View{}, err
	}
	if s.renderer == nil {
		return View{}, errors.New("document renderer is required")
	}
	if s.directory == nil {
		return View{}, errors.New("directory is required")
	}
	if err := actor.Require(op, access.RNCCreate); err != nil {
		return View{}, err
	}
	if input.IncID == 0 {
		return View{}, errs.Validationf(op, "incId is required")
	}

	logCtx := logging.WithAttrs(logging.WithComponent(ctx, component), slog.Uint64("inc_id", input.IncID))

	var (
		created domainrnc.Notice
		err     error
	)
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		created, err = s.createOnce(ctx, actor, input)
		if err == nil {
			break
		}
		if !errors.Is(err, ports.ErrDuplicateKey) || attempt == maxCreateAttempts {
			return View{}, err
		}
		logging.Warn(logCtx, "rnc sequencial taken concurrently, retrying",
			slog.Int("attempt", attempt),
			slog.Any("err", errs.Loggable(err)),
		)
	}

	metrics.WorkflowTransitions.WithLabelValues(workflowMetric, string(domainrnc.EventCreated)).Inc()
	logging.Info(logCtx, "rnc created",
		slog.Uint64("rnc_id", created.ID),
		slog.String("numero", created.Numero),
		slog.String("to", string(created.Status)),
	)
	return s.view(created), nil
}

func (s *Service) createOnce(ctx context.Context, actor access.Actor, input CreateInput) (domainrnc.Notice, error) {
	var (
		notice   domainrnc.Notice
		rendered string
	)
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		source, err := s.incs.Get(txCtx, input.IncID)
		if err != nil {
			return err
		}
		if err := domaininc.CheckCanRaiseNotice(source); err != nil {
			return err
		}

		prior, err := s.loadPrior(txCtx, input.RncAnteriorID)
		if err != nil {
			return err
		}
		if err := domainrnc.CheckReincidence(source.SupplierID, input.Reincidente, input.RncAnteriorID, prior); err != nil {
			return err
		}

		supplier, err := s.directory.GetSupplier(txCtx, source.SupplierID)
		if err != nil {
			return err
		}

		now := s.now()
		ano := now.In(s.loc).Year()
		current, err := s.rncs.MaxSequencial(txCtx, source.SupplierID, ano)
		if err != nil {
			return err
		}
		seq := domainrnc.NextSequencial(current)

		descricao := strings.TrimSpace(input.Descricao)
		if descricao == "" {
			descricao = source.Descricao
		}
		notice = domainrnc.Notice{
			Numero:        domainrnc.FormatNumero(seq, ano),
			Sequencial:    seq,
			Ano:           ano,
			SupplierID:    source.SupplierID,
			IncID:         source.ID,
			Quantidade:    source.Quantidade,
			Unidade:       source.Unidade,
			NotaFiscal:    source.NotaFiscal,
			NumeroAR:      source.NumeroAR,
			Descricao:     descricao,
			Reincidente:   input.Reincidente,
			RncAnteriorID: input.RncAnteriorID,
			Status:        domainrnc.StatusEnviada,
			PrazoInicio:   &now,
			CreatedByID:   actor.UserID,
			CreatedAt:     now,
		}
		if err := s.rncs.Create(txCtx, &notice); err != nil {
			return err
		}

		path, err := s.render(txCtx, notice, supplier, prior)
		if err != nil {
			return err
		}
		rendered = path
		if err := s.rncs.SetDocument(txCtx, notice.ID, path); err != nil {
			return err
		}
		notice.PdfPath = path

		if err := s.incs.UpdateStatus(txCtx, source.ID, domaininc.StatusEmAnalise, domaininc.StatusRNCEnviada); err != nil {
			return err
		}
		return s.rncs.AppendEvent(txCtx, &domainrnc.Event{
			RncID:        notice.ID,
			Kind:         domainrnc.EventCreated,
			ActorID:      actor.UserID,
			ToStatus:     notice.Status,
			DocumentPath: path,
			OccurredAt:   now,
		})
	})
	if err != nil {
		s.evidence.Discard(ctx, rendered)
		return domainrnc.Notice{}, err
	}
	return notice, nil
}

// loadPrior returns nil when id is unset or does not exist, leaving the
// verdict to CheckReincidence.
func (s *Service) loadPrior(ctx context.Context, id *uint64) (*domainrnc.Notice, error) {
	if id == nil || *id == 0 {
		return nil, nil
	}
	prior, err := s.rncs.Get(ctx, *id)
	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &prior, nil
}

func (s *Service) render(ctx context.Context, notice domainrnc.Notice, supplier ports.Supplier, prior *domainrnc.Notice) (string, error) {
	renderCtx := ctx
	if s.renderTimeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, s.renderTimeout)
		defer cancel()
	}
	path, err := s.renderer.RenderNotice(renderCtx, ports.NoticeDocument{
		Notice:      notice,
		Supplier:    supplier,
		Prior:       prior,
		GeneratedAt: s.now(),
	})
	if err != nil {
		return "", errs.Wrapf(err, "render notice %s", notice.Numero)
	}
	return path, nil
}
