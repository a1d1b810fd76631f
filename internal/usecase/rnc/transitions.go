package rnc

import (
	"context"
	"errors"
	"log/slog"

	"rncflow/internal/bootstrap/logging"
	"rncflow/internal/domain/access"
	domaininc "rncflow/internal/domain/inc"
	domainrnc "rncflow/internal/domain/rnc"
	"rncflow/internal/domain/upload"
	"rncflow/internal/infrastructure/metrics"
)

// AcceptActionPlan moves an "RNC enviada" notice to "RNC aceita" with the
// supplier's plan attached and restarts the response window.
func (s *Service) AcceptActionPlan(ctx context.Context, actor access.Actor, id uint64, files []upload.File) (View, error) {
	const op = "rnc.accept_plan"
	if err := s.check(ctx); err != nil {
		return View{}, err
	}
	if err := actor.Require(op, access.RNCAcceptPlan); err != nil {
		return View{}, err
	}
	if err := s.precheck(ctx, id, domainrnc.CheckAcceptPlan); err != nil {
		return View{}, err
	}

	paths, err := s.evidence.Save(ctx, op, planFolder, upload.PlanDocument, files)
	if err != nil {
		return View{}, err
	}

	var notice domainrnc.Notice
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		n, err := s.rncs.Get(txCtx, id)
		if err != nil {
			return err
		}
		if err := domainrnc.CheckAcceptPlan(n.Status); err != nil {
			return err
		}

		now := s.now()
		from := n.Status
		n.Status = domainrnc.StatusAceita
		n.PrazoInicio = &now
		n.PlanoAcaoPath = paths[0]
		n.UpdatedAt = now
		if err := s.rncs.Update(txCtx, n, from); err != nil {
			return err
		}
		notice = n
		return s.rncs.AppendEvent(txCtx, &domainrnc.Event{
			RncID:        n.ID,
			Kind:         domainrnc.EventPlanAccepted,
			ActorID:      actor.UserID,
			FromStatus:   from,
			ToStatus:     n.Status,
			DocumentPath: paths[0],
			OccurredAt:   now,
		})
	}); err != nil {
		s.evidence.Discard(ctx, paths...)
		return View{}, err
	}

	s.logTransition(ctx, domainrnc.EventPlanAccepted, notice, domainrnc.StatusEnviada)
	return s.view(notice), nil
}

// RejectActionPlan records the rejected plan and justification and gives
// the supplier a fresh response window. The status stays "RNC enviada".
func (s *Service) RejectActionPlan(ctx context.Context, actor access.Actor, id uint64, justification string, files []upload.File) (View, error) {
	const op = "rnc.reject_plan"
	if err := s.check(ctx); err != nil {
		return View{}, err
	}
	if err := actor.Require(op, access.RNCRejectPlan); err != nil {
		return View{}, err
	}
	justification, err := domainrnc.NormalizeJustification(justification)
	if err != nil {
		return View{}, err
	}
	if err := s.precheck(ctx, id, domainrnc.CheckRejectPlan); err != nil {
		return View{}, err
	}

	paths, err := s.evidence.Save(ctx, op, planFolder, upload.PlanDocument, files)
	if err != nil {
		return View{}, err
	}

	var notice domainrnc.Notice
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		n, err := s.rncs.Get(txCtx, id)
		if err != nil {
			return err
		}
		if err := domainrnc.CheckRejectPlan(n.Status); err != nil {
			return err
		}

		now := s.now()
		n.PrazoInicio = &now
		n.UpdatedAt = now
		if err := s.rncs.Update(txCtx, n, n.Status); err != nil {
			return err
		}
		notice = n
		return s.rncs.AppendEvent(txCtx, &domainrnc.Event{
			RncID:         n.ID,
			Kind:          domainrnc.EventPlanRejected,
			ActorID:       actor.UserID,
			FromStatus:    n.Status,
			ToStatus:      n.Status,
			Justification: justification,
			DocumentPath:  paths[0],
			OccurredAt:    now,
		})
	}); err != nil {
		s.evidence.Discard(ctx, paths...)
		return View{}, err
	}

	s.logTransition(ctx, domainrnc.EventPlanRejected, notice, notice.Status)
	return s.view(notice), nil
}

// SetAdministrativeStatus applies one of the manual sub-state changes.
func (s *Service) SetAdministrativeStatus(ctx context.Context, actor access.Actor, id uint64, status string) (View, error) {
	const op = "rnc.set_status"
	if err := s.check(ctx); err != nil {
		return View{}, err
	}
	if err := actor.Require(op, access.RNCUpdate); err != nil {
		return View{}, err
	}
	to, err := domainrnc.ParseStatus(status)
	if err != nil {
		return View{}, err
	}

	var (
		notice domainrnc.Notice
		from   domainrnc.Status
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		n, err := s.rncs.Get(txCtx, id)
		if err != nil {
			return err
		}
		if err := domainrnc.CheckAdministrativeTransition(n.Status, to); err != nil {
			return err
		}

		now := s.now()
		from = n.Status
		n.Status = to
		n.UpdatedAt = now
		if err := s.rncs.Update(txCtx, n, from); err != nil {
			return err
		}
		notice = n
		return s.rncs.AppendEvent(txCtx, &domainrnc.Event{
			RncID:      n.ID,
			Kind:       domainrnc.EventStatusChanged,
			ActorID:    actor.UserID,
			FromStatus: from,
			ToStatus:   to,
			OccurredAt: now,
		})
	}); err != nil {
		return View{}, err
	}

	s.logTransition(ctx, domainrnc.EventStatusChanged, notice, from)
	return s.view(notice), nil
}

// Remove deletes a notice without a linked remediation and puts its INC
// back in "Em análise". Stored documents are removed after commit.
func (s *Service) Remove(ctx context.Context, actor access.Actor, id uint64) error {
	const op = "rnc.remove"
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := actor.Require(op, access.RNCDelete); err != nil {
		return err
	}

	var (
		notice domainrnc.Notice
		files  []string
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		n, err := s.rncs.Get(txCtx, id)
		if err != nil {
			return err
		}
		referencedBy, err := s.rncs.CountReferencing(txCtx, id)
		if err != nil {
			return err
		}
		if err := domainrnc.CheckRemovable(n, referencedBy); err != nil {
			return err
		}
		events, err := s.rncs.ListEvents(txCtx, id)
		if err != nil {
			return err
		}

		files = append(files, n.PdfPath, n.PlanoAcaoPath)
		for _, e := range events {
			files = append(files, e.DocumentPath)
		}
		notice = n

		if err := s.rncs.Delete(txCtx, id); err != nil {
			return err
		}
		return s.incs.UpdateStatus(txCtx, n.IncID, domaininc.StatusRNCEnviada, domaininc.StatusEmAnalise)
	}); err != nil {
		return err
	}

	s.evidence.Discard(ctx, dedupe(files)...)
	logging.Info(logging.WithComponent(ctx, component), "rnc removed",
		slog.Uint64("rnc_id", notice.ID),
		slog.String("numero", notice.Numero),
		slog.Uint64("inc_id", notice.IncID),
	)
	return nil
}

// RegenerateDocument renders the notice document again and replaces the
// stored reference.
func (s *Service) RegenerateDocument(ctx context.Context, actor access.Actor, id uint64) (View, error) {
	const op = "rnc.regenerate_document"
	if err := s.check(ctx); err != nil {
		return View{}, err
	}
	if s.renderer == nil || s.directory == nil {
		return View{}, errors.New("document renderer and directory are required")
	}
	if err := actor.Require(op, access.RNCUpdate); err != nil {
		return View{}, err
	}

	var (
		notice   domainrnc.Notice
		previous string
		rendered string
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		n, err := s.rncs.Get(txCtx, id)
		if err != nil {
			return err
		}
		supplier, err := s.directory.GetSupplier(txCtx, n.SupplierID)
		if err != nil {
			return err
		}
		prior, err := s.loadPrior(txCtx, n.RncAnteriorID)
		if err != nil {
			return err
		}

		path, err := s.render(txCtx, n, supplier, prior)
		if err != nil {
			return err
		}
		rendered = path
		if err := s.rncs.SetDocument(txCtx, n.ID, path); err != nil {
			return err
		}
		previous = n.PdfPath
		n.PdfPath = path
		notice = n
		return s.rncs.AppendEvent(txCtx, &domainrnc.Event{
			RncID:        n.ID,
			Kind:         domainrnc.EventDocumentRegenerated,
			ActorID:      actor.UserID,
			FromStatus:   n.Status,
			ToStatus:     n.Status,
			DocumentPath: path,
			OccurredAt:   s.now(),
		})
	}); err != nil {
		s.evidence.Discard(ctx, rendered)
		return View{}, err
	}

	if previous != "" && previous != rendered {
		s.evidence.Discard(ctx, previous)
	}
	logging.Info(logging.WithComponent(ctx, component), "rnc document regenerated",
		slog.Uint64("rnc_id", notice.ID),
		slog.String("path", notice.PdfPath),
	)
	return s.view(notice), nil
}

// precheck fails fast on the current status before any upload is stored.
// The transaction checks again.
func (s *Service) precheck(ctx context.Context, id uint64, guard func(domainrnc.Status) error) error {
	n, err := s.rncs.Get(ctx, id)
	if err != nil {
		return err
	}
	return guard(n.Status)
}

func (s *Service) logTransition(ctx context.Context, kind domainrnc.EventKind, n domainrnc.Notice, from domainrnc.Status) {
	metrics.WorkflowTransitions.WithLabelValues(workflowMetric, string(kind)).Inc()
	logging.Info(logging.WithComponent(ctx, component), "rnc transition applied",
		slog.Uint64("rnc_id", n.ID),
		slog.String("action", string(kind)),
		slog.String("from", string(from)),
		slog.String("to", string(n.Status)),
	)
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
