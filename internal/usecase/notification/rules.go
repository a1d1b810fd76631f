package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rncflow/internal/domain/access"
	domain "rncflow/internal/domain/notification"
	"rncflow/internal/domain/rnc"
	"rncflow/internal/ports"
)

// RNCDeadlineRule fires on the day a deadline-tracked notice reaches
// Threshold.Day elapsed days of its response window.
type RNCDeadlineRule struct {
	Threshold domain.DayThreshold
	RNCs      ports.RNCRepository
	Location  *time.Location
}

func (r RNCDeadlineRule) Meta() domain.TypeMeta { return r.Threshold.Meta }

func (r RNCDeadlineRule) Permissions() []string { return []string{access.RNCRead} }

func (r RNCDeadlineRule) Evaluate(ctx context.Context, now time.Time) ([]domain.Candidate, error) {
	if r.RNCs == nil {
		return nil, errors.New("rnc repository is required")
	}
	notices, err := r.RNCs.ListDeadlineTracked(ctx)
	if err != nil {
		return nil, err
	}

	var out []domain.Candidate
	for _, n := range notices {
		d, ok := rnc.DeadlineFor(n, now, r.Location)
		if !ok || d.DaysElapsed != r.Threshold.Day {
			continue
		}
		out = append(out, domain.Candidate{
			EntityID:   n.ID,
			EntityType: "rnc",
			Title:      fmt.Sprintf("%s: %s", n.Numero, r.Threshold.Meta.Name),
			Message: fmt.Sprintf("%s (%s) vence em %s. Dias restantes: %d.",
				n.Numero, n.Status, d.Due.Format("02/01/2006"), d.DaysRemaining),
			Severity: r.Threshold.Severity,
			Link:     fmt.Sprintf("/rncs/%d", n.ID),
		})
	}
	return out, nil
}

// ConsertoDeadlineRule fires on the day an open repair window has
// Threshold.Day days left.
type ConsertoDeadlineRule struct {
	Threshold domain.DayThreshold
	Consertos ports.ConsertoRepository
	Location  *time.Location
}

func (r ConsertoDeadlineRule) Meta() domain.TypeMeta { return r.Threshold.Meta }

func (r ConsertoDeadlineRule) Permissions() []string { return []string{access.ConsertoRead} }

func (r ConsertoDeadlineRule) Evaluate(ctx context.Context, now time.Time) ([]domain.Candidate, error) {
	if r.Consertos == nil {
		return nil, errors.New("conserto repository is required")
	}
	open, err := r.Consertos.ListRepairWindowOpen(ctx)
	if err != nil {
		return nil, err
	}

	var out []domain.Candidate
	for _, c := range open {
		if c.PrazoConsertoFim == nil {
			continue
		}
		// unclamped: an overdue window must not match the 0-day rule again
		remaining := rnc.DaysElapsed(now, *c.PrazoConsertoFim, r.Location)
		if remaining != r.Threshold.Day {
			continue
		}
		out = append(out, domain.Candidate{
			EntityID:   c.ID,
			EntityType: "conserto",
			Title:      fmt.Sprintf("Conserto %d: %s", c.ID, r.Threshold.Meta.Name),
			Message: fmt.Sprintf("Conserto da AR %s vence em %s. Dias restantes: %d.",
				c.ArOrigem, c.PrazoConsertoFim.In(location(r.Location)).Format("02/01/2006"), remaining),
			Severity: r.Threshold.Severity,
			Link:     fmt.Sprintf("/consertos/%d", c.ID),
		})
	}
	return out, nil
}

// DefaultRules is the static rule registry. Conserto rules are only
// registered when includeConserto is set.
func DefaultRules(rncs ports.RNCRepository, consertos ports.ConsertoRepository, loc *time.Location, includeConserto bool) []domain.Rule {
	rules := make([]domain.Rule, 0, len(domain.RNCThresholds)+len(domain.ConsertoThresholds))
	for _, t := range domain.RNCThresholds {
		rules = append(rules, RNCDeadlineRule{Threshold: t, RNCs: rncs, Location: loc})
	}
	if includeConserto {
		for _, t := range domain.ConsertoThresholds {
			rules = append(rules, ConsertoDeadlineRule{Threshold: t, Consertos: consertos, Location: loc})
		}
	}
	return rules
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
