// Package remediation models the two workflows an accepted RNC can open:
// goods return (Devolução) and repair (Conserto). Both are linear-stage
// pipelines with audit stamps, built on Workflow.
package remediation

import (
	"fmt"
	"time"

	"rncflow/internal/errs"
)

type Action string

const (
	ActionEmitNFe             Action = "emitir_nfe"
	ActionConfirmPickup       Action = "confirmar_coleta"
	ActionConfirmReceipt      Action = "confirmar_recebimento"
	ActionConfirmCompensation Action = "confirmar_compensacao"
	ActionConfirmReturn       Action = "confirmar_retorno"
	ActionApproveInspection   Action = "aprovar_inspecao"
	ActionRejectInspection    Action = "rejeitar_inspecao"
)

type Transition[S ~string] struct {
	Action Action
	From   S
	To     S
}

// Workflow is an ordered list of stages plus the named transitions between
// them. A stage with no outgoing transition is terminal.
type Workflow[S ~string] struct {
	name        string
	stages      []S
	transitions map[Action]Transition[S]
}

func NewWorkflow[S ~string](name string, stages []S, transitions ...Transition[S]) Workflow[S] {
	known := make(map[S]struct{}, len(stages))
	for _, s := range stages {
		known[s] = struct{}{}
	}
	byAction := make(map[Action]Transition[S], len(transitions))
	for _, t := range transitions {
		if _, ok := known[t.From]; !ok {
			panic(fmt.Sprintf("workflow %s: transition %s from unknown stage %q", name, t.Action, t.From))
		}
		if _, ok := known[t.To]; !ok {
			panic(fmt.Sprintf("workflow %s: transition %s to unknown stage %q", name, t.Action, t.To))
		}
		if _, dup := byAction[t.Action]; dup {
			panic(fmt.Sprintf("workflow %s: duplicate action %s", name, t.Action))
		}
		byAction[t.Action] = t
	}
	return Workflow[S]{name: name, stages: stages, transitions: byAction}
}

func (w Workflow[S]) Name() string { return w.name }

func (w Workflow[S]) Initial() S { return w.stages[0] }

func (w Workflow[S]) Stages() []S {
	out := make([]S, len(w.stages))
	copy(out, w.stages)
	return out
}

// Expected returns the stage action must start from.
func (w Workflow[S]) Expected(action Action) (S, bool) {
	t, ok := w.transitions[action]
	return t.From, ok
}

// Advance returns the stage reached by applying action to current, or an
// InvalidState error carrying the expected and actual stage.
func (w Workflow[S]) Advance(action Action, current S) (S, error) {
	op := w.name + "." + string(action)
	t, ok := w.transitions[action]
	if !ok {
		var zero S
		return zero, errs.New(errs.KindInternal, op, "action not defined for workflow")
	}
	if current != t.From {
		var zero S
		return zero, errs.StateMismatch(op, string(t.From), string(current))
	}
	return t.To, nil
}

func (w Workflow[S]) IsTerminal(s S) bool {
	for _, t := range w.transitions {
		if t.From == s {
			return false
		}
	}
	return true
}

// Position is the index of s in the stage order, -1 when unknown.
func (w Workflow[S]) Position(s S) int {
	for i, stage := range w.stages {
		if stage == s {
			return i
		}
	}
	return -1
}

// Stamp records who performed a transition and when. Once set it is never
// overwritten.
type Stamp struct {
	By uint64
	At *time.Time
}

func (s Stamp) IsSet() bool { return s.At != nil }

func (s *Stamp) record(op string, by uint64, at time.Time) error {
	if s.IsSet() {
		return errs.New(errs.KindInvalidState, op, "audit stamp already recorded at %s", s.At.Format(time.RFC3339))
	}
	if by == 0 {
		return errs.Validationf(op, "acting user is required")
	}
	at = at.UTC()
	s.By = by
	s.At = &at
	return nil
}
