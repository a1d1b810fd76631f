package rnc

import (
	"rncflow/internal/errs"
)

type Status string

const (
	StatusEnviada            Status = "RNC enviada"
	StatusAguardandoResposta Status = "Aguardando resposta"
	StatusEmAnalise          Status = "Em análise"
	StatusAceita             Status = "RNC aceita"
	StatusConcluida          Status = "Concluída"
)

var allStatuses = []Status{
	StatusEnviada,
	StatusAguardandoResposta,
	StatusEmAnalise,
	StatusAceita,
	StatusConcluida,
}

// DeadlineTrackedStatuses are the only statuses the deadline sweep watches.
var DeadlineTrackedStatuses = []Status{StatusEnviada, StatusAceita}

func ParseStatus(raw string) (Status, error) {
	for _, s := range allStatuses {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", errs.Validationf("rnc.parse_status", "unknown rnc status %q", raw)
}

func (s Status) DeadlineTracked() bool {
	for _, tracked := range DeadlineTrackedStatuses {
		if s == tracked {
			return true
		}
	}
	return false
}

// administrativeTransitions lists the manual status changes outside the
// plan-of-action flow. Everything else goes through the named operations.
var administrativeTransitions = map[Status][]Status{
	StatusEnviada:            {StatusAguardandoResposta, StatusEmAnalise},
	StatusAguardandoResposta: {StatusEnviada, StatusEmAnalise},
	StatusEmAnalise:          {StatusEnviada, StatusAguardandoResposta},
	StatusAceita:             {StatusConcluida},
}

func CheckAdministrativeTransition(from Status, to Status) error {
	for _, allowed := range administrativeTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return &errs.Error{
		Kind:     errs.KindInvalidState,
		Op:       "rnc.set_status",
		Msg:      "status change not allowed",
		Expected: string(from) + " -> one of the administrative statuses",
		Actual:   string(from) + " -> " + string(to),
	}
}

func CheckAcceptPlan(current Status) error {
	if current != StatusEnviada {
		return errs.StateMismatch("rnc.accept_plan", string(StatusEnviada), string(current))
	}
	return nil
}

func CheckRejectPlan(current Status) error {
	if current != StatusEnviada {
		return errs.StateMismatch("rnc.reject_plan", string(StatusEnviada), string(current))
	}
	return nil
}
