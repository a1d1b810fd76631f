package access

import "rncflow/internal/errs"

// Permission codes checked by the workflow operations. admin.all overrides
// every other code.
const (
	AdminAll = "admin.all"

	INCRead   = "inc.read"
	INCCreate = "inc.create"

	RNCRead       = "rnc.read"
	RNCCreate     = "rnc.create"
	RNCUpdate     = "rnc.update"
	RNCDelete     = "rnc.delete"
	RNCAcceptPlan = "rnc.aceitar_plano"
	RNCRejectPlan = "rnc.rejeitar_plano"

	DevolucaoRead                = "devolucao.read"
	DevolucaoCreate              = "devolucao.create"
	DevolucaoDelete              = "devolucao.delete"
	DevolucaoEmitNFe             = "devolucao.emitir_nfe"
	DevolucaoConfirmPickup       = "devolucao.confirmar_coleta"
	DevolucaoConfirmReceipt      = "devolucao.confirmar_recebimento"
	DevolucaoConfirmCompensation = "devolucao.confirmar_compensacao"

	ConsertoRead           = "conserto.read"
	ConsertoCreate         = "conserto.create"
	ConsertoDelete         = "conserto.delete"
	ConsertoEmitNFe        = "conserto.emitir_nfe"
	ConsertoConfirmPickup  = "conserto.confirmar_coleta"
	ConsertoConfirmReceipt = "conserto.confirmar_recebimento"
	ConsertoConfirmReturn  = "conserto.confirmar_retorno"
	ConsertoInspect        = "conserto.inspecionar"

	NotificationsAdmin = "notifications.admin"
)

// Allows reports whether held grants code.
func Allows(held []string, code string) bool {
	for _, h := range held {
		if h == AdminAll || h == code {
			return true
		}
	}
	return false
}

// WithAdmin returns codes plus admin.all, without duplicates.
func WithAdmin(codes ...string) []string {
	out := make([]string, 0, len(codes)+1)
	seen := make(map[string]struct{}, len(codes)+1)
	for _, c := range append(codes, AdminAll) {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Actor is the authenticated user an operation runs for.
type Actor struct {
	UserID      uint64
	Permissions []string
}

// Require fails with Forbidden unless a holds code or admin.all.
func (a Actor) Require(op string, code string) error {
	if a.UserID == 0 {
		return errs.New(errs.KindUnauthorized, op, "authentication required")
	}
	if !Allows(a.Permissions, code) {
		return errs.New(errs.KindForbidden, op, "permission %q required", code)
	}
	return nil
}
