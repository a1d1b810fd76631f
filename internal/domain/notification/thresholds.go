package notification

const (
	ModuleRNC      = "rnc"
	ModuleConserto = "conserto"
)

// DayThreshold fires on the single calendar day where Day matches. For RNC
// rules Day counts elapsed days of the response window, for Conserto rules
// it counts days remaining on the repair window.
type DayThreshold struct {
	Meta     TypeMeta
	Day      int
	Severity Severity
}

var RNCThresholds = []DayThreshold{
	{
		Meta: TypeMeta{
			Code:        "rnc_prazo_2dias",
			Name:        "RNC: 2 dias para o prazo",
			Description: "Faltam 2 dias para o fim do prazo de resposta da RNC.",
			Module:      ModuleRNC,
		},
		Day:      5,
		Severity: SeverityWarning,
	},
	{
		Meta: TypeMeta{
			Code:        "rnc_prazo_1dia",
			Name:        "RNC: 1 dia para o prazo",
			Description: "Falta 1 dia para o fim do prazo de resposta da RNC.",
			Module:      ModuleRNC,
		},
		Day:      6,
		Severity: SeverityWarning,
	},
	{
		Meta: TypeMeta{
			Code:        "rnc_prazo_hoje",
			Name:        "RNC: prazo vence hoje",
			Description: "O prazo de resposta da RNC vence hoje.",
			Module:      ModuleRNC,
		},
		Day:      7,
		Severity: SeverityUrgent,
	},
}

var ConsertoThresholds = []DayThreshold{
	{
		Meta: TypeMeta{
			Code:        "conserto_prazo_3dias",
			Name:        "Conserto: 3 dias para o prazo",
			Description: "Faltam 3 dias para o fim do prazo de conserto de 30 dias.",
			Module:      ModuleConserto,
		},
		Day:      3,
		Severity: SeverityWarning,
	},
	{
		Meta: TypeMeta{
			Code:        "conserto_prazo_hoje",
			Name:        "Conserto: prazo vence hoje",
			Description: "O prazo de conserto de 30 dias vence hoje.",
			Module:      ModuleConserto,
		},
		Day:      0,
		Severity: SeverityUrgent,
	},
}
