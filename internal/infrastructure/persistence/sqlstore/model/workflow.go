package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Inc struct {
	ID          uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	SupplierID  uint64          `gorm:"column:supplier_id;not null;index"`
	Quantidade  decimal.Decimal `gorm:"column:quantidade;type:decimal(14,3);not null"`
	Unidade     string          `gorm:"column:unidade;size:20;not null"`
	NotaFiscal  string          `gorm:"column:nota_fiscal;size:60"`
	NumeroAR    string          `gorm:"column:numero_ar;size:60"`
	Descricao   string          `gorm:"column:descricao;type:text"`
	Status      string          `gorm:"column:status;size:40;not null;index"`
	CreatedByID uint64          `gorm:"column:created_by_id;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;not null"`
}

func (Inc) TableName() string {
	return "incs"
}

// Rnc carries a unique (supplier_id, ano, sequencial) index so two
// concurrent creations can never share a number.
type Rnc struct {
	ID              uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	Numero          string          `gorm:"column:numero;size:32;not null"`
	SupplierID      uint64          `gorm:"column:supplier_id;not null;uniqueIndex:uk_rncs_supplier_ano_seq,priority:1"`
	Ano             int             `gorm:"column:ano;not null;uniqueIndex:uk_rncs_supplier_ano_seq,priority:2"`
	Sequencial      int             `gorm:"column:sequencial;not null;uniqueIndex:uk_rncs_supplier_ano_seq,priority:3"`
	IncID           uint64          `gorm:"column:inc_id;not null;uniqueIndex:uk_rncs_inc"`
	Quantidade      decimal.Decimal `gorm:"column:quantidade;type:decimal(14,3);not null"`
	Unidade         string          `gorm:"column:unidade;size:20;not null"`
	NotaFiscal      string          `gorm:"column:nota_fiscal;size:60"`
	NumeroAR        string          `gorm:"column:numero_ar;size:60"`
	Descricao       string          `gorm:"column:descricao;type:text"`
	Reincidente     bool            `gorm:"column:reincidente;not null"`
	RncAnteriorID   *uint64         `gorm:"column:rnc_anterior_id;index"`
	Status          string          `gorm:"column:status;size:40;not null;index"`
	PrazoInicio     *time.Time      `gorm:"column:prazo_inicio"`
	PdfPath         string          `gorm:"column:pdf_path;size:512"`
	PlanoAcaoPath   string          `gorm:"column:plano_acao_path;size:512"`
	RemediationKind string          `gorm:"column:remediation_kind;size:20;not null"`
	CreatedByID     uint64          `gorm:"column:created_by_id;not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;not null"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;not null"`
}

func (Rnc) TableName() string {
	return "rncs"
}

type RncEvent struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	RncID         uint64    `gorm:"column:rnc_id;not null;index"`
	Kind          string    `gorm:"column:kind;size:40;not null"`
	ActorID       uint64    `gorm:"column:actor_id;not null"`
	FromStatus    string    `gorm:"column:from_status;size:40"`
	ToStatus      string    `gorm:"column:to_status;size:40"`
	Justification string    `gorm:"column:justification;type:text"`
	DocumentPath  string    `gorm:"column:document_path;size:512"`
	OccurredAt    time.Time `gorm:"column:occurred_at;not null"`
}

func (RncEvent) TableName() string {
	return "rnc_events"
}

type Devolucao struct {
	ID                         uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	RncID                      uint64     `gorm:"column:rnc_id;not null;uniqueIndex:uk_devolucoes_rnc"`
	ArOrigem                   string     `gorm:"column:ar_origem;size:60"`
	Status                     string     `gorm:"column:status;size:40;not null;index"`
	Observacao                 string     `gorm:"column:observacao;type:text"`
	NFePdfPath                 string     `gorm:"column:nfe_pdf_path;size:512"`
	NFeEmitidaPorID            *uint64    `gorm:"column:nfe_emitida_por_id"`
	NFeEmitidaEm               *time.Time `gorm:"column:nfe_emitida_em"`
	ColetaConfirmadaPorID      *uint64    `gorm:"column:coleta_confirmada_por_id"`
	DataColeta                 *time.Time `gorm:"column:data_coleta"`
	RecebimentoConfirmadoPorID *uint64    `gorm:"column:recebimento_confirmado_por_id"`
	DataRecebimento            *time.Time `gorm:"column:data_recebimento"`
	CompensacaoConfirmadaPorID *uint64    `gorm:"column:compensacao_confirmada_por_id"`
	DataCompensacao            *time.Time `gorm:"column:data_compensacao"`
	CompensacaoPath            string     `gorm:"column:compensacao_path;size:512"`
	CreatedByID                uint64     `gorm:"column:created_by_id;not null"`
	CreatedAt                  time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt                  time.Time  `gorm:"column:updated_at;not null"`
}

func (Devolucao) TableName() string {
	return "devolucoes"
}

type Conserto struct {
	ID                         uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	RncID                      uint64     `gorm:"column:rnc_id;not null;uniqueIndex:uk_consertos_rnc"`
	ArOrigem                   string     `gorm:"column:ar_origem;size:60"`
	Frete                      string     `gorm:"column:frete;size:3;not null"`
	Transportadora             string     `gorm:"column:transportadora;size:255"`
	Status                     string     `gorm:"column:status;size:40;not null;index"`
	Observacao                 string     `gorm:"column:observacao;type:text"`
	NFePdfPath                 string     `gorm:"column:nfe_pdf_path;size:512"`
	NFeEmitidaPorID            *uint64    `gorm:"column:nfe_emitida_por_id"`
	NFeEmitidaEm               *time.Time `gorm:"column:nfe_emitida_em"`
	ColetaConfirmadaPorID      *uint64    `gorm:"column:coleta_confirmada_por_id"`
	DataColeta                 *time.Time `gorm:"column:data_coleta"`
	RecebimentoConfirmadoPorID *uint64    `gorm:"column:recebimento_confirmado_por_id"`
	DataRecebimento            *time.Time `gorm:"column:data_recebimento"`
	PrazoConsertoInicio        *time.Time `gorm:"column:prazo_conserto_inicio"`
	PrazoConsertoFim           *time.Time `gorm:"column:prazo_conserto_fim;index"`
	RetornoConfirmadoPorID     *uint64    `gorm:"column:retorno_confirmado_por_id"`
	DataRetorno                *time.Time `gorm:"column:data_retorno"`
	NFeRetornoPdfPath          string     `gorm:"column:nfe_retorno_pdf_path;size:512"`
	InspecaoResultado          string     `gorm:"column:inspecao_resultado;size:20;not null"`
	InspecaoDescricao          string     `gorm:"column:inspecao_descricao;type:text"`
	InspecaoPorID              *uint64    `gorm:"column:inspecao_por_id"`
	DataInspecao               *time.Time `gorm:"column:data_inspecao"`
	CreatedByID                uint64     `gorm:"column:created_by_id;not null"`
	CreatedAt                  time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt                  time.Time  `gorm:"column:updated_at;not null"`
}

func (Conserto) TableName() string {
	return "consertos"
}

type ConsertoPhoto struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	ConsertoID uint64    `gorm:"column:conserto_id;not null;index"`
	Kind       string    `gorm:"column:kind;size:20;not null"`
	Path       string    `gorm:"column:path;size:512;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
}

func (ConsertoPhoto) TableName() string {
	return "conserto_photos"
}
