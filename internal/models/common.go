// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL (stored as TEXT on sqlite in tests)
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", value)
	}
}

// StringList is a JSON-encoded list of strings. Used for the enrichment log
// and suggested titles so the same models work on postgres and sqlite.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported StringList source type %T", value)
	}
}

// Enums

// EnrichmentStatus tracks the web-enrichment pipeline for a product.
// EM_PROGRESSO is the only non-terminal state after a run has started.
type EnrichmentStatus string

const (
	EnrichmentPendente             EnrichmentStatus = "PENDENTE"
	EnrichmentEmProgresso          EnrichmentStatus = "EM_PROGRESSO"
	EnrichmentConcluidoSucesso     EnrichmentStatus = "CONCLUIDO_SUCESSO"
	EnrichmentDadosParciais        EnrichmentStatus = "CONCLUIDO_COM_DADOS_PARCIAIS"
	EnrichmentFalhou               EnrichmentStatus = "FALHOU"
	EnrichmentNenhumaFonte         EnrichmentStatus = "NENHUMA_FONTE_ENCONTRADA"
	EnrichmentFalhaAPIExterna      EnrichmentStatus = "FALHA_API_EXTERNA"
	EnrichmentFalhaConfiguracaoAPI EnrichmentStatus = "FALHA_CONFIGURACAO_API_EXTERNA"
)

// GenerationStatus tracks title/description AI generation for a product.
type GenerationStatus string

const (
	GenerationPendente          GenerationStatus = "PENDENTE"
	GenerationEmProgresso       GenerationStatus = "EM_PROGRESSO"
	GenerationConcluidoSucesso  GenerationStatus = "CONCLUIDO_SUCESSO"
	GenerationFalhou            GenerationStatus = "FALHOU"
	GenerationFalhaConfiguracao GenerationStatus = "FALHA_CONFIGURACAO_IA"
	GenerationLimiteAtingido    GenerationStatus = "LIMITE_ATINGIDO"
)

// ActionType categorizes usage-ledger entries. Quota counting matches on
// the category prefix, so variants like "geracao_titulo_lote" still count
// against the title quota.
type ActionType string

const (
	ActionGeracaoTitulo     ActionType = "geracao_titulo"
	ActionGeracaoDescricao  ActionType = "geracao_descricao"
	ActionEnriquecimentoWeb ActionType = "enriquecimento_web"
	ActionOutroIA           ActionType = "outro_ia"
)

// GenerationKind selects which generation pipeline a request targets. The
// status column, ledger category and result field are all resolved through
// typed accessors instead of runtime column-name lookups.
type GenerationKind string

const (
	GenerationKindTitle       GenerationKind = "titulo"
	GenerationKindDescription GenerationKind = "descricao"
)

func (k GenerationKind) Valid() bool {
	return k == GenerationKindTitle || k == GenerationKindDescription
}

// StatusColumn is the database column holding this kind's status.
func (k GenerationKind) StatusColumn() string {
	if k == GenerationKindTitle {
		return "status_title_ai"
	}
	return "status_description_ai"
}

func (k GenerationKind) ActionType() ActionType {
	if k == GenerationKindTitle {
		return ActionGeracaoTitulo
	}
	return ActionGeracaoDescricao
}

// Status reads the product status field for this kind.
func (k GenerationKind) Status(p *Product) GenerationStatus {
	if k == GenerationKindTitle {
		return p.StatusTitleAI
	}
	return p.StatusDescriptionAI
}

// SetStatus writes the product status field for this kind (in memory only).
func (k GenerationKind) SetStatus(p *Product, s GenerationStatus) {
	if k == GenerationKindTitle {
		p.StatusTitleAI = s
	} else {
		p.StatusDescriptionAI = s
	}
}

// Label is the human-readable pt-BR name used in log lines.
func (k GenerationKind) Label() string {
	if k == GenerationKindTitle {
		return "título"
	}
	return "descrição"
}
