// internal/models/plan.go
package models

// Plan holds the monthly quota configuration for a subscription tier.
// A limit of zero means unlimited.
type Plan struct {
	BaseModel
	Name        string `json:"name" gorm:"uniqueIndex;size:100;not null"`
	Description string `json:"description" gorm:"type:text"`

	MaxProdutosMes        int `json:"max_produtos_mes" gorm:"default:0"`
	MaxEnriquecimentosMes int `json:"max_enriquecimentos_mes" gorm:"default:0"`
	MaxTitulosMes         int `json:"max_titulos_mes" gorm:"default:0"`
	MaxDescricoesMes      int `json:"max_descricoes_mes" gorm:"default:0"`

	// Unified AI credit pool: all AI usage in the month counts against it.
	LimiteGeracaoIA int `json:"limite_geracao_ia" gorm:"default:0"`

	Active bool `json:"active" gorm:"default:true"`

	Users []User `json:"users,omitempty" gorm:"foreignKey:PlanID"`
}
