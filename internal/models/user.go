// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username     string `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `json:"-" gorm:"size:255;not null"`
	IsAdmin      bool   `json:"is_admin" gorm:"default:false"`

	// Personal OpenAI key; when empty the system-wide key is used.
	OpenAIKey string `json:"-" gorm:"size:255"`

	// Per-user monthly overrides. Zero means "no override": the plan limit
	// applies, and a zero plan limit means unlimited.
	MaxTitulosMes         int `json:"max_titulos_mes" gorm:"default:0"`
	MaxDescricoesMes      int `json:"max_descricoes_mes" gorm:"default:0"`
	MaxEnriquecimentosMes int `json:"max_enriquecimentos_mes" gorm:"default:0"`
	MaxProdutosMes        int `json:"max_produtos_mes" gorm:"default:0"`
	LimiteGeracaoIA       int `json:"limite_geracao_ia" gorm:"default:0"`

	PlanID      *uint      `json:"plan_id" gorm:"index"`
	LastLoginAt *time.Time `json:"last_login_at"`

	// Relationships
	Plan      *Plan      `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
	Suppliers []Supplier `json:"suppliers,omitempty" gorm:"foreignKey:UserID"`
	Products  []Product  `json:"products,omitempty" gorm:"foreignKey:UserID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
