// internal/models/usage_record.go
package models

import "time"

// UsageRecord is one append-only ledger entry per AI-provider invocation.
// Rows are never updated or deleted; they feed both quota counting and
// auditing. ProductID is nulled when the product is removed so the ledger
// outlives products.
type UsageRecord struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	UserID    uint       `json:"user_id" gorm:"not null;index"`
	ProductID *uint      `json:"product_id" gorm:"index"`
	Action    ActionType `json:"action" gorm:"type:varchar(40);not null;index"`

	Provider string `json:"provider" gorm:"size:50"`
	Model    string `json:"model" gorm:"size:100"`

	Prompt   string `json:"prompt" gorm:"type:text"`
	Response string `json:"response" gorm:"type:text"`

	InputTokens   int     `json:"input_tokens" gorm:"default:0"`
	OutputTokens  int     `json:"output_tokens" gorm:"default:0"`
	EstimatedCost float64 `json:"estimated_cost" gorm:"type:decimal(10,6);default:0"`

	RequestID string `json:"request_id" gorm:"size:64;index"`

	User    User     `json:"-" gorm:"foreignKey:UserID"`
	Product *Product `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL"`
}

func (UsageRecord) TableName() string {
	return "usage_records"
}
