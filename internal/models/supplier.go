// internal/models/supplier.go
package models

// Supplier ("fornecedor") is a user-registered product source. The site URL
// biases enrichment: search results on the supplier's own domain are
// processed first.
type Supplier struct {
	BaseModel
	UserID  uint   `json:"user_id" gorm:"not null;index"`
	Name    string `json:"name" gorm:"size:255;not null"`
	SiteURL string `json:"site_url" gorm:"size:512"`
	Email   string `json:"email" gorm:"size:255"`
	Phone   string `json:"phone" gorm:"size:50"`
	Notes   string `json:"notes" gorm:"type:text"`

	User     User      `json:"-" gorm:"foreignKey:UserID"`
	Products []Product `json:"products,omitempty" gorm:"foreignKey:SupplierID"`
}
