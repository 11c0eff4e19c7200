// internal/models/product.go
package models

type Product struct {
	BaseModel
	UserID        uint  `json:"user_id" gorm:"not null;index"`
	SupplierID    *uint `json:"supplier_id" gorm:"index"`
	ProductTypeID *uint `json:"product_type_id" gorm:"index"`

	BaseName         string `json:"base_name" gorm:"size:255;not null"`
	Brand            string `json:"brand" gorm:"size:255"`
	OriginalCategory string `json:"original_category" gorm:"size:255"`

	// RawData accumulates enrichment results under provider-prefixed keys.
	// Prefix convention: meta_* (structured page metadata), llm_* (LLM
	// extraction), web_* (importer/web sources). Consumers must tolerate
	// arbitrary additional keys.
	RawData JSONB `json:"raw_data" gorm:"type:jsonb"`

	// Attributes follow the linked ProductType schema.
	Attributes JSONB      `json:"attributes" gorm:"type:jsonb"`
	Images     StringList `json:"images" gorm:"type:jsonb"`

	StatusEnrichmentWeb EnrichmentStatus `json:"status_enrichment_web" gorm:"type:varchar(40);default:'PENDENTE';index"`
	StatusTitleAI       GenerationStatus `json:"status_title_ai" gorm:"column:status_title_ai;type:varchar(40);default:'PENDENTE'"`
	StatusDescriptionAI GenerationStatus `json:"status_description_ai" gorm:"column:status_description_ai;type:varchar(40);default:'PENDENTE'"`

	// EnrichmentLog is the polled timeline of the current/last run. It is
	// replaced at the start of each enrichment run and append-only within
	// one run; generation runs append without resetting.
	EnrichmentLog StringList `json:"enrichment_log" gorm:"type:jsonb"`

	SuggestedTitles      StringList `json:"suggested_titles" gorm:"type:jsonb"`
	GeneratedDescription string     `json:"generated_description" gorm:"type:text"`

	// Relationships
	User        User         `json:"-" gorm:"foreignKey:UserID"`
	Supplier    *Supplier    `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	ProductType *ProductType `json:"product_type,omitempty" gorm:"foreignKey:ProductTypeID"`
}
