// internal/models/product_type.go
package models

// ProductType defines a dynamic attribute schema for products of a given
// kind (e.g. "Notebook" with campos cpu/ram/tela). The schema is an opaque
// JSON document interpreted by the frontend form builder.
type ProductType struct {
	BaseModel
	UserID          uint   `json:"user_id" gorm:"not null;index"`
	Name            string `json:"name" gorm:"size:255;not null"`
	Description     string `json:"description" gorm:"type:text"`
	AttributeSchema JSONB  `json:"attribute_schema" gorm:"type:jsonb"`

	User     User      `json:"-" gorm:"foreignKey:UserID"`
	Products []Product `json:"products,omitempty" gorm:"foreignKey:ProductTypeID"`
}
