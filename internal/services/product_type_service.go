// internal/services/product_type_service.go
package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/catalogo-hub/catalogo-backend/internal/models"
	"github.com/catalogo-hub/catalogo-backend/internal/utils"
)

type ProductTypeService struct {
	db *gorm.DB
}

func NewProductTypeService(db *gorm.DB) *ProductTypeService {
	return &ProductTypeService{db: db}
}

type ProductTypeInput struct {
	Name            string       `json:"name" binding:"required,max=255"`
	Description     string       `json:"description"`
	AttributeSchema models.JSONB `json:"attribute_schema"`
}

func (s *ProductTypeService) Create(userID uint, input ProductTypeInput) (*models.ProductType, error) {
	productType := &models.ProductType{
		UserID:          userID,
		Name:            input.Name,
		Description:     input.Description,
		AttributeSchema: input.AttributeSchema,
	}
	if err := s.db.Create(productType).Error; err != nil {
		return nil, fmt.Errorf("failed to create product type: %w", err)
	}
	return productType, nil
}

func (s *ProductTypeService) Get(userID, typeID uint) (*models.ProductType, error) {
	var productType models.ProductType
	if err := s.db.First(&productType, typeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product type: %w", err)
	}
	if productType.UserID != userID {
		return nil, ErrForbidden
	}
	return &productType, nil
}

func (s *ProductTypeService) List(userID uint, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.ProductType{}).Where("user_id = ?", userID)
	if params.Search != "" {
		query = query.Where("name ILIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count product types: %w", err)
	}

	var types []models.ProductType
	query = utils.ApplySort(query, params, []string{"created_at", "name"})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&types).Error; err != nil {
		return nil, fmt.Errorf("failed to list product types: %w", err)
	}

	result := utils.CreatePaginationResult(types, total, params)
	return &result, nil
}

func (s *ProductTypeService) Update(userID, typeID uint, input ProductTypeInput) (*models.ProductType, error) {
	productType, err := s.Get(userID, typeID)
	if err != nil {
		return nil, err
	}

	productType.Name = input.Name
	productType.Description = input.Description
	if input.AttributeSchema != nil {
		productType.AttributeSchema = input.AttributeSchema
	}

	if err := s.db.Save(productType).Error; err != nil {
		return nil, fmt.Errorf("failed to update product type: %w", err)
	}
	return productType, nil
}

func (s *ProductTypeService) Delete(userID, typeID uint) error {
	productType, err := s.Get(userID, typeID)
	if err != nil {
		return err
	}

	var count int64
	err = s.db.Model(&models.Product{}).Where("product_type_id = ?", productType.ID).Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to count linked products: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("tipo de produto em uso por %d produtos: %w", count, ErrConflict)
	}

	if err := s.db.Delete(productType).Error; err != nil {
		return fmt.Errorf("failed to delete product type: %w", err)
	}
	return nil
}
