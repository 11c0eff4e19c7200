// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/catalogo-hub/catalogo-backend/internal/models"
	"github.com/catalogo-hub/catalogo-backend/internal/utils"
)

// ProductService owns product CRUD. Every read and write is scoped to the
// owning user; admins bypass the ownership check on reads.
type ProductService struct {
	db    *gorm.DB
	quota *QuotaService
}

func NewProductService(db *gorm.DB, quota *QuotaService) *ProductService {
	return &ProductService{db: db, quota: quota}
}

type CreateProductInput struct {
	BaseName         string       `json:"base_name" binding:"required,max=255"`
	Brand            string       `json:"brand" binding:"max=255"`
	OriginalCategory string       `json:"original_category" binding:"max=255"`
	SupplierID       *uint        `json:"supplier_id"`
	ProductTypeID    *uint        `json:"product_type_id"`
	RawData          models.JSONB `json:"raw_data"`
	Attributes       models.JSONB `json:"attributes"`
}

type UpdateProductInput struct {
	BaseName         *string      `json:"base_name" binding:"omitempty,max=255"`
	Brand            *string      `json:"brand" binding:"omitempty,max=255"`
	OriginalCategory *string      `json:"original_category" binding:"omitempty,max=255"`
	SupplierID       *uint        `json:"supplier_id"`
	ProductTypeID    *uint        `json:"product_type_id"`
	RawData          models.JSONB `json:"raw_data"`
	Attributes       models.JSONB `json:"attributes"`
}

func (s *ProductService) Create(user *models.User, input CreateProductInput) (*models.Product, error) {
	if err := s.quota.CheckProductQuota(user); err != nil {
		return nil, err
	}

	if input.SupplierID != nil {
		if err := s.checkOwned(&models.Supplier{}, *input.SupplierID, user.ID); err != nil {
			return nil, err
		}
	}
	if input.ProductTypeID != nil {
		if err := s.checkOwned(&models.ProductType{}, *input.ProductTypeID, user.ID); err != nil {
			return nil, err
		}
	}

	product := &models.Product{
		UserID:           user.ID,
		BaseName:         input.BaseName,
		Brand:            input.Brand,
		OriginalCategory: input.OriginalCategory,
		SupplierID:       input.SupplierID,
		ProductTypeID:    input.ProductTypeID,
		RawData:          input.RawData,
		Attributes:       input.Attributes,
	}
	if product.RawData == nil {
		product.RawData = models.JSONB{}
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *ProductService) Get(userID uint, isAdmin bool, productID uint) (*models.Product, error) {
	var product models.Product
	err := s.db.Preload("Supplier").Preload("ProductType").First(&product, productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product.UserID != userID && !isAdmin {
		return nil, ErrForbidden
	}
	return &product, nil
}

func (s *ProductService) List(userID uint, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Product{}).Where("user_id = ?", userID)

	if params.Search != "" {
		like := "%" + params.Search + "%"
		query = query.Where("base_name ILIKE ? OR brand ILIKE ?", like, like)
	}
	if params.Category != "" {
		query = query.Where("original_category = ?", params.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.Product
	query = utils.ApplySort(query, params, []string{"created_at", "updated_at", "base_name", "brand"})
	query = utils.ApplyPagination(query, params)
	if err := query.Preload("Supplier").Preload("ProductType").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	result := utils.CreatePaginationResult(products, total, params)
	return &result, nil
}

func (s *ProductService) Update(userID uint, isAdmin bool, productID uint, input UpdateProductInput) (*models.Product, error) {
	product, err := s.Get(userID, isAdmin, productID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.BaseName != nil {
		updates["base_name"] = *input.BaseName
	}
	if input.Brand != nil {
		updates["brand"] = *input.Brand
	}
	if input.OriginalCategory != nil {
		updates["original_category"] = *input.OriginalCategory
	}
	if input.SupplierID != nil {
		if err := s.checkOwned(&models.Supplier{}, *input.SupplierID, product.UserID); err != nil {
			return nil, err
		}
		updates["supplier_id"] = *input.SupplierID
	}
	if input.ProductTypeID != nil {
		if err := s.checkOwned(&models.ProductType{}, *input.ProductTypeID, product.UserID); err != nil {
			return nil, err
		}
		updates["product_type_id"] = *input.ProductTypeID
	}
	if input.RawData != nil {
		// Manual raw-data edits replace the bag wholesale.
		updates["raw_data"] = input.RawData
	}
	if input.Attributes != nil {
		updates["attributes"] = input.Attributes
	}

	if len(updates) > 0 {
		if err := s.db.Model(product).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}
	return product, nil
}

func (s *ProductService) Delete(userID uint, isAdmin bool, productID uint) error {
	product, err := s.Get(userID, isAdmin, productID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(product).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// AddImage appends an uploaded image URL to the product's image list.
func (s *ProductService) AddImage(userID uint, isAdmin bool, productID uint, url string) (*models.Product, error) {
	product, err := s.Get(userID, isAdmin, productID)
	if err != nil {
		return nil, err
	}

	product.Images = append(product.Images, url)
	if err := s.db.Model(product).Update("images", product.Images).Error; err != nil {
		return nil, fmt.Errorf("failed to update product images: %w", err)
	}
	return product, nil
}

// SelectTitle promotes one of the AI-suggested titles to the base name.
func (s *ProductService) SelectTitle(userID uint, isAdmin bool, productID uint, index int) (*models.Product, error) {
	product, err := s.Get(userID, isAdmin, productID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(product.SuggestedTitles) {
		return nil, fmt.Errorf("índice de título inválido: %w", ErrNotFound)
	}

	product.BaseName = product.SuggestedTitles[index]
	if err := s.db.Model(product).Update("base_name", product.BaseName).Error; err != nil {
		return nil, fmt.Errorf("failed to update product title: %w", err)
	}
	return product, nil
}

// checkOwned verifies that a referenced row exists and belongs to the user.
func (s *ProductService) checkOwned(model interface{}, id, userID uint) error {
	var count int64
	err := s.db.Model(model).Where("id = ? AND user_id = ?", id, userID).Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check ownership: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
