// internal/services/supplier_service.go
package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/catalogo-hub/catalogo-backend/internal/models"
	"github.com/catalogo-hub/catalogo-backend/internal/utils"
)

type SupplierService struct {
	db *gorm.DB
}

func NewSupplierService(db *gorm.DB) *SupplierService {
	return &SupplierService{db: db}
}

type SupplierInput struct {
	Name    string `json:"name" binding:"required,max=255"`
	SiteURL string `json:"site_url" binding:"omitempty,max=512"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone" binding:"omitempty,max=50"`
	Notes   string `json:"notes"`
}

func (s *SupplierService) Create(userID uint, input SupplierInput) (*models.Supplier, error) {
	supplier := &models.Supplier{
		UserID:  userID,
		Name:    input.Name,
		SiteURL: input.SiteURL,
		Email:   input.Email,
		Phone:   input.Phone,
		Notes:   input.Notes,
	}
	if err := s.db.Create(supplier).Error; err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return supplier, nil
}

func (s *SupplierService) Get(userID, supplierID uint) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := s.db.First(&supplier, supplierID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load supplier: %w", err)
	}
	if supplier.UserID != userID {
		return nil, ErrForbidden
	}
	return &supplier, nil
}

func (s *SupplierService) List(userID uint, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Supplier{}).Where("user_id = ?", userID)
	if params.Search != "" {
		query = query.Where("name ILIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count suppliers: %w", err)
	}

	var suppliers []models.Supplier
	query = utils.ApplySort(query, params, []string{"created_at", "name"})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&suppliers).Error; err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}

	result := utils.CreatePaginationResult(suppliers, total, params)
	return &result, nil
}

func (s *SupplierService) Update(userID, supplierID uint, input SupplierInput) (*models.Supplier, error) {
	supplier, err := s.Get(userID, supplierID)
	if err != nil {
		return nil, err
	}

	supplier.Name = input.Name
	supplier.SiteURL = input.SiteURL
	supplier.Email = input.Email
	supplier.Phone = input.Phone
	supplier.Notes = input.Notes

	if err := s.db.Save(supplier).Error; err != nil {
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}
	return supplier, nil
}

func (s *SupplierService) Delete(userID, supplierID uint) error {
	supplier, err := s.Get(userID, supplierID)
	if err != nil {
		return err
	}

	// Products keep existing; they just lose the supplier link.
	err = s.db.Model(&models.Product{}).
		Where("supplier_id = ?", supplier.ID).
		Update("supplier_id", nil).Error
	if err != nil {
		return fmt.Errorf("failed to unlink products: %w", err)
	}

	if err := s.db.Delete(supplier).Error; err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	return nil
}
