// internal/handlers/supplier.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/catalogo-hub/catalogo-backend/internal/services"
	"github.com/catalogo-hub/catalogo-backend/internal/utils"
)

type SupplierHandler struct {
	supplierService *services.SupplierService
}

func NewSupplierHandler(supplierService *services.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService}
}

// POST /suppliers
func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input services.SupplierInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	supplier, err := h.supplierService.Create(userID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{"supplier": supplier})
}

// GET /suppliers
func (h *SupplierHandler) ListSuppliers(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.supplierService.List(userID, utils.GetPaginationParams(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.PaginatedResponse(c, *result)
}

// GET /suppliers/:id
func (h *SupplierHandler) GetSupplier(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	supplierID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	supplier, err := h.supplierService.Get(userID, supplierID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"supplier": supplier})
}

// PUT /suppliers/:id
func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	supplierID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input services.SupplierInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	supplier, err := h.supplierService.Update(userID, supplierID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"supplier": supplier})
}

// DELETE /suppliers/:id
func (h *SupplierHandler) DeleteSupplier(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	supplierID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.supplierService.Delete(userID, supplierID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"deleted": true})
}
