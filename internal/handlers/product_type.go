// internal/handlers/product_type.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/catalogo-hub/catalogo-backend/internal/services"
	"github.com/catalogo-hub/catalogo-backend/internal/utils"
)

type ProductTypeHandler struct {
	productTypeService *services.ProductTypeService
}

func NewProductTypeHandler(productTypeService *services.ProductTypeService) *ProductTypeHandler {
	return &ProductTypeHandler{productTypeService: productTypeService}
}

// POST /product-types
func (h *ProductTypeHandler) CreateProductType(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input services.ProductTypeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	productType, err := h.productTypeService.Create(userID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{"product_type": productType})
}

// GET /product-types
func (h *ProductTypeHandler) ListProductTypes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.productTypeService.List(userID, utils.GetPaginationParams(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.PaginatedResponse(c, *result)
}

// GET /product-types/:id
func (h *ProductTypeHandler) GetProductType(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	typeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	productType, err := h.productTypeService.Get(userID, typeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"product_type": productType})
}

// PUT /product-types/:id
func (h *ProductTypeHandler) UpdateProductType(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	typeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input services.ProductTypeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	productType, err := h.productTypeService.Update(userID, typeID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"product_type": productType})
}

// DELETE /product-types/:id
func (h *ProductTypeHandler) DeleteProductType(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	typeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.productTypeService.Delete(userID, typeID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"deleted": true})
}
