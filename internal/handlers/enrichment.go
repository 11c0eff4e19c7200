// internal/handlers/enrichment.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/catalogo-hub/catalogo-backend/internal/models"
	"github.com/catalogo-hub/catalogo-backend/internal/services"
	"github.com/catalogo-hub/catalogo-backend/internal/tasks"
	"github.com/catalogo-hub/catalogo-backend/internal/utils"
)

type EnrichmentHandler struct {
	productService    *services.ProductService
	authService       *services.AuthService
	quotaService      *services.QuotaService
	enrichmentService *services.EnrichmentService
	runner            *tasks.Runner
}

func NewEnrichmentHandler(productService *services.ProductService, authService *services.AuthService, quotaService *services.QuotaService, enrichmentService *services.EnrichmentService, runner *tasks.Runner) *EnrichmentHandler {
	return &EnrichmentHandler{
		productService:    productService,
		authService:       authService,
		quotaService:      quotaService,
		enrichmentService: enrichmentService,
		runner:            runner,
	}
}

type scheduleEnrichmentInput struct {
	// Optional full replacement for the generated search query.
	Query string `json:"query" binding:"omitempty,max=500"`
}

// POST /products/:id/enrichment
//
// Validates access and quota synchronously, transitions the product to
// EM_PROGRESSO and schedules the background run. Responds 202 with the
// task id; the client polls the product for status and log.
//
// A run killed before it can persist a terminal status leaves the product
// in EM_PROGRESSO and further schedules answer 409; there is no watchdog,
// the status has to be cleared manually.
func (h *EnrichmentHandler) ScheduleEnrichment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input scheduleEnrichmentInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.BadRequestResponse(c, "", err.Error())
			return
		}
	}

	product, err := h.productService.Get(userID, utils.IsAdminFromContext(c), productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	owner, err := h.authService.GetProfile(product.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if err := h.quotaService.CheckQuota(owner, models.ActionEnriquecimentoWeb); err != nil {
		respondServiceError(c, err)
		return
	}
	if err := h.quotaService.ReserveCredits(owner, 1); err != nil {
		respondServiceError(c, err)
		return
	}

	if err := h.enrichmentService.Start(productID); err != nil {
		respondServiceError(c, err)
		return
	}

	ownerID := owner.ID
	query := input.Query
	taskID := h.runner.Go("enrichment", func(ctx context.Context) {
		h.enrichmentService.Run(ctx, productID, ownerID, query)
	})

	utils.AcceptedResponse(c, gin.H{
		"task_id":    taskID,
		"product_id": productID,
		"status":     models.EnrichmentEmProgresso,
	})
}

// GET /products/:id/enrichment
//
// Polling endpoint: current status plus the run log.
func (h *EnrichmentHandler) GetEnrichmentStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.Get(userID, utils.IsAdminFromContext(c), productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product_id":     product.ID,
		"status":         product.StatusEnrichmentWeb,
		"enrichment_log": product.EnrichmentLog,
		"raw_data":       product.RawData,
	})
}
