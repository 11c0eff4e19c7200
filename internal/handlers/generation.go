// internal/handlers/generation.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/catalogo-hub/catalogo-backend/internal/models"
	"github.com/catalogo-hub/catalogo-backend/internal/services"
	"github.com/catalogo-hub/catalogo-backend/internal/tasks"
	"github.com/catalogo-hub/catalogo-backend/internal/utils"
)

type GenerationHandler struct {
	generationService *services.GenerationService
	runner            *tasks.Runner
}

func NewGenerationHandler(generationService *services.GenerationService, runner *tasks.Runner) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
		runner:            runner,
	}
}

// POST /products/:id/generation/titles
func (h *GenerationHandler) GenerateTitles(c *gin.Context) {
	h.schedule(c, models.GenerationKindTitle)
}

// POST /products/:id/generation/description
func (h *GenerationHandler) GenerateDescription(c *gin.Context) {
	h.schedule(c, models.GenerationKindDescription)
}

// schedule runs the synchronous gate (access, quota, state transition) and
// fires the background generation. A quota denial comes back 403 with the
// product already marked LIMITE_ATINGIDO and no task scheduled.
func (h *GenerationHandler) schedule(c *gin.Context, kind models.GenerationKind) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.generationService.Prepare(userID, utils.IsAdminFromContext(c), productID, kind)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	ownerID := product.UserID
	taskID := h.runner.Go("generation_"+string(kind), func(ctx context.Context) {
		h.generationService.Run(ctx, productID, ownerID, kind)
	})

	utils.AcceptedResponse(c, gin.H{
		"task_id":    taskID,
		"product_id": productID,
		"kind":       kind,
		"status":     models.GenerationEmProgresso,
	})
}
