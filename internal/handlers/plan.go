// internal/handlers/plan.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/catalogo-hub/catalogo-backend/internal/services"
	"github.com/catalogo-hub/catalogo-backend/internal/utils"
)

// PlanHandler is the admin surface for plans and user quota overrides.
type PlanHandler struct {
	planService *services.PlanService
}

func NewPlanHandler(planService *services.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// GET /plans
func (h *PlanHandler) ListPlans(c *gin.Context) {
	plans, err := h.planService.List()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"plans": plans})
}

// POST /admin/plans
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var input services.PlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	plan, err := h.planService.Create(input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{"plan": plan})
}

// PUT /admin/plans/:id
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input services.PlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	plan, err := h.planService.Update(planID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"plan": plan})
}

// PUT /admin/users/:id/plan
func (h *PlanHandler) AssignPlan(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input struct {
		PlanID *uint `json:"plan_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	user, err := h.planService.AssignPlan(userID, input.PlanID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"user": user})
}

// PUT /admin/users/:id/limits
func (h *PlanHandler) SetUserLimits(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input services.UserLimitsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	user, err := h.planService.SetUserLimits(userID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"user": user})
}
