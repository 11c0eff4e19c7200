// internal/services/plan_service.go
package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/catalogo-hub/catalogo-backend/internal/models"
)

// PlanService is the admin surface for subscription plans and per-user
// quota overrides.
type PlanService struct {
	db *gorm.DB
}

func NewPlanService(db *gorm.DB) *PlanService {
	return &PlanService{db: db}
}

type PlanInput struct {
	Name                  string `json:"name" binding:"required,max=100"`
	Description           string `json:"description"`
	MaxProdutosMes        int    `json:"max_produtos_mes" binding:"min=0"`
	MaxEnriquecimentosMes int    `json:"max_enriquecimentos_mes" binding:"min=0"`
	MaxTitulosMes         int    `json:"max_titulos_mes" binding:"min=0"`
	MaxDescricoesMes      int    `json:"max_descricoes_mes" binding:"min=0"`
	LimiteGeracaoIA       int    `json:"limite_geracao_ia" binding:"min=0"`
	Active                *bool  `json:"active"`
}

func (s *PlanService) Create(input PlanInput) (*models.Plan, error) {
	plan := &models.Plan{
		Name:                  input.Name,
		Description:           input.Description,
		MaxProdutosMes:        input.MaxProdutosMes,
		MaxEnriquecimentosMes: input.MaxEnriquecimentosMes,
		MaxTitulosMes:         input.MaxTitulosMes,
		MaxDescricoesMes:      input.MaxDescricoesMes,
		LimiteGeracaoIA:       input.LimiteGeracaoIA,
		Active:                true,
	}
	if input.Active != nil {
		plan.Active = *input.Active
	}

	if err := s.db.Create(plan).Error; err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	return plan, nil
}

func (s *PlanService) Get(planID uint) (*models.Plan, error) {
	var plan models.Plan
	if err := s.db.First(&plan, planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	return &plan, nil
}

func (s *PlanService) List() ([]models.Plan, error) {
	var plans []models.Plan
	if err := s.db.Order("created_at ASC").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

func (s *PlanService) Update(planID uint, input PlanInput) (*models.Plan, error) {
	plan, err := s.Get(planID)
	if err != nil {
		return nil, err
	}

	plan.Name = input.Name
	plan.Description = input.Description
	plan.MaxProdutosMes = input.MaxProdutosMes
	plan.MaxEnriquecimentosMes = input.MaxEnriquecimentosMes
	plan.MaxTitulosMes = input.MaxTitulosMes
	plan.MaxDescricoesMes = input.MaxDescricoesMes
	plan.LimiteGeracaoIA = input.LimiteGeracaoIA
	if input.Active != nil {
		plan.Active = *input.Active
	}

	if err := s.db.Save(plan).Error; err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	return plan, nil
}

// AssignPlan moves a user onto a plan; a nil planID detaches the user and
// system defaults take over.
func (s *PlanService) AssignPlan(userID uint, planID *uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if planID != nil {
		if _, err := s.Get(*planID); err != nil {
			return nil, err
		}
	}

	if err := s.db.Model(&user).Update("plan_id", planID).Error; err != nil {
		return nil, fmt.Errorf("failed to assign plan: %w", err)
	}
	user.PlanID = planID
	user.Plan = nil
	return &user, nil
}

type UserLimitsInput struct {
	MaxTitulosMes         *int `json:"max_titulos_mes" binding:"omitempty,min=0"`
	MaxDescricoesMes      *int `json:"max_descricoes_mes" binding:"omitempty,min=0"`
	MaxEnriquecimentosMes *int `json:"max_enriquecimentos_mes" binding:"omitempty,min=0"`
	MaxProdutosMes        *int `json:"max_produtos_mes" binding:"omitempty,min=0"`
	LimiteGeracaoIA       *int `json:"limite_geracao_ia" binding:"omitempty,min=0"`
}

// SetUserLimits writes per-user overrides. A zero clears the override so
// the plan limit applies again.
func (s *PlanService) SetUserLimits(userID uint, input UserLimitsInput) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	updates := map[string]interface{}{}
	if input.MaxTitulosMes != nil {
		updates["max_titulos_mes"] = *input.MaxTitulosMes
	}
	if input.MaxDescricoesMes != nil {
		updates["max_descricoes_mes"] = *input.MaxDescricoesMes
	}
	if input.MaxEnriquecimentosMes != nil {
		updates["max_enriquecimentos_mes"] = *input.MaxEnriquecimentosMes
	}
	if input.MaxProdutosMes != nil {
		updates["max_produtos_mes"] = *input.MaxProdutosMes
	}
	if input.LimiteGeracaoIA != nil {
		updates["limite_geracao_ia"] = *input.LimiteGeracaoIA
	}

	if len(updates) > 0 {
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update user limits: %w", err)
		}
	}
	return &user, nil
}
