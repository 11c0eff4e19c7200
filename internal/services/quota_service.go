// internal/services/quota_service.go
package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/catalogo-hub/catalogo-backend/internal/config"
	"github.com/catalogo-hub/catalogo-backend/internal/models"
)

// QuotaService decides whether a user may run a paid AI operation this
// month. Two independent mechanisms coexist and both must admit a
// generation: the per-category plan limit (CheckQuota) and the unified AI
// credit pool (ReserveCredits).
//
// The check is intentionally not transactional with the subsequent AI call;
// a burst of concurrent requests can all pass and all proceed.
type QuotaService struct {
	db       *gorm.DB
	usage    *UsageService
	defaults config.QuotaConfig
}

func NewQuotaService(db *gorm.DB, usage *UsageService, defaults config.QuotaConfig) *QuotaService {
	return &QuotaService{db: db, usage: usage, defaults: defaults}
}

// QuotaError carries the numbers embedded in the user-facing message.
type QuotaError struct {
	Category models.ActionType
	Limit    int
	Used     int64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("limite mensal atingido para %s: %d de %d utilizados",
		e.Category, e.Used, e.Limit)
}

func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// CheckQuota allows or denies one more operation of the given category.
// Effective limit resolution: per-user override if nonzero, else the plan
// limit, else the system default. A resolved limit of zero means unlimited.
func (s *QuotaService) CheckQuota(user *models.User, category models.ActionType) error {
	limit, err := s.effectiveLimit(user, category)
	if err != nil {
		return err
	}
	if limit <= 0 {
		return nil
	}

	used, err := s.usage.CountSince(user.ID, category, MonthStartUTC(time.Now()))
	if err != nil {
		return err
	}

	if used >= int64(limit) {
		return &QuotaError{Category: category, Limit: limit, Used: used}
	}
	return nil
}

// ReserveCredits checks the unified AI credit pool: all AI usage this month
// plus the requested amount must fit within limite_geracao_ia. Zero or
// unset means unlimited.
func (s *QuotaService) ReserveCredits(user *models.User, requested int) error {
	limit, err := s.creditLimit(user)
	if err != nil {
		return err
	}
	if limit <= 0 {
		return nil
	}

	used, err := s.usage.CountAllSince(user.ID, MonthStartUTC(time.Now()))
	if err != nil {
		return err
	}

	if used+int64(requested) > int64(limit) {
		return &QuotaError{Category: "creditos_ia", Limit: limit, Used: used}
	}
	return nil
}

// CheckProductQuota gates product creation against the monthly product
// limit. Unlike AI quotas this counts product rows, not ledger entries.
func (s *QuotaService) CheckProductQuota(user *models.User) error {
	limit, err := s.resolve(user, func(u *models.User) int { return u.MaxProdutosMes },
		func(p *models.Plan) int { return p.MaxProdutosMes }, s.defaults.DefaultMaxProdutosMes)
	if err != nil {
		return err
	}
	if limit <= 0 {
		return nil
	}

	var count int64
	err = s.db.Model(&models.Product{}).
		Where("user_id = ? AND created_at >= ?", user.ID, MonthStartUTC(time.Now())).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}

	if count >= int64(limit) {
		return &QuotaError{Category: "cadastro_produto", Limit: limit, Used: count}
	}
	return nil
}

func (s *QuotaService) effectiveLimit(user *models.User, category models.ActionType) (int, error) {
	switch category {
	case models.ActionGeracaoTitulo:
		return s.resolve(user, func(u *models.User) int { return u.MaxTitulosMes },
			func(p *models.Plan) int { return p.MaxTitulosMes }, s.defaults.DefaultMaxTitulosMes)
	case models.ActionGeracaoDescricao:
		return s.resolve(user, func(u *models.User) int { return u.MaxDescricoesMes },
			func(p *models.Plan) int { return p.MaxDescricoesMes }, s.defaults.DefaultMaxDescricoesMes)
	case models.ActionEnriquecimentoWeb:
		return s.resolve(user, func(u *models.User) int { return u.MaxEnriquecimentosMes },
			func(p *models.Plan) int { return p.MaxEnriquecimentosMes }, s.defaults.DefaultMaxEnriquecimentosMes)
	default:
		// Uncategorized AI actions are only gated by the credit pool.
		return 0, nil
	}
}

func (s *QuotaService) creditLimit(user *models.User) (int, error) {
	return s.resolve(user, func(u *models.User) int { return u.LimiteGeracaoIA },
		func(p *models.Plan) int { return p.LimiteGeracaoIA }, s.defaults.DefaultLimiteGeracaoIA)
}

func (s *QuotaService) resolve(user *models.User, fromUser func(*models.User) int, fromPlan func(*models.Plan) int, systemDefault int) (int, error) {
	if v := fromUser(user); v > 0 {
		return v, nil
	}

	plan, err := s.loadPlan(user)
	if err != nil {
		return 0, err
	}
	if plan != nil {
		if v := fromPlan(plan); v > 0 {
			return v, nil
		}
		// An assigned plan with a zero limit means unlimited for that
		// category; the system default does not re-apply.
		return 0, nil
	}

	return systemDefault, nil
}

func (s *QuotaService) loadPlan(user *models.User) (*models.Plan, error) {
	if user.Plan != nil {
		return user.Plan, nil
	}
	if user.PlanID == nil {
		return nil, nil
	}

	var plan models.Plan
	if err := s.db.First(&plan, *user.PlanID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	user.Plan = &plan
	return &plan, nil
}
