// internal/services/quota_service_test.go
package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/catalogo-hub/catalogo-backend/internal/config"
	"github.com/catalogo-hub/catalogo-backend/internal/models"
)

type QuotaServiceTestSuite struct {
	suite.Suite
	db    *gorm.DB
	quota *QuotaService
}

func (suite *QuotaServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	usage := NewUsageService(suite.db)
	suite.quota = NewQuotaService(suite.db, usage, config.QuotaConfig{})
}

func (suite *QuotaServiceTestSuite) TestZeroLimitMeansUnlimited() {
	user := createUser(suite.T(), suite.db, nil)

	for i := 0; i < 25; i++ {
		createUsage(suite.T(), suite.db, user.ID, models.ActionGeracaoTitulo)
	}

	assert.NoError(suite.T(), suite.quota.CheckQuota(user, models.ActionGeracaoTitulo))
	assert.NoError(suite.T(), suite.quota.ReserveCredits(user, 1))
}

func (suite *QuotaServiceTestSuite) TestDeniesExactlyAtLimit() {
	user := createUser(suite.T(), suite.db, func(u *models.User) {
		u.MaxTitulosMes = 2
	})

	createUsage(suite.T(), suite.db, user.ID, models.ActionGeracaoTitulo)
	assert.NoError(suite.T(), suite.quota.CheckQuota(user, models.ActionGeracaoTitulo))

	createUsage(suite.T(), suite.db, user.ID, models.ActionGeracaoTitulo)
	err := suite.quota.CheckQuota(user, models.ActionGeracaoTitulo)
	require.Error(suite.T(), err)
	assert.True(suite.T(), errors.Is(err, ErrQuotaExceeded))

	var quotaErr *QuotaError
	require.True(suite.T(), errors.As(err, &quotaErr))
	assert.Equal(suite.T(), 2, quotaErr.Limit)
	assert.Equal(suite.T(), int64(2), quotaErr.Used)
}

func (suite *QuotaServiceTestSuite) TestCategoriesAreIndependent() {
	user := createUser(suite.T(), suite.db, func(u *models.User) {
		u.MaxTitulosMes = 1
	})

	createUsage(suite.T(), suite.db, user.ID, models.ActionGeracaoTitulo)

	assert.Error(suite.T(), suite.quota.CheckQuota(user, models.ActionGeracaoTitulo))
	assert.NoError(suite.T(), suite.quota.CheckQuota(user, models.ActionGeracaoDescricao))
}

func (suite *QuotaServiceTestSuite) TestPlanLimitAppliesWithoutOverride() {
	plan := &models.Plan{Name: "basico", MaxDescricoesMes: 1, Active: true}
	require.NoError(suite.T(), suite.db.Create(plan).Error)

	user := createUser(suite.T(), suite.db, func(u *models.User) {
		u.PlanID = &plan.ID
	})

	assert.NoError(suite.T(), suite.quota.CheckQuota(user, models.ActionGeracaoDescricao))
	createUsage(suite.T(), suite.db, user.ID, models.ActionGeracaoDescricao)
	assert.Error(suite.T(), suite.quota.CheckQuota(user, models.ActionGeracaoDescricao))
}

func (suite *QuotaServiceTestSuite) TestUserOverrideWinsOverPlan() {
	plan := &models.Plan{Name: "basico", MaxTitulosMes: 1, Active: true}
	require.NoError(suite.T(), suite.db.Create(plan).Error)

	user := createUser(suite.T(), suite.db, func(u *models.User) {
		u.PlanID = &plan.ID
		u.MaxTitulosMes = 5
	})

	createUsage(suite.T(), suite.db, user.ID, models.ActionGeracaoTitulo)
	assert.NoError(suite.T(), suite.quota.CheckQuota(user, models.ActionGeracaoTitulo))
}

func (suite *QuotaServiceTestSuite) TestCreditPoolCountsAllActions() {
	user := createUser(suite.T(), suite.db, func(u *models.User) {
		u.LimiteGeracaoIA = 3
	})

	createUsage(suite.T(), suite.db, user.ID, models.ActionGeracaoTitulo)
	createUsage(suite.T(), suite.db, user.ID, models.ActionEnriquecimentoWeb)
	assert.NoError(suite.T(), suite.quota.ReserveCredits(user, 1))

	createUsage(suite.T(), suite.db, user.ID, models.ActionGeracaoDescricao)
	err := suite.quota.ReserveCredits(user, 1)
	require.Error(suite.T(), err)
	assert.True(suite.T(), errors.Is(err, ErrQuotaExceeded))
}

func (suite *QuotaServiceTestSuite) TestUsageFromPreviousMonthIgnored() {
	user := createUser(suite.T(), suite.db, func(u *models.User) {
		u.MaxTitulosMes = 1
	})

	old := &models.UsageRecord{
		UserID:   user.ID,
		Action:   models.ActionGeracaoTitulo,
		Provider: "openai",
	}
	require.NoError(suite.T(), suite.db.Create(old).Error)
	lastMonth := MonthStartUTC(time.Now()).Add(-time.Hour)
	require.NoError(suite.T(), suite.db.Model(old).Update("created_at", lastMonth).Error)

	assert.NoError(suite.T(), suite.quota.CheckQuota(user, models.ActionGeracaoTitulo))
}

func (suite *QuotaServiceTestSuite) TestProductQuotaCountsRows() {
	user := createUser(suite.T(), suite.db, func(u *models.User) {
		u.MaxProdutosMes = 1
	})

	assert.NoError(suite.T(), suite.quota.CheckProductQuota(user))
	createProduct(suite.T(), suite.db, user.ID, nil)

	err := suite.quota.CheckProductQuota(user)
	require.Error(suite.T(), err)
	assert.True(suite.T(), errors.Is(err, ErrQuotaExceeded))
}

func TestQuotaServiceTestSuite(t *testing.T) {
	suite.Run(t, new(QuotaServiceTestSuite))
}
