// internal/handlers/generation_test.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/catalogo-hub/catalogo-backend/internal/config"
	"github.com/catalogo-hub/catalogo-backend/internal/models"
	"github.com/catalogo-hub/catalogo-backend/internal/providers"
	"github.com/catalogo-hub/catalogo-backend/internal/services"
	"github.com/catalogo-hub/catalogo-backend/internal/tasks"
)

type fakeCompleter struct {
	result providers.CompletionResult
	err    error
}

func (f *fakeCompleter) Complete(_ context.Context, _ providers.CompletionRequest) (providers.CompletionResult, error) {
	if f.err != nil {
		return providers.CompletionResult{}, f.err
	}
	return f.result, nil
}

type GenerationHandlerTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	runner *tasks.Runner
	user   *models.User
}

func (suite *GenerationHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler_%s?mode=memory&cache=shared", uuid.NewString()[:8])
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), db.AutoMigrate(
		&models.Plan{}, &models.User{}, &models.Supplier{}, &models.ProductType{},
		&models.Product{}, &models.UsageRecord{},
	))
	suite.db = db

	suite.user = &models.User{
		Username:      "handler_user",
		Email:         "handler@example.com",
		MaxTitulosMes: 1,
	}
	require.NoError(suite.T(), suite.user.SetPassword("senha-forte-123"))
	require.NoError(suite.T(), db.Create(suite.user).Error)

	cfg := &config.Config{
		AI: config.AIConfig{
			OpenAIKey:  "sk-test",
			Model:      "gpt-4o-mini",
			TitleCount: 3,
		},
	}

	usage := services.NewUsageService(db)
	quota := services.NewQuotaService(db, usage, config.QuotaConfig{})
	llm := &fakeCompleter{result: providers.CompletionResult{
		Choices: []string{"Furadeira de Impacto Makita HP1630 750W"},
	}}
	generation := services.NewGenerationService(db, cfg, llm, usage, quota)

	suite.runner = tasks.NewRunner(time.Second)
	handler := NewGenerationHandler(generation, suite.runner)

	suite.router = gin.New()
	authenticated := func(c *gin.Context) {
		c.Set("user_id", suite.user.ID)
		c.Set("is_admin", false)
	}
	suite.router.POST("/v1/products/:id/generation/titles", authenticated, handler.GenerateTitles)
	suite.router.POST("/v1/products/:id/generation/description", authenticated, handler.GenerateDescription)
}

func (suite *GenerationHandlerTestSuite) schedule(path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *GenerationHandlerTestSuite) TestScheduleTitlesAccepted() {
	product := &models.Product{UserID: suite.user.ID, BaseName: "Furadeira", RawData: models.JSONB{}}
	require.NoError(suite.T(), suite.db.Create(product).Error)

	w := suite.schedule(fmt.Sprintf("/v1/products/%d/generation/titles", product.ID))
	assert.Equal(suite.T(), http.StatusAccepted, w.Code)

	var response map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(suite.T(), response["success"].(bool))

	data := response["data"].(map[string]interface{})
	assert.NotEmpty(suite.T(), data["task_id"])

	suite.runner.Wait()

	var reloaded models.Product
	require.NoError(suite.T(), suite.db.First(&reloaded, product.ID).Error)
	assert.Equal(suite.T(), models.GenerationConcluidoSucesso, reloaded.StatusTitleAI)
	assert.NotEmpty(suite.T(), reloaded.SuggestedTitles)
}

func (suite *GenerationHandlerTestSuite) TestScheduleQuotaDenied() {
	product := &models.Product{UserID: suite.user.ID, BaseName: "Furadeira", RawData: models.JSONB{}}
	require.NoError(suite.T(), suite.db.Create(product).Error)

	// burn the single monthly title credit
	require.NoError(suite.T(), suite.db.Create(&models.UsageRecord{
		UserID: suite.user.ID,
		Action: models.ActionGeracaoTitulo,
	}).Error)

	w := suite.schedule(fmt.Sprintf("/v1/products/%d/generation/titles", product.ID))
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	var response map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response))
	errBody := response["error"].(map[string]interface{})
	assert.Equal(suite.T(), "QUOTA_EXCEEDED", errBody["code"])

	suite.runner.Wait()

	var reloaded models.Product
	require.NoError(suite.T(), suite.db.First(&reloaded, product.ID).Error)
	assert.Equal(suite.T(), models.GenerationLimiteAtingido, reloaded.StatusTitleAI)
}

func (suite *GenerationHandlerTestSuite) TestScheduleUnknownProduct() {
	w := suite.schedule("/v1/products/424242/generation/description")
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *GenerationHandlerTestSuite) TestScheduleConflict() {
	product := &models.Product{
		UserID:        suite.user.ID,
		BaseName:      "Furadeira",
		RawData:       models.JSONB{},
		StatusTitleAI: models.GenerationEmProgresso,
	}
	require.NoError(suite.T(), suite.db.Create(product).Error)

	w := suite.schedule(fmt.Sprintf("/v1/products/%d/generation/titles", product.ID))
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

func TestGenerationHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(GenerationHandlerTestSuite))
}
