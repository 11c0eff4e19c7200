// internal/services/helpers_test.go
package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/catalogo-hub/catalogo-backend/internal/config"
	"github.com/catalogo-hub/catalogo-backend/internal/models"
	"github.com/catalogo-hub/catalogo-backend/internal/providers"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:test_%s?mode=memory&cache=shared", uuid.NewString()[:8])
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Plan{},
		&models.User{},
		&models.Supplier{},
		&models.ProductType{},
		&models.Product{},
		&models.UsageRecord{},
	))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		AI: config.AIConfig{
			OpenAIKey:            "sk-test",
			Model:                "gpt-4o-mini",
			TitleCount:           3,
			TitleMaxTokens:       60,
			DescriptionMaxTokens: 800,
			ExtractionMaxTokens:  1500,
		},
	}
}

func createUser(t *testing.T, db *gorm.DB, mutate func(*models.User)) *models.User {
	t.Helper()

	user := &models.User{
		Username: "user_" + uuid.NewString()[:8],
		Email:    uuid.NewString()[:8] + "@example.com",
	}
	require.NoError(t, user.SetPassword("senha-forte-123"))
	if mutate != nil {
		mutate(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createProduct(t *testing.T, db *gorm.DB, userID uint, mutate func(*models.Product)) *models.Product {
	t.Helper()

	product := &models.Product{
		UserID:   userID,
		BaseName: "Furadeira de Impacto 750W",
		Brand:    "Makita",
		RawData:  models.JSONB{},
	}
	if mutate != nil {
		mutate(product)
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func createUsage(t *testing.T, db *gorm.DB, userID uint, action models.ActionType) {
	t.Helper()
	require.NoError(t, db.Create(&models.UsageRecord{
		UserID:   userID,
		Action:   action,
		Provider: "openai",
		Model:    "gpt-4o-mini",
	}).Error)
}

// Provider stubs

type stubSearcher struct {
	urls []string
	err  error
}

func (s *stubSearcher) Search(_ context.Context, _ string, _ int) ([]string, error) {
	return s.urls, s.err
}

type stubRenderer struct {
	pages map[string]string
}

func (s *stubRenderer) Render(_ context.Context, pageURL string) (string, error) {
	html, ok := s.pages[pageURL]
	if !ok {
		return "", errors.New("render failed")
	}
	return html, nil
}

// cancellingRenderer cancels the run's context before failing, the way a
// task deadline firing during a slow page render does.
type cancellingRenderer struct {
	cancel context.CancelFunc
}

func (r *cancellingRenderer) Render(_ context.Context, _ string) (string, error) {
	r.cancel()
	return "", errors.New("context deadline exceeded")
}

// cancellingCompleter does the same for a hung LLM call.
type cancellingCompleter struct {
	cancel context.CancelFunc
}

func (c *cancellingCompleter) Complete(_ context.Context, _ providers.CompletionRequest) (providers.CompletionResult, error) {
	c.cancel()
	return providers.CompletionResult{}, providers.ErrExternal
}

type stubCompleter struct {
	result   providers.CompletionResult
	err      error
	requests []providers.CompletionRequest
}

func (s *stubCompleter) Complete(_ context.Context, req providers.CompletionRequest) (providers.CompletionResult, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return providers.CompletionResult{}, s.err
	}
	return s.result, nil
}
