// internal/router/router.go
package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/catalogo-hub/catalogo-backend/internal/config"
	"github.com/catalogo-hub/catalogo-backend/internal/handlers"
	"github.com/catalogo-hub/catalogo-backend/internal/middleware"
	"github.com/catalogo-hub/catalogo-backend/internal/providers"
	"github.com/catalogo-hub/catalogo-backend/internal/services"
	"github.com/catalogo-hub/catalogo-backend/internal/tasks"
)

func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, *tasks.Runner, error) {
	// Provider adapters
	searchClient := providers.NewSearchClient(cfg.Search)
	pageFetcher := providers.NewPageFetcher(cfg.Browser)
	openAIClient := providers.NewOpenAIClient(cfg.AI.Model)

	// Services
	usageService := services.NewUsageService(db)
	quotaService := services.NewQuotaService(db, usageService, cfg.Quota)
	authService := services.NewAuthService(db, cfg)
	productService := services.NewProductService(db, quotaService)
	supplierService := services.NewSupplierService(db)
	productTypeService := services.NewProductTypeService(db)
	planService := services.NewPlanService(db)
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage service: %w", err)
	}
	enrichmentService := services.NewEnrichmentService(db, cfg, searchClient, pageFetcher, openAIClient, usageService)
	generationService := services.NewGenerationService(db, cfg, openAIClient, usageService, quotaService)

	runner := tasks.NewRunner(15 * time.Minute)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, storageService, authService)
	supplierHandler := handlers.NewSupplierHandler(supplierService)
	productTypeHandler := handlers.NewProductTypeHandler(productTypeService)
	planHandler := handlers.NewPlanHandler(planService)
	usageHandler := handlers.NewUsageHandler(usageService)
	enrichmentHandler := handlers.NewEnrichmentHandler(productService, authService, quotaService, enrichmentService, runner)
	generationHandler := handlers.NewGenerationHandler(generationService, runner)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	authRequired := middleware.AuthRequired(cfg.JWT.SecretKey)

	v1 := r.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", authRequired, authHandler.GetProfile)
			auth.PUT("/me", authRequired, authHandler.UpdateProfile)
		}

		products := v1.Group("/products")
		products.Use(authRequired)
		{
			products.POST("", productHandler.CreateProduct)
			products.GET("", productHandler.ListProducts)
			products.GET("/:id", productHandler.GetProduct)
			products.PUT("/:id", productHandler.UpdateProduct)
			products.DELETE("/:id", productHandler.DeleteProduct)
			products.POST("/:id/images", middleware.UploadRateLimit(), productHandler.UploadImage)
			products.POST("/:id/select-title", productHandler.SelectTitle)

			// Background AI tasks
			products.POST("/:id/enrichment", middleware.AIRateLimit(), enrichmentHandler.ScheduleEnrichment)
			products.GET("/:id/enrichment", enrichmentHandler.GetEnrichmentStatus)
			products.POST("/:id/generation/titles", middleware.AIRateLimit(), generationHandler.GenerateTitles)
			products.POST("/:id/generation/description", middleware.AIRateLimit(), generationHandler.GenerateDescription)
		}

		suppliers := v1.Group("/suppliers")
		suppliers.Use(authRequired)
		{
			suppliers.POST("", supplierHandler.CreateSupplier)
			suppliers.GET("", supplierHandler.ListSuppliers)
			suppliers.GET("/:id", supplierHandler.GetSupplier)
			suppliers.PUT("/:id", supplierHandler.UpdateSupplier)
			suppliers.DELETE("/:id", supplierHandler.DeleteSupplier)
		}

		productTypes := v1.Group("/product-types")
		productTypes.Use(authRequired)
		{
			productTypes.POST("", productTypeHandler.CreateProductType)
			productTypes.GET("", productTypeHandler.ListProductTypes)
			productTypes.GET("/:id", productTypeHandler.GetProductType)
			productTypes.PUT("/:id", productTypeHandler.UpdateProductType)
			productTypes.DELETE("/:id", productTypeHandler.DeleteProductType)
		}

		v1.GET("/plans", authRequired, planHandler.ListPlans)
		v1.GET("/usage", authRequired, usageHandler.ListUsage)

		admin := v1.Group("/admin")
		admin.Use(authRequired, middleware.AdminRequired())
		{
			admin.POST("/plans", planHandler.CreatePlan)
			admin.PUT("/plans/:id", planHandler.UpdatePlan)
			admin.PUT("/users/:id/plan", planHandler.AssignPlan)
			admin.PUT("/users/:id/limits", planHandler.SetUserLimits)
		}
	}

	return r, runner, nil
}
