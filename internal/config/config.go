// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	AI          AIConfig
	Search      SearchConfig
	Browser     BrowserConfig
	AWS         AWSConfig
	Quota       QuotaConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL int // in hours
}

// AIConfig configures the system-wide OpenAI access. Users may override the
// key with a personal one stored on their account.
type AIConfig struct {
	OpenAIKey            string
	Model                string
	TitleCount           int
	TitleMaxTokens       int
	DescriptionMaxTokens int
	ExtractionMaxTokens  int
}

// SearchConfig configures the Serper web-search provider.
type SearchConfig struct {
	APIKey   string
	Endpoint string
}

// BrowserConfig configures the headless render service (Browserless-style
// /content API). When RenderURL is empty pages are fetched statically.
type BrowserConfig struct {
	RenderURL      string
	Token          string
	TimeoutSeconds int
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

// QuotaConfig holds system-default monthly limits, used when neither the
// user nor their plan defines one. Zero means unlimited.
type QuotaConfig struct {
	DefaultMaxTitulosMes         int
	DefaultMaxDescricoesMes      int
	DefaultMaxEnriquecimentosMes int
	DefaultMaxProdutosMes        int
	DefaultLimiteGeracaoIA       int
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "catalogo"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 24), // 24 hours
		},
		AI: AIConfig{
			OpenAIKey:            getEnv("OPENAI_API_KEY", ""),
			Model:                getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			TitleCount:           getEnvAsInt("AI_TITLE_COUNT", 3),
			TitleMaxTokens:       getEnvAsInt("AI_TITLE_MAX_TOKENS", 60),
			DescriptionMaxTokens: getEnvAsInt("AI_DESCRIPTION_MAX_TOKENS", 800),
			ExtractionMaxTokens:  getEnvAsInt("AI_EXTRACTION_MAX_TOKENS", 1500),
		},
		Search: SearchConfig{
			APIKey:   getEnv("SERPER_API_KEY", ""),
			Endpoint: getEnv("SERPER_ENDPOINT", "https://google.serper.dev/search"),
		},
		Browser: BrowserConfig{
			RenderURL:      getEnv("BROWSER_RENDER_URL", ""),
			Token:          getEnv("BROWSER_RENDER_TOKEN", ""),
			TimeoutSeconds: getEnvAsInt("BROWSER_TIMEOUT_SECONDS", 30),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "catalogo-product-images"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		Quota: QuotaConfig{
			DefaultMaxTitulosMes:         getEnvAsInt("QUOTA_DEFAULT_TITULOS_MES", 0),
			DefaultMaxDescricoesMes:      getEnvAsInt("QUOTA_DEFAULT_DESCRICOES_MES", 0),
			DefaultMaxEnriquecimentosMes: getEnvAsInt("QUOTA_DEFAULT_ENRIQUECIMENTOS_MES", 0),
			DefaultMaxProdutosMes:        getEnvAsInt("QUOTA_DEFAULT_PRODUTOS_MES", 0),
			DefaultLimiteGeracaoIA:       getEnvAsInt("QUOTA_DEFAULT_LIMITE_GERACAO_IA", 0),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
