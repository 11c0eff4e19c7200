// internal/services/generation_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/catalogo-hub/catalogo-backend/internal/config"
	"github.com/catalogo-hub/catalogo-backend/internal/models"
	"github.com/catalogo-hub/catalogo-backend/internal/providers"
)

const (
	titleMaxChars = 80

	// The model is instructed to answer exactly this when the product data
	// is too thin; the response is then treated as a failure, not a result.
	descriptionRefusalSentinel = "não foi possível gerar"
)

// GenerationService drives AI title and description generation for a
// product. Prepare runs synchronously in the request path and owns the
// access and quota decisions; Run executes the provider call in the
// background through tasks.Runner.
type GenerationService struct {
	db    *gorm.DB
	cfg   *config.Config
	llm   Completer
	usage *UsageService
	quota *QuotaService
}

func NewGenerationService(db *gorm.DB, cfg *config.Config, llm Completer, usage *UsageService, quota *QuotaService) *GenerationService {
	return &GenerationService{db: db, cfg: cfg, llm: llm, usage: usage, quota: quota}
}

// Prepare validates access and quota for one generation and transitions the
// product into EM_PROGRESSO. Error contract, in evaluation order:
//
//	ErrNotFound       product does not exist
//	ErrForbidden      product belongs to another user
//	*QuotaError       quota or credit pool denied; status already set to
//	                  LIMITE_ATINGIDO and no task must be scheduled
//	ErrConflict       a generation of this kind is already running
func (s *GenerationService) Prepare(userID uint, isAdmin bool, productID uint, kind models.GenerationKind) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	if product.UserID != userID && !isAdmin {
		return nil, ErrForbidden
	}

	var user models.User
	if err := s.db.First(&user, product.UserID).Error; err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.checkQuota(&user, kind); err != nil {
		var quotaErr *QuotaError
		if errors.As(err, &quotaErr) {
			s.setStatus(productID, kind, models.GenerationLimiteAtingido)
		}
		return nil, err
	}

	res := s.db.Model(&models.Product{}).
		Where("id = ? AND "+kind.StatusColumn()+" <> ?", productID, models.GenerationEmProgresso).
		Update(kind.StatusColumn(), models.GenerationEmProgresso)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to start generation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrConflict
	}

	kind.SetStatus(&product, models.GenerationEmProgresso)
	return &product, nil
}

// checkQuota enforces both mechanisms; either one alone denies.
func (s *GenerationService) checkQuota(user *models.User, kind models.GenerationKind) error {
	if err := s.quota.CheckQuota(user, kind.ActionType()); err != nil {
		return err
	}
	return s.quota.ReserveCredits(user, 1)
}

// Run executes one generation for the product. Every outcome is persisted
// to the product's status column; nothing is returned to a caller.
func (s *GenerationService) Run(ctx context.Context, productID, userID uint, kind models.GenerationKind) {
	db := s.db.WithContext(ctx)
	logger := logrus.WithFields(logrus.Fields{
		"task":       "generation",
		"kind":       kind,
		"product_id": productID,
		"user_id":    userID,
	})

	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("Generation run panicked")
			s.setStatus(productID, kind, models.GenerationFalhou)
		}
	}()

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		logger.WithError(err).Error("Generation aborted: user not found")
		s.setStatus(productID, kind, models.GenerationFalhou)
		return
	}

	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		logger.WithError(err).Error("Generation aborted: product not found")
		s.setStatus(productID, kind, models.GenerationFalhou)
		return
	}

	apiKey := user.OpenAIKey
	if apiKey == "" {
		apiKey = s.cfg.AI.OpenAIKey
	}
	if apiKey == "" {
		s.finishGeneration(&product, kind, models.GenerationFalhaConfiguracao,
			fmt.Sprintf("Geração de %s abortada: nenhuma chave de IA configurada.", kind.Label()))
		return
	}

	req := providers.CompletionRequest{
		APIKey:      apiKey,
		Model:       s.cfg.AI.Model,
		Temperature: 0.7,
	}
	if kind == models.GenerationKindTitle {
		req.SystemPrompt = titleSystemPrompt
		req.Prompt = buildTitlePrompt(&product)
		req.MaxTokens = s.cfg.AI.TitleMaxTokens
		req.N = s.cfg.AI.TitleCount
	} else {
		req.SystemPrompt = descriptionSystemPrompt
		req.Prompt = buildDescriptionPrompt(&product)
		req.MaxTokens = s.cfg.AI.DescriptionMaxTokens
		req.N = 1
	}

	start := time.Now()
	result, err := s.llm.Complete(ctx, req)
	if err != nil {
		if errors.Is(err, providers.ErrNotConfigured) {
			s.finishGeneration(&product, kind, models.GenerationFalhaConfiguracao,
				fmt.Sprintf("Geração de %s abortada: configuração de IA inválida.", kind.Label()))
			return
		}
		logger.WithError(err).Error("Provider call failed")
		s.finishGeneration(&product, kind, models.GenerationFalhou,
			fmt.Sprintf("Falha do provedor de IA durante a geração de %s.", kind.Label()))
		return
	}

	s.usage.RecordAsync(&models.UsageRecord{
		UserID:        userID,
		ProductID:     &productID,
		Action:        kind.ActionType(),
		Provider:      "openai",
		Model:         s.cfg.AI.Model,
		Prompt:        truncateText(req.Prompt, 4000),
		Response:      truncateText(strings.Join(result.Choices, "\n---\n"), 4000),
		InputTokens:   result.InputTokens,
		OutputTokens:  result.OutputTokens,
		EstimatedCost: estimateCost(s.cfg.AI.Model, result.InputTokens, result.OutputTokens),
		RequestID:     uuid.NewString(),
	})

	if kind == models.GenerationKindTitle {
		titles := cleanTitles(result.Choices)
		if len(titles) == 0 {
			s.finishGeneration(&product, kind, models.GenerationFalhou,
				"Geração de título falhou: nenhum título utilizável na resposta.")
			return
		}
		product.SuggestedTitles = titles
		s.persistResult(&product, kind, map[string]interface{}{
			"suggested_titles": titles,
		}, fmt.Sprintf("Geração de título concluída: %d sugestões.", len(titles)))
	} else {
		description := strings.TrimSpace(result.Choices[0])
		if description == "" || strings.Contains(strings.ToLower(description), descriptionRefusalSentinel) {
			s.finishGeneration(&product, kind, models.GenerationFalhou,
				"Geração de descrição falhou: dados do produto insuficientes.")
			return
		}
		product.GeneratedDescription = description
		s.persistResult(&product, kind, map[string]interface{}{
			"generated_description": description,
		}, fmt.Sprintf("Geração de descrição concluída (%s).", truncateText(description, 80)))
	}

	logger.WithFields(logrus.Fields{
		"duration_ms":   time.Since(start).Milliseconds(),
		"input_tokens":  result.InputTokens,
		"output_tokens": result.OutputTokens,
	}).Info("Generation finished")
}

// persistResult writes the generated payload, the success status and a log
// line in one update. Generation appends to the enrichment log without
// resetting it. Terminal writes go through the service's root session so a
// cancelled task context cannot strand the product in EM_PROGRESSO.
func (s *GenerationService) persistResult(product *models.Product, kind models.GenerationKind, fields map[string]interface{}, logLine string) {
	fields[kind.StatusColumn()] = models.GenerationConcluidoSucesso
	fields["enrichment_log"] = append(append(models.StringList{}, product.EnrichmentLog...), logLine)

	err := s.db.Model(&models.Product{}).Where("id = ?", product.ID).Updates(fields).Error
	if err != nil {
		logrus.WithError(err).WithField("product_id", product.ID).Error("Failed to persist generation result")
	}
}

func (s *GenerationService) finishGeneration(product *models.Product, kind models.GenerationKind, status models.GenerationStatus, logLine string) {
	err := s.db.Model(&models.Product{}).Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			kind.StatusColumn(): status,
			"enrichment_log":    append(append(models.StringList{}, product.EnrichmentLog...), logLine),
		}).Error
	if err != nil {
		logrus.WithError(err).WithField("product_id", product.ID).Error("Failed to persist generation status")
	}
}

func (s *GenerationService) setStatus(productID uint, kind models.GenerationKind, status models.GenerationStatus) {
	err := s.db.Model(&models.Product{}).Where("id = ?", productID).
		Update(kind.StatusColumn(), status).Error
	if err != nil {
		logrus.WithError(err).WithField("product_id", productID).Error("Failed to update generation status")
	}
}

const titleSystemPrompt = "Você é um redator de e-commerce brasileiro. Gere UM título de produto por resposta, " +
	"com no máximo 80 caracteres, otimizado para busca, sem aspas e sem texto adicional."

const descriptionSystemPrompt = "Você é um redator de e-commerce brasileiro. Gere uma descrição de produto em HTML " +
	"simples (parágrafos e listas), persuasiva e fiel aos dados fornecidos. Não invente especificações. " +
	"Se os dados forem insuficientes para uma descrição honesta, responda exatamente: " +
	"\"Não foi possível gerar a descrição com os dados disponíveis.\""

func buildTitlePrompt(product *models.Product) string {
	var sb strings.Builder
	sb.WriteString("Gere um título para o produto abaixo.\n\n")
	writeProductFacts(&sb, product)
	return sb.String()
}

func buildDescriptionPrompt(product *models.Product) string {
	var sb strings.Builder
	sb.WriteString("Gere uma descrição de venda para o produto abaixo.\n\n")
	writeProductFacts(&sb, product)
	return sb.String()
}

// writeProductFacts renders the product's known data, preferring enriched
// values over the originally imported ones.
func writeProductFacts(sb *strings.Builder, product *models.Product) {
	sb.WriteString("## Dados do produto\n")
	fmt.Fprintf(sb, "- Nome base: %s\n", product.BaseName)
	if product.Brand != "" {
		fmt.Fprintf(sb, "- Marca: %s\n", product.Brand)
	}
	if product.OriginalCategory != "" {
		fmt.Fprintf(sb, "- Categoria: %s\n", product.OriginalCategory)
	}

	for _, key := range []string{
		"llm_nome_completo", "llm_modelo", "llm_cor", "llm_material",
		"meta_description", "llm_descricao_longa", "llm_beneficios",
		"llm_especificacoes_tecnicas",
	} {
		value, ok := product.RawData[key]
		if !ok {
			continue
		}
		fmt.Fprintf(sb, "- %s: %s\n", strings.TrimPrefix(strings.TrimPrefix(key, "llm_"), "meta_"), formatFact(value))
	}

	if len(product.Attributes) > 0 {
		sb.WriteString("\n## Atributos\n")
		for name, value := range product.Attributes {
			fmt.Fprintf(sb, "- %s: %s\n", name, formatFact(value))
		}
	}
}

func formatFact(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, "; ")
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, formatFact(item))
		}
		return strings.Join(parts, "; ")
	case map[string]interface{}:
		parts := make([]string, 0, len(v))
		for name, item := range v {
			parts = append(parts, fmt.Sprintf("%s=%s", name, formatFact(item)))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// cleanTitles normalizes model output into usable titles: strips quotes and
// whitespace, drops empties and duplicates. Candidates longer than 80 runes
// are rejected outright rather than cut mid-word.
func cleanTitles(choices []string) models.StringList {
	seen := make(map[string]bool)
	var titles models.StringList
	for _, raw := range choices {
		title := strings.TrimSpace(raw)
		title = strings.Trim(title, `"'`)
		title = strings.TrimSpace(title)
		if title == "" || seen[title] {
			continue
		}
		if len([]rune(title)) > titleMaxChars {
			continue
		}
		seen[title] = true
		titles = append(titles, title)
	}
	return titles
}
