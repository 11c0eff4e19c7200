// internal/services/enrichment_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
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
	searchResultCount = 3
	maxURLsPerRun     = 2
	minBodyChars      = 50
	bodyTruncateChars = 10000
)

// EnrichmentService drives the multi-source web enrichment of one product:
// search for candidate pages, render them, extract structured metadata and
// main text, run an LLM extraction pass and merge everything into the
// product's raw-data bag under prefixed keys.
//
// Run executes synchronously and is meant to be scheduled through
// tasks.Runner; nothing inside it propagates to an HTTP caller. Clients
// poll the product's status and enrichment log.
type EnrichmentService struct {
	db       *gorm.DB
	cfg      *config.Config
	searcher WebSearcher
	renderer PageRenderer
	llm      Completer
	usage    *UsageService

	// courtesy pause between URLs; shortened in tests
	urlDelay time.Duration
}

func NewEnrichmentService(db *gorm.DB, cfg *config.Config, searcher WebSearcher, renderer PageRenderer, llm Completer, usage *UsageService) *EnrichmentService {
	return &EnrichmentService{
		db:       db,
		cfg:      cfg,
		searcher: searcher,
		renderer: renderer,
		llm:      llm,
		usage:    usage,
		urlDelay: 2 * time.Second,
	}
}

// Start transitions the product into EM_PROGRESSO and resets the run log.
// The transition is a conditional update so two concurrent schedules cannot
// both start a run: the loser gets ErrConflict.
func (s *EnrichmentService) Start(productID uint) error {
	res := s.db.Model(&models.Product{}).
		Where("id = ? AND status_enrichment_web <> ?", productID, models.EnrichmentEmProgresso).
		Updates(map[string]interface{}{
			"status_enrichment_web": models.EnrichmentEmProgresso,
			"enrichment_log":        models.StringList{"Iniciando..."},
		})
	if res.Error != nil {
		return fmt.Errorf("failed to start enrichment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// Run executes one enrichment for the product. queryOverride, when
// non-empty, replaces the generated search query entirely.
func (s *EnrichmentService) Run(ctx context.Context, productID, userID uint, queryOverride string) {
	db := s.db.WithContext(ctx)
	logger := logrus.WithFields(logrus.Fields{
		"task":       "enrichment",
		"product_id": productID,
		"user_id":    userID,
	})

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		logger.WithError(err).Error("Enrichment aborted: user not found")
		s.finish(productID, models.EnrichmentFalhou, nil,
			models.StringList{"Enriquecimento abortado: usuário não encontrado."})
		return
	}

	var product models.Product
	if err := db.Preload("Supplier").First(&product, productID).Error; err != nil {
		logger.WithError(err).Error("Enrichment aborted: product not found")
		return
	}

	// Carry the log written by Start when it ran; a direct Run begins fresh.
	runLog := models.StringList{"Iniciando..."}
	if product.StatusEnrichmentWeb == models.EnrichmentEmProgresso && len(product.EnrichmentLog) > 0 {
		runLog = append(models.StringList{}, product.EnrichmentLog...)
	}

	rawData := product.RawData
	if rawData == nil {
		rawData = models.JSONB{}
	}

	var (
		totalInputTokens  int
		totalOutputTokens int
		llmCalls          int
		lastPrompt        string
		lastResponse      string
	)

	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("Enrichment run panicked")
			runLog = append(runLog, fmt.Sprintf("Erro fatal durante o enriquecimento: %v (detalhes nos logs do servidor)", r))
			s.finish(productID, models.EnrichmentFalhou, rawData, runLog)
		}
	}()

	// Persist progress before any slow network call so polling clients see
	// the run immediately.
	s.persistProgress(productID, runLog)

	query := queryOverride
	if query == "" {
		query = buildSearchQuery(&product)
	}
	runLog = append(runLog, fmt.Sprintf("Buscando fontes na web: %q", query))
	logger.WithField("query", query).Info("Starting web enrichment")

	urls, err := s.searcher.Search(ctx, query, searchResultCount)
	if err != nil {
		switch {
		case errors.Is(err, providers.ErrNotConfigured):
			runLog = append(runLog, "Busca na web não configurada: chave da API de busca ausente.")
			s.finish(productID, models.EnrichmentFalhaConfiguracaoAPI, rawData, runLog)
		default:
			logger.WithError(err).Error("Web search failed")
			runLog = append(runLog, "Falha na API de busca externa.")
			s.finish(productID, models.EnrichmentFalhaAPIExterna, rawData, runLog)
		}
		return
	}

	supplierSite := ""
	if product.Supplier != nil {
		supplierSite = product.Supplier.SiteURL
	}
	selected := prioritizeURLs(urls, supplierSite)
	if len(selected) > maxURLsPerRun {
		selected = selected[:maxURLsPerRun]
	}

	if len(selected) == 0 {
		runLog = append(runLog, "Nenhuma fonte encontrada para o produto.")
		s.finish(productID, models.EnrichmentNenhumaFonte, rawData, runLog)
		return
	}

	apiKey := user.OpenAIKey
	if apiKey == "" {
		apiKey = s.cfg.AI.OpenAIKey
	}

	reliableData := false

	for i, pageURL := range selected {
		runLog = append(runLog, fmt.Sprintf("Processando fonte %d/%d: %s", i+1, len(selected), pageURL))

		html, err := s.renderer.Render(ctx, pageURL)
		if err != nil || strings.TrimSpace(html) == "" {
			logger.WithError(err).WithField("url", pageURL).Warn("Page render failed")
			runLog = append(runLog, fmt.Sprintf("Falha ao carregar a página %s; fonte ignorada.", pageURL))
			s.pauseBetweenURLs(i, len(selected))
			continue
		}

		metadata := providers.ExtractStructuredMetadata(html, pageURL)
		for field, value := range metadata {
			rawData["meta_"+field] = value
		}
		if len(metadata) > 0 {
			reliableData = true
			runLog = append(runLog, fmt.Sprintf("Metadados estruturados extraídos (%d campos).", len(metadata)))
		}

		bodyText := providers.ExtractMainText(html, pageURL)

		// Too little signal to justify an LLM call.
		if len(bodyText) < minBodyChars && len(metadata) == 0 {
			runLog = append(runLog, "Conteúdo insuficiente na página; extração por IA ignorada.")
			s.pauseBetweenURLs(i, len(selected))
			continue
		}

		prompt := buildExtractionPrompt(metadata, truncateText(bodyText, bodyTruncateChars))
		result, err := s.llm.Complete(ctx, providers.CompletionRequest{
			APIKey:      apiKey,
			Model:       s.cfg.AI.Model,
			Prompt:      prompt,
			MaxTokens:   s.cfg.AI.ExtractionMaxTokens,
			Temperature: 0,
			N:           1,
		})
		if err != nil {
			if errors.Is(err, providers.ErrNotConfigured) {
				runLog = append(runLog, "Chave de IA ausente; extração por IA ignorada para esta fonte.")
			} else {
				logger.WithError(err).WithField("url", pageURL).Warn("LLM extraction failed")
				runLog = append(runLog, "Falha na extração por IA para esta fonte.")
			}
			s.pauseBetweenURLs(i, len(selected))
			continue
		}

		llmCalls++
		totalInputTokens += result.InputTokens
		totalOutputTokens += result.OutputTokens
		lastPrompt = prompt
		lastResponse = result.Choices[0]

		extracted, parseErr := parseExtraction(result.Choices[0])
		if parseErr != nil {
			// Keep the raw text instead of discarding the whole call.
			rawData["llm_extracao_raw"] = result.Choices[0]
			rawData["llm_parse_error"] = true
			runLog = append(runLog, "Resposta da IA em formato inválido; texto bruto preservado.")
		} else {
			merged := mergeExtraction(rawData, extracted)
			if merged > 0 {
				reliableData = true
				runLog = append(runLog, fmt.Sprintf("Dados extraídos por IA (%d campos).", merged))
			}
		}

		s.pauseBetweenURLs(i, len(selected))
	}

	if llmCalls > 0 {
		s.usage.RecordAsync(&models.UsageRecord{
			UserID:        userID,
			ProductID:     &productID,
			Action:        models.ActionEnriquecimentoWeb,
			Provider:      "openai",
			Model:         s.cfg.AI.Model,
			Prompt:        truncateText(lastPrompt, 4000),
			Response:      truncateText(lastResponse, 4000),
			InputTokens:   totalInputTokens,
			OutputTokens:  totalOutputTokens,
			EstimatedCost: estimateCost(s.cfg.AI.Model, totalInputTokens, totalOutputTokens),
			RequestID:     uuid.NewString(),
		})
	}

	finalStatus := models.EnrichmentDadosParciais
	if reliableData {
		finalStatus = models.EnrichmentConcluidoSucesso
	}
	runLog = append(runLog, fmt.Sprintf("Enriquecimento concluído com status %s.", finalStatus))
	s.finish(productID, finalStatus, rawData, runLog)

	logger.WithFields(logrus.Fields{
		"status":        finalStatus,
		"llm_calls":     llmCalls,
		"input_tokens":  totalInputTokens,
		"output_tokens": totalOutputTokens,
	}).Info("Web enrichment finished")
}

func (s *EnrichmentService) pauseBetweenURLs(index, total int) {
	if index < total-1 && s.urlDelay > 0 {
		time.Sleep(s.urlDelay)
	}
}

// persistProgress and finish write through the service's root session, not
// the task context: a run whose context was cancelled mid-flight must still
// be able to record its terminal status, or the product stays locked in
// EM_PROGRESSO behind the scheduling conflict check.
func (s *EnrichmentService) persistProgress(productID uint, runLog models.StringList) {
	err := s.db.Model(&models.Product{}).Where("id = ?", productID).
		Updates(map[string]interface{}{
			"status_enrichment_web": models.EnrichmentEmProgresso,
			"enrichment_log":        runLog,
		}).Error
	if err != nil {
		logrus.WithError(err).WithField("product_id", productID).Error("Failed to persist enrichment progress")
	}
}

// finish writes the final raw-data bag, status and full log in one update.
func (s *EnrichmentService) finish(productID uint, status models.EnrichmentStatus, rawData models.JSONB, runLog models.StringList) {
	updates := map[string]interface{}{
		"status_enrichment_web": status,
		"enrichment_log":        runLog,
	}
	if rawData != nil {
		updates["raw_data"] = rawData
	}
	err := s.db.Model(&models.Product{}).Where("id = ?", productID).Updates(updates).Error
	if err != nil {
		logrus.WithError(err).WithField("product_id", productID).Error("Failed to persist enrichment result")
	}
}

// buildSearchQuery concatenates product name, brand and any original
// code/SKU already present in the raw-data bag, plus a fixed suffix asking
// for detailed technical specifications.
func buildSearchQuery(product *models.Product) string {
	parts := []string{product.BaseName}
	if product.Brand != "" {
		parts = append(parts, product.Brand)
	}
	for _, key := range []string{"codigo_original", "sku", "meta_sku", "ean"} {
		if v, ok := product.RawData[key].(string); ok && strings.TrimSpace(v) != "" {
			parts = append(parts, v)
			break
		}
	}
	parts = append(parts, "especificações técnicas detalhadas")
	return strings.Join(parts, " ")
}

// prioritizeURLs moves URLs on the supplier's own domain to the front,
// preserving relative order otherwise.
func prioritizeURLs(urls []string, supplierSite string) []string {
	domain := normalizeDomain(supplierSite)
	if domain == "" {
		return urls
	}

	var preferred, rest []string
	for _, u := range urls {
		if strings.Contains(normalizeDomain(u), domain) {
			preferred = append(preferred, u)
		} else {
			rest = append(rest, u)
		}
	}
	return append(preferred, rest...)
}

func normalizeDomain(raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}

// llmExtraction is the fixed field set requested from the extraction call.
type llmExtraction struct {
	NomeCompleto           string                 `json:"nome_completo"`
	Marca                  string                 `json:"marca"`
	Modelo                 string                 `json:"modelo"`
	SKU                    string                 `json:"sku"`
	DescricaoLonga         []string               `json:"descricao_longa"`
	Beneficios             []string               `json:"beneficios"`
	EspecificacoesTecnicas map[string]interface{} `json:"especificacoes_tecnicas"`
	Categoria              []string               `json:"categoria"`
	Cor                    string                 `json:"cor"`
	Material               string                 `json:"material"`
}

func buildExtractionPrompt(metadata map[string]string, bodyText string) string {
	var sb strings.Builder

	sb.WriteString("Você é um extrator de dados de produtos de e-commerce. ")
	sb.WriteString("A partir dos metadados e do texto da página abaixo, extraia os campos do produto.\n\n")

	if len(metadata) > 0 {
		sb.WriteString("## Metadados estruturados\n")
		for _, field := range []string{"name", "description", "brand", "sku", "price", "currency", "availability", "image"} {
			if v, ok := metadata[field]; ok {
				sb.WriteString(fmt.Sprintf("- %s: %s\n", field, v))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Texto da página\n")
	sb.WriteString(bodyText)
	sb.WriteString("\n\n")

	sb.WriteString(`Responda APENAS com JSON válido, sem blocos markdown, no formato:
{
  "nome_completo": "...",
  "marca": "...",
  "modelo": "...",
  "sku": "...",
  "descricao_longa": ["parágrafo 1", "parágrafo 2"],
  "beneficios": ["...", "..."],
  "especificacoes_tecnicas": {"chave": "valor"},
  "categoria": ["nível 1", "nível 2"],
  "cor": "...",
  "material": "..."
}
Use null ou string vazia para campos não encontrados. Não invente dados.`)

	return sb.String()
}

// parseExtraction tolerates markdown fences and stray prose around the JSON
// object before giving up.
func parseExtraction(response string) (*llmExtraction, error) {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var extracted llmExtraction
	if err := json.Unmarshal([]byte(cleaned), &extracted); err == nil {
		return &extracted, nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &extracted); err == nil {
			return &extracted, nil
		}
	}

	return nil, fmt.Errorf("resposta da IA não é JSON válido")
}

// mergeExtraction copies non-empty extracted fields into the raw-data bag
// under llm_-prefixed keys and returns how many were merged.
func mergeExtraction(rawData models.JSONB, extracted *llmExtraction) int {
	merged := 0

	setString := func(key, value string) {
		if strings.TrimSpace(value) != "" {
			rawData["llm_"+key] = value
			merged++
		}
	}
	setList := func(key string, values []string) {
		if len(values) > 0 {
			rawData["llm_"+key] = values
			merged++
		}
	}

	setString("nome_completo", extracted.NomeCompleto)
	setString("marca", extracted.Marca)
	setString("modelo", extracted.Modelo)
	setString("sku", extracted.SKU)
	setString("cor", extracted.Cor)
	setString("material", extracted.Material)
	setList("descricao_longa", extracted.DescricaoLonga)
	setList("beneficios", extracted.Beneficios)
	setList("categoria", extracted.Categoria)
	if len(extracted.EspecificacoesTecnicas) > 0 {
		rawData["llm_especificacoes_tecnicas"] = extracted.EspecificacoesTecnicas
		merged++
	}

	return merged
}

// truncateText limits provider payloads; the ellipsis marks the cut for
// human readers of the ledger.
func truncateText(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
