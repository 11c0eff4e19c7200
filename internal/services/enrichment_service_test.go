// internal/services/enrichment_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/catalogo-hub/catalogo-backend/internal/models"
	"github.com/catalogo-hub/catalogo-backend/internal/providers"
)

const productPageHTML = `<!DOCTYPE html>
<html>
<head>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "Product",
  "name": "Furadeira de Impacto Makita HP1630 750W",
  "sku": "HP1630",
  "brand": {"@type": "Brand", "name": "Makita"},
  "offers": {"@type": "Offer", "price": 399.90, "priceCurrency": "BRL"}
}
</script>
<meta property="og:title" content="Furadeira HP1630 | Loja">
<meta property="og:image" content="https://cdn.example.com/hp1630.jpg">
</head>
<body><p>Furadeira de impacto com 750W de potência e mandril de 13mm.</p></body>
</html>`

type EnrichmentServiceTestSuite struct {
	suite.Suite
	db    *gorm.DB
	usage *UsageService
}

func (suite *EnrichmentServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.usage = NewUsageService(suite.db)
}

func (suite *EnrichmentServiceTestSuite) newService(searcher WebSearcher, renderer PageRenderer, llm Completer) *EnrichmentService {
	svc := NewEnrichmentService(suite.db, testConfig(), searcher, renderer, llm, suite.usage)
	svc.urlDelay = 0
	return svc
}

func (suite *EnrichmentServiceTestSuite) reload(productID uint) *models.Product {
	var product models.Product
	require.NoError(suite.T(), suite.db.First(&product, productID).Error)
	return &product
}

func (suite *EnrichmentServiceTestSuite) TestStartIsExclusive() {
	user := createUser(suite.T(), suite.db, nil)
	product := createProduct(suite.T(), suite.db, user.ID, nil)

	svc := suite.newService(&stubSearcher{}, &stubRenderer{}, &stubCompleter{})
	require.NoError(suite.T(), svc.Start(product.ID))

	err := svc.Start(product.ID)
	assert.ErrorIs(suite.T(), err, ErrConflict)

	reloaded := suite.reload(product.ID)
	assert.Equal(suite.T(), models.EnrichmentEmProgresso, reloaded.StatusEnrichmentWeb)
	assert.Equal(suite.T(), models.StringList{"Iniciando..."}, reloaded.EnrichmentLog)
}

func (suite *EnrichmentServiceTestSuite) TestStartRestartsFinishedRun() {
	user := createUser(suite.T(), suite.db, nil)
	product := createProduct(suite.T(), suite.db, user.ID, func(p *models.Product) {
		p.StatusEnrichmentWeb = models.EnrichmentFalhou
		p.EnrichmentLog = models.StringList{"linha antiga"}
	})

	svc := suite.newService(&stubSearcher{}, &stubRenderer{}, &stubCompleter{})
	require.NoError(suite.T(), svc.Start(product.ID))

	reloaded := suite.reload(product.ID)
	assert.Equal(suite.T(), models.StringList{"Iniciando..."}, reloaded.EnrichmentLog)
}

func (suite *EnrichmentServiceTestSuite) TestMissingSearchKey() {
	user := createUser(suite.T(), suite.db, nil)
	product := createProduct(suite.T(), suite.db, user.ID, nil)

	svc := suite.newService(&stubSearcher{err: providers.ErrNotConfigured}, &stubRenderer{}, &stubCompleter{})
	svc.Run(context.Background(), product.ID, user.ID, "")

	reloaded := suite.reload(product.ID)
	assert.Equal(suite.T(), models.EnrichmentFalhaConfiguracaoAPI, reloaded.StatusEnrichmentWeb)
}

func (suite *EnrichmentServiceTestSuite) TestSearchProviderFailure() {
	user := createUser(suite.T(), suite.db, nil)
	product := createProduct(suite.T(), suite.db, user.ID, nil)

	svc := suite.newService(&stubSearcher{err: providers.ErrExternal}, &stubRenderer{}, &stubCompleter{})
	svc.Run(context.Background(), product.ID, user.ID, "")

	reloaded := suite.reload(product.ID)
	assert.Equal(suite.T(), models.EnrichmentFalhaAPIExterna, reloaded.StatusEnrichmentWeb)
}

func (suite *EnrichmentServiceTestSuite) TestRunFinishesAfterContextCancellation() {
	user := createUser(suite.T(), suite.db, nil)
	product := createProduct(suite.T(), suite.db, user.ID, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	renderer := &cancellingRenderer{cancel: cancel}
	svc := suite.newService(&stubSearcher{urls: []string{"https://example.com/produto"}}, renderer, &stubCompleter{})
	require.NoError(suite.T(), svc.Start(product.ID))

	svc.Run(ctx, product.ID, user.ID, "")

	// the terminal status must land even though the run's context died
	reloaded := suite.reload(product.ID)
	assert.NotEqual(suite.T(), models.EnrichmentEmProgresso, reloaded.StatusEnrichmentWeb)
	assert.Equal(suite.T(), models.EnrichmentDadosParciais, reloaded.StatusEnrichmentWeb)
}

func (suite *EnrichmentServiceTestSuite) TestNoSourcesFound() {
	user := createUser(suite.T(), suite.db, nil)
	product := createProduct(suite.T(), suite.db, user.ID, nil)

	llm := &stubCompleter{}
	svc := suite.newService(&stubSearcher{urls: []string{}}, &stubRenderer{}, llm)
	svc.Run(context.Background(), product.ID, user.ID, "")

	reloaded := suite.reload(product.ID)
	assert.Equal(suite.T(), models.EnrichmentNenhumaFonte, reloaded.StatusEnrichmentWeb)
	assert.Empty(suite.T(), llm.requests)
}

func (suite *EnrichmentServiceTestSuite) TestAllRendersFailIsPartial() {
	user := createUser(suite.T(), suite.db, nil)
	product := createProduct(suite.T(), suite.db, user.ID, nil)

	llm := &stubCompleter{}
	svc := suite.newService(
		&stubSearcher{urls: []string{"https://a.example.com", "https://b.example.com"}},
		&stubRenderer{pages: map[string]string{}},
		llm,
	)
	svc.Run(context.Background(), product.ID, user.ID, "")

	reloaded := suite.reload(product.ID)
	assert.Equal(suite.T(), models.EnrichmentDadosParciais, reloaded.StatusEnrichmentWeb)
	assert.Empty(suite.T(), llm.requests)

	var count int64
	suite.db.Model(&models.UsageRecord{}).Count(&count)
	assert.Zero(suite.T(), count)
}

func (suite *EnrichmentServiceTestSuite) TestThinPageSkipsLLM() {
	user := createUser(suite.T(), suite.db, nil)
	product := createProduct(suite.T(), suite.db, user.ID, nil)

	llm := &stubCompleter{}
	svc := suite.newService(
		&stubSearcher{urls: []string{"https://a.example.com"}},
		&stubRenderer{pages: map[string]string{
			"https://a.example.com": "<html><body><p>oi</p></body></html>",
		}},
		llm,
	)
	svc.Run(context.Background(), product.ID, user.ID, "")

	reloaded := suite.reload(product.ID)
	assert.Equal(suite.T(), models.EnrichmentDadosParciais, reloaded.StatusEnrichmentWeb)
	assert.Empty(suite.T(), llm.requests)
}

func (suite *EnrichmentServiceTestSuite) TestSuccessfulRunMergesData() {
	user := createUser(suite.T(), suite.db, nil)
	product := createProduct(suite.T(), suite.db, user.ID, func(p *models.Product) {
		p.RawData = models.JSONB{"web_origem": "importacao"}
	})

	llm := &stubCompleter{result: providers.CompletionResult{
		Choices: []string{`{
			"nome_completo": "Furadeira de Impacto Makita HP1630 750W 220V",
			"marca": "Makita",
			"modelo": "HP1630",
			"especificacoes_tecnicas": {"potencia": "750W", "mandril": "13mm"}
		}`},
		InputTokens:  120,
		OutputTokens: 40,
	}}
	svc := suite.newService(
		&stubSearcher{urls: []string{"https://loja.example.com/hp1630"}},
		&stubRenderer{pages: map[string]string{
			"https://loja.example.com/hp1630": productPageHTML,
		}},
		llm,
	)
	svc.Run(context.Background(), product.ID, user.ID, "")

	reloaded := suite.reload(product.ID)
	assert.Equal(suite.T(), models.EnrichmentConcluidoSucesso, reloaded.StatusEnrichmentWeb)

	// metadata merged under meta_, extraction under llm_, old keys preserved
	assert.Equal(suite.T(), "Furadeira de Impacto Makita HP1630 750W", reloaded.RawData["meta_name"])
	assert.Equal(suite.T(), "HP1630", reloaded.RawData["meta_sku"])
	assert.Equal(suite.T(), "Makita", reloaded.RawData["llm_marca"])
	assert.Equal(suite.T(), "importacao", reloaded.RawData["web_origem"])

	require.Len(suite.T(), llm.requests, 1)
	assert.Equal(suite.T(), "sk-test", llm.requests[0].APIKey)
	assert.Zero(suite.T(), llm.requests[0].Temperature)

	records, err := suite.usage.ListForUser(user.ID, 10)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), records, 1)
	assert.Equal(suite.T(), models.ActionEnriquecimentoWeb, records[0].Action)
	assert.Equal(suite.T(), 120, records[0].InputTokens)
}

func (suite *EnrichmentServiceTestSuite) TestUserKeyPreferredOverSystemKey() {
	user := createUser(suite.T(), suite.db, func(u *models.User) {
		u.OpenAIKey = "sk-personal"
	})
	product := createProduct(suite.T(), suite.db, user.ID, nil)

	llm := &stubCompleter{result: providers.CompletionResult{Choices: []string{`{"marca": "Makita"}`}}}
	svc := suite.newService(
		&stubSearcher{urls: []string{"https://loja.example.com/p"}},
		&stubRenderer{pages: map[string]string{"https://loja.example.com/p": productPageHTML}},
		llm,
	)
	svc.Run(context.Background(), product.ID, user.ID, "")

	require.Len(suite.T(), llm.requests, 1)
	assert.Equal(suite.T(), "sk-personal", llm.requests[0].APIKey)
}

func (suite *EnrichmentServiceTestSuite) TestGarbageLLMResponseKeepsRawText() {
	user := createUser(suite.T(), suite.db, nil)
	product := createProduct(suite.T(), suite.db, user.ID, nil)

	llm := &stubCompleter{result: providers.CompletionResult{
		Choices: []string{"desculpe, não consigo ajudar com isso"},
	}}
	svc := suite.newService(
		&stubSearcher{urls: []string{"https://loja.example.com/p"}},
		&stubRenderer{pages: map[string]string{"https://loja.example.com/p": productPageHTML}},
		llm,
	)
	svc.Run(context.Background(), product.ID, user.ID, "")

	reloaded := suite.reload(product.ID)
	assert.Equal(suite.T(), "desculpe, não consigo ajudar com isso", reloaded.RawData["llm_extracao_raw"])
	assert.Equal(suite.T(), true, reloaded.RawData["llm_parse_error"])
	// structured metadata still counts as reliable data
	assert.Equal(suite.T(), models.EnrichmentConcluidoSucesso, reloaded.StatusEnrichmentWeb)
}

func (suite *EnrichmentServiceTestSuite) TestQueryOverrideReplacesGeneratedQuery() {
	user := createUser(suite.T(), suite.db, nil)
	product := createProduct(suite.T(), suite.db, user.ID, nil)

	searcher := &recordingSearcher{}
	svc := suite.newService(searcher, &stubRenderer{}, &stubCompleter{})
	svc.Run(context.Background(), product.ID, user.ID, "makita hp1630 manual")

	assert.Equal(suite.T(), "makita hp1630 manual", searcher.lastQuery)
}

func (suite *EnrichmentServiceTestSuite) TestGeneratedQueryIncludesNameBrandAndSuffix() {
	user := createUser(suite.T(), suite.db, nil)
	product := createProduct(suite.T(), suite.db, user.ID, nil)

	searcher := &recordingSearcher{}
	svc := suite.newService(searcher, &stubRenderer{}, &stubCompleter{})
	svc.Run(context.Background(), product.ID, user.ID, "")

	assert.Contains(suite.T(), searcher.lastQuery, "Furadeira de Impacto 750W")
	assert.Contains(suite.T(), searcher.lastQuery, "Makita")
	assert.Contains(suite.T(), searcher.lastQuery, "especificações técnicas detalhadas")
}

type recordingSearcher struct {
	lastQuery string
}

func (s *recordingSearcher) Search(_ context.Context, query string, _ int) ([]string, error) {
	s.lastQuery = query
	return nil, nil
}

func TestPrioritizeURLsPrefersSupplierDomain(t *testing.T) {
	urls := []string{
		"https://www.concorrente.com.br/produto",
		"https://blog.example.com/review",
		"https://www.uouu.com.br/furadeira-hp1630",
	}

	ordered := prioritizeURLs(urls, "https://www.uouu.com.br")
	assert.Equal(t, "https://www.uouu.com.br/furadeira-hp1630", ordered[0])
	assert.Len(t, ordered, 3)

	// relative order of the rest preserved
	assert.Equal(t, "https://www.concorrente.com.br/produto", ordered[1])
	assert.Equal(t, "https://blog.example.com/review", ordered[2])
}

func TestPrioritizeURLsWithoutSupplier(t *testing.T) {
	urls := []string{"https://a.example.com", "https://b.example.com"}
	assert.Equal(t, urls, prioritizeURLs(urls, ""))
}

func TestParseExtractionToleratesFences(t *testing.T) {
	fenced := "```json\n{\"marca\": \"Makita\"}\n```"
	extracted, err := parseExtraction(fenced)
	assert.NoError(t, err)
	assert.Equal(t, "Makita", extracted.Marca)
}

func TestParseExtractionFindsEmbeddedObject(t *testing.T) {
	wrapped := "Aqui está o resultado: {\"sku\": \"HP1630\"} espero que ajude"
	extracted, err := parseExtraction(wrapped)
	assert.NoError(t, err)
	assert.Equal(t, "HP1630", extracted.SKU)
}

func TestParseExtractionRejectsGarbage(t *testing.T) {
	_, err := parseExtraction("sem json nenhum aqui")
	assert.Error(t, err)
}

func TestEnrichmentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EnrichmentServiceTestSuite))
}
