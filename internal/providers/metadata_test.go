// internal/providers/metadata_test.go
package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractStructuredMetadataJSONLDWinsOverOpenGraph(t *testing.T) {
	html := `<!DOCTYPE html>
<html><head>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "Product",
  "name": "Parafusadeira Bosch GSR 120-LI",
  "sku": "GSR120",
  "brand": {"@type": "Brand", "name": "Bosch"},
  "offers": {"@type": "Offer", "price": "549.90", "priceCurrency": "BRL", "availability": "https://schema.org/InStock"}
}
</script>
<meta property="og:title" content="Parafusadeira GSR | Loja XYZ">
<meta property="og:image" content="https://cdn.example.com/gsr120.jpg">
</head><body></body></html>`

	meta := ExtractStructuredMetadata(html, "https://loja.example.com/gsr120")

	assert.Equal(t, "Parafusadeira Bosch GSR 120-LI", meta["name"])
	assert.Equal(t, "GSR120", meta["sku"])
	assert.Equal(t, "Bosch", meta["brand"])
	assert.Equal(t, "549.90", meta["price"])
	assert.Equal(t, "BRL", meta["currency"])
	// OpenGraph only fills fields JSON-LD left empty
	assert.Equal(t, "https://cdn.example.com/gsr120.jpg", meta["image"])
}

func TestExtractStructuredMetadataGraphContainer(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@graph": [
    {"@type": "WebSite", "name": "Loja"},
    {"@type": "Product", "name": "Esmerilhadeira DeWalt DWE4020", "sku": "DWE4020"}
  ]
}
</script>
</head><body></body></html>`

	meta := ExtractStructuredMetadata(html, "https://loja.example.com/p")
	assert.Equal(t, "Esmerilhadeira DeWalt DWE4020", meta["name"])
	assert.Equal(t, "DWE4020", meta["sku"])
}

func TestExtractStructuredMetadataNumericPrice(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">
{"@type": "Product", "name": "Serra Tico-Tico", "offers": {"price": 299.9, "priceCurrency": "BRL"}}
</script>
</head><body></body></html>`

	meta := ExtractStructuredMetadata(html, "https://loja.example.com/p")
	assert.Equal(t, "299.90", meta["price"])
}

func TestExtractStructuredMetadataMicrodata(t *testing.T) {
	html := `<html><body>
<div itemscope itemtype="https://schema.org/Product">
  <h1 itemprop="name">Martelete Makita HR2470</h1>
  <span itemprop="sku">HR2470</span>
  <meta itemprop="price" content="899.00">
  <img itemprop="image" src="https://cdn.example.com/hr2470.jpg">
</div>
</body></html>`

	meta := ExtractStructuredMetadata(html, "https://loja.example.com/p")
	assert.Equal(t, "Martelete Makita HR2470", meta["name"])
	assert.Equal(t, "HR2470", meta["sku"])
	assert.Equal(t, "899.00", meta["price"])
	assert.Equal(t, "https://cdn.example.com/hr2470.jpg", meta["image"])
}

func TestExtractStructuredMetadataOpenGraphFallback(t *testing.T) {
	html := `<html><head>
<meta property="og:title" content="Compressor de Ar 50L">
<meta property="og:description" content="Compressor 50 litros 2HP">
<meta property="product:price:amount" content="1299.00">
<meta property="product:price:currency" content="BRL">
</head><body></body></html>`

	meta := ExtractStructuredMetadata(html, "https://loja.example.com/p")
	assert.Equal(t, "Compressor de Ar 50L", meta["name"])
	assert.Equal(t, "Compressor 50 litros 2HP", meta["description"])
	assert.Equal(t, "1299.00", meta["price"])
	assert.Equal(t, "BRL", meta["currency"])
}

func TestExtractStructuredMetadataDiscardsBlankValues(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">
{"@type": "Product", "name": "   "}
</script>
<meta property="og:title" content="Nome vindo do OpenGraph">
</head><body></body></html>`

	meta := ExtractStructuredMetadata(html, "https://loja.example.com/p")
	assert.Equal(t, "Nome vindo do OpenGraph", meta["name"])
}

func TestExtractStructuredMetadataEmptyPage(t *testing.T) {
	meta := ExtractStructuredMetadata("<html><body><p>nada aqui</p></body></html>", "https://x.example.com")
	assert.Empty(t, meta)
}

func TestExtractStructuredMetadataMalformedJSONLDIgnored(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">{broken json</script>
<script type="application/ld+json">{"@type": "Product", "name": "Produto Válido"}</script>
</head><body></body></html>`

	meta := ExtractStructuredMetadata(html, "https://loja.example.com/p")
	assert.Equal(t, "Produto Válido", meta["name"])
}
