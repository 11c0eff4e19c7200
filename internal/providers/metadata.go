// internal/providers/metadata.go
package providers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Structured-metadata field names. Every extractor normalizes into this flat
// vocabulary so the merge precedence stays simple.
var metadataFields = []string{
	"name", "description", "image", "brand", "sku",
	"price", "currency", "availability",
}

// ExtractStructuredMetadata pulls product metadata out of rendered HTML.
// Precedence: JSON-LD fills first, microdata fills still-missing fields,
// OpenGraph fills whatever remains. Empty or whitespace-only values are
// treated as absent.
func ExtractStructuredMetadata(html, pageURL string) map[string]string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return map[string]string{}
	}

	result := make(map[string]string)
	fillMissing(result, extractJSONLD(doc))
	fillMissing(result, extractMicrodata(doc))
	fillMissing(result, extractOpenGraph(doc))
	return result
}

func fillMissing(dst map[string]string, src map[string]string) {
	for _, field := range metadataFields {
		if _, ok := dst[field]; ok {
			continue
		}
		if v := strings.TrimSpace(src[field]); v != "" {
			dst[field] = v
		}
	}
}

// extractJSONLD finds the first schema.org Product node in any
// application/ld+json script, including @graph containers and top-level
// arrays.
func extractJSONLD(doc *goquery.Document) map[string]string {
	out := make(map[string]string)

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data interface{}
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true // malformed block, keep looking
		}
		if product := findProductNode(data); product != nil {
			out = normalizeJSONLDProduct(product)
			return false
		}
		return true
	})

	return out
}

func findProductNode(data interface{}) map[string]interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		if isProductType(v["@type"]) {
			return v
		}
		if graph, ok := v["@graph"].([]interface{}); ok {
			return findProductNode(graph)
		}
	case []interface{}:
		for _, item := range v {
			if node := findProductNode(item); node != nil {
				return node
			}
		}
	}
	return nil
}

func isProductType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return strings.EqualFold(v, "Product")
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.EqualFold(s, "Product") {
				return true
			}
		}
	}
	return false
}

func normalizeJSONLDProduct(node map[string]interface{}) map[string]string {
	out := map[string]string{
		"name":        asString(node["name"]),
		"description": asString(node["description"]),
		"image":       asString(node["image"]),
		"sku":         asString(node["sku"]),
		"brand":       asString(node["brand"]),
	}

	// brand may be a nested Brand object
	if brand, ok := node["brand"].(map[string]interface{}); ok {
		out["brand"] = asString(brand["name"])
	}

	offers := node["offers"]
	if list, ok := offers.([]interface{}); ok && len(list) > 0 {
		offers = list[0]
	}
	if offer, ok := offers.(map[string]interface{}); ok {
		out["price"] = asString(offer["price"])
		out["currency"] = asString(offer["priceCurrency"])
		out["availability"] = asString(offer["availability"])
	}

	return out
}

// asString flattens the JSON-LD value shapes seen in the wild: plain
// strings, numbers, arrays (first element) and {"@id"/"url": ...} objects.
func asString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%.2f", val), ".00")
	case []interface{}:
		if len(val) > 0 {
			return asString(val[0])
		}
	case map[string]interface{}:
		if u := asString(val["url"]); u != "" {
			return u
		}
		return asString(val["@id"])
	}
	return ""
}

func extractMicrodata(doc *goquery.Document) map[string]string {
	out := make(map[string]string)

	scope := doc.Find(`[itemtype*="schema.org/Product"]`).First()
	if scope.Length() == 0 {
		return out
	}

	itemprops := map[string]string{
		"name":         "name",
		"description":  "description",
		"image":        "image",
		"brand":        "brand",
		"sku":          "sku",
		"price":        "price",
		"currency":     "priceCurrency",
		"availability": "availability",
	}

	for field, prop := range itemprops {
		sel := scope.Find(fmt.Sprintf(`[itemprop="%s"]`, prop)).First()
		if sel.Length() == 0 {
			continue
		}
		if content, ok := sel.Attr("content"); ok && strings.TrimSpace(content) != "" {
			out[field] = content
			continue
		}
		if field == "image" {
			if src, ok := sel.Attr("src"); ok {
				out[field] = src
				continue
			}
		}
		if href, ok := sel.Attr("href"); ok && strings.TrimSpace(href) != "" {
			out[field] = href
			continue
		}
		out[field] = sel.Text()
	}

	return out
}

func extractOpenGraph(doc *goquery.Document) map[string]string {
	og := make(map[string]string)

	doc.Find(`meta[property]`).Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		content, _ := s.Attr("content")
		if prop != "" && content != "" {
			if _, exists := og[prop]; !exists {
				og[prop] = content
			}
		}
	})

	return map[string]string{
		"name":         og["og:title"],
		"description":  og["og:description"],
		"image":        og["og:image"],
		"brand":        og["product:brand"],
		"price":        og["product:price:amount"],
		"currency":     og["product:price:currency"],
		"availability": og["product:availability"],
	}
}
