package catalog

import (
	"strings"

	"ShelfScraper/internal/models"
	"ShelfScraper/internal/sites"
)

// extractProduct assembles a product from a validated price element: the
// price literal from the element itself, name and image from the surrounding
// DOM. ok is false when the element text holds no single price or no name
// can be resolved; a missing image keeps the product with an empty URL.
func extractProduct(priceEl Element, ex sites.Extraction) (models.Product, bool) {
	text, err := priceEl.Text()
	if err != nil {
		return models.Product{}, false
	}
	price, ok := priceLiteral(strings.TrimSpace(text))
	if !ok {
		return models.Product{}, false
	}

	name := resolveName(priceEl, ex.Name)
	if name == "" {
		return models.Product{}, false
	}

	return models.Product{
		Name:     name,
		Price:    price,
		ImageURL: resolveImage(priceEl, ex.Image),
	}, true
}
