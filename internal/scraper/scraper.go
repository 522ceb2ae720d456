package scraper

import "ShelfScraper/internal/models"

// SiteScraper defines the basic behavior for all catalog scrapers.
// It ensures that any new engine we add (e.g. an API-backed one for
// sites that expose a product feed) will follow a standard structure.
type SiteScraper interface {
	// Run navigates to a catalog URL and returns every unique product
	// discovered on the page. Partial results are returned alongside the
	// error when the session dies mid-scrape.
	Run(url string) ([]models.Product, error)
}
