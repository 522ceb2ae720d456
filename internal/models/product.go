package models

import "time"

// Product is a single catalog listing as extracted from a site page.
// Price keeps the currency-prefixed literal exactly as rendered (e.g. "£2.99").
// ImageURL is empty when no image could be resolved for the listing.
type Product struct {
	Name     string `json:"name" db:"name"`
	Price    string `json:"price" db:"price"`
	ImageURL string `json:"image_url" db:"image_url"`
}

// Key returns the composite identity used to suppress duplicate records
// across repeated extraction passes over the same page.
func (p Product) Key() string {
	return p.Name + "_" + p.Price + "_" + p.ImageURL
}

// ScrapeRun records one scrape invocation against one site.
type ScrapeRun struct {
	ID           string    `db:"id"`
	SiteKey      string    `db:"site_key"`
	DisplayName  string    `db:"display_name"`
	TargetURL    string    `db:"target_url"`
	ProductCount int       `db:"product_count"`
	StartedAt    time.Time `db:"started_at"`
	FinishedAt   time.Time `db:"finished_at"`
}

// ProductFilters holds the query parameters supported by the products API.
type ProductFilters struct {
	SiteKey string
	Limit   int
	Offset  int
}

// ImageResult is the outcome of an image search for one uploaded product row.
type ImageResult struct {
	Product    string   `json:"product"`
	ImageURL   string   `json:"image_url"`
	Candidates []string `json:"candidates"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
}

// ProductsResponse is the payload of GET /products.
type ProductsResponse struct {
	Data       []Product  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// SearchResponse is the payload of POST /search-images.
type SearchResponse struct {
	Results []ImageResult `json:"results"`
}
