// Package sink writes scrape and search results to their output formats.
package sink

import (
	"ShelfScraper/internal/models"
	"ShelfScraper/utils"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// WriteProductsCSV saves products to <outputDir>/<display name>_products.csv
// and returns the written path. Nothing is written for an empty product list.
func WriteProductsCSV(outputDir, displayName string, products []models.Product) (string, error) {
	if len(products) == 0 {
		log.Println("No products to save")
		return "", nil
	}

	name := utils.SanitizeFileName(displayName)
	if name == "" {
		name = "ecommerce"
	}

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	path := filepath.Join(outputDir, name+"_products.csv")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"name", "price", "image_url"}); err != nil {
		return "", err
	}
	for _, p := range products {
		if err := w.Write([]string{p.Name, p.Price, p.ImageURL}); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}

	log.Printf("Saved %d products to %s", len(products), path)
	return path, nil
}

// WriteImageResultsCSV renders image search results as CSV. Candidate URLs
// share one cell, separated by semicolons.
func WriteImageResultsCSV(w io.Writer, results []models.ImageResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"product", "image_url", "candidates"}); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write([]string{r.Product, r.ImageURL, strings.Join(r.Candidates, ";")}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
