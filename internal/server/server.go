// Package server exposes the HTTP API: stored products plus the CSV
// image-search endpoints.
package server

import (
	"ShelfScraper/internal/mapper"
	"ShelfScraper/internal/models"
	"ShelfScraper/internal/sink"
	"ShelfScraper/pkg/config"
	"context"
	"encoding/json"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// searchWorkers bounds concurrent image searches per upload. The API rate
// limiter paces the actual requests, so this mostly overlaps cache hits.
const searchWorkers = 4

// ProductStore is the slice of the repository the API reads from.
type ProductStore interface {
	GetProducts(filters models.ProductFilters) ([]models.Product, error)
	CountProducts(siteKey string) (int, error)
}

// ImageSearcher finds candidate images for a batch of product names.
type ImageSearcher interface {
	FindProductImages(ctx context.Context, products []string, workers int) []models.ImageResult
}

// ColumnDetector maps uploaded CSV columns to product fields.
type ColumnDetector interface {
	DetectColumns(ctx context.Context, t mapper.Table) mapper.ColumnMapping
}

// Start wires the API routes and blocks serving them.
func Start(store ProductStore, searcher ImageSearcher, detector ColumnDetector, cfg *config.Config) {
	http.HandleFunc("/", rootHandler)
	http.HandleFunc("/products", productsHandler(store))
	http.HandleFunc("/search-images", searchImagesHandler(searcher, detector))
	http.HandleFunc("/search-images-download", searchImagesDownloadHandler(searcher, detector))

	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting API server on port %s", port)
	log.Printf("Endpoints available at http://localhost:%s/products and /search-images", port)

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Welcome to the ShelfScraper API. Endpoints: /products, /search-images, /search-images-download.",
	})
}

func productsHandler(store ProductStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// 1. Parse pagination parameters
		queryParams := r.URL.Query()
		page, _ := strconv.Atoi(queryParams.Get("page"))
		if page < 1 {
			page = 1
		}
		limit, _ := strconv.Atoi(queryParams.Get("limit"))
		if limit < 1 {
			limit = 20 // Default limit
		}
		offset := (page - 1) * limit
		siteKey := queryParams.Get("site")

		filters := models.ProductFilters{SiteKey: siteKey, Limit: limit, Offset: offset}

		// 2. Get total count for pagination
		totalProducts, err := store.CountProducts(siteKey)
		if err != nil {
			http.Error(w, "Failed to count products", http.StatusInternalServerError)
			return
		}
		totalPages := int(math.Ceil(float64(totalProducts) / float64(limit)))

		// 3. Get paginated products
		products, err := store.GetProducts(filters)
		if err != nil {
			http.Error(w, "Failed to get products", http.StatusInternalServerError)
			return
		}

		// 4. Build final response
		response := models.ProductsResponse{
			Data: products,
			Pagination: models.Pagination{
				TotalPages:  totalPages,
				CurrentPage: page,
			},
		}

		// 5. Send JSON response with UTF-8 header
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

func searchImagesHandler(searcher ImageSearcher, detector ColumnDetector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, ok := processUpload(w, r, searcher, detector)
		if !ok {
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := json.NewEncoder(w).Encode(models.SearchResponse{Results: results}); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

func searchImagesDownloadHandler(searcher ImageSearcher, detector ColumnDetector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, ok := processUpload(w, r, searcher, detector)
		if !ok {
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="product_images.csv"`)
		if err := sink.WriteImageResultsCSV(w, results); err != nil {
			log.Printf("Failed to stream results csv: %v", err)
		}
	}
}

// processUpload handles the shared half of both search endpoints: validate
// the multipart CSV, detect its columns, and run the batch search. A false
// return means the response has already been written.
func processUpload(w http.ResponseWriter, r *http.Request, searcher ImageSearcher, detector ColumnDetector) ([]models.ImageResult, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "A CSV file upload named 'file' is required", http.StatusBadRequest)
		return nil, false
	}
	defer file.Close()

	log.Printf("Received search request for file: %s", header.Filename)
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		log.Printf("Invalid file type attempted: %s", header.Filename)
		http.Error(w, "Invalid file type. Please upload a CSV file.", http.StatusBadRequest)
		return nil, false
	}

	table, err := mapper.ReadTable(file)
	if err != nil {
		http.Error(w, "Could not parse the uploaded CSV file", http.StatusBadRequest)
		return nil, false
	}
	if len(table.Rows) == 0 {
		log.Println("Uploaded CSV file is empty")
		http.Error(w, "The uploaded CSV file is empty.", http.StatusBadRequest)
		return nil, false
	}

	mapping := detector.DetectColumns(r.Context(), table)
	products := table.Column(mapping.ProductName)
	log.Printf("Processing %d products from %s", len(products), header.Filename)

	return searcher.FindProductImages(r.Context(), products, searchWorkers), true
}
