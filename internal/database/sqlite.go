package database

import (
	"ShelfScraper/internal/models"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// Repository wraps the sqlite connection used for scrape persistence.
type Repository struct {
	DB *sql.DB
}

// InitDB opens (or creates) the database file and prepares all tables.
func InitDB(filepath string) *Repository {
	db, err := sql.Open("sqlite", filepath)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	if err = db.Ping(); err != nil {
		log.Fatalf("Error pinging database: %v", err)
	}

	createRunsTableSQL := `
	CREATE TABLE IF NOT EXISTS scrape_runs (
		"id" TEXT NOT NULL PRIMARY KEY,
		"site_key" TEXT,
		"display_name" TEXT,
		"target_url" TEXT,
		"product_count" INTEGER DEFAULT 0,
		"started_at" DATETIME,
		"finished_at" DATETIME
	);`
	_, err = db.Exec(createRunsTableSQL)
	if err != nil {
		log.Fatalf("Error creating scrape_runs table: %v", err)
	}

	createProductsTableSQL := `
	CREATE TABLE IF NOT EXISTS products (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"run_id" TEXT,
		"site_key" TEXT,
		"name" TEXT,
		"price" TEXT,
		"image_url" TEXT,
		"scraped_at" DATETIME,
		UNIQUE(site_key, name, price, image_url)
	);`
	_, err = db.Exec(createProductsTableSQL)
	if err != nil {
		log.Fatalf("Error creating products table: %v", err)
	}

	createCacheTableSQL := `
	CREATE TABLE IF NOT EXISTS image_cache (
		"query" TEXT NOT NULL PRIMARY KEY,
		"urls" TEXT,
		"cached_at" DATETIME
	);`
	_, err = db.Exec(createCacheTableSQL)
	if err != nil {
		log.Fatalf("Error creating image_cache table: %v", err)
	}

	log.Println("Database and tables initialized successfully.")
	return &Repository{DB: db}
}

// Close closes the database connection.
func (repo *Repository) Close() {
	repo.DB.Close()
}

// SaveRun inserts a scrape run record, or finalizes it on re-save.
func (repo *Repository) SaveRun(run models.ScrapeRun) error {
	query := `
	INSERT INTO scrape_runs (id, site_key, display_name, target_url, product_count, started_at, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		product_count=excluded.product_count,
		finished_at=excluded.finished_at;
	`
	stmt, err := repo.DB.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(run.ID, run.SiteKey, run.DisplayName, run.TargetURL, run.ProductCount, run.StartedAt, run.FinishedAt)
	return err
}

// SaveProduct stores one extracted product under its run. A product seen in
// an earlier run refreshes its run_id and timestamp instead of duplicating.
func (repo *Repository) SaveProduct(runID, siteKey string, p models.Product) error {
	query := `
	INSERT INTO products (run_id, site_key, name, price, image_url, scraped_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(site_key, name, price, image_url) DO UPDATE SET
		run_id=excluded.run_id,
		scraped_at=excluded.scraped_at;
	`
	stmt, err := repo.DB.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(runID, siteKey, p.Name, p.Price, p.ImageURL, time.Now())
	if err != nil {
		log.Printf("Failed to save product %s: %v", p.Name, err)
		return err
	}
	return nil
}

// GetProducts retrieves a paginated list of products for the API.
func (repo *Repository) GetProducts(filters models.ProductFilters) ([]models.Product, error) {
	var args []interface{}
	query := "SELECT name, price, image_url FROM products"

	if filters.SiteKey != "" {
		query += " WHERE site_key = ?"
		args = append(args, filters.SiteKey)
	}
	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, filters.Limit, filters.Offset)

	rows, err := repo.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.Name, &p.Price, &p.ImageURL); err != nil {
			log.Printf("Error scanning product row: %v", err)
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// CountProducts returns the total number of stored products for pagination.
func (repo *Repository) CountProducts(siteKey string) (int, error) {
	var count int
	if siteKey != "" {
		err := repo.DB.QueryRow("SELECT COUNT(*) FROM products WHERE site_key = ?", siteKey).Scan(&count)
		return count, err
	}
	err := repo.DB.QueryRow("SELECT COUNT(*) FROM products").Scan(&count)
	return count, err
}

// GetCachedImages returns previously stored image candidates for a query,
// or nil when the query has never been cached.
func (repo *Repository) GetCachedImages(query string) ([]string, error) {
	var raw string
	err := repo.DB.QueryRow("SELECT urls FROM image_cache WHERE query = ?", query).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var urls []string
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		return nil, err
	}
	return urls, nil
}

// SaveCachedImages stores image candidates for a query, replacing any earlier set.
func (repo *Repository) SaveCachedImages(query string, urls []string) error {
	raw, err := json.Marshal(urls)
	if err != nil {
		return err
	}

	stmt, err := repo.DB.Prepare(`
	INSERT INTO image_cache (query, urls, cached_at) VALUES (?, ?, ?)
	ON CONFLICT(query) DO UPDATE SET urls=excluded.urls, cached_at=excluded.cached_at;
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(query, string(raw), time.Now())
	return err
}
