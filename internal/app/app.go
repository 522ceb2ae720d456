// Package app wires the application together: config, database, site
// registry and the browser-backed scrape workflow.
package app

import (
	"ShelfScraper/internal/browser"
	"ShelfScraper/internal/database"
	"ShelfScraper/internal/imagesearch"
	"ShelfScraper/internal/models"
	"ShelfScraper/internal/scraper"
	"ShelfScraper/internal/scraper/catalog"
	"ShelfScraper/internal/sink"
	"ShelfScraper/internal/sites"
	"ShelfScraper/pkg/config"
	"ShelfScraper/utils"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/google/uuid"
)

// App is the main application structure holding all dependencies.
type App struct {
	Config   *config.Config
	Repo     *database.Repository
	Registry *sites.Registry
}

// New creates a new application instance with all initial settings.
func New() *App {
	cfg := config.LoadConfig("config.yml")
	repo := database.InitDB("products.db")

	sitesFile := cfg.Scraper.SitesFile
	if sitesFile == "" {
		sitesFile = "sites.yml"
	}
	registry, err := sites.LoadRegistry(sitesFile)
	if err != nil {
		log.Fatalf("Failed to load site configs: %v", err)
	}

	return &App{
		Config:   cfg,
		Repo:     repo,
		Registry: registry,
	}
}

// RunCatalogScraper scrapes every URL in the comma-separated list, fanning
// out over a worker pool with one browser per worker. Each site's products
// go to the database under a fresh run ID and to a CSV next to it.
func (a *App) RunCatalogScraper(urlList string) {
	log.Println("--- Starting Catalog Scraping Task ---")

	var urls []string
	for _, u := range strings.Split(urlList, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	urls = utils.UniqueStrings(urls)
	if len(urls) == 0 {
		log.Println("No target URLs given. Task finished.")
		return
	}
	log.Printf("Found %d catalog URLs to scrape.", len(urls))

	numWorkers := utils.GetOptimalWorkerCount(a.Config.Scraper.Workers)
	if numWorkers > len(urls) {
		numWorkers = len(urls)
	}
	jobs := make(chan string, len(urls))
	results := make(chan error, len(urls))

	// Start workers
	for w := 1; w <= numWorkers; w++ {
		go func(workerID int) {
			workerLauncher := launcher.New().Headless(a.Config.Scraper.Headless).MustLaunch()
			workerBrowser := rod.New().ControlURL(workerLauncher).MustConnect()
			defer workerBrowser.MustClose()

			for url := range jobs {
				log.Printf("[Worker %d] Scraping catalog: %s", workerID, url)
				results <- a.scrapeOne(workerBrowser, url)
			}
		}(w)
	}

	// Send jobs
	for _, u := range urls {
		jobs <- u
	}
	close(jobs)

	// Collect results
	var failed int
	for i := 0; i < len(urls); i++ {
		if err := <-results; err != nil {
			log.Printf("Scrape failed: %v", err)
			failed++
		}
	}
	log.Printf("--- Catalog Scraping Task Finished. %d of %d sites succeeded. ---", len(urls)-failed, len(urls))
}

// scrapeOne runs a full scrape of one catalog URL on its own browser page.
// Products collected before a mid-scrape failure are still saved.
func (a *App) scrapeOne(b *rod.Browser, url string) error {
	siteKey := a.Registry.Classify(url)
	siteCfg := a.Registry.ConfigFor(siteKey)

	session, err := browser.NewSession(b)
	if err != nil {
		return fmt.Errorf("opening session for %s: %w", url, err)
	}
	defer session.Close()

	run := models.ScrapeRun{
		ID:          uuid.NewString(),
		SiteKey:     siteKey,
		DisplayName: siteCfg.DisplayName(),
		TargetURL:   url,
		StartedAt:   time.Now(),
	}
	if err := a.Repo.SaveRun(run); err != nil {
		log.Printf("Failed to record scrape run %s: %v", run.ID, err)
	}

	var engine scraper.SiteScraper = newEngine(session, siteKey, siteCfg)
	products, scrapeErr := engine.Run(url)

	var saved int
	for _, p := range products {
		if err := a.Repo.SaveProduct(run.ID, siteKey, p); err == nil {
			saved++
		}
	}
	if saved < len(products) {
		log.Printf("Saved only %d of %d products for run %s", saved, len(products), run.ID)
	}
	run.ProductCount = len(products)
	run.FinishedAt = time.Now()
	if err := a.Repo.SaveRun(run); err != nil {
		log.Printf("Failed to finalize scrape run %s: %v", run.ID, err)
	}

	if _, err := sink.WriteProductsCSV(a.Config.Scraper.OutputDir, siteCfg.DisplayName(), products); err != nil {
		log.Printf("Failed to write products CSV for %s: %v", siteCfg.DisplayName(), err)
	}

	if scrapeErr != nil {
		return fmt.Errorf("scraping %s (kept %d partial products): %w", url, len(products), scrapeErr)
	}
	return nil
}

func newEngine(session *browser.Session, siteKey string, siteCfg sites.Config) *catalog.Scraper {
	s := catalog.NewScraper(session, siteKey, siteCfg)
	s.ChallengeCheck = browser.DetectChallenge
	return s
}

// RunImageSearch looks up packshot images for a single product name and
// prints the ranked candidates.
func (a *App) RunImageSearch(query string) {
	if strings.TrimSpace(query) == "" {
		log.Println("No search query given. Task finished.")
		return
	}

	searcher := imagesearch.NewSearcher(a.Config.Search, a.Repo)
	urls := searcher.FindProductImage(context.Background(), query)
	if len(urls) == 0 {
		log.Printf("No images found for '%s'.", query)
		return
	}
	for i, u := range urls {
		fmt.Printf("%d. %s\n", i+1, u)
	}
}

// ReloadSites re-reads the site config file, picking up edits without a
// restart.
func (a *App) ReloadSites() error {
	return a.Registry.Reload()
}
