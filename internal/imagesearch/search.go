// Package imagesearch finds packshot-style product images through the
// Google Custom Search JSON API. Results are filtered to plain image files
// of sensible dimensions, scored against the product name, and cached so
// repeat lookups never hit the API.
package imagesearch

import (
	"ShelfScraper/internal/models"
	"ShelfScraper/pkg/config"
	"ShelfScraper/utils"
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const searchEndpoint = "https://www.googleapis.com/customsearch/v1"

// cachePrefix namespaces cache keys by search backend.
const cachePrefix = "google:"

const (
	defaultMaxResults = 15
	pageSize          = 10
	topCandidates     = 5
	cacheCandidates   = 10
)

// Cache persists search candidates between runs. A nil history is a miss.
type Cache interface {
	GetCachedImages(query string) ([]string, error)
	SaveCachedImages(query string, urls []string) error
}

// imageItem is one search hit, title pre-lowered for keyword matching.
type imageItem struct {
	URL    string
	Title  string
	Width  int
	Height int
}

// searchResponse mirrors the fields we consume from the API payload.
type searchResponse struct {
	Items []struct {
		Link  string `json:"link"`
		Title string `json:"title"`
		Image struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"image"`
	} `json:"items"`
}

// Searcher queries Google Images and ranks the results for packshot use.
type Searcher struct {
	http     *resty.Client
	limiter  *rate.Limiter
	cache    Cache
	endpoint string

	apiKey     string
	engineID   string
	maxResults int
}

// NewSearcher builds a searcher from config. cache may be nil to disable
// caching. TLS verification is only relaxed when the config says so; some
// deployment proxies re-sign the Google endpoint certificate.
func NewSearcher(cfg config.SearchConfig, cache Cache) *Searcher {
	client := resty.New()
	if cfg.InsecureSkipVerify {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	return &Searcher{
		http:       client,
		limiter:    rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		cache:      cache,
		endpoint:   searchEndpoint,
		apiKey:     cfg.ApiKey,
		engineID:   cfg.SearchEngineID,
		maxResults: maxResults,
	}
}

// searchImages pages through the API ten results at a time until maxResults
// are collected or the results run out. Whatever was collected before an
// error is still returned.
func (s *Searcher) searchImages(ctx context.Context, query string) ([]imageItem, error) {
	log.Printf("Searching Google Images for: '%s'", query)

	var images []imageItem
	start := 1

	for len(images) < s.maxResults {
		if err := s.limiter.Wait(ctx); err != nil {
			return images, err
		}

		num := s.maxResults - len(images)
		if num > pageSize {
			num = pageSize
		}

		var payload searchResponse
		res, err := s.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"key":        s.apiKey,
				"cx":         s.engineID,
				"q":          query,
				"searchType": "image",
				"num":        strconv.Itoa(num),
				"start":      strconv.Itoa(start),
			}).
			SetResult(&payload).
			Get(s.endpoint)
		if err != nil {
			return images, fmt.Errorf("image search request failed: %w", err)
		}
		if !res.IsSuccess() {
			return images, fmt.Errorf("image search returned %s", res.Status())
		}

		if len(payload.Items) == 0 {
			break
		}
		for _, item := range payload.Items {
			images = append(images, imageItem{
				URL:    item.Link,
				Title:  strings.ToLower(item.Title),
				Width:  item.Image.Width,
				Height: item.Image.Height,
			})
		}

		log.Printf("Found %d items in current page. Total so far: %d", len(payload.Items), len(images))
		start += pageSize
	}

	return images, nil
}

var multipackKeywords = []string{"pack", "bundle", "combo", "set"}

// multipackTitleMarkers disqualify results when the product itself is not a
// multipack.
var multipackTitleMarkers = []string{"2 pack", "3 pack", "bundle", "multipack"}

func isMultipack(product string) bool {
	lower := strings.ToLower(product)
	for _, k := range multipackKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

type scoredURL struct {
	score int
	url   string
}

// scoreResults filters raw hits down to plausible packshots and ranks them:
// title keyword overlap dominates, with small bonuses for transparent PNGs
// and mid-range dimensions.
func scoreResults(product string, results []imageItem) []scoredURL {
	multipack := isMultipack(product)
	keywords := wordSet(strings.ToLower(product))

	var scored []scoredURL
	for _, r := range results {
		lower := strings.ToLower(r.URL)
		if !strings.HasSuffix(lower, ".jpg") && !strings.HasSuffix(lower, ".jpeg") && !strings.HasSuffix(lower, ".png") {
			continue
		}
		if r.Width > 0 && r.Height > 0 {
			if r.Width < 400 || r.Height < 400 || r.Width > 2500 || r.Height > 2500 {
				continue
			}
		}
		if !multipack && containsAny(r.Title, multipackTitleMarkers) {
			continue
		}

		score := 0
		for w := range wordSet(r.Title) {
			if keywords[w] {
				score += 10
			}
		}
		if strings.HasSuffix(lower, ".png") {
			score += 5
		}
		if r.Width >= 800 && r.Width <= 1500 && r.Height >= 800 && r.Height <= 1500 {
			score += 5
		}

		scored = append(scored, scoredURL{score: score, url: r.URL})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	return scored
}

// FindProductImage returns up to five candidate image URLs for a product,
// best first. Search failures degrade to whatever results arrived; the
// method itself never fails.
func (s *Searcher) FindProductImage(ctx context.Context, product string) []string {
	name := strings.TrimSpace(product)
	if name == "" {
		return nil
	}

	if s.cache != nil {
		cached, err := s.cache.GetCachedImages(cachePrefix + name)
		if err != nil {
			log.Printf("Image cache lookup failed for '%s': %v", name, err)
		} else if cached != nil {
			log.Printf("Cache hit for '%s' (%d entries)", name, len(cached))
			if len(cached) > topCandidates {
				cached = cached[:topCandidates]
			}
			return cached
		}
	}

	query := fmt.Sprintf("%s product packaging white background isolated", name)
	log.Printf("Beginning search for product: '%s' (Multipack: %v)", name, isMultipack(name))

	results, err := s.searchImages(ctx, query)
	if err != nil {
		log.Printf("Error during Google Image search: %v", err)
	}

	scored := scoreResults(name, results)
	if len(scored) == 0 {
		log.Printf("No suitable images found for: '%s'", name)
		return nil
	}

	urls := make([]string, 0, len(scored))
	for _, c := range scored {
		urls = append(urls, c.url)
	}
	// Cache more than we hand back so later lookups have depth to work with.
	candidates := utils.UniqueStrings(urls)
	if len(candidates) > cacheCandidates {
		candidates = candidates[:cacheCandidates]
	}

	if s.cache != nil {
		if err := s.cache.SaveCachedImages(cachePrefix+name, candidates); err != nil {
			log.Printf("Failed to cache candidates for '%s': %v", name, err)
		}
	}
	log.Printf("Found %d candidates for '%s'. Best score: %d", len(candidates), name, scored[0].score)

	if len(candidates) > topCandidates {
		candidates = candidates[:topCandidates]
	}
	return candidates
}

// FindProductImages runs image searches for a batch of products over a
// bounded worker pool, preserving input order in the results.
func (s *Searcher) FindProductImages(ctx context.Context, products []string, workers int) []models.ImageResult {
	results := make([]models.ImageResult, len(products))
	if len(products) == 0 {
		return results
	}

	if workers < 1 {
		workers = 1
	}
	if workers > len(products) {
		workers = len(products)
	}

	jobs := make(chan int, len(products))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				product := products[i]
				log.Printf("Processing product %d/%d: %s", i+1, len(products), product)

				candidates := s.FindProductImage(ctx, product)
				if candidates == nil {
					candidates = []string{}
				}

				result := models.ImageResult{Product: product, Candidates: candidates}
				if len(candidates) > 0 {
					result.ImageURL = candidates[0]
				}
				results[i] = result
			}
		}()
	}

	for i := range products {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
