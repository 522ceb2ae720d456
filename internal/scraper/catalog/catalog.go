// Package catalog scrapes product listings from scroll-loaded storefront
// pages. It works from price elements outwards: anything priced is a product
// candidate, and name and image are resolved from the DOM around the price.
package catalog

import (
	"fmt"
	"log"
	"strings"
	"time"

	"ShelfScraper/internal/models"
	"ShelfScraper/internal/sites"
)

// Scraper runs a full catalog scrape over one browser session.
type Scraper struct {
	Session Session
	SiteKey string
	Site    sites.Config

	// ChallengeCheck inspects page HTML for an anti-bot interstitial. Left
	// nil, a plain marker check is used.
	ChallengeCheck func(html string) bool

	timing timings
	sleep  func(time.Duration)
}

func NewScraper(session Session, siteKey string, site sites.Config) *Scraper {
	return &Scraper{
		Session: session,
		SiteKey: siteKey,
		Site:    site,
		timing:  defaultTimings,
		sleep:   time.Sleep,
	}
}

// Run scrapes url end to end: navigate, wait out anti-bot checks, clear the
// postcode gate when the site needs one, then scroll and extract until the
// page stops growing. When the session fails mid-scrape the products found
// so far come back alongside the error.
func (s *Scraper) Run(url string) ([]models.Product, error) {
	log.Printf("Target: %s (%s)", s.Site.DisplayName(), url)

	col := newCollector()

	if err := s.Session.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigating to %s: %w", url, err)
	}
	s.sleep(s.timing.initialWait)
	s.waitReady()
	s.waitOutChallenge()

	if s.postcodeRequired(url) {
		gate := newPostcodeGate(s.Session, s.Site, true)
		gate.sleep = s.sleep
		log.Printf("Postcode gate: %s", gate.Run())
		s.sleep(s.timing.postGateWait)
		s.sleep(s.timing.reloadWait)
		s.waitForProducts()
	}

	driver := &scrollDriver{
		session: s.Session,
		passes:  s.scrollPasses(),
		step:    scrollStep,
		timing:  s.timing,
		sleep:   s.sleep,
	}
	if err := driver.run(func() int { return s.extractViewport(col) }); err != nil {
		return col.Products(), err
	}

	s.extractFullPage(col)

	log.Printf("Total products extracted: %d", col.Count())
	return col.Products(), nil
}

func (s *Scraper) scrollPasses() int {
	if s.Site.ScrollPasses > 0 {
		return s.Site.ScrollPasses
	}
	return defaultScrollPasses
}

// postcodeRequired reports whether the target needs a delivery location
// before it shows a catalog. Deliveroo store-list pages always do; their
// menu pages never.
func (s *Scraper) postcodeRequired(url string) bool {
	if s.Site.RequiresPostcode {
		return true
	}
	return s.SiteKey == sites.KeyDeliveroo && !strings.Contains(url, "/menu/")
}

func (s *Scraper) waitReady() {
	for i := 0; i < 10; i++ {
		state, err := s.Session.ReadyState()
		if err == nil && state == "complete" {
			return
		}
		s.sleep(s.timing.pollInterval)
	}
}

// waitOutChallenge detects an anti-bot interstitial and gives it extra time
// to clear. The stealth launch handles most checks on its own.
func (s *Scraper) waitOutChallenge() {
	s.sleep(s.timing.challengeWait)

	html, err := s.Session.HTML()
	if err != nil {
		return
	}
	blocked := false
	if s.ChallengeCheck != nil {
		blocked = s.ChallengeCheck(html)
	} else {
		lower := strings.ToLower(html)
		blocked = strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge")
	}
	if blocked {
		log.Printf("Still on a challenge page, waiting it out")
		s.sleep(s.timing.blockedWait)
	}
}

// waitForProducts polls until the reloaded page shows a real product grid.
func (s *Scraper) waitForProducts() {
	for i := 0; i < 15; i++ {
		els, err := priceCandidates(s.Session)
		if err == nil && len(els) > 5 {
			log.Printf("Found %d price elements, page loaded", len(els))
			return
		}
		s.sleep(s.timing.pollInterval)
	}
	log.Printf("Product grid still sparse after postcode entry")
}

// extractViewport pulls products from the price elements currently visible
// and reports how many were new.
func (s *Scraper) extractViewport(col *collector) int {
	els, err := priceCandidates(s.Session)
	if err != nil {
		log.Printf("Viewport extraction failed: %v", err)
		return 0
	}

	added := 0
	for _, el := range els {
		inView, verr := el.InViewport()
		if verr != nil || !inView {
			continue
		}
		if !isActualPrice(el) {
			continue
		}
		p, ok := extractProduct(el, s.Site.Extraction)
		if !ok {
			continue
		}
		if col.Collect(p) {
			added++
		}
	}
	return added
}

// extractFullPage walks every price element regardless of viewport, catching
// products the incremental passes never had in view.
func (s *Scraper) extractFullPage(col *collector) {
	els, err := priceCandidates(s.Session)
	if err != nil {
		log.Printf("Full-page extraction failed: %v", err)
		return
	}

	added := 0
	for _, el := range els {
		if !isActualPrice(el) {
			continue
		}
		p, ok := extractProduct(el, s.Site.Extraction)
		if !ok {
			continue
		}
		if col.Collect(p) {
			added++
		}
	}
	if added > 0 {
		log.Printf("Full-page sweep found %d additional products", added)
	}
}
