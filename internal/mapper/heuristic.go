package mapper

import (
	"log"
	"regexp"
	"strings"
)

// sampleSize bounds how many values per column the heuristics inspect.
const sampleSize = 10

var (
	imageExtRe     = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp|gif)`)
	imageCDNRe     = regexp.MustCompile(`(?i)(bbimages|/images?/|media\.|cdn\.|static\.|assets\.)`)
	searchLinkRe   = regexp.MustCompile(`(?i)(search\?|product-search|keywords=|/products?/[^/]*$)`)
	trailingZeroRe = regexp.MustCompile(`\.0+$`)
	allDigitsRe    = regexp.MustCompile(`^\d+$`)
	numericLikeRe  = regexp.MustCompile(`^[\d\-.]+$`)
	indexLikeRe    = regexp.MustCompile(`^\d+[-_]\d+$`)
	rrpSampleRe    = regexp.MustCompile(`(?i)rrp\s*£?\d`)
)

// detectColumnsHeuristic inspects header names and sample values to find the
// four target columns without any AI help. Columns are claimed in order so
// one column never serves two fields.
func detectColumnsHeuristic(t Table) ColumnMapping {
	var m ColumnMapping

	m.ImageURL = bestImageColumn(t, nil)
	m.Price = priceColumn(t, claimedSet(m.ImageURL))
	m.BookerID = bestIDColumn(t, claimedSet(m.ImageURL, m.Price))
	m.ProductName = bestNameColumn(t, claimedSet(m.ImageURL, m.Price, m.BookerID))

	// Last resorts keep the search usable even on odd uploads.
	if m.ProductName == "" {
		m.ProductName = firstUnclaimedColumn(t, claimedSet(m.ImageURL, m.Price, m.BookerID))
	}
	if m.Price == "" {
		m.Price = firstColumnMatching(t, func(v string) bool {
			return strings.Contains(strings.ToLower(v), "rrp")
		}, sampleSize)
	}
	if m.ImageURL == "" {
		m.ImageURL = firstColumnMatching(t, func(v string) bool {
			return strings.HasPrefix(v, "http")
		}, 5)
	}

	log.Printf("Heuristic column mapping: %+v", m)
	return m
}

// bestImageColumn scores URL-dominated columns on name hints, image
// extensions, and CDN-looking hosts; product-page links count against.
func bestImageColumn(t Table, claimed map[string]bool) string {
	best, bestScore := "", -1.0
	for i, col := range t.Headers {
		if claimed[col] {
			continue
		}
		samples := t.samples(i, sampleSize)
		if len(samples) == 0 {
			continue
		}

		urlCount := 0
		for _, v := range samples {
			if strings.HasPrefix(v, "http") {
				urlCount++
			}
		}
		if urlCount*2 < len(samples) {
			continue // not a URL column at all
		}

		score := 0.0
		cl := strings.ToLower(col)
		if containsAny(cl, "image", "img", "photo", "picture", "thumbnail") {
			score += 15
		}
		if containsAny(cl, "url", "link", "src") {
			score += 5
		}
		for _, v := range samples {
			if imageExtRe.MatchString(v) {
				score += 10
			}
			if imageCDNRe.MatchString(v) {
				score += 8
			}
			if searchLinkRe.MatchString(v) {
				score -= 10
			}
		}

		if score > bestScore {
			bestScore = score
			best = col
		}
	}
	return best
}

// priceColumn takes the first column named like a price or whose samples
// carry an RRP amount.
func priceColumn(t Table, claimed map[string]bool) string {
	for i, col := range t.Headers {
		if claimed[col] {
			continue
		}
		cl := strings.ToLower(col)
		if containsAny(cl, "rrp", "price", "cost", "retail") {
			return col
		}
		if rrpSampleRe.MatchString(strings.Join(t.samples(i, sampleSize), " ")) {
			return col
		}
	}
	return ""
}

// bestIDColumn looks for all-numeric columns averaging 5 to 8 digits.
// Shorter, consistent IDs win; 8-digit scrape artifacts are penalised.
func bestIDColumn(t Table, claimed map[string]bool) string {
	best, bestScore := "", -1.0
	for i, col := range t.Headers {
		if claimed[col] {
			continue
		}
		samples := t.samples(i, sampleSize)
		if len(samples) == 0 {
			continue
		}

		var lengths []int
		numeric := true
		for _, v := range samples {
			// Normalise float-formatted integers: "287776.0" -> "287776".
			v = trailingZeroRe.ReplaceAllString(strings.TrimSpace(v), "")
			if v == "" {
				continue
			}
			if !allDigitsRe.MatchString(v) {
				numeric = false
				break
			}
			lengths = append(lengths, len(v))
		}
		if !numeric || len(lengths) == 0 {
			continue
		}

		sum, minLen, maxLen := 0, lengths[0], lengths[0]
		for _, l := range lengths {
			sum += l
			if l < minLen {
				minLen = l
			}
			if l > maxLen {
				maxLen = l
			}
		}
		avg := float64(sum) / float64(len(lengths))
		if avg <= 4.5 || avg >= 8.5 {
			continue
		}

		score := 0.0
		cl := strings.ToLower(col)
		if containsAny(cl, "booker", "product_id", "productid", "merchant", "item_id", "itemid", "sku", "code", "ref") {
			score += 15
		}
		if avg <= 6 {
			score += 10
		} else if avg >= 8 {
			score -= 10
		}
		score -= float64(maxLen-minLen) * 2

		if score > bestScore {
			bestScore = score
			best = col
		}
	}
	return best
}

// bestNameColumn rewards wordy, textual columns and skips anything that
// looks like URLs or bare identifiers.
func bestNameColumn(t Table, claimed map[string]bool) string {
	best, bestScore := "", -1.0
	for i, col := range t.Headers {
		if claimed[col] {
			continue
		}
		samples := t.samples(i, sampleSize)
		if len(samples) == 0 {
			continue
		}

		urlCount := 0
		for _, v := range samples {
			if strings.HasPrefix(v, "http") {
				urlCount++
			}
		}
		if urlCount*2 >= len(samples) {
			continue
		}

		if allMatch(samples, numericLikeRe) {
			continue
		}

		score := 0.0
		cl := strings.ToLower(col)
		if containsAny(cl, "name", "product", "title", "description", "desc", "item") {
			score += 10
		}
		if allMatch(samples, indexLikeRe) {
			score -= 20
		}

		words, chars := 0, 0
		for _, v := range samples {
			words += len(strings.Fields(v))
			chars += len(v)
		}
		score += float64(words) / float64(len(samples)) * 3
		score += float64(chars) / float64(len(samples)) * 0.5

		if score > bestScore {
			bestScore = score
			best = col
		}
	}
	return best
}

func firstUnclaimedColumn(t Table, claimed map[string]bool) string {
	for _, col := range t.Headers {
		if !claimed[col] {
			return col
		}
	}
	if len(t.Headers) > 0 {
		return t.Headers[0]
	}
	return ""
}

// firstColumnMatching returns the first column where any of the leading n
// samples satisfies the predicate.
func firstColumnMatching(t Table, match func(string) bool, n int) string {
	for i, col := range t.Headers {
		for _, v := range t.samples(i, n) {
			if match(v) {
				return col
			}
		}
	}
	return ""
}

func claimedSet(names ...string) map[string]bool {
	claimed := make(map[string]bool)
	for _, n := range names {
		if n != "" {
			claimed[n] = true
		}
	}
	return claimed
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func allMatch(values []string, re *regexp.Regexp) bool {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && !re.MatchString(v) {
			return false
		}
	}
	return true
}
