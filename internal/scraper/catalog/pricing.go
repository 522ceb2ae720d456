package catalog

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// priceCandidateXPath matches every element whose own text mentions a pound
// sign. Candidates are filtered down by isActualPrice afterwards.
const priceCandidateXPath = "//*[contains(text(), '£')]"

var (
	poundRangeRe   = regexp.MustCompile(`£\d+\.?\d*\s*-\s*£\d+\.?\d*`)
	anyRangeRe     = regexp.MustCompile(`[£$]\d+\.?\d*\s*-\s*[£$]\d+\.?\d*`)
	bundleDealRe   = regexp.MustCompile(`\d+\s+for\s+[£$€]`)
	priceLiteralRe = regexp.MustCompile(`[£$]\d+\.?\d*`)
	wasPriceRe     = regexp.MustCompile(`was [£$]\d+`)
)

// contextKeywords flag a price as promotional when they appear near it in the
// parent element's text.
var contextKeywords = []string{"off", "save", "was £", "was $", "for £", "for $"}

func priceCandidates(s Session) ([]Element, error) {
	return s.ElementsX(priceCandidateXPath)
}

// isActualPrice reports whether a candidate element holds a real product
// price rather than a strikethrough, discount amount, bundle deal or price
// range. Driver read failures count as valid: a flaky DOM read must not drop
// a product.
func isActualPrice(el Element) bool {
	text, err := el.Text()
	if err != nil {
		return true
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	if poundRangeRe.MatchString(text) {
		return false
	}

	if deco, err := el.Style("text-decoration"); err == nil && strings.Contains(deco, "line-through") {
		return false
	}

	lower := strings.ToLower(text)
	if bundleDealRe.MatchString(lower) {
		return false
	}
	if strings.Contains(lower, " off") || strings.Contains(lower, "save £") || strings.Contains(lower, "save $") {
		return false
	}
	if strings.HasPrefix(lower, "was ") || strings.HasPrefix(lower, "from ") || strings.HasPrefix(lower, "save ") {
		return false
	}

	if fs, err := el.Style("font-size"); err == nil && fs != "" {
		if size, perr := strconv.ParseFloat(strings.ReplaceAll(fs, "px", ""), 64); perr == nil && size < 12 {
			return false
		}
	}

	return !inPromoContext(el, lower)
}

// inPromoContext looks at the text surrounding the price inside its parent
// element. Discount wording within 30 characters either side marks the price
// as promotional. A "was £..." mention that leads up to this exact price is
// the normal current-price-next-to-old-price layout and does not count.
func inPromoContext(el Element, priceLower string) bool {
	parents, err := el.ElementsX("..")
	if err != nil || len(parents) == 0 {
		return false
	}
	parentText, err := parents[0].Text()
	if err != nil {
		return false
	}
	parentLower := strings.ToLower(parentText)
	if utf8.RuneCountInString(parentLower) < 20 {
		return false
	}

	byteIdx := strings.Index(parentLower, priceLower)
	if byteIdx < 0 {
		return false
	}
	runes := []rune(parentLower)
	pos := utf8.RuneCountInString(parentLower[:byteIdx])
	plen := utf8.RuneCountInString(priceLower)

	start := pos - 30
	if start < 0 {
		start = 0
	}
	end := pos + plen + 30
	if end > len(runes) {
		end = len(runes)
	}
	window := string(runes[start:end])

	for _, kw := range contextKeywords {
		if !strings.Contains(window, kw) {
			continue
		}
		if kw == "was £" || kw == "was $" {
			// Waive only when this exact price literal follows a "was"
			// mention somewhere in the window.
			if loc := wasPriceRe.FindStringIndex(window); loc != nil && strings.Contains(window[loc[1]:], priceLower) {
				continue
			}
		}
		return true
	}
	return false
}

// priceLiteral extracts the first plain price from an element's text, e.g.
// "£2.50" out of "£2.50 each". Texts that are price ranges or carry no
// currency yield ok false.
func priceLiteral(text string) (string, bool) {
	if anyRangeRe.MatchString(text) {
		return "", false
	}
	if !strings.Contains(text, "£") && !strings.Contains(text, "$") {
		return "", false
	}
	m := priceLiteralRe.FindString(text)
	if m == "" {
		return "", false
	}
	return m, true
}
