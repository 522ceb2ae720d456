package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"ShelfScraper/internal/sites"
)

// nameClassPatterns are class name fragments that usually mark a product
// title on sites without an explicit extraction config.
var nameClassPatterns = []string{
	"product-name", "product-title", "item-name", "item-title",
	"product_name", "product_title", "item_name", "item_title",
	"name", "title",
}

// commonNonNames are whole texts that never are product names.
var commonNonNames = []string{
	"from", "your current order", "order", "current", "popular", "view all", "add",
}

// resolveName finds the product name for a price element. A configured XPath
// rule runs first; when it yields nothing usable the automatic strategies
// take over. Empty return means no name, which drops the product.
func resolveName(priceEl Element, rule sites.NameRule) string {
	if rule.XPath != "" {
		if name := configuredName(priceEl, rule); name != "" {
			return name
		}
	}
	return autoName(priceEl)
}

// configuredName evaluates the site's name XPath relative to the price
// element and returns the first candidate surviving the filter chain. Only
// the first line of multi-line texts counts.
func configuredName(priceEl Element, rule sites.NameRule) string {
	for _, el := range relatedElements(priceEl, rule.XPath) {
		text := strings.TrimSpace(elementText(el))
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = strings.TrimSpace(text[:i])
		}
		if passesTextFilters(text, rule.Filters) {
			return text
		}
	}
	return ""
}

// autoName walks up from the price element looking for a plausible product
// name: first heading tags, then title-like class names, then any paragraph
// or span with substantial text.
func autoName(priceEl Element) string {
	for level := 1; level <= 5; level++ {
		q := fmt.Sprintf("ancestor::*[%d]//h1 | ancestor::*[%d]//h2 | ancestor::*[%d]//h3 | ancestor::*[%d]//h4",
			level, level, level, level)
		for _, el := range relatedElements(priceEl, q) {
			text := strings.TrimSpace(elementText(el))
			if utf8.RuneCountInString(text) >= 3 && !strings.ContainsAny(text, "£$") {
				return text
			}
		}
	}

	for level := 1; level <= 5; level++ {
		for _, pattern := range nameClassPatterns {
			q := fmt.Sprintf("ancestor::*[%d]//*[contains(@class, '%s')]", level, pattern)
			for _, el := range relatedElements(priceEl, q) {
				text := strings.TrimSpace(elementText(el))
				if utf8.RuneCountInString(text) >= 3 && !strings.ContainsAny(text, "£$") {
					return text
				}
			}
		}
	}

	for level := 1; level <= 4; level++ {
		q := fmt.Sprintf("ancestor::*[%d]//p | ancestor::*[%d]//span", level, level)
		for _, el := range relatedElements(priceEl, q) {
			text := strings.TrimSpace(elementText(el))
			if utf8.RuneCountInString(text) >= 10 &&
				!strings.ContainsAny(text, "£$") &&
				!strings.Contains(strings.ToLower(text), "cal") {
				if i := strings.IndexByte(text, '\n'); i >= 0 {
					return text[:i]
				}
				return text
			}
		}
	}

	return ""
}

// passesTextFilters applies a site's configured name filters to a candidate
// text. Unknown filter names are ignored so configs stay forward compatible.
func passesTextFilters(text string, filters []string) bool {
	if text == "" {
		return false
	}
	for _, f := range filters {
		switch {
		case f == "no_price":
			if strings.ContainsAny(text, "£$") {
				return false
			}
		case f == "no_calories":
			if strings.Contains(strings.ToLower(text), "cal") {
				return false
			}
		case f == "no_from_prefix":
			if strings.HasPrefix(text, "From") {
				return false
			}
		case f == "no_your_current_prefix":
			if strings.HasPrefix(text, "Your Current") {
				return false
			}
		case f == "no_digit_only":
			if digitsOnly(text) {
				return false
			}
		case strings.HasPrefix(f, "min_length:"):
			n, err := strconv.Atoi(strings.TrimPrefix(f, "min_length:"))
			if err == nil && utf8.RuneCountInString(text) < n {
				return false
			}
		case f == "no_common_words":
			lower := strings.ToLower(text)
			for _, w := range commonNonNames {
				if lower == w {
					return false
				}
			}
		}
	}
	return true
}

// digitsOnly reports whether text is purely numeric once separators are
// stripped, e.g. "1,200" or "3.5".
func digitsOnly(text string) bool {
	stripped := strings.NewReplacer(".", "", ",", "").Replace(text)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
