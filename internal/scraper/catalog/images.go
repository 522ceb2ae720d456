package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"ShelfScraper/internal/sites"
)

var styleURLRe = regexp.MustCompile(`url\(["']?([^"'()]+)["']?\)`)

// resolveImage finds the product image URL for a price element. Configured
// rules run first, the automatic strategies cover the rest. Empty return
// means no image; the product is still kept.
func resolveImage(priceEl Element, rule sites.ImageRule) string {
	if rule.XPath != "" {
		if u := configuredImage(priceEl, rule); u != "" {
			return u
		}
	}
	return autoImage(priceEl)
}

// configuredImage evaluates the site's image XPath and reads the configured
// attribute off the first element that yields a value. The srcset and style
// attributes get format-aware handling.
func configuredImage(priceEl Element, rule sites.ImageRule) string {
	attr := rule.Attribute
	if attr == "" {
		attr = "src"
	}

	imageURL := ""
	for _, el := range relatedElements(priceEl, rule.XPath) {
		val := elementAttr(el, attr)
		if val == "" && rule.FallbackAttribute != "" {
			val = elementAttr(el, rule.FallbackAttribute)
		}
		if val == "" {
			continue
		}

		switch attr {
		case "srcset":
			urls := parseSrcset(val)
			if len(urls) == 0 {
				continue
			}
			idx := -1
			if rule.SrcsetIndex != nil {
				idx = *rule.SrcsetIndex
			}
			if idx < 0 {
				idx += len(urls)
			}
			if idx < 0 || idx >= len(urls) {
				return ""
			}
			imageURL = normalizeURL(urls[idx], rule.BaseURL)
		case "style":
			re := styleURLRe
			if rule.Pattern != "" {
				custom, err := regexp.Compile(rule.Pattern)
				if err != nil {
					return ""
				}
				re = custom
			}
			m := re.FindStringSubmatch(val)
			if len(m) < 2 {
				continue
			}
			imageURL = normalizeURL(m[1], rule.BaseURL)
		default:
			imageURL = normalizeURL(val, rule.BaseURL)
		}
		break
	}

	if imageURL == "" {
		return ""
	}
	imageURL = trimAfterMarker(imageURL, rule.TrimAfter)
	return brandFixups(imageURL)
}

// autoImage walks up from the price element looking for an image: img tags
// first, then div[role=img] backgrounds, then any styled background image.
func autoImage(priceEl Element) string {
	for level := 1; level <= 5; level++ {
		q := fmt.Sprintf("ancestor::*[%d]//img", level)
		for _, img := range relatedElements(priceEl, q) {
			if src := elementAttr(img, "src"); strings.HasPrefix(src, "http") {
				return normalizeImageExt(src)
			}
			if srcset := elementAttr(img, "srcset"); srcset != "" {
				if urls := parseSrcset(srcset); len(urls) > 0 {
					// Last srcset entry is the highest resolution.
					return normalizeImageExt(urls[len(urls)-1])
				}
			}
		}
	}

	for level := 1; level <= 5; level++ {
		q := fmt.Sprintf("ancestor::*[%d]//div[@role='img']", level)
		for _, div := range relatedElements(priceEl, q) {
			style := elementAttr(div, "style")
			if !strings.Contains(style, "url(") {
				continue
			}
			if m := styleURLRe.FindStringSubmatch(style); len(m) > 1 {
				return normalizeImageExt(m[1])
			}
		}
	}

	for level := 1; level <= 4; level++ {
		q := fmt.Sprintf("ancestor::*[%d]//*[@style]", level)
		for _, el := range relatedElements(priceEl, q) {
			style := elementAttr(el, "style")
			if !strings.Contains(style, "background-image") || !strings.Contains(style, "url(") {
				continue
			}
			if m := styleURLRe.FindStringSubmatch(style); len(m) > 1 {
				return normalizeImageExt(m[1])
			}
		}
	}

	return ""
}

// parseSrcset returns the URL of every srcset entry, dropping the width
// descriptors.
func parseSrcset(srcset string) []string {
	var urls []string
	for _, part := range strings.Split(srcset, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		urls = append(urls, strings.Fields(part)[0])
	}
	return urls
}

// normalizeURL resolves scheme-relative and site-relative URLs against the
// configured base.
func normalizeURL(url, base string) string {
	switch {
	case url == "":
		return ""
	case strings.HasPrefix(url, "http"):
		return url
	case strings.HasPrefix(url, "//"):
		return "https:" + url
	case strings.HasPrefix(url, "/"):
		if base != "" {
			return base + url
		}
		return url
	default:
		if base != "" {
			return base + "/" + url
		}
		return url
	}
}

// normalizeImageExt cuts an image URL right after its .jpg or .jpeg
// extension, dropping CDN sizing suffixes.
func normalizeImageExt(url string) string {
	lower := strings.ToLower(url)
	if pos := strings.Index(lower, ".jpg"); pos >= 0 {
		return url[:pos+4]
	}
	if pos := strings.Index(lower, ".jpeg"); pos >= 0 {
		return url[:pos+5]
	}
	return url
}

// trimAfterMarker truncates an image URL just past the first configured
// marker, keeping the marker itself. Matching ignores case.
func trimAfterMarker(url string, markers []string) string {
	lower := strings.ToLower(url)
	for _, m := range markers {
		if m == "" {
			continue
		}
		if pos := strings.Index(lower, m); pos >= 0 {
			return url[:pos+len(m)]
		}
	}
	return url
}

// brandFixups patches URLs for CDNs with known quirks. Just Eat serves
// images without an extension and downstream consumers need one.
func brandFixups(url string) string {
	lower := strings.ToLower(url)
	if strings.Contains(lower, "just-eat") &&
		!strings.HasSuffix(lower, ".jpg") && !strings.HasSuffix(lower, ".jpeg") {
		return url + ".jpg"
	}
	return url
}
