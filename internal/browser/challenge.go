package browser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var challengeTitles = []string{
	"just a moment",
	"attention required",
	"access denied",
	"robot check",
	"verify you are human",
}

const challengeSelectors = "#challenge-form, #challenge-running, #cf-challenge-running, iframe[src*='challenges.cloudflare.com']"

// DetectChallenge reports whether the page source is an anti-bot
// interstitial rather than the store itself.
func DetectChallenge(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		lower := strings.ToLower(html)
		return strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge")
	}

	title := strings.ToLower(doc.Find("title").Text())
	for _, marker := range challengeTitles {
		if strings.Contains(title, marker) {
			return true
		}
	}

	if doc.Find(challengeSelectors).Length() > 0 {
		return true
	}

	body := strings.ToLower(doc.Find("body").Text())
	return strings.Contains(body, "cloudflare") && strings.Contains(body, "challenge")
}
