package catalog

import (
	"reflect"
	"testing"

	"ShelfScraper/internal/sites"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		base     string
		expected string
	}{
		{"absolute stays", "https://cdn.example/a.jpg", "https://shop.example", "https://cdn.example/a.jpg"},
		{"http stays", "http://cdn.example/a.jpg", "", "http://cdn.example/a.jpg"},
		{"scheme-relative gets https", "//cdn.example/a.png", "https://shop.example", "https://cdn.example/a.png"},
		{"site-relative joins base", "/img/x.jpg", "https://site.com", "https://site.com/img/x.jpg"},
		{"site-relative without base stays", "/img/x.jpg", "", "/img/x.jpg"},
		{"bare path joins with slash", "img/x.jpg", "https://site.com", "https://site.com/img/x.jpg"},
		{"empty stays empty", "", "https://site.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeURL(tt.url, tt.base); got != tt.expected {
				t.Errorf("normalizeURL(%q, %q) = %q, want %q", tt.url, tt.base, got, tt.expected)
			}
		})
	}
}

func TestNormalizeImageExt(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"jpg query stripped", "https://img/x.jpg?w=100", "https://img/x.jpg"},
		{"jpeg query stripped", "https://img/x.jpeg?quality=80&w=640", "https://img/x.jpeg"},
		{"case preserved", "https://img/PIE.JPG?w=1", "https://img/PIE.JPG"},
		{"no extension untouched", "https://img/x.webp?w=100", "https://img/x.webp?w=100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeImageExt(tt.url); got != tt.expected {
				t.Errorf("normalizeImageExt(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestTrimAfterMarker(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		markers  []string
		expected string
	}{
		{"cuts past marker", "https://img/x.jpg?w=100", []string{".jpg"}, "https://img/x.jpg"},
		{"first marker wins", "https://img/x.jpeg?w=1", []string{".jpeg", ".jpg"}, "https://img/x.jpeg"},
		{"ignores case", "https://img/PIE.JPG?w=1", []string{".jpg"}, "https://img/PIE.JPG"},
		{"no marker no change", "https://img/x.png", []string{".jpg"}, "https://img/x.png"},
		{"empty markers no change", "https://img/x.jpg?w=1", nil, "https://img/x.jpg?w=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trimAfterMarker(tt.url, tt.markers); got != tt.expected {
				t.Errorf("trimAfterMarker(%q, %v) = %q, want %q", tt.url, tt.markers, got, tt.expected)
			}
		})
	}
}

func TestBrandFixups(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"just-eat without extension", "https://just-eat-prod.cdn/products/abc123", "https://just-eat-prod.cdn/products/abc123.jpg"},
		{"just-eat with jpg kept", "https://just-eat-prod.cdn/products/abc.jpg", "https://just-eat-prod.cdn/products/abc.jpg"},
		{"just-eat with jpeg kept", "https://just-eat-prod.cdn/products/abc.jpeg", "https://just-eat-prod.cdn/products/abc.jpeg"},
		{"other cdn untouched", "https://cdn.example/products/abc123", "https://cdn.example/products/abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := brandFixups(tt.url); got != tt.expected {
				t.Errorf("brandFixups(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestParseSrcset(t *testing.T) {
	got := parseSrcset(" a.jpg 100w, b.jpg 200w ,, c.jpg ")
	want := []string{"a.jpg", "b.jpg", "c.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseSrcset() = %v, want %v", got, want)
	}
}

func TestConfiguredImage(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		rule     sites.ImageRule
		expected string
	}{
		{
			"default src attribute with base",
			`<li><img src="/images/milk.jpg"><span class="target">£1.10</span></li>`,
			sites.ImageRule{XPath: `ancestor::*[1]//img`, BaseURL: "https://shop.example"},
			"https://shop.example/images/milk.jpg",
		},
		{
			"fallback attribute",
			`<li><img data-src="https://cdn.example/lazy.jpg"><span class="target">£1.10</span></li>`,
			sites.ImageRule{XPath: `ancestor::*[1]//img`, FallbackAttribute: "data-src"},
			"https://cdn.example/lazy.jpg",
		},
		{
			"empty first element is skipped",
			`<li><img class="placeholder"><img src="https://cdn.example/real.jpg"><span class="target">£1.10</span></li>`,
			sites.ImageRule{XPath: `ancestor::*[1]//img`},
			"https://cdn.example/real.jpg",
		},
		{
			"srcset defaults to last entry",
			`<li><img srcset="a.jpg 100w, b.jpg 200w, c.jpg 300w"><span class="target">£1.10</span></li>`,
			sites.ImageRule{XPath: `ancestor::*[1]//img`, Attribute: "srcset", BaseURL: "https://shop.example"},
			"https://shop.example/c.jpg",
		},
		{
			"srcset explicit index",
			`<li><img srcset="a.jpg 100w, b.jpg 200w, c.jpg 300w"><span class="target">£1.10</span></li>`,
			sites.ImageRule{XPath: `ancestor::*[1]//img`, Attribute: "srcset", SrcsetIndex: intp(0), BaseURL: "https://shop.example"},
			"https://shop.example/a.jpg",
		},
		{
			"style attribute with trim",
			`<li><div class="thumb" style="background-image: url('https://cdn.example/ham.png?w=420')"><span class="target">£2.40</span></div></li>`,
			sites.ImageRule{XPath: `ancestor::*[2]//div`, Attribute: "style", TrimAfter: []string{".png"}},
			"https://cdn.example/ham.png",
		},
		{
			"trim preserves case",
			`<li><img src="https://img.example/pie.JPG?width=300"><span class="target">£3.00</span></li>`,
			sites.ImageRule{XPath: `ancestor::*[1]//img`, TrimAfter: []string{".jpg"}},
			"https://img.example/pie.JPG",
		},
		{
			"just eat urls get an extension",
			`<li><img src="https://just-eat-prod.cdn/products/abc123"><span class="target">£3.00</span></li>`,
			sites.ImageRule{XPath: `ancestor::*[1]//img`},
			"https://just-eat-prod.cdn/products/abc123.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := priceElem(t, tt.body)
			if got := resolveImage(el, tt.rule); got != tt.expected {
				t.Errorf("resolveImage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAutoImage(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{
			"img src with sizing suffix",
			`<li><img src="https://cdn.example/milk.jpg?w=100"><div><span class="target">£1.00</span></div></li>`,
			"https://cdn.example/milk.jpg",
		},
		{
			"relative src falls through to srcset",
			`<li><img src="/local.png" srcset="small.jpg 1x, big.jpg 2x"><div><span class="target">£1.00</span></div></li>`,
			"big.jpg",
		},
		{
			"role img background",
			`<li><div role="img" style="background-image: url('https://cdn.example/cheese.jpeg;v=2')"></div><div><span class="target">£2.00</span></div></li>`,
			"https://cdn.example/cheese.jpeg",
		},
		{
			"styled background image",
			`<li><div><span class="bg" style="color: red; background-image: url(https://cdn.example/bg-tea.webp)"></span><span class="target">£2.00</span></div></li>`,
			"https://cdn.example/bg-tea.webp",
		},
		{
			"no image",
			`<li><div><span class="target">£2.00</span></div></li>`,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := priceElem(t, tt.body)
			if got := resolveImage(el, sites.ImageRule{}); got != tt.expected {
				t.Errorf("resolveImage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func intp(v int) *int { return &v }
