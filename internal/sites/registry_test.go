package sites

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClassify(t *testing.T) {
	r := &Registry{configs: map[string]Config{}}

	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"Deliveroo store page", "https://deliveroo.co.uk/menu/london/some-store", "deliveroo"},
		{"Just Eat with dash", "https://www.just-eat.co.uk/restaurants-somewhere", "justeat"},
		{"Just Eat without dash", "https://justeat.es/restaurante", "justeat"},
		{"Snappy Shopper full", "https://snappyshopper.co.uk/store/123", "snappyshopper"},
		{"Snappy short host", "https://snappy.example.com/shop", "snappyshopper"},
		{"Unknown supermarket", "https://www.groceries-r-us.com/aisle/4", "generic"},
		{"Scheme-less garbage", "not a url at all", "generic"},
		{"Empty string", "", "generic"},
		{"Deliveroo in path only", "https://example.com/deliveroo", "generic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Classify(tt.url); got != tt.expected {
				t.Errorf("Classify(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	r, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("LoadRegistry() on missing file: %v", err)
	}
	cfg := r.ConfigFor("deliveroo")
	if cfg.Key != "deliveroo" {
		t.Errorf("ConfigFor key = %q, want %q", cfg.Key, "deliveroo")
	}
	if cfg.RequiresPostcode {
		t.Error("zero config should not require a postcode")
	}
}

func TestLoadRegistryParsesConfigs(t *testing.T) {
	yml := `
sites:
  deliveroo:
    name: Deliveroo
    requires_postcode: true
    postcode: "SW1A 1AA"
    scroll_passes: 12
    postcode_selectors:
      popup_search_button: "//button[@data-testid='submit']"
    extraction:
      name:
        xpath: ".//ancestor::li//p[1]"
        filters: ["no_price", "min_length:3"]
      image:
        xpath: ".//ancestor::li//img"
        attribute: src
        trim_after: [".jpg", ".jpeg"]
  snappyshopper:
    name: Snappy Shopper
`
	path := filepath.Join(t.TempDir(), "sites.yml")
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry() error: %v", err)
	}

	cfg := r.ConfigFor("deliveroo")
	if !cfg.RequiresPostcode {
		t.Error("deliveroo config should require a postcode")
	}
	if cfg.Postcode != "SW1A 1AA" {
		t.Errorf("Postcode = %q, want %q", cfg.Postcode, "SW1A 1AA")
	}
	if cfg.ScrollPasses != 12 {
		t.Errorf("ScrollPasses = %d, want 12", cfg.ScrollPasses)
	}
	if cfg.PostcodeSelectors.PopupSearchButton == "" {
		t.Error("popup search button selector should survive the round trip")
	}
	if len(cfg.Extraction.Name.Filters) != 2 {
		t.Errorf("name filters = %v, want 2 entries", cfg.Extraction.Name.Filters)
	}
	if got := cfg.DisplayName(); got != "Deliveroo" {
		t.Errorf("DisplayName() = %q, want %q", got, "Deliveroo")
	}

	snappy := r.ConfigFor("snappyshopper")
	if snappy.Extraction.Name.XPath != "" {
		t.Errorf("snappy name xpath = %q, want empty (auto mode)", snappy.Extraction.Name.XPath)
	}

	if got := r.ConfigFor("generic").DisplayName(); got != "generic" {
		t.Errorf("generic DisplayName() = %q, want %q", got, "generic")
	}
}

func TestReloadSwapsConfigs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yml")
	if err := os.WriteFile(path, []byte("sites:\n  justeat:\n    scroll_passes: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	r, err := LoadRegistry(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.ConfigFor("justeat").ScrollPasses; got != 5 {
		t.Fatalf("ScrollPasses = %d, want 5", got)
	}

	if err := os.WriteFile(path, []byte("sites:\n  justeat:\n    scroll_passes: 9\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if got := r.ConfigFor("justeat").ScrollPasses; got != 9 {
		t.Errorf("ScrollPasses after reload = %d, want 9", got)
	}
}
