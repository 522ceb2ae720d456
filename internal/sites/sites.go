package sites

// NameRule tells the extractor where to look for a product name relative to a
// price element, and which filters a candidate text must survive.
type NameRule struct {
	XPath   string   `yaml:"xpath"`
	Filters []string `yaml:"filters"`
}

// ImageRule tells the extractor how to resolve a product image URL.
// Attribute defaults to "src"; "srcset" and "style" get special handling.
type ImageRule struct {
	XPath             string   `yaml:"xpath"`
	Attribute         string   `yaml:"attribute"`
	FallbackAttribute string   `yaml:"fallback_attribute"`
	SrcsetIndex       *int     `yaml:"srcset_index"`
	BaseURL           string   `yaml:"base_url"`
	Pattern           string   `yaml:"pattern"`
	TrimAfter         []string `yaml:"trim_after"`
}

// Extraction groups the per-site extraction rules.
type Extraction struct {
	Name  NameRule  `yaml:"name"`
	Image ImageRule `yaml:"image"`
}

// PostcodeSelectors holds site-specific overrides for the postcode workflow.
type PostcodeSelectors struct {
	PopupSearchButton string `yaml:"popup_search_button"`
}

// Config is the full per-site scraping configuration. An empty Config is
// valid and means auto-detection everywhere.
type Config struct {
	Key               string            `yaml:"-"`
	Name              string            `yaml:"name"`
	RequiresPostcode  bool              `yaml:"requires_postcode"`
	Postcode          string            `yaml:"postcode"`
	ScrollPasses      int               `yaml:"scroll_passes"`
	PostcodeSelectors PostcodeSelectors `yaml:"postcode_selectors"`
	Extraction        Extraction        `yaml:"extraction"`
}

// DisplayName returns the configured human-readable site name, falling back
// to the site key when the config carries none.
func (c Config) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	if c.Key != "" {
		return c.Key
	}
	return "Unknown Site"
}
