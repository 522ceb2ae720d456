package sites

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Known site keys. GenericKey covers any URL that matches no known site.
const (
	KeyDeliveroo     = "deliveroo"
	KeyJustEat       = "justeat"
	KeySnappyShopper = "snappyshopper"
	GenericKey       = "generic"
)

// siteSignatures maps hostname substrings to site keys. Order matters: the
// first match wins, so the more specific entries come first.
var siteSignatures = []struct {
	key        string
	substrings []string
}{
	{KeyDeliveroo, []string{"deliveroo"}},
	{KeyJustEat, []string{"just-eat", "justeat"}},
	{KeySnappyShopper, []string{"snappyshopper", "snappy"}},
}

// Registry loads per-site configs from a YAML file and classifies target
// URLs into site keys. A missing config file is not an error: the registry
// stays empty and every site runs in auto-detection mode.
type Registry struct {
	path string

	mu      sync.RWMutex
	configs map[string]Config
}

// LoadRegistry reads the site config file at path. When the file does not
// exist the returned registry is empty but still usable.
func LoadRegistry(path string) (*Registry, error) {
	r := &Registry{path: path, configs: map[string]Config{}}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the config file, swapping in the new config set atomically.
// Classification keeps working against the old set until the swap.
func (r *Registry) Reload() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Site config %s not found, running with auto-detection only", r.path)
			r.mu.Lock()
			r.configs = map[string]Config{}
			r.mu.Unlock()
			return nil
		}
		return fmt.Errorf("reading site config %s: %w", r.path, err)
	}

	var raw struct {
		Sites map[string]Config `yaml:"sites"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing site config %s: %w", r.path, err)
	}

	configs := make(map[string]Config, len(raw.Sites))
	for key, cfg := range raw.Sites {
		cfg.Key = key
		configs[key] = cfg
	}

	r.mu.Lock()
	r.configs = configs
	r.mu.Unlock()
	log.Printf("Loaded %d site configs from %s", len(configs), r.path)
	return nil
}

// Classify maps a target URL to a site key by matching known substrings
// against the hostname. Unknown or unparseable URLs classify as generic.
func (r *Registry) Classify(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return GenericKey
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return GenericKey
	}
	for _, sig := range siteSignatures {
		for _, sub := range sig.substrings {
			if strings.Contains(host, sub) {
				return sig.key
			}
		}
	}
	return GenericKey
}

// ConfigFor returns the config for a site key. Keys without an entry get a
// zero config carrying just the key, so callers never deal with a miss.
func (r *Registry) ConfigFor(key string) Config {
	r.mu.RLock()
	cfg, ok := r.configs[key]
	r.mu.RUnlock()
	if !ok {
		return Config{Key: key}
	}
	return cfg
}

// Keys returns the keys of all loaded site configs.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.configs))
	for k := range r.configs {
		keys = append(keys, k)
	}
	return keys
}
