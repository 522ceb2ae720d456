// Package mapper figures out which columns of an uploaded product CSV hold
// the product name, price, image URL, and merchant ID. A chain of AI
// providers is asked first; rule-based scoring covers every failure mode, so
// detection always produces a usable mapping.
package mapper

import (
	"ShelfScraper/pkg/config"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
)

// Table is a parsed CSV upload.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ReadTable parses an uploaded CSV into headers and data rows.
func ReadTable(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // uploads are often ragged
	records, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return Table{}, errors.New("csv file is empty")
	}

	t := Table{Headers: records[0]}
	if len(records) > 1 {
		t.Rows = records[1:]
	}
	return t, nil
}

// HasColumn reports whether name is one of the table headers.
func (t Table) HasColumn(name string) bool {
	return t.columnIndex(name) >= 0
}

// Column returns every non-empty value of the named column, trimmed.
func (t Table) Column(name string) []string {
	idx := t.columnIndex(name)
	if idx < 0 {
		return nil
	}

	var values []string
	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[idx]); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func (t Table) columnIndex(name string) int {
	if name == "" {
		return -1
	}
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// samples returns up to n leading non-empty values of column i.
func (t Table) samples(i, n int) []string {
	var values []string
	for _, row := range t.Rows {
		if i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			values = append(values, v)
			if len(values) == n {
				break
			}
		}
	}
	return values
}

// ColumnMapping names the detected source column for each target field.
// A field is empty when no plausible column was found.
type ColumnMapping struct {
	ProductName string `json:"product_name"`
	Price       string `json:"price"`
	ImageURL    string `json:"image_url"`
	BookerID    string `json:"booker_id"`
}

// Detector resolves uploaded CSV columns using an AI provider chain with a
// heuristic fallback.
type Detector struct {
	providers []Provider
}

// NewDetector creates a detector over an ordered provider chain. An empty
// chain is fine; detection then relies on heuristics alone.
func NewDetector(providers []Provider) *Detector {
	return &Detector{providers: providers}
}

// BuildProviderChain assembles the configured providers, primary first.
func BuildProviderChain(cfg *config.Config) []Provider {
	providerMap := make(map[string]config.ProviderConfig)
	for _, p := range cfg.Mapper.Providers {
		providerMap[p.Name] = p
	}

	var providers []Provider
	if primaryConf, ok := providerMap[cfg.Mapper.PrimaryProvider]; ok {
		log.Printf("Primary mapping provider set to: '%s'", primaryConf.Name)
		providers = append(providers, NewOpenAICompatibleClient(primaryConf.ApiURL, primaryConf.ApiKey, primaryConf.Model))
	} else if cfg.Mapper.PrimaryProvider != "" {
		log.Printf("Warning: Primary provider '%s' not found in config, continuing without AI mapping.", cfg.Mapper.PrimaryProvider)
	}

	for _, name := range cfg.Mapper.FallbackProviders {
		if fallbackConf, ok := providerMap[name]; ok {
			log.Printf("Fallback mapping provider added: '%s'", fallbackConf.Name)
			providers = append(providers, NewOpenAICompatibleClient(fallbackConf.ApiURL, fallbackConf.ApiKey, fallbackConf.Model))
		} else {
			log.Printf("Warning: Fallback provider '%s' not found in config, skipping.", name)
		}
	}
	return providers
}

// DetectColumns maps the table's columns to target fields. The AI answer is
// used only when it names a product column that actually exists; anything
// else falls through to the heuristics.
func (d *Detector) DetectColumns(ctx context.Context, t Table) ColumnMapping {
	if len(d.providers) > 0 {
		raw, err := askProviders(ctx, d.providers, buildPrompt(t))
		if err == nil {
			mapping, perr := parseMappingResponse(raw)
			switch {
			case perr != nil:
				err = perr
			case !t.HasColumn(mapping.ProductName):
				err = fmt.Errorf("mapped product column %q not found in header", mapping.ProductName)
			default:
				log.Printf("AI column mapping: %+v", mapping)
				return mapping
			}
		}
		log.Printf("AI column detection failed (%v). Using heuristic fallback.", err)
	}
	return detectColumnsHeuristic(t)
}

// askProviders tries each provider in order until one answers.
func askProviders(ctx context.Context, providers []Provider, prompt string) (string, error) {
	var lastErr error
	for i, provider := range providers {
		log.Printf("   - Attempting column mapping with provider #%d...", i+1)
		answer, err := provider.Complete(ctx, prompt)
		if err != nil {
			lastErr = err
			log.Printf("   - Provider #%d failed: %v", i+1, err)
			continue
		}
		log.Printf("   - Provider #%d succeeded.", i+1)
		return answer, nil
	}
	return "", fmt.Errorf("all providers failed. last error: %w", lastErr)
}

// maxPromptRows caps how much of the upload is shown to the model.
const maxPromptRows = 20

func buildPrompt(t Table) string {
	var sample strings.Builder
	w := csv.NewWriter(&sample)
	w.Write(t.Headers)
	for i, row := range t.Rows {
		if i >= maxPromptRows {
			break
		}
		w.Write(row)
	}
	w.Flush()

	return fmt.Sprintf(`You are a grocery CSV extraction assistant.

Identify from this dataset:

1. Product Name column (text like "Pepsi Max 2L Bottle")
2. Price column containing RRP (e.g. "RRP £2.99")
3. Image URL column (http link ending with jpg/png/webp)
4. Booker Product ID column (numeric merchant code like 299374)

Booker ID rules:
- Mostly numeric
- 5 to 8 digits
- NOT barcode (EAN usually 12-14 digits)

Return JSON only:

{
  "product_name": "column_name",
  "price": "column_name",
  "image_url": "column_name",
  "booker_id": "column_name"
}

CSV SAMPLE:
%s`, sample.String())
}

// parseMappingResponse decodes the model's JSON answer, tolerating markdown
// code fences around it.
func parseMappingResponse(raw string) (ColumnMapping, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		parts := strings.SplitN(raw, "```", 3)
		if len(parts) >= 2 {
			raw = parts[1]
		}
		raw = strings.TrimPrefix(raw, "json")
	}

	var mapping ColumnMapping
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &mapping); err != nil {
		return ColumnMapping{}, fmt.Errorf("failed to parse mapping response: %w", err)
	}
	return mapping, nil
}
