package catalog

import "ShelfScraper/internal/models"

// dedupeIndex remembers which products have been seen across scroll passes.
// Identity is name, price and image URL together: the same name at another
// price is a different offer and both are kept.
type dedupeIndex struct {
	seen map[string]struct{}
}

func newDedupeIndex() *dedupeIndex {
	return &dedupeIndex{seen: map[string]struct{}{}}
}

// Add records the product's identity and reports whether it was new.
func (d *dedupeIndex) Add(p models.Product) bool {
	k := p.Key()
	if _, ok := d.seen[k]; ok {
		return false
	}
	d.seen[k] = struct{}{}
	return true
}

func (d *dedupeIndex) Len() int { return len(d.seen) }

// collector accumulates unique products in the order they were first seen.
type collector struct {
	index    *dedupeIndex
	products []models.Product
}

func newCollector() *collector {
	return &collector{index: newDedupeIndex()}
}

// Collect adds p unless an identical product was already collected.
func (c *collector) Collect(p models.Product) bool {
	if !c.index.Add(p) {
		return false
	}
	c.products = append(c.products, p)
	return true
}

func (c *collector) Products() []models.Product { return c.products }

func (c *collector) Count() int { return len(c.products) }
