// Package products serves the static gaming-goods catalog. The data file is
// embedded at build time and read-only at runtime.
package products

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed catalog.json
var catalogJSON []byte

// Product is a single catalog entry.
type Product struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
	Game        string  `json:"game"`
	Category    string  `json:"category"`
}

type catalogFile struct {
	Version  int       `json:"version"`
	Products []Product `json:"products"`
}

// Catalog is the loaded, validated product list.
type Catalog struct {
	byName   map[string]Product
	products []Product
}

// Load parses and validates the embedded catalog. Entries with missing
// names, duplicate names or negative prices are rejected outright rather
// than coerced.
func Load() (*Catalog, error) {
	var file catalogFile
	if err := json.Unmarshal(catalogJSON, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if file.Version != 1 {
		return nil, fmt.Errorf("unsupported catalog version: %d", file.Version)
	}

	c := &Catalog{byName: make(map[string]Product, len(file.Products))}
	for i, p := range file.Products {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("catalog entry %d has no name", i)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("catalog entry %q has a negative price", p.Name)
		}
		if _, exists := c.byName[p.Name]; exists {
			return nil, fmt.Errorf("duplicate catalog entry %q", p.Name)
		}
		c.byName[p.Name] = p
		c.products = append(c.products, p)
	}
	return c, nil
}

// List returns the catalog, optionally filtered by category.
func (c *Catalog) List(category string) []Product {
	if category == "" {
		out := make([]Product, len(c.products))
		copy(out, c.products)
		return out
	}
	var out []Product
	for _, p := range c.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Get looks a product up by name.
func (c *Catalog) Get(name string) (Product, bool) {
	p, ok := c.byName[name]
	return p, ok
}
