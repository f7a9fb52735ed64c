// Package knowledge serves the static library of protocols, guidelines and
// reference material shown in the knowledge base.
package knowledge

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// CategoryAll matches every item.
const CategoryAll = "all"

type Category struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

type Item struct {
	ID          int     `yaml:"id" json:"id"`
	Title       string  `yaml:"title" json:"title"`
	Description string  `yaml:"description" json:"description"`
	Category    string  `yaml:"category" json:"category"`
	Type        string  `yaml:"type" json:"type"`
	LastUpdated string  `yaml:"lastUpdated" json:"lastUpdated"`
	Rating      float64 `yaml:"rating" json:"rating"`
	Downloads   int     `yaml:"downloads" json:"downloads"`
}

type Catalog struct {
	Categories []Category `yaml:"categories"`
	Items      []Item     `yaml:"items"`
}

// Default parses the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	known := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Value == "" || cat.Value == CategoryAll {
			return fmt.Errorf("knowledge catalog: invalid category %q", cat.Value)
		}
		known[cat.Value] = true
	}
	ids := make(map[int]bool, len(c.Items))
	for _, it := range c.Items {
		if ids[it.ID] {
			return fmt.Errorf("knowledge catalog: duplicate item id %d", it.ID)
		}
		ids[it.ID] = true
		if !known[it.Category] {
			return fmt.Errorf("knowledge catalog: item %d has unknown category %q", it.ID, it.Category)
		}
	}
	return nil
}

// CategoryList returns the categories with the "all" entry first.
func (c *Catalog) CategoryList() []Category {
	out := make([]Category, 0, len(c.Categories)+1)
	out = append(out, Category{Value: CategoryAll, Label: "All Categories"})
	return append(out, c.Categories...)
}

// Search matches query case-insensitively against title and description.
// An empty category or "all" matches every category.
func (c *Catalog) Search(query, category string) []Item {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []Item{}
	for _, it := range c.Items {
		if category != "" && category != CategoryAll && it.Category != category {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(it.Title), q) &&
			!strings.Contains(strings.ToLower(it.Description), q) {
			continue
		}
		out = append(out, it)
	}
	return out
}
