// Package catalog holds curated answers for well-known queries and the
// static tool lists used when search comes up short.
package catalog

import (
	_ "embed"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/toolscout/internal/model"
)

//go:embed catalog.yaml
var builtin []byte

// Catalog is the curated tool data.
type Catalog struct {
	// Curated maps a normalized query to a hand-picked answer.
	Curated map[string][]model.Tool `yaml:"curated"`
	// Fallbacks backfill short results and replace failed searches.
	Fallbacks []model.Tool `yaml:"fallbacks"`
	// Defaults are returned when no search provider is configured.
	Defaults []model.Tool `yaml:"defaults"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(builtin)
}

// LoadFile reads a catalog from a YAML file. An empty path returns the
// embedded catalog.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML. The document has a top-level
// "catalog" key.
func Parse(data []byte) (*Catalog, error) {
	var wrapper struct {
		Catalog Catalog `yaml:"catalog"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "catalog: parse")
	}

	c := &wrapper.Catalog
	curated := make(map[string][]model.Tool, len(c.Curated))
	for q, tools := range c.Curated {
		key := model.NormalizeQuery(q)
		if key == "" {
			return nil, eris.New("catalog: empty curated query")
		}
		norm, err := normalize(tools)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: curated %q", q)
		}
		curated[key] = norm
	}
	c.Curated = curated

	var err error
	if c.Fallbacks, err = normalize(c.Fallbacks); err != nil {
		return nil, eris.Wrap(err, "catalog: fallbacks")
	}
	if c.Defaults, err = normalize(c.Defaults); err != nil {
		return nil, eris.Wrap(err, "catalog: defaults")
	}
	if len(c.Defaults) == 0 {
		c.Defaults = model.CloneTools(c.Fallbacks)
	}
	return c, nil
}

// normalize fills IDs, placeholders and pricing tiers and rejects tools
// without a name or URL.
func normalize(tools []model.Tool) ([]model.Tool, error) {
	out := make([]model.Tool, 0, len(tools))
	for i, t := range tools {
		if t.Name == "" || t.URL == "" {
			return nil, eris.Errorf("tool %d: name and url are required", i)
		}
		if t.ID == "" {
			t.ID = model.Slug(t.Name)
		}
		if t.Description == "" {
			t.Description = model.DescriptionPlaceholder
		}
		t.Pricing = model.NormalizePricing(string(t.Pricing))
		out = append(out, t)
	}
	return out, nil
}

// Lookup returns a copy of the curated answer for query.
func (c *Catalog) Lookup(query string) ([]model.Tool, bool) {
	tools, ok := c.Curated[model.NormalizeQuery(query)]
	if !ok {
		return nil, false
	}
	return model.CloneTools(tools), true
}

// Queries returns the curated query keys in sorted order.
func (c *Catalog) Queries() []string {
	out := make([]string, 0, len(c.Curated))
	for q := range c.Curated {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

// DefaultTools returns a copy of the provider-less default list.
func (c *Catalog) DefaultTools() []model.Tool {
	return model.CloneTools(c.Defaults)
}
