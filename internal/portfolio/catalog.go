package portfolio

import "fmt"

// ThemeSpec maps a theme key to its display name and instrument
type ThemeSpec struct {
	Key    string `yaml:"key" json:"key"`
	Name   string `yaml:"name" json:"name"`
	Symbol string `yaml:"symbol" json:"symbol"`
}

// Catalog is the ordered set of themes a run may allocate to.
// Order determines theme, report and delta order sequencing.
type Catalog []ThemeSpec

// DefaultCatalog returns the standard SRI theme table
func DefaultCatalog() Catalog {
	return Catalog{
		{Key: "diversified", Name: "Diversified SRI", Symbol: "USSG"},
		{Key: "water", Name: "Clean Water", Symbol: "PHO"},
		{Key: "energy", Name: "Renewable Energy", Symbol: "ICLN"},
		{Key: "health", Name: "Healthy Living", Symbol: "BFIT"},
		{Key: "disease", Name: "Disease Eradication", Symbol: "XBI"},
		{Key: "gender", Name: "Gender Diversity", Symbol: "SHE"},
	}
}

// Lookup finds a theme by key
func (c Catalog) Lookup(key string) (ThemeSpec, bool) {
	for _, spec := range c {
		if spec.Key == key {
			return spec, true
		}
	}
	return ThemeSpec{}, false
}

// Keys returns theme keys in catalog order
func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c))
	for _, spec := range c {
		keys = append(keys, spec.Key)
	}
	return keys
}

// Validate checks that keys and symbols are present and unique
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("catalog is empty")
	}

	keys := make(map[string]bool, len(c))
	symbols := make(map[string]bool, len(c))
	for i, spec := range c {
		if spec.Key == "" || spec.Symbol == "" {
			return fmt.Errorf("catalog entry %d: key and symbol are required", i)
		}
		if keys[spec.Key] {
			return fmt.Errorf("catalog entry %d: duplicate key %q", i, spec.Key)
		}
		if symbols[spec.Symbol] {
			return fmt.Errorf("catalog entry %d: duplicate symbol %q", i, spec.Symbol)
		}
		keys[spec.Key] = true
		symbols[spec.Symbol] = true
	}

	return nil
}
