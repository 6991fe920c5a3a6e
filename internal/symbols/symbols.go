package symbols

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed symbols.yaml
var defaultTable []byte

type table struct {
	Names map[string]string `yaml:"names"`
	IDs   map[string]string `yaml:"ids"`
}

// Resolver maps tickers to display names and CoinGecko ids.
// It is read-only after construction and safe for concurrent use.
type Resolver struct {
	names map[string]string
	ids   map[string]string
}

// Default returns a Resolver built from the embedded symbol table.
func Default() (*Resolver, error) {
	return Parse(defaultTable)
}

// Parse builds a Resolver from a YAML document with "names" and "ids" maps.
func Parse(data []byte) (*Resolver, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse symbols: %w", err)
	}
	r := &Resolver{
		names: make(map[string]string, len(t.Names)),
		ids:   make(map[string]string, len(t.IDs)),
	}
	for k, v := range t.Names {
		r.names[Normalize(k)] = v
	}
	for k, v := range t.IDs {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		r.ids[Normalize(k)] = v
	}
	return r, nil
}

// Normalize turns user input into a CurrencyCode.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// DisplayName returns the known name for code, or the uppercased code itself.
func (r *Resolver) DisplayName(code string) string {
	code = Normalize(code)
	if r != nil {
		if name, ok := r.names[code]; ok {
			return name
		}
	}
	return code
}

// UpstreamID returns the CoinGecko id for code. ok is false for symbols
// outside the allow-list.
func (r *Resolver) UpstreamID(code string) (id string, ok bool) {
	if r == nil {
		return "", false
	}
	id, ok = r.ids[Normalize(code)]
	return id, ok
}
