// Package chains holds the static chain registry and per-kind address rules.
package chains

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/renaobrien/elutio/internal/domain"
)

//go:embed chains.yaml
var defaultChainsYAML []byte

// ErrUnknownChain is returned when a chain id is not in the registry.
var ErrUnknownChain = errors.New("unknown chain")

// Registry is an immutable set of chains, kept in declaration order.
type Registry struct {
	order []string
	byID  map[string]domain.Chain
}

// NewRegistry builds a registry from chain definitions.
// Duplicate ids and unknown kinds are rejected.
func NewRegistry(list []domain.Chain) (*Registry, error) {
	r := &Registry{byID: make(map[string]domain.Chain, len(list))}
	for _, c := range list {
		c.ID = strings.ToLower(strings.TrimSpace(c.ID))
		if c.ID == "" {
			return nil, fmt.Errorf("chain with empty id")
		}
		if !c.Kind.Valid() {
			return nil, fmt.Errorf("chain %s: invalid kind %q", c.ID, c.Kind)
		}
		if _, dup := r.byID[c.ID]; dup {
			return nil, fmt.Errorf("chain %s: duplicate id", c.ID)
		}
		r.byID[c.ID] = c
		r.order = append(r.order, c.ID)
	}
	return r, nil
}

// Parse decodes a YAML chain list.
func Parse(data []byte) (*Registry, error) {
	var list []domain.Chain
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode chains yaml: %w", err)
	}
	return NewRegistry(list)
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := Parse(defaultChainsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded chains.yaml: %v", err))
	}
	return r
}

// Load reads a registry from path, or returns the built-in one when path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chains file: %w", err)
	}
	return Parse(data)
}

// Get returns the chain with the given id.
func (r *Registry) Get(id string) (domain.Chain, error) {
	c, ok := r.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return domain.Chain{}, fmt.Errorf("%w: %s", ErrUnknownChain, id)
	}
	return c, nil
}

// IDs returns all chain ids in declaration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Resolve keeps the known chains of ids, deduplicated, in request order.
// Unknown ids are returned separately.
func (r *Registry) Resolve(ids []string) (known []domain.Chain, unknown []string) {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		key := strings.ToLower(strings.TrimSpace(id))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		c, ok := r.byID[key]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		known = append(known, c)
	}
	return known, unknown
}
