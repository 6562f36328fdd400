// Package adapter defines the vendor adapter contract and the registry used
// to detect which vendor layout a document belongs to.
package adapter

import (
	"fmt"

	"github.com/neo2475/odoo-importer/internal/adapter/grupopena"
	"github.com/neo2475/odoo-importer/internal/adapter/michelin"
	"github.com/neo2475/odoo-importer/internal/adapter/varona"
	"github.com/neo2475/odoo-importer/internal/domain"
)

// Adapter parses one vendor's delivery-note layout.
type Adapter interface {
	// Key identifies the vendor ("grupo_pena", "michelin", "varona").
	Key() string
	// Detect reports whether this vendor's layout applies to a document,
	// given its extracted text and original filename. It must be cheap
	// and must not touch the filesystem.
	Detect(text, filename string) bool
	// Parse extracts the order lines and metadata from the PDF at path.
	Parse(path string) (*domain.ImportDoc, error)
}

// Registry is an immutable, ordered set of vendor adapters. It is built
// once at startup and safe for concurrent use.
type Registry struct {
	adapters []Adapter
	byKey    map[string]Adapter
}

// NewRegistry builds a registry from an explicit adapter list.
func NewRegistry(adapters ...Adapter) *Registry {
	byKey := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		byKey[a.Key()] = a
	}
	return &Registry{adapters: adapters, byKey: byKey}
}

// Default returns a registry with the three known vendor adapters.
func Default() *Registry {
	return NewRegistry(grupopena.New(), michelin.New(), varona.New())
}

// Get returns the adapter registered under key.
func (r *Registry) Get(key string) (Adapter, error) {
	a, ok := r.byKey[key]
	if !ok {
		return nil, fmt.Errorf("no adapter for key %q (known: %v)", key, r.Keys())
	}
	return a, nil
}

// Keys lists the registered adapter keys in registration order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.adapters))
	for _, a := range r.adapters {
		keys = append(keys, a.Key())
	}
	return keys
}

// Detect runs every adapter's Detect predicate and returns the key of the
// single matching vendor. Zero or multiple matches yield
// domain.ErrUnknownProvider: ambiguity is surfaced, never guessed away.
// A panicking predicate counts as a non-match.
func (r *Registry) Detect(text, filename string) (string, error) {
	var hits []string
	for _, a := range r.adapters {
		if safeDetect(a, text, filename) {
			hits = append(hits, a.Key())
		}
	}
	if len(hits) == 1 {
		return hits[0], nil
	}
	return "", domain.ErrUnknownProvider
}

func safeDetect(a Adapter, text, filename string) (matched bool) {
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()
	return a.Detect(text, filename)
}
