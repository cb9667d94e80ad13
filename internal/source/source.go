package source

import (
	"context"
	"fmt"
	"sort"

	"GrowthRanker/internal/domain"
)

// Request carries all parameters required to load one configured source.
type Request struct {
	SourceName string
	Path       string
	URL        string
	Options    map[string]string
}

// Location returns the URL when set, the file path otherwise.
func (r Request) Location() string {
	if r.URL != "" {
		return r.URL
	}
	return r.Path
}

// Loader captures a single input format (json, csv, html table).
type Loader interface {
	Name() string
	Load(ctx context.Context, req Request) ([]domain.Company, error)
}

// Registry keeps a mapping from loader names to their implementations.
type Registry struct {
	loaders map[string]Loader
}

// NewRegistry builds a registry pre-filled with the given loaders.
func NewRegistry(loaders ...Loader) *Registry {
	r := &Registry{loaders: map[string]Loader{}}
	for _, l := range loaders {
		r.Register(l)
	}
	return r
}

// Register adds or replaces a loader implementation.
func (r *Registry) Register(loader Loader) {
	if r.loaders == nil {
		r.loaders = map[string]Loader{}
	}
	r.loaders[loader.Name()] = loader
}

// Resolve returns a loader by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Loader, error) {
	if loader, ok := r.loaders[name]; ok {
		return loader, nil
	}
	return nil, fmt.Errorf("loader %s is not registered (known: %v)", name, r.Names())
}

// Names lists registered loaders in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.loaders))
	for name := range r.loaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
