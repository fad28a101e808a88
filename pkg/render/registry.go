package render

import (
	"fmt"
	"mime"
	"sort"
	"strings"
	"sync"
)

// Registry stores renderers by name and picks one for an Accept header.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[string]Renderer),
	}
}

// Register adds a renderer by its Name(). Duplicate names return an error.
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return fmt.Errorf("render: renderer is required")
	}
	name := renderer.Name()
	if name == "" {
		return fmt.Errorf("render: renderer name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.renderers[name]; exists {
		return fmt.Errorf("render: renderer %q already registered", name)
	}

	r.renderers[name] = renderer
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(renderer Renderer) {
	if err := r.Register(renderer); err != nil {
		panic(err)
	}
}

// Get retrieves a renderer by name.
func (r *Registry) Get(name string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	renderer, ok := r.renderers[name]
	if !ok {
		return nil, fmt.Errorf("render: renderer %q not found", name)
	}
	return renderer, nil
}

// MustGet panics if the renderer is missing.
func (r *Registry) MustGet(name string) Renderer {
	renderer, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return renderer
}

// List returns a sorted list of renderer names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sortedNames(r.renderers)
}

// Has reports whether a renderer is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.renderers[name]
	return ok
}

// Negotiate returns the first renderer, in the order of accept, whose content
// type matches one of the listed media ranges. An empty header or "*/*"
// selects fallback.
func (r *Registry) Negotiate(accept, fallback string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil || mediaType == "*/*" {
			continue
		}
		for _, name := range sortedNames(r.renderers) {
			renderer := r.renderers[name]
			contentType, _, err := mime.ParseMediaType(renderer.ContentType())
			if err != nil {
				continue
			}
			if matchesMediaRange(mediaType, contentType) {
				return renderer, nil
			}
		}
	}

	renderer, ok := r.renderers[fallback]
	if !ok {
		return nil, fmt.Errorf("render: no renderer for %q", accept)
	}
	return renderer, nil
}

func matchesMediaRange(mediaRange, contentType string) bool {
	if mediaRange == contentType {
		return true
	}
	if prefix, ok := strings.CutSuffix(mediaRange, "/*"); ok {
		return strings.HasPrefix(contentType, prefix+"/")
	}
	return false
}

func sortedNames(renderers map[string]Renderer) []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
