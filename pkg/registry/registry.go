package registry

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/caklein/hokus/pkg/model"
	rendertemplate "github.com/caklein/hokus/pkg/render/template"
)

// Shape describes how a handler composes the nested schema of its field.
type Shape int

const (
	// ShapeLeaf handlers own a single value and have no nested schema.
	ShapeLeaf Shape = iota
	// ShapeGroup handlers hold one nested tree; their value is a key→value map.
	ShapeGroup
	// ShapeList handlers hold one nested tree per item; their value is a list
	// of key→value maps.
	ShapeList
)

func (s Shape) String() string {
	switch s {
	case ShapeGroup:
		return "group"
	case ShapeList:
		return "list"
	default:
		return "leaf"
	}
}

// RenderFunc writes the markup of one field into buf, using the supplied
// template renderer or custom logic.
type RenderFunc func(buf *bytes.Buffer, field model.Field, data RenderData) error

// ExtractFunc converts the locally held value of a field into the value
// reported upward at save time.
type ExtractFunc func(field model.Field, value any) any

// DefaultFunc produces the initial value of a field whose key is absent from
// the value document.
type DefaultFunc func(field model.Field) any

// RenderData carries helpers and per-node state for render functions.
type RenderData struct {
	Template       rendertemplate.TemplateRenderer
	Path           string
	Value          any
	Errors         []string
	Touched        bool
	RenderChildren func() (string, error)
	Config         map[string]any
}

// Script describes JavaScript dependencies a field type needs to emit once per
// render.
type Script struct {
	Src    string
	Type   string
	Inline string
	Async  bool
	Defer  bool
	Module bool
	Attrs  map[string]string
}

// Descriptor bundles the capabilities registered for a field-type identifier.
type Descriptor struct {
	Name        string
	Render      RenderFunc
	Extract     ExtractFunc
	Default     DefaultFunc
	Shape       Shape
	Stylesheets []string
	Scripts     []Script
}

// ExtractValue applies the descriptor's extraction capability, defaulting to
// the identity.
func (d Descriptor) ExtractValue(field model.Field, value any) any {
	if d.Extract == nil {
		return value
	}
	return d.Extract(field, value)
}

// DefaultValue returns the declared field default, falling back to the
// handler's default capability. The boolean is false when neither exists.
func (d Descriptor) DefaultValue(field model.Field) (any, bool) {
	if field.HasDefault() {
		return model.CloneValue(field.Default), true
	}
	if d.Default == nil {
		return nil, false
	}
	value := d.Default(field)
	return value, value != nil
}

// DuplicatePolicy selects what Register does with an identifier that already
// has a handler.
type DuplicatePolicy int

const (
	// DuplicateOverwrite replaces the existing handler (last wins).
	DuplicateOverwrite DuplicatePolicy = iota
	// DuplicateReject fails with ErrDuplicateFieldType.
	DuplicateReject
)

// Registry maps field-type identifiers to handler descriptors. Lookups are safe
// for concurrent use; registration stops once the registry is frozen.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Descriptor
	builtins map[string]struct{}
	policy   DuplicatePolicy
	frozen   bool
}

// Option customises registry construction.
type Option func(*options)

type options struct {
	catalog map[string]Descriptor
	plugins map[string]Descriptor
	policy  DuplicatePolicy
}

// WithCatalog seeds the registry with the built-in handlers.
func WithCatalog(catalog map[string]Descriptor) Option {
	return func(o *options) {
		o.catalog = catalog
	}
}

// WithPlugins merges externally supplied handlers after the catalog. Plugins
// may shadow built-in identifiers regardless of the duplicate policy.
func WithPlugins(plugins map[string]Descriptor) Option {
	return func(o *options) {
		o.plugins = plugins
	}
}

// WithDuplicatePolicy selects how Register treats duplicate identifiers.
func WithDuplicatePolicy(policy DuplicatePolicy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

// New builds a registry from the supplied catalog and plugins.
func New(opts ...Option) (*Registry, error) {
	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	r := &Registry{
		handlers: make(map[string]Descriptor),
		builtins: make(map[string]struct{}),
		policy:   cfg.policy,
	}
	for _, name := range sortedKeys(cfg.catalog) {
		if err := r.Register(name, cfg.catalog[name]); err != nil {
			return nil, err
		}
		r.builtins[normalize(name)] = struct{}{}
	}
	for _, name := range sortedKeys(cfg.plugins) {
		if err := r.registerPlugin(name, cfg.plugins[name]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustNew mirrors New but panics on error.
func MustNew(opts ...Option) *Registry {
	r, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Clone returns an unfrozen deep copy of the registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cloned := &Registry{
		handlers: make(map[string]Descriptor, len(r.handlers)),
		builtins: make(map[string]struct{}, len(r.builtins)),
		policy:   r.policy,
	}
	for name, descriptor := range r.handlers {
		cloned.handlers[name] = cloneDescriptor(descriptor)
	}
	for name := range r.builtins {
		cloned.builtins[name] = struct{}{}
	}
	return cloned
}

// Register associates a descriptor with the provided type identifier.
func (r *Registry) Register(name string, descriptor Descriptor) error {
	return r.register(name, descriptor, false)
}

func (r *Registry) registerPlugin(name string, descriptor Descriptor) error {
	return r.register(name, descriptor, true)
}

func (r *Registry) register(name string, descriptor Descriptor, plugin bool) error {
	if name = normalize(name); name == "" {
		return fmt.Errorf("registry: field type name is required")
	}
	if descriptor.Render == nil {
		return fmt.Errorf("registry: render function for %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("%w: cannot register %q", ErrRegistryFrozen, name)
	}
	if _, exists := r.handlers[name]; exists && r.policy == DuplicateReject {
		_, builtin := r.builtins[name]
		if !plugin || !builtin {
			return fmt.Errorf("%w: %q", ErrDuplicateFieldType, name)
		}
	}

	descriptor.Name = name
	r.handlers[name] = cloneDescriptor(descriptor)
	return nil
}

// MustRegister mirrors Register but panics on error, simplifying catalog setup.
func (r *Registry) MustRegister(name string, descriptor Descriptor) {
	if err := r.Register(name, descriptor); err != nil {
		panic(err)
	}
}

// Resolve returns the descriptor registered for the identifier or an
// *UnknownFieldTypeError.
func (r *Registry) Resolve(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descriptor, ok := r.handlers[normalize(name)]
	if !ok {
		return Descriptor{}, &UnknownFieldTypeError{Type: name}
	}
	return cloneDescriptor(descriptor), nil
}

// Descriptor fetches a descriptor by name.
func (r *Registry) Descriptor(name string) (Descriptor, bool) {
	descriptor, err := r.Resolve(name)
	return descriptor, err == nil
}

// Freeze seals the registry against further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Names returns a sorted slice of registered type identifiers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Assets resolves dependency aggregates for the provided type identifiers.
func (r *Registry) Assets(names []string) (stylesheets []string, scripts []Script) {
	if len(names) == 0 {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	seenStyles := make(map[string]struct{})
	seenScripts := make(map[string]struct{})

	for _, name := range names {
		descriptor, ok := r.handlers[normalize(name)]
		if !ok {
			continue
		}
		for _, href := range descriptor.Stylesheets {
			if href == "" {
				continue
			}
			if _, exists := seenStyles[href]; exists {
				continue
			}
			seenStyles[href] = struct{}{}
			stylesheets = append(stylesheets, href)
		}
		for _, script := range descriptor.Scripts {
			key := scriptKey(script)
			if _, exists := seenScripts[key]; exists {
				continue
			}
			seenScripts[key] = struct{}{}
			scripts = append(scripts, script)
		}
	}
	return stylesheets, scripts
}

func cloneDescriptor(src Descriptor) Descriptor {
	clone := src
	clone.Stylesheets = slices.Clone(src.Stylesheets)
	clone.Scripts = make([]Script, len(src.Scripts))
	for idx, script := range src.Scripts {
		script.Attrs = cloneStringMap(script.Attrs)
		clone.Scripts[idx] = script
	}
	return clone
}

func cloneStringMap(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for key, value := range src {
		out[key] = value
	}
	return out
}

func scriptKey(script Script) string {
	if script.Src != "" {
		return "src:" + script.Src
	}
	return "inline:" + script.Inline
}

func sortedKeys(m map[string]Descriptor) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
