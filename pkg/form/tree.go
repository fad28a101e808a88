package form

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/caklein/hokus/pkg/model"
	"github.com/caklein/hokus/pkg/registry"
)

// ValueFunc produces the value a node (or a whole tree) reports at save time.
type ValueFunc func() any

// Resolver looks up handler descriptors by field-type identifier.
// *registry.Registry satisfies it.
type Resolver interface {
	Resolve(typeID string) (registry.Descriptor, error)
}

type freezer interface {
	Freeze()
}

type entry struct {
	key string
	fn  ValueFunc
}

// Tree is the ordered set of nodes built from one schema level.
type Tree struct {
	schema   model.Schema
	resolver Resolver
	nodes    []*Node
	index    map[string]int
	extras   map[string]any

	raw      any
	rawValid bool

	entries []entry
	extract ValueFunc

	parent   *Node
	position int
	onChange func(*Node)
}

// Build constructs a tree for schema seeded from values. Type identifiers are
// resolved through resolver; an unknown identifier fails the whole build. If
// resolver can be frozen it is frozen before any node is created.
func Build(schema model.Schema, values map[string]any, resolver Resolver) (*Tree, error) {
	if resolver == nil {
		return nil, fmt.Errorf("form: resolver is required")
	}
	if f, ok := resolver.(freezer); ok {
		f.Freeze()
	}
	return buildTree(schema, values, resolver, nil, 0)
}

func buildTree(schema model.Schema, initial any, resolver Resolver, parent *Node, position int) (*Tree, error) {
	t := &Tree{
		schema:   schema,
		resolver: resolver,
		index:    make(map[string]int, len(schema)),
		parent:   parent,
		position: position,
	}

	values, isMap := initial.(map[string]any)
	if initial != nil && !isMap {
		t.raw = model.CloneValue(initial)
		t.rawValid = true
	}

	for i, field := range schema {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			return nil, fmt.Errorf("form: field %d at %q has no key", i, t.prefix())
		}
		if _, dup := t.index[key]; dup {
			return nil, fmt.Errorf("form: duplicate field key %q at %q", key, t.prefix())
		}
		field.Key = key

		raw, present := values[key]
		node, err := newNode(t, field, raw, present)
		if err != nil {
			return nil, err
		}
		t.index[key] = len(t.nodes)
		t.nodes = append(t.nodes, node)
	}

	for key, value := range values {
		if _, described := t.index[key]; described {
			continue
		}
		if t.extras == nil {
			t.extras = make(map[string]any)
		}
		t.extras[key] = model.CloneValue(value)
	}

	t.entries = make([]entry, len(t.nodes))
	for i, node := range t.nodes {
		t.entries[i] = entry{key: node.field.Key, fn: node.extract}
	}
	t.extract = t.compose(t.entries)
	return t, nil
}

// compose returns a function assembling the key→value mapping from the given
// entries. entries must not be mutated afterwards.
func (t *Tree) compose(entries []entry) ValueFunc {
	if t.rawValid {
		raw := t.raw
		return func() any { return model.CloneValue(raw) }
	}
	extras := t.extras
	return func() any {
		out := make(map[string]any, len(entries)+len(extras))
		for key, value := range extras {
			out[key] = model.CloneValue(value)
		}
		for _, e := range entries {
			if e.fn == nil {
				continue
			}
			out[e.key] = e.fn()
		}
		return out
	}
}

// Extractor returns the aggregated value-extraction function of the tree
// without evaluating it.
func (t *Tree) Extractor() ValueFunc {
	return t.extract
}

// Snapshot evaluates the aggregated extractor.
func (t *Tree) Snapshot() map[string]any {
	value, _ := t.extract().(map[string]any)
	return value
}

// Schema returns the schema level this tree was built from.
func (t *Tree) Schema() model.Schema {
	return t.schema
}

// Nodes returns the nodes of this level in schema order.
func (t *Tree) Nodes() []*Node {
	return slices.Clone(t.nodes)
}

// Node returns the direct child with the given key.
func (t *Tree) Node(key string) (*Node, bool) {
	idx, ok := t.index[key]
	if !ok {
		return nil, false
	}
	return t.nodes[idx], true
}

// Parent returns the list or group node owning this tree, nil at the root.
func (t *Tree) Parent() *Node {
	return t.parent
}

// Lookup resolves a dotted path such as "params.address.city" or
// "menu.0.title" to a node.
func (t *Tree) Lookup(path string) (*Node, error) {
	segments := model.SplitPath(path)
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}
	node, err := t.lookup(segments)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, path)
	}
	return node, nil
}

func (t *Tree) lookup(segments []string) (*Node, error) {
	node, ok := t.Node(segments[0])
	if !ok {
		return nil, ErrUnknownPath
	}
	rest := segments[1:]
	if len(rest) == 0 {
		return node, nil
	}
	switch node.Shape() {
	case registry.ShapeGroup:
		return node.child.lookup(rest)
	case registry.ShapeList:
		idx, err := strconv.Atoi(rest[0])
		if err != nil || idx < 0 || idx >= len(node.items) {
			return nil, ErrUnknownPath
		}
		if len(rest) == 1 {
			return nil, ErrUnknownPath
		}
		return node.items[idx].lookup(rest[1:])
	default:
		return nil, ErrUnknownPath
	}
}

// Edit applies a local edit to the node at path.
func (t *Tree) Edit(path string, value any) (ValueFunc, error) {
	node, err := t.Lookup(path)
	if err != nil {
		return nil, err
	}
	return node.Edit(value)
}

// OnChange installs the listener notified after every edit anywhere in the
// tree. Only the root tree notifies; the listener replaces any previous one.
func (t *Tree) OnChange(fn func(*Node)) {
	t.onChange = fn
}

// Walk visits every node depth-first in schema order, descending into groups
// and list items. Returning false from fn skips the node's descendants.
func (t *Tree) Walk(fn func(*Node) bool) {
	for _, node := range t.nodes {
		if !fn(node) {
			continue
		}
		switch node.Shape() {
		case registry.ShapeGroup:
			node.child.Walk(fn)
		case registry.ShapeList:
			for _, item := range node.items {
				item.Walk(fn)
			}
		}
	}
}

// Touched reports whether any node in the tree carries the touched flag.
func (t *Tree) Touched() bool {
	touched := false
	t.Walk(func(n *Node) bool {
		if n.touched {
			touched = true
		}
		return !touched
	})
	return touched
}

// TypeIDs lists the distinct field-type identifiers used by the tree, in first
// appearance order.
func (t *Tree) TypeIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	var visit func(schema model.Schema)
	visit = func(schema model.Schema) {
		for _, field := range schema {
			if _, ok := seen[field.Type]; !ok {
				seen[field.Type] = struct{}{}
				ids = append(ids, field.Type)
			}
			visit(field.Fields)
		}
	}
	visit(t.schema)
	return ids
}

func (t *Tree) clearTouched() {
	t.Walk(func(n *Node) bool {
		n.touched = false
		n.changed = false
		return true
	})
}

// prefix is the dotted path of the node owning this tree.
func (t *Tree) prefix() string {
	if t.parent == nil {
		return ""
	}
	if t.parent.Shape() == registry.ShapeList {
		return model.JoinPath(t.parent.Path(), strconv.Itoa(t.position))
	}
	return t.parent.Path()
}

// childChanged recomposes this level after node's extractor changed and
// propagates the signal upward.
func (t *Tree) childChanged(node *Node) {
	t.recompose(node)
	t.signal(node)
}

// recompose swaps node's extractor into a fresh copy of the entry slice.
func (t *Tree) recompose(node *Node) {
	idx := t.index[node.field.Key]
	next := slices.Clone(t.entries)
	next[idx].fn = node.extract
	t.entries = next
	t.rawValid = false
	t.raw = nil
	t.extract = t.compose(next)
}

func (t *Tree) signal(origin *Node) {
	if t.parent != nil {
		t.parent.descendantChanged(origin)
		return
	}
	if t.onChange != nil {
		t.onChange(origin)
	}
}
