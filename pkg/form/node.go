package form

import (
	"fmt"
	"slices"

	"github.com/caklein/hokus/pkg/model"
	"github.com/caklein/hokus/pkg/registry"
)

// Node owns one field descriptor, the handler resolved for it, and its local
// uncommitted value. Group nodes own one nested tree; list nodes own one tree
// per item.
type Node struct {
	tree    *Tree
	field   model.Field
	desc    registry.Descriptor
	value   any
	present bool
	touched bool
	changed bool
	extract ValueFunc

	child *Tree
	items []*Tree
}

func newNode(t *Tree, field model.Field, raw any, present bool) (*Node, error) {
	n := &Node{tree: t, field: field}

	desc, err := t.resolver.Resolve(field.Type)
	if err != nil {
		return nil, fmt.Errorf("form: field %q: %w", n.Path(), err)
	}
	n.desc = desc

	if !present {
		raw, present = desc.DefaultValue(field)
	}
	n.present = present

	switch desc.Shape {
	case registry.ShapeGroup:
		var initial any
		if present {
			initial = raw
		}
		child, err := buildTree(field.Fields, initial, t.resolver, n, 0)
		if err != nil {
			return nil, err
		}
		n.child = child
		switch {
		case present && raw == nil:
			n.extract = constant(nil)
		case present:
			n.extract = child.extract
		}
	case registry.ShapeList:
		list, isList := raw.([]any)
		if present && !isList {
			n.extract = constant(raw)
			break
		}
		for i, item := range list {
			tree, err := buildTree(field.Fields, item, t.resolver, n, i)
			if err != nil {
				return nil, err
			}
			n.items = append(n.items, tree)
		}
		if present {
			n.extract = n.composeItems()
		}
	default:
		if len(field.Fields) > 0 {
			return nil, fmt.Errorf("form: field %q of type %q cannot declare nested fields", n.Path(), desc.Name)
		}
		n.value = model.CloneValue(raw)
		if present {
			n.extract = constant(raw)
		}
	}
	return n, nil
}

// Edit replaces the local value of the node, marks it touched, rebuilds its
// value-extraction function and signals the owning tree. Group nodes rebuild
// their nested tree from a key→value map; list nodes rebuild one tree per
// entry of a list.
func (n *Node) Edit(value any) (ValueFunc, error) {
	switch n.desc.Shape {
	case registry.ShapeGroup:
		child, err := buildTree(n.field.Fields, value, n.tree.resolver, n, 0)
		if err != nil {
			return nil, err
		}
		n.child = child
		n.changed = true
		n.extract = n.composite(child.extract)
	case registry.ShapeList:
		list, ok := value.([]any)
		if !ok && value != nil {
			return nil, fmt.Errorf("form: field %q expects a list, got %T", n.Path(), value)
		}
		items := make([]*Tree, 0, len(list))
		for i, item := range list {
			tree, err := buildTree(n.field.Fields, item, n.tree.resolver, n, i)
			if err != nil {
				return nil, err
			}
			items = append(items, tree)
		}
		n.items = items
		n.changed = true
		n.extract = n.composeItems()
	default:
		n.value = model.CloneValue(value)
		n.extract = n.leafExtractor(n.value)
	}
	n.touched = true
	n.present = true
	n.tree.childChanged(n)
	return n.extract, nil
}

// Extractor returns the latest value-extraction function without evaluating
// it. It is nil while the field has neither a value nor a default.
func (n *Node) Extractor() ValueFunc {
	return n.extract
}

// AppendItem adds a list item seeded from values and returns its tree.
func (n *Node) AppendItem(values map[string]any) (*Tree, error) {
	if n.desc.Shape != registry.ShapeList {
		return nil, fmt.Errorf("%w: %q", ErrNotList, n.Path())
	}
	if values == nil {
		values = map[string]any{}
	}
	item, err := buildTree(n.field.Fields, values, n.tree.resolver, n, len(n.items))
	if err != nil {
		return nil, err
	}
	items := slices.Clone(n.items)
	n.items = append(items, item)
	n.itemsChanged()
	return item, nil
}

// RemoveItem deletes the list item at index.
func (n *Node) RemoveItem(index int) error {
	if n.desc.Shape != registry.ShapeList {
		return fmt.Errorf("%w: %q", ErrNotList, n.Path())
	}
	if index < 0 || index >= len(n.items) {
		return fmt.Errorf("%w: %d at %q", ErrItemIndex, index, n.Path())
	}
	n.items = slices.Delete(slices.Clone(n.items), index, index+1)
	n.itemsChanged()
	return nil
}

// MoveItem moves the list item at from to position to.
func (n *Node) MoveItem(from, to int) error {
	if n.desc.Shape != registry.ShapeList {
		return fmt.Errorf("%w: %q", ErrNotList, n.Path())
	}
	if from < 0 || from >= len(n.items) || to < 0 || to >= len(n.items) {
		return fmt.Errorf("%w: %d -> %d at %q", ErrItemIndex, from, to, n.Path())
	}
	if from == to {
		return nil
	}
	items := slices.Clone(n.items)
	item := items[from]
	items = slices.Delete(items, from, from+1)
	items = slices.Insert(items, to, item)
	n.items = items
	n.itemsChanged()
	return nil
}

func (n *Node) itemsChanged() {
	for i, item := range n.items {
		item.position = i
	}
	n.touched = true
	n.present = true
	n.changed = true
	n.extract = n.composeItems()
	n.tree.childChanged(n)
}

// descendantChanged recomposes a group or list node after an edit below it.
func (n *Node) descendantChanged(origin *Node) {
	n.changed = true
	n.present = true
	switch n.desc.Shape {
	case registry.ShapeGroup:
		n.extract = n.composite(n.child.extract)
	case registry.ShapeList:
		n.extract = n.composeItems()
	}
	n.tree.recompose(n)
	n.tree.signal(origin)
}

func (n *Node) composeItems() ValueFunc {
	fns := make([]ValueFunc, len(n.items))
	for i, item := range n.items {
		fns[i] = item.extract
	}
	return n.composite(func() any {
		out := make([]any, len(fns))
		for i, fn := range fns {
			out[i] = fn()
		}
		return out
	})
}

// composite applies the handler's extraction capability to a composed value
// once the subtree has been edited.
func (n *Node) composite(fn ValueFunc) ValueFunc {
	if n.desc.Extract == nil || !n.changed {
		return fn
	}
	desc, field := n.desc, n.field
	return func() any { return desc.Extract(field, fn()) }
}

func (n *Node) leafExtractor(value any) ValueFunc {
	captured := model.CloneValue(value)
	desc, field := n.desc, n.field
	return func() any { return desc.ExtractValue(field, model.CloneValue(captured)) }
}

func constant(value any) ValueFunc {
	captured := model.CloneValue(value)
	return func() any { return model.CloneValue(captured) }
}

// Field returns the descriptor the node was built from.
func (n *Node) Field() model.Field { return n.field }

// Key returns the field key.
func (n *Node) Key() string { return n.field.Key }

// Descriptor returns the resolved handler descriptor.
func (n *Node) Descriptor() registry.Descriptor { return n.desc }

// Shape reports how the node composes its value.
func (n *Node) Shape() registry.Shape { return n.desc.Shape }

// Path returns the dotted path of the node from the root tree.
func (n *Node) Path() string { return model.JoinPath(n.tree.prefix(), n.field.Key) }

// Touched reports whether the node was edited since the tree was last marked
// clean.
func (n *Node) Touched() bool { return n.touched }

// Present reports whether the node contributes a key to the aggregated value.
func (n *Node) Present() bool { return n.present }

// Value returns a copy of the local value of a leaf node.
func (n *Node) Value() any { return model.CloneValue(n.value) }

// Child returns the nested tree of a group node.
func (n *Node) Child() *Tree { return n.child }

// Children returns the nodes of a group node's nested tree.
func (n *Node) Children() []*Node {
	if n.child == nil {
		return nil
	}
	return n.child.Nodes()
}

// Items returns the item trees of a list node.
func (n *Node) Items() []*Tree { return slices.Clone(n.items) }
