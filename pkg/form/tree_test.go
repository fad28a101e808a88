package form_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/caklein/hokus/pkg/form"
	"github.com/caklein/hokus/pkg/model"
	"github.com/caklein/hokus/pkg/registry"
)

func TestBuildRoundTripIdentity(t *testing.T) {
	cases := []struct {
		name   string
		schema model.Schema
		values map[string]any
	}{
		{
			name:   "flat",
			schema: model.Schema{{Key: "name", Type: "string"}},
			values: map[string]any{"name": "a"},
		},
		{
			name:   "nested and list",
			schema: siteSchema(),
			values: map[string]any{
				"title":    "Blog",
				"paginate": "10",
				"address":  map[string]any{"city": "X", "zip": "1"},
				"menu": []any{
					map[string]any{"title": "Home", "weight": 1},
					map[string]any{"title": "About", "weight": 2, "url": "/about"},
				},
			},
		},
		{
			name:   "keys outside the schema",
			schema: model.Schema{{Key: "title", Type: "string"}},
			values: map[string]any{
				"title":  "Blog",
				"params": map[string]any{"theme": "ananke"},
			},
		},
		{
			name:   "null and mismatched shapes",
			schema: siteSchema(),
			values: map[string]any{
				"title":   nil,
				"address": "unset",
				"menu":    nil,
			},
		},
		{
			name:   "empty",
			schema: siteSchema(),
			values: map[string]any{},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tree, err := form.Build(tc.schema, tc.values, newTestRegistry(nil))
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if diff := cmp.Diff(tc.values, tree.Extractor()()); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEditsAreLastWriteWinsAcrossKeys(t *testing.T) {
	schema := model.Schema{
		{Key: "a", Type: "string"},
		{Key: "b", Type: "string"},
		{Key: "c", Type: "string"},
	}
	initial := map[string]any{"a": "1", "b": "1", "c": "1"}

	type edit struct {
		path  string
		value any
	}
	orders := [][]edit{
		{{"a", "x"}, {"b", "y"}, {"a", "z"}, {"c", "w"}},
		{{"c", "w"}, {"a", "x"}, {"a", "z"}, {"b", "y"}},
		{{"b", "y"}, {"c", "q"}, {"a", "z"}, {"c", "w"}},
	}
	want := map[string]any{"a": "z", "b": "y", "c": "w"}

	for _, edits := range orders {
		tree, err := form.Build(schema, initial, newTestRegistry(nil))
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		for _, e := range edits {
			if _, err := tree.Edit(e.path, e.value); err != nil {
				t.Fatalf("edit %s: %v", e.path, err)
			}
		}
		if diff := cmp.Diff(want, tree.Snapshot()); diff != "" {
			t.Fatalf("snapshot mismatch for %v (-want +got):\n%s", edits, diff)
		}
	}
}

func TestNestedEditPreservesSiblings(t *testing.T) {
	schema := model.Schema{
		{Key: "address", Type: "section", Fields: []model.Field{
			{Key: "city", Type: "string"},
			{Key: "zip", Type: "string"},
		}},
	}
	tree, err := form.Build(schema, map[string]any{
		"address": map[string]any{"city": "X", "zip": "1"},
	}, newTestRegistry(nil))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if _, err := tree.Edit("address.zip", "2"); err != nil {
		t.Fatalf("edit: %v", err)
	}

	want := map[string]any{"address": map[string]any{"city": "X", "zip": "2"}}
	if diff := cmp.Diff(want, tree.Snapshot()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractionIsDeferredUntilInvoked(t *testing.T) {
	counter := &extractCounter{}
	tree, err := form.Build(siteSchema(), map[string]any{"paginate": 5}, newTestRegistry(counter))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	for _, v := range []string{"6", "7", "8"} {
		if _, err := tree.Edit("paginate", v); err != nil {
			t.Fatalf("edit: %v", err)
		}
	}
	if got := counter.calls.Load(); got != 0 {
		t.Fatalf("expected no extraction during edits, got %d", got)
	}

	snapshot := tree.Snapshot()
	if got := counter.calls.Load(); got != 1 {
		t.Fatalf("expected one extraction at snapshot, got %d", got)
	}
	if snapshot["paginate"] != 8.0 {
		t.Fatalf("expected handler coercion to run, got %#v", snapshot["paginate"])
	}
}

func TestUntouchedValuesAreNotCoerced(t *testing.T) {
	counter := &extractCounter{}
	tree, err := form.Build(siteSchema(), map[string]any{"paginate": "10"}, newTestRegistry(counter))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := tree.Snapshot()["paginate"]; got != "10" {
		t.Fatalf("expected untouched value verbatim, got %#v", got)
	}
	if counter.calls.Load() != 0 {
		t.Fatalf("expected no handler extraction for untouched leaf")
	}
}

func TestEarlierExtractorIsStable(t *testing.T) {
	tree, err := form.Build(siteSchema(), map[string]any{"title": "a"}, newTestRegistry(nil))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	before := tree.Extractor()
	leaf, err := tree.Edit("title", "b")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if _, err := tree.Edit("title", "c"); err != nil {
		t.Fatalf("edit: %v", err)
	}

	if got := before().(map[string]any)["title"]; got != "a" {
		t.Fatalf("pre-edit extractor changed: %v", got)
	}
	if got := leaf(); got != "b" {
		t.Fatalf("leaf extractor changed: %v", got)
	}

	// Mutating an extracted value must not leak back into the tree.
	snapshot := tree.Snapshot()
	snapshot["title"] = "mutated"
	if got := tree.Snapshot()["title"]; got != "c" {
		t.Fatalf("snapshot mutation leaked: %v", got)
	}
}

func TestBuildSeedsDefaultsAndOmitsAbsentKeys(t *testing.T) {
	schema := model.Schema{
		{Key: "draft", Type: "boolean"},
		{Key: "theme", Type: "string", Default: "ananke"},
		{Key: "subtitle", Type: "string"},
	}
	tree, err := form.Build(schema, nil, newTestRegistry(nil))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	want := map[string]any{"draft": false, "theme": "ananke"}
	if diff := cmp.Diff(want, tree.Snapshot()); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}

	node, _ := tree.Node("subtitle")
	if node.Present() || node.Extractor() != nil {
		t.Fatalf("expected absent field without default to be omitted")
	}
	if _, err := node.Edit("Notes"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got := tree.Snapshot()["subtitle"]; got != "Notes" {
		t.Fatalf("expected edited absent field to appear, got %v", got)
	}
}

func TestBuildUnknownFieldType(t *testing.T) {
	schema := model.Schema{
		{Key: "address", Type: "section", Fields: []model.Field{
			{Key: "color", Type: "colorpicker"},
		}},
	}
	tree, err := form.Build(schema, nil, newTestRegistry(nil))
	if tree != nil {
		t.Fatalf("expected no partial tree")
	}
	if !errors.Is(err, registry.ErrUnknownFieldType) {
		t.Fatalf("expected ErrUnknownFieldType, got %v", err)
	}
	var unknown *registry.UnknownFieldTypeError
	if !errors.As(err, &unknown) || unknown.Type != "colorpicker" {
		t.Fatalf("expected identifier in error, got %v", err)
	}
}

func TestBuildFreezesRegistry(t *testing.T) {
	reg := newTestRegistry(nil)
	if _, err := form.Build(siteSchema(), nil, reg); err != nil {
		t.Fatalf("build: %v", err)
	}
	err := reg.Register("late", registry.Descriptor{Render: noopRender})
	if !errors.Is(err, registry.ErrRegistryFrozen) {
		t.Fatalf("expected ErrRegistryFrozen, got %v", err)
	}
}

func TestBuildRejectsInvalidSchemas(t *testing.T) {
	cases := map[string]model.Schema{
		"missing key":       {{Type: "string"}},
		"duplicate key":     {{Key: "a", Type: "string"}, {Key: "a", Type: "string"}},
		"nested under leaf": {{Key: "a", Type: "string", Fields: []model.Field{{Key: "b", Type: "string"}}}},
	}
	for name, schema := range cases {
		if _, err := form.Build(schema, nil, newTestRegistry(nil)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := form.Build(nil, nil, nil); err == nil {
		t.Errorf("expected error for nil resolver")
	}
}

func TestLookupPaths(t *testing.T) {
	tree, err := form.Build(siteSchema(), map[string]any{
		"menu": []any{map[string]any{"title": "Home"}},
	}, newTestRegistry(nil))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	node, err := tree.Lookup("menu.0.title")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if node.Path() != "menu.0.title" || node.Value() != "Home" {
		t.Fatalf("unexpected node %s=%v", node.Path(), node.Value())
	}

	for _, path := range []string{"", "missing", "title.extra", "menu.3.title", "menu.0", "address.country"} {
		if _, err := tree.Lookup(path); !errors.Is(err, form.ErrUnknownPath) {
			t.Errorf("Lookup(%q): expected ErrUnknownPath, got %v", path, err)
		}
	}
}

func TestListItemOperations(t *testing.T) {
	tree, err := form.Build(siteSchema(), map[string]any{
		"menu": []any{
			map[string]any{"title": "Home"},
			map[string]any{"title": "About"},
		},
	}, newTestRegistry(nil))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	menu, _ := tree.Node("menu")

	item, err := menu.AppendItem(map[string]any{"title": "Posts"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := item.Nodes()[0].Path(); got != "menu.2.title" {
		t.Fatalf("unexpected appended path %q", got)
	}
	if err := menu.MoveItem(2, 0); err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := item.Nodes()[0].Path(); got != "menu.0.title" {
		t.Fatalf("unexpected moved path %q", got)
	}
	if err := menu.RemoveItem(1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := tree.Edit("menu.1.weight", "3"); err != nil {
		t.Fatalf("edit item: %v", err)
	}

	want := []any{
		map[string]any{"title": "Posts"},
		map[string]any{"title": "About", "weight": 3.0},
	}
	if diff := cmp.Diff(want, tree.Snapshot()["menu"]); diff != "" {
		t.Fatalf("menu mismatch (-want +got):\n%s", diff)
	}

	if err := menu.RemoveItem(5); !errors.Is(err, form.ErrItemIndex) {
		t.Fatalf("expected ErrItemIndex, got %v", err)
	}
	title, _ := tree.Node("title")
	if _, err := title.AppendItem(nil); !errors.Is(err, form.ErrNotList) {
		t.Fatalf("expected ErrNotList, got %v", err)
	}
}

func TestGroupAndListReplacement(t *testing.T) {
	tree, err := form.Build(siteSchema(), nil, newTestRegistry(nil))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := tree.Edit("address", map[string]any{"city": "Porto"}); err != nil {
		t.Fatalf("edit group: %v", err)
	}
	if _, err := tree.Edit("menu", []any{map[string]any{"title": "Home"}}); err != nil {
		t.Fatalf("edit list: %v", err)
	}
	if _, err := tree.Edit("menu", "nope"); err == nil {
		t.Fatalf("expected error for non-list value")
	}

	want := map[string]any{
		"address": map[string]any{"city": "Porto"},
		"menu":    []any{map[string]any{"title": "Home"}},
	}
	if diff := cmp.Diff(want, tree.Snapshot()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestTypeIDsAndWalk(t *testing.T) {
	tree, err := form.Build(siteSchema(), map[string]any{
		"menu": []any{map[string]any{"title": "Home"}},
	}, newTestRegistry(nil))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if diff := cmp.Diff([]string{"string", "number", "section", "accordion"}, tree.TypeIDs()); diff != "" {
		t.Fatalf("type ids mismatch (-want +got):\n%s", diff)
	}

	var paths []string
	tree.Walk(func(n *form.Node) bool {
		paths = append(paths, n.Path())
		return true
	})
	want := []string{"title", "paginate", "address", "address.city", "address.zip", "menu", "menu.0.title", "menu.0.weight"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("walk mismatch (-want +got):\n%s", diff)
	}
}
