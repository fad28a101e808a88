package form_test

import (
	"testing"

	"github.com/caklein/hokus/pkg/form"
)

func TestAggregatorNotifiesOncePerTransition(t *testing.T) {
	tree, err := form.Build(siteSchema(), map[string]any{"title": "a"}, newTestRegistry(nil))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	agg := form.NewAggregator(tree)

	notifications := 0
	agg.Observe(func() { notifications++ })

	if agg.Dirty() || agg.SavedOnce() {
		t.Fatalf("expected clean, never-saved aggregator")
	}

	for _, path := range []string{"title", "address.city", "title", "paginate"} {
		if _, err := tree.Edit(path, "x"); err != nil {
			t.Fatalf("edit %s: %v", path, err)
		}
	}
	if !agg.Dirty() {
		t.Fatalf("expected dirty after edits")
	}
	if notifications != 1 {
		t.Fatalf("expected exactly one notification, got %d", notifications)
	}

	agg.MarkClean()
	if agg.Dirty() || !agg.SavedOnce() {
		t.Fatalf("expected clean and saved once after MarkClean")
	}
	if tree.Touched() {
		t.Fatalf("expected touched flags cleared")
	}

	if _, err := tree.Edit("address.zip", "2"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if _, err := tree.Edit("address.zip", "3"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if notifications != 2 {
		t.Fatalf("expected re-armed notification, got %d", notifications)
	}
}

func TestAggregatorMarkCleanAtDetectsLateEdits(t *testing.T) {
	tree, err := form.Build(siteSchema(), nil, newTestRegistry(nil))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	agg := form.NewAggregator(tree)

	if _, err := tree.Edit("title", "a"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	generation := agg.Generation()
	if _, err := tree.Edit("title", "b"); err != nil {
		t.Fatalf("edit: %v", err)
	}

	if agg.MarkCleanAt(generation) {
		t.Fatalf("expected late edit to keep the tree dirty")
	}
	if !agg.Dirty() || !agg.SavedOnce() {
		t.Fatalf("expected dirty and saved once, got dirty=%v savedOnce=%v", agg.Dirty(), agg.SavedOnce())
	}

	if !agg.MarkCleanAt(agg.Generation()) {
		t.Fatalf("expected clean with current generation")
	}
	if agg.Dirty() {
		t.Fatalf("expected clean aggregator")
	}
}

func TestAggregatorExtractorTracksTree(t *testing.T) {
	tree, err := form.Build(siteSchema(), map[string]any{"title": "a"}, newTestRegistry(nil))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	agg := form.NewAggregator(tree)
	if _, err := tree.Edit("title", "b"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	got := agg.Extractor()().(map[string]any)["title"]
	if got != "b" {
		t.Fatalf("expected latest value, got %v", got)
	}
}
