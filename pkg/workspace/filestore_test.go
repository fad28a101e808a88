package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	config := map[string]any{
		"title":  "My Blog",
		"params": map[string]any{"paginate": 10},
		"menu":   []any{map[string]any{"name": "Home"}},
	}
	if err := store.SaveWorkspaceConfig(ctx, "blog", "main", config); err != nil {
		t.Fatalf("SaveWorkspaceConfig: %v", err)
	}

	details, err := store.WorkspaceDetails(ctx, "blog", "main")
	if err != nil {
		t.Fatalf("WorkspaceDetails: %v", err)
	}
	if diff := cmp.Diff(config, details.Config); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	if details.Site != "blog" || details.Workspace != "main" {
		t.Fatalf("unexpected keys %q/%q", details.Site, details.Workspace)
	}
	if details.UpdatedAt.IsZero() {
		t.Fatal("expected modification time")
	}

	if _, err := os.Stat(filepath.Join(store.Root(), "blog", "main.yaml")); err != nil {
		t.Fatalf("expected yaml document on disk: %v", err)
	}
	leftovers, _ := filepath.Glob(filepath.Join(store.Root(), "blog", ".main-*"))
	if len(leftovers) != 0 {
		t.Fatalf("temporary files left behind: %v", leftovers)
	}
}

func TestFileStoreMissingWorkspace(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	_, err = store.WorkspaceDetails(context.Background(), "blog", "draft")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) || serviceErr.Op != "details" {
		t.Fatalf("expected details ServiceError, got %#v", err)
	}
}

func TestFileStoreRejectsUnsafeKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	for _, keys := range [][2]string{
		{"", "main"},
		{"blog", ""},
		{"..", "main"},
		{"blog", "../escape"},
		{" blog", "main"},
	} {
		if err := store.SaveWorkspaceConfig(ctx, keys[0], keys[1], nil); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("SaveWorkspaceConfig(%q, %q) = %v, want ErrInvalidKey", keys[0], keys[1], err)
		}
	}
}

func TestFileStoreSyncUnsupported(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	if err := store.SyncWorkspace(ctx, "blog", "main"); !errors.Is(err, ErrNotSupported) {
		t.Fatalf("SyncWorkspace = %v, want ErrNotSupported", err)
	}
	if err := store.PublishWorkspace(ctx, "blog", "main"); !errors.Is(err, ErrNotSupported) {
		t.Fatalf("PublishWorkspace = %v, want ErrNotSupported", err)
	}
	ok, err := store.CanSyncWorkspace(ctx, "blog", "main")
	if err != nil || ok {
		t.Fatalf("CanSyncWorkspace = %v, %v", ok, err)
	}
}
