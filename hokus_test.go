package hokus

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	pkgopenapi "github.com/caklein/hokus/pkg/openapi"
	"github.com/caklein/hokus/pkg/session"
)

func TestAssetsFSContainsStylesheetAndScript(t *testing.T) {
	for _, name := range []string{"hokus.css", "hokus.js"} {
		if _, err := fs.ReadFile(AssetsFS(), name); err != nil {
			t.Fatalf("expected %s to be readable: %v", name, err)
		}
	}
	if got := len(EmbeddedTemplates()); got != 2 {
		t.Fatalf("EmbeddedTemplates() returned %d filesystems", got)
	}
}

func TestDefaultSiteFormSession(t *testing.T) {
	store, err := LoadSchemas(nil)
	if err != nil {
		t.Fatalf("LoadSchemas: %v", err)
	}
	site, ok := store.Form("site")
	if !ok {
		t.Fatalf("embedded site form missing, have %v", store.IDs())
	}

	s, err := NewSession(site.Fields, map[string]any{"title": "My Blog", "custom": 1})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.Edit("title", "Renamed"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if err := s.RequestSave(context.Background()); !errors.Is(err, session.ErrSaveNotConfigured) {
		t.Fatalf("RequestSave = %v, want ErrSaveNotConfigured", err)
	}
	if msg := s.State().Message; msg != session.NotConfiguredMessage {
		t.Fatalf("message = %q", msg)
	}

	html, err := RenderHTML(context.Background(), s, RenderOptions{RootName: site.RootName, Title: site.Title})
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	for _, want := range []string{"Save not implemented", `value="Renamed"`, "Site configuration"} {
		if !strings.Contains(string(html), want) {
			t.Errorf("rendered form missing %q", want)
		}
	}
}

func TestSchemaFromOpenAPI(t *testing.T) {
	doc := `openapi: 3.0.3
info: {title: Site, version: 1.0.0}
paths: {}
components:
  schemas:
    Params:
      type: object
      properties:
        author: {type: string}
        draft: {type: boolean}
`
	path := filepath.Join(t.TempDir(), "site.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := SchemaFromOpenAPI(context.Background(), pkgopenapi.SourceFromFile(path)); !errors.Is(err, pkgopenapi.ErrComponentRequired) {
		t.Fatalf("expected ErrComponentRequired, got %v", err)
	}

	src, err := pkgopenapi.ParseSource(path + "#/components/schemas/Params")
	if err != nil {
		t.Fatalf("ParseSource: %v", err)
	}
	schema, err := SchemaFromOpenAPI(context.Background(), src)
	if err != nil {
		t.Fatalf("SchemaFromOpenAPI: %v", err)
	}
	want := Schema{
		{Key: "author", Type: "string"},
		{Key: "draft", Type: "boolean"},
	}
	if diff := cmp.Diff(want, schema); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}

	s, err := NewSession(schema, nil, session.WithSaveHandler(SaveHandlerFunc(func(_ context.Context, sc *SaveContext) {
		_ = sc.Accept()
	})))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.Edit("author", "Ada"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if err := s.RequestSave(context.Background()); err != nil {
		t.Fatalf("RequestSave: %v", err)
	}
	if state := s.State(); state.Phase != session.PhaseClean || !state.SavedOnce {
		t.Fatalf("state = %+v", state)
	}
}
