package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/caklein/hokus/pkg/fields"
	"github.com/caklein/hokus/pkg/model"
	"github.com/caklein/hokus/pkg/workspace"
)

const base = "/sites/blog/workspaces/main"

func testSchema() model.Schema {
	return model.Schema{
		{Key: "title", Type: fields.TypeString, Validations: []model.ValidationRule{{Kind: model.ValidationRuleRequired}}},
		{Key: "draft", Type: fields.TypeBoolean},
		{Key: "menu", Type: fields.TypeAccordion, Fields: []model.Field{
			{Key: "name", Type: fields.TypeString},
		}},
	}
}

func newTestServer(t *testing.T) (*Server, *workspace.FileStore) {
	t.Helper()
	store, err := workspace.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	seed := map[string]any{
		"title": "My Blog",
		"draft": false,
		"menu":  []any{map[string]any{"name": "Home"}},
		"extra": "kept",
	}
	if err := store.SaveWorkspaceConfig(context.Background(), "blog", "main", seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	srv, err := New(WithService(store), WithForm(testSchema(), "Site settings"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return srv, store
}

func do(t *testing.T, srv http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func stateOf(t *testing.T, payload map[string]any) map[string]any {
	t.Helper()
	state, ok := payload["state"].(map[string]any)
	if !ok {
		t.Fatalf("payload has no state: %v", payload)
	}
	return state
}

func stored(t *testing.T, store *workspace.FileStore) map[string]any {
	t.Helper()
	details, err := store.WorkspaceDetails(context.Background(), "blog", "main")
	if err != nil {
		t.Fatalf("WorkspaceDetails: %v", err)
	}
	return details.Config
}

func TestConfigRendersHTML(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, base+"/config", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`value="My Blog"`,
		`data-dirty="false"`,
		`action="` + base + `/save"`,
		"Site settings",
		`<input type="hidden" name="_site" value="blog">`,
		`<input type="hidden" name="_workspace" value="main">`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("config page missing %q", want)
		}
	}
}

func TestConfigHiddenFieldsOption(t *testing.T) {
	store, err := workspace.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	srv, err := New(
		WithService(store),
		WithForm(testSchema(), ""),
		WithHiddenFields(map[string]string{"csrf": "t0k", SiteField: "spoofed"}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })

	body := do(t, srv, http.MethodGet, base+"/config", "", "").Body.String()
	for _, want := range []string{
		`<input type="hidden" name="csrf" value="t0k">`,
		`<input type="hidden" name="_site" value="blog">`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("config page missing %q", want)
		}
	}
	if strings.Contains(body, "spoofed") {
		t.Fatalf("workspace inputs must override configured hidden fields")
	}
}

// Run with -race: config pages render the same session that field edits
// mutate.
func TestConfigRendersWhileFieldsAreEdited(t *testing.T) {
	srv, _ := newTestServer(t)
	if rec := do(t, srv, http.MethodGet, base+"/config", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	const rounds = 100
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			body := `{"path":"menu","value":[{"name":"Home"},{"name":"Posts"}]}`
			if i%2 == 0 {
				body = `{"path":"title","value":"Renamed"}`
			}
			if rec := do(t, srv, http.MethodPost, base+"/fields", "application/json", body); rec.Code != http.StatusOK {
				t.Errorf("edit status = %d: %s", rec.Code, rec.Body.String())
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if rec := do(t, srv, http.MethodGet, base+"/config", "", ""); rec.Code != http.StatusOK {
				t.Errorf("config status = %d", rec.Code)
				return
			}
		}
	}()
	wg.Wait()
}

func TestConfigNegotiatesJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, base+"/config", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	payload := decodeBody(t, rec)
	if payload["rootName"] != "blog/main" {
		t.Fatalf("rootName = %v", payload["rootName"])
	}
	values := payload["values"].(map[string]any)
	if values["extra"] != "kept" {
		t.Fatalf("extra value lost: %v", values)
	}
}

func TestEditAndSave(t *testing.T) {
	srv, store := newTestServer(t)

	rec := do(t, srv, http.MethodPost, base+"/fields", "application/json", `{"path":"menu.0.name","value":"Start"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit status = %d: %s", rec.Code, rec.Body.String())
	}
	if state := stateOf(t, decodeBody(t, rec)); state["phase"] != "dirty" {
		t.Fatalf("phase after edit = %v", state["phase"])
	}

	rec = do(t, srv, http.MethodPost, base+"/save", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body.String())
	}
	state := stateOf(t, decodeBody(t, rec))
	if state["phase"] != "clean" || state["savedOnce"] != true {
		t.Fatalf("unexpected state after save: %v", state)
	}

	want := map[string]any{
		"title": "My Blog",
		"draft": false,
		"menu":  []any{map[string]any{"name": "Start"}},
		"extra": "kept",
	}
	if diff := cmp.Diff(want, stored(t, store)); diff != "" {
		t.Fatalf("stored config mismatch (-want +got):\n%s", diff)
	}

	rec = do(t, srv, http.MethodPost, base+"/save", "", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("clean save status = %d", rec.Code)
	}
}

func TestSaveRejectedByValidation(t *testing.T) {
	srv, store := newTestServer(t)

	do(t, srv, http.MethodPost, base+"/fields", "application/json", `{"path":"title","value":""}`)
	rec := do(t, srv, http.MethodPost, base+"/save", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d", rec.Code)
	}
	state := stateOf(t, decodeBody(t, rec))
	if state["phase"] != "error" || state["message"] != workspace.ValidationMessage {
		t.Fatalf("unexpected state: %v", state)
	}
	fieldErrors := state["fieldErrors"].(map[string]any)
	if _, ok := fieldErrors["title"]; !ok {
		t.Fatalf("expected title error, got %v", fieldErrors)
	}
	if got := stored(t, store)["title"]; got != "My Blog" {
		t.Fatalf("stored title changed to %v", got)
	}
}

func TestKeysTriggerSave(t *testing.T) {
	srv, store := newTestServer(t)

	rec := do(t, srv, http.MethodPost, base+"/keys", "application/json", `{"key":"s","ctrl":true}`)
	if consumed := decodeBody(t, rec)["consumed"]; consumed != false {
		t.Fatalf("shortcut on a clean form consumed = %v", consumed)
	}

	do(t, srv, http.MethodPost, base+"/fields", "application/json", `{"path":"title","value":"Renamed"}`)
	rec = do(t, srv, http.MethodPost, base+"/keys", "application/json", `{"key":"s","alt":true}`)
	if consumed := decodeBody(t, rec)["consumed"]; consumed != false {
		t.Fatalf("alt+s consumed = %v", consumed)
	}

	rec = do(t, srv, http.MethodPost, base+"/keys", "application/json", `{"key":"s","ctrl":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("keys status = %d", rec.Code)
	}
	payload := decodeBody(t, rec)
	if payload["consumed"] != true {
		t.Fatalf("ctrl+s not consumed: %v", payload)
	}
	if got := stored(t, store)["title"]; got != "Renamed" {
		t.Fatalf("stored title = %v", got)
	}
}

func TestFormPostSavesAndRedirects(t *testing.T) {
	srv, store := newTestServer(t)

	form := url.Values{}
	form.Add("title", "From the browser")
	form.Add("draft", "false")
	form.Add("draft", "true")
	form.Add("menu.0.name", "Home")

	rec := do(t, srv, http.MethodPost, base+"/save", "application/x-www-form-urlencoded", form.Encode())
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != base+"/config" {
		t.Fatalf("redirect = %q", loc)
	}

	config := stored(t, store)
	if config["title"] != "From the browser" || config["draft"] != true {
		t.Fatalf("stored config = %v", config)
	}
}

func TestItemsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, base+"/items", "application/json", `{"path":"menu","action":"append","values":{"name":"About"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("append status = %d: %s", rec.Code, rec.Body.String())
	}
	values := decodeBody(t, rec)["values"].(map[string]any)
	if menu := values["menu"].([]any); len(menu) != 2 {
		t.Fatalf("menu after append = %v", menu)
	}

	rec = do(t, srv, http.MethodPost, base+"/items", "application/json", `{"path":"menu","action":"shuffle"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown action status = %d", rec.Code)
	}
}

func TestCloseSession(t *testing.T) {
	srv, _ := newTestServer(t)

	if rec := do(t, srv, http.MethodDelete, base+"/session", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("close before open = %d", rec.Code)
	}
	do(t, srv, http.MethodGet, base+"/state", "", "")

	rec := do(t, srv, http.MethodGet, "/sessions", "", "")
	if diff := cmp.Diff(map[string]any{"sessions": []any{"blog/main"}}, decodeBody(t, rec)); diff != "" {
		t.Fatalf("sessions mismatch (-want +got):\n%s", diff)
	}

	if rec := do(t, srv, http.MethodDelete, base+"/session", "", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("close status = %d", rec.Code)
	}
}

func TestNewWorkspaceStartsEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/sites/blog/workspaces/draft/state", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if state := stateOf(t, decodeBody(t, rec)); state["phase"] != "clean" {
		t.Fatalf("phase = %v", state["phase"])
	}
}

func TestAssetsServed(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, AssetPrefix+"/hokus.css", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "rubberBand") {
		t.Fatal("stylesheet content missing")
	}
}

func TestNewRequiresServiceAndSchema(t *testing.T) {
	if _, err := New(WithForm(testSchema(), "")); err == nil {
		t.Fatal("expected error without service")
	}
	store, _ := workspace.NewFileStore(t.TempDir())
	if _, err := New(WithService(store)); err == nil {
		t.Fatal("expected error without schema")
	}
}
