package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/caklein/hokus/pkg/model"
	"github.com/caklein/hokus/pkg/render"
)

func configSchema() model.Schema {
	return model.Schema{
		{Key: "title", Type: "string"},
		{Key: "owner", Type: "section", Fields: []model.Field{
			{Key: "email", Type: "string"},
			{Key: "phone", Type: "string"},
		}},
		{Key: "menu", Type: "accordion", Fields: []model.Field{
			{Key: "title", Type: "string"},
		}},
	}
}

func TestMapErrorPayloadAgainstSchema(t *testing.T) {
	payload := map[string][]string{
		"/body/title":                {"Title is required"},
		"body.owner.email":           {"Email invalid"},
		"request.payload.owner":      {"Owner missing"},
		"non_field_errors":           {"Form level error"},
		"body/owner/phone/~1number":  {"Phone malformed"},
		"request/body/unknown-field": {"Should fall back to form errors"},
		"":                           {"Unscoped form error"},
	}

	mapped := render.MapErrorPayload(configSchema(), nil, payload)

	wantFields := map[string][]string{
		"title":       {"Title is required"},
		"owner.email": {"Email invalid"},
		"owner":       {"Owner missing"},
		"owner.phone": {"Phone malformed"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	wantForm := []string{"Form level error", "Should fall back to form errors", "Unscoped form error"}
	if diff := cmp.Diff(wantForm, mapped.Form, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMapErrorPayloadKeepsItemIndexes(t *testing.T) {
	values := map[string]any{
		"menu": []any{map[string]any{"title": "Home"}, map[string]any{"title": ""}},
	}

	mapped := render.MapErrorPayload(configSchema(), values, map[string][]string{
		"/menu/1/title":        {"Menu title missing"},
		"$.body.menu[0].title": {"Duplicate title", " Duplicate title "},
		"menu[4].title":        {"No such item"},
	})

	wantFields := map[string][]string{
		"menu.0.title": {"Duplicate title"},
		"menu.1.title": {"Menu title missing"},
		"menu":         {"No such item"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if len(mapped.Form) != 0 {
		t.Fatalf("unexpected form errors %v", mapped.Form)
	}
}

func TestMapErrorPayloadPrefersFieldNamedLikeEnvelope(t *testing.T) {
	schema := model.Schema{{Key: "data", Type: "section", Fields: []model.Field{{Key: "slug", Type: "string"}}}}

	mapped := render.MapErrorPayload(schema, nil, map[string][]string{"data.slug": {"Taken"}})

	if diff := cmp.Diff(map[string][]string{"data.slug": {"Taken"}}, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderOptionsFieldErrors(t *testing.T) {
	opts := render.RenderOptions{Errors: map[string][]string{"title": {"Required"}}}
	got := opts.FieldErrors(map[string][]string{"title": {"Required", "Too short"}, "owner.email": {"Invalid"}})
	want := map[string][]string{
		"title":       {"Required", "Too short"},
		"owner.email": {"Invalid"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merged errors mismatch (-want +got):\n%s", diff)
	}
	if (render.RenderOptions{}).FieldErrors(nil) != nil {
		t.Fatalf("expected nil without errors")
	}
}
