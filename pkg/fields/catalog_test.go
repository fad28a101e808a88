package fields

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/caklein/hokus/pkg/model"
	"github.com/caklein/hokus/pkg/registry"
	"github.com/caklein/hokus/pkg/render/template/pongo"
)

func TestNewRegistryContainsCatalog(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	want := []string{
		TypeAccordion, TypeBoolean, TypeChips, TypeHidden, TypeMarkdown, TypeNest,
		TypeNumber, TypeReadonly, TypeSection, TypeSelect, TypeString, TypeTextarea,
	}
	if diff := cmp.Diff(want, reg.Names()); diff != "" {
		t.Fatalf("catalog mismatch (-want +got):\n%s", diff)
	}

	section, _ := reg.Resolve(TypeSection)
	accordion, _ := reg.Resolve(TypeAccordion)
	if section.Shape != registry.ShapeGroup || accordion.Shape != registry.ShapeList {
		t.Fatalf("unexpected shapes: section=%v accordion=%v", section.Shape, accordion.Shape)
	}
}

func TestNewRegistryAcceptsPlugins(t *testing.T) {
	plugin := registry.Descriptor{Render: templateRender("string")}
	reg, err := NewRegistry(
		registry.WithPlugins(map[string]registry.Descriptor{"color": plugin}),
		registry.WithDuplicatePolicy(registry.DuplicateReject),
	)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if _, err := reg.Resolve("color"); err != nil {
		t.Fatalf("resolve plugin: %v", err)
	}
}

func TestExtractors(t *testing.T) {
	field := model.Field{Options: []model.Option{{Value: 10}, {Value: "list"}}}
	cases := []struct {
		name string
		fn   registry.ExtractFunc
		in   any
		want any
	}{
		{"number int", extractNumber, " 12 ", 12},
		{"number float", extractNumber, "1.5", 1.5},
		{"number empty", extractNumber, "", nil},
		{"number passthrough", extractNumber, 3, 3},
		{"number invalid", extractNumber, "abc", "abc"},
		{"boolean on", extractBoolean, "on", true},
		{"boolean off", extractBoolean, "false", false},
		{"boolean typed", extractBoolean, true, true},
		{"select typed option", extractSelect, "10", 10},
		{"select unknown", extractSelect, "grid", "grid"},
		{"chips string", extractChips, "go, hugo,, ", []any{"go", "hugo"}},
		{"chips typed", extractChips, []string{"a"}, []any{"a"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tc.want, tc.fn(field, tc.in)); diff != "" {
				t.Fatalf("extract mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func newEngine(t *testing.T) *pongo.Engine {
	t.Helper()
	engine, err := pongo.New(pongo.WithFS(Templates()))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return engine
}

func TestStringTemplateEscapesValues(t *testing.T) {
	var buf bytes.Buffer
	field := model.Field{Key: "title", Type: TypeString, Description: `Shown in <b>headers</b><script>alert(1)</script>`}
	err := templateRender("string")(&buf, field, registry.RenderData{
		Template: newEngine(t),
		Path:     "params.title",
		Value:    `My "Blog"`,
		Errors:   []string{"Too long"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`id="hk-params-title"`,
		`name="params.title"`,
		`value="My &quot;Blog&quot;"`,
		`<b>headers</b>`,
		`<p class="hk-error">Too long</p>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<script>") {
		t.Fatalf("description was not sanitized:\n%s", out)
	}
}

func TestSelectTemplateMarksCurrentOption(t *testing.T) {
	var buf bytes.Buffer
	field := model.Field{Key: "layout", Type: TypeSelect, Options: []model.Option{
		{Value: "list", Text: "List"},
		{Value: "grid", Text: "Grid"},
	}}
	err := templateRender("select")(&buf, field, registry.RenderData{
		Template: newEngine(t),
		Path:     "layout",
		Value:    "grid",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), `<option value="grid" selected>Grid</option>`) {
		t.Fatalf("expected selected option:\n%s", buf.String())
	}
}

func TestGroupTemplateEmbedsChildren(t *testing.T) {
	var buf bytes.Buffer
	err := templateRender("section")(&buf, model.Field{Key: "address", Type: TypeSection}, registry.RenderData{
		Template:       newEngine(t),
		Path:           "address",
		RenderChildren: func() (string, error) { return `<input name="address.city">`, nil },
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), `<input name="address.city">`) {
		t.Fatalf("expected unescaped children:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "<legend>Address</legend>") {
		t.Fatalf("expected derived label:\n%s", buf.String())
	}
}

func TestTemplateRenderRequiresEngine(t *testing.T) {
	var buf bytes.Buffer
	if err := templateRender("string")(&buf, model.Field{Key: "a"}, registry.RenderData{}); err == nil {
		t.Fatalf("expected error without template renderer")
	}
}

func TestSanitizeHelp(t *testing.T) {
	got := SanitizeHelp(` See <a href="https://gohugo.io" onclick="x()">docs</a><img src=x> `)
	if strings.Contains(got, "onclick") || strings.Contains(got, "<img") {
		t.Fatalf("unsafe markup kept: %s", got)
	}
	if !strings.Contains(got, `href="https://gohugo.io"`) {
		t.Fatalf("link removed: %s", got)
	}
	if SanitizeHelp("   ") != "" {
		t.Fatalf("expected empty result")
	}
}
