package openapi

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/caklein/hokus/pkg/model"
)

const siteDocument = `openapi: 3.0.3
info:
  title: Site
  version: 1.0.0
paths: {}
components:
  schemas:
    Menu:
      type: object
      required: [name]
      properties:
        name:
          type: string
        weight:
          type: integer
    SiteConfig:
      type: object
      required: [title]
      properties:
        title:
          type: string
          title: Site title
          maxLength: 80
        summary:
          type: string
          format: textarea
        theme:
          type: string
          enum: [ananke, papermod]
          default: ananke
        paginate:
          type: integer
          minimum: 1
        drafts:
          type: boolean
        tags:
          type: array
          items:
            type: string
        menu:
          type: array
          items:
            $ref: '#/components/schemas/Menu'
        params:
          type: object
          properties:
            author:
              type: string
              x-hokus-type: readonly
        version:
          type: string
          readOnly: true
    Empty:
      type: object
`

func siteDoc(t *testing.T) Document {
	t.Helper()
	return MustNewDocument(SourceFromFS("site.yaml"), []byte(siteDocument))
}

func TestFieldsFromComponent(t *testing.T) {
	fields, err := FieldsFromComponent(context.Background(), siteDoc(t), "SiteConfig")
	if err != nil {
		t.Fatalf("FieldsFromComponent: %v", err)
	}

	one := 1.0
	want := model.Schema{
		{Key: "drafts", Type: "boolean"},
		{Key: "menu", Type: "accordion", Fields: []model.Field{
			{Key: "name", Type: "string", Validations: []model.ValidationRule{{Kind: model.ValidationRuleRequired}}},
			{Key: "weight", Type: "number"},
		}},
		{Key: "paginate", Type: "number",
			Config: map[string]any{"min": one},
			Validations: []model.ValidationRule{
				{Kind: model.ValidationRuleMin, Params: map[string]string{"value": "1"}},
			},
		},
		{Key: "params", Type: "section", Fields: []model.Field{
			{Key: "author", Type: "readonly"},
		}},
		{Key: "summary", Type: "textarea"},
		{Key: "tags", Type: "chips"},
		{Key: "theme", Type: "select", Default: "ananke", Options: []model.Option{
			{Value: "ananke"},
			{Value: "papermod"},
		}},
		{Key: "title", Type: "string", Title: "Site title", Validations: []model.ValidationRule{
			{Kind: model.ValidationRuleRequired},
			{Kind: model.ValidationRuleMaxLength, Params: map[string]string{"value": "80"}},
		}},
		{Key: "version", Type: "readonly"},
	}

	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldsFromComponentErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := FieldsFromComponent(ctx, siteDoc(t), "Missing"); !errors.Is(err, ErrComponentNotFound) {
		t.Fatalf("expected ErrComponentNotFound, got %v", err)
	}
	if _, err := FieldsFromComponent(ctx, siteDoc(t), "Empty"); err == nil {
		t.Fatal("expected error for component without properties")
	}
	if _, err := FieldsFromComponent(ctx, Document{}, "SiteConfig"); err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestFieldsFromComponentRecursive(t *testing.T) {
	raw := `openapi: 3.0.3
info: {title: Tree, version: 1.0.0}
paths: {}
components:
  schemas:
    Node:
      type: object
      properties:
        label:
          type: string
        child:
          $ref: '#/components/schemas/Node'
`
	doc := MustNewDocument(SourceFromFS("tree.yaml"), []byte(raw))
	if _, err := FieldsFromComponent(context.Background(), doc, "Node"); err == nil {
		t.Fatal("expected recursion error")
	}
}

func TestComponents(t *testing.T) {
	names, err := Components(context.Background(), siteDoc(t))
	if err != nil {
		t.Fatalf("Components: %v", err)
	}
	if diff := cmp.Diff([]string{"Empty", "Menu", "SiteConfig"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}
