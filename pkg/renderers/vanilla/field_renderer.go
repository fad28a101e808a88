package vanilla

import (
	"bytes"
	"fmt"
	"html"
	"strconv"

	"github.com/caklein/hokus/pkg/form"
	"github.com/caklein/hokus/pkg/registry"
	rendertemplate "github.com/caklein/hokus/pkg/render/template"
	"github.com/caklein/hokus/pkg/render/template/pongo"
)

type fieldRenderer struct {
	templates rendertemplate.TemplateRenderer
	errors    map[string][]string
}

func (fr fieldRenderer) renderNodes(nodes []*form.Node) (string, error) {
	var buf bytes.Buffer
	for _, node := range nodes {
		if err := fr.renderNode(&buf, node); err != nil {
			return "", err
		}
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

func (fr fieldRenderer) renderNode(buf *bytes.Buffer, node *form.Node) error {
	desc := node.Descriptor()
	if desc.Render == nil {
		return fmt.Errorf("vanilla renderer: field %q of type %q has no render function", node.Path(), node.Field().Type)
	}

	data := registry.RenderData{
		Template: fr.templates,
		Path:     node.Path(),
		Value:    node.Value(),
		Errors:   fr.errors[node.Path()],
		Touched:  node.Touched(),
		Config:   node.Field().Config,
	}
	switch node.Shape() {
	case registry.ShapeGroup:
		data.RenderChildren = func() (string, error) {
			return fr.renderNodes(node.Children())
		}
	case registry.ShapeList:
		data.RenderChildren = func() (string, error) {
			return fr.renderItems(node)
		}
	}

	if err := desc.Render(buf, node.Field(), data); err != nil {
		return fmt.Errorf("vanilla renderer: render field %q: %w", node.Path(), err)
	}
	return nil
}

// renderItems wraps every item tree of a list node in its own list element
// carrying the item index and a remove control.
func (fr fieldRenderer) renderItems(node *form.Node) (string, error) {
	var buf bytes.Buffer
	for i, item := range node.Items() {
		itemPath := node.Path() + "." + strconv.Itoa(i)
		inner, err := fr.renderNodes(item.Nodes())
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&buf, "<li class=\"hk-item\" id=\"%s\" data-index=\"%d\">\n", pongo.DOMID(itemPath), i)
		buf.WriteString(inner)
		fmt.Fprintf(&buf, "<button type=\"button\" class=\"hk-item__remove\" data-remove=\"%s\" data-index=\"%d\">Remove</button>\n", html.EscapeString(node.Path()), i)
		buf.WriteString("</li>\n")
	}
	return buf.String(), nil
}
