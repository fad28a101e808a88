package tui

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/caklein/hokus/pkg/fields"
	"github.com/caklein/hokus/pkg/form"
	"github.com/caklein/hokus/pkg/model"
	"github.com/caklein/hokus/pkg/registry"
	"github.com/caklein/hokus/pkg/session"
	"github.com/caklein/hokus/pkg/validation"
)

// prompter walks a form tree asking one question per leaf. Answers equal to
// the current value are not written back, so untouched fields keep their
// original representation.
type prompter struct {
	driver  PromptDriver
	session *session.Session
	errors  map[string][]string
	theme   Theme
}

func (p *prompter) node(ctx context.Context, node *form.Node) error {
	switch node.Shape() {
	case registry.ShapeGroup:
		if err := p.info(ctx, node.Field().Label()); err != nil {
			return err
		}
		children := p.nodes(func(*form.Tree) []*form.Node { return node.Children() })
		for _, child := range children {
			if err := p.node(ctx, child); err != nil {
				return err
			}
		}
		return nil
	case registry.ShapeList:
		return p.list(ctx, node)
	default:
		return p.leaf(ctx, node)
	}
}

func (p *prompter) list(ctx context.Context, node *form.Node) error {
	label := node.Field().Label()
	path := node.Path()
	for i, item := range p.items(node) {
		if err := p.info(ctx, fmt.Sprintf("%s #%d", label, i+1)); err != nil {
			return err
		}
		for _, child := range p.nodes(func(*form.Tree) []*form.Node { return item.Nodes() }) {
			if err := p.node(ctx, child); err != nil {
				return err
			}
		}
	}

	for {
		more, err := p.driver.Confirm(ctx, ConfirmConfig{
			Message: p.theme.PromptPrefix + "Add " + label + "?",
			Default: false,
		})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		if err := p.session.AppendItem(path, nil); err != nil {
			return err
		}
		var items []*form.Tree
		err = p.session.View(func(tree *form.Tree) error {
			current, err := tree.Lookup(path)
			if err != nil {
				return err
			}
			items = current.Items()
			return nil
		})
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("tui: list %q did not grow", path)
		}
		if err := p.info(ctx, fmt.Sprintf("%s #%d", label, len(items))); err != nil {
			return err
		}
		last := items[len(items)-1]
		for _, child := range p.nodes(func(*form.Tree) []*form.Node { return last.Nodes() }) {
			if err := p.node(ctx, child); err != nil {
				return err
			}
		}
	}
}

func (p *prompter) leaf(ctx context.Context, node *form.Node) error {
	field := node.Field()
	path := node.Path()

	for _, msg := range p.errors[path] {
		if err := p.driver.Info(ctx, fmt.Sprintf("%s%s: %s", p.theme.ErrorPrefix, path, msg)); err != nil {
			return err
		}
	}

	switch field.Type {
	case fields.TypeHidden:
		return nil
	case fields.TypeReadonly:
		return p.info(ctx, fmt.Sprintf("%s: %s", field.Label(), display(p.value(node))))
	}

	rules := validation.Compile(field)
	for {
		answer, err := p.ask(ctx, node)
		var invalid invalidAnswer
		if errors.As(err, &invalid) {
			if infoErr := p.driver.Info(ctx, fmt.Sprintf("%sInvalid %s: %v", p.theme.ErrorPrefix, path, invalid.cause)); infoErr != nil {
				return infoErr
			}
			continue
		}
		if err != nil {
			return err
		}
		if err := rules.Check(answer); err != nil {
			if infoErr := p.driver.Info(ctx, fmt.Sprintf("%sInvalid %s: %v", p.theme.ErrorPrefix, path, err)); infoErr != nil {
				return infoErr
			}
			continue
		}
		if sameValue(answer, p.value(node)) {
			return nil
		}
		return p.session.Edit(path, answer)
	}
}

// ask prompts for the field's new value. Unknown plugin types fall back to a
// plain text input.
func (p *prompter) ask(ctx context.Context, node *form.Node) (any, error) {
	field := node.Field()
	current := p.value(node)
	message := p.theme.PromptPrefix + field.Label()
	help := fields.SanitizeHelp(field.Description)

	switch field.Type {
	case fields.TypeBoolean:
		def, _ := current.(bool)
		return p.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def, Help: help})

	case fields.TypeNumber:
		input, err := p.driver.Input(ctx, InputConfig{Message: message, Default: display(current), Help: help})
		if err != nil {
			return nil, err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			return nil, nil
		}
		if i, err := strconv.ParseInt(input, 10, 64); err == nil {
			return int(i), nil
		}
		f, err := strconv.ParseFloat(input, 64)
		if err != nil {
			return nil, invalidAnswer{cause: errors.New("not a number")}
		}
		return f, nil

	case fields.TypeSelect:
		options := make([]string, 0, len(field.Options))
		for _, opt := range field.Options {
			text := opt.Text
			if text == "" {
				text = display(opt.Value)
			}
			options = append(options, text)
		}
		def := -1
		for i, opt := range field.Options {
			if display(opt.Value) == display(current) {
				def = i
			}
		}
		idx, err := p.driver.Select(ctx, SelectConfig{Message: message, Options: options, DefaultIndex: def, Help: help})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(field.Options) {
			return current, nil
		}
		return model.CloneValue(field.Options[idx].Value), nil

	case fields.TypeChips:
		input, err := p.driver.Input(ctx, InputConfig{
			Message: message,
			Default: display(current),
			Help:    firstNonEmpty(help, "Comma separated values"),
		})
		if err != nil {
			return nil, err
		}
		out := []any{}
		for _, part := range strings.Split(input, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil

	case fields.TypeTextarea, fields.TypeMarkdown:
		return p.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: display(current), Help: help})

	default:
		cfg := InputConfig{Message: message, Default: display(current), Help: help}
		if secret, _ := field.Config["secret"].(bool); secret {
			return p.driver.Password(ctx, cfg)
		}
		return p.driver.Input(ctx, cfg)
	}
}

// invalidAnswer makes the prompt loop report cause and ask again.
type invalidAnswer struct {
	cause error
}

func (e invalidAnswer) Error() string { return e.cause.Error() }

// nodes, items and value read the tree under the session's read lock.
func (p *prompter) nodes(list func(*form.Tree) []*form.Node) []*form.Node {
	var out []*form.Node
	_ = p.session.View(func(tree *form.Tree) error {
		out = list(tree)
		return nil
	})
	return out
}

func (p *prompter) items(node *form.Node) []*form.Tree {
	var out []*form.Tree
	_ = p.session.View(func(*form.Tree) error {
		out = node.Items()
		return nil
	})
	return out
}

func (p *prompter) value(node *form.Node) any {
	var out any
	_ = p.session.View(func(*form.Tree) error {
		out = node.Value()
		return nil
	})
	return out
}

func (p *prompter) info(ctx context.Context, msg string) error {
	return p.driver.Info(ctx, p.theme.InfoPrefix+msg)
}

func display(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, display(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// sameValue compares an answer with the current value, treating numbers of
// different Go types as equal when they hold the same number and an empty
// answer as equal to an absent value.
func sameValue(answer, current any) bool {
	if reflect.DeepEqual(answer, current) {
		return true
	}
	if current == nil {
		return display(answer) == ""
	}
	switch answer.(type) {
	case int, float64:
		return display(answer) == display(current)
	}
	return false
}
