package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/caklein/hokus"
	"github.com/caklein/hokus/pkg/render"
	"github.com/caklein/hokus/pkg/renderers/tui"
	"github.com/caklein/hokus/pkg/schemafile"
	"github.com/caklein/hokus/pkg/session"
	"github.com/caklein/hokus/pkg/workspace"
)

func runEdit(ctx context.Context, args []string) error {
	var (
		common     schemaFlags
		valuesPath string
		format     string
		output     string
		noConfirm  bool
	)
	flags := pflag.NewFlagSet("hokus edit", pflag.ContinueOnError)
	common.register(flags)
	flags.StringVar(&valuesPath, "values", "", "initial values file (JSON or YAML); the stored workspace config if empty")
	flags.StringVar(&format, "format", string(tui.OutputFormatYAML), "result format: json, yaml, form or pretty")
	flags.StringVarP(&output, "output", "o", "", "write the result to this file instead of stdout")
	flags.BoolVar(&noConfirm, "yes", false, "save without asking for confirmation")
	if err := flags.Parse(args); err != nil {
		return err
	}

	logger, err := newLogger(common.logLevel)
	if err != nil {
		return err
	}
	loaded, err := common.load(ctx, logger)
	if err != nil {
		return err
	}
	store, err := workspace.NewFileStore(common.root, workspace.WithStoreLogger(logger))
	if err != nil {
		return err
	}

	values, err := initialValues(ctx, store, common.site, common.workspace, valuesPath)
	if err != nil {
		return err
	}

	s, err := hokus.NewSession(loaded.schema, values,
		session.WithLogger(logger),
		session.WithSaveHandler(workspace.SaveHandler(store, common.site, common.workspace, loaded.schema, logger)),
	)
	if err != nil {
		return err
	}

	renderer, err := tui.New(
		tui.WithOutputFormat(tui.OutputFormat(format)),
		tui.WithSaveConfirmation(!noConfirm),
		tui.WithOutput(os.Stderr),
	)
	if err != nil {
		return err
	}
	result, err := renderer.Render(ctx, s, render.RenderOptions{
		RootName: common.site + "/" + common.workspace,
		Title:    loaded.title,
	})
	if err != nil {
		return err
	}

	if output != "" {
		if err := os.WriteFile(output, result, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		logger.Info("result written", slog.String("path", output))
		return nil
	}
	_, err = os.Stdout.Write(result)
	return err
}

func initialValues(ctx context.Context, store *workspace.FileStore, site, ws, path string) (map[string]any, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read values: %w", err)
		}
		return schemafile.LoadValues(data)
	}
	details, err := store.WorkspaceDetails(ctx, site, ws)
	if errors.Is(err, workspace.ErrNotFound) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	return details.Config, nil
}
