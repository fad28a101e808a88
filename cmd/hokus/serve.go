package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/pflag"

	"github.com/caklein/hokus/internal/server"
	"github.com/caklein/hokus/pkg/workspace"
)

func runServe(ctx context.Context, args []string) error {
	var (
		common      schemaFlags
		addr        string
		saveTimeout time.Duration
	)
	flags := pflag.NewFlagSet("hokus serve", pflag.ContinueOnError)
	common.register(flags)
	flags.StringVar(&addr, "addr", ":8080", "listen address")
	flags.DurationVar(&saveTimeout, "save-timeout", 0, "reject saves that take longer than this (0 waits forever)")
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

	srv, err := server.New(
		server.WithService(store),
		server.WithForm(loaded.schema, loaded.title),
		server.WithSaveTimeout(saveTimeout),
		server.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			slog.String("addr", addr),
			slog.String("root", store.Root()),
			slog.String("form", loaded.rootName),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
