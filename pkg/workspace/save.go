package workspace

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/caklein/hokus/pkg/model"
	"github.com/caklein/hokus/pkg/render"
	"github.com/caklein/hokus/pkg/session"
	"github.com/caklein/hokus/pkg/validation"
)

// ValidationMessage is the rejection message used when the snapshot fails the
// schema's validation rules.
const ValidationMessage = "Please correct the highlighted fields"

// SaveHandler returns a session save handler that checks the snapshot against
// schema and persists it through svc. The write happens on its own goroutine;
// the save context is accepted when it succeeds and rejected with the service
// error text and its field errors, mapped onto node paths, when it fails.
func SaveHandler(svc Service, site, workspace string, schema model.Schema, logger *slog.Logger) session.SaveHandler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With(slog.String("site", site), slog.String("workspace", workspace))

	return session.SaveHandlerFunc(func(ctx context.Context, sc *session.SaveContext) {
		if result := validation.Document(schema, sc.Data); !result.Valid {
			logger.Info("save rejected by validation", slog.Int("issues", len(result.Issues)))
			if err := sc.RejectFields(ValidationMessage, result.FieldErrors()); err != nil {
				logger.Debug("save resolution ignored", slog.Any("error", err))
			}
			return
		}

		go func() {
			err := svc.SaveWorkspaceConfig(ctx, site, workspace, sc.Data)
			if err == nil {
				if rerr := sc.Accept(); rerr != nil {
					logger.Debug("save resolution ignored", slog.Any("error", rerr))
				}
				return
			}

			logger.Warn("workspace save failed", slog.Any("error", err))
			message, fields := rejection(err, schema, sc.Data)
			if rerr := sc.RejectFields(message, fields); rerr != nil {
				logger.Debug("save resolution ignored", slog.Any("error", rerr))
			}
		}()
	})
}

// rejection builds the rejection for a failed write. Field errors whose path
// names no field of the saved form are appended to the message.
func rejection(err error, schema model.Schema, data map[string]any) (string, map[string][]string) {
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		return err.Error(), nil
	}
	mapping := render.MapErrorPayload(schema, data, serviceErr.Fields)
	messages := render.MergeFormErrors([]string{serviceErr.Message()}, mapping.Form...)
	return strings.Join(messages, "; "), mapping.Fields
}
