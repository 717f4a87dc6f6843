package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/angelmondragon/petlife-licenser/pkg/errors"
	"github.com/angelmondragon/petlife-licenser/pkg/logger"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data)
}

// WriteError renders the flat error body {error, message, ...details}.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	writeError(ctx, logg, w, err, nil)
}

// WriteValidationError renders an error from the license validation surface, which also
// carries valid:false.
func WriteValidationError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	writeError(ctx, logg, w, err, map[string]any{"valid": false})
}

func writeError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error, extra map[string]any) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	code := typed.Code()
	meta := pkgerrors.MetadataFor(code)

	msg := meta.PublicMessage
	if code.Public() {
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := make(map[string]any, 4)
	if meta.DetailsAllowed {
		for k, v := range typed.Details() {
			payload[k] = v
		}
	}
	for k, v := range extra {
		payload[k] = v
	}
	payload["error"] = string(code)
	payload["message"] = msg

	if logg != nil {
		logError(ctx, logg, err, meta.HTTPStatus)
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

func logError(ctx context.Context, logg *logger.Logger, err error, status int) {
	dump := pkgerrors.Dump(err)
	fields := map[string]any{
		"error_code":  dump.Code,
		"http_status": status,
	}
	if status < http.StatusInternalServerError {
		fields["error"] = dump.TopMessage
		logg.Warn(logg.WithFields(ctx, fields), "request.rejected")
		return
	}

	fields["error_chain"] = dump.Chain
	if dump.PGCode != "" {
		fields["pg_code"] = dump.PGCode
		fields["pg_detail"] = dump.PGDetail
		fields["pg_message"] = dump.PGMessage
		fields["pg_table"] = dump.PGTable
		fields["pg_column"] = dump.PGColumn
		fields["pg_constraint"] = dump.PGConstraint
	}
	logg.Error(logg.WithFields(ctx, fields), "request.error", err)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
