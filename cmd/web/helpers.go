package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/myrjola/petrasession/internal/errors"
	"github.com/myrjola/petrasession/internal/i18n"
)

// maxBodyBytes limits request bodies. The largest body is an ADD_EXERCISE event.
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "marshal response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(data); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelWarn, "failed to write response", errors.SlogError(err))
	}
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	app.writeError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// clientError responds with status and msg. Errors caused by the client are logged at info level.
func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	if err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelInfo, "client error",
			slog.Int("status_code", status), errors.SlogError(err))
	}
	app.writeError(w, r, status, msg)
}

func (app *application) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: msg}); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelWarn, "failed to write error response", errors.SlogError(err))
	}
}

// readBody reads the request body up to maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read request body")
	}
	return data, nil
}

// decodeJSON decodes the request body into v and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}

// language returns the language of the lang query parameter, else the first supported language of the
// Accept-Language header, else the default language.
func language(r *http.Request) i18n.Language {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return i18n.Parse(lang)
	}
	for tag := range strings.SplitSeq(r.Header.Get("Accept-Language"), ",") {
		tag, _, _ = strings.Cut(strings.TrimSpace(tag), ";")
		tag, _, _ = strings.Cut(tag, "-")
		if lang := i18n.Language(strings.ToLower(tag)); i18n.IsSupported(lang) {
			return lang
		}
	}
	return i18n.DefaultLanguage
}
