package ingestion

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/poiesic/linestream/core"
)

// These are the ingest API URL paths.
const (
	APIPathFiles  = "/files"
	APIPathHealth = "/health"
)

// maxRequestBytes bounds a direct ingest body.
const maxRequestBytes = 32 << 20

// API serves direct ingest calls over HTTP.
type API struct {
	ingestor *Ingestor
	logger   *slog.Logger
}

// NewAPI creates an API around ingestor.
func NewAPI(ingestor *Ingestor, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{ingestor: ingestor, logger: logger.With("component", "ingest-api")}
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	// Routing table
	method, path := r.Method, r.URL.Path
	switch {
	case method == http.MethodOptions:
		a.handlePreflight(w)
	case method == http.MethodPost && path == APIPathFiles:
		a.handleFiles(w, r)
	case method == http.MethodGet && path == APIPathHealth:
		a.write(w, Response{StatusCode: http.StatusOK, Headers: CORSHeaders(), Body: "{}"})
	default:
		http.NotFound(w, r)
	}
}

func (a *API) handlePreflight(w http.ResponseWriter) {
	h := w.Header()
	for k, v := range CORSHeaders() {
		h.Set(k, v)
	}
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleFiles(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		a.write(w, NewResponse(&core.ValidationError{Field: "body", Err: err}))
		return
	}
	a.write(w, a.ingestor.HandleRequest(r.Context(), body))
}

func (a *API) write(w http.ResponseWriter, resp Response) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.WriteString(w, resp.Body); err != nil {
		a.logger.Warn("failed to write response", "err", err)
	}
}
