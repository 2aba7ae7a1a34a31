// Package web serves the daemon's read-only HTTP surface. Responses come
// from the Redis snapshot cache only; no handler ever triggers a cycle.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ANPalert-art/Port-rep/internal/pubcache"
)

// SnapshotReader reads cached monitor output.
type SnapshotReader interface {
	GetSummary(ctx context.Context) (*pubcache.CycleSummary, error)
	GetReportRaw(ctx context.Context, portCode string) ([]byte, error)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SummaryHandler serves GET /summary: the most recent cycle summary.
func SummaryHandler(cache SnapshotReader, logger *slog.Logger) http.HandlerFunc {
	log := logger.With("handler", "summary")
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := cache.GetSummary(r.Context())
		if err != nil {
			log.Error("cache_read_failed", "error", err)
			sendError(w, http.StatusInternalServerError, "backend_unavailable", "Failed to read from cache")
			return
		}
		if summary == nil {
			sendError(w, http.StatusNotFound, "no_summary", "No cycle summary has been published yet")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(summary); err != nil {
			log.Error("json_encode_failed", "error", err)
		}
	}
}

// ReportHandler serves GET /report?port=07: one port's latest cached
// report snapshot.
func ReportHandler(cache SnapshotReader, logger *slog.Logger) http.HandlerFunc {
	log := logger.With("handler", "report")
	return func(w http.ResponseWriter, r *http.Request) {
		port := r.URL.Query().Get("port")
		if port == "" {
			sendError(w, http.StatusBadRequest, "missing_parameter", "port parameter is required")
			return
		}

		raw, err := cache.GetReportRaw(r.Context(), port)
		if err != nil {
			log.Error("cache_read_failed", "port_code", port, "error", err)
			sendError(w, http.StatusInternalServerError, "backend_unavailable", "Failed to read from cache")
			return
		}
		if raw == nil {
			sendError(w, http.StatusNotFound, "port_not_cached", "No report snapshot for this port")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(raw)
	}
}

func sendError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse{Error: errorCode, Message: message})
}
