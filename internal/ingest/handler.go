package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/novamart/demand-planner/internal/domain"
)

// Sink receives parsed sales records; the ingest daemon wires the plan
// service in here.
type Sink interface {
	IngestRecords(ctx context.Context, records []domain.SalesRecord) error
}

// Handler exposes CSV upload over HTTP for the ingest daemon.
type Handler struct {
	sink Sink
}

func NewHandler(sink Sink) *Handler {
	return &Handler{sink: sink}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/ingest/upload", h.UploadCSV).Methods("POST")
	router.HandleFunc("/api/ingest/preview", h.PreviewCSV).Methods("POST")
}

// UploadCSV accepts a sales CSV either as a multipart "file" field or as a
// raw request body, parses it and stores the records.
func (h *Handler) UploadCSV(w http.ResponseWriter, r *http.Request) {
	records, err := h.readRecords(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.sink.IngestRecords(r.Context(), records); err != nil {
		log.Error().Err(err).Msg("Failed storing uploaded records")
		http.Error(w, fmt.Sprintf("ingestion failed: %v", err), http.StatusInternalServerError)
		return
	}

	log.Info().Int("records", len(records)).Msg("Ingested sales upload")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"records":  len(records),
		"products": Products(records),
	})
}

// PreviewCSV parses an upload without storing anything, so callers can
// validate a file before committing it.
func (h *Handler) PreviewCSV(w http.ResponseWriter, r *http.Request) {
	records, err := h.readRecords(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"records":  len(records),
		"products": Products(records),
	})
}

func (h *Handler) readRecords(r *http.Request) ([]domain.SalesRecord, error) {
	var reader io.Reader = r.Body

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("file field is required: %w", err)
		}
		defer file.Close()
		reader = file
	}

	records, err := Load(reader)
	if err != nil {
		return nil, fmt.Errorf("invalid sales CSV: %w", err)
	}
	return records, nil
}
