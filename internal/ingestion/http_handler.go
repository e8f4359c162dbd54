package ingestion

import (
	"fmt"
	"net/http"

	"github.com/rpattn/dimstore/internal/api"
)

// Handler exposes ingestion as an HTTP endpoint.
type Handler struct {
	services map[string]*Service
}

// NewHTTPHandler wraps per-dimension ingestion services with a POST
// endpoint.
func NewHTTPHandler(services map[string]*Service) *Handler {
	return &Handler{services: services}
}

// Routes registers the ingestion endpoint on a mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /dimensions/{dimension}/ingest", h.ingest)
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	service, ok := h.services[r.PathValue("dimension")]
	if !ok {
		http.Error(w, "unknown dimension", http.StatusNotFound)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	summary, err := service.Ingest(r.Context(), Request{
		FileName: header.Filename,
		Data:     file,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("ingestion failed: %v", err), http.StatusBadRequest)
		return
	}

	api.WriteJSON(w, http.StatusOK, summary)
}
