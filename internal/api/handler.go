package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rpattn/dimstore/internal/domain"
	"github.com/rpattn/dimstore/internal/middleware"
	"github.com/rpattn/dimstore/internal/repository"
	"github.com/rpattn/dimstore/internal/versioning"
)

// Handler exposes the dimension record operations over JSON HTTP.
type Handler struct {
	repos map[string]repository.RecordRepository
}

// NewHandler creates a handler over the per-dimension repositories.
func NewHandler(repos map[string]repository.RecordRepository) *Handler {
	return &Handler{repos: repos}
}

// Routes registers the handler's endpoints on a mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /dimensions/{dimension}/records", h.saveRecord)
	mux.HandleFunc("GET /dimensions/{dimension}/records/{id}", h.getRecord)
	mux.HandleFunc("POST /dimensions/{dimension}/records/batch", h.getRecordBatch)
	mux.HandleFunc("GET /dimensions/{dimension}/current", h.getCurrent)
	mux.HandleFunc("GET /dimensions/{dimension}/history", h.listHistory)
}

type saveRequest struct {
	ID         *uuid.UUID     `json:"id,omitempty"`
	Keys       map[string]any `json:"keys"`
	Properties map[string]any `json:"properties"`
	IsCurrent  *bool          `json:"is_current,omitempty"`
}

// saveRecord versions a record: an explicit id targets that row, a bare
// key set targets the scope's current row, and an unknown scope creates
// the first version.
func (h *Handler) saveRecord(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.repos[r.PathValue("dimension")]
	if !ok {
		http.Error(w, "unknown dimension", http.StatusNotFound)
		return
	}

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	rec, status, err := h.resolveTarget(r, repo, req)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	if req.Properties != nil {
		rec.SetProperties(req.Properties)
	}
	if req.IsCurrent != nil {
		rec.IsCurrent = *req.IsCurrent
	}

	if err := repo.Save(r.Context(), rec); err != nil {
		writeSaveError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) resolveTarget(r *http.Request, repo repository.RecordRepository, req saveRequest) (*domain.Record, int, error) {
	if req.ID != nil {
		rec, err := repo.GetByID(r.Context(), *req.ID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, http.StatusNotFound, fmt.Errorf("record %s not found", *req.ID)
			}
			return nil, http.StatusInternalServerError, err
		}
		return rec, 0, nil
	}

	if len(req.Keys) == 0 {
		return nil, http.StatusBadRequest, errors.New("either id or keys is required")
	}

	rec, err := repo.GetCurrentByKey(r.Context(), req.Keys)
	if err != nil {
		if repository.IsNotFound(err) {
			return domain.NewRecord(repo.Dimension().Name, req.Keys, nil), 0, nil
		}
		return nil, http.StatusInternalServerError, err
	}
	return rec, 0, nil
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	dimension := r.PathValue("dimension")
	if _, ok := h.repos[dimension]; !ok {
		http.Error(w, "unknown dimension", http.StatusNotFound)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid record id: %v", err), http.StatusBadRequest)
		return
	}

	loader := middleware.RecordLoaderFromContext(r.Context(), dimension)
	if loader == nil {
		http.Error(w, "record loader unavailable", http.StatusInternalServerError)
		return
	}

	rec, err := loader.Load(r.Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			http.Error(w, "record not found", http.StatusNotFound)
			return
		}
		logrus.Errorf("Failed to load record %s: %v", id, err)
		http.Error(w, "failed to load record", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}

	WriteJSON(w, http.StatusOK, rec)
}

type batchRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

func (h *Handler) getRecordBatch(w http.ResponseWriter, r *http.Request) {
	dimension := r.PathValue("dimension")
	if _, ok := h.repos[dimension]; !ok {
		http.Error(w, "unknown dimension", http.StatusNotFound)
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	loader := middleware.RecordLoaderFromContext(r.Context(), dimension)
	if loader == nil {
		http.Error(w, "record loader unavailable", http.StatusInternalServerError)
		return
	}

	records, err := loader.LoadMany(r.Context(), req.IDs)
	if err != nil {
		logrus.Errorf("Failed to load record batch: %v", err)
		http.Error(w, "failed to load records", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) getCurrent(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.repos[r.PathValue("dimension")]
	if !ok {
		http.Error(w, "unknown dimension", http.StatusNotFound)
		return
	}

	keys, err := scopeKeysFromQuery(repo.Dimension(), r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := repo.GetCurrentByKey(r.Context(), keys)
	if err != nil {
		if repository.IsNotFound(err) {
			http.Error(w, "no current record for scope", http.StatusNotFound)
			return
		}
		logrus.Errorf("Failed to get current record: %v", err)
		http.Error(w, "failed to get current record", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.repos[r.PathValue("dimension")]
	if !ok {
		http.Error(w, "unknown dimension", http.StatusNotFound)
		return
	}

	keys, err := scopeKeysFromQuery(repo.Dimension(), r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	versions, err := repo.ListHistory(r.Context(), keys)
	if err != nil {
		logrus.Errorf("Failed to list history: %v", err)
		http.Error(w, "failed to list history", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, versions)
}

func scopeKeysFromQuery(dim domain.Dimension, r *http.Request) (map[string]any, error) {
	keys := make(map[string]any, len(dim.ScopeColumns))
	query := r.URL.Query()
	for _, col := range dim.ScopeColumns {
		if !query.Has(col) {
			return nil, fmt.Errorf("missing scope key %q", col)
		}
		keys[col] = query.Get(col)
	}
	return keys, nil
}

func writeSaveError(w http.ResponseWriter, err error) {
	var stale *versioning.StaleVersionError
	switch {
	case errors.As(err, &stale):
		WriteJSON(w, http.StatusConflict, map[string]any{
			"error":         "stale_version",
			"record_id":     stale.RecordID,
			"expected_lock": stale.ExpectedLock,
			"affected":      stale.Affected,
		})
	case repository.IsUniqueViolation(err):
		WriteJSON(w, http.StatusConflict, map[string]any{
			"error": "constraint_violation",
		})
	default:
		logrus.Errorf("Failed to save record: %v", err)
		http.Error(w, "failed to save record", http.StatusInternalServerError)
	}
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}
