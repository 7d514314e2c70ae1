// Package api exposes the HTTP boundary: create-transcription,
// list-transcriptions, and the error payload contract.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/sinrajat43/audio-flow/internal/pipeline"
	"github.com/sinrajat43/audio-flow/internal/transcript"
)

const (
	defaultDaysBack = 30
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100
)

// createRequest is the create-transcription input
type createRequest struct {
	AudioURL    string `json:"audioUrl"`
	LanguageTag string `json:"languageTag,omitempty"`
}

// recordView is the externally rendered record shape
type recordView struct {
	ID            string    `json:"id"`
	AudioURL      string    `json:"audioUrl"`
	Transcription string    `json:"transcription"`
	Source        string    `json:"source"`
	Language      string    `json:"language,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// listResponse is one page of records
type listResponse struct {
	Count      int64        `json:"count"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalPages int          `json:"totalPages"`
	Items      []recordView `json:"items"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func viewOf(rec *transcript.Record) recordView {
	return recordView{
		ID:            rec.ID,
		AudioURL:      rec.AudioReference,
		Transcription: rec.Text,
		Source:        string(rec.Origin),
		Language:      string(rec.Language),
		CreatedAt:     rec.CreatedAt,
	}
}

// Handlers serves the transcription HTTP API
type Handlers struct {
	pipeline *pipeline.Pipeline
	store    transcript.Store
	logger   zerolog.Logger
}

// NewHandlers creates the API handler set
func NewHandlers(p *pipeline.Pipeline, store transcript.Store, logger zerolog.Logger) *Handlers {
	return &Handlers{
		pipeline: p,
		store:    store,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// Register attaches the API routes to mux
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.create(w, r)
		case http.MethodGet:
			h.list(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		}
	})
}

func (h *Handlers) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body is not valid JSON")
		return
	}

	// The validation layer sits in front of the pipeline: URL syntax and
	// language tags are rejected before any adapter is touched.
	if !pipeline.IsValidURL(req.AudioURL) {
		writeError(w, http.StatusBadRequest, "invalid_url", "audioUrl must be a valid http or https URL")
		return
	}
	lang, err := transcript.ParseLanguage(req.LanguageTag)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported_language", err.Error())
		return
	}

	rec, err := h.pipeline.Transcribe(r.Context(), req.AudioURL, lang)
	if err != nil {
		h.writeTranscribeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, viewOf(rec))
}

func (h *Handlers) writeTranscribeError(w http.ResponseWriter, err error) {
	var dlErr *pipeline.DownloadError
	var recErr *pipeline.RecognitionError
	var stErr *pipeline.StorageError

	switch {
	case errors.Is(err, pipeline.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, "invalid_url", err.Error())
	case errors.As(err, &dlErr):
		writeError(w, http.StatusBadGateway, "download_failed", err.Error())
	case errors.As(err, &recErr):
		writeError(w, http.StatusServiceUnavailable, "recognition_failed", err.Error())
	case errors.As(err, &stErr):
		h.logger.Error().Err(err).Msg("Persistence failure")
		writeError(w, http.StatusInternalServerError, "storage_failed", "failed to persist transcription")
	default:
		h.logger.Error().Err(err).Msg("Unexpected transcription failure")
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected error")
	}
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	q := transcript.Query{
		DaysBack: defaultDaysBack,
		Page:     defaultPage,
		PageSize: defaultPageSize,
	}

	params := r.URL.Query()
	var err error
	if q.DaysBack, err = intParam(params.Get("daysBack"), defaultDaysBack); err != nil || q.DaysBack < 1 {
		writeError(w, http.StatusBadRequest, "invalid_query", "daysBack must be a positive integer")
		return
	}
	if q.Page, err = intParam(params.Get("page"), defaultPage); err != nil || q.Page < 1 {
		writeError(w, http.StatusBadRequest, "invalid_query", "page must be a positive integer")
		return
	}
	if q.PageSize, err = intParam(params.Get("pageSize"), defaultPageSize); err != nil || q.PageSize < 1 || q.PageSize > maxPageSize {
		writeError(w, http.StatusBadRequest, "invalid_query", "pageSize must be between 1 and 100")
		return
	}
	if src := params.Get("source"); src != "" {
		origin, err := transcript.ParseOrigin(src)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
			return
		}
		q.Origin = &origin
	}

	page, err := h.store.List(r.Context(), q)
	if err != nil {
		h.logger.Error().Err(err).Msg("List query failed")
		writeError(w, http.StatusInternalServerError, "storage_failed", "failed to query transcriptions")
		return
	}

	items := make([]recordView, 0, len(page.Items))
	for _, rec := range page.Items {
		items = append(items, viewOf(rec))
	}

	writeJSON(w, http.StatusOK, listResponse{
		Count:      page.TotalMatching,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
		Items:      items,
	})
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}
