package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alrobwilloliver/ytdigest/internal/library"
	"github.com/alrobwilloliver/ytdigest/internal/transcript"
)

const codeInvalidRequest = "invalid_request"

// digestRequest is the POST body; GET requests use ?url=&language= instead.
type digestRequest struct {
	URL      string `json:"url"`
	Language string `json:"language,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	VideoID string `json:"videoId,omitempty"`
}

type HealthResponse struct {
	Status                string `json:"status"` // "ok", "degraded", "unhealthy"
	CacheEntries          int    `json:"cache_entries"`
	UptimeSeconds         int64  `json:"uptime_seconds"`
	LastSuccess           string `json:"last_success,omitempty"`
	LastSuccessAgeSeconds int64  `json:"last_success_age_seconds,omitempty"`
}

type summaryList struct {
	Summaries []library.Summary `json:"summaries"`
	Count     int               `json:"count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	cacheCount, err := s.digest.CacheEntries(r.Context())
	if err != nil {
		s.logger.Warn("cache stats failed", slog.String("error", err.Error()))
		status = "unhealthy"
		cacheCount = 0
	}

	resp := HealthResponse{
		Status:        status,
		CacheEntries:  cacheCount,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}

	if ns := s.lastSuccess.Load(); ns != 0 {
		last := time.Unix(0, ns)
		resp.LastSuccess = last.UTC().Format(time.RFC3339)
		resp.LastSuccessAgeSeconds = int64(time.Since(last).Seconds())

		// Degraded if no success in over an hour
		if resp.LastSuccessAgeSeconds > 3600 && status == "ok" {
			resp.Status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseDigestRequest(w, r)
	if !ok {
		return
	}

	resp, err := s.digest.Summarize(r.Context(), req.URL, req.Language)
	if err != nil {
		s.writeDigestError(w, r, err)
		return
	}

	getRequestContext(r).CacheHit = resp.Cached
	s.markSuccess()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseDigestRequest(w, r)
	if !ok {
		return
	}

	resp, err := s.digest.Transcript(r.Context(), req.URL, req.Language)
	if err != nil {
		s.writeDigestError(w, r, err)
		return
	}

	getRequestContext(r).CacheHit = resp.Cached
	s.markSuccess()
	writeJSON(w, http.StatusOK, resp)
}

// parseDigestRequest reads the URL and language from the query string or
// JSON body and validates the URL before any upstream work. It writes the
// error response itself and reports whether the handler should continue.
func (s *Server) parseDigestRequest(w http.ResponseWriter, r *http.Request) (*digestRequest, bool) {
	req, err := parseRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return nil, false
	}

	ref, err := transcript.Resolve(req.URL, req.Language)
	if err != nil {
		s.writeDigestError(w, r, err)
		return nil, false
	}
	getRequestContext(r).VideoID = ref.ID
	req.Language = ref.Language
	return req, true
}

func parseRequest(r *http.Request) (*digestRequest, error) {
	var req digestRequest
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		req.URL = q.Get("url")
		req.Language = q.Get("language")
		if req.Language == "" {
			req.Language = q.Get("lang")
		}
		return &req, nil
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return &req, nil
}

// writeDigestError maps err to a status by its kind.
func (s *Server) writeDigestError(w http.ResponseWriter, r *http.Request, err error) {
	kind := transcript.KindOf(err)
	status := transcript.HTTPStatus(err)

	attrs := []any{
		slog.String("video_id", getRequestContext(r).VideoID),
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()),
	}
	if status >= 500 {
		s.logger.Error("digest failed", attrs...)
	} else {
		s.logger.Debug("digest rejected", attrs...)
	}

	writeJSON(w, status, ErrorResponse{
		Error:   transcript.UserMessage(err),
		Code:    string(kind),
		VideoID: getRequestContext(r).VideoID,
	})
}

func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sort, err := library.ParseSort(q.Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	opts := library.ListOptions{Query: q.Get("q"), Sort: sort}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "limit must be a non-negative integer")
			return
		}
		opts.Limit = n
	}

	list, err := s.library.List(r.Context(), opts)
	if err != nil {
		s.writeLibraryError(w, err)
		return
	}
	if list == nil {
		list = []library.Summary{}
	}
	writeJSON(w, http.StatusOK, summaryList{Summaries: list, Count: len(list)})
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.library.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeLibraryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleDeleteSummary(w http.ResponseWriter, r *http.Request) {
	if err := s.library.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeLibraryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearSummaries(w http.ResponseWriter, r *http.Request) {
	if err := s.library.Clear(r.Context()); err != nil {
		s.writeLibraryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeLibraryError(w http.ResponseWriter, err error) {
	if errors.Is(err, library.ErrNotFound) {
		writeError(w, http.StatusNotFound, string(transcript.KindNotFound), "Summary not found")
		return
	}
	s.logger.Error("library operation failed", slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, string(transcript.KindInternal), "Something went wrong while reading the library.")
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
