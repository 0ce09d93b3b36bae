package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"threat-analysis-service/whitelist"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type whitelistAddRequest struct {
	Domain  string `json:"domain"`
	AddedBy string `json:"added_by,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

func (s *Server) handleWhitelistList(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", defaultListLimit)
	if limit > maxListLimit {
		limit = maxListLimit
	}

	entries, total := s.Whitelist.List(r.Context(), offset, limit)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"entries": entries,
		"total":   total,
		"offset":  offset,
		"limit":   limit,
	})
}

func (s *Server) handleWhitelistAdd(w http.ResponseWriter, r *http.Request) {
	var req whitelistAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Domain == "" {
		s.writeError(w, http.StatusBadRequest, "domain is required")
		return
	}
	if err := whitelist.ValidateDomain(whitelist.NormalizeDomain(req.Domain)); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := s.Whitelist.Add(r.Context(), req.Domain, req.AddedBy, req.Notes)
	if errors.Is(err, whitelist.ErrDuplicate) {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"entry":   entry,
	})
}

func (s *Server) handleWhitelistGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, ok := s.Whitelist.Get(r.Context(), id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "whitelist entry not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"entry":   entry,
	})
}

func (s *Server) handleWhitelistRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.Whitelist.Remove(r.Context(), id) {
		s.writeError(w, http.StatusNotFound, "whitelist entry not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
