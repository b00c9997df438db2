package server

import (
	"net/http"
	"strings"

	"github.com/teranos/umi/errors"
	"github.com/teranos/umi/history"
	"github.com/teranos/umi/logger"
	"github.com/teranos/umi/ratio"
	"github.com/teranos/umi/version"
)

// HandleHealth reports liveness and the build version.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": version.Get().Version,
		"clients": s.ClientCount(),
	})
}

// HandleGenerate expands a template into a batch of prompts.
func (s *Server) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req GenerateRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	resp, err := s.generate(r.Context(), req)
	if err != nil {
		s.logger.Debugw("Generate request failed", logger.FieldError, err)
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleFiles lists the loaded source files with snapshot stats.
func (s *Server) HandleFiles(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, FilesResponse{
		Files:  s.store.Files(),
		Stats:  s.store.Stats(),
		Misses: s.store.Misses(),
	})
}

// HandleTags lists every tag, or with ?tag= (repeatable) the titles of
// entries matching the query, optionally restricted by ?scope=.
func (s *Server) HandleTags(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	groups := q["tag"]
	if len(groups) == 0 {
		writeJSON(w, http.StatusOK, TagsResponse{Tags: s.store.Tags(), Titles: []string{}})
		return
	}
	scope := q.Get("scope")
	titles := s.store.QueryTags(scope, groups)
	if titles == nil {
		titles = []string{}
	}
	writeJSON(w, http.StatusOK, TagsResponse{Query: groups, Scope: scope, Titles: titles})
}

// HandleEntry returns one structured entry by title.
func (s *Server) HandleEntry(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	title := strings.TrimSpace(r.PathValue("title"))
	entry, ok := s.store.Entry(title)
	if !ok {
		writeErr(w, errors.NewNotFoundError("entry %q", title))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleRefresh rescans the wildcard tree and notifies live clients.
func (s *Server) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.store.Refresh(); err != nil {
		s.logger.Errorw("Refresh failed", logger.FieldError, err)
		writeErr(w, err)
		return
	}
	stats := s.store.Stats()
	s.NotifyReload(stats)
	writeJSON(w, http.StatusOK, stats)
}

// HandleRatios lists aspect presets, optionally filtered by ?category=.
func (s *Server) HandleRatios(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	category, err := ratio.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ratio.InCategory(category))
}

// HandleHistory lists recent generations, newest first.
func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !s.requireHistory(w) {
		return
	}
	limit, err := queryInt(r, "limit", history.DefaultLimit)
	if err != nil {
		writeErr(w, err)
		return
	}
	records, err := s.history.List(r.Context(), limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleHistoryRecord returns one generation by ID or unique ID prefix.
func (s *Server) HandleHistoryRecord(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !s.requireHistory(w) {
		return
	}
	rec, err := s.history.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) requireHistory(w http.ResponseWriter) bool {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return false
	}
	return true
}
