// Package cmstest serves a small in-process CMS with the same search and
// pagination shape as the hosted API, for tests that need real HTTP.
package cmstest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/pders01/trvl/internal/cms"
)

const MasterRef = "YMaster"

type Server struct {
	*httptest.Server

	mu          sync.Mutex
	entries     []cms.RawEntry
	pageSize    int
	failures    map[int]int
	searchCalls int
	rootCalls   int
}

// NewServer starts a CMS serving entries pageSize at a time. It is closed
// when the test ends.
func NewServer(t testing.TB, entries []cms.RawEntry, pageSize int) *Server {
	t.Helper()
	s := &Server{
		entries:  entries,
		pageSize: pageSize,
		failures: make(map[int]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Endpoint is the API root to put in config.
func (s *Server) Endpoint() string {
	return s.URL + "/api/v2"
}

// FailPage makes requests for page n answer with status until cleared with 0.
func (s *Server) FailPage(n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, n)
		return
	}
	s.failures[n] = status
}

// SearchCalls returns how many search requests were served.
func (s *Server) SearchCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchCalls
}

// RootCalls returns how many API root requests were served.
func (s *Server) RootCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rootCalls
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v2":
		s.mu.Lock()
		s.rootCalls++
		s.mu.Unlock()
		writeJSON(w, map[string]any{
			"refs": []map[string]any{{"id": "master", "ref": MasterRef, "label": "Master", "isMasterRef": true}},
		})
	case "/api/v2/documents/search":
		s.search(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(q.Get("pageSize"))
	if size < 1 {
		size = s.pageSize
	}

	s.mu.Lock()
	s.searchCalls++
	status := s.failures[page]
	entries := s.entries
	s.mu.Unlock()

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if q.Get("ref") == "" {
		http.Error(w, `{"error":"missing ref"}`, http.StatusBadRequest)
		return
	}

	start := (page - 1) * size
	if start > len(entries) {
		start = len(entries)
	}
	end := start + size
	if end > len(entries) {
		end = len(entries)
	}

	totalPages := (len(entries) + size - 1) / size
	var next *string
	if end < len(entries) {
		nq := url.Values{}
		nq.Set("ref", q.Get("ref"))
		nq.Set("q", q.Get("q"))
		nq.Set("page", strconv.Itoa(page+1))
		nq.Set("pageSize", strconv.Itoa(size))
		link := fmt.Sprintf("%s/api/v2/documents/search?%s", s.URL, nq.Encode())
		next = &link
	}

	writeJSON(w, map[string]any{
		"page":               page,
		"results_per_page":   size,
		"total_results_size": len(entries),
		"total_pages":        totalPages,
		"next_page":          next,
		"results":            entries[start:end],
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Posts builds n entries with uids post-1..post-n, one day apart from
// 2021-03-01.
func Posts(n int) []cms.RawEntry {
	out := make([]cms.RawEntry, n)
	for i := range out {
		date := fmt.Sprintf("2021-03-%02dT12:00:00+0000", i+1)
		out[i] = cms.RawEntry{
			ID:                   fmt.Sprintf("id-%d", i+1),
			UID:                  fmt.Sprintf("post-%d", i+1),
			Type:                 "posts",
			FirstPublicationDate: &date,
			Data: cms.RawData{
				Title:    fmt.Sprintf("Post %d", i+1),
				Subtitle: fmt.Sprintf("Subtítulo %d", i+1),
				Author:   "Autora",
			},
		}
	}
	return out
}
