package app

import (
	"fmt"
	"net/http"

	"github.com/cespare/xxhash/v2"
	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/hcl"
	"github.com/vk/widgetgrid/internal/sessionstore"
	"github.com/vk/widgetgrid/internal/wire"
)

// sessionRoutes serves read-only views of stored sessions.
type sessionRoutes struct {
	store sessionstore.Store
}

func (s *sessionRoutes) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /sessions/{id}", s.snapshot)
	mux.HandleFunc("GET /sessions/{id}/export.hcl", s.export)
}

// load writes the error response itself when it returns false.
func (s *sessionRoutes) load(w http.ResponseWriter, r *http.Request) (string, *sessionstore.Snapshot, bool) {
	id := r.PathValue("id")
	snap, ok, err := s.store.Get(r.Context(), id)
	if err != nil {
		ctxlog.FromContext(r.Context()).Error("Failed to read session.", "session", id, "error", err)
		http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
		return "", nil, false
	}
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return "", nil, false
	}
	return id, snap, true
}

func (s *sessionRoutes) snapshot(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := s.load(w, r)
	if !ok {
		return
	}
	body, err := wire.Marshal(snap)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (s *sessionRoutes) export(w http.ResponseWriter, r *http.Request) {
	id, snap, ok := s.load(w, r)
	if !ok {
		return
	}
	body, err := hcl.Export(id, snap)
	if err != nil {
		ctxlog.FromContext(r.Context()).Warn("Session cannot be exported.", "session", id, "error", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(body))
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(body)
}
