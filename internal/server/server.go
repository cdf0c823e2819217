// Package server implements the reference backend for the sync core:
// the position store HTTP surface and the websocket event feed. It
// exists so the client side can be run and integration-tested without
// the full dashboard backend; the inventory endpoints serve empty sets
// until wired to a real scanner.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"netview/internal/event"
	"netview/internal/position"
)

// PositionStore persists node positions.
type PositionStore interface {
	List(ctx context.Context) ([]position.NodePosition, error)
	UpsertBatch(ctx context.Context, entries []position.NodePosition) error
	Clear(ctx context.Context) error
}

// Server routes the backend API.
type Server struct {
	store PositionStore
	hub   *Hub
}

// New creates a server on the given store and hub.
func New(store PositionStore, hub *Hub) *Server {
	return &Server{store: store, hub: hub}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/api/positions", s.handleListPositions)
	r.Put("/api/positions", s.handleUpsertPositions)
	r.Delete("/api/positions", s.handleClearPositions)

	r.Post("/api/events", s.handleInjectEvent)
	r.Get("/ws", s.hub.ServeHTTP)

	// Inventory surfaces of the real backend; empty until a scanner
	// feeds them.
	r.Get("/api/devices", emptyList)
	r.Get("/api/traffic/top", emptyList)
	r.Get("/api/router/interfaces", emptyList)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"clients": s.hub.ClientCount(),
		})
	})

	return r
}

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	all, err := s.store.List(r.Context())
	if err != nil {
		log.Printf("list positions: %v", err)
		http.Error(w, "failed to list positions", http.StatusInternalServerError)
		return
	}
	if all == nil {
		all = []position.NodePosition{}
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleUpsertPositions(w http.ResponseWriter, r *http.Request) {
	var entries []position.NodePosition
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		http.Error(w, "invalid position batch", http.StatusBadRequest)
		return
	}
	for _, e := range entries {
		if e.NodeID == "" {
			http.Error(w, "position entry missing node_id", http.StatusBadRequest)
			return
		}
	}
	if err := s.store.UpsertBatch(r.Context(), entries); err != nil {
		log.Printf("upsert positions: %v", err)
		http.Error(w, "failed to store positions", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearPositions(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(r.Context()); err != nil {
		log.Printf("clear positions: %v", err)
		http.Error(w, "failed to clear positions", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleInjectEvent publishes an event on the feed. In the real system
// the scanner and agent-ingestion services call this.
func (s *Server) handleInjectEvent(w http.ResponseWriter, r *http.Request) {
	var ev event.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "invalid event", http.StatusBadRequest)
		return
	}
	if ev.Type == "" {
		http.Error(w, "event missing type", http.StatusBadRequest)
		return
	}
	s.hub.Broadcast(ev)
	w.WriteHeader(http.StatusAccepted)
}

func emptyList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []any{})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
