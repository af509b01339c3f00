package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"tileworld/archive"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 1000
)

// EventArchive is the queryable event history behind /api/events/archive.
type EventArchive interface {
	Recent(ctx context.Context, limit int) ([]archive.Record, error)
}

// Routes registers the game socket, event stream, admin API and, when
// configured, the static web client.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/game", s.HandleGameWS)
	mux.HandleFunc("/api/events/stream", s.HandleEventStream)

	mux.HandleFunc("/api/world/map", s.admin(s.HandleMap))
	mux.HandleFunc("/api/players", s.admin(s.HandlePlayers))
	mux.HandleFunc("/api/entities", s.admin(s.HandleEntities))
	mux.HandleFunc("/api/stats", s.admin(s.HandleStats))
	mux.HandleFunc("/api/events", s.admin(s.HandleEvents))
	mux.HandleFunc("/api/history", s.admin(s.HandleHistory))
	mux.HandleFunc("/api/events/archive", s.admin(s.HandleArchive))
	mux.HandleFunc("/admin/config", s.admin(s.HandleAdminConfig))
	mux.HandleFunc("/metrics", s.admin(s.HandleMetrics))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	if s.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	}
	return mux
}

// admin rejects non-loopback peers when configured to.
func (s *Server) admin(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.loopbackOnly && !isLoopbackRemote(r.RemoteAddr) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func getOnly(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// parseLimit reads ?limit=, falling back to def and capping at maxEventLimit.
func parseLimit(r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	if n > maxEventLimit {
		n = maxEventLimit
	}
	return n, true
}

// HandleMap GET /api/world/map
func (s *Server) HandleMap(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	writeJSON(w, s.game.MapDump())
}

// HandlePlayers GET /api/players
func (s *Server) HandlePlayers(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	writeJSON(w, s.game.Players())
}

// HandleEntities GET /api/entities
func (s *Server) HandleEntities(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	writeJSON(w, s.game.Entities())
}

// HandleStats GET /api/stats
func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	writeJSON(w, s.game.Stats())
}

// HandleEvents GET /api/events?limit=50
func (s *Server) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	limit, ok := parseLimit(r, defaultEventLimit)
	if !ok {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.game.EventLog().Recent(limit))
}

// HandleHistory GET /api/history?limit=
func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	limit, ok := parseLimit(r, s.historyLimit)
	if !ok {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.game.History(limit))
}

// HandleArchive GET /api/events/archive?limit=50
func (s *Server) HandleArchive(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	if s.archive == nil {
		http.Error(w, "archive disabled", http.StatusNotFound)
		return
	}
	limit, ok := parseLimit(r, defaultEventLimit)
	if !ok {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return
	}
	recs, err := s.archive.Recent(r.Context(), limit)
	if err != nil {
		Log.Errorf("archive query: %v", err)
		http.Error(w, "archive query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, recs)
}

// HandleAdminConfig reads or hot-updates runtime settings.
// GET  /admin/config  current settings
// POST /admin/config  partial update, e.g. {"view_radius": 10}
func (s *Server) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	type cfg struct {
		ViewRadius *int `json:"view_radius,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		radius := s.game.ViewRadius()
		writeJSON(w, cfg{ViewRadius: &radius})
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.ViewRadius != nil {
			if v, limit := *body.ViewRadius, s.game.MaxViewRadius(); v < 0 || v > limit {
				http.Error(w, fmt.Sprintf("view_radius must be in [0, %d]", limit), http.StatusBadRequest)
				return
			}
			s.game.SetViewRadius(*body.ViewRadius)
		}
		writeJSON(w, map[string]any{"ok": true})
		Log.Infof("config updated: view_radius=%d", s.game.ViewRadius())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleMetrics GET /metrics
func (s *Server) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"tick":        s.game.Stats().TicksProcessed,
		"connections": s.conns.Len(),
		"metrics":     s.game.Metrics().Snapshot(),
		"hub": map[string]any{
			"event_subscribers":  s.game.events.Len(),
			"update_subscribers": s.game.updates.Len(),
			"events_published":   s.game.events.Published(),
			"events_dropped":     s.game.events.Dropped(),
			"updates_dropped":    s.game.updates.Dropped(),
		},
	})
}
