// Package server exposes an Exporter over HTTP and pushes its notifications
// to websocket subscribers.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/fakeyudi/idlesnap/internal/export"
	"github.com/fakeyudi/idlesnap/internal/report"
)

// Server serves one Exporter.
type Server struct {
	exp      *export.Exporter
	hub      *Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New returns a Server. hub should be the exporter's notifier.
func New(exp *export.Exporter, hub *Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		exp:    exp,
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/export", s.handleGetExport)
		r.Post("/export", s.handleRunExport)
		r.Delete("/export", s.handleResetExport)
		r.Get("/changes", s.handleChanges)
		r.Get("/history", s.handleHistory)
		r.Delete("/history", s.handleResetHistory)
	})
	r.Get("/ws", s.handleWS)
	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("writing response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, export.ErrNoExport) {
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	pretty, _ := strconv.ParseBool(r.URL.Query().Get("pretty"))
	out, err := s.exp.ExportString(pretty)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(out))
}

func (s *Server) handleRunExport(w http.ResponseWriter, r *http.Request) {
	quick, _ := strconv.ParseBool(r.URL.Query().Get("quick"))
	res, err := s.exp.Run(r.Context(), quick)
	if err != nil {
		s.logger.Warn("export cycle failed", "err", err)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"meta":      res.Doc.Meta,
		"cached":    res.Cached,
		"key":       res.Key,
		"changelog": res.Changelog,
	})
}

func (s *Server) handleResetExport(w http.ResponseWriter, r *http.Request) {
	if err := s.exp.ResetExportData(); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	entry, err := s.exp.ChangesData()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if text, _ := strconv.ParseBool(r.URL.Query().Get("text")); text {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(report.ChangelogText(entry.Changelog)))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"key":     entry.Key,
		"header":  entry.Changelog.Header,
		"changes": entry.Changelog.Changes,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	h, err := s.exp.ChangesHistory()
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := report.HistoryJSON(h)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleResetHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.exp.ResetChangesHistory(); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	sub := s.hub.subscribe(conn)
	go s.hub.writePump(sub)

	// Subscribers only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.unsubscribe(sub)
			return
		}
	}
}
