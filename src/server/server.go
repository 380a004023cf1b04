// Package server is the HTTP boundary to the presentation layer. It only
// moves plain pipeline data; all chart rendering is the caller's business.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"superstore-dashboard/src/dataset"
	"superstore-dashboard/src/processor"
	"superstore-dashboard/src/session"
	"superstore-dashboard/src/storage"
	"superstore-dashboard/src/utils"
)

// ReloadFunc rebuilds the base bundle from the configured sources.
type ReloadFunc func() (*dataset.Bundle, []string, error)

type Server struct {
	store  *session.Store
	pipe   *processor.Pipeline
	logger *storage.Logger
	reload ReloadFunc
}

func New(store *session.Store, pipe *processor.Pipeline, logger *storage.Logger, reload ReloadFunc) *Server {
	return &Server{
		store:  store,
		pipe:   pipe,
		logger: logger,
		reload: reload,
	}
}

// Router wires the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/filters", s.handleFilters)
	r.Post("/api/sessions", s.handleCreateSession)
	r.Route("/api/sessions/{id}", func(r chi.Router) {
		r.Put("/filters", s.handleSetFilters)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/export", s.handleExport)
		r.Delete("/", s.handleDeleteSession)
	})
	r.Post("/api/refresh", s.handleRefresh)
	r.Get("/logs", s.handleLogs)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleFilters returns the selector values observed in the base tables.
// A missing column degrades to an empty list plus a warning, mirroring the
// pipeline policy.
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	bundle := s.store.Bundle()

	var warnings []string
	regions, err := processor.FilterOptions(bundle.Orders, "region")
	if err != nil {
		warnings = append(warnings, err.Error())
	}
	segments, err := processor.FilterOptions(bundle.Customers, "segment")
	if err != nil {
		warnings = append(warnings, err.Error())
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"regions":  regions,
		"segments": segments,
		"warnings": warnings,
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Create()
	s.logger.Info("session created: " + sess.ID)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         sess.ID,
		"created_at": sess.CreatedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var sel processor.Selection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid selection payload: %w", err))
		return
	}

	sess.SetSelection(sel)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	d := s.pipe.Run(s.store.Bundle(), sess.Selection())
	writeJSON(w, http.StatusOK, d)
}

// handleExport streams the session's filtered order view, including the
// derived category columns, as an xlsx download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	orders, _ := s.pipe.FilteredOrders(s.store.Bundle(), sess.Selection())
	orders = processor.WithDerived(orders)

	filePath := filepath.Join(os.TempDir(), fmt.Sprintf("orders-%s.xlsx", sess.ID))
	if err := utils.SaveToExcel(orders.DataFrame(), filePath); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer os.Remove(filePath)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.xlsx"`)
	http.ServeFile(w, r, filePath)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.store.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// handleRefresh reloads the base bundle. On failure the previous bundle
// stays in place and the error is reported.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	bundle, warnings, err := s.reload()
	if err != nil {
		s.logger.Error("refresh failed: " + err.Error())
		writeError(w, http.StatusBadGateway, err)
		return
	}

	s.store.SwapBundle(bundle)
	s.logger.Info("base tables reloaded")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"loaded_at": bundle.LoadedAt.Format(time.RFC3339),
		"warnings":  warnings,
	})
}

// handleLogs streams log entries to the client until it disconnects.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Transfer-Encoding", "chunked")

	logChan := s.logger.Subscribe()

	for {
		select {
		case msg := <-logChan:
			if _, err := fmt.Fprintln(w, msg); err != nil {
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := s.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return sess, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
