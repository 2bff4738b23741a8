package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/maloquacious/todolist/internal/store"
)

type todoResponse struct {
	ID        int64  `json:"id"`
	Task      string `json:"task"`
	Completed int    `json:"completed"`
	CreatedAt string `json:"created_at"`
}

func newTodoResponse(t store.Task) todoResponse {
	completed := 0
	if t.Completed {
		completed = 1
	}
	return todoResponse{
		ID:        t.ID,
		Task:      t.Text,
		Completed: completed,
		CreatedAt: t.CreatedAt,
	}
}

type healthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type statsResponse struct {
	Total       int    `json:"total"`
	Completed   int    `json:"completed"`
	Active      int    `json:"active"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type homeView struct {
	Tasks       []store.Task
	Version     string
	Environment string
	Color       string
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.List(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	var buf bytes.Buffer
	err = indexTmpl.Execute(&buf, homeView{
		Tasks:       tasks,
		Version:     s.cfg.Version,
		Environment: s.cfg.Environment,
		Color:       s.badgeColor(),
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// handleAdd inserts the submitted task. Empty submissions are dropped.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if text := r.FormValue("task"); text != "" {
		id, err := s.store.Add(r.Context(), text)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		s.log.Debug("added task %d", id)
	}
	redirectHome(w, r)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := s.store.Toggle(r.Context(), id); err != nil {
		s.serverError(w, r, err)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.serverError(w, r, err)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "healthy",
		Version:     s.cfg.Version,
		Environment: s.cfg.Environment,
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleReady reports READY only when the schema is present at the expected version.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	state, err := s.store.CheckState(r.Context())
	if err != nil || state != store.StateReady {
		s.log.Warn("not ready: state=%s err=%v", state, err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("NOT READY"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}

func (s *Server) handleAPITodos(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.List(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	resp := make([]todoResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, newTodoResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	stats, err := store.ReadStats(r.Context(), s.store)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Total:       stats.Total,
		Completed:   stats.Completed,
		Active:      stats.Active,
		Version:     s.cfg.Version,
		Environment: s.cfg.Environment,
	})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}

// serverError logs a storage or rendering failure and answers 500.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("%s %s: %v", r.Method, r.URL.Path, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
