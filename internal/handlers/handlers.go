package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/klimenko/work-planner/internal/db"
	"github.com/klimenko/work-planner/internal/workflow"
)

type Handler struct {
	Service     *workflow.Service
	UserRepo    db.UserRepositoryInterface
	RateLimiter *RateLimiter
	WSHub       *WSHub
}

// Routes wires the full API surface onto a mux. Kept separate from main so
// tests serve the same table.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/logout", h.AuthMiddleware(h.Logout))
	mux.HandleFunc("GET /api/auth/me", h.AuthMiddleware(h.CurrentUser))

	mux.HandleFunc("GET /api/projects", h.AuthMiddleware(h.ListProjects))
	mux.HandleFunc("POST /api/projects", h.AuthMiddleware(h.CreateProject))
	mux.HandleFunc("GET /api/projects/{id}", h.AuthMiddleware(h.GetProject))
	mux.HandleFunc("PUT /api/projects/{id}", h.AuthMiddleware(h.UpdateProject))
	mux.HandleFunc("GET /api/projects/{id}/members", h.AuthMiddleware(h.ListMembers))
	mux.HandleFunc("POST /api/projects/{id}/members", h.AuthMiddleware(h.AddMember))
	mux.HandleFunc("DELETE /api/projects/{id}/members/{userId}", h.AuthMiddleware(h.RemoveMember))

	mux.HandleFunc("GET /api/projects/{id}/sprints", h.AuthMiddleware(h.ListSprints))
	mux.HandleFunc("POST /api/projects/{id}/sprints", h.AuthMiddleware(h.CreateSprint))
	mux.HandleFunc("PUT /api/projects/{id}/sprints/{sprintId}", h.AuthMiddleware(h.UpdateSprint))
	mux.HandleFunc("POST /api/projects/{id}/sprints/{sprintId}/activate", h.AuthMiddleware(h.ActivateSprint))
	mux.HandleFunc("POST /api/projects/{id}/sprints/{sprintId}/archive", h.AuthMiddleware(h.ArchiveSprint))

	mux.HandleFunc("GET /api/tasks", h.AuthMiddleware(h.ListTasks))
	mux.HandleFunc("POST /api/tasks", h.AuthMiddleware(h.CreateTask))
	mux.HandleFunc("GET /api/tasks/{id}", h.AuthMiddleware(h.GetTask))
	mux.HandleFunc("PUT /api/tasks/{id}", h.AuthMiddleware(h.UpdateTask))
	mux.HandleFunc("DELETE /api/tasks/{id}", h.AuthMiddleware(h.DeleteTask))
	mux.HandleFunc("PUT /api/tasks/{id}/move", h.AuthMiddleware(h.MoveTask))

	mux.HandleFunc("GET /api/workentries", h.AuthMiddleware(h.ListWorkEntries))
	mux.HandleFunc("POST /api/workentries", h.AuthMiddleware(h.CreateWorkEntry))
	mux.HandleFunc("GET /api/workentries/{id}", h.AuthMiddleware(h.GetWorkEntry))
	mux.HandleFunc("PUT /api/workentries/{id}", h.AuthMiddleware(h.UpdateWorkEntry))
	mux.HandleFunc("DELETE /api/workentries/{id}", h.AuthMiddleware(h.DeleteWorkEntry))
	mux.HandleFunc("GET /api/workentries/by-task/{taskId}", h.AuthMiddleware(h.ListWorkEntriesByTask))

	mux.HandleFunc("GET /api/summaries/daily", h.AuthMiddleware(h.DailySummary))
	mux.HandleFunc("GET /api/summaries/weekly", h.AuthMiddleware(h.WeeklySummary))

	mux.HandleFunc("/ws", h.AuthMiddleware(h.HandleWebSocket))

	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

func sendError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

func sendJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondServiceError maps workflow sentinels onto HTTP status codes.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		sendError(w, "Not found", http.StatusNotFound)
	case errors.Is(err, workflow.ErrForbidden):
		sendError(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, workflow.ErrCannotRemoveOwner):
		sendError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, workflow.ErrAlreadyMember):
		sendError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, workflow.ErrConcurrencyConflict):
		sendError(w, err.Error(), http.StatusConflict)
	case workflow.IsValidation(err):
		sendError(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("internal error: %v", err)
		sendError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func requestCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 5*time.Second)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

func isJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == "application/json" || len(ct) > 16 && ct[:16] == "application/json"
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !isJSONContentType(r) {
		sendError(w, "Content-Type must be application/json", http.StatusBadRequest)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

type RateLimiter struct {
	attempts map[string]int
	limit    int
	mutex    sync.Mutex
	window   time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		attempts: make(map[string]int),
		limit:    limit,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	count, exists := rl.attempts[ip]
	if !exists {
		rl.attempts[ip] = 1
		return true
	}
	if count >= rl.limit {
		return false
	}
	rl.attempts[ip]++
	return true
}

// reset the attempts map every window duration
func (rl *RateLimiter) cleanup() {
	for range time.Tick(rl.window) {
		rl.mutex.Lock()
		rl.attempts = make(map[string]int)
		rl.mutex.Unlock()
	}
}
