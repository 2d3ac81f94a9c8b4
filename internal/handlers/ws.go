package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/klimenko/work-planner/internal/models"
)

// WSHub fans task events out to the subscribers of each project's board.
type WSHub struct {
	connections map[int64]map[*websocket.Conn]bool
	mutex       sync.Mutex
}

func NewWSHub() *WSHub {
	return &WSHub{connections: make(map[int64]map[*websocket.Conn]bool)}
}

// BroadcastTaskUpdate sends a task event to every WebSocket connection
// subscribed to the project.
func (hub *WSHub) BroadcastTaskUpdate(projectID int64, event string, task *models.TaskItem) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	conns, exists := hub.connections[projectID]
	if !exists {
		return
	}

	message, err := json.Marshal(map[string]any{
		"event":   event,
		"task_id": task.ID,
		"title":   task.Title,
		"status":  task.Status,
		"sprint":  task.SprintID,
		"order":   task.Order,
	})
	if err != nil {
		log.Printf("Failed to marshal task event: %v", err)
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("Failed to send WebSocket message: %v", err)
			delete(conns, conn)
			conn.Close()
		}
	}
}

func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	clientIP := r.RemoteAddr
	if h.RateLimiter != nil && !h.RateLimiter.Allow(clientIP) {
		sendError(w, "Too many WebSocket connection attempts", http.StatusTooManyRequests)
		return
	}

	projectID, err := strconv.ParseInt(r.URL.Query().Get("project_id"), 10, 64)
	if err != nil || projectID <= 0 {
		sendError(w, "project_id is required", http.StatusBadRequest)
		return
	}

	// membership check before the upgrade so non-members get a JSON error
	if _, err := h.Service.GetProject(r.Context(), actor, projectID); err != nil {
		respondServiceError(w, err)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // Adjust for production (e.g., check specific origins)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.WSHub.mutex.Lock()
	if h.WSHub.connections[projectID] == nil {
		h.WSHub.connections[projectID] = make(map[*websocket.Conn]bool)
	}
	h.WSHub.connections[projectID][conn] = true
	h.WSHub.mutex.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.WSHub.mutex.Lock()
			delete(h.WSHub.connections[projectID], conn)
			h.WSHub.mutex.Unlock()
			conn.Close()
			return
		}
	}
}
