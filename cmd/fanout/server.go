package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The editor runs on a different origin in development
		return true
	},
}

// Server handles WebSocket upgrades and service introspection
type Server struct {
	hub *Hub
}

// NewServer creates a new Server instance
func NewServer(hub *Hub) *Server {
	return &Server{hub: hub}
}

// HandleWebSocket handles WebSocket upgrade and registration
// URL: /ws?workflowId=<id>
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	workflowID := r.URL.Query().Get("workflowId")
	if workflowID == "" {
		http.Error(w, "workflowId query parameter required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := NewClient(s.hub, conn, workflowID)
	s.hub.register <- client

	log.Printf("New WebSocket connection: workflow=%s, remote=%s", workflowID, r.RemoteAddr)

	go client.writePump()
	go client.readPump()
}

// HandleStats reports connection counts
// GET /stats
func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{
		"connections": s.hub.GetConnectionCount(),
		"workflows":   s.hub.GetWorkflowCount(),
	})
}
