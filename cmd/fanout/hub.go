package main

import (
	"log"
	"sync"
)

// Hub maintains active WebSocket connections and broadcasts messages
type Hub struct {
	// Map: workflowID → []*Client
	connections map[string][]*Client
	mutex       sync.RWMutex

	// Channel for registering clients
	register chan *Client

	// Channel for unregistering clients
	unregister chan *Client

	// Channel for broadcasting messages
	broadcast chan *Message
}

// Message is one event payload addressed to a workflow's watchers
type Message struct {
	WorkflowID string
	Data       []byte
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string][]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	log.Println("Hub started")

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToWorkflow(message)
		}
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.connections[client.workflowID] = append(h.connections[client.workflowID], client)
	log.Printf("Client registered: workflow=%s, total_for_workflow=%d",
		client.workflowID, len(h.connections[client.workflowID]))
}

// unregisterClient removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	clients := h.connections[client.workflowID]
	for i, c := range clients {
		if c == client {
			h.connections[client.workflowID] = append(clients[:i], clients[i+1:]...)
			close(client.send)

			if len(h.connections[client.workflowID]) == 0 {
				delete(h.connections, client.workflowID)
			}

			log.Printf("Client unregistered: workflow=%s, remaining_for_workflow=%d",
				client.workflowID, len(h.connections[client.workflowID]))
			break
		}
	}
}

// broadcastToWorkflow sends a message to every connection watching a workflow
func (h *Hub) broadcastToWorkflow(message *Message) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	clients := h.connections[message.WorkflowID]
	if len(clients) == 0 {
		// Nobody watching this workflow, skip
		return
	}

	for _, client := range clients {
		select {
		case client.send <- message.Data:
			// Message sent successfully
		default:
			// Client's send buffer is full, close the connection
			log.Printf("Client send buffer full, closing connection: workflow=%s", client.workflowID)
			close(client.send)
		}
	}
}

// GetConnectionCount returns the total number of active connections
func (h *Hub) GetConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	count := 0
	for _, clients := range h.connections {
		count += len(clients)
	}
	return count
}

// GetWorkflowCount returns the number of workflows with at least one watcher
func (h *Hub) GetWorkflowCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections)
}
