package handlers

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust CORS as needed, e.g., check r.Header.Get("Origin")
	},
}

// CaseFeed pushes case lifecycle events to connected dispatch dashboards
// (clientId -> *websocket.Conn)
type CaseFeed struct {
	clients map[string]*websocket.Conn
	mutex   sync.Mutex
}

// NewCaseFeed creates an empty case feed hub
func NewCaseFeed() *CaseFeed {
	return &CaseFeed{
		clients: make(map[string]*websocket.Conn),
	}
}

// HandleCaseFeedWebSocket WebSocket handler for the live case feed
func (h *CaseFeed) HandleCaseFeedWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	// Get clientId from query param (replace with JWT/auth middleware in production)
	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		conn.Close()
		return
	}

	// Register client
	h.mutex.Lock()
	h.clients[clientID] = conn
	h.mutex.Unlock()
	log.Printf("Client %s connected to /ws/cases", clientID)

	// Handle disconnect
	conn.SetCloseHandler(func(code int, text string) error {
		h.mutex.Lock()
		delete(h.clients, clientID)
		h.mutex.Unlock()
		log.Printf("Client %s disconnected from /ws/cases", clientID)
		return nil
	})

	// Keep connection alive
	for {
		if _, _, err := conn.NextReader(); err != nil {
			conn.Close()
			break
		}
	}
}

// BroadcastCaseEvent pushes a case event to every connected dashboard
func (h *CaseFeed) BroadcastCaseEvent(eventType string, data map[string]interface{}) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if len(h.clients) == 0 {
		return
	}

	for clientID, conn := range h.clients {
		err := conn.WriteJSON(map[string]interface{}{
			"event": eventType,
			"data":  data,
		})
		if err != nil {
			log.Printf("Error broadcasting case event to client %s: %v", clientID, err)
			delete(h.clients, clientID)
			conn.Close()
		}
	}
}

// ClientCount reports how many dashboards are currently connected
func (h *CaseFeed) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}
