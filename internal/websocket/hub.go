package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/kireiworks/cleaning-backend/pkg/logger"
)

// ClientMessage is a frame sent by the browser
type ClientMessage struct {
	Type string `json:"type"` // ping
}

// Event is a frame pushed to the browser
type Event struct {
	Type string      `json:"type"` // notification, unread_count, pong
	Data interface{} `json:"data,omitempty"`
}

// Client is one websocket session; a user may hold several (one per device/tab)
type Client struct {
	Hub           *Hub
	Conn          *Conn
	UserID        uint
	Send          chan []byte
	MessageCount  int
	LastResetTime time.Time
	RateMu        sync.Mutex
}

func NewClient(hub *Hub, conn *Conn, userID uint) *Client {
	return &Client{
		Hub:           hub,
		Conn:          conn,
		UserID:        userID,
		Send:          make(chan []byte, 256),
		LastResetTime: time.Now(),
	}
}

type userMessage struct {
	UserID  uint
	Message []byte
}

// Hub tracks online sessions and fans messages out to them
type Hub struct {
	clients map[uint][]*Client

	register   chan *Client
	unregister chan *Client
	outbound   chan *userMessage
	done       chan struct{}
	stopOnce   sync.Once

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		outbound:   make(chan *userMessage, 1024),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and outbound messages until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			sessions := len(h.clients[client.UserID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.outbound:
			h.mu.RLock()
			list := h.clients[msg.UserID]
			var stale []*Client
			for _, client := range list {
				select {
				case client.Send <- msg.Message:
				default:
					stale = append(stale, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range stale {
				logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
					"user_id": client.UserID,
				})
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	kept := make([]*Client, 0, len(list))
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return
	}
	if len(kept) == 0 {
		delete(h.clients, client.UserID)
	} else {
		h.clients[client.UserID] = kept
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": len(kept),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, list := range h.clients {
		for _, c := range list {
			close(c.Send)
		}
		delete(h.clients, userID)
	}
}

// Stop ends Run and closes every session
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToUser queues an event for every session of the user. Offline users are skipped.
func (h *Hub) SendToUser(userID uint, event Event) error {
	if !h.IsUserOnline(userID) {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal websocket event", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}

	select {
	case h.outbound <- &userMessage{UserID: userID, Message: data}:
	default:
		logger.Warn("Outbound channel full, message dropped", map[string]interface{}{
			"user_id": userID,
		})
	}
	return nil
}

func (h *Hub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// SessionCount returns the number of open sessions of a user
func (h *Hub) SessionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// HandleClientMessage answers pings; anything else is ignored
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"user_id": client.UserID,
			"count":   count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"user_id": client.UserID,
			"error":   err.Error(),
		})
		return
	}

	if msg.Type == "ping" {
		data, _ := json.Marshal(Event{Type: "pong"})
		select {
		case client.Send <- data:
		default:
		}
	}
}
