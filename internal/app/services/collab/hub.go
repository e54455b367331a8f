package collab

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/veltasoft/worksuite/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Message is the websocket envelope for the collaboration protocol.
type Message struct {
	Type         string   `json:"type"`
	DocumentID   string   `json:"document_id,omitempty"`
	UserID       string   `json:"user_id,omitempty"`
	Revision     int      `json:"revision,omitempty"`
	Ops          *Op      `json:"ops,omitempty"`
	Content      string   `json:"content,omitempty"`
	Participants []string `json:"participants,omitempty"`
	Cursor       int      `json:"cursor,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Hub owns the websocket connections of all editing sessions and fans
// applied operations and cursor updates out to the other participants.
type Hub struct {
	svc      *Service
	log      *logger.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	rooms map[string]map[*wsClient]bool
}

type wsClient struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
	docID  string
}

// NewHub constructs a hub over a collaboration service.
func NewHub(svc *Service, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewDefault("collab-hub")
	}
	return &Hub{
		svc:   svc,
		log:   log,
		rooms: make(map[string]map[*wsClient]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and joins the user to a document session.
// The caller supplies the authenticated user and the target document.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, documentID, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	content, rev, participants, err := h.svc.Join(r.Context(), documentID, userID)
	if err != nil {
		_ = conn.WriteJSON(Message{Type: "error", Error: err.Error()})
		_ = conn.Close()
		return
	}

	client := &wsClient{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		docID:  documentID,
	}
	h.register(client)

	client.enqueue(Message{
		Type:         "snapshot",
		DocumentID:   documentID,
		Revision:     rev,
		Content:      content,
		Participants: participants,
	})
	h.broadcast(client, Message{Type: "join", DocumentID: documentID, UserID: userID})

	go client.writePump()
	go client.readPump()
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[c.docID]
	if room == nil {
		room = make(map[*wsClient]bool)
		h.rooms[c.docID] = room
	}
	room[c] = true
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	room := h.rooms[c.docID]
	if room != nil {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.docID)
		}
	}
	h.mu.Unlock()

	h.svc.Leave(c.docID, c.userID)
	h.broadcast(c, Message{Type: "leave", DocumentID: c.docID, UserID: c.userID})
}

// broadcast sends a message to every client in the sender's room except the
// sender itself.
func (h *Hub) broadcast(sender *wsClient, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[sender.docID] {
		if client == sender {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Slow consumer; drop the message rather than block the room.
		}
	}
}

func (c *wsClient) enqueue(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
		close(c.send)
	}()

	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.enqueue(Message{Type: "error", Error: "malformed message"})
			continue
		}
		c.handle(msg)
	}
}

func (c *wsClient) handle(msg Message) {
	switch msg.Type {
	case "op":
		if msg.Ops == nil {
			c.enqueue(Message{Type: "error", Error: "op message requires ops"})
			return
		}
		applied, rev, err := c.hub.svc.Apply(context.Background(), c.docID, c.userID, *msg.Ops, msg.Revision)
		if err != nil {
			c.enqueue(Message{Type: "error", Error: err.Error()})
			return
		}
		c.enqueue(Message{Type: "ack", DocumentID: c.docID, Revision: rev})
		c.hub.broadcast(c, Message{
			Type:       "op",
			DocumentID: c.docID,
			UserID:     c.userID,
			Revision:   rev,
			Ops:        &applied,
		})
	case "cursor":
		c.hub.broadcast(c, Message{
			Type:       "cursor",
			DocumentID: c.docID,
			UserID:     c.userID,
			Cursor:     msg.Cursor,
		})
	default:
		c.enqueue(Message{Type: "error", Error: "unknown message type " + msg.Type})
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
