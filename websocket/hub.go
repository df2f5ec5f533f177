// Package websocket relays chat traffic between connected profiles. The hub
// owns the presence table; persistence happens through Store before any
// delivery is attempted, so the stored row stays the source of truth when a
// peer is offline.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/mr-sankar/Sindhuur-backend-latest/models"
)

// Store persists messages and the chat-contact side effect.
type Store interface {
	SaveMessage(ctx context.Context, msg *models.Message) error
	EditMessage(ctx context.Context, id, newText string) (*models.Message, error)
	DeleteMessage(ctx context.Context, id string) (*models.Message, error)
	AddChatContact(ctx context.Context, profileID, contactID string) error
}

type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Client // profileId -> live session, at most one each

	register   chan *Client
	unregister chan *Client
	store      Store
}

type Client struct {
	conn      *websocket.Conn
	profileID string
	send      chan []byte
	hub       *Hub
}

func NewHub(store Store) *Hub {
	return &Hub{
		sessions:   make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		store:      store,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// A reconnect overwrites the stale entry; the old session is left
			// to die on its own read deadline.
			h.sessions[client.profileID] = client
			h.mu.Unlock()
			log.WithField("profileId", client.profileID).Info("websocket session registered")
			h.broadcastOnlineUsers()

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.sessions[client.profileID]; ok && current == client {
				delete(h.sessions, client.profileID)
			}
			close(client.send)
			h.mu.Unlock()
			log.WithField("profileId", client.profileID).Info("websocket session removed")
			h.broadcastOnlineUsers()
		}
	}
}

type event struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// OnlineProfiles returns the identities with a live session.
func (h *Hub) OnlineProfiles() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) broadcastOnlineUsers() {
	payload, err := json.Marshal(event{Event: "onlineUsers", Payload: h.OnlineProfiles()})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.sessions {
		select {
		case client.send <- payload:
		default:
		}
	}
}

// emit delivers one event to a profile's live session, if any. Undelivered
// events are dropped; the persisted message remains retrievable.
func (h *Hub) emit(profileID, name string, payload interface{}) {
	data, err := json.Marshal(event{Event: name, Payload: payload})
	if err != nil {
		return
	}
	// The send happens under the read lock: unregister deletes the entry and
	// closes its channel under the full lock, so a session visible here cannot
	// have its channel closed mid-send.
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.sessions[profileID]
	if !ok {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

type sendPayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text"`
	Time       string `json:"time"`
}

// SendMessage persists first, records the bidirectional chat-contact side
// effect, then delivers to the receiver if online and always echoes to the
// sender.
func (h *Hub) SendMessage(ctx context.Context, p sendPayload) {
	msg := &models.Message{
		SenderID:   p.SenderID,
		ReceiverID: p.ReceiverID,
		Text:       p.Text,
		Time:       p.Time,
		CreatedAt:  time.Now(),
	}
	if err := h.store.SaveMessage(ctx, msg); err != nil {
		log.Errorf("save message: %v", err)
		return
	}

	if err := h.store.AddChatContact(ctx, p.SenderID, p.ReceiverID); err != nil {
		log.Errorf("add chat contact: %v", err)
	}
	if err := h.store.AddChatContact(ctx, p.ReceiverID, p.SenderID); err != nil {
		log.Errorf("add chat contact: %v", err)
	}

	out := messageView(msg)
	h.emit(p.ReceiverID, "receiveMessage", out)
	h.emit(p.SenderID, "receiveMessage", out)
}

// EditMessage updates text and the edited flag; unknown ids are a silent
// no-op.
func (h *Hub) EditMessage(ctx context.Context, id, newText string) {
	msg, err := h.store.EditMessage(ctx, id, newText)
	if err != nil || msg == nil {
		return
	}
	out := messageView(msg)
	h.emit(msg.SenderID, "messageEdited", out)
	h.emit(msg.ReceiverID, "messageEdited", out)
}

// DeleteMessage removes by id; unknown ids are a silent no-op.
func (h *Hub) DeleteMessage(ctx context.Context, id string) {
	msg, err := h.store.DeleteMessage(ctx, id)
	if err != nil || msg == nil {
		return
	}
	h.emit(msg.SenderID, "messageDeleted", id)
	h.emit(msg.ReceiverID, "messageDeleted", id)
}

func messageView(m *models.Message) map[string]interface{} {
	return map[string]interface{}{
		"id":         m.ID.Hex(),
		"senderId":   m.SenderID,
		"receiverId": m.ReceiverID,
		"text":       m.Text,
		"time":       m.Time,
		"edited":     m.Edited,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler upgrades the connection and binds it to the userId carried in the
// query, mirroring the client handshake.
func Handler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID := r.URL.Query().Get("userId")
		if profileID == "" {
			http.Error(w, "userId required", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Errorf("websocket upgrade failed: %v", err)
			return
		}

		client := &Client{
			conn:      conn,
			profileID: profileID,
			send:      make(chan []byte, 256),
			hub:       hub,
		}

		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Errorf("websocket read error: %v", err)
			}
			break
		}

		var env struct {
			Event   string          `json:"event"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Errorf("websocket envelope unmarshal error: %v", err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		switch env.Event {
		case "sendMessage":
			var p sendPayload
			if err := json.Unmarshal(env.Payload, &p); err == nil {
				if p.SenderID == "" {
					p.SenderID = c.profileID
				}
				c.hub.SendMessage(ctx, p)
			}
		case "editMessage":
			var p struct {
				MessageID string `json:"messageId"`
				NewText   string `json:"newText"`
			}
			if err := json.Unmarshal(env.Payload, &p); err == nil {
				c.hub.EditMessage(ctx, p.MessageID, p.NewText)
			}
		case "deleteMessage":
			var id string
			if err := json.Unmarshal(env.Payload, &id); err == nil {
				c.hub.DeleteMessage(ctx, id)
			}
		}
		cancel()
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
