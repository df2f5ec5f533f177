package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mr-sankar/Sindhuur-backend-latest/models"
)

type memStore struct {
	messages map[string]*models.Message
	contacts map[string]map[string]bool
	saveErr  error
}

func newMemStore() *memStore {
	return &memStore{
		messages: make(map[string]*models.Message),
		contacts: make(map[string]map[string]bool),
	}
}

func (s *memStore) SaveMessage(_ context.Context, msg *models.Message) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	msg.ID = primitive.NewObjectID()
	cp := *msg
	s.messages[msg.ID.Hex()] = &cp
	return nil
}

func (s *memStore) EditMessage(_ context.Context, id, newText string) (*models.Message, error) {
	msg, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	msg.Text = newText
	msg.Edited = true
	cp := *msg
	return &cp, nil
}

func (s *memStore) DeleteMessage(_ context.Context, id string) (*models.Message, error) {
	msg, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	delete(s.messages, id)
	return msg, nil
}

func (s *memStore) AddChatContact(_ context.Context, profileID, contactID string) error {
	if s.contacts[profileID] == nil {
		s.contacts[profileID] = make(map[string]bool)
	}
	s.contacts[profileID][contactID] = true
	return nil
}

// attach registers a fake session directly in the presence table.
func attach(h *Hub, profileID string) *Client {
	c := &Client{profileID: profileID, send: make(chan []byte, 16), hub: h}
	h.mu.Lock()
	h.sessions[profileID] = c
	h.mu.Unlock()
	return c
}

func drain(t *testing.T, c *Client) (string, map[string]interface{}) {
	t.Helper()
	select {
	case raw := <-c.send:
		var env struct {
			Event   string          `json:"event"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("bad envelope: %v", err)
		}
		var payload map[string]interface{}
		json.Unmarshal(env.Payload, &payload)
		return env.Event, payload
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	return "", nil
}

func TestSendMessageDeliversToBothSessions(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store)
	sender := attach(hub, "KM1")
	receiver := attach(hub, "KM2")

	hub.SendMessage(context.Background(), sendPayload{
		SenderID: "KM1", ReceiverID: "KM2", Text: "hello", Time: "10:00",
	})

	ev, payload := drain(t, receiver)
	if ev != "receiveMessage" || payload["text"] != "hello" {
		t.Errorf("receiver got (%s, %v)", ev, payload)
	}
	ev, _ = drain(t, sender)
	if ev != "receiveMessage" {
		t.Errorf("sender echo event = %s", ev)
	}

	if len(store.messages) != 1 {
		t.Errorf("persisted messages = %d, want 1", len(store.messages))
	}
	if !store.contacts["KM1"]["KM2"] || !store.contacts["KM2"]["KM1"] {
		t.Error("chat contacts not recorded bidirectionally")
	}
}

func TestSendMessageOfflineReceiverStillPersists(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store)
	sender := attach(hub, "KM1")

	hub.SendMessage(context.Background(), sendPayload{
		SenderID: "KM1", ReceiverID: "KM2", Text: "are you there", Time: "10:05",
	})

	if len(store.messages) != 1 {
		t.Fatalf("persisted messages = %d, want 1", len(store.messages))
	}
	// Sender is still echoed its own message.
	ev, _ := drain(t, sender)
	if ev != "receiveMessage" {
		t.Errorf("sender echo event = %s", ev)
	}
}

func TestEditMessageNotifiesBothParties(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store)
	sender := attach(hub, "KM1")
	receiver := attach(hub, "KM2")

	hub.SendMessage(context.Background(), sendPayload{SenderID: "KM1", ReceiverID: "KM2", Text: "typo", Time: "1"})
	drain(t, sender)
	drain(t, receiver)

	var id string
	for k := range store.messages {
		id = k
	}
	hub.EditMessage(context.Background(), id, "fixed")

	ev, payload := drain(t, sender)
	if ev != "messageEdited" || payload["text"] != "fixed" || payload["edited"] != true {
		t.Errorf("sender got (%s, %v)", ev, payload)
	}
	ev, _ = drain(t, receiver)
	if ev != "messageEdited" {
		t.Errorf("receiver event = %s", ev)
	}
}

func TestEditUnknownMessageIsSilent(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store)
	sender := attach(hub, "KM1")

	hub.EditMessage(context.Background(), primitive.NewObjectID().Hex(), "whatever")

	select {
	case raw := <-sender.send:
		t.Fatalf("unexpected delivery: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDeleteMessageNotifiesWithID(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store)
	sender := attach(hub, "KM1")
	receiver := attach(hub, "KM2")

	hub.SendMessage(context.Background(), sendPayload{SenderID: "KM1", ReceiverID: "KM2", Text: "oops", Time: "1"})
	drain(t, sender)
	drain(t, receiver)

	var id string
	for k := range store.messages {
		id = k
	}
	hub.DeleteMessage(context.Background(), id)

	select {
	case raw := <-sender.send:
		var env struct {
			Event   string `json:"event"`
			Payload string `json:"payload"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("bad envelope: %v", err)
		}
		if env.Event != "messageDeleted" || env.Payload != id {
			t.Errorf("got (%s, %s)", env.Event, env.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no delete notification")
	}
	if len(store.messages) != 0 {
		t.Error("message not removed from store")
	}
}

func TestSendMessagePersistFailureSkipsContacts(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("write failed")
	hub := NewHub(store)
	sender := attach(hub, "KM1")

	hub.SendMessage(context.Background(), sendPayload{
		SenderID: "KM1", ReceiverID: "KM2", Text: "lost", Time: "10:10",
	})

	if len(store.contacts) != 0 {
		t.Errorf("contacts recorded for unpersisted message: %v", store.contacts)
	}
	select {
	case raw := <-sender.send:
		t.Fatalf("unexpected delivery: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

// A peer disconnecting while a message is being relayed to it must not take
// the process down with a send on its closed channel.
func TestEmitDuringDisconnectDoesNotPanic(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store)
	go hub.Run()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			c := &Client{profileID: "KM1", send: make(chan []byte, 1), hub: hub}
			hub.register <- c
			hub.unregister <- c
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("emit panicked: %v", r)
				}
			}()
			for {
				select {
				case <-done:
					return
				default:
					hub.emit("KM1", "receiveMessage", map[string]interface{}{"text": "ping"})
				}
			}
		}()
	}
	wg.Wait()
}

func TestReconnectOverwritesPresence(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store)
	go hub.Run()

	first := &Client{profileID: "KM1", send: make(chan []byte, 16), hub: hub}
	hub.register <- first
	second := &Client{profileID: "KM1", send: make(chan []byte, 16), hub: hub}
	hub.register <- second

	// Stale unregister from the first session must not evict the second.
	hub.unregister <- first

	// The stale session's channel is closed once its unregister is processed.
	deadline := time.After(time.Second)
	for closed := false; !closed; {
		select {
		case _, ok := <-first.send:
			closed = !ok
		case <-deadline:
			t.Fatal("stale session never cleaned up")
		}
	}

	hub.mu.RLock()
	current, ok := hub.sessions["KM1"]
	hub.mu.RUnlock()
	if !ok || current != second {
		t.Fatal("presence entry lost or stale after reconnect")
	}

	online := hub.OnlineProfiles()
	if len(online) != 1 || online[0] != "KM1" {
		t.Errorf("online = %v", online)
	}
}
