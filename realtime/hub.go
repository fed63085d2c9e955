package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/locentra/locentra-api/models"
)

// Event kinds pushed over the feed.
const (
	EventMessageInsert       = "message.insert"
	EventNotificationInsert  = "notification.insert"
	EventConversationDeleted = "conversation.delete"
)

// Event is the envelope every feed payload is wrapped in.
type Event struct {
	Kind           string      `json:"kind"`
	ConversationID string      `json:"conversation_id,omitempty"`
	Payload        interface{} `json:"payload,omitempty"`
}

// Hub is the change feed: it tracks one live connection per user and the
// conversation each connection is currently subscribed to, and fans inserted
// rows out to subscribers. Events are delivered in the order they are
// published per conversation; there is no replay, de-duplication, or
// reconnect handling; a dropped client resubscribes and refetches history.
type Hub struct {
	mu           sync.RWMutex
	sessions     map[string]*Connection            // connection id -> connection
	userSessions map[uint]string                   // user id -> connection id
	rooms        map[string]map[string]*Connection // conversation id -> connection id -> connection
	sessionRoom  map[string]string                 // connection id -> conversation id
}

// NewHub constructs an initialized Hub.
func NewHub() *Hub {
	return &Hub{
		sessions:     make(map[string]*Connection),
		userSessions: make(map[uint]string),
		rooms:        make(map[string]map[string]*Connection),
		sessionRoom:  make(map[string]string),
	}
}

// Attach registers a connection for the given user and starts its write
// loop. A previous session for the same user is closed after the swap so
// each user holds one live socket.
func (h *Hub) Attach(conn *Connection) {
	var previous *Connection

	h.mu.Lock()
	if existingID, ok := h.userSessions[conn.UserID]; ok {
		if existing := h.sessions[existingID]; existing != nil {
			previous = existing
			h.detachLocked(existingID)
		}
	}

	h.sessions[conn.ID] = conn
	h.userSessions[conn.UserID] = conn.ID
	h.mu.Unlock()

	conn.Start()

	if previous != nil {
		previous.Close(4001, "session replaced")
	}
}

// Detach removes a connection if it is still tracked.
func (h *Hub) Detach(conn *Connection) {
	h.mu.Lock()
	h.detachLocked(conn.ID)
	h.mu.Unlock()
}

// Subscribe points the connection's single subscription at the given
// conversation, tearing down the previous one first. This mirrors the client
// lifecycle: selecting a conversation opens its feed, selecting another
// closes the old feed before the new one.
func (h *Hub) Subscribe(conn *Connection, conversationID uuid.UUID) {
	key := conversationID.String()

	h.mu.Lock()
	if _, ok := h.sessions[conn.ID]; !ok {
		h.mu.Unlock()
		return
	}
	if prev, ok := h.sessionRoom[conn.ID]; ok {
		h.leaveLocked(prev, conn.ID)
	}

	room := h.rooms[key]
	if room == nil {
		room = make(map[string]*Connection)
		h.rooms[key] = room
	}
	room[conn.ID] = conn
	h.sessionRoom[conn.ID] = key
	h.mu.Unlock()
}

// Unsubscribe drops the connection's current subscription, if any.
func (h *Hub) Unsubscribe(conn *Connection) {
	h.mu.Lock()
	if prev, ok := h.sessionRoom[conn.ID]; ok {
		h.leaveLocked(prev, conn.ID)
	}
	h.mu.Unlock()
}

// BroadcastMessage delivers an inserted message row to every subscriber of
// its conversation, including the sender's own connection. Returns the
// number of sockets the event was handed to.
func (h *Hub) BroadcastMessage(msg *models.Message) int {
	payload, err := json.Marshal(Event{
		Kind:           EventMessageInsert,
		ConversationID: msg.ConversationID.String(),
		Payload:        msg,
	})
	if err != nil {
		log.Printf("feed: marshal message event: %v", err)
		return 0
	}
	return h.broadcast(msg.ConversationID.String(), payload)
}

// BroadcastConversationDeleted tells subscribers the conversation is gone.
func (h *Hub) BroadcastConversationDeleted(conversationID uuid.UUID) int {
	payload, err := json.Marshal(Event{
		Kind:           EventConversationDeleted,
		ConversationID: conversationID.String(),
	})
	if err != nil {
		log.Printf("feed: marshal delete event: %v", err)
		return 0
	}
	return h.broadcast(conversationID.String(), payload)
}

// NotifyUser delivers a notification row to the user's live connection, if
// they have one. Offline users simply fetch the row later.
func (h *Hub) NotifyUser(userID uint, n *models.Notification) bool {
	payload, err := json.Marshal(Event{
		Kind:    EventNotificationInsert,
		Payload: n,
	})
	if err != nil {
		log.Printf("feed: marshal notification event: %v", err)
		return false
	}

	h.mu.RLock()
	sessionID, ok := h.userSessions[userID]
	if !ok {
		h.mu.RUnlock()
		return false
	}
	conn := h.sessions[sessionID]
	h.mu.RUnlock()
	if conn == nil {
		return false
	}
	return conn.Send(payload) == nil
}

// Close terminates all tracked connections and clears hub state.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := make([]*Connection, 0, len(h.sessions))
	for _, conn := range h.sessions {
		sessions = append(sessions, conn)
	}
	h.sessions = make(map[string]*Connection)
	h.userSessions = make(map[uint]string)
	h.rooms = make(map[string]map[string]*Connection)
	h.sessionRoom = make(map[string]string)
	h.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "hub shutdown")
	}
}

func (h *Hub) broadcast(conversationID string, payload []byte) int {
	h.mu.RLock()
	room := h.rooms[conversationID]
	if len(room) == 0 {
		h.mu.RUnlock()
		return 0
	}

	delivered := 0
	for _, conn := range room {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	h.mu.RUnlock()
	return delivered
}

func (h *Hub) detachLocked(sessionID string) {
	conn, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	delete(h.sessions, sessionID)

	if current, ok := h.userSessions[conn.UserID]; ok && current == sessionID {
		delete(h.userSessions, conn.UserID)
	}

	if room, ok := h.sessionRoom[sessionID]; ok {
		h.leaveLocked(room, sessionID)
	}
}

func (h *Hub) leaveLocked(conversationID string, sessionID string) {
	room := h.rooms[conversationID]
	if room == nil {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(h.rooms, conversationID)
	}
	delete(h.sessionRoom, sessionID)
}
