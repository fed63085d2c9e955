package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/locentra/locentra-api/metrics"
	"github.com/locentra/locentra-api/realtime"
)

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const feedReadTimeout = 60 * time.Second

type feedFrame struct {
	Action         string `json:"action"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type feedAck struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type feedError struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// handleFeedSubscribe upgrades the request to a websocket and serves the live
// change feed. A client subscribes to one conversation at a time; subscribing
// again replaces the previous subscription. Notifications addressed to the
// user arrive on the same socket regardless of the active subscription.
func (s *Server) handleFeedSubscribe() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := currentSession(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ws, err := feedUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; nothing more to send.
			return
		}

		conn := realtime.NewConnection(session.UserID, ws)
		s.Feed.Attach(conn)
		metrics.FeedConnections.Inc()
		defer func() {
			s.Feed.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
			metrics.FeedConnections.Dec()
		}()

		ws.SetReadLimit(1 << 20)
		_ = ws.SetReadDeadline(time.Now().Add(feedReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(feedReadTimeout))
		})

		if payload, err := json.Marshal(feedAck{Type: "connected"}); err == nil {
			_ = conn.Send(payload)
		}

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				return
			}

			var frame feedFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				s.replyFeedError(conn, "bad_request", "invalid payload")
				continue
			}

			switch frame.Action {
			case "subscribe":
				s.handleFeedSubscribeAction(conn, session.UserID, frame)
			case "unsubscribe":
				s.handleFeedUnsubscribeAction(conn)
			default:
				s.replyFeedError(conn, "unsupported_action", "unknown action")
			}
		}
	}
}

func (s *Server) handleFeedSubscribeAction(conn *realtime.Connection, userID uint, frame feedFrame) {
	conversationID, err := uuid.Parse(frame.ConversationID)
	if err != nil {
		s.replyFeedError(conn, "bad_request", "conversation_id is required")
		return
	}

	conversation, err := s.ConversationRepository.GetConversation(conversationID)
	if err != nil {
		s.replyFeedError(conn, "not_found", "conversation not found")
		return
	}
	if !conversation.Participant(userID) {
		s.replyFeedError(conn, "forbidden", "not a participant in this conversation")
		return
	}

	s.Feed.Subscribe(conn, conversationID)

	if payload, err := json.Marshal(feedAck{Type: "subscribed", ConversationID: conversationID.String()}); err == nil {
		_ = conn.Send(payload)
	}
}

func (s *Server) handleFeedUnsubscribeAction(conn *realtime.Connection) {
	s.Feed.Unsubscribe(conn)

	if payload, err := json.Marshal(feedAck{Type: "unsubscribed"}); err == nil {
		_ = conn.Send(payload)
	}
}

func (s *Server) replyFeedError(conn *realtime.Connection, code, msg string) {
	if payload, err := json.Marshal(feedError{Type: "error", Code: code, Error: msg}); err == nil {
		_ = conn.Send(payload)
	}
}
