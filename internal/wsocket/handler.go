package wsocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"astrowell_go_backend/internal/services"
	"astrowell_go_backend/internal/utils/broker"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Handler streams assistant replies for one chat session to the
// connected client and accepts chat messages over the same socket.
type Handler struct {
	chatService services.ChatSessionManager
	upgrader    websocket.Upgrader
}

type Message struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	SessionID string `json:"sessionId"`
	SentAt    string `json:"sentAt,omitempty"`
}

func NewHandler(chatService services.ChatSessionManager, upgrader websocket.Upgrader) *Handler {
	return &Handler{
		chatService: chatService,
		upgrader:    upgrader,
	}
}

func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request, messageBroker *broker.Broker) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	replies := messageBroker.Subscribe(sessionID)
	defer messageBroker.Unsubscribe(sessionID, replies)

	// Writer: forward resolved assistant replies to the client.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case reply, ok := <-replies:
				if !ok {
					return
				}
				if err := conn.WriteJSON(Message{
					Type:      "assistant",
					Content:   reply.Text,
					SessionID: sessionID,
					SentAt:    reply.SentAt.Format(time.RFC3339),
				}); err != nil {
					log.Error().Err(err).Str("session_id", sessionID).Msg("failed to deliver reply")
					return
				}
			}
		}
	}()

	// Reader: accept chat messages until the client goes away.
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Str("session_id", sessionID).Msg("websocket closed")
			break
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Debug().Err(err).Msg("ignoring malformed websocket message")
			continue
		}

		switch msg.Type {
		case "message":
			if _, err := h.chatService.SendMessage(sessionID, msg.Content, time.Now()); err != nil {
				if werr := conn.WriteJSON(Message{
					Type:      "error",
					Content:   err.Error(),
					SessionID: sessionID,
				}); werr != nil {
					log.Error().Err(werr).Msg("failed to send error over websocket")
					return
				}
			}
		case "end":
			if err := h.chatService.EndSession(sessionID); err != nil {
				log.Debug().Err(err).Str("session_id", sessionID).Msg("end session over websocket")
			}
			return
		default:
			log.Debug().Str("type", msg.Type).Msg("unknown websocket message type")
		}
	}
}
