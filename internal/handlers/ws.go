package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"chatd/internal/chat"
	"chatd/internal/utils"
	"chatd/internal/ws"
)

// WSInbound is the envelope for frames a client sends over the socket.
type WSInbound struct {
	Type              string `json:"type"`
	RoomID            int64  `json:"room_id"`
	Content           string `json:"content,omitempty"`
	ContentType       string `json:"content_type,omitempty"`
	LastReadMessageID int64  `json:"last_read_message_id,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades HTTP to WebSocket, authenticates, and feeds inbound
// frames into the chat core. The connection is registered per user, not per
// room: delivery events for every room the user belongs to arrive on it.
type WSHandler struct {
	Chat     *chat.Service
	Registry *ws.Registry
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token required", http.StatusBadRequest)
		return
	}

	secret := utils.GetJWTSecret()
	userID, err := utils.ParseJWT(token, secret)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		return
	}

	c := ws.NewConn(sock, userID)
	h.Registry.Register(userID, c)
	logrus.WithField("user_id", userID).Info("websocket connected")

	go c.StartWrite()

	defer func() {
		h.Registry.Unregister(userID, c)
		close(c.Send)
		logrus.WithField("user_id", userID).Info("websocket disconnected")
	}()

	for {
		_, msg, err := sock.ReadMessage()
		if err != nil {
			return // disconnect
		}
		var frame WSInbound
		if err := json.Unmarshal(msg, &frame); err != nil {
			sendError(c, "invalid message format")
			continue
		}
		switch frame.Type {
		case "send_message":
			_, err := h.Chat.Send(r.Context(), userID, frame.RoomID, frame.Content, frame.ContentType)
			if err != nil {
				sendError(c, chatErrorMessage(err))
				continue
			}
			// The sender's own copy arrives through fan-out like
			// everyone else's.
		case "read":
			if err := h.Chat.ReadUpTo(r.Context(), userID, frame.RoomID, frame.LastReadMessageID); err != nil {
				sendError(c, chatErrorMessage(err))
				continue
			}
			sendAck(c, "read position updated")
		default:
			sendError(c, "unknown message type")
		}
	}
}

func chatErrorMessage(err error) string {
	switch {
	case errors.Is(err, chat.ErrRoomNotFound),
		errors.Is(err, chat.ErrUserNotFound),
		errors.Is(err, chat.ErrNotAMember),
		errors.Is(err, chat.ErrEmptyContent),
		errors.Is(err, chat.ErrInvalidRead),
		errors.Is(err, chat.ErrBusy):
		return err.Error()
	default:
		logrus.WithError(err).Error("ws frame failed")
		return "internal error"
	}
}

func sendError(c *ws.Conn, msg string) {
	m := map[string]interface{}{"type": "error", "message": msg}
	b, _ := json.Marshal(m)
	select {
	case c.Send <- b:
	default:
	}
}

func sendAck(c *ws.Conn, msg string) {
	m := map[string]interface{}{"type": "ack", "message": msg}
	b, _ := json.Marshal(m)
	select {
	case c.Send <- b:
	default:
	}
}
