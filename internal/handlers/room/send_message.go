package room

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"chatd/internal/chat"
	"chatd/internal/middleware"
	"chatd/internal/utils"
)

type SendMessageRequest struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type,omitempty"` // empty means TEXT
}

type SendMessageResponse struct {
	ID          int64     `json:"id"`
	RoomID      int64     `json:"room_id"`
	SenderID    int64     `json:"sender_id"`
	ContentType string    `json:"content_type"`
	Content     string    `json:"content"`
	SentAt      time.Time `json:"sent_at"`
	SeenCount   int64     `json:"seen_count"`
}

type SendMessageHandler struct {
	Chat *chat.Service
}

// ServeHTTP handles POST /rooms/{id}/send-message
//
// Note: there is no idempotency key on sends, so a client retrying after a
// timeout can create a duplicate message.
func (h *SendMessageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	roomIDStr := chi.URLParam(r, "id")
	roomID, err := strconv.ParseInt(roomIDStr, 10, 64)
	if err != nil {
		utils.JSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "invalid room id"})
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "invalid request"})
		return
	}

	msg, err := h.Chat.Send(r.Context(), userID, roomID, req.Content, req.ContentType)
	if err != nil {
		writeChatError(w, err)
		return
	}

	resp := SendMessageResponse{
		ID:          msg.ID,
		RoomID:      msg.RoomID,
		SenderID:    msg.SenderID,
		ContentType: msg.ContentType,
		Content:     msg.Content,
		SentAt:      msg.CreatedAt,
		SeenCount:   1,
	}

	utils.JSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Message sent", Data: resp})
}
