package room

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"chatd/internal/chat"
	"chatd/internal/middleware"
	"chatd/internal/utils"
)

type RoomMessagesHandler struct {
	Chat *chat.Service
}

// ServeHTTP handles GET /rooms/{id}/messages?num=50&last_id=123
// Messages come back newest first; pass last_id to page further back.
func (h *RoomMessagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	roomIDStr := chi.URLParam(r, "id")
	roomID, err := strconv.ParseInt(roomIDStr, 10, 64)
	if err != nil {
		utils.JSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid room id"})
		return
	}

	num := 50
	if numStr := r.URL.Query().Get("num"); numStr != "" {
		n, err := strconv.Atoi(numStr)
		if err != nil || n <= 0 || n > 100 {
			utils.JSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "num must be 1-100"})
			return
		}
		num = n
	}

	var lastID int64
	if lastIDStr := r.URL.Query().Get("last_id"); lastIDStr != "" {
		lastID, err = strconv.ParseInt(lastIDStr, 10, 64)
		if err != nil {
			utils.JSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid last_id"})
			return
		}
	}

	messages, err := h.Chat.GetMessages(r.Context(), userID, roomID, lastID, num)
	if err != nil {
		writeChatError(w, err)
		return
	}

	if len(messages) == 0 {
		utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "no history", Data: []struct{}{}})
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "messages fetched", Data: messages})
}
