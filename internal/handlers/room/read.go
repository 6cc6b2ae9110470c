package room

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"chatd/internal/chat"
	"chatd/internal/middleware"
	"chatd/internal/utils"
)

type ReadUpToRequest struct {
	LastReadMessageID int64 `json:"last_read_message_id"`
}

type ReadUpToHandler struct {
	Chat *chat.Service
}

// ServeHTTP handles POST /rooms/{id}/read
// Multiple devices may report positions out of order; a position behind the
// stored one is accepted and ignored.
func (h *ReadUpToHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	var req ReadUpToRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "invalid request"})
		return
	}

	if err := h.Chat.ReadUpTo(r.Context(), userID, roomID, req.LastReadMessageID); err != nil {
		writeChatError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "read position updated"})
}
