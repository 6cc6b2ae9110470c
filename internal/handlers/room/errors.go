package room

import (
	"errors"
	"net/http"

	"chatd/internal/chat"
	"chatd/internal/utils"
)

// writeChatError maps core errors onto HTTP statuses inside the standard
// response envelope.
func writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrRoomNotFound), errors.Is(err, chat.ErrUserNotFound):
		utils.JSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: err.Error()})
	case errors.Is(err, chat.ErrNotAMember):
		utils.JSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: err.Error()})
	case errors.Is(err, chat.ErrEmptyContent), errors.Is(err, chat.ErrInvalidRead):
		utils.JSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: err.Error()})
	case errors.Is(err, chat.ErrBusy):
		// Retryable by the caller.
		utils.JSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: err.Error()})
	default:
		utils.JSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "internal error", Data: map[string]interface{}{"error": err.Error()}})
	}
}
