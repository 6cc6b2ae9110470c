package room

import (
	"database/sql"
	"net/http"
	"time"

	"chatd/internal/middleware"
	"chatd/internal/utils"
)

type RoomListHandler struct {
	DB *sql.DB
}

type RoomSummary struct {
	ID                 int64      `json:"id"`
	Kind               string     `json:"kind"`
	Title              string     `json:"title"`
	LastMessagePreview string     `json:"last_message_preview"`
	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
	UnreadCount        int64      `json:"unread_count"`
}

// ServeHTTP handles GET /rooms — the caller's rooms, most recently active
// first, each with the latest message preview and how many messages are past
// the caller's read position.
func (h *RoomListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		utils.JSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	rows, err := h.DB.Query(`
		SELECT r.id, r.kind, r.title,
			(SELECT msg.content FROM messages msg WHERE msg.room_id = r.id ORDER BY msg.created_at DESC, msg.id DESC LIMIT 1),
			(SELECT msg.created_at FROM messages msg WHERE msg.room_id = r.id ORDER BY msg.created_at DESC, msg.id DESC LIMIT 1),
			(SELECT COUNT(*) FROM messages msg WHERE msg.room_id = r.id AND msg.id > COALESCE(m.last_read_message_id, 0))
		FROM rooms r
		JOIN room_members m ON r.id = m.room_id
		WHERE m.user_id = ?
		ORDER BY r.updated_at DESC`, userID)
	if err != nil {
		utils.JSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "DB error", Data: map[string]interface{}{"error": err.Error()}})
		return
	}
	defer rows.Close()

	var rooms []RoomSummary
	for rows.Next() {
		var s RoomSummary
		var title, preview sql.NullString
		var lastAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.Kind, &title, &preview, &lastAt, &s.UnreadCount); err != nil {
			continue
		}
		s.Title = title.String
		s.LastMessagePreview = preview.String
		if lastAt.Valid {
			t := lastAt.Time
			s.LastMessageAt = &t
		}
		rooms = append(rooms, s)
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "rooms fetched", Data: rooms})
}
