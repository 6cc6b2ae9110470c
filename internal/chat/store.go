package chat

import (
	"context"
	"database/sql"
	"time"

	"chatd/internal/models"
)

// Store is the durable-store boundary the core depends on. Backed by MySQL in
// production; faked in tests.
type Store interface {
	GetRoom(ctx context.Context, roomID int64) (*models.Room, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	// GetMembership returns (nil, nil) when the pair has no membership.
	GetMembership(ctx context.Context, userID, roomID int64) (*models.Membership, error)
	// InsertMessage persists a message atomically with a server-assigned id
	// and timestamp from a single clock read.
	InsertMessage(ctx context.Context, roomID, senderID int64, contentType, content string) (*models.Message, error)
	// CompareAndSetReadPosition advances the read position iff the row still
	// has expectedVersion. Returns false on a version race.
	CompareAndSetReadPosition(ctx context.Context, membershipID, messageID, expectedVersion int64) (bool, error)
	// ListMessages returns up to limit messages, newest first. beforeID 0
	// starts at the newest.
	ListMessages(ctx context.Context, roomID, beforeID int64, limit int) ([]models.Message, error)
	RoomMemberIDs(ctx context.Context, roomID int64) ([]int64, error)
}

// SQLStore implements Store over database/sql.
type SQLStore struct {
	DB *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db}
}

func (s *SQLStore) GetRoom(ctx context.Context, roomID int64) (*models.Room, error) {
	var r models.Room
	var title sql.NullString
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, kind, title, created_by, created_at, updated_at FROM rooms WHERE id = ?`,
		roomID,
	).Scan(&r.ID, &r.Kind, &title, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRoomNotFound
	} else if err != nil {
		return nil, err
	}
	r.Title = title.String
	return &r, nil
}

func (s *SQLStore) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var u models.User
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, name, email, created_at, updated_at FROM users WHERE id = ?`,
		userID,
	).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLStore) GetMembership(ctx context.Context, userID, roomID int64) (*models.Membership, error) {
	var m models.Membership
	var lastRead sql.NullInt64
	var lastReadAt sql.NullTime
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, room_id, user_id, last_read_message_id, last_read_at, version, created_at, updated_at
		 FROM room_members WHERE user_id = ? AND room_id = ?`,
		userID, roomID,
	).Scan(&m.ID, &m.RoomID, &m.UserID, &lastRead, &lastReadAt, &m.Version, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	if lastRead.Valid {
		m.LastReadMessageID = &lastRead.Int64
	}
	if lastReadAt.Valid {
		t := lastReadAt.Time
		m.LastReadAt = &t
	}
	return &m, nil
}

// InsertMessage runs in one transaction: insert with NOW(3) for both time
// columns, then read the row back so the returned message carries the
// server-assigned id and timestamp. The message is visible to readers only
// after the commit.
func (s *SQLStore) InsertMessage(ctx context.Context, roomID, senderID int64, contentType, content string) (*models.Message, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO messages (room_id, sender_id, content_type, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, NOW(3), NOW(3))`,
		roomID, senderID, contentType, content,
	)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	var createdAt time.Time
	if err := tx.QueryRowContext(ctx,
		`SELECT created_at FROM messages WHERE id = ?`, id,
	).Scan(&createdAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.Message{
		ID:          id,
		RoomID:      roomID,
		SenderID:    senderID,
		ContentType: contentType,
		Content:     content,
		Timestamps:  models.NewTimestamps(createdAt),
	}, nil
}

func (s *SQLStore) CompareAndSetReadPosition(ctx context.Context, membershipID, messageID, expectedVersion int64) (bool, error) {
	result, err := s.DB.ExecContext(ctx,
		`UPDATE room_members
		 SET last_read_message_id = ?, last_read_at = NOW(3), version = version + 1, updated_at = NOW(3)
		 WHERE id = ? AND version = ?`,
		messageID, membershipID, expectedVersion,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLStore) ListMessages(ctx context.Context, roomID, beforeID int64, limit int) ([]models.Message, error) {
	var rows *sql.Rows
	var err error
	if beforeID > 0 {
		rows, err = s.DB.QueryContext(ctx,
			`SELECT id, room_id, sender_id, content_type, content, created_at, updated_at
			 FROM messages WHERE room_id = ? AND id < ?
			 ORDER BY created_at DESC, id DESC LIMIT ?`,
			roomID, beforeID, limit,
		)
	} else {
		rows, err = s.DB.QueryContext(ctx,
			`SELECT id, room_id, sender_id, content_type, content, created_at, updated_at
			 FROM messages WHERE room_id = ?
			 ORDER BY created_at DESC, id DESC LIMIT ?`,
			roomID, limit,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.ContentType, &m.Content, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) RoomMemberIDs(ctx context.Context, roomID int64) ([]int64, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT user_id FROM room_members WHERE room_id = ?`, roomID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
