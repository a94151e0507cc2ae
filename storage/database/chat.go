package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/darasa/darasa/core/chat"
)

type ChatRepo struct {
	db *sqlx.DB
}

var _ chat.Repository = (*ChatRepo)(nil)

func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

const conversationColumns = `
	id, school_id, student_id, parent_id, created_at, last_message_at`

func (repo *ChatRepo) scanConversation(row sqlx.ColScanner) (chat.Conversation, error) {
	var (
		conv    chat.Conversation
		lastMsg sql.NullTime
	)
	err := row.Scan(&conv.ID, &conv.SchoolID, &conv.StudentID, &conv.ParentID, &conv.CreatedAt, &lastMsg)
	if err != nil {
		return chat.Conversation{}, err
	}
	conv.LastMessageAt = fromNullTime(lastMsg)
	return conv, nil
}

func (repo *ChatRepo) GetOrCreateConversation(ctx context.Context, conv chat.Conversation) (chat.Conversation, error) {
	// race-safe upsert on the (school, student) uniqueness
	query := `
		INSERT INTO conversation (school_id, student_id, parent_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (school_id, student_id) DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, query, conv.SchoolID, conv.StudentID, conv.ParentID, conv.CreatedAt); err != nil {
		return chat.Conversation{}, errors.Wrap(err, "inserting conversation")
	}

	row := repo.db.QueryRowxContext(ctx,
		`SELECT `+conversationColumns+` FROM conversation WHERE school_id = $1 AND student_id = $2`,
		conv.SchoolID, conv.StudentID)
	return repo.scanConversation(row)
}

func (repo *ChatRepo) GetConversationByID(ctx context.Context, schoolID, id string) (chat.Conversation, error) {
	row := repo.db.QueryRowxContext(ctx,
		`SELECT `+conversationColumns+` FROM conversation WHERE school_id = $1 AND id = $2`, schoolID, id)
	conv, err := repo.scanConversation(row)
	if err == sql.ErrNoRows {
		return chat.Conversation{}, chat.ErrNotFound
	}
	return conv, err
}

func (repo *ChatRepo) QueryConversations(ctx context.Context, schoolID, parentID string) ([]chat.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversation WHERE school_id = $1`
	args := []interface{}{schoolID}
	if parentID != "" {
		args = append(args, parentID)
		query += ` AND parent_id = $2`
	}
	query += ` ORDER BY last_message_at DESC NULLS LAST, created_at DESC`

	rows, err := repo.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []chat.Conversation
	for rows.Next() {
		conv, err := repo.scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (repo *ChatRepo) TouchConversation(ctx context.Context, id string, at time.Time) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE conversation SET last_message_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return errors.Wrap(err, "bumping conversation")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return chat.ErrNotFound
	}
	return nil
}

func (repo *ChatRepo) CreateMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	query := `
		INSERT INTO message
		(conversation_id, sender_id, sender_role, body, is_delivered, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		msg.ConversationID, uuidOrNull(msg.SenderID), msg.SenderRole, msg.Body,
		msg.IsDelivered, msg.IsRead, msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		return chat.Message{}, errors.Wrap(err, "inserting message")
	}
	return msg, nil
}

func (repo *ChatRepo) QueryMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, sender_role, body, is_delivered, is_read, created_at
		FROM message
		WHERE conversation_id = $1
		ORDER BY created_at`
	rows, err := repo.db.QueryxContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var (
			msg      chat.Message
			senderID sql.NullString
		)
		err = rows.Scan(&msg.ID, &msg.ConversationID, &senderID, &msg.SenderRole,
			&msg.Body, &msg.IsDelivered, &msg.IsRead, &msg.CreatedAt)
		if err != nil {
			return nil, err
		}
		msg.SenderID = fromNullStr(senderID)
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func (repo *ChatRepo) MarkRead(ctx context.Context, conversationID, readerRole string) error {
	query := `
		UPDATE message SET is_delivered = TRUE, is_read = TRUE
		WHERE conversation_id = $1 AND sender_role <> $2 AND NOT is_read`
	_, err := repo.db.ExecContext(ctx, query, conversationID, readerRole)
	return errors.Wrap(err, "marking messages read")
}

func (repo *ChatRepo) CountUnread(ctx context.Context, schoolID, parentID, readerRole string) ([]chat.UnreadCount, error) {
	query := `
		SELECT m.conversation_id, COUNT(*)
		FROM message m
		JOIN conversation c ON m.conversation_id = c.id
		WHERE c.school_id = $1 AND m.sender_role <> $2 AND NOT m.is_read`
	args := []interface{}{schoolID, readerRole}
	if parentID != "" {
		args = append(args, parentID)
		query += ` AND c.parent_id = $3`
	}
	query += ` GROUP BY m.conversation_id`

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []chat.UnreadCount
	for rows.Next() {
		var uc chat.UnreadCount
		if err = rows.Scan(&uc.ConversationID, &uc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, uc)
	}
	return counts, rows.Err()
}
