package chat

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasa/darasa/core"
)

// Sender roles on a message
const (
	SenderParent = "parent"
	SenderAdmin  = "admin"
)

type (
	// Conversation is the single thread between a student's parent and the
	// institute. One per (school, student); creation is idempotent.
	Conversation struct {
		ID            string    `json:"id"`
		SchoolID      string    `json:"school_id"`
		StudentID     string    `json:"student_id"`
		ParentID      string    `json:"parent_id"` // parent account
		CreatedAt     time.Time `json:"created_at"`
		LastMessageAt time.Time `json:"last_message_at"`
	}

	Message struct {
		ID             string    `json:"id"`
		ConversationID string    `json:"conversation_id"`
		SenderID       string    `json:"sender_id"`
		SenderRole     string    `json:"sender_role"` // parent | admin
		Body           string    `json:"body"`
		IsDelivered    bool      `json:"is_delivered"`
		IsRead         bool      `json:"is_read"`
		CreatedAt      time.Time `json:"created_at"` // UTC
	}
)

// NewMessage is the payload for sending a message into a conversation.
type NewMessage struct {
	Body string `json:"body" validate:"required,max=2000"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Body = core.CleanString(nm.Body)
	return validate.Struct(nm)
}

// NewConversation opens (or finds) the thread for a student.
type NewConversation struct {
	StudentID string `json:"student_id" validate:"required"`
}

func (nc *NewConversation) Validate(validate *validator.Validate) error {
	nc.StudentID = core.CleanString(nc.StudentID)
	return validate.Struct(nc)
}

// Broadcast is an announcement from the institute to every parent.
type Broadcast struct {
	Body string `json:"body" validate:"required,max=2000"`
}

func (b *Broadcast) Validate(validate *validator.Validate) error {
	b.Body = core.CleanString(b.Body)
	return validate.Struct(b)
}

// UnreadCount reports pending messages per conversation for one side.
type UnreadCount struct {
	ConversationID string `json:"conversation_id"`
	Count          int    `json:"count"`
}
