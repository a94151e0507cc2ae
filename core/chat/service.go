package chat

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/student"
	"github.com/darasa/darasa/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("conversation not found")
	ErrNotParticipant  = errors.New("not a participant of this conversation")
	ErrNoParentAccount = errors.New("no parent account is linked to this student")
)

type (
	Repository interface {
		// GetOrCreateConversation returns the existing thread for
		// (school, student) or stores the given one.
		GetOrCreateConversation(ctx context.Context, conv Conversation) (Conversation, error)
		GetConversationByID(ctx context.Context, schoolID, id string) (Conversation, error)
		// QueryConversations lists a school's threads, most recent activity
		// first; a non-empty parentID restricts to that parent's threads.
		QueryConversations(ctx context.Context, schoolID, parentID string) ([]Conversation, error)
		TouchConversation(ctx context.Context, id string, at time.Time) error

		CreateMessage(ctx context.Context, msg Message) (Message, error)
		// QueryMessages returns a conversation's messages oldest first.
		QueryMessages(ctx context.Context, conversationID string) ([]Message, error)
		// MarkRead flags messages sent by the other side as delivered+read.
		MarkRead(ctx context.Context, conversationID, readerRole string) error
		// CountUnread tallies undelivered-to-reader messages per conversation.
		CountUnread(ctx context.Context, schoolID, parentID, readerRole string) ([]UnreadCount, error)
	}

	// Stream pushes a stored message to connected websocket clients.
	// Implementations must not block the caller.
	Stream interface {
		Publish(conversationID string, msg Message)
	}

	Service struct {
		repo     Repository
		students *student.Service
		users    *user.Service
		stream   Stream
		logger   core.Logger
	}
)

func NewService(repo Repository, students *student.Service, users *user.Service, stream Stream, logger core.Logger) *Service {
	return &Service{repo: repo, students: students, users: users, stream: stream, logger: logger}
}

// Start opens the thread for a student, or returns the existing one.
func (svc *Service) Start(ctx context.Context, schoolID, studentID, parentID string) (Conversation, error) {
	if _, err := svc.students.GetByID(ctx, schoolID, studentID); err != nil {
		return Conversation{}, errors.Wrap(err, "finding student")
	}
	now := time.Now().UTC()
	return svc.repo.GetOrCreateConversation(ctx, Conversation{
		SchoolID:  schoolID,
		StudentID: studentID,
		ParentID:  parentID,
		CreatedAt: now,
	})
}

// StartForStudent opens the thread for a student on behalf of institute
// staff, resolving the linked parent account first.
func (svc *Service) StartForStudent(ctx context.Context, schoolID, studentID string) (Conversation, error) {
	active := true
	parents, err := svc.users.Query(ctx, schoolID, &user.QueryFilter{
		Roles:    []string{user.RoleParent},
		IsActive: &active,
	})
	if err != nil {
		return Conversation{}, errors.Wrap(err, "querying parent accounts")
	}
	for _, parent := range parents {
		for _, id := range parent.StudentIDs {
			if id == studentID {
				return svc.Start(ctx, schoolID, studentID, parent.ID)
			}
		}
	}
	return Conversation{}, ErrNoParentAccount
}

func (svc *Service) GetByID(ctx context.Context, schoolID, id string) (Conversation, error) {
	return svc.repo.GetConversationByID(ctx, schoolID, id)
}

func (svc *Service) Query(ctx context.Context, schoolID, parentID string) ([]Conversation, error) {
	return svc.repo.QueryConversations(ctx, schoolID, parentID)
}

// Send stores a message and pushes it to any live websocket subscribers.
func (svc *Service) Send(ctx context.Context, conv Conversation, senderID, senderRole string, nm NewMessage) (Message, error) {
	now := time.Now().UTC()
	msg := Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		SenderRole:     senderRole,
		Body:           nm.Body,
		CreatedAt:      now,
	}
	msg, err := svc.repo.CreateMessage(ctx, msg)
	if err != nil {
		return Message{}, errors.Wrap(err, "storing message")
	}
	if err = svc.repo.TouchConversation(ctx, conv.ID, now); err != nil {
		svc.logger.Warn("bumping conversation activity", err)
	}

	if svc.stream != nil {
		svc.stream.Publish(conv.ID, msg)
	}
	return msg, nil
}

// Messages returns the thread's history and marks the other side's messages
// read on behalf of the reader.
func (svc *Service) Messages(ctx context.Context, conv Conversation, readerRole string) ([]Message, error) {
	if err := svc.repo.MarkRead(ctx, conv.ID, readerRole); err != nil {
		svc.logger.Warn("marking messages read", err)
	}
	return svc.repo.QueryMessages(ctx, conv.ID)
}

func (svc *Service) Unread(ctx context.Context, schoolID, parentID, readerRole string) ([]UnreadCount, error) {
	return svc.repo.CountUnread(ctx, schoolID, parentID, readerRole)
}

// CanAccess reports whether an account may read/write a conversation:
// institute staff always, a parent only on their own thread.
func CanAccess(usr user.User, conv Conversation) bool {
	if usr.IsAdmin() || usr.IsSuper() {
		return usr.SchoolID == conv.SchoolID || usr.IsSuper()
	}
	return usr.IsParent() && conv.ParentID == usr.ID
}

// BroadcastToParents fans an announcement out to every parent account of the
// school: each linked student's thread gets the message (threads are created
// as needed). Failures on individual threads are logged and skipped.
func (svc *Service) BroadcastToParents(ctx context.Context, schoolID, senderID string, b Broadcast) (int, error) {
	active := true
	parents, err := svc.users.Query(ctx, schoolID, &user.QueryFilter{
		Roles:    []string{user.RoleParent},
		IsActive: &active,
	})
	if err != nil {
		return 0, errors.Wrap(err, "querying parent accounts")
	}

	var sent int
	for _, parent := range parents {
		for _, studentID := range parent.StudentIDs {
			conv, err := svc.Start(ctx, schoolID, studentID, parent.ID)
			if err != nil {
				svc.logger.Warn("opening broadcast thread", errors.Wrapf(err, "student %s", studentID))
				continue
			}
			if _, err = svc.Send(ctx, conv, senderID, SenderAdmin, NewMessage{Body: b.Body}); err != nil {
				svc.logger.Warn("sending broadcast message", errors.Wrapf(err, "conversation %s", conv.ID))
				continue
			}
			sent++
		}
	}
	return sent, nil
}
