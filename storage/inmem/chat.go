package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/darasa/darasa/core/chat"
)

type ChatRepo struct {
	mu            sync.RWMutex
	conversations map[string]chat.Conversation
	messages      map[string][]chat.Message // by conversation ID, append order
}

var _ chat.Repository = (*ChatRepo)(nil)

func NewChatRepo() *ChatRepo {
	return &ChatRepo{
		conversations: make(map[string]chat.Conversation),
		messages:      make(map[string][]chat.Message),
	}
}

func (r *ChatRepo) GetOrCreateConversation(ctx context.Context, conv chat.Conversation) (chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.conversations {
		if c.SchoolID == conv.SchoolID && c.StudentID == conv.StudentID {
			return c, nil
		}
	}
	if conv.ID == "" {
		conv.ID = newID()
	}
	r.conversations[conv.ID] = conv
	return conv, nil
}

func (r *ChatRepo) GetConversationByID(ctx context.Context, schoolID, id string) (chat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.conversations[id]
	if !ok || conv.SchoolID != schoolID {
		return chat.Conversation{}, chat.ErrNotFound
	}
	return conv, nil
}

func (r *ChatRepo) QueryConversations(ctx context.Context, schoolID, parentID string) ([]chat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var convs []chat.Conversation
	for _, c := range r.conversations {
		if c.SchoolID != schoolID {
			continue
		}
		if parentID != "" && c.ParentID != parentID {
			continue
		}
		convs = append(convs, c)
	}
	sort.Slice(convs, func(i, j int) bool { return convs[i].LastMessageAt.After(convs[j].LastMessageAt) })
	return convs, nil
}

func (r *ChatRepo) TouchConversation(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[id]
	if !ok {
		return chat.ErrNotFound
	}
	conv.LastMessageAt = at
	r.conversations[id] = conv
	return nil
}

func (r *ChatRepo) CreateMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID == "" {
		msg.ID = newID()
	}
	r.messages[msg.ConversationID] = append(r.messages[msg.ConversationID], msg)
	return msg, nil
}

func (r *ChatRepo) QueryMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := make([]chat.Message, len(r.messages[conversationID]))
	copy(msgs, r.messages[conversationID])
	return msgs, nil
}

func (r *ChatRepo) MarkRead(ctx context.Context, conversationID, readerRole string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := r.messages[conversationID]
	for i, msg := range msgs {
		if msg.SenderRole != readerRole {
			msg.IsDelivered = true
			msg.IsRead = true
			msgs[i] = msg
		}
	}
	return nil
}

func (r *ChatRepo) CountUnread(ctx context.Context, schoolID, parentID, readerRole string) ([]chat.UnreadCount, error) {
	convs, err := r.QueryConversations(ctx, schoolID, parentID)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var counts []chat.UnreadCount
	for _, conv := range convs {
		var n int
		for _, msg := range r.messages[conv.ID] {
			if msg.SenderRole != readerRole && !msg.IsRead {
				n++
			}
		}
		if n > 0 {
			counts = append(counts, chat.UnreadCount{ConversationID: conv.ID, Count: n})
		}
	}
	return counts, nil
}
