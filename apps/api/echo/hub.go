package echoapi

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/chat"
)

const (
	hubWriteWait  = 10 * time.Second
	hubSendBuffer = 16
)

type hubClient struct {
	conn *websocket.Conn
	send chan chat.Message
}

// Hub keeps the live websocket subscribers of each conversation and fans
// stored messages out to them. It implements chat.Stream.
type Hub struct {
	logger core.Logger

	mut  sync.RWMutex
	subs map[string]map[*hubClient]struct{} // conversation ID -> clients
}

var _ chat.Stream = (*Hub)(nil)

func NewHub(logger core.Logger) *Hub {
	return &Hub{
		logger: logger,
		subs:   make(map[string]map[*hubClient]struct{}),
	}
}

// Publish pushes a message to every client watching the conversation.
// Clients whose buffer is full are skipped; they catch up on the next fetch.
func (h *Hub) Publish(conversationID string, msg chat.Message) {
	h.mut.RLock()
	defer h.mut.RUnlock()

	for client := range h.subs[conversationID] {
		select {
		case client.send <- msg:
		default:
			h.logger.Warn("dropping message for slow websocket client", conversationID)
		}
	}
}

// Serve pumps messages to one connection until the client disconnects.
// It blocks; callers run it from the websocket handler goroutine.
func (h *Hub) Serve(conversationID string, conn *websocket.Conn) {
	client := &hubClient{conn: conn, send: make(chan chat.Message, hubSendBuffer)}
	h.add(conversationID, client)
	defer func() {
		h.remove(conversationID, client)
		conn.Close()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// drain reads so pings/close frames are processed
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg := <-client.send:
			conn.SetWriteDeadline(time.Now().Add(hubWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Hub) add(conversationID string, client *hubClient) {
	h.mut.Lock()
	defer h.mut.Unlock()

	if h.subs[conversationID] == nil {
		h.subs[conversationID] = make(map[*hubClient]struct{})
	}
	h.subs[conversationID][client] = struct{}{}
}

func (h *Hub) remove(conversationID string, client *hubClient) {
	h.mut.Lock()
	defer h.mut.Unlock()

	delete(h.subs[conversationID], client)
	if len(h.subs[conversationID]) == 0 {
		delete(h.subs, conversationID)
	}
}
