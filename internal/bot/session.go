package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Stage identifies where a chat is inside a multi-step flow. The core domain
// holds no conversational state; it all lives here, keyed by chat id.
type Stage string

const (
	StageNone          Stage = ""
	StageTicketTitle   Stage = "ticket_title"
	StageTicketMessage Stage = "ticket_message"
	StageReply         Stage = "reply"
)

// Session is the per-chat conversational state for multi-step flows.
type Session struct {
	Stage    Stage  `json:"stage"`
	TicketID int64  `json:"ticket_id,omitempty"`
	Title    string `json:"title,omitempty"`
}

// SessionStore keeps chat sessions in Redis with a bounded lifetime, so an
// abandoned flow expires on its own.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a store.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("session:%d", chatID)
}

// Get returns the session for a chat, or an empty one when none exists.
func (s *SessionStore) Get(ctx context.Context, chatID int64) (Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(chatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, nil
		}
		return Session{}, err
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// Set stores the session, refreshing its TTL.
func (s *SessionStore) Set(ctx context.Context, chatID int64, session Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(chatID), raw, s.ttl).Err()
}

// Clear removes the session.
func (s *SessionStore) Clear(ctx context.Context, chatID int64) error {
	return s.client.Del(ctx, sessionKey(chatID)).Err()
}
