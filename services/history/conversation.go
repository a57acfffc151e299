package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// MaxMessages is how many messages a conversation keeps; older ones are dropped.
const MaxMessages = 100

const keyPrefix = "inbox:conversation:"

var (
	ErrInvalidMessage      = errors.New("invalid message")
	ErrInvalidConversation = errors.New("invalid conversation id")
	ErrCorruptHistory      = errors.New("stored conversation is not valid")
)

var validate = validator.New()

type Message struct {
	Role      string    `json:"role" validate:"required,oneof=user assistant system"`
	Content   string    `json:"content" validate:"required,max=8000"`
	CreatedAt time.Time `json:"createdAt"`
}

// Conversations reads and appends inbox messages. Appends are serialized
// within the process.
type Conversations struct {
	store Store
	mu    sync.Mutex
	now   func() time.Time
}

func NewConversations(store Store) *Conversations {
	return &Conversations{store: store, now: time.Now}
}

func conversationKey(id string) (string, error) {
	if id == "" || len(id) > 128 {
		return "", ErrInvalidConversation
	}
	return keyPrefix + id, nil
}

// Messages returns the history oldest first. Unknown conversations are empty.
func (c *Conversations) Messages(ctx context.Context, id string) ([]Message, error) {
	key, err := conversationKey(id)
	if err != nil {
		return nil, err
	}
	return c.load(ctx, key)
}

func (c *Conversations) load(ctx context.Context, key string) ([]Message, error) {
	raw, err := c.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return []Message{}, nil
	}
	if err != nil {
		return nil, err
	}

	var msgs []Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptHistory, err)
	}
	if msgs == nil {
		msgs = []Message{}
	}
	return msgs, nil
}

// Append adds m to the conversation and returns the stored history.
func (c *Conversations) Append(ctx context.Context, id string, m Message) ([]Message, error) {
	key, err := conversationKey(id)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = c.now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	msgs, err := c.load(ctx, key)
	if err != nil {
		return nil, err
	}
	msgs = append(msgs, m)
	if len(msgs) > MaxMessages {
		msgs = msgs[len(msgs)-MaxMessages:]
	}

	raw, err := json.Marshal(msgs)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, key, raw); err != nil {
		return nil, err
	}
	return msgs, nil
}
