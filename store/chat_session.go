package store

import (
	"fmt"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// MessageRole is the author of a chat message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// DisplayName returns the capitalized role used in transcripts and prompts.
func (r MessageRole) DisplayName() string {
	switch r {
	case MessageRoleUser:
		return "User"
	case MessageRoleAssistant:
		return "Assistant"
	}
	return string(r)
}

// Message is one turn entry. Messages are immutable once created; a session
// only ever appends them, and their order is replayed verbatim into prompts.
type Message struct {
	UID     string      `json:"uid"`
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// ChatSession is the unit of persistence: one conversation with its ordered
// messages, optional display name, and the context blob extracted from
// uploaded documents.
type ChatSession struct {
	ID        int32
	UID       string
	Name      string
	Messages  []Message
	Context   string
	CreatedTs int64
	UpdatedTs int64
}

type FindChatSession struct {
	ID  *int32
	UID *string
}

type UpdateChatSession struct {
	UID       string
	Name      *string
	UpdatedTs *int64
}

type DeleteChatSession struct {
	UID string
}

// NewChatSessionUID generates an opaque session identifier.
func NewChatSessionUID() string {
	return shortuuid.New()
}

const (
	// autoNameLimit is the maximum length of a name derived from the first
	// user message.
	autoNameLimit    = 30
	autoNameEllipsis = "…"
)

// DeriveName returns the display name for a session without an explicit one:
// the first user message truncated to 30 characters with an ellipsis marker,
// or a timestamped placeholder when no user message exists yet.
func (s *ChatSession) DeriveName() string {
	if s.Name != "" {
		return s.Name
	}
	for _, m := range s.Messages {
		if m.Role != MessageRoleUser {
			continue
		}
		runes := []rune(m.Content)
		if len(runes) > autoNameLimit {
			return string(runes[:autoNameLimit]) + autoNameEllipsis
		}
		return m.Content
	}
	return fmt.Sprintf("New chat %s", time.Unix(s.CreatedTs, 0).Format("2006-01-02 15:04"))
}
