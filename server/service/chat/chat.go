// Package chat orchestrates conversation turns: it appends the user message,
// assembles the outbound prompt, consumes the generation stream, records the
// assistant reply, and persists the session.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quillchat/quill/internal/profile"
	"github.com/quillchat/quill/plugin/llm"
	"github.com/quillchat/quill/store"
)

// generationErrorPrefix marks inline assistant-role error messages, matching
// what the browser UI renders for a failed turn.
const generationErrorPrefix = "⚠️ Error: "

// SessionStore is the slice of the store the chat service needs. A nil
// SessionStore disables persistence; the service then keeps sessions in
// process memory only.
type SessionStore interface {
	GetOrCreateChatSession(ctx context.Context, uid string) (*store.ChatSession, error)
	UpsertChatSession(ctx context.Context, upsert *store.ChatSession) (*store.ChatSession, error)
	ListChatSessions(ctx context.Context, find *store.FindChatSession) ([]*store.ChatSession, error)
}

// Service is the chat controller.
type Service struct {
	store    SessionStore
	llm      llm.Service
	preamble string
	limit    int
	stream   bool

	// In-memory sessions, used only when persistence is disabled.
	mu     sync.Mutex
	memory map[string]*store.ChatSession
}

// NewService creates the chat controller. sessionStore may be nil to run
// without persistence.
func NewService(sessionStore SessionStore, llmService llm.Service, p *profile.Profile) *Service {
	limit := profile.DefaultContextLimit
	streaming := true
	if p != nil {
		if p.ContextLimit > 0 {
			limit = p.ContextLimit
		}
		streaming = p.Streaming
	}
	return &Service{
		store:    sessionStore,
		llm:      llmService,
		preamble: DefaultPreamble,
		limit:    limit,
		stream:   streaming,
		memory:   map[string]*store.ChatSession{},
	}
}

// ProcessTurn runs one complete turn for the given session. onDelta, when
// non-nil, receives assistant content increments as they arrive.
//
// A turn always advances the session by exactly one user and one assistant
// message: a generation failure is recorded as an inline assistant-role error
// message, never as an aborted turn. A persistence failure degrades to
// in-memory-only for that turn.
func (s *Service) ProcessTurn(ctx context.Context, sessionUID string, text string, onDelta func(string)) (*store.ChatSession, error) {
	session, err := s.loadOrCreate(ctx, sessionUID)
	if err != nil {
		return nil, err
	}

	session.Messages = append(session.Messages, store.Message{
		UID:     uuid.NewString(),
		Role:    store.MessageRoleUser,
		Content: text,
	})

	prompt := Assemble(s.preamble, session.Messages, session.Context, s.limit)
	reply := s.generate(ctx, prompt, onDelta)

	session.Messages = append(session.Messages, store.Message{
		UID:     uuid.NewString(),
		Role:    store.MessageRoleAssistant,
		Content: reply,
	})
	if session.Name == "" {
		session.Name = session.DeriveName()
	}

	s.save(ctx, session)
	return session, nil
}

// generate consumes the generation collaborator and returns the full reply
// text. On failure the returned text embeds the failure reason after any
// partial content already streamed.
func (s *Service) generate(ctx context.Context, prompt string, onDelta func(string)) string {
	emit := func(chunk string) {
		if onDelta != nil {
			onDelta(chunk)
		}
	}

	var b strings.Builder
	var genErr error
	if s.stream {
		contentChan, errChan := s.llm.Stream(ctx, prompt)
		for chunk := range contentChan {
			b.WriteString(chunk)
			emit(chunk)
		}
		genErr = <-errChan
	} else {
		// A blocking completion is a chunk sequence of length one.
		var reply string
		reply, genErr = s.llm.Complete(ctx, prompt)
		if genErr == nil {
			b.WriteString(reply)
			emit(reply)
		}
	}

	if genErr != nil {
		slog.Warn("generation failed", slog.String("error", genErr.Error()))
		errText := generationErrorPrefix + genErr.Error()
		if b.Len() > 0 {
			errText = "\n" + errText
		}
		b.WriteString(errText)
		emit(errText)
	}
	return b.String()
}

func (s *Service) loadOrCreate(ctx context.Context, uid string) (*store.ChatSession, error) {
	if s.store == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if session, ok := s.memory[uid]; ok {
			return session, nil
		}
		session := &store.ChatSession{
			UID:       uid,
			Messages:  []store.Message{},
			CreatedTs: time.Now().Unix(),
		}
		s.memory[uid] = session
		return session, nil
	}
	return s.store.GetOrCreateChatSession(ctx, uid)
}

// save persists the session. A store failure is non-fatal: the turn already
// completed in memory and the failure is only logged.
func (s *Service) save(ctx context.Context, session *store.ChatSession) {
	session.UpdatedTs = time.Now().Unix()
	if s.store == nil {
		return
	}
	if _, err := s.store.UpsertChatSession(ctx, session); err != nil {
		slog.Warn("failed to persist chat session",
			slog.String("session", session.UID),
			slog.String("error", err.Error()))
	}
}

// SessionSummary is one list entry: the session UID and its display label.
type SessionSummary struct {
	UID       string `json:"uid"`
	Label     string `json:"label"`
	UpdatedTs int64  `json:"updatedTs"`
}

// ListSessions returns summaries most-recently-created first. search, when
// non-empty, is a case-insensitive substring match on the label, applied
// after the full listing.
func (s *Service) ListSessions(ctx context.Context, search string) ([]SessionSummary, error) {
	var sessions []*store.ChatSession
	if s.store != nil {
		var err error
		sessions, err = s.store.ListChatSessions(ctx, &store.FindChatSession{})
		if err != nil {
			return nil, err
		}
	} else {
		s.mu.Lock()
		for _, session := range s.memory {
			sessions = append(sessions, session)
		}
		s.mu.Unlock()
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].CreatedTs > sessions[j].CreatedTs
		})
	}

	search = strings.ToLower(search)
	summaries := []SessionSummary{}
	for _, session := range sessions {
		label := fmt.Sprintf("%s (%s)",
			session.DeriveName(),
			time.Unix(session.CreatedTs, 0).Format("2006-01-02 15:04"))
		if search != "" && !strings.Contains(strings.ToLower(label), search) {
			continue
		}
		summaries = append(summaries, SessionSummary{
			UID:       session.UID,
			Label:     label,
			UpdatedTs: session.UpdatedTs,
		})
	}
	return summaries, nil
}
