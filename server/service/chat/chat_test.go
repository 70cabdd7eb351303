package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quillchat/quill/internal/profile"
	"github.com/quillchat/quill/plugin/llm"
	"github.com/quillchat/quill/store"
)

// fakeSessionStore is an in-memory SessionStore that can be told to fail.
type fakeSessionStore struct {
	sessions  map[string]*store.ChatSession
	saveErr   error
	saveCount int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]*store.ChatSession{}}
}

func (f *fakeSessionStore) GetOrCreateChatSession(_ context.Context, uid string) (*store.ChatSession, error) {
	if session, ok := f.sessions[uid]; ok {
		return session, nil
	}
	session := &store.ChatSession{
		UID:       uid,
		Messages:  []store.Message{},
		CreatedTs: time.Now().Unix(),
	}
	f.sessions[uid] = session
	return session, nil
}

func (f *fakeSessionStore) UpsertChatSession(_ context.Context, upsert *store.ChatSession) (*store.ChatSession, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saveCount++
	copied := *upsert
	f.sessions[upsert.UID] = &copied
	return &copied, nil
}

func (f *fakeSessionStore) ListChatSessions(_ context.Context, _ *store.FindChatSession) ([]*store.ChatSession, error) {
	list := make([]*store.ChatSession, 0, len(f.sessions))
	for _, session := range f.sessions {
		list = append(list, session)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedTs > list[j].CreatedTs })
	return list, nil
}

func testProfile() *profile.Profile {
	return &profile.Profile{ContextLimit: 8000, Streaming: true}
}

func TestProcessTurnNewChat(t *testing.T) {
	ctx := context.Background()
	sessionStore := newFakeSessionStore()
	svc := NewService(sessionStore, &llm.MockService{Chunks: []string{"hello!"}}, testProfile())

	session, err := svc.ProcessTurn(ctx, "s1", "hi", nil)
	require.NoError(t, err)

	require.Len(t, session.Messages, 2)
	require.Equal(t, store.MessageRoleUser, session.Messages[0].Role)
	require.Equal(t, "hi", session.Messages[0].Content)
	require.Equal(t, store.MessageRoleAssistant, session.Messages[1].Role)
	require.Equal(t, "hello!", session.Messages[1].Content)
	require.Equal(t, "hi", session.Name)

	saved := sessionStore.sessions["s1"]
	require.Len(t, saved.Messages, 2)
}

func TestProcessTurnFailedGeneration(t *testing.T) {
	ctx := context.Background()
	sessionStore := newFakeSessionStore()
	svc := NewService(sessionStore, &llm.MockService{Err: errors.New("rate limited")}, testProfile())

	session, err := svc.ProcessTurn(ctx, "s1", "hi", nil)
	require.NoError(t, err)

	// The turn still advances by exactly one user and one assistant message.
	require.Len(t, session.Messages, 2)
	require.Contains(t, session.Messages[1].Content, "rate limited")
	require.Contains(t, session.Messages[1].Content, "⚠️ Error:")

	saved := sessionStore.sessions["s1"]
	require.Len(t, saved.Messages, 2)
}

func TestProcessTurnSymmetryAcrossTurns(t *testing.T) {
	ctx := context.Background()
	sessionStore := newFakeSessionStore()
	mock := &llm.MockService{Chunks: []string{"ok"}}
	svc := NewService(sessionStore, mock, testProfile())

	for i := 1; i <= 3; i++ {
		session, err := svc.ProcessTurn(ctx, "s1", "message", nil)
		require.NoError(t, err)
		require.Len(t, session.Messages, i*2)
	}
}

func TestProcessTurnStreamsDeltas(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeSessionStore(), &llm.MockService{Chunks: []string{"he", "llo", "!"}}, testProfile())

	var deltas []string
	session, err := svc.ProcessTurn(ctx, "s1", "hi", func(chunk string) {
		deltas = append(deltas, chunk)
	})
	require.NoError(t, err)
	require.Equal(t, []string{"he", "llo", "!"}, deltas)
	require.Equal(t, "hello!", session.Messages[1].Content)
}

func TestProcessTurnBlockingMode(t *testing.T) {
	ctx := context.Background()
	p := testProfile()
	p.Streaming = false
	svc := NewService(newFakeSessionStore(), &llm.MockService{Chunks: []string{"hello!"}}, p)

	var deltas []string
	session, err := svc.ProcessTurn(ctx, "s1", "hi", func(chunk string) {
		deltas = append(deltas, chunk)
	})
	require.NoError(t, err)
	// A blocking completion arrives as a single chunk.
	require.Equal(t, []string{"hello!"}, deltas)
	require.Equal(t, "hello!", session.Messages[1].Content)
}

func TestProcessTurnIncludesContextInPrompt(t *testing.T) {
	ctx := context.Background()
	sessionStore := newFakeSessionStore()
	existing, err := sessionStore.GetOrCreateChatSession(ctx, "s1")
	require.NoError(t, err)
	existing.Context = "uploaded document text"

	mock := &llm.MockService{Chunks: []string{"ok"}}
	svc := NewService(sessionStore, mock, testProfile())

	_, err = svc.ProcessTurn(ctx, "s1", "what does the doc say?", nil)
	require.NoError(t, err)

	require.Len(t, mock.Prompts, 1)
	require.Contains(t, mock.Prompts[0], "uploaded document text")
	require.Contains(t, mock.Prompts[0], "User: what does the doc say?")
	require.True(t, strings.HasSuffix(mock.Prompts[0], "Assistant:"))
}

func TestProcessTurnPersistenceFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	sessionStore := newFakeSessionStore()
	sessionStore.saveErr = errors.New("disk full")
	svc := NewService(sessionStore, &llm.MockService{Chunks: []string{"ok"}}, testProfile())

	session, err := svc.ProcessTurn(ctx, "s1", "hi", nil)
	require.NoError(t, err)
	require.Len(t, session.Messages, 2)
}

func TestProcessTurnWithoutStore(t *testing.T) {
	ctx := context.Background()
	svc := NewService(nil, &llm.MockService{Chunks: []string{"ok"}}, testProfile())

	session, err := svc.ProcessTurn(ctx, "s1", "first", nil)
	require.NoError(t, err)
	require.Len(t, session.Messages, 2)

	// The in-memory session survives across turns.
	session, err = svc.ProcessTurn(ctx, "s1", "second", nil)
	require.NoError(t, err)
	require.Len(t, session.Messages, 4)
}

func TestListSessionsSearch(t *testing.T) {
	ctx := context.Background()
	sessionStore := newFakeSessionStore()
	sessionStore.sessions["s1"] = &store.ChatSession{UID: "s1", Name: "Trip planning", CreatedTs: 200}
	sessionStore.sessions["s2"] = &store.ChatSession{UID: "s2", Name: "Recipe ideas", CreatedTs: 100}
	svc := NewService(sessionStore, &llm.MockService{}, testProfile())

	all, err := svc.ListSessions(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "s1", all[0].UID)

	// Case-insensitive substring match on the label.
	found, err := svc.ListSessions(ctx, "tRiP")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "s1", found[0].UID)
	require.Contains(t, found[0].Label, "Trip planning")

	none, err := svc.ListSessions(ctx, "gardening")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestTranscript(t *testing.T) {
	session := &store.ChatSession{
		Messages: []store.Message{
			{Role: store.MessageRoleUser, Content: "hi"},
			{Role: store.MessageRoleAssistant, Content: "hello!"},
		},
	}
	require.Equal(t, "User: hi\nAssistant: hello!", Transcript(session))
}
