package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quillchat/quill/internal/profile"
	"github.com/quillchat/quill/store"
	"github.com/quillchat/quill/store/db/sqlite"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "quill_test.db"),
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)

	s := store.New(driver, p)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestChatSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	session := &store.ChatSession{
		UID:  store.NewChatSessionUID(),
		Name: "Trip planning",
		Messages: []store.Message{
			{UID: "m1", Role: store.MessageRoleUser, Content: "where should I go?"},
			{UID: "m2", Role: store.MessageRoleAssistant, Content: "somewhere warm"},
			{UID: "m3", Role: store.MessageRoleUser, Content: "with mountains"},
		},
		Context: "brochure text",
	}
	saved, err := s.UpsertChatSession(ctx, session)
	require.NoError(t, err)
	require.NotZero(t, saved.ID)

	loaded, err := s.GetChatSession(ctx, &store.FindChatSession{UID: &session.UID})
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, session.Messages, loaded.Messages)
	require.Equal(t, "Trip planning", loaded.Name)
	require.Equal(t, "brochure text", loaded.Context)
}

func TestUpsertChatSessionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	session := &store.ChatSession{
		UID: store.NewChatSessionUID(),
		Messages: []store.Message{
			{UID: "m1", Role: store.MessageRoleUser, Content: "hi"},
		},
	}
	_, err := s.UpsertChatSession(ctx, session)
	require.NoError(t, err)
	_, err = s.UpsertChatSession(ctx, session)
	require.NoError(t, err)

	list, err := s.ListChatSessions(ctx, &store.FindChatSession{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, session.Messages, list[0].Messages)
}

func TestUpsertChatSessionOverwritesInFull(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	uid := store.NewChatSessionUID()
	first := &store.ChatSession{
		UID:      uid,
		Messages: []store.Message{{UID: "m1", Role: store.MessageRoleUser, Content: "hi"}},
		Context:  "old context",
	}
	_, err := s.UpsertChatSession(ctx, first)
	require.NoError(t, err)

	second := &store.ChatSession{
		UID: uid,
		Messages: []store.Message{
			{UID: "m1", Role: store.MessageRoleUser, Content: "hi"},
			{UID: "m2", Role: store.MessageRoleAssistant, Content: "hello!"},
		},
		Context: "new context",
	}
	_, err = s.UpsertChatSession(ctx, second)
	require.NoError(t, err)

	loaded, err := s.GetChatSession(ctx, &store.FindChatSession{UID: &uid})
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 2)
	require.Equal(t, "new context", loaded.Context)
}

func TestUpsertChatSessionDoesNotMutateInput(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	input := &store.ChatSession{
		UID:      store.NewChatSessionUID(),
		Messages: []store.Message{{UID: "m1", Role: store.MessageRoleUser, Content: "hi"}},
	}
	saved, err := s.UpsertChatSession(ctx, input)
	require.NoError(t, err)

	// Timestamps land on the returned session, not on the caller's struct.
	require.Zero(t, input.CreatedTs)
	require.Zero(t, input.UpdatedTs)
	require.NotZero(t, saved.CreatedTs)
	require.NotZero(t, saved.UpdatedTs)
}

func TestGetOrCreateChatSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	uid := store.NewChatSessionUID()
	created, err := s.GetOrCreateChatSession(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, uid, created.UID)
	require.Empty(t, created.Messages)

	again, err := s.GetOrCreateChatSession(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, created.ID, again.ID)
}

func TestGetChatSessionMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	uid := "no-such-session"
	loaded, err := s.GetChatSession(ctx, &store.FindChatSession{UID: &uid})
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestListChatSessionsOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	older := &store.ChatSession{UID: "older", CreatedTs: 100}
	newer := &store.ChatSession{UID: "newer", CreatedTs: 200}
	_, err := s.UpsertChatSession(ctx, older)
	require.NoError(t, err)
	_, err = s.UpsertChatSession(ctx, newer)
	require.NoError(t, err)

	list, err := s.ListChatSessions(ctx, &store.FindChatSession{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "newer", list[0].UID)
	require.Equal(t, "older", list[1].UID)
}

func TestUpdateChatSessionRename(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	uid := store.NewChatSessionUID()
	_, err := s.UpsertChatSession(ctx, &store.ChatSession{UID: uid})
	require.NoError(t, err)

	name := "Recipe ideas"
	updated, err := s.UpdateChatSession(ctx, &store.UpdateChatSession{UID: uid, Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Recipe ideas", updated.Name)
}

func TestDeleteChatSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	uid := store.NewChatSessionUID()
	_, err := s.UpsertChatSession(ctx, &store.ChatSession{UID: uid})
	require.NoError(t, err)

	require.NoError(t, s.DeleteChatSession(ctx, &store.DeleteChatSession{UID: uid}))
	loaded, err := s.GetChatSession(ctx, &store.FindChatSession{UID: &uid})
	require.NoError(t, err)
	require.Nil(t, loaded)

	// Deleting a missing session is a no-op.
	require.NoError(t, s.DeleteChatSession(ctx, &store.DeleteChatSession{UID: "gone"}))
}

func TestDeleteAllChatSessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, uid := range []string{"a", "b", "c"} {
		_, err := s.UpsertChatSession(ctx, &store.ChatSession{UID: uid})
		require.NoError(t, err)
	}
	require.NoError(t, s.DeleteAllChatSessions(ctx))

	list, err := s.ListChatSessions(ctx, &store.FindChatSession{})
	require.NoError(t, err)
	require.Empty(t, list)
}
