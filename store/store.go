package store

import (
	"context"
	"time"

	"github.com/quillchat/quill/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// GetOrCreateChatSession returns the session with the given UID, or a fresh
// empty one persisted under that UID when none exists.
func (s *Store) GetOrCreateChatSession(ctx context.Context, uid string) (*ChatSession, error) {
	session, err := s.driver.GetChatSession(ctx, &FindChatSession{UID: &uid})
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}

	now := time.Now().Unix()
	return s.driver.UpsertChatSession(ctx, &ChatSession{
		UID:       uid,
		Messages:  []Message{},
		CreatedTs: now,
		UpdatedTs: now,
	})
}

// UpsertChatSession saves the full session state. Saving replaces the prior
// record in full; last writer wins.
func (s *Store) UpsertChatSession(ctx context.Context, upsert *ChatSession) (*ChatSession, error) {
	return s.driver.UpsertChatSession(ctx, upsert)
}

func (s *Store) GetChatSession(ctx context.Context, find *FindChatSession) (*ChatSession, error) {
	return s.driver.GetChatSession(ctx, find)
}

func (s *Store) ListChatSessions(ctx context.Context, find *FindChatSession) ([]*ChatSession, error) {
	return s.driver.ListChatSessions(ctx, find)
}

func (s *Store) UpdateChatSession(ctx context.Context, update *UpdateChatSession) (*ChatSession, error) {
	return s.driver.UpdateChatSession(ctx, update)
}

func (s *Store) DeleteChatSession(ctx context.Context, delete *DeleteChatSession) error {
	return s.driver.DeleteChatSession(ctx, delete)
}

func (s *Store) DeleteAllChatSessions(ctx context.Context) error {
	return s.driver.DeleteAllChatSessions(ctx)
}
