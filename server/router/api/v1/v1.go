// Package v1 exposes the chat API consumed by the single-page UI.
package v1

import (
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/quillchat/quill/internal/profile"
	"github.com/quillchat/quill/server/service/chat"
	"github.com/quillchat/quill/store"
)

// APIV1Service wires the chat service and the store into HTTP handlers.
type APIV1Service struct {
	Profile     *profile.Profile
	Store       *store.Store
	ChatService *chat.Service

	// chatSemaphore bounds concurrent generation calls so a burst of tabs
	// cannot exhaust the upstream quota.
	chatSemaphore *semaphore.Weighted
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, chatService *chat.Service) *APIV1Service {
	return &APIV1Service{
		Profile:       profile,
		Store:         store,
		ChatService:   chatService,
		chatSemaphore: semaphore.NewWeighted(4),
	}
}

// RegisterRoutes registers all v1 routes on the given Echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")

	g.GET("/sessions", s.listSessions)
	g.DELETE("/sessions", s.deleteAllSessions)
	g.GET("/sessions/:uid", s.getSession)
	g.PATCH("/sessions/:uid", s.renameSession)
	g.DELETE("/sessions/:uid", s.deleteSession)
	g.GET("/sessions/:uid/export", s.exportSession)
	// Without a uid the server mints one; the done event carries it back.
	g.POST("/sessions/chat", s.chatTurn)
	g.POST("/sessions/:uid/chat", s.chatTurn)
	g.POST("/sessions/:uid/attachments", s.uploadAttachments)
}

// sessionResponse is the JSON shape of a full session.
type sessionResponse struct {
	UID       string          `json:"uid"`
	Name      string          `json:"name"`
	Messages  []store.Message `json:"messages"`
	Context   string          `json:"context"`
	CreatedTs int64           `json:"createdTs"`
	UpdatedTs int64           `json:"updatedTs"`
}

func convertSession(session *store.ChatSession) *sessionResponse {
	return &sessionResponse{
		UID:       session.UID,
		Name:      session.DeriveName(),
		Messages:  session.Messages,
		Context:   session.Context,
		CreatedTs: session.CreatedTs,
		UpdatedTs: session.UpdatedTs,
	}
}
