package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/quillchat/quill/store"
)

// chatTurn runs one conversation turn and streams the assistant reply as
// server-sent events: `message` events carry content deltas, a final `done`
// event carries the saved session snapshot.
func (s *APIV1Service) chatTurn(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		uid = store.NewChatSessionUID()
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if strings.TrimSpace(body.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	ctx := c.Request().Context()
	if err := s.chatSemaphore.Acquire(ctx, 1); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "server is busy").SetInternal(err)
	}
	defer s.chatSemaphore.Release(1)

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	onDelta := func(chunk string) {
		payload, err := json.Marshal(map[string]string{"content": chunk})
		if err != nil {
			return
		}
		fmt.Fprintf(resp, "event: message\ndata: %s\n\n", payload)
		resp.Flush()
	}

	session, err := s.ChatService.ProcessTurn(ctx, uid, body.Message, onDelta)
	if err != nil {
		// Headers are already out; report the failure in-stream.
		fmt.Fprintf(resp, "event: error\ndata: %s\n\n", sseJSON(map[string]string{"error": err.Error()}))
		resp.Flush()
		return nil
	}

	fmt.Fprintf(resp, "event: done\ndata: %s\n\n", sseJSON(convertSession(session)))
	resp.Flush()
	return nil
}

func sseJSON(v any) string {
	payload, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(payload)
}
