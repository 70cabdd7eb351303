package v1

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quillchat/quill/server/service/chat"
	"github.com/quillchat/quill/store"
)

func (s *APIV1Service) listSessions(c echo.Context) error {
	summaries, err := s.ChatService.ListSessions(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list sessions").SetInternal(err)
	}
	return c.JSON(http.StatusOK, summaries)
}

func (s *APIV1Service) getSession(c echo.Context) error {
	uid := c.Param("uid")
	session, err := s.Store.GetChatSession(c.Request().Context(), &store.FindChatSession{UID: &uid})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load session").SetInternal(err)
	}
	if session == nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, convertSession(session))
}

func (s *APIV1Service) renameSession(c echo.Context) error {
	uid := c.Param("uid")
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if body.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	session, err := s.Store.UpdateChatSession(c.Request().Context(), &store.UpdateChatSession{
		UID:  uid,
		Name: &body.Name,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to rename session").SetInternal(err)
	}
	if session == nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, convertSession(session))
}

func (s *APIV1Service) deleteSession(c echo.Context) error {
	// Idempotent: deleting a missing session succeeds.
	if err := s.Store.DeleteChatSession(c.Request().Context(), &store.DeleteChatSession{UID: c.Param("uid")}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete session").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) deleteAllSessions(c echo.Context) error {
	if err := s.Store.DeleteAllChatSessions(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete sessions").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) exportSession(c echo.Context) error {
	uid := c.Param("uid")
	session, err := s.Store.GetChatSession(c.Request().Context(), &store.FindChatSession{UID: &uid})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load session").SetInternal(err)
	}
	if session == nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="chat-%s.txt"`, session.UID))
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(chat.Transcript(session)))
}
