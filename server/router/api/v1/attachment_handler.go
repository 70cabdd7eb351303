package v1

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/quillchat/quill/plugin/textextract"
)

// attachmentResult is the per-file outcome of an upload batch.
type attachmentResult struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
	Chars    int    `json:"chars"`
	Warning  string `json:"warning,omitempty"`
}

// uploadAttachments extracts text from the uploaded files and REPLACES the
// session context with the concatenation. Each file is processed
// independently: one unreadable file degrades to a warning, never to an
// aborted batch.
func (s *APIV1Service) uploadAttachments(c echo.Context) error {
	ctx := c.Request().Context()
	uid := c.Param("uid")

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed multipart form").SetInternal(err)
	}
	files := form.File["files"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no files uploaded")
	}

	results := make([]attachmentResult, 0, len(files))
	parts := []string{}
	for _, fh := range files {
		fileType := textextract.DetectFileType(fh.Filename)
		result := attachmentResult{Filename: fh.Filename, Type: fileType.String()}

		text, err := func() (string, error) {
			f, err := fh.Open()
			if err != nil {
				return "", err
			}
			defer f.Close()
			data, err := io.ReadAll(f)
			if err != nil {
				return "", err
			}
			return textextract.Extract(data, fileType)
		}()
		if err != nil {
			slog.Warn("attachment extraction failed",
				slog.String("filename", fh.Filename),
				slog.String("error", err.Error()))
			result.Warning = err.Error()
		} else {
			result.Chars = len([]rune(text))
			parts = append(parts, text)
		}
		results = append(results, result)
	}

	session, err := s.Store.GetOrCreateChatSession(ctx, uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load session").SetInternal(err)
	}
	// Re-uploading resets prior context instead of appending to it.
	session.Context = strings.Join(parts, "\n\n")
	if _, err := s.Store.UpsertChatSession(ctx, session); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save session context").SetInternal(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"contextChars": len([]rune(session.Context)),
		"files":        results,
	})
}
