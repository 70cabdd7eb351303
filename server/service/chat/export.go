package chat

import (
	"strings"

	"github.com/quillchat/quill/store"
)

// Transcript serializes the visible message list as "<Role>: <content>"
// lines joined by newlines, the plain-text export format.
func Transcript(session *store.ChatSession) string {
	lines := make([]string, 0, len(session.Messages))
	for _, m := range session.Messages {
		lines = append(lines, m.Role.DisplayName()+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}
