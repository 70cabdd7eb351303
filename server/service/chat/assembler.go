package chat

import (
	"strings"

	"github.com/quillchat/quill/store"
)

// DefaultPreamble is the instruction text prepended to every prompt.
const DefaultPreamble = "You are a helpful assistant. Answer using the conversation history below. " +
	"When a context section is provided, ground your answer in it and mention when you rely on it."

// Assemble builds the outbound prompt from the instruction preamble, the
// full message history, and the optional context blob. It is a pure function
// of its inputs.
//
// History is replayed verbatim, one "<Role>: <content>" line per message,
// with no elision. A non-empty context is appended as a delimited section and
// hard-cut to contextLimit characters; the stored context itself stays
// uncapped. The prompt always ends with an "Assistant:" cue.
func Assemble(preamble string, messages []store.Message, context string, contextLimit int) string {
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\n")

	for _, m := range messages {
		b.WriteString(m.Role.DisplayName())
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}

	if context != "" {
		b.WriteString("\nContext:\n\"\"\"\n")
		b.WriteString(truncate(context, contextLimit))
		b.WriteString("\n\"\"\"\n")
	}

	b.WriteString("\nAssistant:")
	return b.String()
}

// truncate hard-cuts s to limit characters. The cut is not sentence-aware.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
