// Package llm wraps the hosted text-generation service behind a small
// interface so the chat service never touches a provider SDK directly.
package llm

import "context"

// Service is the generation collaborator. Streaming and blocking generation
// are unified behind the chunk-channel shape: a blocking completion is a
// stream of length one.
type Service interface {
	// Complete performs a synchronous completion of the assembled prompt.
	Complete(ctx context.Context, prompt string) (string, error)

	// Stream performs a streaming completion. The content channel yields
	// chunks in order and is closed on completion; the error channel yields
	// at most one error.
	Stream(ctx context.Context, prompt string) (<-chan string, <-chan error)
}
