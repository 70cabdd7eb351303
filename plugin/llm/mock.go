package llm

import "context"

// MockService is an in-memory Service for tests.
type MockService struct {
	// Chunks are yielded in order by Stream; Complete returns their
	// concatenation.
	Chunks []string
	// Err, when set, fails the call.
	Err error

	// Prompts records every prompt received.
	Prompts []string
}

var _ Service = (*MockService)(nil)

func (m *MockService) Complete(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	var out string
	for _, c := range m.Chunks {
		out += c
	}
	return out, nil
}

func (m *MockService) Stream(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	m.Prompts = append(m.Prompts, prompt)

	contentChan := make(chan string)
	errChan := make(chan error, 1)
	go func() {
		defer close(contentChan)
		defer close(errChan)
		if m.Err != nil {
			errChan <- m.Err
			return
		}
		for _, c := range m.Chunks {
			select {
			case contentChan <- c:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
		}
	}()
	return contentChan, errChan
}
