package llm

import (
	"context"
	"errors"
	"testing"
)

func TestNewOpenAIServiceRequiresKey(t *testing.T) {
	if _, err := NewOpenAIService(&Config{}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestNewOpenAIServiceDefaults(t *testing.T) {
	svc, err := NewOpenAIService(&Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc == nil {
		t.Fatal("expected service")
	}
}

func TestMockServiceStreamOrder(t *testing.T) {
	mock := &MockService{Chunks: []string{"he", "llo", "!"}}

	contentChan, errChan := mock.Stream(context.Background(), "prompt")
	var got string
	for chunk := range contentChan {
		got += chunk
	}
	if err := <-errChan; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello!" {
		t.Errorf("expected chunks in order, got %q", got)
	}
	if len(mock.Prompts) != 1 || mock.Prompts[0] != "prompt" {
		t.Errorf("expected recorded prompt, got %v", mock.Prompts)
	}
}

func TestMockServiceStreamError(t *testing.T) {
	mock := &MockService{Err: errors.New("rate limited")}

	contentChan, errChan := mock.Stream(context.Background(), "prompt")
	for range contentChan {
		t.Fatal("expected no content")
	}
	if err := <-errChan; err == nil || err.Error() != "rate limited" {
		t.Errorf("expected rate limited error, got %v", err)
	}
}
