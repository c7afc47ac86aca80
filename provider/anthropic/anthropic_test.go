package anthropic_provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerateJoinsTextBlocks(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key header got %q, want %q", got, "test-key")
		}
		if got := r.Header.Get("anthropic-version"); got == "" {
			t.Error("anthropic-version header missing")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"part one "},{"type":"text","text":"part two"}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL, "claude-3-5-sonnet-latest", 0, 0, 5*time.Second)
	got, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if got != "part one part two" {
		t.Fatalf("Generate() got %q, want %q", got, "part one part two")
	}
}

func TestGenerateEmptyContent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL, "claude-3-5-sonnet-latest", 0, 0, 5*time.Second)
	if _, err := c.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("Generate() expected error for empty content")
	}
}
