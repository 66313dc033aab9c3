package providers

import (
	"context"
	"testing"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("openai is the default", func(t *testing.T) {
		c, err := New(ctx, "", WithAPIKey("test-key"), WithBaseURL("http://localhost:1/v1/"))
		if err != nil {
			t.Fatalf("New() returned error: %v", err)
		}
		if _, ok := c.(*OpenAIClient); !ok {
			t.Errorf("New(\"\") = %T, want *OpenAIClient", c)
		}
	})

	t.Run("gemini needs a key", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		if _, err := New(ctx, "gemini"); err == nil {
			t.Error("Expected error without GEMINI_API_KEY, got nil")
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		if _, err := New(ctx, "llama"); err == nil {
			t.Error("Expected error for unknown provider, got nil")
		}
	})
}
