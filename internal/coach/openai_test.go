package coach_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrWong99/elocute/internal/analysis"
	"github.com/MrWong99/elocute/internal/coach"
)

func TestNewOpenAI_Validation(t *testing.T) {
	if _, err := coach.NewOpenAI("", "gpt-4o-mini"); err == nil {
		t.Error("expected error for empty api key")
	}
	if _, err := coach.NewOpenAI("sk-test", ""); err == nil {
		t.Error("expected error for empty model")
	}
}

func TestOpenAI_Feedback(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		MaxCompletionTokens int `json:"max_completion_tokens"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "Round your lips for *boot*."}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 7, "total_tokens": 17}
		}`))
	}))
	defer srv.Close()

	c, err := coach.NewOpenAI("sk-test", "gpt-4o-mini", coach.WithBaseURL(srv.URL+"/v1/"), coach.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	msg, err := c.Feedback(context.Background(), analysis.Result{Success: true, Sentence: "the cat sat"})
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if msg != "Round your lips for *boot*." {
		t.Errorf("msg = %q", msg)
	}
	if got.Model != "gpt-4o-mini" || got.MaxCompletionTokens != coach.DefaultMaxTokens {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || !strings.Contains(got.Messages[1].Content, "the cat sat") {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestOpenAI_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c, err := coach.NewOpenAI("sk-test", "gpt-4o-mini", coach.WithBaseURL(srv.URL+"/v1/"), coach.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	if _, err := c.Feedback(context.Background(), analysis.Result{Success: true}); err == nil {
		t.Fatal("expected error")
	}
}
