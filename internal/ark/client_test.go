package ark

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/haolin/tianji/backend/pkg/config"
	"github.com/haolin/tianji/backend/pkg/logger"
)

func newTestClient(url string) *Client {
	return New(config.ArkConfig{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, logger.NewNop())
}

func TestChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		frames := []string{
			`data: {"choices":[{"delta":{"reasoning_content":"先看"}}]}`,
			`data: {"choices":[{"delta":{"reasoning_content":"技术面"}}]}`,
			`data: {"choices":[{"delta":{"content":"看涨"}}]}`,
			`data: {"choices":[{"delta":{"content":" 10.52"}}]}`,
			`data: [DONE]`,
		}
		for _, f := range frames {
			w.Write([]byte(f + "\n\n"))
		}
	}))
	defer srv.Close()

	var deltas []Delta
	result, err := newTestClient(srv.URL).ChatStream(context.Background(),
		[]Message{{Role: "user", Content: "预测"}},
		func(d Delta) { deltas = append(deltas, d) })
	if err != nil {
		t.Fatal(err)
	}

	if result.Reasoning != "先看技术面" {
		t.Errorf("Reasoning = %q", result.Reasoning)
	}
	if result.Answer != "看涨 10.52" {
		t.Errorf("Answer = %q", result.Answer)
	}
	if len(deltas) != 4 {
		t.Errorf("got %d deltas, want 4", len(deltas))
	}
	if deltas[0].ReasoningContent != "先看" || deltas[2].Content != "看涨" {
		t.Errorf("deltas out of order: %+v", deltas)
	}
}

func TestChatStreamHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ChatStream(context.Background(), nil, nil)
	if err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestChatStreamSkipsMalformedChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: not-json\n\n"))
		w.Write([]byte(`data: {"choices":[{"delta":{"content":"ok"}}]}` + "\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).ChatStream(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Answer != "ok" {
		t.Errorf("Answer = %q", result.Answer)
	}
}

func TestChatStreamContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv.URL).ChatStream(ctx, nil, nil)
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
}
