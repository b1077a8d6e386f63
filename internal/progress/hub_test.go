package progress

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/pkg/logger"
)

func httpHandler(hub *Hub) http.Handler {
	return http.HandlerFunc(hub.ServeWS)
}

func TestHubBroadcastsEvents(t *testing.T) {
	hub := NewHub(logger.NewNop())
	srv := httptest.NewServer(httpHandler(hub))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, 1)
	hub.Emit(contracts.ProgressEvent{
		Stage:       contracts.StageMarket,
		Message:     "正在进行市场分析...",
		PartialText: "先看均线",
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() failed: %v", err)
	}

	var msg wireMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if msg.Event != "analysis_progress" {
		t.Errorf("Event = %q, want analysis_progress", msg.Event)
	}
	if msg.Data.AgentType != "market" {
		t.Errorf("AgentType = %q, want market", msg.Data.AgentType)
	}
	if msg.Data.Message != "正在进行市场分析..." {
		t.Errorf("Message = %q", msg.Data.Message)
	}
	if msg.Data.Reasoning != "先看均线" {
		t.Errorf("Reasoning = %q", msg.Data.Reasoning)
	}
}

func TestHubOmitsEmptyReasoning(t *testing.T) {
	hub := NewHub(logger.NewNop())
	srv := httptest.NewServer(httpHandler(hub))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, 1)
	hub.Emit(contracts.ProgressEvent{Stage: contracts.StageDecision, Message: "决策分析完成"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() failed: %v", err)
	}
	if strings.Contains(string(frame), "reasoning") {
		t.Errorf("Expected reasoning field omitted, got %s", frame)
	}
}

func TestHubTracksDisconnects(t *testing.T) {
	hub := NewHub(logger.NewNop())
	srv := httptest.NewServer(httpHandler(hub))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)

	// Emitting with no clients must not panic or block.
	hub.Emit(contracts.ProgressEvent{Stage: contracts.StageNews, Message: "新闻分析完成"})
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("ClientCount() = %d, want %d", hub.ClientCount(), want)
}
