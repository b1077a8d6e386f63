// Package ark talks to the Volcengine Ark chat-completions endpoint. The
// deep-reasoning model streams its chain of thought as reasoning_content
// deltas before the answer content, so the client is streaming-first.
package ark

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/pkg/config"
	"github.com/haolin/tianji/backend/pkg/logger"
)

// Message is one chat turn sent to the model
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Delta is one streamed chunk. Exactly one of the two fields is set per
// chunk: the model emits its full reasoning phase first, then the answer.
type Delta struct {
	ReasoningContent string
	Content          string
}

// StreamHandler receives each delta as it arrives
type StreamHandler func(delta Delta)

// Client is a streaming chat-completions client for the Ark runtime
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	log        *logger.Logger
}

func New(cfg config.ArkConfig, log *logger.Logger) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		// 深度推理模型耗时较长，超时时间要放大，推荐30分钟以上
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"delta"`
	} `json:"choices"`
}

// ChatStream sends the conversation and streams the response, invoking
// handler for every delta. It returns the accumulated reasoning and answer
// once the stream completes. handler may be nil.
func (c *Client) ChatStream(ctx context.Context, messages []Message, handler StreamHandler) (contracts.StageResult, error) {
	var result contracts.StageResult

	body, err := json.Marshal(chatRequest{Model: c.model, Messages: messages, Stream: true})
	if err != nil {
		return result, fmt.Errorf("marshal chat request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return result, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	c.log.WithFields(map[string]interface{}{
		"model":    c.model,
		"messages": len(messages),
	}).Debug("ark chat stream started")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result, fmt.Errorf("ark request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return result, fmt.Errorf("ark returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var reasoning, answer strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		if payload == "[DONE]" {
			break
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			c.log.WithError(err).Warn("ark stream chunk unparsable, skipping")
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := Delta{
			ReasoningContent: chunk.Choices[0].Delta.ReasoningContent,
			Content:          chunk.Choices[0].Delta.Content,
		}
		if delta.ReasoningContent == "" && delta.Content == "" {
			continue
		}

		reasoning.WriteString(delta.ReasoningContent)
		answer.WriteString(delta.Content)
		if handler != nil {
			handler(delta)
		}
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("read ark stream: %w", err)
	}

	result.Reasoning = reasoning.String()
	result.Answer = answer.String()

	c.log.WithFields(map[string]interface{}{
		"reasoning_len": len(result.Reasoning),
		"answer_len":    len(result.Answer),
	}).Debug("ark chat stream complete")

	return result, nil
}
