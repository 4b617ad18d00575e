package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Sampling parameters for the self-hosted server are pinned to its serving
// defaults. The caller's Temperature and Stop are accepted by the unified
// contract but have no effect on this backend.
const (
	fastchatTemperature = 0.1
	fastchatTopP        = 0.75
	fastchatTopK        = 40
	fastchatMaxTokens   = 512
)

// FastChatClient converses with a self-hosted text-completion server. The
// conversation is flattened into a single prompt string whose templating
// dialect follows the served model's name.
type FastChatClient struct {
	Model   string
	Host    string
	Port    int
	Timeout time.Duration

	client *http.Client
	logger *zap.Logger
}

type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
	MaxTokens   int     `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// NewFastChatClient creates a completion client for a server reachable at
// host:port.
func NewFastChatClient(model, host string, port int, logger *zap.Logger) *FastChatClient {
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = 8888
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FastChatClient{
		Model:   model,
		Host:    host,
		Port:    port,
		Timeout: 2 * time.Minute,
		client:  &http.Client{Timeout: 2 * time.Minute},
		logger:  logger,
	}
}

// Converse sends one completion request. Transport and envelope failures
// are contained: the text degrades to "" and the history still gains one
// turn.
func (c *FastChatClient) Converse(ctx context.Context, req Request) (string, History, error) {
	body := completionRequest{
		Model:       c.Model,
		Prompt:      promptForModel(c.Model, req.Query, req.System, req.History),
		Temperature: fastchatTemperature,
		TopP:        fastchatTopP,
		TopK:        fastchatTopK,
		MaxTokens:   fastchatMaxTokens,
	}

	text, err := c.complete(ctx, body)
	if err != nil {
		c.logger.Warn("completion degraded",
			zap.String("model", c.Model),
			zap.Error(err))
		text = ""
	}
	return text, Append(req.History, req.Query, text), nil
}

func (c *FastChatClient) complete(ctx context.Context, body completionRequest) (string, error) {
	const op = "fastchat.converse"

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := fmt.Sprintf("http://%s:%d/v1/completions/", c.Host, c.Port)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode, respBody)}
	}

	var compResp completionResponse
	if err := json.Unmarshal(respBody, &compResp); err != nil {
		return "", &Error{Kind: KindEnvelope, Op: op, Err: fmt.Errorf("parse response: %w", err)}
	}
	if len(compResp.Choices) == 0 {
		return "", &Error{Kind: KindEnvelope, Op: op, Err: fmt.Errorf("no response choices returned")}
	}

	return compResp.Choices[0].Text, nil
}

// ModelName returns the model being used
func (c *FastChatClient) ModelName() string {
	return c.Model
}
