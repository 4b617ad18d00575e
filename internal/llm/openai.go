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

	"github.com/jmorenn/modelbridge/internal/config"
)

// Mode selects which request shape the chat-completion backend expects.
// The two shapes differ only in which field names the model identifier.
type Mode int

const (
	// ModeDirect posts to the provider directly; the body names the model
	// under "model".
	ModeDirect Mode = iota

	// ModeGateway posts through an azure-style gateway; the body names the
	// deployment under "engine" and the request carries an api-version.
	ModeGateway
)

// OpenAIClient converses with an OpenAI-style chat-completion backend.
type OpenAIClient struct {
	APIKey     string
	Model      string
	BaseURL    string
	Mode       Mode
	APIVersion string // gateway mode only
	Timeout    time.Duration

	client *http.Client
	logger *zap.Logger
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Engine      string        `json:"engine,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stop        string        `json:"stop,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIClient creates a chat-completion client from the process
// configuration. OPENAI_API_TYPE=azure switches it into gateway mode, with
// the base URL and api-version taken from OPENAI_API_BASE and
// OPENAI_API_VERSION.
func NewOpenAIClient(model string, logger *zap.Logger) *OpenAIClient {
	c := &OpenAIClient{
		APIKey:  config.GetOpenAIKey(),
		Model:   model,
		BaseURL: "https://api.openai.com/v1",
		Timeout: 2 * time.Minute,
	}
	if config.GetOpenAIAPIType() == "azure" {
		c.Mode = ModeGateway
		c.BaseURL = config.GetOpenAIBase()
		c.APIVersion = config.GetOpenAIVersion()
	}
	return finishOpenAI(c, logger)
}

// NewOpenAIClientWithKey creates a direct-mode client with an explicit key,
// bypassing the process configuration.
func NewOpenAIClientWithKey(apiKey, model, baseURL string, logger *zap.Logger) *OpenAIClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return finishOpenAI(&OpenAIClient{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: baseURL,
		Timeout: 2 * time.Minute,
	}, logger)
}

func finishOpenAI(c *OpenAIClient, logger *zap.Logger) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger
	c.client = &http.Client{Timeout: c.Timeout}
	return c
}

// Converse sends one chat-completion request. Transport and envelope
// failures are contained: the text degrades to "" and the history still
// gains one turn.
func (c *OpenAIClient) Converse(ctx context.Context, req Request) (string, History, error) {
	body := chatRequest{
		Messages:    buildChatMessages(req.Query, req.System, req.History),
		Temperature: req.Temperature,
		Stop:        req.Stop,
	}
	if c.Mode == ModeGateway {
		body.Engine = c.Model
	} else {
		body.Model = c.Model
	}

	text, err := c.complete(ctx, body)
	if err != nil {
		c.logger.Warn("chat completion degraded",
			zap.String("model", c.Model),
			zap.Error(err))
		text = ""
	}
	return text, Append(req.History, req.Query, text), nil
}

func (c *OpenAIClient) complete(ctx context.Context, body chatRequest) (string, error) {
	const op = "openai.converse"

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := c.BaseURL + "/chat/completions"
	if c.Mode == ModeGateway && c.APIVersion != "" {
		url += "?api-version=" + c.APIVersion
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.Mode == ModeGateway {
		httpReq.Header.Set("api-key", c.APIKey)
	} else {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

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

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", &Error{Kind: KindEnvelope, Op: op, Err: fmt.Errorf("parse response: %w", err)}
	}
	if chatResp.Error != nil {
		return "", &Error{Kind: KindEnvelope, Op: op, Err: fmt.Errorf("API error: %s", chatResp.Error.Message)}
	}
	if len(chatResp.Choices) == 0 {
		return "", &Error{Kind: KindEnvelope, Op: op, Err: fmt.Errorf("no response choices returned")}
	}

	return chatResp.Choices[0].Message.Content, nil
}

// ModelName returns the model being used
func (c *OpenAIClient) ModelName() string {
	return c.Model
}
