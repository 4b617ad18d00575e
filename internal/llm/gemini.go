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

// GeminiClient converses with a generative-content backend. The protocol
// has no system-role slot, so Converse returns a precondition error for any
// request carrying a system prompt.
type GeminiClient struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration

	client *http.Client
	logger *zap.Logger
}

type generateRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

type generationConfig struct {
	CandidateCount int      `json:"candidateCount"`
	StopSequences  []string `json:"stopSequences,omitempty"`
	Temperature    float64  `json:"temperature"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Role  string       `json:"role"`
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// NewGeminiClient creates a generative-content client with the API key from
// the process configuration (GOOGLE_API_KEY).
func NewGeminiClient(model string, logger *zap.Logger) *GeminiClient {
	return NewGeminiClientWithKey(config.GetGoogleKey(), model, "", logger)
}

// NewGeminiClientWithKey creates a client with an explicit key and base URL,
// bypassing the process configuration.
func NewGeminiClientWithKey(apiKey, model, baseURL string, logger *zap.Logger) *GeminiClient {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiClient{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: baseURL,
		Timeout: 2 * time.Minute,
		client:  &http.Client{Timeout: 2 * time.Minute},
		logger:  logger,
	}
}

// Converse sends one generateContent request. A non-empty System fails the
// precondition and returns the history unchanged; every runtime failure,
// including safety-blocked and empty results, degrades to "" with one turn
// appended.
func (c *GeminiClient) Converse(ctx context.Context, req Request) (string, History, error) {
	contents, err := buildGeminiContents(req.Query, req.System, req.History)
	if err != nil {
		return "", req.History, err
	}

	genConfig := generationConfig{
		CandidateCount: 1,
		Temperature:    req.Temperature,
	}
	if req.Stop != "" {
		genConfig.StopSequences = []string{req.Stop}
	}

	body := generateRequest{
		Contents:         contents,
		GenerationConfig: genConfig,
		SafetySettings: []safetySetting{
			{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_ONLY_HIGH"},
		},
	}

	text, err := c.generate(ctx, body)
	if err != nil {
		c.logger.Warn("content generation degraded",
			zap.String("model", c.Model),
			zap.Error(err))
		text = ""
	}

	c.logger.Debug("gemini exchange",
		zap.String("query", req.Query),
		zap.String("response", text))

	return text, Append(req.History, req.Query, text), nil
}

func (c *GeminiClient) generate(ctx context.Context, body generateRequest) (string, error) {
	const op = "gemini.converse"

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.BaseURL, c.Model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.APIKey)

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

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", &Error{Kind: KindEnvelope, Op: op, Err: fmt.Errorf("parse response: %w", err)}
	}

	if genResp.PromptFeedback != nil && genResp.PromptFeedback.BlockReason != "" {
		return "", &Error{Kind: KindSafety, Op: op, Err: fmt.Errorf("prompt blocked: %s", genResp.PromptFeedback.BlockReason)}
	}
	if len(genResp.Candidates) == 0 {
		return "", &Error{Kind: KindSafety, Op: op, Err: fmt.Errorf("no candidates returned")}
	}

	candidate := genResp.Candidates[0]
	if len(candidate.Content.Parts) == 0 {
		return "", &Error{Kind: KindSafety, Op: op, Err: fmt.Errorf("candidate has no text (finish reason %s)", candidate.FinishReason)}
	}

	return candidate.Content.Parts[0].Text, nil
}

// ModelName returns the model being used
func (c *GeminiClient) ModelName() string {
	return c.Model
}
