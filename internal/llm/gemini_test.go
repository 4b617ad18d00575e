package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func geminiServer(t *testing.T, text string, capture *generateRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		resp := map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"role":  "model",
						"parts": []map[string]string{{"text": text}},
					},
					"finishReason": "STOP",
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestGeminiClient_Converse(t *testing.T) {
	var gotReq generateRequest
	server := geminiServer(t, "bonjour", &gotReq)
	defer server.Close()

	client := NewGeminiClientWithKey("test-key", "gemini-pro", server.URL, nil)

	history := History{{Query: "hi", Response: "hello"}}
	text, newHistory, err := client.Converse(context.Background(), Request{
		Query:       "say hi in french",
		History:     history,
		Temperature: 0.5,
		Stop:        "END",
	})
	if err != nil {
		t.Fatalf("Converse() error = %v", err)
	}
	if text != "bonjour" {
		t.Errorf("Converse() text = %q, want %q", text, "bonjour")
	}
	if len(newHistory) != 2 || newHistory[1] != (Turn{Query: "say hi in french", Response: "bonjour"}) {
		t.Errorf("new history = %+v", newHistory)
	}

	// Generation config: single candidate, caller temperature, the stop
	// string as a one-element sequence list.
	if gotReq.GenerationConfig.CandidateCount != 1 {
		t.Errorf("candidateCount = %d, want 1", gotReq.GenerationConfig.CandidateCount)
	}
	if gotReq.GenerationConfig.Temperature != 0.5 {
		t.Errorf("temperature = %v, want 0.5", gotReq.GenerationConfig.Temperature)
	}
	if len(gotReq.GenerationConfig.StopSequences) != 1 || gotReq.GenerationConfig.StopSequences[0] != "END" {
		t.Errorf("stopSequences = %v, want [END]", gotReq.GenerationConfig.StopSequences)
	}

	// Fixed safety threshold list.
	if len(gotReq.SafetySettings) != 1 {
		t.Fatalf("safetySettings length = %d, want 1", len(gotReq.SafetySettings))
	}
	if gotReq.SafetySettings[0] != (safetySetting{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_ONLY_HIGH"}) {
		t.Errorf("safetySettings[0] = %+v", gotReq.SafetySettings[0])
	}

	// user, model, user with one-element parts lists.
	wantRoles := []string{"user", "model", "user"}
	if len(gotReq.Contents) != len(wantRoles) {
		t.Fatalf("contents length = %d, want %d", len(gotReq.Contents), len(wantRoles))
	}
	for i, role := range wantRoles {
		if gotReq.Contents[i].Role != role {
			t.Errorf("contents[%d].role = %q, want %q", i, gotReq.Contents[i].Role, role)
		}
	}
}

func TestGeminiClient_NoStopOmitsSequences(t *testing.T) {
	var gotReq generateRequest
	server := geminiServer(t, "ok", &gotReq)
	defer server.Close()

	client := NewGeminiClientWithKey("test-key", "gemini-pro", server.URL, nil)
	if _, _, err := client.Converse(context.Background(), Request{Query: "hi"}); err != nil {
		t.Fatalf("Converse() error = %v", err)
	}
	if len(gotReq.GenerationConfig.StopSequences) != 0 {
		t.Errorf("stopSequences = %v, want none when Stop is empty", gotReq.GenerationConfig.StopSequences)
	}
}

func TestGeminiClient_SystemPromptFailsFast(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewGeminiClientWithKey("test-key", "gemini-pro", server.URL, nil)

	history := History{{Query: "q0", Response: "r0"}}
	_, newHistory, err := client.Converse(context.Background(), Request{
		Query:   "q1",
		System:  "you are helpful",
		History: history,
	})
	if err == nil {
		t.Fatal("Converse() with system prompt should return a precondition error")
	}
	if !IsPrecondition(err) {
		t.Errorf("error = %v, want precondition kind", err)
	}
	if called {
		t.Error("backend was called despite the precondition failure")
	}
	// The call never happened, so the history comes back unchanged.
	if len(newHistory) != 1 {
		t.Errorf("history length = %d, want 1 (unchanged)", len(newHistory))
	}
}

func TestGeminiClient_Degrades(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "blocked prompt",
			body: `{"promptFeedback": {"blockReason": "SAFETY"}}`,
		},
		{
			name: "no candidates",
			body: `{"candidates": []}`,
		},
		{
			name: "safety-stopped candidate without text",
			body: `{"candidates": [{"content": {"role": "model", "parts": []}, "finishReason": "SAFETY"}]}`,
		},
		{
			name: "malformed envelope",
			body: `{"candidates": [{`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewGeminiClientWithKey("test-key", "gemini-pro", server.URL, nil)

			text, newHistory, err := client.Converse(context.Background(), Request{Query: "q"})
			if err != nil {
				t.Fatalf("Converse() error = %v, failures must be contained", err)
			}
			if text != "" {
				t.Errorf("Converse() text = %q, want empty degraded response", text)
			}
			if len(newHistory) != 1 || newHistory[0] != (Turn{Query: "q", Response: ""}) {
				t.Errorf("new history = %+v, want [{q \"\"}]", newHistory)
			}
		})
	}
}
