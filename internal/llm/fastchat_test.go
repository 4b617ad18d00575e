package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
)

// fastchatClientFor points a FastChatClient at a test server.
func fastchatClientFor(t *testing.T, server *httptest.Server, model string) *FastChatClient {
	t.Helper()
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse server port: %v", err)
	}
	return NewFastChatClient(model, u.Hostname(), port, nil)
}

func TestFastChatClient_Converse(t *testing.T) {
	var gotPath string
	var gotReq completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]string{{"text": "fine, thanks"}},
		})
	}))
	defer server.Close()

	client := fastchatClientFor(t, server, "kagentlms_baichuan2_13b_mat")

	history := History{{Query: "hello", Response: "hi"}}
	text, newHistory, err := client.Converse(context.Background(), Request{
		Query:       "how are you?",
		System:      "SYS",
		History:     history,
		Temperature: 0.9, // ignored by this backend
		Stop:        "#", // likewise
	})
	if err != nil {
		t.Fatalf("Converse() error = %v", err)
	}
	if text != "fine, thanks" {
		t.Errorf("Converse() text = %q, want %q", text, "fine, thanks")
	}
	if len(newHistory) != 2 || newHistory[1] != (Turn{Query: "how are you?", Response: "fine, thanks"}) {
		t.Errorf("new history = %+v", newHistory)
	}

	if gotPath != "/v1/completions/" {
		t.Errorf("request path = %q, want %q", gotPath, "/v1/completions/")
	}
	if gotReq.Model != "kagentlms_baichuan2_13b_mat" {
		t.Errorf("request model = %q", gotReq.Model)
	}

	// Model name contains "baichuan", so the prompt uses the reserved-token
	// dialect with the system text ahead of the first turn.
	wantPrompt := "SYS<reserved_106>hello<reserved_107>hi<reserved_106>how are you?<reserved_107>"
	if gotReq.Prompt != wantPrompt {
		t.Errorf("request prompt = %q, want %q", gotReq.Prompt, wantPrompt)
	}

	// Sampling parameters are pinned regardless of the caller's values.
	if gotReq.Temperature != 0.1 || gotReq.TopP != 0.75 || gotReq.TopK != 40 || gotReq.MaxTokens != 512 {
		t.Errorf("sampling = {%v %v %d %d}, want {0.1 0.75 40 512}",
			gotReq.Temperature, gotReq.TopP, gotReq.TopK, gotReq.MaxTokens)
	}
}

func TestFastChatClient_DefaultDialect(t *testing.T) {
	var gotReq completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]string{{"text": "ok"}},
		})
	}))
	defer server.Close()

	client := fastchatClientFor(t, server, "vicuna-13b")
	if _, _, err := client.Converse(context.Background(), Request{Query: "hi", System: "SYS"}); err != nil {
		t.Fatalf("Converse() error = %v", err)
	}

	if gotReq.Prompt != "SYSUser:hi\nAssistant\n" {
		t.Errorf("request prompt = %q, want default dialect", gotReq.Prompt)
	}
	if strings.Contains(gotReq.Prompt, "<reserved_106>") {
		t.Errorf("unknown model selected the baichuan dialect: %q", gotReq.Prompt)
	}
}

func TestFastChatClient_Degrades(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "missing choices field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"object": "text_completion"}`))
			},
		},
		{
			name: "malformed envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json at all"))
			},
		},
		{
			name: "server error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model not loaded", http.StatusServiceUnavailable)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := fastchatClientFor(t, server, "vicuna-13b")

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

func TestNewFastChatClientDefaults(t *testing.T) {
	client := NewFastChatClient("some-model", "", 0, nil)
	if client.Host != "localhost" {
		t.Errorf("Host = %q, want %q", client.Host, "localhost")
	}
	if client.Port != 8888 {
		t.Errorf("Port = %d, want %d", client.Port, 8888)
	}
	if client.Timeout <= 0 {
		t.Error("Timeout should be positive")
	}
}
