package llm

import (
	"errors"
	"testing"
)

func TestBuildChatMessages(t *testing.T) {
	history := History{
		{Query: "q1", Response: "r1"},
		{Query: "q2", Response: "r2"},
	}

	got := buildChatMessages("q3", "S", history)

	want := []chatMessage{
		{Role: "system", Content: "S"},
		{Role: "user", Content: "q1"},
		{Role: "assistant", Content: "r1"},
		{Role: "user", Content: "q2"},
		{Role: "assistant", Content: "r2"},
		{Role: "user", Content: "q3"},
	}

	if len(got) != len(want) {
		t.Fatalf("buildChatMessages() returned %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("buildChatMessages()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBuildChatMessagesNoSystem(t *testing.T) {
	got := buildChatMessages("hello", "", nil)

	if len(got) != 1 {
		t.Fatalf("buildChatMessages() returned %d entries, want 1", len(got))
	}
	if got[0].Role != "user" || got[0].Content != "hello" {
		t.Errorf("buildChatMessages()[0] = %+v, want user/hello", got[0])
	}
}

func TestBuildGeminiContents(t *testing.T) {
	history := History{{Query: "q1", Response: "r1"}}

	got, err := buildGeminiContents("q2", "", history)
	if err != nil {
		t.Fatalf("buildGeminiContents() error = %v", err)
	}

	wantRoles := []string{"user", "model", "user"}
	wantTexts := []string{"q1", "r1", "q2"}

	if len(got) != len(wantRoles) {
		t.Fatalf("buildGeminiContents() returned %d entries, want %d", len(got), len(wantRoles))
	}
	for i := range got {
		if got[i].Role != wantRoles[i] {
			t.Errorf("entry %d role = %q, want %q", i, got[i].Role, wantRoles[i])
		}
		if len(got[i].Parts) != 1 {
			t.Fatalf("entry %d has %d parts, want 1", i, len(got[i].Parts))
		}
		if got[i].Parts[0].Text != wantTexts[i] {
			t.Errorf("entry %d text = %q, want %q", i, got[i].Parts[0].Text, wantTexts[i])
		}
	}
}

func TestBuildGeminiContentsRejectsSystem(t *testing.T) {
	_, err := buildGeminiContents("q", "you are helpful", nil)
	if err == nil {
		t.Fatal("buildGeminiContents() with system prompt should fail, not drop it")
	}
	if !IsPrecondition(err) {
		t.Errorf("error kind = %v, want precondition", err)
	}
	if !errors.Is(err, ErrSystemPromptUnsupported) {
		t.Errorf("error = %v, want ErrSystemPromptUnsupported", err)
	}
}
