package openai

import (
	"encoding/json"
	"testing"

	"github.com/kbukum/voicebrief/llm"
)

func TestBuildRequest(t *testing.T) {
	body, err := Dialect{}.BuildRequest(llm.CompletionRequest{
		Model:        "gpt-4o",
		SystemPrompt: "Be brief.",
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "Summarize this text: hi"}},
		MaxTokens:    150,
	})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	data, _ := json.Marshal(body)
	var got struct {
		Model     string        `json:"model"`
		Messages  []llm.Message `json:"messages"`
		MaxTokens int           `json:"max_tokens"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Model != "gpt-4o" || got.MaxTokens != 150 {
		t.Errorf("unexpected request %s", data)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != llm.RoleSystem || got.Messages[1].Content != "Summarize this text: hi" {
		t.Errorf("unexpected messages %+v", got.Messages)
	}
}

func TestBuildRequest_RequiresModel(t *testing.T) {
	if _, err := (Dialect{}).BuildRequest(llm.CompletionRequest{}); err == nil {
		t.Error("expected error without model")
	}
}

func TestParseResponse(t *testing.T) {
	resp, err := Dialect{}.ParseResponse([]byte(`{
		"id": "chatcmpl-1",
		"model": "gpt-4o",
		"choices": [{"message": {"role": "assistant", "content": "Greeting."}}],
		"usage": {"prompt_tokens": 5, "completion_tokens": 2, "total_tokens": 7}
	}`))
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if resp.ID != "chatcmpl-1" || resp.Content != "Greeting." || resp.Usage.TotalTokens != 7 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestParseResponse_Invalid(t *testing.T) {
	for _, body := range []string{`{"choices":[]}`, `nope`} {
		if _, err := (Dialect{}).ParseResponse([]byte(body)); err == nil {
			t.Errorf("expected error for %s", body)
		}
	}
}
