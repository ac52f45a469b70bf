package llm

import (
	"strings"
	"testing"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/linguafluent/linguafluent/pkg/provider/translate"
)

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New("", "gpt-4o-mini"); err == nil {
		t.Error("New with empty provider name should fail")
	}
	if _, err := New("ollama", ""); err == nil {
		t.Error("New with empty model should fail")
	}
	if _, err := New("not-a-provider", "m"); err == nil {
		t.Error("New with unknown provider name should fail")
	}
}

func TestBuildParams(t *testing.T) {
	t.Parallel()

	p, err := NewOllama("llama3.1")
	if err != nil {
		t.Fatalf("NewOllama: %v", err)
	}

	params := p.buildParams(translate.Request{
		SourceLanguage: "en",
		TargetLanguage: "fr",
		Text:           "good morning",
	})

	if params.Model != "llama3.1" {
		t.Errorf("Model = %q, want %q", params.Model, "llama3.1")
	}
	if len(params.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(params.Messages))
	}
	if params.Messages[0].Role != anyllmlib.RoleSystem {
		t.Errorf("first message role = %q, want system", params.Messages[0].Role)
	}
	if params.Messages[0].Content != translate.Directive {
		t.Errorf("system message = %q, want the translation directive", params.Messages[0].Content)
	}
	if params.Messages[1].Role != anyllmlib.RoleUser {
		t.Errorf("second message role = %q, want user", params.Messages[1].Role)
	}
	userContent, ok := params.Messages[1].Content.(string)
	if !ok {
		t.Fatalf("user message content is %T, want string", params.Messages[1].Content)
	}
	if !strings.Contains(userContent, "from English to French") {
		t.Errorf("user message %q lacks the language pair", params.Messages[1].Content)
	}
	if params.Temperature == nil || *params.Temperature != 0 {
		t.Error("Temperature should be pinned to 0")
	}
}
