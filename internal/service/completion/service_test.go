package completion

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"

	"docchat/internal/config"
	"docchat/internal/models"
)

func TestTruncateKeepsShortText(t *testing.T) {
	for _, text := range []string{"", "short", strings.Repeat("a", maxContextChars)} {
		if got := truncate(text); got != text {
			t.Errorf("truncate(%d chars) changed the text", len(text))
		}
	}
}

func TestTruncateCutsLongText(t *testing.T) {
	text := strings.Repeat("a", maxContextChars+500)
	got := truncate(text)
	want := strings.Repeat("a", maxContextChars) + truncationNotice
	if got != want {
		t.Errorf("truncate() = %d chars, want %d chars ending in notice", len(got), len(want))
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	text := strings.Repeat("界", maxContextChars+1)
	got := truncate(text)
	if !strings.HasSuffix(got, truncationNotice) {
		t.Fatalf("truncate() missing notice on multibyte text")
	}
	kept := strings.TrimSuffix(got, truncationNotice)
	if n := utf8.RuneCountInString(kept); n != maxContextChars {
		t.Errorf("truncate() kept %d runes, want %d", n, maxContextChars)
	}
}

func TestBuildSummaryMessages(t *testing.T) {
	msgs := buildSummaryMessages("the document text")
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != schema.System || msgs[0].Content != summarySystemPrompt {
		t.Errorf("system message = %s %q", msgs[0].Role, msgs[0].Content)
	}
	if msgs[1].Role != schema.User {
		t.Errorf("user message role = %s", msgs[1].Role)
	}
	if want := "Summarize the following text:\n\nthe document text"; msgs[1].Content != want {
		t.Errorf("user message = %q, want %q", msgs[1].Content, want)
	}
}

func TestBuildSummaryMessagesTruncatesDocument(t *testing.T) {
	msgs := buildSummaryMessages(strings.Repeat("x", maxContextChars*2))
	if !strings.HasSuffix(msgs[1].Content, truncationNotice) {
		t.Errorf("long document not truncated in prompt")
	}
}

func TestBuildChatMessages(t *testing.T) {
	history := []models.Message{
		{Role: models.RoleUser, Content: "first question"},
		{Role: models.RoleAssistant, Content: "first answer"},
		{Role: models.RoleUser, Content: "second question"},
	}
	msgs := buildChatMessages("the document text", history)
	if len(msgs) != 5 {
		t.Fatalf("got %d messages, want 5", len(msgs))
	}
	if msgs[0].Role != schema.System || msgs[0].Content != chatSystemPrompt {
		t.Errorf("persona message = %s %q", msgs[0].Role, msgs[0].Content)
	}
	if msgs[1].Role != schema.System {
		t.Errorf("document message role = %s", msgs[1].Role)
	}
	if want := "Document content:\n\nthe document text"; msgs[1].Content != want {
		t.Errorf("document message = %q, want %q", msgs[1].Content, want)
	}
	wantRoles := []schema.RoleType{schema.User, schema.Assistant, schema.User}
	for i, m := range msgs[2:] {
		if m.Role != wantRoles[i] {
			t.Errorf("history[%d] role = %s, want %s", i, m.Role, wantRoles[i])
		}
		if m.Content != history[i].Content {
			t.Errorf("history[%d] content = %q, want %q", i, m.Content, history[i].Content)
		}
	}
}

func TestToSchemaRole(t *testing.T) {
	cases := map[models.Role]schema.RoleType{
		models.RoleUser:      schema.User,
		models.RoleAssistant: schema.Assistant,
		models.RoleSystem:    schema.System,
		models.Role("other"): schema.User,
	}
	for in, want := range cases {
		if got := toSchemaRole(in); got != want {
			t.Errorf("toSchemaRole(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestNewServiceUnknownProvider(t *testing.T) {
	cfg := &config.Config{Provider: "nonexistent", Model: "some-model", APIKey: "key"}
	if _, err := NewService(context.Background(), cfg); err == nil {
		t.Fatal("NewService accepted an unknown provider")
	}
}
