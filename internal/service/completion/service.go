package completion

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"docchat/internal/config"
	"docchat/internal/models"
)

const (
	// maxContextChars caps the document text placed in a prompt,
	// counted in characters rather than tokens.
	maxContextChars = 12000
	// truncationNotice is appended whenever document text is cut.
	truncationNotice = "... (text truncated due to length)"
	// maxCompletionTokens caps the generated reply length.
	maxCompletionTokens = 500
)

const summarySystemPrompt = "You are a helpful assistant that summarizes text. " +
	"Provide a concise summary of the main points."

const chatSystemPrompt = "You are a helpful assistant that answers questions about an uploaded document. " +
	"Ground every answer in the document content provided below and say so when the document does not contain the answer."

// ErrCompletionFailed wraps any backend failure from the completion service.
var ErrCompletionFailed = errors.New("completion request failed")

// Service talks to the configured chat-completion provider.
type Service struct {
	chatModel model.ToolCallingChatModel
}

// NewService builds the chat model for the provider named in cfg.
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}

	var (
		chatModel model.ToolCallingChatModel
		err       error
	)

	switch cfg.Provider {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
		})
	case "gemini":
		client, cerr := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: cfg.APIKey,
		})
		if cerr != nil {
			return nil, fmt.Errorf("create gemini client: %w", cerr)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  cfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if cfg.BaseURL != "" {
			baseURLPtr = &cfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: maxCompletionTokens,
		})
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", cfg.Provider, err)
	}

	return &Service{chatModel: chatModel}, nil
}

// Summarize produces a one-shot summary of the given document text.
// Single attempt, no retry.
func (s *Service) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := s.chatModel.Generate(ctx, buildSummaryMessages(text), model.WithMaxTokens(maxCompletionTokens))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	return resp.Content, nil
}

// Continue answers the newest user turn in history, grounded in docText.
// history carries the whole transcript including that newest turn.
func (s *Service) Continue(ctx context.Context, docText string, history []models.Message) (string, error) {
	resp, err := s.chatModel.Generate(ctx, buildChatMessages(docText, history), model.WithMaxTokens(maxCompletionTokens))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	return resp.Content, nil
}

func buildSummaryMessages(text string) []*schema.Message {
	return []*schema.Message{
		{
			Role:    schema.System,
			Content: summarySystemPrompt,
		},
		{
			Role:    schema.User,
			Content: "Summarize the following text:\n\n" + truncate(text),
		},
	}
}

func buildChatMessages(docText string, history []models.Message) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs,
		&schema.Message{
			Role:    schema.System,
			Content: chatSystemPrompt,
		},
		&schema.Message{
			Role:    schema.System,
			Content: "Document content:\n\n" + truncate(docText),
		},
	)
	for _, m := range history {
		msgs = append(msgs, &schema.Message{
			Role:    toSchemaRole(m.Role),
			Content: m.Content,
		})
	}
	return msgs
}

// truncate caps text at maxContextChars runes and marks any cut with
// truncationNotice.
func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxContextChars {
		return text
	}
	return string(runes[:maxContextChars]) + truncationNotice
}

func toSchemaRole(role models.Role) schema.RoleType {
	switch role {
	case models.RoleAssistant:
		return schema.Assistant
	case models.RoleSystem:
		return schema.System
	default:
		return schema.User
	}
}
