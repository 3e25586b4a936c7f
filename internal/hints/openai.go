package hints

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const systemPrompt = "You are a helpful SQL tutor who provides hints without giving complete solutions."

// OpenAIGenerator produces hints through an OpenAI-compatible chat
// completions API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator. Returns ErrNotConfigured
// when no API key is set so callers can degrade gracefully.
func NewOpenAIGenerator(apiKey, baseURL, model string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	return &OpenAIGenerator{client: &client, model: model}, nil
}

// Generate asks the model for a nudge toward the solution. The prompt
// forbids handing over the full query.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(req)),
		},
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(200),
	})
	if err != nil {
		return "", fmt.Errorf("hint generation failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("hint generation returned no choices")
	}
	hint := strings.TrimSpace(completion.Choices[0].Message.Content)
	if hint == "" {
		return "", fmt.Errorf("hint generation returned empty text")
	}
	return hint, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("A student is working on the following SQL assignment:\n\n")
	b.WriteString("ASSIGNMENT QUESTION:\n")
	b.WriteString(req.Question)
	b.WriteString("\n\nAVAILABLE TABLES:\n")
	b.WriteString(req.SchemaText)
	if req.UserQuery != "" {
		b.WriteString("\n\nSTUDENT'S CURRENT QUERY:\n")
		b.WriteString(req.UserQuery)
	}
	b.WriteString(`

Provide a helpful hint that guides the student toward the solution WITHOUT giving away the complete or near-complete answer.

Guidelines:
- Point them in the right direction
- Suggest SQL concepts or functions they might need to use
- Mention relevant table relationships or columns
- DO NOT provide the complete SQL query
- Keep the hint concise (2-4 sentences)
- Be encouraging and educational

Provide only the hint text, no additional explanation or formatting.`)
	return b.String()
}
