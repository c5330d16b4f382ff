package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"flowchat/platform"

	"github.com/openai/openai-go"
)

const systemPrompt = "You are a helpful assistant."

// LLMGenerator streams completions from an OpenAI-compatible endpoint.
type LLMGenerator struct {
	Client *openai.Client
	Model  string
}

func NewLLMGenerator() *LLMGenerator {
	m := os.Getenv("LLM_MODEL")
	if m == "" {
		m = "qwen-turbo"
	}
	return &LLMGenerator{Client: platform.LLMClient, Model: m}
}

// Generate streams a chat completion, forwarding each delta to onChunk. When
// withSearch is set, URLs in the final user turn are fetched and injected as
// grounding context; the fetched URLs come back as the citation list.
func (g *LLMGenerator) Generate(ctx context.Context, turns []ChatTurn, withSearch bool, onChunk func(delta string)) (*GenerateResult, error) {
	system := systemPrompt
	var sources []string
	if withSearch && len(turns) > 0 {
		pageContext, fetched := buildSearchContext(turns[len(turns)-1].Content)
		if pageContext != "" {
			system = system + "\n\n" + pageContext
			sources = fetched
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages:    openai.F([]openai.ChatCompletionMessageParamUnion{}),
		Model:       openai.F(g.Model),
		Temperature: openai.F(1.3),
		StreamOptions: openai.F(openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.F(true),
		}),
	}
	var systemContent any = system
	params.Messages.Value = append(params.Messages.Value, openai.ChatCompletionMessageParam{
		Role:    openai.F(openai.ChatCompletionMessageParamRoleSystem),
		Content: openai.F(systemContent),
	})
	for _, turn := range turns {
		var content any = turn.Content
		params.Messages.Value = append(params.Messages.Value, openai.ChatCompletionMessageParam{
			Role:    openai.F(openai.ChatCompletionMessageParamRole(turn.Role)),
			Content: openai.F(content),
		})
	}

	stream := g.Client.Chat.Completions.NewStreaming(ctx, params)
	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 {
			delta := chunk.Choices[0].Delta.Content
			if delta != "" {
				onChunk(delta)
			}
		}
		if _, ok := acc.JustFinishedContent(); ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("completion stream: %w", err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if len(acc.Choices) == 0 {
		return nil, errors.New("completion returned no choices")
	}
	return &GenerateResult{
		Content: acc.Choices[0].Message.Content,
		Sources: sources,
	}, nil
}
