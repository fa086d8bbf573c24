package summarize

import (
	"context"
	"fmt"

	"github.com/conneroisu/groq-go"
)

type Groq struct {
	client *groq.Client
	model  groq.ChatModel
}

func NewGroq(apiKey, model string, opts ...groq.Opts) (*Groq, error) {
	client, err := groq.NewClient(apiKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}
	if model == "" {
		model = DefaultGroqModel
	}
	return &Groq{client: client, model: groq.ChatModel(model)}, nil
}

func (g *Groq) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model: g.model,
		Messages: []groq.ChatCompletionMessage{
			{Role: groq.RoleSystem, Content: system},
			{Role: groq.RoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("groq chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from groq")
	}
	return resp.Choices[0].Message.Content, nil
}
