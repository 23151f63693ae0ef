package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/rumit2000/CVBotDevelop/internal/config"
)

// openaiAPI is the subset of the go-openai client used here. Declaring it as
// an interface allows test doubles to be injected without real API calls.
type openaiAPI interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient wraps the OpenAI API with a circuit breaker. Persistent API
// failures trip the breaker so a dead upstream fails fast instead of
// stalling ingestion or bot replies.
type OpenAIClient struct {
	cfg config.OpenAIConfig
	cb  *gobreaker.CircuitBreaker
	api openaiAPI
}

// NewOpenAIClient creates an OpenAIClient. No network traffic happens at
// construction time.
func NewOpenAIClient(cfg config.OpenAIConfig, cb *gobreaker.CircuitBreaker) *OpenAIClient {
	return &OpenAIClient{
		cfg: cfg,
		cb:  cb,
		api: openai.NewClient(cfg.APIKey),
	}
}

// Embed returns one embedding vector per input text, in input order.
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out, err := c.cb.Execute(func() (any, error) {
		resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts,
			Model: openai.EmbeddingModel(c.cfg.EmbeddingModel),
		})
		if err != nil {
			return nil, fmt.Errorf("creating embeddings: %w", err)
		}
		if len(resp.Data) != len(texts) {
			return nil, fmt.Errorf("embedding count mismatch: got %d for %d inputs", len(resp.Data), len(texts))
		}

		vecs := make([][]float32, len(resp.Data))
		for i, d := range resp.Data {
			vecs[i] = d.Embedding
		}
		return vecs, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return nil, fmt.Errorf("openai circuit open: %w", err)
		}
		return nil, err
	}

	return out.([][]float32), nil
}

// Complete runs a single system+user chat completion and returns the
// assistant's trimmed reply.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	out, err := c.cb.Execute(func() (any, error) {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.cfg.ChatModel,
			Temperature: c.cfg.Temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("chat completion returned no choices")
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return "", fmt.Errorf("openai circuit open: %w", err)
		}
		return "", err
	}

	return out.(string), nil
}
