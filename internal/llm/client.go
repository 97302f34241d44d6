// Package llm wraps the OpenAI-compatible client used for chat completions
// and embeddings behind a circuit breaker.
package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"

	"storefront/internal/logging"
	"storefront/internal/metrics"
)

const breakerName = "openai"

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client satisfies both the assistant's chat completer and the knowledge
// embedder's transport.
type Client struct {
	api     *openai.Client
	breaker *gobreaker.CircuitBreaker[any]
}

func New(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		api:     openai.NewClientWithConfig(oc),
		breaker: newBreaker(),
	}
}

func newBreaker() *gobreaker.CircuitBreaker[any] {
	metrics.BreakerState.WithLabelValues(breakerName).Set(float64(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// caller cancellations say nothing about upstream health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
}

func (c *Client) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	out, err := c.breaker.Execute(func() (any, error) {
		return c.api.CreateChatCompletion(ctx, req)
	})
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	return out.(openai.ChatCompletionResponse), nil
}

func (c *Client) CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	out, err := c.breaker.Execute(func() (any, error) {
		return c.api.CreateEmbeddings(ctx, req)
	})
	if err != nil {
		return openai.EmbeddingResponse{}, err
	}
	return out.(openai.EmbeddingResponse), nil
}
