package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ficr/insight/pkg/circuitbreaker"
	"github.com/ficr/insight/pkg/logger"
	"github.com/ficr/insight/pkg/retry"
)

const reportSystemPrompt = `You are a fire safety engineer writing an audit report from SPARQL query results over a FiCR building model.

The input is the JSON output of the preset query suite: inventory (storeys, spaces, elements), compliance (REI checks, doorset obstruction) and risk-informed insights (risk units, boundary assumptions, evidence gaps).

Write a structured report with these sections:
1. Building overview
2. Compliance findings, worst deficits first, citing element labels and actual vs required REI
3. Risk unit confidence assessment: call out evidence gaps and unknown assumptions explicitly; a unit with no recorded assumptions must be flagged as unassessed, never as compliant
4. Recommended actions in priority order

Be precise and conservative. Never invent figures that are not in the input.`

// Provider is one OpenAI-compatible chat backend. Only providers whose API
// key env var is set are offered to the UI. Anthropic and Gemini speak
// different wire protocols and are not served by this build.
type Provider struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Models       []string `json:"models"`
	DefaultModel string   `json:"default_model"`
	envVar       string
	baseURL      string
}

var providerRegistry = []Provider{
	{
		ID:           "openai",
		Label:        "OpenAI",
		Models:       []string{"gpt-4o", "gpt-4o-mini", "o1", "o3-mini"},
		DefaultModel: "gpt-4o",
		envVar:       "OPENAI_API_KEY",
	},
	{
		ID:           "deepseek",
		Label:        "DeepSeek",
		Models:       []string{"deepseek-chat", "deepseek-reasoner"},
		DefaultModel: "deepseek-chat",
		envVar:       "DEEPSEEK_API_KEY",
		baseURL:      "https://api.deepseek.com/v1",
	},
	{
		ID:           "glm",
		Label:        "Zhipu GLM",
		Models:       []string{"glm-4-plus", "glm-4-flash"},
		DefaultModel: "glm-4-plus",
		envVar:       "GLM_API_KEY",
		baseURL:      "https://open.bigmodel.cn/api/paas/v4",
	},
}

// AvailableProviders lists providers with a configured API key.
func AvailableProviders() []Provider {
	available := make([]Provider, 0)
	for _, p := range providerRegistry {
		if os.Getenv(p.envVar) != "" {
			available = append(available, p)
		}
	}
	return available
}

func lookupProvider(id string) (Provider, bool) {
	for _, p := range providerRegistry {
		if p.ID == id {
			return p, true
		}
	}
	return Provider{}, false
}

// LLMClient streams report generation from an OpenAI-compatible provider.
type LLMClient struct {
	temperature float32
	maxTokens   int
	timeout     time.Duration
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewLLMClient(temperature float32, maxTokens, timeoutSec int) *LLMClient {
	cb := circuitbreaker.NewCircuitBreaker("llm", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	return &LLMClient{
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     time.Duration(timeoutSec) * time.Second,
		cb:          cb,
		retryConfig: retryConfig,
	}
}

// StreamReport generates the audit report and feeds each text chunk to
// onChunk as it arrives. Stream establishment is retried behind the circuit
// breaker; once the first chunk has been delivered, a failure is returned
// as-is so the caller can surface it on the event stream.
func (c *LLMClient) StreamReport(ctx context.Context, providerID, model, userMessage string, onChunk func(text string) error) error {
	provider, ok := lookupProvider(providerID)
	if !ok {
		return fmt.Errorf("unknown provider %q", providerID)
	}

	apiKey := os.Getenv(provider.envVar)
	if apiKey == "" {
		return fmt.Errorf("provider %q has no API key configured", providerID)
	}
	if model == "" {
		model = provider.DefaultModel
	}

	cfg := openai.DefaultConfig(apiKey)
	if provider.baseURL != "" {
		cfg.BaseURL = provider.baseURL
	}
	client := openai.NewClientWithConfig(cfg)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stream:      true,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: reportSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
	}

	var stream *openai.ChatCompletionStream
	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			var err error
			stream, err = client.CreateChatCompletionStream(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to open completion stream: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}
	defer stream.Close()

	logger.Info("LLM report stream opened",
		zap.String("provider", providerID),
		zap.String("model", model),
	)

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("completion stream failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if text := resp.Choices[0].Delta.Content; text != "" {
			if err := onChunk(text); err != nil {
				return err
			}
		}
	}
}
