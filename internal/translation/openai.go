package translation

import (
	"context"
	"fmt"
	"time"

	"github.com/linguabridge/translate-gateway/internal/config"
	"github.com/linguabridge/translate-gateway/internal/langid"
	"github.com/linguabridge/translate-gateway/internal/observability"
	"github.com/linguabridge/translate-gateway/internal/resilience"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAITranslator implements Translator over an OpenAI-compatible chat
// completions endpoint. Calls are guarded by a circuit breaker; there is no
// automatic retry, since a missing translation only degrades that one line.
type OpenAITranslator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	breaker *resilience.CircuitBreaker
	logger  zerolog.Logger
}

// NewOpenAITranslator builds a translator from service configuration.
func NewOpenAITranslator(cfg *config.Config) *OpenAITranslator {
	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}

	breaker := resilience.NewCircuitBreaker(
		"translator",
		cfg.CircuitBreakerMaxFailures,
		time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
	)

	return &OpenAITranslator{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.TranslationModel,
		timeout: time.Duration(cfg.TranslationTimeout) * time.Second,
		breaker: breaker,
		logger:  observability.ComponentLogger("translator"),
	}
}

// Translate performs one chat-completion translation round trip.
func (t *OpenAITranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	var out string

	err := t.breaker.Call(func() error {
		callCtx, cancel := context.WithTimeout(ctx, t.timeout)
		defer cancel()

		source := langid.ByCode(sourceLang)
		target := langid.ByCode(targetLang)

		req := openai.ChatCompletionRequest{
			Model: t.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role: openai.ChatMessageRoleSystem,
					Content: fmt.Sprintf(
						"You are a translation engine. Translate the user's text from %s to %s. Output only the translation, nothing else.",
						source.Name, target.Name),
				},
				{Role: openai.ChatMessageRoleUser, Content: text},
			},
			Temperature: 0.2, // Low temperature for faithful translation
		}

		start := time.Now()
		resp, err := t.client.CreateChatCompletion(callCtx, req)
		duration := time.Since(start)

		if err != nil {
			t.logger.Warn().Err(err).Dur("duration", duration).Msg("Chat completion call failed")
			return fmt.Errorf("openai chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("openai chat completion: no response choices")
		}

		out = resp.Choices[0].Message.Content
		t.logger.Debug().
			Dur("duration", duration).
			Str("source", sourceLang).
			Str("target", targetLang).
			Msg("Translation completed")
		return nil
	})

	observability.UpdateCircuitBreakerState("translator", int(t.breaker.GetState()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures("translator")
		return "", err
	}
	return out, nil
}

// CheckHealth verifies the endpoint accepts our credentials.
func (t *OpenAITranslator) CheckHealth(ctx context.Context) error {
	if _, err := t.client.ListModels(ctx); err != nil {
		return fmt.Errorf("translation backend unreachable: %w", err)
	}
	return nil
}
