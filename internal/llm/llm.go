// Package llm is a uniform gateway over the text-generation providers.
//
// Two providers are supported: OpenAI as the primary and DeepSeek as the
// secondary, both spoken through the OpenAI-compatible chat completions
// API. The provider is selected once at startup; the only mid-run switch is
// the explicit fallback path taken when the primary fails with a quota or
// rate-limit signature.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	deepSeekBaseURL   = "https://api.deepseek.com/v1"
	perplexityBaseURL = "https://api.perplexity.ai"

	rateLimiterBurst = 5

	defaultMaxTokens = 1000
)

// Roles accepted in a prompt.
const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// Message is one prompt turn.
type Message struct {
	Role    string
	Content string
}

// Options control a single completion call. Zero values fall back to the
// provider defaults.
type Options struct {
	Model            string
	MaxTokens        int
	Temperature      float32
	FrequencyPenalty float32
	PresencePenalty  float32
}

// Result is the parsed provider response. Reasoning carries the reasoner
// model's chain of thought when the provider returned one.
type Result struct {
	Text      string
	Reasoning string
}

// ProviderConfig describes one provider endpoint.
type ProviderConfig struct {
	Provider Provider
	APIKey   string
	BaseURL  string
	Model    string
}

// chatCompleter is the slice of the OpenAI client the gateway needs.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Gateway routes completion calls to the configured providers. The provider
// clients are built lazily on first use, so a Gateway is cheap to construct
// before credentials have been exercised. Construction of the lazy clients
// is not synchronized: the pipeline runs single-threaded by design.
type Gateway struct {
	primary   ProviderConfig
	secondary *ProviderConfig

	primaryClient   chatCompleter
	secondaryClient chatCompleter

	limiter   *rate.Limiter
	logger    *zerolog.Logger
	newClient func(ProviderConfig) chatCompleter
}

// NewGateway builds a gateway for the primary provider, with an optional
// secondary used only for quota fallback.
func NewGateway(primary ProviderConfig, secondary *ProviderConfig, rps float64, logger *zerolog.Logger) *Gateway {
	if rps <= 0 {
		rps = 1
	}

	return &Gateway{
		primary:   primary,
		secondary: secondary,
		limiter:   rate.NewLimiter(rate.Limit(rps), rateLimiterBurst),
		logger:    logger,
		newClient: defaultNewClient,
	}
}

// OpenAIConfig builds the primary OpenAI provider config.
func OpenAIConfig(apiKey, model string) ProviderConfig {
	return ProviderConfig{Provider: ProviderOpenAI, APIKey: apiKey, Model: model}
}

// DeepSeekConfig builds the DeepSeek provider config. DeepSeek speaks the
// OpenAI wire format behind its own base URL.
func DeepSeekConfig(apiKey, model string) ProviderConfig {
	return ProviderConfig{Provider: ProviderDeepSeek, APIKey: apiKey, BaseURL: deepSeekBaseURL, Model: model}
}

// PerplexityConfig builds the Perplexity provider config used by the research
// surface. Perplexity also speaks the OpenAI wire format.
func PerplexityConfig(apiKey, model string) ProviderConfig {
	return ProviderConfig{Provider: ProviderPerplexity, APIKey: apiKey, BaseURL: perplexityBaseURL, Model: model}
}

func defaultNewClient(cfg ProviderConfig) chatCompleter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return openai.NewClientWithConfig(clientCfg)
}

// Primary reports which provider the gateway prefers.
func (g *Gateway) Primary() Provider {
	return g.primary.Provider
}

// Complete runs one completion against the primary provider.
func (g *Gateway) Complete(ctx context.Context, messages []Message, opts Options) (*Result, error) {
	client := g.ensurePrimary()

	return g.call(ctx, client, g.primary, messages, opts)
}

// CompleteWithFallback runs the completion against the primary provider and,
// when the failure carries a quota or rate-limit signature, re-invokes the
// equivalent prompt against the secondary provider with the token budget
// halved. The secondary is a degraded-capacity substitute, not an equal.
func (g *Gateway) CompleteWithFallback(ctx context.Context, messages []Message, opts Options) (*Result, error) {
	res, err := g.Complete(ctx, messages, opts)
	if err == nil {
		return res, nil
	}

	if g.secondary == nil || !IsQuotaError(err) {
		return nil, err
	}

	g.logger.Warn().
		Str("primary", string(g.primary.Provider)).
		Str("fallback", string(g.secondary.Provider)).
		Err(err).
		Msg("primary provider exhausted, falling back")

	fallbackOpts := opts
	fallbackOpts.Model = "" // secondary's own default model

	if fallbackOpts.MaxTokens == 0 {
		fallbackOpts.MaxTokens = defaultMaxTokens
	}

	fallbackOpts.MaxTokens /= 2

	client := g.ensureSecondary()

	return g.call(ctx, client, *g.secondary, messages, fallbackOpts)
}

func (g *Gateway) ensurePrimary() chatCompleter {
	if g.primaryClient == nil {
		g.primaryClient = g.newClient(g.primary)
	}

	return g.primaryClient
}

func (g *Gateway) ensureSecondary() chatCompleter {
	if g.secondaryClient == nil {
		g.secondaryClient = g.newClient(*g.secondary)
	}

	return g.secondaryClient
}

func (g *Gateway) call(ctx context.Context, client chatCompleter, cfg ProviderConfig, messages []Message, opts Options) (*Result, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = cfg.Model
	}

	req := openai.ChatCompletionRequest{
		Model:            model,
		Messages:         toChatMessages(messages),
		MaxTokens:        opts.MaxTokens,
		Temperature:      opts.Temperature,
		FrequencyPenalty: opts.FrequencyPenalty,
		PresencePenalty:  opts.PresencePenalty,
	}

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classifyError(cfg.Provider, err)
	}

	result, err := parseResponse(cfg.Provider, resp)
	if err != nil {
		return nil, err
	}

	if result.Reasoning != "" {
		g.logger.Debug().
			Str("provider", string(cfg.Provider)).
			Str("reasoning", result.Reasoning).
			Msg("provider returned reasoning trace")
	}

	return result, nil
}

func toChatMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	return out
}

// parseResponse maps the raw provider response into a fixed Result at the
// boundary, failing with an APIError when the content field is absent.
func parseResponse(provider Provider, resp openai.ChatCompletionResponse) (*Result, error) {
	if len(resp.Choices) == 0 {
		return nil, &APIError{Provider: provider, Kind: KindMalformed, Message: "response has no choices"}
	}

	msg := resp.Choices[0].Message
	if strings.TrimSpace(msg.Content) == "" {
		return nil, &APIError{Provider: provider, Kind: KindMalformed, Message: "response content field is empty"}
	}

	return &Result{
		Text:      strings.TrimSpace(msg.Content),
		Reasoning: msg.ReasoningContent,
	}, nil
}
