package llm

import (
	"errors"
	"strings"
)

// Provider names the backing LLM vendor.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderDeepSeek   Provider = "deepseek"
	ProviderPerplexity Provider = "perplexity"
)

// ErrorKind classifies a provider-side failure. Classification is by message
// pattern, not status code, because the gateway abstracts over heterogeneous
// providers.
type ErrorKind string

const (
	KindAuth      ErrorKind = "auth"
	KindQuota     ErrorKind = "quota"
	KindRateLimit ErrorKind = "rate_limit"
	KindMalformed ErrorKind = "malformed_response"
	KindUnknown   ErrorKind = "unknown"
)

// APIError is a provider-side failure.
type APIError struct {
	Provider Provider
	Kind     ErrorKind
	Message  string
	Err      error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return string(e.Provider) + " api error (" + string(e.Kind) + "): " + e.Err.Error()
	}

	return string(e.Provider) + " api error (" + string(e.Kind) + "): " + e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsQuotaError reports whether err carries a quota or rate-limit signature,
// the trigger for the secondary-provider fallback.
func IsQuotaError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindQuota || apiErr.Kind == KindRateLimit
	}

	return false
}

var quotaPatterns = []string{
	"insufficient_quota",
	"exceeded your current quota",
	"429",
}

var rateLimitPatterns = []string{
	"rate limit",
	"rate_limit",
	"too many requests",
}

var authPatterns = []string{
	"invalid api key",
	"invalid_api_key",
	"incorrect api key",
	"401",
	"unauthorized",
	"authentication",
}

// classifyError wraps a transport or vendor error into an APIError with the
// kind derived from its message.
func classifyError(provider Provider, err error) error {
	msg := strings.ToLower(err.Error())

	kind := KindUnknown

	switch {
	case matchesAny(msg, quotaPatterns):
		kind = KindQuota
	case matchesAny(msg, rateLimitPatterns):
		kind = KindRateLimit
	case matchesAny(msg, authPatterns):
		kind = KindAuth
	}

	return &APIError{Provider: provider, Kind: kind, Err: err}
}

func matchesAny(msg string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
