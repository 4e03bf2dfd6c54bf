package llm

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderHTTP       = "http"

	DefaultOpenRouterURL = "https://openrouter.ai/api/v1"
	DefaultOpenAIURL     = "https://api.openai.com/v1"
)

// ProviderConfig selects and configures a completion endpoint.
type ProviderConfig struct {
	Provider string
	APIURL   string
	APIKey   string
	Timeout  time.Duration
}

// Endpoint is a completer that can also list its models.
type Endpoint interface {
	Completer
	ModelLister
}

// NewCompleter builds the endpoint client for cfg.Provider.
func NewCompleter(cfg ProviderConfig) (Endpoint, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	hc := &http.Client{Timeout: timeout}

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenRouter, "":
		url := orDefault(cfg.APIURL, DefaultOpenRouterURL)
		return NewOpenAIClient(url, cfg.APIKey, hc, openRouterHeaders()), nil
	case ProviderOpenAI:
		return NewOpenAIClient(orDefault(cfg.APIURL, DefaultOpenAIURL), cfg.APIKey, hc, nil), nil
	case ProviderHTTP:
		if cfg.APIURL == "" {
			return nil, fmt.Errorf("provider %q requires api_url", cfg.Provider)
		}
		opts := []ClientOption{WithHTTPClient(hc)}
		for k, v := range openRouterHeaders() {
			opts = append(opts, WithHeader(k, v))
		}
		return NewClient(cfg.APIURL, cfg.APIKey, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

// openRouterHeaders identifies the app on OpenRouter's dashboards.
func openRouterHeaders() map[string]string {
	return map[string]string{
		"HTTP-Referer": "http://localhost",
		"X-Title":      "Ghost Assistant",
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
