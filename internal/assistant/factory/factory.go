// internal/assistant/factory/factory.go
package factory

import (
	"fmt"

	"github.com/covergrid/pulse/internal/assistant"
	"github.com/covergrid/pulse/internal/assistant/claude"
	"github.com/covergrid/pulse/internal/assistant/openai"
	"github.com/covergrid/pulse/internal/config"
)

// New creates an assistant provider based on configuration.
func New(cfg config.AssistantConfig) (assistant.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
	case "claude":
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model)
	default:
		return nil, fmt.Errorf("unknown assistant provider: %s", cfg.Provider)
	}
}
