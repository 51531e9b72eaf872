package providers

import (
	"github.com/benhli40/Orion/pkg/config"
)

// CreateProvider builds the LLM backend from configuration. Missing
// credentials are fatal at this boundary only.
func CreateProvider(cfg *config.Config) (LLMProvider, error) {
	return NewHTTPProvider(HTTPProviderOptions{
		APIKey:      cfg.Provider.APIKey,
		APIBase:     cfg.Provider.APIBase,
		Model:       cfg.Provider.Model,
		MaxTokens:   cfg.Provider.MaxTokens,
		Temperature: cfg.Provider.Temperature,
		Instruction: cfg.Assistant.SystemInstruction,
	})
}
