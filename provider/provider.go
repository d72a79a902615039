package provider

import (
	"context"
	"errors"

	"github.com/mohammad-safakhou/docportal/config"
	"github.com/mohammad-safakhou/docportal/models"
	openai_provider "github.com/mohammad-safakhou/docportal/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI Client = "openai"
)

// Provider is the analysis callout: given extracted document text it
// returns structured metadata, or page-level change records for a
// combined two-document corpus. Implementations do not retry; the caller
// owns retry policy.
type Provider interface {
	AnalyzeDocument(ctx context.Context, documentText string) (models.Metadata, error)
	CompareDocuments(ctx context.Context, combinedText string) ([]models.PageChange, error)
}

// NewProvider creates an LLM client from configuration.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch Client(cfg.Provider) {
	case OpenAI, "":
		if cfg.OpenAI.APIKey == "" {
			return nil, errors.New("llm.openai.api_key not set")
		}
		return openai_provider.NewClient(cfg.OpenAI), nil
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
