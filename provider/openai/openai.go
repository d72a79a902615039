package openai_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mohammad-safakhou/docportal/config"
	"github.com/mohammad-safakhou/docportal/internal/schema"
	"github.com/mohammad-safakhou/docportal/models"
)

// client implements the analysis callout against an OpenAI-compatible
// chat completions API
type client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

// Message represents a message in a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// request represents a chat completions request
type request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// response represents a chat completions response
type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient creates a new OpenAI client
func NewClient(cfg config.OpenAIConfig) *client {
	return &client{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

// AnalyzeDocument extracts structured metadata and a summary from the
// given document text. The model output is validated against the
// metadata schema before it is decoded.
func (c *client) AnalyzeDocument(ctx context.Context, documentText string) (models.Metadata, error) {
	prompt := fmt.Sprintf(`You are a highly capable assistant trained to analyze and summarize documents.
Return ONLY valid JSON matching the exact schema below.

%s

Analyze this document:
%s

Remember: Output must be valid JSON only, no additional commentary.`, schema.MetadataSchema(), documentText)

	raw, err := c.sendRequest(ctx, []Message{{Role: "user", Content: prompt}})
	if err != nil {
		return models.Metadata{}, err
	}

	payload := []byte(stripJSONFences(raw))
	if err := schema.ValidateMetadata(payload); err != nil {
		return models.Metadata{}, fmt.Errorf("metadata response rejected: %w", err)
	}
	var meta models.Metadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return models.Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return meta, nil
}

// CompareDocuments produces page-level change records for a combined
// corpus of two document versions.
func (c *client) CompareDocuments(ctx context.Context, combinedText string) ([]models.PageChange, error) {
	prompt := fmt.Sprintf(`You will be provided with the contents of two documents, a reference version and an actual version.
Compare them page by page and report every difference.

Return ONLY a valid JSON array matching the exact schema below. Use the page identifier from the
page markers; if a change cannot be attributed to a page, use "NA" as the page identifier.

%s

Documents:
%s

Remember: Output must be valid JSON only, no additional commentary.`, schema.ChangeListSchema(), combinedText)

	raw, err := c.sendRequest(ctx, []Message{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, err
	}

	payload := []byte(stripJSONFences(raw))
	if err := schema.ValidateChangeList(payload); err != nil {
		return nil, fmt.Errorf("comparison response rejected: %w", err)
	}
	var changes []models.PageChange
	if err := json.Unmarshal(payload, &changes); err != nil {
		return nil, fmt.Errorf("failed to parse comparison: %w", err)
	}
	return changes, nil
}

// sendRequest sends a chat completions request and returns the first
// choice's content.
func (c *client) sendRequest(ctx context.Context, messages []Message) (string, error) {
	requestBody := request{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status: %d", resp.StatusCode)
	}

	var openaiResp response
	if err := json.NewDecoder(resp.Body).Decode(&openaiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(openaiResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return openaiResp.Choices[0].Message.Content, nil
}

// stripJSONFences removes a markdown code fence around a JSON payload if
// the model added one despite instructions.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
