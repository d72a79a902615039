package openai_provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/docportal/config"
)

const validMetadataJSON = `{
	"Summary": ["covers the 2024 budget", "flags two risks"],
	"Title": "Budget Review",
	"Author": "Finance Team",
	"DateCreated": "2024-01-15",
	"LastModifiedDate": "2024-02-01",
	"Publisher": "Acme Corp",
	"Language": "English",
	"PageCount": 4,
	"SentimentTone": "Neutral"
}`

// fakeChatServer replies to /chat/completions with the given message
// content and records the last request body for assertions.
func fakeChatServer(t *testing.T, content string, lastBody *map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing or wrong auth header: %q", got)
		}
		if lastBody != nil {
			var body map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decoding request body: %v", err)
			}
			*lastBody = body
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestClient(baseURL string) *client {
	return NewClient(config.OpenAIConfig{
		APIKey:      "test-key",
		BaseURL:     baseURL,
		Model:       "gpt-4o",
		Temperature: 0,
		MaxTokens:   4096,
		Timeout:     5 * time.Second,
	})
}

func TestAnalyzeDocument(t *testing.T) {
	var lastBody map[string]interface{}
	srv := fakeChatServer(t, validMetadataJSON, &lastBody)
	defer srv.Close()

	meta, err := newTestClient(srv.URL).AnalyzeDocument(context.Background(), "some document text")
	if err != nil {
		t.Fatalf("AnalyzeDocument: %v", err)
	}
	if meta.Title != "Budget Review" {
		t.Fatalf("unexpected title %q", meta.Title)
	}
	if string(meta.PageCount) != "4" {
		t.Fatalf("numeric page count not normalized: %q", meta.PageCount)
	}
	if len(meta.Summary) != 2 {
		t.Fatalf("expected 2 summary points, got %d", len(meta.Summary))
	}
	if lastBody["model"] != "gpt-4o" {
		t.Fatalf("request did not carry configured model: %v", lastBody["model"])
	}
}

func TestAnalyzeDocumentStripsCodeFences(t *testing.T) {
	fenced := "```json\n" + validMetadataJSON + "\n```"
	srv := fakeChatServer(t, fenced, nil)
	defer srv.Close()

	meta, err := newTestClient(srv.URL).AnalyzeDocument(context.Background(), "text")
	if err != nil {
		t.Fatalf("fenced response should still parse: %v", err)
	}
	if meta.Author != "Finance Team" {
		t.Fatalf("unexpected author %q", meta.Author)
	}
}

func TestAnalyzeDocumentRejectsInvalidPayload(t *testing.T) {
	srv := fakeChatServer(t, `{"Title": "only a title"}`, nil)
	defer srv.Close()

	if _, err := newTestClient(srv.URL).AnalyzeDocument(context.Background(), "text"); err == nil {
		t.Fatalf("schema-invalid response must be rejected")
	}
}

func TestCompareDocuments(t *testing.T) {
	srv := fakeChatServer(t, `[
		{"Page": "1", "Changes": "Heading reworded"},
		{"Page": "NA", "Changes": "Footer removed"}
	]`, nil)
	defer srv.Close()

	changes, err := newTestClient(srv.URL).CompareDocuments(context.Background(), "Document: a.pdf\n...")
	if err != nil {
		t.Fatalf("CompareDocuments: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	if changes[0].Page != "1" || changes[1].Page != "NA" {
		t.Fatalf("unexpected change pages: %+v", changes)
	}
}

func TestCompareDocumentsRejectsProse(t *testing.T) {
	srv := fakeChatServer(t, "The documents are mostly the same.", nil)
	defer srv.Close()

	if _, err := newTestClient(srv.URL).CompareDocuments(context.Background(), "text"); err == nil {
		t.Fatalf("prose response must be rejected")
	}
}

func TestSendRequestSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).AnalyzeDocument(context.Background(), "text")
	if err == nil {
		t.Fatalf("expected error on non-200 status")
	}
	if want := fmt.Sprintf("%d", http.StatusTooManyRequests); !strings.Contains(err.Error(), want) {
		t.Fatalf("error should carry the status code, got %v", err)
	}
}
