package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig("")
	if cfg.Server.Address != ":8080" {
		t.Fatalf("server.address = %q", cfg.Server.Address)
	}
	if cfg.Upload.MaxSizeMB != 50 {
		t.Fatalf("upload.max_size_mb = %d", cfg.Upload.MaxSizeMB)
	}
	if cfg.Extract.MaxTextBytes != 1<<20 {
		t.Fatalf("extract.max_text_bytes = %d", cfg.Extract.MaxTextBytes)
	}
	if cfg.Retention.KeepLatest != 3 {
		t.Fatalf("retention.keep_latest = %d", cfg.Retention.KeepLatest)
	}
	if cfg.Storage.AnalysisDir == "" || cfg.Storage.CompareDir == "" {
		t.Fatalf("storage dirs not defaulted: %+v", cfg.Storage)
	}
	if cfg.Storage.AnalysisDir == cfg.Storage.CompareDir {
		t.Fatalf("analysis and compare flows share a storage dir")
	}
	if cfg.LLM.OpenAI.BaseURL == "" || cfg.LLM.OpenAI.Model == "" {
		t.Fatalf("openai defaults not applied: %+v", cfg.LLM.OpenAI)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  address: ":9999"
storage:
  analysis_dir: /tmp/analysis
  compare_dir: /tmp/compare
retention:
  keep_latest: 7
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadConfig(path)
	if cfg.Server.Address != ":9999" {
		t.Fatalf("server.address = %q", cfg.Server.Address)
	}
	if cfg.Storage.AnalysisDir != "/tmp/analysis" {
		t.Fatalf("storage.analysis_dir = %q", cfg.Storage.AnalysisDir)
	}
	if cfg.Retention.KeepLatest != 7 {
		t.Fatalf("retention.keep_latest = %d", cfg.Retention.KeepLatest)
	}
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	t.Setenv("DOCPORTAL_LLM_PROVIDER", "parrot")
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on unsupported llm.provider")
		}
	}()
	LoadConfig("")
}
