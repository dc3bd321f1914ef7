package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("ES_INDEX_NAME", "")
	t.Setenv("GDELT_MAXRECORDS", "")

	c, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.GDELT.MaxRecords != 250 {
		t.Errorf("Expected max_records 250, got %d", c.GDELT.MaxRecords)
	}
	if c.Enrichment.WindowPre != 24*time.Hour || c.Enrichment.WindowPost != 72*time.Hour {
		t.Errorf("Unexpected windows %v/%v", c.Enrichment.WindowPre, c.Enrichment.WindowPost)
	}
	if c.Pipeline.RetryCount != 3 || c.Pipeline.Backoff != 2*time.Second {
		t.Errorf("Unexpected retry settings %d/%v", c.Pipeline.RetryCount, c.Pipeline.Backoff)
	}
	if c.Persist.BatchSize != 500 || c.DocStore.Collection != "stock_news" {
		t.Errorf("Unexpected persist settings %d/%s", c.Persist.BatchSize, c.DocStore.Collection)
	}
	if c.GDELT.NoRSSFallback {
		t.Error("Expected RSS fallback enabled by default")
	}
	if c.Enrichment.Entities != "prose" {
		t.Errorf("Expected prose entity extraction by default, got %q", c.Enrichment.Entities)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
gdelt:
  max_records: 100
enrichment:
  window_pre: 48h
  impact_divisor: 5
pipeline:
  backoff: 500ms
docstore:
  collection: from_file
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ES_INDEX_NAME", "from_env")
	t.Setenv("GDELT_MAXRECORDS", "")
	t.Setenv("KITE_API_KEY", "k")

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.GDELT.MaxRecords != 100 {
		t.Errorf("Expected max_records 100, got %d", c.GDELT.MaxRecords)
	}
	if c.Enrichment.WindowPre != 48*time.Hour || c.Enrichment.WindowPost != 72*time.Hour {
		t.Errorf("Unexpected windows %v/%v", c.Enrichment.WindowPre, c.Enrichment.WindowPost)
	}
	if c.Enrichment.ImpactDivisor != 5 {
		t.Errorf("Expected divisor 5, got %v", c.Enrichment.ImpactDivisor)
	}
	if c.Pipeline.Backoff != 500*time.Millisecond {
		t.Errorf("Expected backoff 500ms, got %v", c.Pipeline.Backoff)
	}
	if c.DocStore.Collection != "from_env" {
		t.Errorf("Expected env to override collection, got %s", c.DocStore.Collection)
	}
	if c.Prices.KiteAPIKey != "k" {
		t.Errorf("Expected kite key from env, got %q", c.Prices.KiteAPIKey)
	}
}

func TestValidate(t *testing.T) {
	c := DefaultConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("Expected defaults to validate, got %v", err)
	}

	c.GDELT.MaxRecords = 251
	if err := c.Validate(); err == nil {
		t.Error("Expected error for max_records above 250")
	}

	c = DefaultConfig()
	c.Prices.Provider = "bloomberg"
	if err := c.Validate(); err == nil {
		t.Error("Expected error for unknown provider")
	}

	c = DefaultConfig()
	c.Enrichment.Entities = "spacy"
	if err := c.Validate(); err == nil {
		t.Error("Expected error for unknown entity extractor")
	}
}

func TestApplyEnvRejectsBadNumber(t *testing.T) {
	t.Setenv("GDELT_MAXRECORDS", "lots")
	if err := DefaultConfig().ApplyEnv(); err == nil {
		t.Error("Expected error for non-numeric GDELT_MAXRECORDS")
	}
}
