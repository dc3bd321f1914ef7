package store

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	GDELT struct {
		BaseURL           string        `yaml:"base_url"`
		MaxRecords        int           `yaml:"max_records"`
		Timeout           time.Duration `yaml:"timeout"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		NoRSSFallback     bool          `yaml:"no_rss_fallback"`
		RSSURL            string        `yaml:"rss_url"`
		MetaLimit         int           `yaml:"meta_limit"`
	} `yaml:"gdelt"`
	Prices struct {
		Provider string        `yaml:"provider"`
		BaseURL  string        `yaml:"base_url"`
		Interval string        `yaml:"interval"`
		Timeout  time.Duration `yaml:"timeout"`

		// Kite credentials come from the environment only
		KiteAPIKey      string `yaml:"-"`
		KiteAccessToken string `yaml:"-"`
	} `yaml:"prices"`
	Sentiment struct {
		ModelURL string        `yaml:"model_url"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"sentiment"`
	Enrichment struct {
		WindowPre     time.Duration `yaml:"window_pre"`
		WindowPost    time.Duration `yaml:"window_post"`
		ImpactDivisor float64       `yaml:"impact_divisor"`
		Entities      string        `yaml:"entities"` // prose, capitalized or none
	} `yaml:"enrichment"`
	Pipeline struct {
		RetryCount   int           `yaml:"retry_count"`
		Backoff      time.Duration `yaml:"backoff"`
		CompanyDelay time.Duration `yaml:"company_delay"`
		FetchTimeout time.Duration `yaml:"fetch_timeout"`
	} `yaml:"pipeline"`
	Persist struct {
		BatchSize   int `yaml:"batch_size"`
		Concurrency int `yaml:"concurrency"`
	} `yaml:"persist"`
	DocStore struct {
		Path       string `yaml:"path"`
		Collection string `yaml:"collection"`
	} `yaml:"docstore"`
	Cache struct {
		Dir string        `yaml:"dir"`
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	CompaniesFile string `yaml:"companies_file"`
}

// DefaultConfig returns a config that runs against the public endpoints
// with local storage under ./data
func DefaultConfig() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.GDELT.MaxRecords == 0 {
		c.GDELT.MaxRecords = 250
	}
	if c.GDELT.Timeout == 0 {
		c.GDELT.Timeout = 30 * time.Second
	}
	if c.GDELT.RequestsPerSecond == 0 {
		c.GDELT.RequestsPerSecond = 1
	}
	if c.Prices.Provider == "" {
		c.Prices.Provider = "yahoo"
	}
	if c.Prices.Interval == "" {
		c.Prices.Interval = "1d"
	}
	if c.Prices.Timeout == 0 {
		c.Prices.Timeout = 30 * time.Second
	}
	if c.Sentiment.Timeout == 0 {
		c.Sentiment.Timeout = 30 * time.Second
	}
	if c.Enrichment.WindowPre == 0 {
		c.Enrichment.WindowPre = 24 * time.Hour
	}
	if c.Enrichment.WindowPost == 0 {
		c.Enrichment.WindowPost = 72 * time.Hour
	}
	if c.Enrichment.ImpactDivisor == 0 {
		c.Enrichment.ImpactDivisor = 10
	}
	if c.Enrichment.Entities == "" {
		c.Enrichment.Entities = "prose"
	}
	if c.Pipeline.RetryCount == 0 {
		c.Pipeline.RetryCount = 3
	}
	if c.Pipeline.Backoff == 0 {
		c.Pipeline.Backoff = 2 * time.Second
	}
	if c.Pipeline.CompanyDelay == 0 {
		c.Pipeline.CompanyDelay = time.Second
	}
	if c.Pipeline.FetchTimeout == 0 {
		c.Pipeline.FetchTimeout = 30 * time.Second
	}
	if c.Persist.BatchSize == 0 {
		c.Persist.BatchSize = 500
	}
	if c.Persist.Concurrency == 0 {
		c.Persist.Concurrency = 1
	}
	if c.DocStore.Path == "" {
		c.DocStore.Path = "data/news.db"
	}
	if c.DocStore.Collection == "" {
		c.DocStore.Collection = "stock_news"
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = "data/cache"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = time.Hour
	}
	if c.CompaniesFile == "" {
		c.CompaniesFile = "company_tickers.json"
	}
}

func (c *Config) Validate() error {
	if c.GDELT.MaxRecords < 1 || c.GDELT.MaxRecords > 250 {
		return fmt.Errorf("gdelt.max_records must be between 1-250, got %d", c.GDELT.MaxRecords)
	}
	if c.Prices.Provider != "yahoo" && c.Prices.Provider != "kite" {
		return fmt.Errorf("invalid prices.provider '%s': must be 'yahoo' or 'kite'", c.Prices.Provider)
	}
	if c.Enrichment.WindowPre < 0 || c.Enrichment.WindowPost < 0 {
		return errors.New("enrichment windows cannot be negative")
	}
	if c.Enrichment.ImpactDivisor <= 0 {
		return fmt.Errorf("enrichment.impact_divisor must be positive, got %.2f", c.Enrichment.ImpactDivisor)
	}
	switch c.Enrichment.Entities {
	case "prose", "capitalized", "none":
	default:
		return fmt.Errorf("invalid enrichment.entities '%s': must be 'prose', 'capitalized' or 'none'", c.Enrichment.Entities)
	}
	if c.Pipeline.RetryCount < 1 {
		return fmt.Errorf("pipeline.retry_count must be at least 1, got %d", c.Pipeline.RetryCount)
	}
	if c.Persist.BatchSize < 1 {
		return fmt.Errorf("persist.batch_size must be positive, got %d", c.Persist.BatchSize)
	}
	if c.DocStore.Collection == "" {
		return errors.New("docstore.collection cannot be empty")
	}
	return nil
}

// ApplyEnv overrides file values with the environment
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("ES_INDEX_NAME"); v != "" {
		c.DocStore.Collection = v
	}
	if v := os.Getenv("GDELT_MAXRECORDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GDELT_MAXRECORDS '%s': %w", v, err)
		}
		c.GDELT.MaxRecords = n
	}
	if v := os.Getenv("DOCSTORE_PATH"); v != "" {
		c.DocStore.Path = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
	if v := os.Getenv("SENTIMENT_MODEL_URL"); v != "" {
		c.Sentiment.ModelURL = v
	}
	c.Prices.KiteAPIKey = os.Getenv("KITE_API_KEY")
	c.Prices.KiteAccessToken = os.Getenv("KITE_ACCESS_TOKEN")
	return nil
}

// LoadConfig reads path, fills defaults, applies the environment and
// validates. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		c = &Config{}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, err
		}
		c.applyDefaults()
	}

	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return c, nil
}
