package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// defaultFeeds is the built-in feed list. ADDITIONAL_RSS_FEEDS extends it.
var defaultFeeds = []string{
	"https://wublock.substack.com/feed",
	"https://parsec.substack.com/feed",
	"https://www.decentralised.co/feed",
	"https://blockworks.co/feed",
	"https://www.onchaintimes.com/rss/",
}

type Config struct {
	AppEnv           string `env:"APP_ENV" envDefault:"local"`
	NotionToken      string `env:"NOTION_TOKEN,required"`
	NotionDatabaseID string `env:"NOTION_DATABASE_ID,required"`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY,required"`
	DeepSeekAPIKey   string `env:"DEEPSEEK_API_KEY"`
	PerplexityAPIKey string `env:"PERPLEXITY_API_KEY"`
	UseDeepSeek      bool   `env:"USE_DEEPSEEK" envDefault:"false"`

	AdditionalFeeds []string `env:"ADDITIONAL_RSS_FEEDS" envSeparator:","`
	MaxItemsPerFeed int      `env:"MAX_ITEMS_PER_FEED" envDefault:"5"`
	HackerNewsItems int      `env:"HACKERNEWS_ITEMS" envDefault:"10"`

	LedgerPath string `env:"LEDGER_PATH" envDefault:"./data/processed_urls.txt"`

	// Hosts ending in one of these suffixes keep their subdomain when the
	// source name is derived, because the subdomain is the publisher identity.
	KeepSubdomainSuffixes []string `env:"KEEP_SUBDOMAIN_SUFFIXES" envSeparator:"," envDefault:"substack.com"`

	Categories       []string `env:"CATEGORIES" envSeparator:"," envDefault:"Blockchain,Crypto,Market,Regulation,AI,Security,DeFi,NFT,Infrastructure,DAO,Other"`
	AnalysisSections []string `env:"ANALYSIS_SECTIONS" envSeparator:"," envDefault:"背景と文脈,技術的概要,市場への影響,展望と課題,結論"`

	LLMModel        string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	DeepSeekModel   string        `env:"DEEPSEEK_MODEL" envDefault:"deepseek-reasoner"`
	PerplexityModel string        `env:"PERPLEXITY_MODEL" envDefault:"sonar-pro"`
	LLMRateLimitRPS float64       `env:"LLM_RATE_LIMIT_RPS" envDefault:"1"`
	ProcessDelay    time.Duration `env:"PROCESS_DELAY" envDefault:"3s"`
	FetchTimeout    time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`
	MaxContentChars int           `env:"MAX_CONTENT_CHARS" envDefault:"50000"`
	ChunkMaxChars   int           `env:"CHUNK_MAX_CHARS" envDefault:"4000"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
	DryRun   bool   `env:"DRY_RUN" envDefault:"false"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Feeds returns the built-in feed list extended with any configured extras.
func (c *Config) Feeds() []string {
	feeds := make([]string, 0, len(defaultFeeds)+len(c.AdditionalFeeds))
	feeds = append(feeds, defaultFeeds...)

	for _, f := range c.AdditionalFeeds {
		if f != "" {
			feeds = append(feeds, f)
		}
	}

	return feeds
}
