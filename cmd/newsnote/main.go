package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/yutaka-dev/newsnote/internal/blocks"
	"github.com/yutaka-dev/newsnote/internal/config"
	"github.com/yutaka-dev/newsnote/internal/feed"
	"github.com/yutaka-dev/newsnote/internal/fetch"
	"github.com/yutaka-dev/newsnote/internal/hackernews"
	"github.com/yutaka-dev/newsnote/internal/ledger"
	"github.com/yutaka-dev/newsnote/internal/llm"
	"github.com/yutaka-dev/newsnote/internal/notion"
	"github.com/yutaka-dev/newsnote/internal/pipeline"
	"github.com/yutaka-dev/newsnote/internal/synthesis"
)

func main() {
	mode := flag.String("mode", "all", "Run mode (register, process, all)")
	dryRun := flag.Bool("dry-run", false, "Log planned actions without writing records")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if *dryRun {
		cfg.DryRun = true
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}
	defer closeLog()

	// Dry run announces itself and exits before anything is built or
	// any external service is contacted.
	if cfg.DryRun {
		logger.Info().Msg("running in dry run mode, no external calls will be made")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to assemble pipeline")
	}

	if err := run(ctx, p, *mode); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("pipeline stopped")
			return
		}

		logger.Fatal().Err(err).Msg("pipeline error")
	}
}

func buildPipeline(cfg *config.Config, logger *zerolog.Logger) (*pipeline.Pipeline, error) {
	urls, err := ledger.Load(cfg.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("load url ledger: %w", err)
	}

	var secondary *llm.ProviderConfig

	primary := llm.OpenAIConfig(cfg.OpenAIAPIKey, cfg.LLMModel)

	if cfg.DeepSeekAPIKey != "" {
		deepSeek := llm.DeepSeekConfig(cfg.DeepSeekAPIKey, cfg.DeepSeekModel)

		if cfg.UseDeepSeek {
			primary = deepSeek
		} else {
			secondary = &deepSeek
		}
	}

	gateway := llm.NewGateway(primary, secondary, cfg.LLMRateLimitRPS, logger)
	synth := synthesis.New(gateway, cfg.Categories, cfg.AnalysisSections, cfg.ChunkMaxChars, logger)
	store := notion.NewStore(cfg.NotionToken, cfg.NotionDatabaseID, logger)

	return pipeline.New(
		pipeline.Config{
			Feeds:           cfg.Feeds(),
			MaxItemsPerFeed: cfg.MaxItemsPerFeed,
			HackerNewsItems: cfg.HackerNewsItems,
			ProcessDelay:    cfg.ProcessDelay,
			DryRun:          cfg.DryRun,
		},
		store,
		feed.NewFetcher(cfg.KeepSubdomainSuffixes, logger),
		hackernews.NewClient(hackernews.DefaultBaseURL, logger),
		fetch.NewFetcher(cfg.FetchTimeout, cfg.MaxContentChars, logger),
		synth,
		urls,
		blocks.NewConverter(logger),
		logger,
	), nil
}

func run(ctx context.Context, p *pipeline.Pipeline, mode string) error {
	switch mode {
	case "register":
		return p.RegisterNewArticles(ctx)
	case "process":
		return p.ProcessPendingArticles(ctx)
	case "all":
		if err := p.RegisterNewArticles(ctx); err != nil {
			return err
		}

		return p.ProcessPendingArticles(ctx)
	default:
		log.Fatalf("Usage: %s --mode=[register|process|all]", os.Args[0])

		return nil
	}
}

func newLogger(cfg *config.Config) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("parse log level %q: %w", cfg.LogLevel, err)
	}

	var out io.Writer = os.Stderr
	if cfg.AppEnv == "local" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	closeLog := func() {}

	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("open log file: %w", err)
		}

		out = zerolog.MultiLevelWriter(out, file)
		closeLog = func() { _ = file.Close() }
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), closeLog, nil
}
