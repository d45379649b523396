package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/yutaka-dev/newsnote/internal/blocks"
	"github.com/yutaka-dev/newsnote/internal/config"
	"github.com/yutaka-dev/newsnote/internal/llm"
	"github.com/yutaka-dev/newsnote/internal/notion"
	"github.com/yutaka-dev/newsnote/internal/research"
	"github.com/yutaka-dev/newsnote/internal/synthesis"
)

func main() {
	interactive := flag.Bool("interactive", false, "Run as an interactive prompt")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.PerplexityAPIKey == "" {
		log.Fatal("PERPLEXITY_API_KEY is required for research")
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway := llm.NewGateway(llm.PerplexityConfig(cfg.PerplexityAPIKey, cfg.PerplexityModel), nil, cfg.LLMRateLimitRPS, &logger)
	synth := synthesis.New(gateway, cfg.Categories, cfg.AnalysisSections, cfg.ChunkMaxChars, &logger)
	store := notion.NewStore(cfg.NotionToken, cfg.NotionDatabaseID, &logger)
	assistant := research.New(gateway, synth, store, blocks.NewConverter(&logger), &logger)

	switch {
	case *interactive:
		runInteractive(ctx, assistant)
	case flag.NArg() > 0:
		runOnce(ctx, assistant, strings.Join(flag.Args(), " "))
	default:
		fmt.Fprintf(os.Stderr, "Usage: %s [--interactive] [query]\n", os.Args[0])
		os.Exit(2)
	}
}

func runOnce(ctx context.Context, assistant *research.Assistant, query string) {
	record, err := assistant.Research(ctx, query)
	if err != nil {
		fmt.Printf("research failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("saved: %s\n", pageLink(record))
}

func runInteractive(ctx context.Context, assistant *research.Assistant) {
	fmt.Println("===== Research Assistant =====")
	fmt.Println("Enter a query ('exit' to quit, 'clear' to reset the conversation)")

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\n>> ")

		if !scanner.Scan() {
			return
		}

		query := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(query) {
		case "":
			continue
		case "exit", "quit", "q":
			return
		case "clear":
			assistant.ClearHistory()
			fmt.Println("conversation cleared")

			continue
		}

		record, err := assistant.Research(ctx, query)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}

			fmt.Printf("research failed: %v\n", err)

			continue
		}

		fmt.Printf("saved: %s\n", pageLink(record))
	}
}

func pageLink(record *notion.Record) string {
	return "https://notion.so/" + strings.ReplaceAll(record.ID, "-", "")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if cfg.AppEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(level).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}
