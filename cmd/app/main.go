package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitewatch/internal/pkg/config"
	"sitewatch/internal/pkg/logger"
	"sitewatch/internal/pkg/metrics"
	"sitewatch/internal/pkg/pipeline"
)

const asciiBanner = `
   _____ _ __                       __       __
  / ___/(_) /____ _      ______ _/ /______/ /_
  \__ \/ / __/ _ \ | /| / / __ ` + "`" + `/ __/ ___/ __ \
 ___/ / / /_/  __/ |/ |/ / /_/ / /_/ /__/ / / /
/____/_/\__/\___/|__/|__/\__,_/\__/\___/_/ /_/
`

var rootCmd = &cobra.Command{
	Use:   "sitewatch [urls...]",
	Short: "Site health and content snapshot checker",
	Long: `Fetches each given web page, extracts its metadata (title, meta tags,
headings, links, structured data, ...) and posts the results as a webhook
notification. URLs come from the arguments, or from an interactive prompt
when none are given.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args)
	},
}

func run(args []string) error {
	fmt.Print(asciiBanner)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.InitLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Log.Sync()

	if cfg.WebhookURL == "" {
		logger.Log.Error("Webhook URL not set. Please set WEBHOOK_URL.")
		os.Exit(1)
	}

	urls := args
	if len(urls) == 0 {
		urls = promptForURLs()
	}
	if len(urls) == 0 {
		fmt.Println("No URLs provided. Exiting.")
		return nil
	}

	if cfg.MetricsPort != "" {
		metrics.StartServer(cfg.MetricsPort)
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to create pipeline", zap.Error(err))
	}

	// Cancel in-flight work on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return p.Run(ctx, urls)
}

// Reads a comma-separated URL list from stdin.
func promptForURLs() []string {
	fmt.Println("Enter website URLs to check (separate multiple URLs with commas):")
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return nil
	}

	var urls []string
	for _, part := range strings.Split(scanner.Text(), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
