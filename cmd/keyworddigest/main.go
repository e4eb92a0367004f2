package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"KeywordDigest/internal/app"
	"KeywordDigest/internal/config"
	"KeywordDigest/internal/logging"
)

type options struct {
	DryRun bool `long:"dry-run" description:"Run the full pipeline but skip email delivery and history writes"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			return
		}
		os.Exit(2)
	}

	// Local development convenience; absence of a .env file is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	report, err := application.Run(context.Background(), opts.DryRun)
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("run complete",
		"run_at", report.RunAt,
		"searched", report.SearchedCount,
		"candidates", report.CandidateCount,
		"selected", report.SelectedCount,
		"summarized", report.SummarizedCount,
		"summary_ok", report.SummaryOKCount,
		"summary_failed", report.SummaryFailedCount,
		"sent_email", report.SentEmail,
		"dry_run", report.DryRun,
	)
}
