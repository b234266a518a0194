package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"horse.fit/digest-pipeline/internal/cli"
	"horse.fit/digest-pipeline/internal/config"
	"horse.fit/digest-pipeline/internal/db"
	"horse.fit/digest-pipeline/internal/docsource"
	"horse.fit/digest-pipeline/internal/ingest"
	"horse.fit/digest-pipeline/internal/logging"
)

func runIngest(args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")
	modeFlag := fs.String("mode", string(ingest.ModeWeekly), "Ingestion mode: weekly or backfill")
	docFlag := fs.String("doc", "", "Source document id (defaults to GOOGLE_DOC_ID)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	mode, err := ingest.ParseMode(*modeFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid mode: %v\n", err)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	docID := strings.TrimSpace(*docFlag)
	if docID == "" {
		docID = strings.TrimSpace(cfg.GoogleDocID)
	}
	if docID == "" {
		fmt.Fprintln(os.Stderr, "Document id is required: set --doc or GOOGLE_DOC_ID")
		return 2
	}

	// One ingestion run at a time; two runs racing on the same calendar
	// date must not both reach the upsert.
	lock := flock.New(cfg.IngestLockPath)
	locked, err := lock.TryLock()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to acquire ingest lock: %v\n", err)
		return 1
	}
	if !locked {
		fmt.Fprintln(os.Stderr, "Another ingestion run is already in progress")
		return 1
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn().Err(err).Str("lock", cfg.IngestLockPath).Msg("failed to release ingest lock")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	source := docsource.NewDriveSource(nil, cfg.GoogleAPIToken)
	svc := ingest.NewService(pool, source, logger)

	result, err := svc.Run(ctx, ingest.Request{DocID: docID, Mode: mode})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		return 1
	}

	fmt.Printf("job_run_id=%d mode=%s issues_found=%d processed=%d\n",
		result.JobRunID, result.Mode, result.IssuesFound, result.Processed)

	return 0
}
