package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"horse.fit/digest-pipeline/internal/cli"
	"horse.fit/digest-pipeline/internal/db"
	"horse.fit/digest-pipeline/internal/dedup"
)

func runArticles(args []string) int {
	fs := flag.NewFlagSet("articles", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	from := fs.String("from", "2000-01-01", "Start issue date in YYYY-MM-DD (UTC)")
	to := fs.String("to", defaultUTCDayString(), "End issue date in YYYY-MM-DD (UTC)")
	limit := fs.Int("limit", 200, "Maximum articles to scan before deduplication")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "articles does not accept positional arguments")
		return 2
	}
	if *limit <= 0 {
		fmt.Fprintln(os.Stderr, "--limit must be > 0")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	fromStart, toEnd, err := parseUTCDateRange(*from, *to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid date range: %v\n", err)
		return 2
	}

	ctx, cancel, pool, err := connectReadPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	articles, err := pool.ListArticles(ctx, db.ArticleListOptions{
		From:  fromStart,
		To:    toEnd,
		Limit: *limit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query articles: %v\n", err)
		return 1
	}

	// The same source URL resurfaces across issues; keep the most recent.
	unique := dedup.CollapseByURL(articles,
		func(a db.ArticleListItem) string { return a.SourceURL },
		func(a db.ArticleListItem) time.Time { return a.IssueDate },
	)

	if outputFormat == outputFormatJSON {
		if err := printJSON(unique); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	tableRows := make([][]string, 0, len(unique))
	for _, article := range unique {
		tableRows = append(tableRows, []string{
			strconv.FormatInt(article.ArticleID, 10),
			formatUTCDate(article.IssueDate),
			truncateForTable(article.Title, 60),
			pointerStringOrEmpty(article.CategoryName),
			article.SourceDomain,
		})
	}

	headers := []string{"ID", "ISSUE", "TITLE", "CATEGORY", "DOMAIN"}
	if err := writeTable(headers, tableRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write table: %v\n", err)
		return 1
	}
	return 0
}
