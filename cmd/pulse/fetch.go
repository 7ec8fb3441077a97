package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/covergrid/pulse/internal/archive"
	"github.com/covergrid/pulse/internal/app"
	"github.com/covergrid/pulse/internal/logger"
	"github.com/covergrid/pulse/internal/sheets"
	"github.com/spf13/cobra"
)

var (
	fetchRange   string
	fetchArchive bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the configured sheet ranges once",
	Long:  "Pull the spreadsheet ranges a single time and print them as JSON, optionally archiving a snapshot",
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchRange, "range", "", "fetch a single named range instead of all configured ranges")
	fetchCmd.Flags().BoolVar(&fetchArchive, "archive", false, "write the result to the configured archive")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	client := sheets.NewClient(sheets.Config{
		SpreadsheetID: cfg.Sheets.SpreadsheetID,
		APIKey:        cfg.Sheets.APIKey,
		BaseURL:       cfg.Sheets.BaseURL,
		Timeout:       cfg.Sheets.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var raw map[string][][]string
	if fetchRange != "" {
		values, err := client.Values(ctx, fetchRange)
		if err != nil {
			return fmt.Errorf("fetching range %q: %w", fetchRange, err)
		}
		raw = map[string][][]string{fetchRange: values}
	} else {
		application := app.New(cfg, client, log)
		raw, err = application.FetchRaw(ctx)
		if err != nil {
			return fmt.Errorf("fetching ranges: %w", err)
		}
	}

	if fetchArchive {
		store, err := newArchiveStore(cfg)
		if err != nil {
			return fmt.Errorf("creating archive store: %w", err)
		}
		snap, err := archive.Save(ctx, store, raw, time.Now())
		if err != nil {
			return fmt.Errorf("archiving snapshot: %w", err)
		}
		fmt.Fprintf(os.Stderr, "snapshot %s archived\n", snap.ID)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(raw)
}
