package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"talesim/internal/chronicle"
	"talesim/internal/store"
)

type historyOptions struct {
	search     string
	event      string
	limit      int
	sql        string
	paramPairs []string
	index      string
}

func (a *app) historyCmd() *cobra.Command {
	var opts historyOptions
	cmd := &cobra.Command{
		Use:   "history [archive]",
		Short: "Print or query the rounds stored in a chronicle archive",
		Long: `Print the rounds stored in a chronicle archive file or directory.

With --search or --sql the rounds are loaded into the chronicle index and
queried there instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Resolve(a.cfg.Chronicle.Archive)
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no archive given and none configured")
			}
			if opts.search != "" && opts.sql != "" {
				return fmt.Errorf("--search and --sql are mutually exclusive")
			}
			return a.runHistory(cmd, path, opts)
		},
	}
	cmd.Flags().StringVar(&opts.search, "search", "", "Full-text search over the messages")
	cmd.Flags().StringVar(&opts.event, "event", "", "Restrict --search to one event")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "Maximum number of search results")
	cmd.Flags().StringVar(&opts.sql, "sql", "", "Read-only SQL query against the index")
	cmd.Flags().StringArrayVar(&opts.paramPairs, "param", nil, "SQL parameter as N=value (repeatable)")
	cmd.Flags().StringVar(&opts.index, "index", "", "Chronicle index DSN (default from config)")
	return cmd
}

func (a *app) runHistory(cmd *cobra.Command, path string, opts historyOptions) error {
	records, err := chronicle.Read(path)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	out := cmd.OutOrStdout()

	if opts.search == "" && opts.sql == "" {
		for _, rec := range records {
			fmt.Fprintf(out, "Round %d (seed %d):\n", rec.Number, rec.Seed)
			for _, msg := range rec.Messages {
				fmt.Fprintf(out, "  %s\n", msg)
			}
		}
		return nil
	}

	params, err := parseParamPairs(opts.paramPairs)
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := a.openIndex(ctx, opts.index)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	if err := loadRecords(ctx, db, records); err != nil {
		return err
	}

	if opts.sql != "" {
		rows, err := db.RunSQL(ctx, opts.sql, params)
		if err != nil {
			return err
		}
		payload, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		fmt.Fprintln(out, string(payload))
		return nil
	}

	results, err := db.Search(ctx, opts.search, opts.event, opts.limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintf(out, "No messages match %q.\n", opts.search)
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(out, "round %d [%s] %s\n", r.Round, r.Event, r.Snippet)
	}
	return nil
}

// loadRecords copies archive records into the index. Archives written
// under different seeds may reuse round numbers; the last one read wins.
func loadRecords(ctx context.Context, db store.Store, records []store.RoundRecord) error {
	for _, rec := range records {
		if err := db.RecordRound(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// parseParamPairs reads N=value pairs into positional SQL parameters.
func parseParamPairs(pairs []string) (map[string]any, error) {
	params := make(map[string]any)
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid param %q: expected key=value", pair)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid param %q: empty key", pair)
		}
		params[key] = strings.TrimSpace(value)
	}
	return params, nil
}
