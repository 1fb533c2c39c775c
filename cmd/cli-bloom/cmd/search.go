package cmd

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odespesse/cli-bloom/internal/config"
	"github.com/odespesse/cli-bloom/internal/index"
	"github.com/odespesse/cli-bloom/internal/output"
	"github.com/odespesse/cli-bloom/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	snapshot string // index snapshot to search
	format   string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <keywords...>",
		Short: "Search keywords in an index snapshot",
		Long: `Search for documents containing every given keyword (logical AND).

Keywords are normalized exactly like document content was at indexing
time: punctuation stripped, lowercased, split on whitespace. Matches are
returned in the order documents were ingested.

Examples:
  cli-bloom search "error handling" --snapshot docs.json
  cli-bloom search word1 word2 --snapshot docs.json --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.snapshot, "snapshot", "s", "", "Path to the index snapshot to search")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	_ = cmd.MarkFlagRequired("snapshot")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	idx, err := index.Restore(opts.snapshot)
	if err != nil {
		return err
	}

	engine, err := search.New(idx, cfg.Search.CacheSize)
	if err != nil {
		return err
	}

	hits, found := engine.Search(query)
	slog.Info("search_complete",
		slog.String("query", query),
		slog.Int("results", len(hits)))

	if opts.format == "json" {
		return formatJSON(cmd, query, hits, found)
	}

	if !found {
		out.Statusf("", "No results found for %q", query)
		return nil
	}

	out.Statusf("🔍", "Found %d documents for %q:", len(hits), query)
	for i, key := range hits {
		out.Statusf("", "%d. %s", i+1, key)
	}
	return nil
}

// formatJSON outputs results in JSON format. The "found" field carries the
// no-match signal explicitly, so an empty hit list is unambiguous.
func formatJSON(cmd *cobra.Command, query string, hits []string, found bool) error {
	result := struct {
		Query string   `json:"query"`
		Found bool     `json:"found"`
		Hits  []string `json:"hits,omitempty"`
	}{
		Query: query,
		Found: found,
		Hits:  hits,
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
