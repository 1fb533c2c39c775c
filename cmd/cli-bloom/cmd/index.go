package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/odespesse/cli-bloom/internal/config"
	"github.com/odespesse/cli-bloom/internal/index"
	"github.com/odespesse/cli-bloom/internal/ingest"
	"github.com/odespesse/cli-bloom/internal/output"
)

// indexOptions holds CLI flags for index.
type indexOptions struct {
	restore   string  // snapshot to extend instead of starting empty
	dump      string  // where to write the resulting snapshot
	errorRate float64 // target false-positive rate for a new index
	workers   int     // bounded read parallelism for directories
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index [source]",
		Short: "Ingest a file or directory into a Bloom index",
		Long: `Ingest the source file, or all files at the first level of the source
directory, into a Bloom index. The document key is the file path.

Files in a directory that are not valid UTF-8 text are skipped; a single
file given directly must be valid text.

With --restore the index starts from an existing snapshot instead of
empty, so a corpus can be ingested incrementally. With --dump the
resulting index is written back out as a JSON snapshot.

Examples:
  cli-bloom index ./docs --dump docs.json
  cli-bloom index ./more-docs --restore docs.json --dump docs.json
  cli-bloom index notes.txt --error-rate 0.001 --dump notes.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			return runIndex(cmd, source, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.restore, "restore", "r", "", "Path to an index snapshot to extend")
	cmd.Flags().StringVarP(&opts.dump, "dump", "d", "", "Path to write the index snapshot")
	cmd.Flags().Float64VarP(&opts.errorRate, "error-rate", "e", 0, "Target false-positive rate for a new index")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Concurrent file reads during directory ingestion")

	return cmd
}

func runIndex(cmd *cobra.Command, source string, opts indexOptions) error {
	out := output.New(cmd.OutOrStdout())

	if source == "" && opts.restore == "" {
		return fmt.Errorf("nothing to do: provide a source to ingest or --restore")
	}

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	errorRate := opts.errorRate
	if errorRate == 0 {
		errorRate = cfg.Index.ErrorRate
	}
	workers := opts.workers
	if workers == 0 {
		workers = cfg.Ingest.Workers
	}

	var idx *index.Index
	if opts.restore != "" {
		if idx, err = index.Restore(opts.restore); err != nil {
			return err
		}
		slog.Info("snapshot_restored",
			slog.String("path", opts.restore),
			slog.Int("documents", idx.Len()))
	} else {
		if idx, err = index.New(errorRate); err != nil {
			return err
		}
	}

	if source != "" {
		before := idx.Len()
		if err := ingest.PathWithOptions(idx, source, ingest.Options{Workers: workers}); err != nil {
			return err
		}
		slog.Info("ingest_complete",
			slog.String("source", source),
			slog.Int("documents", idx.Len()-before))
	}

	if opts.dump != "" {
		if err := index.Dump(idx, opts.dump); err != nil {
			return err
		}
		out.Successf("Indexed %d documents (snapshot: %s)", idx.Len(), opts.dump)
		return nil
	}

	out.Successf("Indexed %d documents", idx.Len())
	out.Warning("No --dump path given: the index was not persisted")
	return nil
}
