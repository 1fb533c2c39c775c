// Package ingest turns a file-or-directory source into document insertions
// against a caller-owned index.
package ingest

import (
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/odespesse/cli-bloom/internal/errors"
	"github.com/odespesse/cli-bloom/internal/index"
)

// Options configures directory ingestion.
type Options struct {
	// Workers bounds concurrent file reads within a directory. Values <= 1
	// read serially. Insertions are always applied serially in sorted-name
	// order, whatever this is set to.
	Workers int
}

// Path ingests the source into the index with serial reads.
func Path(x *index.Index, source string) error {
	return PathWithOptions(x, source, Options{})
}

// PathWithOptions classifies source and ingests it.
//
// A regular file is read, decoded, and inserted under its path; invalid
// UTF-8 is fatal in file mode. A directory is enumerated one level deep in
// name order: regular files are ingested, non-text files are skipped, and
// subdirectories are never descended into. A source that is neither is an
// UnsupportedSource error.
//
// Any I/O failure other than a per-file encoding problem inside a directory
// aborts the whole ingestion with the index left unchanged by the failing
// directory pass.
func PathWithOptions(x *index.Index, source string, opts Options) error {
	info, err := os.Stat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.UnsupportedSource(source)
		}
		return errors.IOFailure("failed to stat source "+source, err)
	}

	switch {
	case info.Mode().IsRegular():
		return ingestFile(x, source)
	case info.IsDir():
		return ingestDirectory(x, source, opts)
	default:
		return errors.UnsupportedSource(source)
	}
}

// ingestFile reads and inserts a single file. Invalid UTF-8 is fatal here:
// there is no surrounding directory pass to recover into.
func ingestFile(x *index.Index, path string) error {
	content, err := readText(path)
	if err != nil {
		return err
	}

	x.Insert(path, content)
	slog.Debug("document_ingested", slog.String("key", path))
	return nil
}

// ingestDirectory ingests every regular file at the first level of dir.
//
// Reads run first (optionally in parallel), insertions after, so a fatal
// read error anywhere in the directory leaves the index untouched and the
// resulting iteration order is always the sorted-name order regardless of
// worker count.
func ingestDirectory(x *index.Index, dir string, opts Options) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.IOFailure("failed to read directory "+dir, err)
	}

	// os.ReadDir sorts entries by name, which keeps iteration order, search
	// results, and snapshots reproducible across platforms.
	var paths []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		// Stat follows symlinks, so a link to a regular file is ingested
		// like the file itself.
		info, err := os.Stat(path)
		if err != nil {
			return errors.IOFailure("failed to stat directory entry "+path, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		paths = append(paths, path)
	}

	contents := make([]*string, len(paths))

	workers := opts.Workers
	if workers <= 1 {
		for i, path := range paths {
			if err := readDirectoryFile(path, &contents[i]); err != nil {
				return err
			}
		}
	} else {
		var g errgroup.Group
		g.SetLimit(workers)
		for i, path := range paths {
			i, path := i, path
			g.Go(func() error {
				return readDirectoryFile(path, &contents[i])
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	for i, path := range paths {
		if contents[i] == nil {
			continue
		}
		x.Insert(path, *contents[i])
		slog.Debug("document_ingested", slog.String("key", path))
	}
	return nil
}

// readDirectoryFile reads one directory entry into *dst. A file that is not
// valid text is skipped (dst left nil); every other failure is fatal.
func readDirectoryFile(path string, dst **string) error {
	content, err := readText(path)
	if err != nil {
		if errors.IsInvalidEncoding(err) {
			slog.Debug("skipping non-text file", slog.String("path", path))
			return nil
		}
		return err
	}
	*dst = &content
	return nil
}

// readText reads a file and requires its content to be valid UTF-8.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.IOFailure("unable to read file "+path, err)
	}
	if !utf8.Valid(data) {
		return "", errors.InvalidEncoding(path)
	}
	return string(data), nil
}
