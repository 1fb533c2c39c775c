package index

import (
	"log/slog"
	"os"

	"github.com/gofrs/flock"

	"github.com/odespesse/cli-bloom/internal/errors"
)

// Dump writes the index snapshot to path, replacing any existing file.
// A sidecar flock at path+".lock" serializes access with other cli-bloom
// processes touching the same snapshot; it guards the file, not in-process
// state. The sidecar is left behind on purpose: unlinking it would let a
// later process lock a fresh inode while a waiter still holds the old one,
// so the same lock file must be reused for the lifetime of the snapshot.
func Dump(x *Index, path string) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return errors.New(errors.ErrCodeSnapshotUnwritable,
			"failed to lock snapshot file "+path, err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := Marshal(x)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	f, err := os.Create(path)
	if err != nil {
		return errors.New(errors.ErrCodeSnapshotUnwritable,
			"impossible to create dump file "+path, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return errors.New(errors.ErrCodeSnapshotUnwritable,
			"impossible to write dump file "+path, err)
	}
	if err := f.Close(); err != nil {
		return errors.IOFailure("failed to close dump file "+path, err)
	}

	slog.Debug("snapshot_dumped",
		slog.String("path", path),
		slog.Int("documents", x.Len()))
	return nil
}

// Restore reads a snapshot file and reconstructs its index.
func Restore(path string) (*Index, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeSnapshotNotFound,
				"file not found "+path, err)
		}
		return nil, errors.IOFailure("failed to stat snapshot file "+path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.New(errors.ErrCodeSnapshotNotFound,
			"file not found "+path, nil)
	}

	lock := flock.New(path + ".lock")
	if err := lock.RLock(); err != nil {
		return nil, errors.IOFailure("failed to lock snapshot file "+path, err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOFailure("unable to read dump file "+path, err)
	}

	x, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}

	slog.Debug("snapshot_restored",
		slog.String("path", path),
		slog.Int("documents", x.Len()))
	return x, nil
}
