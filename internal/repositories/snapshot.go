package repositories

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/sbilibin2017/bank-system/internal/logger"
	"github.com/sbilibin2017/bank-system/internal/models"
)

// SnapshotRepository persists the whole account table to a single binary file.
type SnapshotRepository struct {
	path string
}

// NewSnapshotRepository creates a repository backed by the file at path.
func NewSnapshotRepository(path string) *SnapshotRepository {
	return &SnapshotRepository{path: path}
}

// Path returns the snapshot file location.
func (r *SnapshotRepository) Path() string {
	return r.path
}

// Save overwrites the snapshot file with every account in table.
// The data is written to a temporary file first and renamed over the target,
// so an interrupted save leaves the previous snapshot in place.
func (r *SnapshotRepository) Save(ctx context.Context, table *models.AccountTable) error {
	slots := slotsFor(table.Accounts, table.MaxTransactions)
	if err := r.writeFile(table.Accounts, slots); err != nil {
		logger.Log.Errorw("failed to save snapshot", "path", r.path, "count", table.Len(), "error", err)
		return err
	}

	logger.Log.Infow("snapshot saved", "path", r.path, "count", table.Len(), "slots", slots)
	return nil
}

func (r *SnapshotRepository) writeFile(accounts []*models.Account, slots int) error {
	dir, base := filepath.Split(r.path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, base+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := encodeSnapshot(tmp, accounts, slots); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), r.path)
}

// Load reads every account stored in the snapshot file.
// A missing file is not an error and yields no accounts.
func (r *SnapshotRepository) Load(ctx context.Context) ([]*models.Account, error) {
	f, err := os.Open(r.path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Log.Infow("snapshot not found, starting fresh", "path", r.path)
		return nil, nil
	}
	if err != nil {
		logger.Log.Errorw("failed to open snapshot", "path", r.path, "error", err)
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		logger.Log.Errorw("failed to stat snapshot", "path", r.path, "error", err)
		return nil, err
	}

	accounts, err := decodeSnapshot(f, info.Size())
	if err != nil {
		logger.Log.Errorw("failed to decode snapshot", "path", r.path, "error", err)
		return nil, err
	}

	logger.Log.Infow("snapshot loaded", "path", r.path, "count", len(accounts))
	return accounts, nil
}
