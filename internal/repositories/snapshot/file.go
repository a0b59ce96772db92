package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/pkg/clock"
	"github.com/driftlands/worldsim/internal/worldstate"
)

const snapshotFileName = "world.snapshot.zst"

// FileConfig holds the configuration for the file repository
type FileConfig struct {
	// Dir is the directory the snapshot file lives in. It is created on
	// first save if missing.
	Dir   string
	Clock clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *FileConfig) Validate() error {
	if c.Dir == "" {
		return errors.InvalidArgument("snapshot directory is required")
	}
	if c.Clock == nil {
		return errors.InvalidArgument("clock is required")
	}
	return nil
}

type fileRepository struct {
	dir   string
	clock clock.Clock
}

// NewFileRepository creates a snapshot repository backed by a single
// zstd-compressed JSON file. Saves go through a temp file and an atomic
// rename, so a crash mid-write never corrupts the current snapshot.
func NewFileRepository(cfg *FileConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &fileRepository{
		dir:   cfg.Dir,
		clock: cfg.Clock,
	}, nil
}

// Ensure fileRepository implements Repository
var _ Repository = (*fileRepository)(nil)

// Save writes the snapshot to disk
func (r *fileRepository) Save(_ context.Context, input SaveInput) (*SaveOutput, error) {
	if input.Snapshot == nil {
		return nil, errors.InvalidArgument(errSnapshotNil)
	}

	snap := input.Snapshot
	if snap.SavedAt.IsZero() {
		cp := *snap
		cp.SavedAt = r.clock.Now()
		snap = &cp
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create snapshot directory %q", r.dir)
	}

	tmp, err := os.CreateTemp(r.dir, snapshotFileName+".tmp-*")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create temp snapshot file")
	}
	tmpName := tmp.Name()
	defer func() {
		// Best effort: gone already after a successful rename.
		_ = os.Remove(tmpName)
	}()

	if err := writeCompressed(tmp, snap); err != nil {
		_ = tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.Wrapf(err, "failed to close temp snapshot file")
	}

	if err := os.Rename(tmpName, r.path()); err != nil {
		return nil, errors.Wrapf(err, "failed to replace snapshot file")
	}

	return &SaveOutput{
		Tick: snap.Tick,
	}, nil
}

// Load reads the snapshot from disk
func (r *fileRepository) Load(_ context.Context, _ LoadInput) (*LoadOutput, error) {
	f, err := os.Open(r.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("world snapshot not found")
		}
		return nil, errors.Wrapf(err, "failed to open snapshot file")
	}
	defer func() { _ = f.Close() }()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, errors.WrapWithCodef(err, errors.CodeDataLoss, "failed to open compressed snapshot stream")
	}
	defer dec.Close()

	var snap worldstate.Snapshot
	if err := json.NewDecoder(dec).Decode(&snap); err != nil {
		return nil, errors.WrapWithCodef(err, errors.CodeDataLoss, "failed to decode snapshot")
	}

	return &LoadOutput{
		Snapshot: &snap,
	}, nil
}

func (r *fileRepository) path() string {
	return filepath.Join(r.dir, snapshotFileName)
}

func writeCompressed(f *os.File, snap *worldstate.Snapshot) error {
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return errors.Wrapf(err, "failed to open compressed snapshot stream")
	}

	if err := json.NewEncoder(enc).Encode(snap); err != nil {
		_ = enc.Close()
		return errors.Wrapf(err, "failed to encode snapshot")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrapf(err, "failed to flush compressed snapshot stream")
	}
	return nil
}
