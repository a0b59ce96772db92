package snapshot

import (
	"context"
	"encoding/json"

	redis "github.com/redis/go-redis/v9"

	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/pkg/clock"
	redisclient "github.com/driftlands/worldsim/internal/redis"
	"github.com/driftlands/worldsim/internal/worldstate"
)

const (
	currentKey = "worldsnapshot:current"
	historyKey = "worldsnapshot:history"

	// How many older snapshots the history list retains.
	historyDepth = 10

	errSnapshotNil = "snapshot cannot be nil"
)

// Config holds the configuration for the Redis repository
type Config struct {
	Client redisclient.Client
	Clock  clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c.Client == nil {
		return errors.InvalidArgument("redis client is required")
	}
	if c.Clock == nil {
		return errors.InvalidArgument("clock is required")
	}
	return nil
}

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
}

// NewRedisRepository creates a new Redis repository for world snapshots
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &redisRepository{
		client: cfg.Client,
		clock:  cfg.Clock,
	}, nil
}

// Ensure redisRepository implements Repository
var _ Repository = (*redisRepository)(nil)

// Save persists the snapshot as current and pushes it onto the bounded
// history list in one transaction.
func (r *redisRepository) Save(ctx context.Context, input SaveInput) (*SaveOutput, error) {
	if input.Snapshot == nil {
		return nil, errors.InvalidArgument(errSnapshotNil)
	}

	snap := input.Snapshot
	if snap.SavedAt.IsZero() {
		cp := *snap
		cp.SavedAt = r.clock.Now()
		snap = &cp
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal snapshot")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, currentKey, data, 0)
	pipe.LPush(ctx, historyKey, data)
	pipe.LTrim(ctx, historyKey, 0, historyDepth-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to store snapshot in Redis")
	}

	return &SaveOutput{
		Tick: snap.Tick,
	}, nil
}

// Load retrieves the current world snapshot
func (r *redisRepository) Load(ctx context.Context, _ LoadInput) (*LoadOutput, error) {
	data, err := r.client.Get(ctx, currentKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFound("world snapshot not found")
		}
		return nil, errors.Wrapf(err, "failed to get snapshot from Redis")
	}

	var snap worldstate.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, errors.WrapWithCodef(err, errors.CodeDataLoss, "failed to unmarshal snapshot")
	}

	return &LoadOutput{
		Snapshot: &snap,
	}, nil
}
