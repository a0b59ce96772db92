//go:build integration
// +build integration

package snapshot_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/pkg/clock"
	redisclient "github.com/driftlands/worldsim/internal/redis"
	"github.com/driftlands/worldsim/internal/repositories/snapshot"
	"github.com/driftlands/worldsim/internal/testutils"
)

type RedisIntegrationTestSuite struct {
	suite.Suite
	client  redisclient.Client
	repo    snapshot.Repository
	cleanup func()
	ctx     context.Context
}

func (s *RedisIntegrationTestSuite) SetupTest() {
	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.client = client
	s.cleanup = cleanup

	repo, err := snapshot.NewRedisRepository(&snapshot.Config{
		Client: client,
		Clock:  clock.New(),
	})
	s.Require().NoError(err)
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RedisIntegrationTestSuite) TearDownTest() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

func (s *RedisIntegrationTestSuite) TestSaveLoadRoundTrip() {
	snap := testSnapshot()

	_, err := s.repo.Save(s.ctx, snapshot.SaveInput{Snapshot: snap})
	s.Require().NoError(err)

	out, err := s.repo.Load(s.ctx, snapshot.LoadInput{})
	s.Require().NoError(err)
	s.Equal(snap, out.Snapshot)
}

func (s *RedisIntegrationTestSuite) TestLoadEmptyStoreIsNotFound() {
	_, err := s.repo.Load(s.ctx, snapshot.LoadInput{})
	s.Require().Error(err)
	s.True(errors.IsNotFound(err))
}

func (s *RedisIntegrationTestSuite) TestHistoryStaysBounded() {
	for i := 1; i <= 12; i++ {
		snap := testSnapshot()
		snap.Tick = uint64(i)
		snap.SavedAt = snapSavedAt.Add(time.Duration(i) * time.Minute)
		_, err := s.repo.Save(s.ctx, snapshot.SaveInput{Snapshot: snap})
		s.Require().NoError(err, "save %d", i)
	}

	out, err := s.repo.Load(s.ctx, snapshot.LoadInput{})
	s.Require().NoError(err)
	s.Equal(uint64(12), out.Snapshot.Tick, "current always points at the latest save")

	length, err := s.client.LLen(s.ctx, "worldsnapshot:history").Result()
	s.Require().NoError(err)
	s.Equal(int64(10), length, "history list is trimmed to its retention depth")
}

func TestRedisIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RedisIntegrationTestSuite))
}
