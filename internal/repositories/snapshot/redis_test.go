package snapshot_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/redis/go-redis/v9"

	"github.com/driftlands/worldsim/internal/entities"
	"github.com/driftlands/worldsim/internal/errors"
	redismocks "github.com/driftlands/worldsim/internal/redis/mocks"
	"github.com/driftlands/worldsim/internal/repositories/snapshot"
	"github.com/driftlands/worldsim/internal/worldstate"
)

const (
	testCurrentKey = "worldsnapshot:current"
	testHistoryKey = "worldsnapshot:history"
)

var snapSavedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func testSnapshot() *worldstate.Snapshot {
	return &worldstate.Snapshot{
		Version: worldstate.SnapshotVersion,
		SavedAt: snapSavedAt,
		Tick:    42,
		Rooms: []*entities.Room{
			{ID: "haven_square", Name: "Haven Square", CityID: "haven", Zone: entities.ZoneCity},
		},
		Cities: []*entities.City{
			{ID: "haven", Name: "Haven"},
		},
		Players: []*entities.Player{
			{ID: "player_1", Location: "haven_square", Credits: 100, Health: 100, Hunger: 100, Status: entities.StatusOK},
		},
	}
}

type RedisRepositoryTestSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	mockClient *redismocks.MockClient
	mockPipe   *redismocks.MockPipeliner
	repo       snapshot.Repository
	ctx        context.Context
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockClient = redismocks.NewMockClient(s.ctrl)
	s.mockPipe = redismocks.NewMockPipeliner(s.ctrl)
	repo, err := snapshot.NewRedisRepository(&snapshot.Config{
		Client: s.mockClient,
		Clock:  fixedClock{now: snapSavedAt},
	})
	s.Require().NoError(err)
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RedisRepositoryTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *RedisRepositoryTestSuite) TestSave() {
	snap := testSnapshot()
	data, err := json.Marshal(snap)
	s.Require().NoError(err)

	s.Run("successful save", func() {
		s.mockClient.EXPECT().
			TxPipeline().
			Return(s.mockPipe)

		s.mockPipe.EXPECT().
			Set(s.ctx, testCurrentKey, data, time.Duration(0)).
			Return(redis.NewStatusResult("OK", nil))

		s.mockPipe.EXPECT().
			LPush(s.ctx, testHistoryKey, data).
			Return(redis.NewIntResult(1, nil))

		s.mockPipe.EXPECT().
			LTrim(s.ctx, testHistoryKey, int64(0), int64(9)).
			Return(redis.NewStatusResult("OK", nil))

		s.mockPipe.EXPECT().
			Exec(s.ctx).
			Return([]redis.Cmder{}, nil)

		output, err := s.repo.Save(s.ctx, snapshot.SaveInput{Snapshot: snap})

		s.NoError(err)
		s.Require().NotNil(output)
		s.Equal(uint64(42), output.Tick)
	})

	s.Run("error when snapshot is nil", func() {
		output, err := s.repo.Save(s.ctx, snapshot.SaveInput{})

		s.Error(err)
		s.Nil(output)
		s.True(errors.IsInvalidArgument(err))
	})

	s.Run("error when pipeline fails", func() {
		s.mockClient.EXPECT().
			TxPipeline().
			Return(s.mockPipe)

		s.mockPipe.EXPECT().
			Set(s.ctx, testCurrentKey, data, time.Duration(0)).
			Return(redis.NewStatusResult("", nil))

		s.mockPipe.EXPECT().
			LPush(s.ctx, testHistoryKey, data).
			Return(redis.NewIntResult(0, nil))

		s.mockPipe.EXPECT().
			LTrim(s.ctx, testHistoryKey, int64(0), int64(9)).
			Return(redis.NewStatusResult("", nil))

		s.mockPipe.EXPECT().
			Exec(s.ctx).
			Return(nil, redis.ErrClosed)

		output, err := s.repo.Save(s.ctx, snapshot.SaveInput{Snapshot: snap})

		s.Error(err)
		s.Nil(output)
		s.True(errors.IsInternal(err))
	})
}

func (s *RedisRepositoryTestSuite) TestSaveStampsMissingSavedAt() {
	snap := testSnapshot()
	snap.SavedAt = time.Time{}

	stamped := *snap
	stamped.SavedAt = snapSavedAt
	data, err := json.Marshal(&stamped)
	s.Require().NoError(err)

	s.mockClient.EXPECT().
		TxPipeline().
		Return(s.mockPipe)

	s.mockPipe.EXPECT().
		Set(s.ctx, testCurrentKey, data, time.Duration(0)).
		Return(redis.NewStatusResult("OK", nil))

	s.mockPipe.EXPECT().
		LPush(s.ctx, testHistoryKey, data).
		Return(redis.NewIntResult(1, nil))

	s.mockPipe.EXPECT().
		LTrim(s.ctx, testHistoryKey, int64(0), int64(9)).
		Return(redis.NewStatusResult("OK", nil))

	s.mockPipe.EXPECT().
		Exec(s.ctx).
		Return([]redis.Cmder{}, nil)

	_, err = s.repo.Save(s.ctx, snapshot.SaveInput{Snapshot: snap})
	s.NoError(err)
}

func (s *RedisRepositoryTestSuite) TestLoad() {
	snap := testSnapshot()
	data, err := json.Marshal(snap)
	s.Require().NoError(err)

	s.Run("successful load", func() {
		s.mockClient.EXPECT().
			Get(s.ctx, testCurrentKey).
			Return(redis.NewStringResult(string(data), nil))

		output, err := s.repo.Load(s.ctx, snapshot.LoadInput{})

		s.NoError(err)
		s.Require().NotNil(output)
		s.Equal(snap, output.Snapshot)
	})

	s.Run("not found when no snapshot stored", func() {
		s.mockClient.EXPECT().
			Get(s.ctx, testCurrentKey).
			Return(redis.NewStringResult("", redis.Nil))

		output, err := s.repo.Load(s.ctx, snapshot.LoadInput{})

		s.Error(err)
		s.Nil(output)
		s.True(errors.IsNotFound(err))
	})

	s.Run("data loss on corrupt payload", func() {
		s.mockClient.EXPECT().
			Get(s.ctx, testCurrentKey).
			Return(redis.NewStringResult("{not json", nil))

		output, err := s.repo.Load(s.ctx, snapshot.LoadInput{})

		s.Error(err)
		s.Nil(output)
		s.Equal(errors.CodeDataLoss, errors.GetCode(err))
	})
}

func (s *RedisRepositoryTestSuite) TestConfigValidation() {
	_, err := snapshot.NewRedisRepository(&snapshot.Config{Clock: fixedClock{now: snapSavedAt}})
	s.Error(err)
	s.True(errors.IsInvalidArgument(err))

	_, err = snapshot.NewRedisRepository(&snapshot.Config{Client: s.mockClient})
	s.Error(err)
	s.True(errors.IsInvalidArgument(err))
}

func TestRedisRepositorySuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}
