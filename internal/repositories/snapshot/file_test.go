package snapshot_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/repositories/snapshot"
)

type FileRepositoryTestSuite struct {
	suite.Suite
	dir  string
	repo snapshot.Repository
	ctx  context.Context
}

func (s *FileRepositoryTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	repo, err := snapshot.NewFileRepository(&snapshot.FileConfig{
		Dir:   s.dir,
		Clock: fixedClock{now: snapSavedAt},
	})
	s.Require().NoError(err)
	s.repo = repo
	s.ctx = context.Background()
}

func (s *FileRepositoryTestSuite) TestSaveLoadRoundTrip() {
	snap := testSnapshot()

	saveOut, err := s.repo.Save(s.ctx, snapshot.SaveInput{Snapshot: snap})
	s.Require().NoError(err)
	s.Equal(uint64(42), saveOut.Tick)

	loadOut, err := s.repo.Load(s.ctx, snapshot.LoadInput{})
	s.Require().NoError(err)
	s.Equal(snap, loadOut.Snapshot)
}

func (s *FileRepositoryTestSuite) TestLoadWithoutSaveIsNotFound() {
	_, err := s.repo.Load(s.ctx, snapshot.LoadInput{})
	s.Require().Error(err)
	s.True(errors.IsNotFound(err))
}

func (s *FileRepositoryTestSuite) TestSaveReplacesPrevious() {
	first := testSnapshot()
	first.Tick = 1
	_, err := s.repo.Save(s.ctx, snapshot.SaveInput{Snapshot: first})
	s.Require().NoError(err)

	second := testSnapshot()
	second.Tick = 2
	_, err = s.repo.Save(s.ctx, snapshot.SaveInput{Snapshot: second})
	s.Require().NoError(err)

	out, err := s.repo.Load(s.ctx, snapshot.LoadInput{})
	s.Require().NoError(err)
	s.Equal(uint64(2), out.Snapshot.Tick)

	// No temp files may survive a completed save.
	entries, err := os.ReadDir(s.dir)
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *FileRepositoryTestSuite) TestLoadCorruptFileIsDataLoss() {
	path := filepath.Join(s.dir, "world.snapshot.zst")
	s.Require().NoError(os.WriteFile(path, []byte("not a zstd stream"), 0o644))

	_, err := s.repo.Load(s.ctx, snapshot.LoadInput{})
	s.Require().Error(err)
	s.Equal(errors.CodeDataLoss, errors.GetCode(err))
}

func (s *FileRepositoryTestSuite) TestSaveNilSnapshot() {
	_, err := s.repo.Save(s.ctx, snapshot.SaveInput{})
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
}

func (s *FileRepositoryTestSuite) TestConfigValidation() {
	_, err := snapshot.NewFileRepository(&snapshot.FileConfig{Clock: fixedClock{now: snapSavedAt}})
	s.Error(err)
	s.True(errors.IsInvalidArgument(err))

	_, err = snapshot.NewFileRepository(&snapshot.FileConfig{Dir: s.dir})
	s.Error(err)
	s.True(errors.IsInvalidArgument(err))
}

func TestFileRepositorySuite(t *testing.T) {
	suite.Run(t, new(FileRepositoryTestSuite))
}
