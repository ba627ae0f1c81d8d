package testutil

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// FixtureSuite gives end-to-end tests a shared temp dir and context.
type FixtureSuite struct {
	suite.Suite
	Ctx     context.Context
	cancel  context.CancelFunc
	TempDir string
}

// SetupSuite runs before all tests in the suite
func (s *FixtureSuite) SetupSuite() {
	s.Ctx, s.cancel = context.WithTimeout(context.Background(), 2*time.Minute)

	dir, err := os.MkdirTemp("", "filereader-test-*")
	require.NoError(s.T(), err)
	s.TempDir = dir
}

// TearDownSuite runs after all tests in the suite
func (s *FixtureSuite) TearDownSuite() {
	s.cancel()
	if s.TempDir != "" {
		_ = os.RemoveAll(s.TempDir)
	}
}

// Fixture writes data into the suite temp dir and returns its path.
func (s *FixtureSuite) Fixture(name string, data []byte) string {
	path := filepath.Join(s.TempDir, name)
	require.NoError(s.T(), os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(s.T(), os.WriteFile(path, data, 0o600))
	return path
}
