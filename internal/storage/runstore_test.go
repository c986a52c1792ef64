package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxytune/internal/nginx"
)

func openStore(t *testing.T) *RunStore {
	t.Helper()
	s, err := OpenRunStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestArchiveAssignsIdentity(t *testing.T) {
	s := openStore(t)

	rec, err := s.Archive(RunRecord{BestRPS: 80, BestConfig: nginx.DefaultParams()})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.Timestamp.IsZero())
}

func TestListMostRecentFirst(t *testing.T) {
	s := openStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := s.Archive(RunRecord{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			BestRPS:   float64(50 + i),
		})
		require.NoError(t, err)
	}

	runs := s.List()
	require.Len(t, runs, 3)
	assert.Equal(t, 52.0, runs[0].BestRPS)
	assert.Equal(t, 50.0, runs[2].BestRPS)
}

func TestListEmpty(t *testing.T) {
	s := openStore(t)
	assert.Empty(t, s.List())
}
