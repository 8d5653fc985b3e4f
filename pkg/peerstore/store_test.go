package peerstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "peers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := openTemp(t)

	p := &Peer{
		ID:          "928374650",
		Alias:       "lab workstation",
		LastSession: time.Unix(1700000000, 0),
		Quality:     1,
		CustomFPS:   30,
		Scale:       100,
	}
	require.NoError(t, s.Save(p))

	got, err := s.Get("928374650")
	require.NoError(t, err)
	assert.Equal(t, p.Alias, got.Alias)
	assert.Equal(t, p.Quality, got.Quality)
	assert.Equal(t, p.CustomFPS, got.CustomFPS)
	assert.True(t, p.LastSession.Equal(got.LastSession))
}

func TestSaveUpserts(t *testing.T) {
	s := openTemp(t)

	require.NoError(t, s.Save(&Peer{ID: "1", Alias: "old"}))
	require.NoError(t, s.Save(&Peer{ID: "1", Alias: "new", Quality: 2}))

	got, err := s.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Alias)
	assert.Equal(t, 2, got.Quality)
}

func TestGetUnknown(t *testing.T) {
	s := openTemp(t)

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTouchCreatesAndUpdates(t *testing.T) {
	s := openTemp(t)

	first := time.Unix(1700000000, 0)
	require.NoError(t, s.Touch("9", first))

	got, err := s.Get("9")
	require.NoError(t, err)
	assert.True(t, first.Equal(got.LastSession))

	later := first.Add(time.Hour)
	require.NoError(t, s.Touch("9", later))
	got, err = s.Get("9")
	require.NoError(t, err)
	assert.True(t, later.Equal(got.LastSession))
}

func TestRecentOrder(t *testing.T) {
	s := openTemp(t)

	base := time.Unix(1700000000, 0)
	require.NoError(t, s.Touch("a", base))
	require.NoError(t, s.Touch("b", base.Add(2*time.Hour)))
	require.NoError(t, s.Touch("c", base.Add(time.Hour)))

	peers, err := s.Recent(2)
	require.NoError(t, err)
	require.Len(t, peers, 2)
	assert.Equal(t, "b", peers[0].ID)
	assert.Equal(t, "c", peers[1].ID)
}

func TestDelete(t *testing.T) {
	s := openTemp(t)

	require.NoError(t, s.Touch("gone", time.Now()))
	require.NoError(t, s.Delete("gone"))

	_, err := s.Get("gone")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete("gone"), ErrNotFound)
}
