package m3u8

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cachedPlaylist = "http://cdn/radio/index.m3u8"

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segments.json")
	urls := []string{"http://cdn/a.ts", "http://cdn/b.ts"}

	require.NoError(t, SaveCache(path, cachedPlaylist, urls))
	got, err := LoadCache(path, cachedPlaylist)
	require.NoError(t, err)
	assert.Equal(t, urls, got)
}

func TestLoadCache_RejectsOtherPlaylist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segments.json")
	require.NoError(t, SaveCache(path, cachedPlaylist, []string{"http://cdn/a.ts"}))

	_, err := LoadCache(path, "http://cdn/other/index.m3u8")
	assert.ErrorIs(t, err, ErrCacheMismatch)
}

func TestLoadCache_RejectsEmptyAndMissing(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCache(filepath.Join(dir, "missing.json"), cachedPlaylist)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"playlist":"`+cachedPlaylist+`","segments":[]}`), 0o600))
	_, err = LoadCache(empty, cachedPlaylist)
	assert.Error(t, err)

	legacy := filepath.Join(dir, "legacy.json")
	require.NoError(t, os.WriteFile(legacy, []byte(`["http://cdn/a.ts"]`), 0o600))
	_, err = LoadCache(legacy, cachedPlaylist)
	assert.Error(t, err)
}
