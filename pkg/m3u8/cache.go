package m3u8

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrCacheMismatch is returned by LoadCache when the cache was written for
// another playlist.
var ErrCacheMismatch = errors.New("cached segment list belongs to another playlist")

type segmentCache struct {
	Playlist string   `json:"playlist"`
	Segments []string `json:"segments"`
}

// LoadCache reads the segment list SaveCache stored for playlistURL.
func LoadCache(cacheFile, playlistURL string) ([]string, error) {
	data, err := os.ReadFile(cacheFile)
	if err != nil {
		return nil, err
	}

	var c segmentCache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached m3u8: %w", err)
	}

	if c.Playlist != playlistURL {
		return nil, ErrCacheMismatch
	}
	if len(c.Segments) == 0 {
		return nil, fmt.Errorf("cached m3u8 is empty")
	}

	return c.Segments, nil
}

// SaveCache stores the resolved segment list of playlistURL as JSON
func SaveCache(cacheFile, playlistURL string, urls []string) error {
	data, err := json.Marshal(segmentCache{Playlist: playlistURL, Segments: urls})
	if err != nil {
		return err
	}

	if err := os.WriteFile(cacheFile, data, 0644); err != nil {
		return &LocalIOError{Op: "write", Path: cacheFile, Err: err}
	}
	return nil
}
