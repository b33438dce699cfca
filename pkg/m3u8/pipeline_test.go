package m3u8

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type copyEncoder struct {
	calls int
	input []byte
	err   error
}

func (e *copyEncoder) Transcode(_ context.Context, input, output string) error {
	e.calls++
	if e.err != nil {
		return e.err
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	e.input = data
	return os.WriteFile(output, data, 0o644)
}

func hlsServer(t *testing.T, media string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/radio/master.m3u8", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=64000\naudio/index.m3u8\n#EXT-X-STREAM-INF:BANDWIDTH=128000\nhq/index.m3u8\n")
	})
	mux.HandleFunc("/radio/audio/index.m3u8", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, media)
	})
	for i, body := range []string{"AA", "BB", "CC"} {
		i, body := i, body
		mux.HandleFunc(fmt.Sprintf("/radio/audio/seg_%03d.ts", i), func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "video/mp2t")
			_, _ = io.WriteString(w, body)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func emptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "intermediate files left in %s", dir)
}

func TestPipeline_Run(t *testing.T) {
	srv := hlsServer(t, "#EXTM3U\n#EXTINF:10,\nseg_000.ts\n#EXTINF:10,\nseg_001.ts\n#EXTINF:10,\nseg_002.ts\n#EXT-X-ENDLIST\n")
	tmp := t.TempDir()
	output := filepath.Join(t.TempDir(), "radio.mp3")

	enc := &copyEncoder{}
	d := newTestDownloader(t, nil, func(o *Options) { o.Concurrency = 2 })
	p := NewPipeline(d, enc, PipelineOptions{TempDir: tmp})

	err := p.Run(context.Background(), Request{PlaylistURL: srv.URL + "/radio/master.m3u8", OutputPath: output})
	require.NoError(t, err)

	assert.Equal(t, 1, enc.calls)
	assert.Equal(t, "AABBCC", string(enc.input))
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "AABBCC", string(data))
	emptyDir(t, tmp)
}

func TestPipeline_NoSegments(t *testing.T) {
	srv := hlsServer(t, "#EXTM3U\n#EXT-X-ENDLIST\n")
	tmp := t.TempDir()
	output := filepath.Join(t.TempDir(), "radio.mp3")

	enc := &copyEncoder{}
	p := NewPipeline(newTestDownloader(t, nil, nil), enc, PipelineOptions{TempDir: tmp})

	err := p.Run(context.Background(), Request{PlaylistURL: srv.URL + "/radio/master.m3u8", OutputPath: output})
	assert.ErrorIs(t, err, ErrNoSegments)
	assert.Zero(t, enc.calls)
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
	emptyDir(t, tmp)
}

func TestPipeline_TranscodeFailureCleansUp(t *testing.T) {
	srv := hlsServer(t, "seg_000.ts\n")
	tmp := t.TempDir()

	enc := &copyEncoder{err: &TranscodeError{Err: errors.New("exit status 1")}}
	p := NewPipeline(newTestDownloader(t, nil, nil), enc, PipelineOptions{TempDir: tmp})

	err := p.Run(context.Background(), Request{PlaylistURL: srv.URL + "/radio/audio/index.m3u8", OutputPath: filepath.Join(t.TempDir(), "x.mp3")})
	var tErr *TranscodeError
	require.ErrorAs(t, err, &tErr)
	emptyDir(t, tmp)
}

func TestPipeline_KeepTemp(t *testing.T) {
	srv := hlsServer(t, "seg_000.ts\nseg_001.ts\n")
	tmp := t.TempDir()

	p := NewPipeline(newTestDownloader(t, nil, nil), &copyEncoder{}, PipelineOptions{TempDir: tmp, KeepTemp: true})
	err := p.Run(context.Background(), Request{PlaylistURL: srv.URL + "/radio/audio/index.m3u8", OutputPath: filepath.Join(t.TempDir(), "x.mp3")})
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(tmp, "m3u8audio-*", "segment_0000[12].ts"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestPipeline_UsesCache(t *testing.T) {
	srv := hlsServer(t, "seg_000.ts\n")
	cache := filepath.Join(t.TempDir(), "segments.json")
	playlist := srv.URL + "/radio/audio/index.m3u8"
	require.NoError(t, SaveCache(cache, playlist, []string{srv.URL + "/radio/audio/seg_002.ts"}))

	enc := &copyEncoder{}
	p := NewPipeline(newTestDownloader(t, nil, nil), enc, PipelineOptions{TempDir: t.TempDir(), CacheFile: cache})
	err := p.Run(context.Background(), Request{PlaylistURL: playlist, OutputPath: filepath.Join(t.TempDir(), "x.mp3")})
	require.NoError(t, err)
	assert.Equal(t, "CC", string(enc.input))
}

func TestPipeline_IgnoresCacheOfOtherPlaylist(t *testing.T) {
	srv := hlsServer(t, "seg_000.ts\n")
	cache := filepath.Join(t.TempDir(), "segments.json")
	playlist := srv.URL + "/radio/audio/index.m3u8"
	require.NoError(t, SaveCache(cache, srv.URL+"/other/index.m3u8", []string{srv.URL + "/radio/audio/seg_002.ts"}))

	enc := &copyEncoder{}
	p := NewPipeline(newTestDownloader(t, nil, nil), enc, PipelineOptions{TempDir: t.TempDir(), CacheFile: cache})
	err := p.Run(context.Background(), Request{PlaylistURL: playlist, OutputPath: filepath.Join(t.TempDir(), "x.mp3")})
	require.NoError(t, err)
	assert.Equal(t, "AA", string(enc.input))

	urls, err := LoadCache(cache, playlist)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/radio/audio/seg_000.ts"}, urls)
}

func TestPipeline_SegmentRetryExhaustionAborts(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/radio/index.m3u8", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "#EXTM3U\n#EXTINF:10,\nseg_000.ts\n#EXTINF:10,\ngone.ts\n#EXTINF:10,\nseg_002.ts\n")
	})
	mux.HandleFunc("/radio/seg_000.ts", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "AA")
	})
	mux.HandleFunc("/radio/gone.ts", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/radio/seg_002.ts", func(w http.ResponseWriter, _ *http.Request) {
		t.Error("segment after the failed one was requested")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	tmp := t.TempDir()
	output := filepath.Join(t.TempDir(), "radio.mp3")
	enc := &copyEncoder{}
	p := NewPipeline(newTestDownloader(t, nil, nil), enc, PipelineOptions{TempDir: tmp})

	err := p.Run(context.Background(), Request{PlaylistURL: srv.URL + "/radio/index.m3u8", OutputPath: output})
	var fErr *FetchError
	require.ErrorAs(t, err, &fErr)
	assert.Equal(t, DefaultMaxAttempts, fErr.Attempts)
	assert.Equal(t, int32(DefaultMaxAttempts), hits.Load())

	assert.Zero(t, enc.calls)
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
	emptyDir(t, tmp)
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		field string
	}{
		{"ok", Request{"https://cdn/x.m3u8", "out.mp3"}, ""},
		{"upper ext", Request{"HTTP://cdn/x.m3u8", "OUT.MP3"}, ""},
		{"ftp scheme", Request{"ftp://cdn/x.m3u8", "out.mp3"}, "playlist url"},
		{"no scheme", Request{"cdn/x.m3u8", "out.mp3"}, "playlist url"},
		{"no host", Request{"http:///x.m3u8", "out.mp3"}, "playlist url"},
		{"wrong ext", Request{"http://cdn/x.m3u8", "out.wav"}, "output path"},
		{"no ext", Request{"http://cdn/x.m3u8", "out"}, "output path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *InputValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestPipeline_InvalidInputMakesNoRequests(t *testing.T) {
	var calls int
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return textResponse(req, http.StatusOK, "seg.ts\n", nil), nil
	})
	p := NewPipeline(newTestDownloader(t, rt, nil), &copyEncoder{}, PipelineOptions{TempDir: t.TempDir()})

	err := p.Run(context.Background(), Request{PlaylistURL: "http://cdn/x.m3u8", OutputPath: "out.aac"})
	var vErr *InputValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, calls)
}
