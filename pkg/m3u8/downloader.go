package m3u8

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/elnormous/contenttype"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	audioSegmentExt   = ".aac"
	defaultSegmentExt = ".ts"
)

var safeExt = regexp.MustCompile(`^\.[A-Za-z0-9]{1,8}$`)

// Downloader fetches playlists and segments over a shared HTTP client
type Downloader struct {
	client  *http.Client
	limiter *rate.Limiter
	opts    Options
	logger  zerolog.Logger
}

// SegmentFile is one downloaded segment. Index is the 1-based position of
// the segment in the resolved list and defines concatenation order.
type SegmentFile struct {
	Index int
	URL   string
	Path  string
	Ext   string
	Size  int64
}

// NewDownloader creates a downloader. base is the underlying round tripper,
// http.DefaultTransport when nil.
func NewDownloader(opts Options, base http.RoundTripper) *Downloader {
	opts = normalizeOptions(opts)
	if base == nil {
		base = http.DefaultTransport
	}

	d := &Downloader{
		client: &http.Client{
			Transport: &HeaderMapTransport{
				Headers:   opts.Headers,
				UserAgent: opts.UserAgent,
				Base:      base,
			},
		},
		opts:   opts,
		logger: withComponent(opts.Logger, "downloader"),
	}
	if opts.RateLimit > 0 {
		d.limiter = rate.NewLimiter(opts.RateLimit, opts.RateBurst)
	}
	return d
}

// Options returns the normalized options the downloader runs with
func (d *Downloader) Options() Options {
	return d.opts
}

func (d *Downloader) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return resp, &StatusError{StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// FetchPlaylist downloads the playlist at rawURL with retry
func (d *Downloader) FetchPlaylist(ctx context.Context, rawURL string) (Document, error) {
	var text string
	err := d.withRetry(ctx, kindPlaylist, rawURL, func(ctx context.Context) (int, error) {
		resp, err := d.get(ctx, rawURL)
		if err != nil {
			return statusOf(resp), err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, fmt.Errorf("failed to read playlist: %w", err)
		}
		text = string(data)
		return resp.StatusCode, nil
	})
	if err != nil {
		return Document{}, err
	}
	return Document{URL: rawURL, Text: text}, nil
}

// FetchAll downloads urls into dir. The returned files are in input order and
// the first segment that exhausts its retry budget aborts the whole batch.
func (d *Downloader) FetchAll(ctx context.Context, urls []string, dir string) ([]SegmentFile, error) {
	results := make([]SegmentFile, len(urls))

	if d.opts.Concurrency <= 1 {
		for i, u := range urls {
			sf, err := d.downloadSegment(ctx, i+1, len(urls), u, dir)
			if err != nil {
				return nil, err
			}
			results[i] = sf
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			sf, err := d.downloadSegment(gctx, i+1, len(urls), u, dir)
			if err != nil {
				return err
			}
			results[i] = sf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (d *Downloader) downloadSegment(ctx context.Context, index, total int, rawURL, dir string) (SegmentFile, error) {
	d.logger.Info().
		Int("segment", index).
		Int("total", total).
		Str("url", sanitizeURL(rawURL)).
		Msgf("Downloading segment %d/%d", index, total)

	var sf SegmentFile
	err := d.withRetry(ctx, kindSegment, rawURL, func(ctx context.Context) (int, error) {
		resp, err := d.get(ctx, rawURL)
		if err != nil {
			return statusOf(resp), err
		}
		defer resp.Body.Close()

		ext := inferExtension(resp.Header, rawURL)
		outPath := filepath.Join(dir, segmentFilename(index, ext))
		if sf.Path != "" && sf.Path != outPath {
			_ = os.Remove(sf.Path)
		}
		sf = SegmentFile{Index: index, URL: rawURL, Path: outPath, Ext: ext}

		n, err := writeSegment(outPath, resp.Body)
		if err != nil {
			return resp.StatusCode, err
		}
		sf.Size = n
		return resp.StatusCode, nil
	})
	if err != nil {
		return SegmentFile{}, err
	}

	segmentBytes.Add(float64(sf.Size))
	return sf, nil
}

func writeSegment(outPath string, body io.Reader) (n int64, err error) {
	out, err := os.Create(outPath)
	if err != nil {
		return 0, &LocalIOError{Op: "create", Path: outPath, Err: err}
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = &LocalIOError{Op: "close", Path: outPath, Err: cerr}
		}
	}()

	n, err = io.Copy(fileWriter{f: out}, body)
	if err != nil {
		var ioErr *LocalIOError
		if errors.As(err, &ioErr) {
			return n, err
		}
		return n, fmt.Errorf("failed to read segment body: %w", err)
	}
	return n, nil
}

// fileWriter tags write failures so they are not mistaken for network errors.
type fileWriter struct {
	f *os.File
}

func (w fileWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		return n, &LocalIOError{Op: "write", Path: w.f.Name(), Err: err}
	}
	return n, nil
}

func segmentFilename(index int, ext string) string {
	return fmt.Sprintf("segment_%05d%s", index, ext)
}

// inferExtension picks the extension used to name a segment file. It has no
// bearing on how segments are concatenated.
func inferExtension(header http.Header, rawURL string) string {
	if values := header.Values("Content-Type"); len(values) > 0 {
		if isAudioContentType(values[0]) {
			return audioSegmentExt
		}
		return defaultSegmentExt
	}

	if u, err := url.Parse(rawURL); err == nil {
		if ext := path.Ext(u.Path); safeExt.MatchString(ext) {
			return ext
		}
	}
	return defaultSegmentExt
}

// isAudioContentType looks for "audio" in the media type itself; parameters
// don't count. Values that don't parse fall back to a substring match.
func isAudioContentType(value string) bool {
	mt, err := contenttype.ParseMediaType(value)
	if err != nil {
		return strings.Contains(strings.ToLower(value), "audio")
	}
	return strings.Contains(strings.ToLower(mt.Type+"/"+mt.Subtype), "audio")
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
