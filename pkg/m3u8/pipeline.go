package m3u8

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const outputExt = ".mp3"

// Encoder turns the concatenated stream into the final audio file
type Encoder interface {
	Transcode(ctx context.Context, input, output string) error
}

// Request is one playlist-to-MP3 conversion
type Request struct {
	PlaylistURL string
	OutputPath  string
}

// PipelineOptions controls intermediate storage and the resolved-list cache.
type PipelineOptions struct {
	// TempDir is the parent of the per-run working directory; os.TempDir when empty.
	TempDir string
	// KeepTemp leaves the working directory in place after the run.
	KeepTemp bool
	// CacheFile, when set, stores the resolved segment list and reuses it.
	CacheFile string
}

// Pipeline resolves, downloads, concatenates and transcodes.
type Pipeline struct {
	downloader *Downloader
	resolver   *Resolver
	encoder    Encoder
	opts       PipelineOptions
	logger     zerolog.Logger
}

// NewPipeline wires a pipeline around d and enc
func NewPipeline(d *Downloader, enc Encoder, opts PipelineOptions) *Pipeline {
	dopts := d.Options()
	return &Pipeline{
		downloader: d,
		resolver:   NewResolver(d, dopts),
		encoder:    enc,
		opts:       opts,
		logger:     withComponent(dopts.Logger, "pipeline"),
	}
}

// ValidateRequest checks the request before any network activity.
func ValidateRequest(req Request) error {
	u, err := url.Parse(req.PlaylistURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &InputValidationError{
			Field:  "playlist url",
			Value:  req.PlaylistURL,
			Reason: "please provide a valid http or https m3u8 URL",
		}
	}
	if !strings.EqualFold(filepath.Ext(req.OutputPath), outputExt) {
		return &InputValidationError{
			Field:  "output path",
			Value:  req.OutputPath,
			Reason: "output file must have .mp3 extension",
		}
	}
	return nil
}

// Run executes the whole conversion. Any error is terminal; no output file is
// produced from a partial set of segments.
func (p *Pipeline) Run(ctx context.Context, req Request) error {
	if err := ValidateRequest(req); err != nil {
		return err
	}

	logger := p.logger.With().Str("run_id", uuid.NewString()).Logger()

	workDir, err := os.MkdirTemp(p.opts.TempDir, "m3u8audio-*")
	if err != nil {
		return &LocalIOError{Op: "mkdir", Path: p.opts.TempDir, Err: err}
	}
	if p.opts.KeepTemp {
		logger.Info().Str("path", workDir).Msg("keeping intermediate files")
	} else {
		defer func() {
			if err := os.RemoveAll(workDir); err != nil {
				logger.Warn().Err(err).Str("path", workDir).Msg("failed to remove intermediate files")
			}
		}()
	}

	logger.Info().Str("url", sanitizeURL(req.PlaylistURL)).Msg("Downloading m3u8 playlist...")
	urls, err := p.segmentURLs(ctx, logger, req.PlaylistURL)
	if err != nil {
		return err
	}

	logger.Info().Int("segments", len(urls)).Msgf("Found %d segments. Starting download...", len(urls))
	files, err := p.downloader.FetchAll(ctx, urls, workDir)
	if err != nil {
		return err
	}

	concatenated := filepath.Join(workDir, "concatenated"+files[0].Ext)
	logger.Info().Msg("Concatenating segments...")
	size, err := ConcatenateFile(concatenated, files)
	if err != nil {
		return err
	}
	logger.Debug().Int64("bytes", size).Str("path", concatenated).Msg("segments concatenated")

	logger.Info().Msg("Converting to MP3...")
	if err := p.encoder.Transcode(ctx, concatenated, req.OutputPath); err != nil {
		return err
	}

	logger.Info().Str("output", req.OutputPath).Msg("conversion finished")
	return nil
}

func (p *Pipeline) segmentURLs(ctx context.Context, logger zerolog.Logger, playlistURL string) ([]string, error) {
	if p.opts.CacheFile != "" {
		urls, err := LoadCache(p.opts.CacheFile, playlistURL)
		if err == nil {
			logger.Info().Str("cache", p.opts.CacheFile).Msg("Using cached segment list")
			return urls, nil
		}
		logger.Debug().Err(err).Str("cache", p.opts.CacheFile).Msg("segment cache not usable")
	}

	urls, err := p.resolver.Resolve(ctx, playlistURL)
	if err != nil {
		return nil, err
	}

	if p.opts.CacheFile != "" {
		if err := SaveCache(p.opts.CacheFile, playlistURL, urls); err != nil {
			return nil, err
		}
	}
	return urls, nil
}
