package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hollowness-inside/m3u8audio/pkg/m3u8"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var (
	configFile  string
	headers     string
	userAgent   string
	cacheFile   string
	metricsFile string
	ffmpegPath  string
	tempDir     string
	keepTemp    bool
	concurrent  int
	maxAttempts int
	backoff     time.Duration
	timeout     time.Duration
	maxDepth    int
	rateLimit   float64
	rateBurst   int
)

// resolveSettings layers defaults, the optional config file and explicitly set flags
func resolveSettings(cmd *cobra.Command) (settings, error) {
	s := defaultSettings()

	if configFile != "" {
		fc, err := loadConfigFile(configFile)
		if err != nil {
			return s, err
		}
		s.applyFile(fc)
	}

	flags := cmd.Flags()
	if flags.Changed("headers") {
		s.HeadersFile = headers
	}
	if flags.Changed("user-agent") {
		s.Options.UserAgent = userAgent
	}
	if flags.Changed("cache") {
		s.CacheFile = cacheFile
	}
	if flags.Changed("metrics-file") {
		s.MetricsFile = metricsFile
	}
	if flags.Changed("ffmpeg") {
		s.FFmpegPath = ffmpegPath
	}
	if flags.Changed("temp-dir") {
		s.TempDir = tempDir
	}
	if flags.Changed("keep-temp") {
		s.KeepTemp = keepTemp
	}
	if flags.Changed("concurrent") {
		s.Options.Concurrency = concurrent
	}
	if flags.Changed("max-attempts") {
		s.Options.Retry.MaxAttempts = maxAttempts
	}
	if flags.Changed("backoff") {
		s.Options.Retry.Backoff = backoff
	}
	if flags.Changed("timeout") {
		s.Options.Retry.Timeout = timeout
	}
	if flags.Changed("max-depth") {
		s.Options.MaxDepth = maxDepth
	}
	if flags.Changed("rate-limit") {
		s.Options.RateLimit = rate.Limit(rateLimit)
	}
	if flags.Changed("rate-burst") {
		s.Options.RateBurst = rateBurst
	}
	if flags.Changed("verbose") {
		s.Verbose, _ = flags.GetBool("verbose")
	}

	if s.HeadersFile != "" {
		headerMap, err := m3u8.LoadHeaders(s.HeadersFile)
		if err != nil {
			return s, err
		}
		if s.Options.Headers == nil {
			s.Options.Headers = make(map[string]string, len(headerMap))
		}
		for k, v := range headerMap {
			s.Options.Headers[k] = v
		}
	}

	return s, s.validate()
}

func runE(cmd *cobra.Command, args []string) error {
	req := m3u8.Request{PlaylistURL: args[0], OutputPath: args[1]}
	if err := m3u8.ValidateRequest(req); err != nil {
		return err
	}

	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	m3u8.ConfigureLogging(consoleWriter(cmd.ErrOrStderr()), s.Verbose)
	logger := m3u8.Logger()
	s.Options.Logger = &logger

	if s.MetricsFile != "" {
		defer func() {
			if err := m3u8.WriteMetrics(s.MetricsFile); err != nil {
				logger.Warn().Err(err).Str("path", s.MetricsFile).Msg("failed to write metrics")
			}
		}()
	}

	downloader := m3u8.NewDownloader(s.Options, nil)
	transcoder := m3u8.NewTranscoder(s.FFmpegPath, &logger)
	pipeline := m3u8.NewPipeline(downloader, transcoder, m3u8.PipelineOptions{
		TempDir:   s.TempDir,
		KeepTemp:  s.KeepTemp,
		CacheFile: s.CacheFile,
	})

	if err := pipeline.Run(cmd.Context(), req); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "MP3 file saved as: %s\n", req.OutputPath)
	return nil
}

func consoleWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "m3u8audio <m3u8_url> <output_mp3>",
		Short:         "Download an HLS audio stream and convert it to MP3",
		Args:          cobra.ExactArgs(2),
		RunE:          runE,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.Flags()
	flags.StringVar(&configFile, "config", "", "Path to YAML config file")
	flags.StringVar(&headers, "headers", "", "Path to JSON file containing request headers")
	flags.StringVar(&userAgent, "user-agent", m3u8.DefaultUserAgent, "User-Agent sent with every request")
	flags.StringVar(&cacheFile, "cache", "", "Path to cache the resolved segment list")
	flags.StringVar(&metricsFile, "metrics-file", "", "Write fetch metrics in Prometheus text format to this file")
	flags.StringVar(&ffmpegPath, "ffmpeg", "", "Path to ffmpeg executable")
	flags.StringVar(&tempDir, "temp-dir", "", "Parent directory for intermediate files")
	flags.BoolVar(&keepTemp, "keep-temp", false, "Keep intermediate files after the run")
	flags.IntVar(&concurrent, "concurrent", m3u8.DefaultConcurrency, "Number of concurrent segment downloads")
	flags.IntVar(&maxAttempts, "max-attempts", m3u8.DefaultMaxAttempts, "Attempts per request before giving up")
	flags.DurationVar(&backoff, "backoff", m3u8.DefaultBackoff, "Wait between attempts")
	flags.DurationVar(&timeout, "timeout", m3u8.DefaultTimeout, "Timeout of a single attempt")
	flags.IntVar(&maxDepth, "max-depth", m3u8.DefaultMaxDepth, "Maximum number of master playlists to follow")
	flags.Float64Var(&rateLimit, "rate-limit", 0, "Maximum requests per second (0 disables)")
	flags.IntVar(&rateBurst, "rate-burst", 1, "Request burst allowed by --rate-limit")
	flags.BoolP("verbose", "v", false, "Enable verbose output")

	return rootCmd
}

func exitCode(err error) int {
	if errors.Is(err, m3u8.ErrAborted) {
		return 130
	}
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
