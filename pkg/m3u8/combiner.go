package m3u8

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
)

const stderrTail = 2048

// Transcoder encodes the concatenated stream to MP3 with ffmpeg using a
// fixed profile: libmp3lame, constant 128 kbps, no video.
type Transcoder struct {
	ffmpegPath string
	logger     zerolog.Logger
}

// NewTranscoder returns a transcoder running ffmpegPath, "ffmpeg" when empty.
func NewTranscoder(ffmpegPath string, logger *zerolog.Logger) *Transcoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Transcoder{
		ffmpegPath: ffmpegPath,
		logger:     withComponent(logger, "transcoder"),
	}
}

func transcodeArgs(input, output string) []string {
	return []string{
		"-y",
		"-i", input,
		"-vn",
		"-acodec", "libmp3lame",
		"-ab", "128k",
		"-f", "mp3",
		output,
	}
}

// Transcode converts input into the MP3 file at output. The output only
// appears once ffmpeg succeeded.
func (t *Transcoder) Transcode(ctx context.Context, input, output string) error {
	pending, err := renameio.NewPendingFile(output, renameio.WithPermissions(0o644))
	if err != nil {
		return &LocalIOError{Op: "create", Path: output, Err: err}
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			t.logger.Debug().Err(err).Msg("cleanup pending output file")
		}
	}()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.ffmpegPath, transcodeArgs(input, pending.Name())...)
	cmd.Stderr = &stderr

	t.logger.Debug().Str("binary", t.ffmpegPath).Strs("args", cmd.Args[1:]).Msg("starting ffmpeg")
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return aborted(ctxErr)
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return &TranscodeError{NotFound: true, Err: err}
		}
		return &TranscodeError{Stderr: tail(stderr.String(), stderrTail), Err: err}
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return &LocalIOError{Op: "replace", Path: output, Err: fmt.Errorf("atomically replace output: %w", err)}
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
