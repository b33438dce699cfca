package m3u8

import (
	"strings"

	grafov "github.com/grafov/m3u8"
	"github.com/rs/zerolog"
)

// describe logs playlist metadata at debug level. Documents that the decoder
// rejects are skipped; nothing here feeds back into resolution.
func describe(logger zerolog.Logger, doc Document) {
	if logger.GetLevel() > zerolog.DebugLevel {
		return
	}

	pl, listType, err := grafov.DecodeFrom(strings.NewReader(doc.Text), false)
	if err != nil {
		logger.Debug().Err(err).Msg("playlist metadata unavailable")
		return
	}

	switch listType {
	case grafov.MASTER:
		master := pl.(*grafov.MasterPlaylist)
		ev := logger.Debug().Int("variants", len(master.Variants))
		if len(master.Variants) > 0 && master.Variants[0] != nil {
			ev = ev.Uint32("first_bandwidth", master.Variants[0].Bandwidth).
				Str("first_codecs", master.Variants[0].Codecs)
		}
		ev.Msg("master playlist metadata")
	case grafov.MEDIA:
		media := pl.(*grafov.MediaPlaylist)
		var total float64
		for _, seg := range media.Segments {
			if seg == nil {
				break
			}
			total += seg.Duration
		}
		logger.Debug().
			Float64("target_duration", media.TargetDuration).
			Uint("segments", media.Count()).
			Float64("total_duration", total).
			Bool("closed", media.Closed).
			Msg("media playlist metadata")
	}
}
