package m3u8

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestDescribe_LogsMetadataAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	describe(logger, Document{Text: "#EXTM3U\n#EXT-X-TARGETDURATION:10\n#EXTINF:9.5,\na.ts\n#EXTINF:10,\nb.ts\n#EXT-X-ENDLIST\n"})
	assert.Contains(t, buf.String(), `"target_duration":10`)
	assert.Contains(t, buf.String(), `"total_duration":19.5`)

	buf.Reset()
	describe(logger, Document{Text: "#EXTM3U\n" + masterPlaylist})
	assert.Contains(t, buf.String(), `"variants":2`)
	assert.Contains(t, buf.String(), `"first_bandwidth":128000`)
}

func TestDescribe_QuietAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	describe(zerolog.New(&buf).Level(zerolog.InfoLevel), Document{Text: "#EXTM3U\na.ts\n"})
	assert.Empty(t, buf.String())
}

func TestDescribe_UndecodableDocument(t *testing.T) {
	var buf bytes.Buffer
	assert.NotPanics(t, func() {
		describe(zerolog.New(&buf).Level(zerolog.DebugLevel), Document{Text: masterPlaylist})
	})
}
