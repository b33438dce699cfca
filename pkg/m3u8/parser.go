package m3u8

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	streamInfTag  = "#EXT-X-STREAM-INF"
	commentMarker = "#"
)

// Kind tells master playlists apart from media playlists
type Kind int

const (
	KindMedia Kind = iota
	KindMaster
)

func (k Kind) String() string {
	if k == KindMaster {
		return "master"
	}
	return "media"
}

// Document is one fetched playlist together with the URL it was fetched from.
// The URL is the base for every relative reference inside Text.
type Document struct {
	URL  string
	Text string
}

// Rendition is a #EXT-X-STREAM-INF entry of a master playlist
type Rendition struct {
	Attributes string
	URI        string
}

func lines(text string) []string {
	return strings.Split(text, "\n")
}

// Classify reports KindMaster if any line begins with the stream-info tag.
// Leading whitespace disqualifies a line.
func Classify(doc Document) Kind {
	for _, line := range lines(doc.Text) {
		if strings.HasPrefix(line, streamInfTag) {
			return KindMaster
		}
	}
	return KindMedia
}

// ExtractRenditions returns the renditions of a master playlist in document
// order. A stream-info line whose next non-blank line is missing or is itself
// a tag is dropped.
func ExtractRenditions(doc Document) []Rendition {
	var renditions []Rendition
	all := lines(doc.Text)

	for i := 0; i < len(all); i++ {
		if !strings.HasPrefix(all[i], streamInfTag) {
			continue
		}
		line := strings.TrimSpace(all[i])

		j := i + 1
		for j < len(all) && strings.TrimSpace(all[j]) == "" {
			j++
		}
		if j >= len(all) {
			break
		}

		uri := strings.TrimSpace(all[j])
		if strings.HasPrefix(uri, commentMarker) {
			continue
		}

		renditions = append(renditions, Rendition{
			Attributes: strings.TrimPrefix(strings.TrimPrefix(line, streamInfTag), ":"),
			URI:        uri,
		})
		i = j
	}

	return renditions
}

// ExtractSegmentReferences returns every non-blank, non-comment line of a
// media playlist, trimmed, in document order.
func ExtractSegmentReferences(doc Document) []string {
	var refs []string
	for _, line := range lines(doc.Text) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, commentMarker) {
			continue
		}
		refs = append(refs, line)
	}
	return refs
}

// LoadHeaders loads custom HTTP headers from a JSON file
func LoadHeaders(headersFile string) (map[string]string, error) {
	if headersFile == "" {
		return nil, nil
	}

	data, err := os.ReadFile(headersFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read headers file: %w", err)
	}

	var headers map[string]string
	if err := json.Unmarshal(data, &headers); err != nil {
		return nil, fmt.Errorf("failed to parse headers file: %w", err)
	}

	return headers, nil
}
