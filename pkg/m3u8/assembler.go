package m3u8

import (
	"fmt"
	"io"
	"os"
	"sort"
)

// Concatenate writes the segment files to w back to back, ordered by Index.
// No separators are written; the segments must be concatenable as-is, which
// holds for MPEG-TS and raw ADTS audio.
func Concatenate(w io.Writer, files []SegmentFile) (int64, error) {
	ordered := make([]SegmentFile, len(files))
	copy(ordered, files)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	var total int64
	for _, sf := range ordered {
		n, err := appendFile(w, sf.Path)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func appendFile(w io.Writer, path string) (int64, error) {
	in, err := os.Open(path)
	if err != nil {
		return 0, &LocalIOError{Op: "open", Path: path, Err: err}
	}
	defer in.Close()

	n, err := io.Copy(w, in)
	if err != nil {
		return n, &LocalIOError{Op: "concatenate", Path: path, Err: err}
	}
	return n, nil
}

// ConcatenateFile concatenates the segments into a new file at path
func ConcatenateFile(path string, files []SegmentFile) (n int64, err error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, &LocalIOError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = &LocalIOError{Op: "close", Path: path, Err: cerr}
		}
	}()

	n, err = Concatenate(out, files)
	if err != nil {
		return n, fmt.Errorf("error concatenating segments: %w", err)
	}
	return n, nil
}
