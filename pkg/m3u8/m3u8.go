// Package m3u8 resolves HLS playlists to an ordered list of media segments,
// downloads those segments with bounded retry, concatenates them into a single
// stream and hands the result to ffmpeg for transcoding to MP3.
package m3u8
