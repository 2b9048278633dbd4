// Package ffprobe decodes the JSON that ffprobe prints for a media file.
//
// Inspect runs the binary; Result exposes the stream list and the container
// duration used to bound frame capture offsets.
package ffprobe
