// Package ffmpeg assembles rendered frames into a video by piping them to an
// ffmpeg subprocess, with a shared argument skeleton and stderr-driven retry.
//
// Build produces the argument slice for one attempt. Execute streams the
// frames into ffmpeg's stdin and captures stderr. RetryState.Advance
// classifies a failure and applies one fallback per attempt: even-scale the
// frames, then drop the fourcc tag, then fall back to the mjpeg encoder.
package ffmpeg
