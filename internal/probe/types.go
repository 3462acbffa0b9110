package probe

import (
	"math"
	"strconv"
	"strings"
)

// FormatInfo holds container-level metadata from ffprobe's format section.
type FormatInfo struct {
	Filename   string
	FormatName string
	Duration   float64 // Seconds.
	Size       int64
	BitRate    int64
}

// VideoStream holds the parsed properties of a single video stream.
type VideoStream struct {
	Index        int
	Codec        string
	CodecTag     string // fourcc, e.g. "DIVX" or "MJPG".
	PixFmt       string
	Width        int
	Height       int
	NbFrames     int
	AvgFrameRate string // Rational, e.g. "5/1".
}

// ProbeResult is the parsed output of one ffprobe call. Video is the first
// video stream, nil when there is none.
type ProbeResult struct {
	Format FormatInfo
	Video  *VideoStream
}

// Resolution returns "WxH" for the video stream, or "unknown".
func (p *ProbeResult) Resolution() string {
	if p.Video == nil || p.Video.Width <= 0 || p.Video.Height <= 0 {
		return "unknown"
	}
	return strconv.Itoa(p.Video.Width) + "x" + strconv.Itoa(p.Video.Height)
}

// FrameRate parses AvgFrameRate. It returns 0 when unknown.
func (p *ProbeResult) FrameRate() float64 {
	if p.Video == nil {
		return 0
	}
	num, den, ok := strings.Cut(p.Video.AvgFrameRate, "/")
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// FrameCount returns nb_frames when the container reports it, otherwise
// duration times frame rate, rounded.
func (p *ProbeResult) FrameCount() int {
	if p.Video != nil && p.Video.NbFrames > 0 {
		return p.Video.NbFrames
	}
	return int(math.Round(p.Format.Duration * p.FrameRate()))
}
