package ffmpeg

import "github.com/backmassage/cloudviz/internal/config"

// RetryAction identifies which fix was applied (or none).
type RetryAction int

const (
	RetryNone          RetryAction = iota
	RetryEvenScale                 // Scale frames to even width and height.
	RetryDropTag                   // Let the muxer pick the fourcc.
	RetryFallbackCodec             // Switch to the mjpeg encoder.
)

func (a RetryAction) String() string {
	switch a {
	case RetryEvenScale:
		return "scale to even dimensions"
	case RetryDropTag:
		return "drop fourcc tag"
	case RetryFallbackCodec:
		return "fall back to " + FallbackCodec
	default:
		return "none"
	}
}

// FallbackCodec is the encoder used when the configured one is unavailable.
const FallbackCodec = "mjpeg"

const maxAttempts = 4

// RetryState tracks which fallback fixes have been applied across ffmpeg
// attempts for one video.
type RetryState struct {
	Attempt     int
	MaxAttempts int

	EvenScale bool
	Codec     string
	Tag       string
}

// NewRetryState initializes a RetryState from the video configuration.
// Strict mode allows a single attempt.
func NewRetryState(cfg *config.Config) *RetryState {
	rs := &RetryState{
		MaxAttempts: maxAttempts,
		Codec:       cfg.Video.Codec,
		Tag:         cfg.Video.Tag,
	}
	if cfg.StrictMode {
		rs.MaxAttempts = 1
	}
	return rs
}

// Advance inspects stderr from a failed ffmpeg run, finds the first matching
// error pattern whose fix has not yet been applied, applies that fix, and
// returns the action taken. Returns RetryNone when no fixable pattern matches
// or the attempt limit is reached.
//
// Pattern evaluation order: odd dimensions, tag, encoder.
func (s *RetryState) Advance(stderr string) RetryAction {
	s.Attempt++
	if s.Attempt >= s.MaxAttempts {
		return RetryNone
	}

	if !s.EvenScale && MatchOddDimensions(stderr) {
		s.EvenScale = true
		return RetryEvenScale
	}
	if s.Tag != "" && MatchTagIssue(stderr) {
		s.Tag = ""
		return RetryDropTag
	}
	if s.Codec != FallbackCodec && MatchEncoderIssue(stderr) {
		s.Codec = FallbackCodec
		s.Tag = ""
		return RetryFallbackCodec
	}

	return RetryNone
}
