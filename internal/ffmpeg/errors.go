package ffmpeg

import "regexp"

// Pre-compiled regexes for classifying ffmpeg stderr output into retryable
// error categories. Checked in order by [RetryState.Advance]; the first
// matching pattern whose fix has not yet been applied wins.
var (
	reOddDimensions = regexp.MustCompile(
		`(?i)not divisible by 2|width and height must be even|` +
			`height not divisible|width not divisible`)

	reTagIssue = regexp.MustCompile(
		`(?i)Tag \S+ incompatible with output codec|` +
			`Could not find tag for codec|codec tag .* not supported`)

	reEncoderIssue = regexp.MustCompile(
		`(?i)Unknown encoder|encoder .* not found|` +
			`Error while opening encoder|Error initializing output stream`)
)

// MatchOddDimensions reports whether the encoder rejected odd frame sizes.
func MatchOddDimensions(stderr string) bool {
	return reOddDimensions.MatchString(stderr)
}

// MatchTagIssue reports whether the container rejected the fourcc tag.
func MatchTagIssue(stderr string) bool {
	return reTagIssue.MatchString(stderr)
}

// MatchEncoderIssue reports whether the requested encoder is unavailable.
func MatchEncoderIssue(stderr string) bool {
	return reEncoderIssue.MatchString(stderr)
}
