// Package probe inspects encoded videos with a single ffprobe JSON call and
// returns typed results, used to confirm that a video holds the expected
// frames at the expected size and rate.
package probe
