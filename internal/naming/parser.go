package naming

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoTimeIndex is returned when a file name has no numeric second
// dot-separated field (e.g. "particles.000300.vtu").
var ErrNoTimeIndex = errors.New("no time index in file name")

// frameRe matches rendered frame names, img.<N>.png.
var frameRe = regexp.MustCompile(`^img\.(\d+)\.png$`)

// TimeIndex returns the second dot-separated field of the file stem (the
// name without its last extension) parsed as a number.
func TimeIndex(name string) (float64, error) {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	parts := strings.Split(stem, ".")
	if len(parts) < 2 {
		return 0, fmt.Errorf("%s: %w", base, ErrNoTimeIndex)
	}
	v, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s: %q: %w", base, parts[1], ErrNoTimeIndex)
	}
	return v, nil
}

// ImageIndex maps a particle file name to its frame number: the time index
// divided by 100, rounded half to even.
func ImageIndex(name string) (int, error) {
	v, err := TimeIndex(name)
	if err != nil {
		return 0, err
	}
	return int(math.RoundToEven(v / 100)), nil
}

// ImageName returns "img.<N>.png" for a particle file name.
func ImageName(name string) (string, error) {
	n, err := ImageIndex(name)
	if err != nil {
		return "", err
	}
	return FrameName(n), nil
}

// FrameName formats frame number n as an image file name.
func FrameName(n int) string {
	return "img." + strconv.Itoa(n) + ".png"
}

// FrameIndex parses an image name produced by [FrameName]. It reports false
// for any other name.
func FrameIndex(name string) (int, bool) {
	m := frameRe.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
