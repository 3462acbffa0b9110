// Package video assembles rendered img.<N>.png frames into an AVI. The
// default "mjpeg" backend is pure Go; the "ffmpeg" backend pipes the frames
// through an external ffmpeg.
package video

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/backmassage/cloudviz/internal/naming"
)

// Frames is the ordered frame sequence found in an image directory.
type Frames struct {
	Paths   []string // Ordered by numeric frame index.
	Indices []int
	Ignored []string // PNGs that are not img.<N>.png, by base name.
	Gaps    []int    // Missing indices between the first and last frame.
}

// CollectFrames lists the img.<N>.png files of dir in numeric order, so
// img.10.png follows img.9.png.
func CollectFrames(dir string) (*Frames, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type frame struct {
		n    int
		path string
	}
	var found []frame
	fr := &Frames{}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		n, ok := naming.FrameIndex(e.Name())
		if !ok {
			fr.Ignored = append(fr.Ignored, e.Name())
			continue
		}
		found = append(found, frame{n: n, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	for i, f := range found {
		if i > 0 {
			for m := found[i-1].n + 1; m < f.n; m++ {
				fr.Gaps = append(fr.Gaps, m)
			}
		}
		fr.Paths = append(fr.Paths, f.path)
		fr.Indices = append(fr.Indices, f.n)
	}
	return fr, nil
}

// Len returns the number of frames.
func (f *Frames) Len() int { return len(f.Paths) }
