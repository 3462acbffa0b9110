package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Input file extensions (lowercase, with leading dot).
const (
	extNetCDF = ".nc"
	extText   = ".txt"
	extVTU    = ".vtu"
)

// Discover lists the regular files directly inside dir whose extension
// matches one of exts (case-insensitive), sorted lexicographically. The sort
// order is the time order of the simulation dumps.
func Discover(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		for _, want := range exts {
			if strings.EqualFold(ext, want) {
				files = append(files, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
