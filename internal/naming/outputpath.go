package naming

import (
	"path/filepath"
	"strconv"
	"strings"
)

// OutputPath returns dir/<stem of input><ext>. ext includes the dot; an
// empty ext keeps the input's extension.
func OutputPath(dir, input, ext string) string {
	base := filepath.Base(input)
	if ext == "" {
		return filepath.Join(dir, base)
	}
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+ext)
}

// StrideDir appends "_stride_<n>" to dir when stride is above 1, unless dir
// already ends with that suffix.
func StrideDir(dir string, stride int) string {
	if stride <= 1 {
		return dir
	}
	suffix := "_stride_" + strconv.Itoa(stride)
	if strings.HasSuffix(dir, suffix) {
		return dir
	}
	return dir + suffix
}
