package render

import "regexp"

// reDisplayIssue matches pvbatch failures caused by a missing X display,
// which --force-offscreen-rendering avoids.
var reDisplayIssue = regexp.MustCompile(
	`(?i)cannot open display|could not open display|bad X server connection|` +
		`failed to connect to X|XOpenDisplay|no protocol specified|` +
		`Could not find a usable OpenGL|vtkXOpenGLRenderWindow`)

// MatchDisplayIssue reports whether pvbatch output contains a display error.
func MatchDisplayIssue(output string) bool {
	return reDisplayIssue.MatchString(output)
}
