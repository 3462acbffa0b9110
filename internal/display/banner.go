package display

import (
	"fmt"
	"io"

	"github.com/backmassage/cloudviz/internal/term"
)

// PrintBanner writes the ASCII banner and the stage being run.
func PrintBanner(w io.Writer, stage string) {
	art := `      _                 _       _
  ___| | ___  _   _  __| |_   _(_)____
 / __| |/ _ \| | | |/ _` + "`" + ` \ \ / / |_  /
| (__| | (_) | |_| | (_| |\ V /| |/ /
 \___|_|\___/ \__,_|\__,_| \_/ |_/___|
`
	fmt.Fprint(w, term.Paint(term.Cyan, art))
	if stage != "" {
		fmt.Fprintln(w, term.Paint(term.Bold, "  "+stage))
	}
	fmt.Fprintln(w)
}
