package skillmgr

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	sectionTitle = lipgloss.NewStyle().Bold(true)
	sectionRule  = strings.Repeat("-", 32)
)

func printSection(w io.Writer, title, body string) {
	fmt.Fprintln(w, sectionTitle.Render(title))
	fmt.Fprintln(w, sectionRule)
	fmt.Fprint(w, body)
	if !strings.HasSuffix(body, "\n") {
		fmt.Fprintln(w)
	}
}
