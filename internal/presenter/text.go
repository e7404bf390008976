package presenter

import (
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

const clearScreen = "\x1b[H\x1b[2J"

// TextDisplay writes each frame to w in a single Write call. On a terminal
// the screen is cleared first and bars are coloured by load.
type TextDisplay struct {
	w        io.Writer
	width    int
	terminal bool
	palette  map[string]*color.Color
}

func NewTextDisplay(w io.Writer, width int) *TextDisplay {
	if width <= 0 {
		width = DefaultBarWidth
	}

	return &TextDisplay{
		w:        w,
		width:    width,
		terminal: IsTerminal(w),
		palette: map[string]*color.Color{
			"low":  color.New(color.FgGreen),
			"mid":  color.New(color.FgYellow),
			"high": color.New(color.FgRed),
		},
	}
}

func (d *TextDisplay) Show(v View) error {
	var b strings.Builder

	if d.terminal {
		b.WriteString(clearScreen)
	}

	for _, line := range renderLines(v, d.width, d.paint) {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if !d.terminal {
		// frame separator for logs and pipes
		b.WriteByte('\n')
	}

	_, err := io.WriteString(d.w, b.String())
	return err
}

func (d *TextDisplay) paint(lvl, s string) string {
	if !d.terminal || s == "" {
		return s
	}

	c := d.palette[lvl]
	c.EnableColor()
	return c.Sprint(s)
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
