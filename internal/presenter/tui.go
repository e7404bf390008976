package presenter

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

var tuiColors = map[string]string{
	"low":  "green",
	"mid":  "yellow",
	"high": "red",
}

// TUIDisplay renders frames into a full-screen tview application.
type TUIDisplay struct {
	app     *tview.Application
	view    *tview.TextView
	width   int
	running atomic.Bool
}

func NewTUIDisplay(title string, width int) *TUIDisplay {
	if width <= 0 {
		width = DefaultBarWidth
	}

	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	tv.SetBorder(true).SetTitle(" " + title + " ").SetTitleAlign(tview.AlignLeft)

	app := tview.NewApplication().SetRoot(tv, true).EnableMouse(false)

	d := &TUIDisplay{app: app, view: tv, width: width}

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || event.Key() == tcell.KeyCtrlC || event.Rune() == 'q' {
			app.Stop()
			return nil
		}
		return event
	})

	return d
}

// Show replaces the whole text of the view in one draw.
func (d *TUIDisplay) Show(v View) error {
	text := d.frame(v)

	if !d.running.Load() {
		d.view.SetText(text)
		return nil
	}

	d.app.QueueUpdateDraw(func() {
		d.view.SetText(text)
	})
	return nil
}

// Run blocks until the user quits or ctx is done.
func (d *TUIDisplay) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stopped := make(chan struct{})
	defer close(stopped)

	go func() {
		select {
		case <-ctx.Done():
			d.app.Stop()
		case <-stopped:
		}
	}()

	d.running.Store(true)
	defer d.running.Store(false)

	return d.app.Run()
}

func (d *TUIDisplay) Text() string {
	return d.view.GetText(true)
}

func (d *TUIDisplay) frame(v View) string {
	lines := renderLines(v, d.width, func(lvl, s string) string {
		if s == "" {
			return s
		}
		return "[" + tuiColors[lvl] + "]" + s + "[-]"
	})

	return strings.Join(lines, "\n")
}
