// Package presenter projects CPU snapshots into bar lists and swaps them
// into a display.
package presenter

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"cputop/internal/domain"
)

const DefaultBarWidth = 40

// maxOverflow bounds how many bar widths an out-of-range fill may draw.
const maxOverflow = 10

type Bar struct {
	Index int
	Label string
	// Fill is the usage percentage, unclamped.
	Fill float64
}

type View struct {
	Bars []Bar
}

func (v View) Len() int {
	return len(v.Bars)
}

// Project is a pure function of the snapshot: the same input always yields
// the same view.
func Project(s domain.Snapshot) (View, error) {
	bars := make([]Bar, 0, len(s))

	for i, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return View{}, &domain.RenderError{Index: i, Value: v}
		}

		bars = append(bars, Bar{
			Index: i,
			Label: Label(i, v),
			Fill:  v,
		})
	}

	return View{Bars: bars}, nil
}

func Label(index int, value float64) string {
	return fmt.Sprintf("CPU %d: %s%%", index+1, formatPercent(value))
}

// formatPercent prints two decimals, rounding exact halves away from zero.
func formatPercent(v float64) string {
	if n, ok := halfHundredths(math.Abs(v)); ok {
		sign := ""
		if math.Signbit(v) {
			sign = "-"
		}
		return fmt.Sprintf("%s%d.%02d", sign, n/100, n%100)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// halfHundredths reports whether a sits exactly between two hundredths and
// returns the upper one, counted in hundredths.
func halfHundredths(a float64) (int64, bool) {
	x := new(big.Float).SetPrec(128).SetFloat64(a)
	x.Mul(x, big.NewFloat(200))
	if !x.IsInt() {
		return 0, false
	}

	doubled, acc := x.Int64()
	if acc != big.Exact || doubled%2 == 0 {
		return 0, false
	}
	return (doubled + 1) / 2, true
}

// cells returns how many of width cells a fill covers. Values above 100
// overflow past width up to maxOverflow widths, values below zero cover
// nothing.
func cells(fill float64, width int) int {
	if width <= 0 {
		return 0
	}

	limit := maxOverflow * width
	n := math.Round(fill / 100 * float64(width))
	switch {
	case n <= 0:
		return 0
	case n >= float64(limit):
		return limit
	default:
		return int(n)
	}
}

func level(fill float64) string {
	switch {
	case fill >= 80:
		return "high"
	case fill >= 50:
		return "mid"
	default:
		return "low"
	}
}

func labelWidth(v View) int {
	w := 0
	for _, b := range v.Bars {
		if len(b.Label) > w {
			w = len(b.Label)
		}
	}
	return w
}

// renderLines lays out one line per bar; paint wraps the filled part.
func renderLines(v View, width int, paint func(lvl, s string) string) []string {
	pad := labelWidth(v)
	lines := make([]string, 0, len(v.Bars))

	for _, b := range v.Bars {
		n := cells(b.Fill, width)
		filled := strings.Repeat("█", n)
		empty := ""
		if n < width {
			empty = strings.Repeat(" ", width-n)
		}

		lines = append(lines, fmt.Sprintf("%-*s |%s%s|", pad, b.Label, paint(level(b.Fill), filled), empty))
	}

	return lines
}
