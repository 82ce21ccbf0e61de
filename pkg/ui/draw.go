// Package ui provides the tcell drawing primitives and the output and hex entry views
package ui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
)

// Shared styles
var (
	StyleBox      = tcell.StyleDefault.Background(tcell.ColorDarkBlue).Foreground(tcell.ColorWhite)
	StyleSelected = tcell.StyleDefault.Background(tcell.ColorWhite).Foreground(tcell.ColorBlack)
	StyleHint     = tcell.StyleDefault.Background(tcell.ColorDarkBlue).Foreground(tcell.ColorGray)
	StyleError    = tcell.StyleDefault.Background(tcell.ColorDarkBlue).Foreground(tcell.ColorRed).Bold(true)
	StyleInput    = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
)

// DrawText writes text starting at (x, y) and returns the number of columns used.
// When maxWidth > 0 the text is clipped to that many columns.
func DrawText(s tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) int {
	col := 0
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if maxWidth > 0 && col+w > maxWidth {
			break
		}
		s.SetContent(x+col, y, r, nil, style)
		col += w
	}
	return col
}

// DrawBox draws a bordered, filled rectangle
func DrawBox(s tcell.Screen, x, y, width, height int, style tcell.Style) {
	if width < 2 || height < 2 {
		return
	}

	s.SetContent(x, y, '┌', nil, style)
	s.SetContent(x+width-1, y, '┐', nil, style)
	s.SetContent(x, y+height-1, '└', nil, style)
	s.SetContent(x+width-1, y+height-1, '┘', nil, style)
	for cx := x + 1; cx < x+width-1; cx++ {
		s.SetContent(cx, y, '─', nil, style)
		s.SetContent(cx, y+height-1, '─', nil, style)
	}

	for cy := y + 1; cy < y+height-1; cy++ {
		s.SetContent(x, cy, '│', nil, style)
		s.SetContent(x+width-1, cy, '│', nil, style)
		for cx := x + 1; cx < x+width-1; cx++ {
			s.SetContent(cx, cy, ' ', nil, style)
		}
	}
}

// DrawRule draws a horizontal separator inside a box row
func DrawRule(s tcell.Screen, x, y, width int, style tcell.Style) {
	for cx := x + 1; cx < x+width-1; cx++ {
		s.SetContent(cx, y, '─', nil, style)
	}
}

// Center returns the offset that centers size within total, never negative
func Center(total, size int) int {
	if size >= total {
		return 0
	}
	return (total - size) / 2
}

// SwatchColor converts a 6-digit RGB hex string into a true-color tcell color
func SwatchColor(hex string) (tcell.Color, bool) {
	if len(hex) != 6 {
		return tcell.ColorDefault, false
	}
	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return tcell.ColorDefault, false
	}
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b)), true
}

// DrawSwatch paints width cells with the hex color; nothing is drawn for an invalid hex
func DrawSwatch(s tcell.Screen, x, y, width int, hex string) bool {
	color, ok := SwatchColor(hex)
	if !ok {
		return false
	}
	style := tcell.StyleDefault.Background(color)
	for i := 0; i < width; i++ {
		s.SetContent(x+i, y, ' ', nil, style)
	}
	return true
}

// Wrap splits text into lines no wider than width columns.
// Existing line breaks are kept; long lines break at the last space when possible.
func Wrap(text string, width int) []string {
	if width <= 0 {
		return strings.Split(text, "\n")
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		lines = append(lines, wrapLine(para, width)...)
	}
	return lines
}

func wrapLine(line string, width int) []string {
	if runewidth.StringWidth(line) <= width {
		return []string{line}
	}

	var out []string
	runes := []rune(line)
	for len(runes) > 0 {
		col, cut, lastSpace := 0, 0, -1
		for cut < len(runes) {
			w := runewidth.RuneWidth(runes[cut])
			if col+w > width {
				break
			}
			if runes[cut] == ' ' {
				lastSpace = cut
			}
			col += w
			cut++
		}
		if cut == len(runes) {
			out = append(out, string(runes))
			break
		}
		if cut == 0 {
			// a single rune wider than the line
			cut = 1
		} else if lastSpace > 0 {
			cut = lastSpace
		}
		out = append(out, strings.TrimRight(string(runes[:cut]), " "))
		runes = []rune(strings.TrimLeft(string(runes[cut:]), " "))
	}
	return out
}
