package ui

import (
	"unicode"

	"github.com/gdamore/tcell/v2"

	"colorctl/pkg/command"
	"colorctl/pkg/nav"
)

// isBack reports the keys that act as the back gesture outside text entry
func isBack(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyBackspace, tcell.KeyBackspace2, tcell.KeyLeft:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}

// OutputView shows the read-only result of the last action
type OutputView struct {
	title  string
	text   string
	scroll int
}

// NewOutputView creates an empty output view
func NewOutputView(title string) *OutputView {
	return &OutputView{title: title}
}

// SetText replaces the displayed text and scrolls to the top; the same text keeps the scroll position
func (v *OutputView) SetText(text string) {
	if text == v.text {
		return
	}
	v.text = text
	v.scroll = 0
}

// Text returns the displayed text
func (v *OutputView) Text() string {
	return v.text
}

// Draw renders the view over the whole screen
func (v *OutputView) Draw(s tcell.Screen) {
	width, height := s.Size()
	s.Clear()
	DrawBox(s, 0, 0, width, height, StyleBox)

	inner := width - 4
	DrawText(s, 2+Center(inner, len(v.title)), 1, inner, v.title, StyleBox.Bold(true))
	DrawRule(s, 0, 2, width, StyleBox)

	lines := Wrap(v.text, inner)
	rows := height - 6
	if v.scroll > len(lines)-1 {
		v.scroll = max(len(lines)-1, 0)
	}
	for i := 0; i < rows && v.scroll+i < len(lines); i++ {
		DrawText(s, 2, 3+i, inner, lines[v.scroll+i], StyleBox)
	}

	DrawText(s, 2, height-2, inner, "Esc/Backspace: back   Up/Down: scroll", StyleHint)
	s.Show()
}

// HandleKey maps a key to a navigation event; scrolling is handled in place
func (v *OutputView) HandleKey(ev *tcell.EventKey) (nav.Event, bool) {
	if isBack(ev) {
		return nav.BackPressed{}, true
	}

	switch ev.Key() {
	case tcell.KeyUp:
		if v.scroll > 0 {
			v.scroll--
		}
	case tcell.KeyDown:
		v.scroll++
	}
	return nil, false
}

// HexInputView is the fixed-length text entry for a custom color
type HexInputView struct {
	buffer []rune
}

// NewHexInputView creates an empty entry view
func NewHexInputView() *HexInputView {
	return &HexInputView{buffer: make([]rune, 0, command.HexLength)}
}

// Reset clears the entry
func (v *HexInputView) Reset() {
	v.buffer = v.buffer[:0]
}

// Text returns the current entry
func (v *HexInputView) Text() string {
	return string(v.buffer)
}

// Draw renders the entry box and, once the entry is a valid color, a preview swatch
func (v *HexInputView) Draw(s tcell.Screen) {
	const boxWidth, boxHeight = 44, 9

	width, height := s.Size()
	s.Clear()

	x := Center(width, boxWidth)
	y := Center(height, boxHeight)
	DrawBox(s, x, y, boxWidth, boxHeight, StyleBox)

	title := "Custom Color"
	DrawText(s, x+Center(boxWidth, len(title)), y+1, 0, title, StyleBox.Bold(true))
	DrawRule(s, x, y+2, boxWidth, StyleBox)
	DrawText(s, x+2, y+3, boxWidth-4, "Enter 6 hex digits (e.g. FF15D8):", StyleBox)

	fieldX := x + 2
	for i := 0; i < command.HexLength; i++ {
		s.SetContent(fieldX+i, y+4, '_', nil, StyleInput)
	}
	n := DrawText(s, fieldX, y+4, command.HexLength, string(v.buffer), StyleInput)
	if len(v.buffer) < command.HexLength {
		s.ShowCursor(fieldX+n, y+4)
	} else {
		s.HideCursor()
	}

	text := v.Text()
	if command.IsHex(text) {
		DrawSwatch(s, fieldX+command.HexLength+2, y+4, 8, text)
	}

	DrawText(s, x+2, y+boxHeight-2, boxWidth-4, "Enter: send   Esc: back", StyleHint)
	s.Show()
}

// HandleKey edits the entry; Enter submits it and Esc goes back
func (v *HexInputView) HandleKey(ev *tcell.EventKey) (nav.Event, bool) {
	switch ev.Key() {
	case tcell.KeyEscape:
		return nav.BackPressed{}, true
	case tcell.KeyEnter:
		return nav.TextSubmitted{Text: v.Text()}, true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(v.buffer) > 0 {
			v.buffer = v.buffer[:len(v.buffer)-1]
		}
	case tcell.KeyRune:
		r := ev.Rune()
		if len(v.buffer) < command.HexLength && unicode.IsPrint(r) {
			v.buffer = append(v.buffer, r)
		}
	}
	return nil, false
}
