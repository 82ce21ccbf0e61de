// Package menu implements the selectable list of color presets
package menu

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"colorctl/pkg/command"
	"colorctl/pkg/nav"
	"colorctl/pkg/ui"
)

const swatchWidth = 4

// Menu represents the preset list
type Menu struct {
	items    []MenuItem
	selected int
	x, y     int
	width    int
	height   int
	title    string
	footer   string
}

// MenuItem represents a single menu entry
type MenuItem struct {
	Label    string
	Shortcut string
	// Swatch is the RGB hex previewed next to the label, empty for none
	Swatch  string
	Enabled bool
}

// NewMenu creates a menu with one item per preset, in preset order
func NewMenu(title string, presets []command.Preset) *Menu {
	m := &Menu{
		title: title,
		items: make([]MenuItem, 0, len(presets)),
	}
	for _, p := range presets {
		m.AddItem(p.Label, p.Swatch)
	}
	return m
}

// AddItem adds a menu item; the first nine get digit shortcuts
func (m *Menu) AddItem(label, swatch string) {
	shortcut := ""
	if n := len(m.items) + 1; n <= 9 {
		shortcut = fmt.Sprintf("%d", n)
	}
	m.items = append(m.items, MenuItem{
		Label:    label,
		Shortcut: shortcut,
		Swatch:   swatch,
		Enabled:  true,
	})
	m.updateDimensions()
}

// SetFooter sets the status line drawn under the menu
func (m *Menu) SetFooter(text string) {
	m.footer = text
	m.updateDimensions()
}

// Items returns the menu entries
func (m *Menu) Items() []MenuItem {
	return m.items
}

// Selected returns the highlighted index
func (m *Menu) Selected() int {
	return m.selected
}

// Draw renders the menu centered on screen
func (m *Menu) Draw(s tcell.Screen) {
	screenWidth, screenHeight := s.Size()
	m.x = ui.Center(screenWidth, m.width)
	m.y = ui.Center(screenHeight, m.height)

	s.Clear()
	s.HideCursor()
	ui.DrawBox(s, m.x, m.y, m.width, m.height, ui.StyleBox)

	titleY := m.y + 1
	titleX := m.x + ui.Center(m.width, runewidth.StringWidth(m.title))
	ui.DrawText(s, titleX, titleY, m.width-2, m.title, ui.StyleBox.Bold(true))
	ui.DrawRule(s, m.x, titleY+1, m.width, ui.StyleBox)

	itemY := titleY + 2
	for i, item := range m.items {
		itemStyle := ui.StyleBox
		if !item.Enabled {
			itemStyle = ui.StyleHint
		} else if i == m.selected {
			itemStyle = ui.StyleSelected
		}

		for x := m.x + 1; x < m.x+m.width-1; x++ {
			s.SetContent(x, itemY, ' ', nil, itemStyle)
		}

		labelX := m.x + 2
		if item.Shortcut != "" {
			ui.DrawText(s, labelX, itemY, 0, item.Shortcut, itemStyle)
		}
		labelX += 3
		if ui.DrawSwatch(s, labelX, itemY, swatchWidth, item.Swatch) {
			labelX += swatchWidth + 1
		}
		ui.DrawText(s, labelX, itemY, m.x+m.width-2-labelX, item.Label, itemStyle)
		itemY++
	}

	footerY := m.y + m.height - 2
	ui.DrawRule(s, m.x, footerY-1, m.width, ui.StyleBox)
	hint := m.footer
	if hint == "" {
		hint = "Enter: select  Esc: quit"
	}
	ui.DrawText(s, m.x+2, footerY, m.width-4, hint, ui.StyleHint)

	s.Show()
}

// HandleKey processes keyboard input. Movement is handled in place;
// Enter or a digit shortcut yields Selected and Esc/Backspace/q yields BackPressed.
func (m *Menu) HandleKey(ev *tcell.EventKey) (nav.Event, bool) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyBackspace, tcell.KeyBackspace2:
		return nav.BackPressed{}, true

	case tcell.KeyUp:
		m.moveSelection(-1)
		return nil, false

	case tcell.KeyDown:
		m.moveSelection(1)
		return nil, false

	case tcell.KeyEnter:
		return m.activateSelected()

	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return nav.BackPressed{}, true
		case 'k':
			m.moveSelection(-1)
			return nil, false
		case 'j':
			m.moveSelection(1)
			return nil, false
		}

		char := string(ev.Rune())
		for i, item := range m.items {
			if item.Shortcut == char && item.Enabled {
				m.selected = i
				return m.activateSelected()
			}
		}
	}

	return nil, false
}

// moveSelection moves the selection up or down, wrapping around
func (m *Menu) moveSelection(direction int) {
	itemCount := len(m.items)
	if itemCount == 0 {
		return
	}
	newSelected := m.selected

	for {
		newSelected += direction
		if newSelected < 0 {
			newSelected = itemCount - 1
		} else if newSelected >= itemCount {
			newSelected = 0
		}

		if m.items[newSelected].Enabled {
			m.selected = newSelected
			break
		}

		// all items disabled
		if newSelected == m.selected {
			break
		}
	}
}

// activateSelected turns the highlighted item into a selection event
func (m *Menu) activateSelected() (nav.Event, bool) {
	if m.selected < 0 || m.selected >= len(m.items) {
		return nil, false
	}
	if !m.items[m.selected].Enabled {
		return nil, false
	}
	return nav.Selected{Index: m.selected}, true
}

// updateDimensions updates menu dimensions based on items
func (m *Menu) updateDimensions() {
	maxWidth := runewidth.StringWidth(m.title) + 4
	if w := runewidth.StringWidth(m.footer) + 4; w > maxWidth {
		maxWidth = w
	}
	if maxWidth < 28 {
		maxWidth = 28
	}

	for _, item := range m.items {
		width := runewidth.StringWidth(item.Label) + 8
		if item.Swatch != "" {
			width += swatchWidth + 1
		}
		if width > maxWidth {
			maxWidth = width
		}
	}

	m.width = maxWidth
	// borders, title and rule, footer rule and footer
	m.height = len(m.items) + 6
}

// EnableItem enables or disables a menu item
func (m *Menu) EnableItem(index int, enabled bool) {
	if index >= 0 && index < len(m.items) {
		m.items[index].Enabled = enabled
	}
}
