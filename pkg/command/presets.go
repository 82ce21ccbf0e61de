package command

import (
	"fmt"
	"strings"
)

// Action says what selecting a preset does
type Action int

const (
	// ActionSend transmits the preset's command
	ActionSend Action = iota
	// ActionHexInput opens the free-text hex entry screen
	ActionHexInput
)

// String returns the string representation of Action
func (a Action) String() string {
	switch a {
	case ActionSend:
		return "send"
	case ActionHexInput:
		return "hex-input"
	default:
		return "unknown"
	}
}

// Preset is one selectable entry of a menu table
type Preset struct {
	Label   string  `mapstructure:"label"`
	Command Command `mapstructure:"command"`
	Action  Action  `mapstructure:"-"`
	// Swatch is the RGB hex used to preview the color, empty for ON/OFF
	Swatch string `mapstructure:"-"`
}

// Variant selects one of the two menu tables
type Variant string

const (
	// VariantA is the two-button WHITE/PINK menu
	VariantA Variant = "a"
	// VariantB is the ON/OFF, preset and custom hex menu
	VariantB Variant = "b"
)

// ParseVariant accepts "a"/"b" in any case
func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantA:
		return VariantA, nil
	case VariantB:
		return VariantB, nil
	default:
		return "", fmt.Errorf("unknown menu variant %q (want a or b)", s)
	}
}

// Title is the menu header for the variant
func (v Variant) Title() string {
	return "Color Controller"
}

// Presets returns a fresh copy of the variant's table; index order is the menu order
func (v Variant) Presets() []Preset {
	var src []Preset
	switch v {
	case VariantB:
		src = variantB
	default:
		src = variantA
	}
	out := make([]Preset, len(src))
	copy(out, src)
	return out
}

var variantA = []Preset{
	{Label: "WHITE", Command: White, Swatch: "FFFFFF"},
	{Label: "PINK", Command: Pink, Swatch: "FF15D8"},
}

var variantB = []Preset{
	{Label: "ON", Command: On},
	{Label: "OFF", Command: Off},
	{Label: "White", Command: "FFFFFF", Swatch: "FFFFFF"},
	{Label: "Warm White", Command: "FFD6AA", Swatch: "FFD6AA"},
	{Label: "Red", Command: "FF0000", Swatch: "FF0000"},
	{Label: "Orange", Command: "FF8000", Swatch: "FF8000"},
	{Label: "Yellow", Command: "FFFF00", Swatch: "FFFF00"},
	{Label: "Green", Command: "00FF00", Swatch: "00FF00"},
	{Label: "Cyan", Command: "00FFFF", Swatch: "00FFFF"},
	{Label: "Blue", Command: "0000FF", Swatch: "0000FF"},
	{Label: "Purple", Command: "8000FF", Swatch: "8000FF"},
	{Label: "Pink", Command: "FF15D8", Swatch: "FF15D8"},
	{Label: "Custom hex...", Action: ActionHexInput},
}

// CustomPresets builds a send-only table from label/command pairs, validating each command.
// Hex commands are normalized to uppercase and get a swatch. A trailing custom hex entry is
// appended when withHexInput is set.
func CustomPresets(entries []Preset, withHexInput bool) ([]Preset, error) {
	out := make([]Preset, 0, len(entries)+1)
	for i, e := range entries {
		text := strings.TrimSpace(e.Command.String())
		if text == "" {
			return nil, fmt.Errorf("preset %d (%s) has no command", i, e.Label)
		}
		if strings.ContainsAny(text, "\r\n") {
			return nil, fmt.Errorf("preset %d (%s) command contains a line break", i, e.Label)
		}

		p := Preset{Label: e.Label, Command: Command(text), Action: ActionSend}
		if hex, err := ValidateHex(text); err == nil {
			p.Command = hex
			p.Swatch = hex.String()
		}
		if p.Label == "" {
			p.Label = p.Command.String()
		}
		out = append(out, p)
	}

	if withHexInput {
		out = append(out, Preset{Label: "Custom hex...", Action: ActionHexInput})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("preset table is empty")
	}

	return out, nil
}
