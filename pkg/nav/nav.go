// Package nav is the screen state machine of the color menu.
//
// Update is pure: it takes the current State and an Event and returns the next
// State plus at most one Effect for the caller to perform (transport I/O or shutdown).
package nav

import (
	"fmt"

	"colorctl/pkg/command"
)

// Screen identifies the visible view
type Screen int

const (
	ScreenMenu Screen = iota
	ScreenOutput
	ScreenHexInput
	ScreenExited
)

// String returns the string representation of Screen
func (s Screen) String() string {
	switch s {
	case ScreenMenu:
		return "menu"
	case ScreenOutput:
		return "output"
	case ScreenHexInput:
		return "hex-input"
	case ScreenExited:
		return "exited"
	default:
		return "unknown"
	}
}

// State is everything needed to draw the current screen
type State struct {
	Screen Screen
	// Output is the text of the output view
	Output string
}

// Initial is the state at startup
func Initial() State {
	return State{Screen: ScreenMenu}
}

// Event is a user or I/O input to the state machine
type Event interface {
	event()
}

// Selected is a menu choice by index
type Selected struct{ Index int }

// TextSubmitted is the text confirmed in the hex entry view
type TextSubmitted struct{ Text string }

// BackPressed is the single back gesture
type BackPressed struct{}

// ResponseReceived carries the display text of a finished exchange
type ResponseReceived struct{ Text string }

func (Selected) event()         {}
func (TextSubmitted) event()    {}
func (BackPressed) event()      {}
func (ResponseReceived) event() {}

// Effect is work the caller performs after a transition; nil means none
type Effect interface {
	effect()
}

// SendCommand asks the caller to run an exchange and feed back ResponseReceived
type SendCommand struct{ Command command.Command }

// Shutdown asks the caller to close the transport (if still open) and stop the loop
type Shutdown struct{}

func (SendCommand) effect() {}
func (Shutdown) effect()    {}

// Controller maps menu indices to presets
type Controller struct {
	presets []command.Preset
}

// NewController creates a controller for a preset table
func NewController(presets []command.Preset) *Controller {
	return &Controller{presets: presets}
}

// Presets returns the table the controller dispatches on
func (c *Controller) Presets() []command.Preset {
	return c.presets
}

// Update computes the transition for ev
func (c *Controller) Update(s State, ev Event) (State, Effect) {
	if s.Screen == ScreenExited {
		return s, nil
	}

	switch e := ev.(type) {
	case Selected:
		return c.selected(s, e.Index)
	case TextSubmitted:
		return c.submitted(s, e.Text)
	case BackPressed:
		if s.Screen == ScreenMenu {
			return State{Screen: ScreenExited}, Shutdown{}
		}
		return State{Screen: ScreenMenu, Output: s.Output}, nil
	case ResponseReceived:
		if s.Screen != ScreenOutput {
			return s, nil
		}
		return State{Screen: ScreenOutput, Output: e.Text}, nil
	}

	return s, nil
}

func (c *Controller) selected(s State, index int) (State, Effect) {
	if s.Screen != ScreenMenu || index < 0 || index >= len(c.presets) {
		return s, nil
	}

	preset := c.presets[index]
	switch preset.Action {
	case command.ActionHexInput:
		return State{Screen: ScreenHexInput, Output: s.Output}, nil
	default:
		return State{Screen: ScreenOutput, Output: pendingText(preset.Command)}, SendCommand{Command: preset.Command}
	}
}

func (c *Controller) submitted(s State, text string) (State, Effect) {
	if s.Screen != ScreenHexInput {
		return s, nil
	}

	cmd, err := command.ValidateHex(text)
	if err != nil {
		return State{Screen: ScreenOutput, Output: err.Error()}, nil
	}

	return State{Screen: ScreenOutput, Output: pendingText(cmd)}, SendCommand{Command: cmd}
}

func pendingText(cmd command.Command) string {
	return fmt.Sprintf("Sending %s...\n\nWaiting for response...", cmd)
}
