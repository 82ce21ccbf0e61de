// Package command defines the text commands understood by the lighting peripheral
package command

import (
	"errors"
	"fmt"
	"strings"
)

// Command is a plain-text instruction sent to the peripheral, e.g. "ON" or "FF15D8"
type Command string

// String returns the command text
func (c Command) String() string {
	return string(c)
}

// Line returns the wire form of the command: the text followed by a line feed
func (c Command) Line() []byte {
	return []byte(string(c) + "\n")
}

// Well known tokens
const (
	On    Command = "ON"
	Off   Command = "OFF"
	White Command = "WHITE"
	Pink  Command = "PINK"
)

// HexLength is the number of digits in an RGB hex command
const HexLength = 6

var (
	// ErrHexLength is matched by a HexError whose input is not 6 characters long
	ErrHexLength = errors.New("hex color must be exactly 6 characters")
	// ErrHexChars is matched by a HexError whose input has non-hex characters
	ErrHexChars = errors.New("hex color may only contain 0-9 and A-F")
)

// HexError reports a rejected hex entry and carries the raw input
type HexError struct {
	Kind  error
	Input string
}

// Error implements the error interface
func (e *HexError) Error() string {
	if e.Kind == ErrHexLength {
		return fmt.Sprintf("Invalid hex length: \"%s\" has %d characters, expected %d", e.Input, len([]rune(e.Input)), HexLength)
	}
	return fmt.Sprintf("Invalid hex characters in \"%s\": use only 0-9 and A-F", e.Input)
}

// Unwrap lets errors.Is match ErrHexLength or ErrHexChars
func (e *HexError) Unwrap() error {
	return e.Kind
}

// ValidateHex checks a free-text RGB entry and returns it as an uppercase Command.
// The length check runs first, so "12" fails on length even though its digits are valid.
func ValidateHex(text string) (Command, error) {
	if len([]rune(text)) != HexLength {
		return "", &HexError{Kind: ErrHexLength, Input: text}
	}

	for i := 0; i < len(text); i++ {
		if !isHexDigit(text[i]) {
			return "", &HexError{Kind: ErrHexChars, Input: text}
		}
	}

	return Command(strings.ToUpper(text)), nil
}

// IsHex reports whether text is a valid 6-digit hex color in any case
func IsHex(text string) bool {
	_, err := ValidateHex(text)
	return err == nil
}

func isHexDigit(b byte) bool {
	return ('0' <= b && b <= '9') || ('a' <= b && b <= 'f') || ('A' <= b && b <= 'F')
}

// IsKnown reports whether text is in the peripheral's vocabulary:
// WHITE, PINK, ON, OFF or an uppercase 6-digit hex color.
func IsKnown(text string) bool {
	switch Command(text) {
	case White, Pink, On, Off:
		return true
	}
	return IsHex(text) && strings.ToUpper(text) == text
}

// Parse turns free text into a command: the words WHITE, PINK, ON and OFF in any case,
// otherwise a hex color checked by ValidateHex.
func Parse(text string) (Command, error) {
	trimmed := strings.TrimSpace(text)
	switch word := Command(strings.ToUpper(trimmed)); word {
	case White, Pink, On, Off:
		return word, nil
	}
	return ValidateHex(trimmed)
}
