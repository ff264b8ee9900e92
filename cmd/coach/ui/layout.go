// Package ui layout constants for consistent spacing and dimensions
package ui

// Layout constants for viewport and panel sizing
const (
	ViewportHorizontalPadding = 4

	HeaderHeight    = 1
	DividerHeight   = 1
	FooterHeight    = 1
	InputHeight     = 3 // border + one line
	TypingLineCount = 1
	ErrorLineCount  = 1

	FormTitleHeight = 1
	FormLabelWidth  = 18
	FormRowHeight   = 1

	MinimumTerminalWidth  = 40
	MinimumTerminalHeight = 12
	CompactModeWidth      = 80
)

// LayoutConfig provides computed layout dimensions based on terminal size
type LayoutConfig struct {
	TerminalWidth  int
	TerminalHeight int
	IsCompact      bool
}

// NewLayoutConfig creates a layout configuration for the given terminal size.
// Sizes below the minimum are clamped.
func NewLayoutConfig(width, height int) LayoutConfig {
	if width < MinimumTerminalWidth {
		width = MinimumTerminalWidth
	}
	if height < MinimumTerminalHeight {
		height = MinimumTerminalHeight
	}
	return LayoutConfig{
		TerminalWidth:  width,
		TerminalHeight: height,
		IsCompact:      width < CompactModeWidth,
	}
}

// ContentWidth returns the usable content width for the conversation
func (l LayoutConfig) ContentWidth() int {
	return l.TerminalWidth - ViewportHorizontalPadding
}

// InputWidth returns the text input width inside its bordered box
func (l LayoutConfig) InputWidth() int {
	w := l.ContentWidth() - 4
	if w < 1 {
		w = 1
	}
	return w
}

// ViewportHeight returns the conversation height when the bottom panel takes
// panelHeight rows.
func (l LayoutConfig) ViewportHeight(panelHeight int) int {
	h := l.TerminalHeight - HeaderHeight - DividerHeight - FooterHeight - TypingLineCount - panelHeight
	if h < 1 {
		h = 1
	}
	return h
}

// FormHeight returns the rows taken by a form: title, one row per field,
// and the error line.
func FormHeight(fields int) int {
	return FormTitleHeight + fields*FormRowHeight + ErrorLineCount
}
