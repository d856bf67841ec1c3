package cli

// Default values for CLI output.
const (
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
	// MaxNameLength is the longest archive name shown in tables before truncation.
	MaxNameLength = 60
)

// ANSI colour codes used for status words.
const (
	colorGreen  = "32"
	colorYellow = "33"
	colorRed    = "31"
)
