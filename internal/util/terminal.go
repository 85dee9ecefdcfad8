package util

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal checks if the given file descriptor is a terminal
func IsTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// StderrIsTerminal reports whether progress output can be drawn on stderr
func StderrIsTerminal() bool {
	return IsTerminal(os.Stderr.Fd())
}
