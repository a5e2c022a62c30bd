package ui

import "golang.org/x/term"

// IsTTY reports whether fd is a terminal. Presenters fall back to plain
// line output when stderr is redirected.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}
