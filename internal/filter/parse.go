package filter

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadFile appends rules read from path. One rule per line:
//
//	- pattern   keep
//	+ pattern   allow
//	pattern     keep
//
// Blank lines and lines starting with # are ignored.
func (w *Whitelist) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open whitelist: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		add := w.Keep
		pattern := line
		switch {
		case strings.HasPrefix(line, "+ "):
			add = w.Allow
			pattern = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "- "):
			pattern = strings.TrimSpace(line[2:])
		}
		if err := add(pattern); err != nil {
			return fmt.Errorf("whitelist %s line %d: %w", path, lineNum, err)
		}
	}
	return scanner.Err()
}
