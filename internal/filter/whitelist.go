// Package filter decides which paths are protected from destruction.
package filter

import (
	"path"
	"path/filepath"
	"strings"
)

// Rule is one keep or allow pattern.
type Rule struct {
	Pattern *compiledPattern
	Keep    bool
}

// Whitelist is an ordered list of rules. For a given path the first rule
// that matches decides; if none matches, the nearest ancestor directory
// with a matching rule decides. Paths no rule reaches are not protected.
type Whitelist struct {
	rules []Rule
}

// NewWhitelist returns a Whitelist that protects nothing.
func NewWhitelist() *Whitelist {
	return &Whitelist{}
}

// Keep protects paths matching pattern, and everything below them.
func (w *Whitelist) Keep(pattern string) error {
	cp, err := compilePattern(pattern)
	if err != nil {
		return err
	}
	w.rules = append(w.rules, Rule{Pattern: cp, Keep: true})
	return nil
}

// Allow exempts paths matching pattern from a broader Keep rule listed
// after it.
func (w *Whitelist) Allow(pattern string) error {
	cp, err := compilePattern(pattern)
	if err != nil {
		return err
	}
	w.rules = append(w.rules, Rule{Pattern: cp, Keep: false})
	return nil
}

// Empty reports whether the whitelist has no rules.
func (w *Whitelist) Empty() bool {
	return w == nil || len(w.rules) == 0
}

// Protects reports whether p must not be destroyed. p is made absolute
// and cleaned before matching.
func (w *Whitelist) Protects(p string, isDir bool) bool {
	if w.Empty() {
		return false
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	rel := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(p)), "/")

	if keep, ok := w.decide(rel, isDir); ok {
		return keep
	}
	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if keep, ok := w.decide(dir, true); ok {
			return keep
		}
	}
	return false
}

func (w *Whitelist) decide(rel string, isDir bool) (keep, matched bool) {
	for _, rule := range w.rules {
		if rule.Pattern.match(rel, isDir) {
			return rule.Keep, true
		}
	}
	return false, false
}
