package filter

import (
	"regexp"
	"strings"
)

// compiledPattern is a glob matched against slash-separated absolute
// paths with the leading slash removed.
type compiledPattern struct {
	re       *regexp.Regexp
	original string
	absolute bool // pattern starts with /
	dirOnly  bool // pattern ends with /
}

// compilePattern compiles a whitelist glob. A leading / anchors it to the
// filesystem root; otherwise it matches any trailing run of path
// components, so "*.kdbx" matches by basename and "mail/Inbox" matches
// that pair anywhere.
func compilePattern(pattern string) (*compiledPattern, error) {
	cp := &compiledPattern{original: pattern}

	if len(pattern) > 1 && strings.HasSuffix(pattern, "/") {
		cp.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		cp.absolute = true
		pattern = strings.TrimPrefix(pattern, "/")
	}

	reStr := globToRegex(pattern)
	if cp.absolute {
		reStr = "^" + reStr + "$"
	} else {
		reStr = "(^|/)" + reStr + "$"
	}

	re, err := regexp.Compile(reStr)
	if err != nil {
		return nil, err
	}
	cp.re = re
	return cp, nil
}

// match tests a root-relative path.
func (cp *compiledPattern) match(relPath string, isDir bool) bool {
	if cp.dirOnly && !isDir {
		return false
	}
	return cp.re.MatchString(relPath)
}

// globToRegex translates glob syntax to a regular expression body.
// "*" and "?" stay within one component, "**" crosses components and
// "**/" also matches zero of them. Bracket classes pass through with a
// leading "!" read as negation.
func globToRegex(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); i++ {
		switch c := glob[i]; c {
		case '*':
			switch {
			case strings.HasPrefix(glob[i:], "**/"):
				b.WriteString("(.*/)?")
				i += 2
			case strings.HasPrefix(glob[i:], "**"):
				b.WriteString(".*")
				i++
			default:
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '[':
			end := classEnd(glob, i)
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := glob[i+1 : end]
			if rest, ok := strings.CutPrefix(class, "!"); ok {
				class = "^" + rest
			}
			b.WriteString("[" + class + "]")
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return b.String()
}

// classEnd returns the index of the "]" closing the class opened at
// start, or -1. A "]" right after the opening (or after "!") is literal.
func classEnd(glob string, start int) int {
	j := start + 1
	if j < len(glob) && glob[j] == '!' {
		j++
	}
	if j < len(glob) && glob[j] == ']' {
		j++
	}
	if k := strings.IndexByte(glob[j:], ']'); k >= 0 {
		return j + k
	}
	return -1
}
