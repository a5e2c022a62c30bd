package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSize parses a human-readable size into bytes. Units K, M, G and T
// are powers of 1024 and may be followed by "iB" or "B": "100", "64K",
// "1.5G", "8GiB" and "100MB" are all accepted.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	num := strings.ToUpper(s)
	switch {
	case strings.HasSuffix(num, "IB"):
		num = num[:len(num)-2]
	case len(num) > 1 && strings.HasSuffix(num, "B"):
		num = num[:len(num)-1]
	}

	multiplier := int64(1)
	if num != "" {
		if i := strings.IndexByte("KMGT", num[len(num)-1]); i >= 0 {
			multiplier = int64(1) << (10 * (i + 1))
			num = num[:len(num)-1]
		}
	}
	if num == "" {
		return 0, fmt.Errorf("invalid size: %q", s)
	}

	if n, err := strconv.ParseInt(num, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative size: %q", s)
		}
		return n * multiplier, nil
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid size: %q", s)
	}
	return int64(f * float64(multiplier)), nil
}
