package memory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/procfs"
)

// swapoffLine matches one line of `swapoff -a -v`, with or without a
// localized word between the command name and the device.
var swapoffLine = regexp.MustCompile(`^swapoff\s+(?:\S+\s+)?(/[\w/.\-]+)$`)

// ParseSwapoff extracts the devices disabled by `swapoff -a -v`. Any line
// that does not match is an error.
func ParseSwapoff(out string) ([]string, error) {
	var devices []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := swapoffLine.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("%w: swapoff printed %q", ErrUnexpectedToolOutput, line)
		}
		devices = append(devices, m[1])
	}
	return devices, nil
}

var blkidUUID = regexp.MustCompile(`^(.+): UUID="([^"]*)"`)

// ParseBlkidUUID extracts the UUID from `blkid <device> -s UUID`. Empty
// output means the device has none.
func ParseBlkidUUID(out, device string) (string, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return "", nil
	}
	m := blkidUUID.FindStringSubmatch(out)
	if m == nil || m[1] != device {
		return "", fmt.Errorf("%w: blkid printed %q", ErrUnexpectedToolOutput, out)
	}
	id, err := uuid.Parse(m[2])
	if err != nil {
		return "", fmt.Errorf("%w: blkid UUID %q: %w", ErrUnexpectedToolOutput, m[2], err)
	}
	return id.String(), nil
}

// activeSwaps reads the kernel swap table. Sizes are converted to bytes.
func activeSwaps(procRoot string) (map[string]int64, error) {
	pfs, err := procfs.NewFS(procRoot)
	if err != nil {
		return nil, err
	}
	swaps, err := pfs.Swaps()
	if err != nil {
		return nil, fmt.Errorf("read swaps: %w", err)
	}
	active := make(map[string]int64, len(swaps))
	for _, s := range swaps {
		active[s.Filename] = int64(s.Size) * 1024
	}
	return active, nil
}

func mkswapArgs(dev SwapDevice) []string {
	if dev.UUID == "" {
		return []string{dev.Path}
	}
	return []string{"-U", dev.UUID, dev.Path}
}
