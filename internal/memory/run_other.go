//go:build !linux

package memory

import (
	"context"
	"iter"
)

// Run reports ErrPlatformUnsupported.
func (d *Destroyer) Run(context.Context) iter.Seq2[Milestone, error] {
	return func(yield func(Milestone, error) bool) {
		yield(Milestone{State: StateFailed}, ErrPlatformUnsupported)
	}
}
