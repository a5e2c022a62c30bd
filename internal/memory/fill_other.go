//go:build !linux

package memory

import "context"

func (ChildFiller) Fill(context.Context) error { return ErrPlatformUnsupported }

// RunFiller reports ErrPlatformUnsupported.
func RunFiller() error { return ErrPlatformUnsupported }
