//go:build linux

package memory

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"slices"

	"github.com/bamsammich/purge/internal/destroy"
)

// Run returns the milestones of one swap and memory wipe. The sequence
// ends with StateDone, or with StateFailed paired with the error. Once
// swap has been disabled the wipe runs through swap restoration even if
// ctx is cancelled or the caller stops iterating.
func (d *Destroyer) Run(ctx context.Context) iter.Seq2[Milestone, error] {
	return func(yield func(Milestone, error) bool) {
		stopped := false
		emit := func(m Milestone) {
			if !stopped && !yield(m, nil) {
				stopped = true
			}
		}

		err := d.run(ctx, emit, func() bool { return stopped })
		switch {
		case stopped:
		case err != nil:
			yield(Milestone{State: StateFailed}, err)
		default:
			yield(Milestone{State: StateDone}, nil)
		}
	}
}

func (d *Destroyer) run(ctx context.Context, emit func(Milestone), stopped func() bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	emit(Milestone{State: StateSwapDisabling})
	if stopped() {
		return nil
	}

	active, err := activeSwaps(d.cfg.ProcRoot)
	if err != nil {
		return err
	}
	if len(active) == 0 {
		slog.Info("no active swap")
		d.fill(ctx, emit)
		return nil
	}
	if err := d.CheckTools(); err != nil {
		return err
	}

	// Swap is about to go down; nothing below may be cancelled.
	ctx = context.WithoutCancel(ctx)
	runErr := d.disableAndWipe(ctx, active, emit)
	if runErr == nil {
		d.fill(ctx, emit)
	}

	emit(Milestone{State: StateSwapRestoring})
	if _, err := d.cfg.Runner.Run(ctx, "swapon", "-a"); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("%w: %w", ErrSwapRestore, err))
	}
	return runErr
}

func (d *Destroyer) fill(ctx context.Context, emit func(Milestone)) {
	emit(Milestone{State: StateMemoryFilling})
	if err := d.cfg.Filler.Fill(ctx); err != nil {
		slog.Warn("memory fill incomplete", "error", err)
	}
}

// disableAndWipe turns off all swap, checks every reported device, and
// then overwrites and re-formats each one with its original UUID.
func (d *Destroyer) disableAndWipe(ctx context.Context, active map[string]int64, emit func(Milestone)) error {
	slog.Info("disabling swap", "devices", len(active))
	out, err := d.cfg.Runner.Run(ctx, "swapoff", "-a", "-v")
	if err != nil {
		return fmt.Errorf("disable swap: %w", err)
	}
	paths, err := ParseSwapoff(out)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("%w: swapoff listed no devices while %d were active",
			ErrUnexpectedToolOutput, len(active))
	}

	still, err := activeSwaps(d.cfg.ProcRoot)
	if err != nil {
		return err
	}
	if len(still) > 0 {
		return fmt.Errorf("%w: %v", ErrSwapStillActive, slices.Sorted(maps.Keys(still)))
	}

	devices := make([]SwapDevice, 0, len(paths))
	for _, path := range paths {
		size, ok := active[path]
		if !ok {
			return fmt.Errorf("%w: swapoff disabled %s which was not listed as active",
				ErrUnexpectedToolOutput, path)
		}
		if size > d.cfg.MaxSwapSize {
			return fmt.Errorf("%w: %s is %d bytes, limit %d",
				ErrSizeSanity, path, size, d.cfg.MaxSwapSize)
		}
		devices = append(devices, SwapDevice{Path: path, Size: size})
	}

	for i := range devices {
		out, err := d.cfg.Runner.Run(ctx, "blkid", devices[i].Path, "-s", "UUID")
		if err != nil {
			// blkid exits 2 when the requested tag is absent.
			slog.Debug("blkid found no UUID", "device", devices[i].Path, "error", err)
			continue
		}
		if devices[i].UUID, err = ParseBlkidUUID(out, devices[i].Path); err != nil {
			return err
		}
	}

	for _, dev := range devices {
		emit(Milestone{State: StateSwapWiping, Device: dev})
		slog.Info("wiping swap", "device", dev.Path, "size", dev.Size, "uuid", dev.UUID)
		if err := d.cfg.Wiper.WipeContent(dev.Path, destroy.ContentOptions{Size: dev.Size}); err != nil {
			return fmt.Errorf("wipe swap %s: %w", dev.Path, err)
		}
		if _, err := d.cfg.Runner.Run(ctx, "mkswap", mkswapArgs(dev)...); err != nil {
			return fmt.Errorf("recreate swap %s: %w", dev.Path, err)
		}
	}
	return nil
}
