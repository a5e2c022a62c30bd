package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bamsammich/purge/internal/config"
	"github.com/bamsammich/purge/internal/event"
	"github.com/bamsammich/purge/internal/filter"
	"github.com/bamsammich/purge/internal/memory"
	"github.com/bamsammich/purge/internal/stats"
)

var errNotRoot = errors.New("swap and memory wiping requires root")

func newMemoryCmd(g *globalFlags) *cobra.Command {
	var maxSwapStr string

	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Wipe swap devices and overwrite free physical memory",
		Long: `memory disables swap, overwrites every swap device with zeros, fills
free physical memory with zeros and finally restores swap.

Swap is restored even when the wipe is interrupted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			closeLog, err := setupLogging(*g)
			if err != nil {
				return err
			}
			defer closeLog()

			maxSwap, err := cfg.SwapMaxSize()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-swap-size") {
				maxSwap, err = filter.ParseSize(maxSwapStr)
				if err != nil {
					return fmt.Errorf("invalid --max-swap-size: %w", err)
				}
			}

			if os.Geteuid() != 0 {
				return errNotRoot
			}

			d := memory.NewDestroyer(memory.Config{MaxSwapSize: maxSwap})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			runCtx, runCancel := context.WithCancel(ctx)
			defer runCancel()

			collector := stats.NewCollector()
			sess := newSession(*g, cfg, collector, "", runCancel)
			var runErr error
			sess.run(func() {
				runErr = wipeMemory(runCtx, d, sess)
			})
			stop()

			if runErr != nil {
				slog.Error("swap and memory wipe failed", "error", runErr)
				if errors.Is(runErr, context.Canceled) {
					return &exitError{code: exitInterrupted}
				}
				return &exitError{code: 2}
			}
			if !g.quiet {
				fmt.Fprintln(os.Stderr, "done ✓  swap and memory wiped")
			}
			return nil
		},
	}

	cmd.Flags().
		StringVar(&maxSwapStr, "max-swap-size", "", "refuse swap devices larger than SIZE (default 8G)")
	return cmd
}

// wipeMemory runs d and reports each milestone as a SwapMilestone event.
// Milestones are always delivered so the swap restore is visible even
// after cancellation.
func wipeMemory(ctx context.Context, d *memory.Destroyer, sess *session) error {
	var runErr error
	for m, err := range d.Run(ctx) {
		if err != nil {
			runErr = err
		}
		sess.emit(context.WithoutCancel(ctx), event.Event{
			Type:  event.SwapMilestone,
			Stage: m.State.String(),
			Path:  m.Device.Path,
			Size:  m.Device.Size,
			Error: err,
		})
	}
	return runErr
}
