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
	"github.com/bamsammich/purge/internal/freespace"
	"github.com/bamsammich/purge/internal/stats"
)

func newFreeSpaceCmd(g *globalFlags) *cobra.Command {
	var bwLimitStr string

	cmd := &cobra.Command{
		Use:   "freespace <dir>",
		Short: "Overwrite the free space of the volume holding DIR",
		Long: `freespace fills the volume holding DIR with temporary files of zeros
until the device is full, then truncates and removes them.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cmd.Flags().Changed("bwlimit") && cfg.Defaults.BWLimit != nil {
				bwLimitStr = *cfg.Defaults.BWLimit
			}

			closeLog, err := setupLogging(*g)
			if err != nil {
				return err
			}
			defer closeLog()

			var bwLimit int64
			if bwLimitStr != "" {
				bwLimit, err = filter.ParseSize(bwLimitStr)
				if err != nil {
					return fmt.Errorf("invalid --bwlimit: %w", err)
				}
			}

			dir := args[0]
			w, err := freespace.New(dir, freespace.Options{BytesPerSec: bwLimit})
			if err != nil {
				return err
			}
			defer w.Close() //nolint:errcheck // Run already released the files

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			runCtx, runCancel := context.WithCancel(ctx)
			defer runCancel()

			slog.Debug("starting free space wipe", "dir", dir, "bwlimit", bwLimit)

			collector := stats.NewCollector()
			sess := newSession(*g, cfg, collector, "", runCancel)
			var runErr error
			sess.run(func() {
				runErr = wipeFreeSpace(runCtx, w, dir, collector, sess)
			})
			stop()

			// Temp files of an interrupted wipe must never outlive the process.
			if n := freespace.CleanupRegistered(); n > 0 {
				slog.Warn("removed leftover temporary files", "count", n)
			}

			if !g.quiet {
				if summary := sess.presenter.Summary(); summary != "" {
					fmt.Fprintln(os.Stderr, summary)
				}
			}

			if runErr != nil {
				slog.Error("free space wipe failed", "dir", dir, "error", runErr)
				if errors.Is(runErr, context.Canceled) {
					return &exitError{code: exitInterrupted}
				}
				return &exitError{code: 2}
			}
			return nil
		},
	}

	cmd.Flags().
		StringVar(&bwLimitStr, "bwlimit", "", "write bandwidth limit (e.g. 100M, 1G)")
	return cmd
}

// wipeFreeSpace drives w to completion, turning each progress report into
// a FreeSpaceProgress event.
func wipeFreeSpace(
	ctx context.Context,
	w *freespace.Wiper,
	dir string,
	collector *stats.Collector,
	sess *session,
) error {
	for p, err := range w.Run(ctx) {
		if err != nil {
			return err
		}
		collector.SetBytesWritten(p.Written)
		sess.emit(ctx, event.Event{
			Type:     event.FreeSpaceProgress,
			Path:     dir,
			Size:     p.Written,
			Total:    int64(p.Files),
			Fraction: p.Fraction,
			ETA:      p.ETA,
		})
	}
	return nil
}
