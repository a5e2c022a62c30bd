package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bamsammich/purge/internal/openfiles"
)

func newIsOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "is-open <path>...",
		Short: "Report whether any process holds PATH open",
		Long: `is-open prints "open" or "closed" for each path. A directory is open
when a process holds a file inside it.

Exit status is 0 when every path is closed and 1 when any is open.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			tracker := openfiles.Default()
			anyOpen := false
			for _, p := range args {
				open, err := tracker.IsOpen(p)
				if err != nil {
					return fmt.Errorf("%s: %w", p, err)
				}
				state := "closed"
				if open {
					state = "open"
					anyOpen = true
				}
				fmt.Fprintf(os.Stdout, "%s\t%s\n", p, state)
			}
			if anyOpen {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}
