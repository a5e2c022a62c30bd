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
	"github.com/spf13/pflag"

	"github.com/bamsammich/purge/internal/config"
	"github.com/bamsammich/purge/internal/destroy"
	"github.com/bamsammich/purge/internal/engine"
	"github.com/bamsammich/purge/internal/filter"
	"github.com/bamsammich/purge/internal/memory"
	"github.com/bamsammich/purge/internal/openfiles"
	"github.com/bamsammich/purge/internal/stats"
)

var version = "dev"

func main() {
	// Worker mode: re-exec'd child that fills physical memory.
	// Must be checked before cobra to avoid flag conflicts.
	if len(os.Args) == 2 && os.Args[1] == memory.FillWorkerFlag {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		if err := memory.RunFiller(); err != nil {
			slog.Error("memory fill failed", "error", err)
			os.Exit(1)
		}
		return
	}

	os.Exit(run())
}

// keepFlag is a pflag.Value that appends --keep and --allow rules to one
// whitelist in command-line order.
type keepFlag struct {
	whitelist *filter.Whitelist
	allow     bool
}

func (*keepFlag) String() string { return "" }
func (*keepFlag) Type() string   { return "pattern" }

func (f *keepFlag) Set(val string) error {
	if f.allow {
		return f.whitelist.Allow(val)
	}
	return f.whitelist.Keep(val)
}

//nolint:gocyclo,revive // cyclomatic,cognitive-complexity: main CLI entry point orchestrates flag parsing and the destroy batch
func run() int {
	var (
		g             globalFlags
		recursive     bool
		dryRun        bool
		skipOpen      bool
		verifyFlag    bool
		shredFlag     bool
		showVersion   bool
		methodStr     string
		whitelistFile string
	)

	whitelist := filter.NewWhitelist()

	rootCmd := &cobra.Command{
		Use:   "purge [flags] <path>...",
		Short: "Securely destroy files, directories, free disk space and swap",
		Long: `purge overwrites file contents, scrambles names and unlinks files so
that neither the data nor the names are trivially recoverable.

Subcommands wipe the free space of a volume and the swap and memory of
the running system.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "purge %s\n", version)
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				// A broken config may hold the whitelist; never proceed without it.
				return fmt.Errorf("load config: %w", err)
			}
			applyConfigDefaults(cmd, cfg.Defaults, &g, &verifyFlag, &skipOpen, &shredFlag)

			closeLog, err := setupLogging(g)
			if err != nil {
				return err
			}
			defer closeLog()

			method, err := destroy.ParseMethod(methodStr)
			if err != nil {
				return err
			}

			if whitelistFile != "" {
				if err := whitelist.LoadFile(whitelistFile); err != nil {
					return err
				}
			}
			whitelist, err = cfg.BuildWhitelist(whitelist)
			if err != nil {
				return err
			}

			warnForeignOwners(args)

			if dryRun {
				slog.Info("dry run mode")
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			engineCtx, engineCancel := context.WithCancel(ctx)
			defer engineCancel()

			destroyer := destroy.New(destroy.Options{AlwaysShred: shredFlag, Verify: verifyFlag})
			collector := stats.NewCollector()
			engineCfg := engine.Config{
				Paths:     args,
				Recursive: recursive,
				Method:    method,
				DryRun:    dryRun,
				SkipOpen:  skipOpen,
				Whitelist: whitelist,
				Destroyer: destroyer,
				Stats:     collector,
			}
			if skipOpen {
				engineCfg.Tracker = openfiles.Default()
			}

			slog.Debug("starting destroy",
				"paths", args,
				"recursive", recursive,
				"method", destroyer.Resolve(method),
				"skip_open", skipOpen,
			)

			sess := newSession(g, cfg, collector, workingDir(), engineCancel)
			var result engine.Result
			sess.run(func() {
				engineCfg.Events = sess.events
				result = engine.Run(engineCtx, engineCfg)
			})
			stop()

			if !g.quiet {
				if summary := sess.presenter.Summary(); summary != "" {
					if dryRun {
						summary += "  (dry run)"
					}
					fmt.Fprintln(os.Stderr, summary)
				}
			}

			if result.Err != nil {
				slog.Error("destroy failed", "error", result.Err)
				if errors.Is(result.Err, context.Canceled) {
					return &exitError{code: exitInterrupted}
				}
				if result.Stats.TargetsDestroyed > 0 {
					return &exitError{code: 1} // partial failure
				}
				return &exitError{code: 2} // total failure
			}
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	rootCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "destroy directories recursively")
	rootCmd.Flags().
		StringVarP(&methodStr, "method", "m", "default", "destroy method: default, unlink, shred or shred-name")
	rootCmd.Flags().
		BoolVar(&shredFlag, "shred", false, "make the default method shred content and name")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be destroyed without touching it")
	rootCmd.Flags().
		BoolVar(&skipOpen, "skip-open", false, "skip files another process has open")
	rootCmd.Flags().
		BoolVar(&verifyFlag, "verify", false, "read back overwrites and compare digests (BLAKE3)")
	rootCmd.Flags().
		Var(&keepFlag{whitelist: whitelist}, "keep", "never destroy paths matching PATTERN (repeatable)")
	rootCmd.Flags().
		Var(&keepFlag{whitelist: whitelist, allow: true}, "allow", "destroy paths matching PATTERN even inside a kept tree (repeatable)")
	rootCmd.Flags().
		StringVar(&whitelistFile, "whitelist-file", "", "read keep/allow rules from FILE")

	g.register(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newFreeSpaceCmd(&g))
	rootCmd.AddCommand(newMemoryCmd(&g))
	rootCmd.AddCommand(newIsOpenCmd())
	rootCmd.AddCommand(newVacuumCmd(&g))
	rootCmd.AddCommand(docsCmd)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	return 0
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	verbose    bool
	quiet      bool
	logFile    string
	tui        bool
	feed       bool
	rate       bool
	noProgress bool
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")
	fs.BoolVarP(&g.quiet, "quiet", "q", false, "suppress all output except errors")
	fs.StringVar(&g.logFile, "log", "", "write structured JSON log to FILE")
	fs.BoolVar(&g.tui, "tui", false, "full-screen TUI (Bubble Tea)")
	fs.BoolVar(&g.feed, "feed", false, "force feed mode (one line per target)")
	fs.BoolVar(&g.rate, "rate", false, "force rate mode (sparkline + throughput)")
	fs.BoolVar(&g.noProgress, "no-progress", false, "disable progress display")
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(
	cmd *cobra.Command,
	defaults config.DefaultsConfig,
	g *globalFlags,
	verify *bool,
	skipOpen *bool,
	shred *bool,
) {
	if !cmd.Flags().Changed("verify") && defaults.Verify != nil {
		*verify = *defaults.Verify
	}
	if !cmd.Flags().Changed("skip-open") && defaults.SkipOpen != nil {
		*skipOpen = *defaults.SkipOpen
	}
	if !cmd.Flags().Changed("shred") && defaults.Shred != nil {
		*shred = *defaults.Shred
	}
	if !cmd.Flags().Changed("tui") && defaults.TUI != nil {
		g.tui = *defaults.TUI
	}
}

// warnForeignOwners logs targets that belong to another user.
func warnForeignOwners(paths []string) {
	for _, p := range paths {
		owned, err := destroy.OwnedByCaller(p)
		if err == nil && !owned {
			slog.Warn("target is owned by another user", "path", p)
		}
	}
}

func workingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

const exitInterrupted = 130

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
