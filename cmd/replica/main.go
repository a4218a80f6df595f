package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mkoval-dev/replica/internal/config"
	"github.com/mkoval-dev/replica/internal/engine"
	"github.com/mkoval-dev/replica/internal/event"
	"github.com/mkoval-dev/replica/internal/filter"
	"github.com/mkoval-dev/replica/internal/progress"
	"github.com/mkoval-dev/replica/internal/stats"
)

var version = "dev"

func main() {
	os.Exit(run())
}

//nolint:gocyclo,revive // cyclomatic: CLI entry point orchestrates flag parsing and run wiring
func run() int {
	var (
		excludes      []string
		oneFS         bool
		verifyFlag    bool
		resumeFlag    bool
		dryRun        bool
		verbose       bool
		quiet         bool
		showVersion   bool
		scanWorkers   int
		verifyWorkers int
		bwLimitStr    string
		logFile       string
	)

	rootCmd := &cobra.Command{
		Use:   "replica [flags] <source> <destination> [exclude-pattern]...",
		Short: "Replicate a directory tree preserving attributes, links, and hard-link identity",
		Args: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				return nil
			}
			// With no arguments on a terminal, the prompt collects them.
			if len(args) == 0 && progress.IsTTY(os.Stdin.Fd()) {
				return nil
			}
			return cobra.MinimumNArgs(2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "replica %s\n", version)
				return nil
			}

			if len(args) == 0 {
				promptArgs, err := promptForRun(os.Stdin, os.Stderr)
				if err != nil {
					return err
				}
				args = promptArgs
			}

			src := args[0]
			dst := args[1]
			// Positional patterns after the destination join --exclude.
			excludes = append(excludes, args[2:]...)

			cfg, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config", "error", err)
			}
			applyConfigDefaults(cmd, cfg.Defaults,
				&verifyFlag, &scanWorkers, &verifyWorkers, &oneFS, &bwLimitStr)
			if len(excludes) == 0 && !cmd.Flags().Changed("exclude") {
				excludes = append(excludes, cfg.Defaults.Exclude...)
			}

			var bwLimit int64
			if bwLimitStr != "" {
				bwLimit, err = filter.ParseSize(bwLimitStr)
				if err != nil {
					return fmt.Errorf("invalid --bwlimit: %w", err)
				}
			}

			// Logging: text to stderr, optional JSON to --log file.
			logLevel := slog.LevelWarn
			if verbose {
				logLevel = slog.LevelDebug
			} else if !quiet {
				logLevel = slog.LevelInfo
			}
			textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			})
			var logHandler slog.Handler = textHandler
			if logFile != "" {
				lf, lfErr := os.Create(logFile)
				if lfErr != nil {
					return fmt.Errorf("open log file: %w", lfErr)
				}
				defer lf.Close()
				jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})
				logHandler = progress.NewMultiHandler(textHandler, jsonHandler)
			}
			slog.SetDefault(slog.New(logHandler))

			if dryRun {
				slog.Info("dry run mode")
			}

			if scanWorkers <= 0 {
				scanWorkers = min(runtime.NumCPU(), 8)
			}
			if verifyWorkers <= 0 {
				verifyWorkers = 4
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			collector := stats.NewCollector()
			events := make(chan event.Event, 256)

			// With --log, events pass through a goroutine that writes
			// structured records before forwarding to the presenter.
			presenterEvents := (<-chan event.Event)(events)
			if logFile != "" {
				teed := make(chan event.Event, 256)
				go func() {
					for ev := range events {
						attrs := []slog.Attr{
							slog.String("type", ev.Type.String()),
							slog.String("path", ev.Path),
							slog.Int64("size", ev.Size),
						}
						if ev.Error != nil {
							attrs = append(attrs, slog.String("error", ev.Error.Error()))
						}
						slog.LogAttrs(context.Background(), slog.LevelInfo, "replica.event", attrs...)
						teed <- ev
					}
					close(teed)
				}()
				presenterEvents = teed
			}

			presenter := progress.New(progress.Config{
				Writer:    os.Stdout,
				ErrWriter: os.Stderr,
				Stats:     collector,
				IsTTY:     progress.IsTTY(os.Stderr.Fd()),
				Quiet:     quiet,
				Verbose:   verbose,
			})

			slog.Debug("starting replication",
				"source", src,
				"destination", dst,
				"excludes", excludes,
				"one-file-system", oneFS,
				"verify", verifyFlag,
				"resume", resumeFlag,
			)

			var presenterWg sync.WaitGroup
			presenterWg.Add(1)
			go func() {
				defer presenterWg.Done()
				_ = presenter.Run(presenterEvents)
			}()

			result, err := engine.Run(ctx, engine.Config{
				Source:        src,
				Dest:          dst,
				Exclude:       excludes,
				OneFilesystem: oneFS,
				DryRun:        dryRun,
				Resume:        resumeFlag,
				Verify:        verifyFlag,
				BWLimit:       bwLimit,
				ScanWorkers:   scanWorkers,
				VerifyWorkers: verifyWorkers,
				Events:        events,
				Stats:         collector,
			})
			stop()
			close(events)
			presenterWg.Wait()

			if err != nil {
				slog.Error("replication failed", "error", err)
				return &exitError{code: 2}
			}

			if !quiet {
				if summary := presenter.Summary(); summary != "" {
					fmt.Fprintln(os.Stderr, summary)
				}
			}

			report := result.Report
			if report.Fatal != nil {
				slog.Error("replication aborted", "error", report.Fatal, "report", report.String())
				return &exitError{code: 2}
			}
			for _, f := range report.Failures {
				slog.Warn("entry not replicated", "path", f.Path, "kind", f.Kind.String(), "error", f.Err)
			}
			if result.Verify.Failed > 0 {
				slog.Error("verification mismatches", "count", result.Verify.Failed)
				return &exitError{code: 1}
			}
			if report.Failed > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	rootCmd.Flags().
		StringArrayVarP(&excludes, "exclude", "e", nil, "exclude entries matching PATTERN (repeatable)")
	rootCmd.Flags().
		BoolVarP(&oneFS, "one-file-system", "x", false, "skip entries on other filesystems")
	rootCmd.Flags().BoolVar(&verifyFlag, "verify", false, "verify checksums after replication (BLAKE3)")
	rootCmd.Flags().BoolVar(&resumeFlag, "resume", false, "skip files recorded as copied by a previous run")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be replicated without writing")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.Flags().
		IntVar(&scanWorkers, "scan-workers", 0, "pre-scan worker count (default: min(NumCPU, 8))")
	rootCmd.Flags().IntVar(&verifyWorkers, "verify-workers", 0, "verify worker count (default: 4)")
	rootCmd.Flags().StringVar(&bwLimitStr, "bwlimit", "", "bandwidth limit (e.g. 100M, 1G)")
	rootCmd.Flags().StringVar(&logFile, "log", "", "write structured JSON log to FILE")

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*exitError); ok {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	return 0
}

// applyConfigDefaults applies config file defaults for flags not explicitly
// set on the CLI.
func applyConfigDefaults(
	cmd *cobra.Command,
	defaults config.DefaultsConfig,
	verify *bool,
	scanWorkers *int,
	verifyWorkers *int,
	oneFS *bool,
	bwLimit *string,
) {
	if !cmd.Flags().Changed("verify") && defaults.Verify != nil {
		*verify = *defaults.Verify
	}
	if !cmd.Flags().Changed("scan-workers") && defaults.ScanWorkers != nil {
		*scanWorkers = *defaults.ScanWorkers
	}
	if !cmd.Flags().Changed("verify-workers") && defaults.VerifyWorkers != nil {
		*verifyWorkers = *defaults.VerifyWorkers
	}
	if !cmd.Flags().Changed("one-file-system") && defaults.OneFilesystem != nil {
		*oneFS = *defaults.OneFilesystem
	}
	if !cmd.Flags().Changed("bwlimit") && defaults.BWLimit != nil {
		*bwLimit = *defaults.BWLimit
	}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
