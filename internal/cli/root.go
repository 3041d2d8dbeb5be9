// Package cli provides the command-line interface for twinpane.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/twinpane/twinpane/internal/config"
	"github.com/twinpane/twinpane/internal/conflict"
	"github.com/twinpane/twinpane/internal/events"
	"github.com/twinpane/twinpane/internal/logging"
	"github.com/twinpane/twinpane/internal/models"
	"github.com/twinpane/twinpane/internal/progress"
	"github.com/twinpane/twinpane/internal/transfer"
)

var (
	// Global flags
	cfgFile    string
	verbose    bool
	onConflict string
	level      string

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// Version information - set by main package at startup.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// GetLogger returns the CLI logger, initializing it on first use.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return logger
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "twinpane",
		Short: "twinpane - dual-pane file and archive operations",
		Long: `twinpane ` + Version + ` - Built: ` + BuildTime + `
Queued, cancelable file operations and ZIP archive management.

Bulk operations (cp, mv, rm, zip) run through a bounded task queue with
per-task progress bars. Destination collisions follow the conflict policy
(--on-conflict): skip keeps what is already there, overwrite replaces it,
rename picks a free "name (2).ext" style name.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultLogger()
			if verbose {
				logging.SetGlobalLevel(-1) // zerolog.DebugLevel
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().StringVar(&onConflict, "on-conflict", "", "Collision handling: skip, overwrite or rename (overrides config)")
	rootCmd.PersistentFlags().StringVar(&level, "level", "", "Archive compression level: store, fast, normal or best (overrides config)")

	rootCmd.Version = Version + " (" + BuildTime + ")"

	rootCmd.AddCommand(newLsCmd())
	rootCmd.AddCommand(newDrivesCmd())
	rootCmd.AddCommand(newCpCmd())
	rootCmd.AddCommand(newMvCmd())
	rootCmd.AddCommand(newRmCmd())
	rootCmd.AddCommand(newRenameCmd())
	rootCmd.AddCommand(newMkdirCmd())
	rootCmd.AddCommand(newZipCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// Execute runs the CLI with Ctrl-C wired to cancellation: the first signal
// cancels the root context so in-flight operations stop at their next
// checkpoint and clean up partial files.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\ninterrupted, stopping...")
		cancelFunc()
	}()

	return NewRootCmd().Execute()
}

// cmdContext returns the signal-wired root context, or Background when the
// command tree is exercised outside Execute (tests).
func cmdContext() context.Context {
	if rootContext != nil {
		return rootContext
	}
	return context.Background()
}

// loadConfig reads the config file (or defaults) and applies flag overrides.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if onConflict != "" {
		cfg.OnConflict = onConflict
	}
	if level != "" {
		cfg.CompressionLevel = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func conflictDecision(cfg *config.Config) (conflict.Decision, error) {
	return conflict.ParseDecision(cfg.OnConflict)
}

// queueSession bundles the task queue with its console renderer for the
// lifetime of one command.
type queueSession struct {
	queue *transfer.Queue
	bus   *events.EventBus
	ui    *progress.QueueUI

	mu      sync.Mutex
	reports []models.BatchReport
}

// newQueueSession builds a queue sized from config, with an mpb view
// consuming its events. Ctrl-C cancels everything still queued or running.
func newQueueSession(cfg *config.Config) *queueSession {
	bus := events.NewEventBus(0)
	ui := progress.NewQueueUI()
	go ui.Run(bus.SubscribeAll())

	q := transfer.NewQueue(cfg.QueueWorkers, bus)
	if rootContext != nil {
		go func() {
			<-rootContext.Done()
			q.CancelAll()
		}()
	}

	return &queueSession{queue: q, bus: bus, ui: ui}
}

// addReport records a batch outcome for the final summary (thread-safe,
// tasks complete concurrently).
func (s *queueSession) addReport(r models.BatchReport) {
	s.mu.Lock()
	s.reports = append(s.reports, r)
	s.mu.Unlock()
}

// finish drains the queue, flushes the bars and prints a summary. Returns
// an error when any task failed or was cancelled.
func (s *queueSession) finish() error {
	s.queue.Wait()
	s.ui.Stop()
	s.ui.Wait()
	s.bus.Close()

	var succeeded, skipped int
	var failures []models.ItemFailure
	s.mu.Lock()
	for _, r := range s.reports {
		succeeded += len(r.Succeeded)
		skipped += len(r.Skipped)
		failures = append(failures, r.Failures...)
	}
	s.mu.Unlock()

	if succeeded > 0 || skipped > 0 || len(failures) > 0 {
		fmt.Printf("done: %d succeeded, %d skipped, %d failed\n", succeeded, skipped, len(failures))
	}
	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", f.Path, f.Err)
	}

	stats := s.queue.GetStats()
	if stats.Cancelled > 0 {
		return fmt.Errorf("cancelled with %d task(s) unfinished", stats.Cancelled)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d item(s) failed", len(failures))
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d task(s) failed", stats.Failed)
	}
	return nil
}
