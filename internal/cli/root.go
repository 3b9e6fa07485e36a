package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"zero/internal/scanner"
	"zero/internal/ui"
	"zero/internal/viewmodel"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "zero",
	Short: "Zero - a local task manager",
	Long: `Zero keeps a personal task list in a local SQLite database.

Run without a subcommand to open the interactive task list. The daily
due/reminder scan runs in the background while the program is open; use
'zero scan' to run it from cron instead.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		interval, err := a.cfg.ScanInterval()
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		vm := viewmodel.New(a.repo, a.mirror, a.logger)
		inbox := ui.NewInbox()
		sc := scanner.New(a.repo, inbox, a.logger)
		sc.SkipCompleted = a.cfg.Scanner.SkipCompleted

		// Background work must stop before the deferred a.Close.
		wait := startBackground(ctx, a.logger, vm, sc, interval)
		defer func() {
			cancel()
			wait()
		}()

		if err := announceVersion(a.prefs, inbox, appVersion); err != nil {
			a.logger.Printf("version notice: %v", err)
		}

		if err := ui.Run(ctx, vm, inbox, a.cfg, a.logger); err != nil {
			return fmt.Errorf("running program: %w", err)
		}
		return nil
	},
}

// startBackground runs the view model and the periodic scanner until ctx is
// done. The returned func blocks until both have returned.
func startBackground(ctx context.Context, logger *log.Logger, vm *viewmodel.ViewModel, sc *scanner.Scanner, interval time.Duration) func() {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := vm.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Printf("viewmodel: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := sc.Loop(ctx, interval); err != nil && ctx.Err() == nil {
			logger.Printf("scanner: %v", err)
		}
	}()
	return wg.Wait
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $ZERO_CONFIG or ~/.config/zero/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}
