package cli

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"zero/internal/scanner"
)

var scanWatch bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Check for tasks due or reminding today",
	Long: `Run one due/reminder pass over all tasks and print a notification for
each category that has matches. With --watch the pass repeats at the
configured scanner.interval until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		notifier := scanner.LogNotifier{Logger: log.New(cmd.OutOrStdout(), "", 0)}
		sc := scanner.New(a.repo, notifier, a.logger)
		sc.SkipCompleted = a.cfg.Scanner.SkipCompleted

		if !scanWatch {
			r, err := sc.Scan(cmd.Context())
			if err != nil {
				return err
			}
			if len(r.DueToday) == 0 && len(r.Reminders) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing due today.")
			}
			return nil
		}

		interval, err := a.cfg.ScanInterval()
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		if err := sc.Loop(ctx, interval); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanWatch, "watch", false, "keep scanning at the configured interval")
	rootCmd.AddCommand(scanCmd)
}
