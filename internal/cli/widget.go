package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"zero/internal/widget"
)

var widgetCmd = &cobra.Command{
	Use:   "widget",
	Short: "Render the pinned-task widget",
	Long: `Decode the pinned-task mirror and draw the widget card, exactly as the
home screen widget would. An unreadable mirror renders as empty.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.mirror.Load()
		if res.Err != nil {
			a.logger.Printf("widget: %v", res.Err)
		}
		theme, err := a.repo.LoadTheme()
		if err != nil {
			a.logger.Printf("widget: loading theme: %v", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), widget.Render(res.Value, theme))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(widgetCmd)
}
