package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:       "theme [next]",
	Short:     "Print or cycle the theme preference",
	Long:      `Print the stored theme. With "next", advance Light -> Dark -> System -> Light and save it.`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"next"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		theme, err := a.repo.LoadTheme()
		if err != nil {
			return fmt.Errorf("loading theme: %w", err)
		}
		if len(args) == 1 {
			theme = theme.Next()
			if err := a.repo.SaveTheme(theme); err != nil {
				return fmt.Errorf("saving theme: %w", err)
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), theme)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
}
