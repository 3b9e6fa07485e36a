package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"zero/internal/prefs"
	"zero/internal/scanner"
)

// lastVersionKey holds the version whose release notes were last shown.
const lastVersionKey = "last_version"

const whatsNew = "pin tasks to the top and into the widget, edit every field, search with /, set reminder dates"

var appVersion = "dev"

// SetVersionInfo sets the version injected via ldflags.
func SetVersionInfo(version string) {
	appVersion = version
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "zero %s\n", appVersion)
	},
}

// announceVersion sends the release notes once per version change and
// remembers the version it announced.
func announceVersion(p *prefs.Store, n scanner.Notifier, version string) error {
	last, err := p.GetOr(lastVersionKey, "")
	if err == nil && last == version {
		return nil
	}
	if err := n.Notify("What's new in zero "+version, whatsNew); err != nil {
		return err
	}
	return p.Set(lastVersionKey, version)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
