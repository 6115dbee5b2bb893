package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/sqlscope/internal/cli"
	"github.com/pthm/sqlscope/internal/update"
	"github.com/pthm/sqlscope/internal/version"
)

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Example: `  # Print the version and look for a newer release
  sqlscope version --check`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, version.Info())
		if !versionCheck {
			return nil
		}

		checker, err := update.NewChecker()
		if err != nil {
			return cli.GeneralError("locating cache directory", err)
		}
		info, err := checker.Check(cmd.Context())
		if err != nil {
			return cli.GeneralError("checking for updates", err)
		}
		if info.UpdateAvailable {
			fmt.Fprintf(out, "A newer release is available: %s (you have %s)\n", info.LatestVersion, info.CurrentVersion)
			if info.ReleaseURL != "" {
				fmt.Fprintf(out, "  %s\n", info.ReleaseURL)
			}
		} else {
			fmt.Fprintln(out, "You are running the latest release.")
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check for a newer release")
}
