package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/sqlscope/internal/cli"
	"github.com/pthm/sqlscope/internal/doctor"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor [script]...",
	Short: "Run health checks",
	Long: `Run health checks on the configuration, the dialect's driver, the
database connection and, when given, scripts.`,
	Example: `  # Check the configuration and database
  sqlscope doctor

  # Also inspect scripts, with details
  sqlscope doctor -v queries/*.sql`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !quiet {
			fmt.Fprintln(out, "sqlscope doctor - Health Check")
		}

		report, err := doctor.New(cfg, configPath, args).Run(cmd.Context())
		if err != nil {
			return cli.GeneralError("running doctor", err)
		}
		report.Print(out, verbose > 0)

		if report.HasErrors() {
			return cli.GeneralError("health checks failed", nil)
		}
		return nil
	},
}
