package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/pthm/sqlscope/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate <script>...",
	Short: "Check that scripts tokenize",
	Long:  `Tokenize every script and report all malformed ones, not just the first.`,
	Example: `  # Validate every script of a directory
  sqlscope validate queries/*.sql`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, err := newEngine()
		if err != nil {
			return err
		}

		var result *multierror.Error
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", path, err))
				continue
			}
			if err := engine.Validate(string(data)); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", path, err))
				continue
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
			}
		}

		if err := result.ErrorOrNil(); err != nil {
			return cli.ScriptParseError(fmt.Sprintf("%d of %d scripts invalid", len(result.Errors), len(args)), err)
		}
		return nil
	},
}
