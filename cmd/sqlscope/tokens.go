package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/sqlscope/internal/cli"
	"github.com/pthm/sqlscope/pkg/tokenizer"
)

var tokensParams bool

var tokensCmd = &cobra.Command{
	Use:   "tokens [script]",
	Short: "Show the token tree of a script",
	Example: `  # Dump the tree
  sqlscope tokens query.sql

  # List the parameters a conditions file may target
  sqlscope tokens query.sql --params`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := cfg.ResolvedDialect()
		if err != nil {
			return cli.ConfigError("resolving dialect", err)
		}
		script, err := readScript(cmd, scriptArg(args))
		if err != nil {
			return err
		}

		tree, err := tokenizer.Tokenize(script, d.Hints|cfg.EngineHints())
		if err != nil {
			return cli.ScriptParseError("tokenizing script", err)
		}

		out := cmd.OutOrStdout()
		if tokensParams {
			for _, p := range tokenizer.Parameters(tree) {
				fmt.Fprintln(out, p.String())
			}
			return nil
		}
		fmt.Fprint(out, tree.Dump())
		return nil
	},
}

func init() {
	tokensCmd.Flags().BoolVar(&tokensParams, "params", false, "list distinct parameters instead of the tree")
}
