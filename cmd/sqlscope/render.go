package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/pthm/sqlscope/internal/cli"
)

var (
	renderConditions string
	renderParams     bool
)

// renderedStatement is the YAML shape printed by render --params.
type renderedStatement struct {
	SQL    string           `json:"sql"`
	Params []renderedParams `json:"params"`
}

type renderedParams struct {
	Name      string `json:"name"`
	Condition string `json:"condition"`
	Value     any    `json:"value"`
}

var renderCmd = &cobra.Command{
	Use:   "render [script]",
	Short: "Render a script to SQL",
	Long: `Render a script to SQL using the conditions and variables of a conditions file.
The script is read from stdin when no file is given.`,
	Example: `  # Render with conditions
  sqlscope render query.sql --conditions filters.yaml

  # Render for MySQL and include bind parameters
  sqlscope render query.sql -c filters.yaml --dialect mysql --params`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, err := newEngine()
		if err != nil {
			return err
		}
		q, err := prepareQuery(cmd, engine, scriptArg(args), renderConditions)
		if err != nil {
			return err
		}

		text, err := q.SQL()
		if err != nil {
			return cli.RenderError("rendering script", err)
		}

		out := cmd.OutOrStdout()
		if !renderParams {
			fmt.Fprintln(out, text)
			return nil
		}

		stmt := renderedStatement{SQL: text, Params: []renderedParams{}}
		for _, p := range q.Parameters() {
			stmt.Params = append(stmt.Params, renderedParams{Name: p.Name, Condition: p.Condition, Value: p.Value})
		}
		data, err := yaml.Marshal(stmt)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(data))
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderConditions, "conditions", "c", "", "conditions file (YAML)")
	renderCmd.Flags().BoolVar(&renderParams, "params", false, "print SQL and bind parameters as YAML")
}
