package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"github.com/pthm/sqlscope/internal/cli"
	"github.com/pthm/sqlscope/pkg/dialect"
)

var (
	execConditions string
	execStatement  bool
)

var execCmd = &cobra.Command{
	Use:   "exec [script]",
	Short: "Render a script and run it",
	Long: `Render a script and run it against database.url with the dialect's driver.
Rows are printed as YAML; statements run with --statement print the number
of affected rows.`,
	Example: `  # Query a Postgres database
  SQLSCOPE_DATABASE_URL=postgres://localhost/app sqlscope exec query.sql -c filters.yaml

  # Run an update on SQLite
  sqlscope exec update.sql -d sqlite --statement`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, d, err := newEngine()
		if err != nil {
			return err
		}
		q, err := prepareQuery(cmd, engine, scriptArg(args), execConditions)
		if err != nil {
			return err
		}
		text, params, err := d.Render(q)
		if err != nil {
			return cli.RenderError("rendering script", err)
		}

		dsn, err := cfg.DSN()
		if err != nil {
			return cli.ConfigError("resolving database", err)
		}

		ctx := cmd.Context()
		db, err := dialect.Open(ctx, d, dsn)
		if err != nil {
			return cli.DBConnectError("connecting to database", err)
		}
		defer func() { _ = db.Close() }()

		logger.Info("executing statement", zap.String("sql", text), zap.Int("params", len(params)))

		out := cmd.OutOrStdout()
		if execStatement {
			res, err := db.ExecContext(ctx, text, params...)
			if err != nil {
				return cli.GeneralError("executing statement", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return cli.GeneralError("reading affected rows", err)
			}
			if !quiet {
				fmt.Fprintf(out, "%d rows affected\n", n)
			}
			return nil
		}

		rows, err := db.QueryContext(ctx, text, params...)
		if err != nil {
			return cli.GeneralError("running query", err)
		}
		defer func() { _ = rows.Close() }()

		records, err := scanRows(rows)
		if err != nil {
			return cli.GeneralError("reading rows", err)
		}
		data, err := yaml.Marshal(records)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(data))
		return nil
	},
}

func init() {
	execCmd.Flags().StringVarP(&execConditions, "conditions", "c", "", "conditions file (YAML)")
	execCmd.Flags().BoolVar(&execStatement, "statement", false, "execute without reading rows")
}

// scanRows reads every row into a column name to value map.
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	records := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
			} else {
				record[col] = values[i]
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
