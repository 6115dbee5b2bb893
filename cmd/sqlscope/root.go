package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pthm/sqlscope"
	"github.com/pthm/sqlscope/internal/cli"
	"github.com/pthm/sqlscope/pkg/dialect"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string
	logger     = zap.NewNop()

	// Persistent flags
	cfgFile     string
	dialectName string
	verbose     int
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:   "sqlscope",
	Short: "Dynamic SQL templates",
	Long: `sqlscope - Dynamic SQL templates

sqlscope renders scripts whose {scopes} disappear when none of their
[parameters] receive a condition, producing SQL with bind placeholders
for the chosen database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for help/completion/version commands
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}
		cfg.Dialect = resolveString(dialectName, cfg.Dialect)

		logger, err = cli.NewLogger(logLevel(cfg.Log.Level))
		if err != nil {
			return cli.ConfigError("building logger", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	SilenceUsage:  true, // Don't show usage on errors
	SilenceErrors: true, // We handle errors ourselves
}

// Command group IDs
const (
	groupScript   = "script"
	groupDatabase = "database"
	groupUtility  = "utility"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover sqlscope.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dialectName, "dialect", "d", "", "target dialect (overrides config)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase verbosity (can be repeated)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupScript, Title: "Script:"},
		&cobra.Group{ID: groupDatabase, Title: "Database:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	renderCmd.GroupID = groupScript
	tokensCmd.GroupID = groupScript
	validateCmd.GroupID = groupScript
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(validateCmd)

	execCmd.GroupID = groupDatabase
	rootCmd.AddCommand(execCmd)

	configCmd.GroupID = groupUtility
	doctorCmd.GroupID = groupUtility
	versionCmd.GroupID = groupUtility
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.ExitWithError(err)
	}
}

// resolveString returns the first non-empty string from the provided values.
// Used to implement precedence: flag > config > default.
func resolveString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// logLevel raises the configured level by one step per -v.
func logLevel(configured string) string {
	switch {
	case verbose >= 2:
		return "debug"
	case verbose == 1:
		return "info"
	}
	return configured
}

// newEngine builds an engine for the configured dialect.
func newEngine() (*sqlscope.Engine, dialect.Dialect, error) {
	d, err := cfg.ResolvedDialect()
	if err != nil {
		return nil, dialect.Dialect{}, cli.ConfigError("resolving dialect", err)
	}
	engine := d.Engine(
		sqlscope.WithHints(d.Hints|cfg.EngineHints()),
		sqlscope.WithCache(sqlscope.NewParseCache(sqlscope.WithCapacity(cfg.Cache.Capacity))),
		sqlscope.WithStrictVariables(cfg.Variables.Strict),
		sqlscope.WithLogger(logger.With(zap.String("dialect", d.Name))),
	)
	return engine, d, nil
}

// readScript reads the script named by path, or stdin for "" and "-".
func readScript(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", cli.GeneralError("reading script", err)
	}
	return string(data), nil
}

// prepareQuery reads the script and applies the conditions file, if any.
func prepareQuery(cmd *cobra.Command, engine *sqlscope.Engine, scriptPath, conditionsPath string) (*sqlscope.Query, error) {
	script, err := readScript(cmd, scriptPath)
	if err != nil {
		return nil, err
	}
	q := engine.Query(script)
	if conditionsPath == "" {
		return q, nil
	}
	f, err := cli.LoadConditions(conditionsPath)
	if err != nil {
		return nil, cli.ConditionError("loading conditions", err)
	}
	if err := f.Apply(q); err != nil {
		return nil, cli.ConditionError(fmt.Sprintf("applying %s", conditionsPath), err)
	}
	return q, nil
}

func scriptArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
