// Package doctor provides health checks for a sqlscope setup.
//
// The doctor command validates that the configuration resolves, the
// dialect's driver is available, the database answers and that scripts
// tokenize cleanly.
//
// Example usage:
//
//	d := doctor.New(cfg, configPath, []string{"queries/orders.sql"})
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/pthm/sqlscope"
	"github.com/pthm/sqlscope/internal/cli"
	"github.com/pthm/sqlscope/pkg/dialect"
	"github.com/pthm/sqlscope/pkg/tokenizer"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical issue that will cause failures.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// CheckResult represents the outcome of a single health check.
type CheckResult struct {
	// Category groups related checks (e.g., "configuration", "database").
	Category string

	// Name is a short identifier for the check.
	Name string

	Status  Status
	Message string

	// Details provides additional information for verbose output.
	Details string

	// FixHint suggests how to resolve issues.
	FixHint string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult

	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Print writes the report grouped by category, in first-seen order.
func (r *Report) Print(w io.Writer, verbose bool) {
	var categoryOrder []string
	byCategory := make(map[string][]CheckResult)
	for _, check := range r.Checks {
		if _, ok := byCategory[check.Category]; !ok {
			categoryOrder = append(categoryOrder, check.Category)
		}
		byCategory[check.Category] = append(byCategory[check.Category], check)
	}

	for _, cat := range categoryOrder {
		_, _ = fmt.Fprintf(w, "\n%s\n", cat)
		for _, check := range byCategory[cat] {
			_, _ = fmt.Fprintf(w, "  %s %s\n", check.Status.Symbol(), check.Message)
			if verbose && check.Details != "" {
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", line)
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Doctor performs health checks on a sqlscope configuration.
type Doctor struct {
	cfg        *cli.Config
	configPath string
	scripts    []string

	// PingTimeout bounds the database connectivity check.
	PingTimeout time.Duration
}

// New creates a Doctor for the loaded configuration and the scripts to
// inspect.
func New(cfg *cli.Config, configPath string, scripts []string) *Doctor {
	return &Doctor{
		cfg:         cfg,
		configPath:  configPath,
		scripts:     scripts,
		PingTimeout: 5 * time.Second,
	}
}

// Run executes all health checks and returns a report.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	d.checkConfig(report)
	dia, ok := d.checkDialect(report)
	if ok {
		d.checkDatabase(ctx, report, dia)
		d.checkScripts(report, dia)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("running checks: %w", err)
	}
	return report, nil
}

func (d *Doctor) checkConfig(report *Report) {
	const category = "Configuration"

	if d.configPath != "" {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "config_file",
			Status:   StatusPass,
			Message:  "Config file: " + d.configPath,
		})
	} else {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "config_file",
			Status:   StatusWarn,
			Message:  "No sqlscope.yaml found, using defaults and environment",
			FixHint:  "Create sqlscope.yaml at the repository root",
		})
	}

	if d.cfg.Cache.Capacity < 1 {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "cache_capacity",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("cache.capacity %d is not positive, the default is used", d.cfg.Cache.Capacity),
			FixHint:  "Set cache.capacity to a positive number or remove it",
		})
	}

	if _, err := cli.NewLogger(d.cfg.Log.Level); err != nil {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "log_level",
			Status:   StatusFail,
			Message:  fmt.Sprintf("log.level %q is not a level", d.cfg.Log.Level),
			Details:  err.Error(),
			FixHint:  "Use debug, info, warn or error",
		})
	}
}

func (d *Doctor) checkDialect(report *Report) (dialect.Dialect, bool) {
	const category = "Dialect"

	dia, err := d.cfg.ResolvedDialect()
	if err != nil {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "dialect",
			Status:   StatusFail,
			Message:  err.Error(),
			FixHint:  "Set dialect to one of: " + strings.Join(dialect.Names(), ", "),
		})
		return dia, false
	}

	report.AddCheck(CheckResult{
		Category: category,
		Name:     "dialect",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Dialect %s (%s placeholders)", dia.Name, placeholderStyle(dia)),
	})

	switch {
	case dia.Driver == "":
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "driver",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("No database/sql driver is bundled for %s; render works, exec does not", dia.Name),
			FixHint:  "Set database.driver to a driver registered by your build",
		})
	case !slices.Contains(sql.Drivers(), dia.Driver):
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "driver",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Driver %q is not registered", dia.Driver),
			Details:  "Registered: " + strings.Join(sql.Drivers(), ", "),
			FixHint:  "Blank-import the driver package or change database.driver",
		})
	default:
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "driver",
			Status:   StatusPass,
			Message:  fmt.Sprintf("Driver %q registered", dia.Driver),
		})
	}
	return dia, true
}

func (d *Doctor) checkDatabase(ctx context.Context, report *Report, dia dialect.Dialect) {
	const category = "Database"

	db := d.cfg.Database
	if db.URL == "" && db.Host == "" {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "connection",
			Status:   StatusWarn,
			Message:  "No database configured, exec is unavailable",
			FixHint:  "Set database.url or SQLSCOPE_DATABASE_URL",
		})
		return
	}
	if dia.Driver == "" || !slices.Contains(sql.Drivers(), dia.Driver) {
		return
	}

	dsn, err := d.cfg.DSN()
	if err != nil {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "connection",
			Status:   StatusFail,
			Message:  "Database settings are incomplete",
			Details:  err.Error(),
		})
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx, d.PingTimeout)
	defer cancel()
	conn, err := dialect.Open(pingCtx, dia, dsn)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "connection",
			Status:   StatusFail,
			Message:  "Cannot connect to the database",
			Details:  err.Error(),
			FixHint:  "Check database.url and that the server is reachable",
		})
		return
	}
	_ = conn.Close()

	report.AddCheck(CheckResult{
		Category: category,
		Name:     "connection",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Connected with driver %q", dia.Driver),
	})
}

func (d *Doctor) checkScripts(report *Report, dia dialect.Dialect) {
	const category = "Scripts"

	hints := dia.Hints | d.cfg.EngineHints()
	for _, path := range d.scripts {
		data, err := readFileContent(path)
		if err != nil {
			report.AddCheck(CheckResult{
				Category: category,
				Name:     "read",
				Status:   StatusFail,
				Message:  fmt.Sprintf("%s: cannot read", path),
				Details:  err.Error(),
			})
			continue
		}

		tree, err := tokenizer.Tokenize(data, hints)
		if err != nil {
			report.AddCheck(CheckResult{
				Category: category,
				Name:     "tokenize",
				Status:   StatusFail,
				Message:  fmt.Sprintf("%s: %v", path, err),
				FixHint:  "Close the construct or escape the character ([[ or {{)",
			})
			continue
		}

		params := tokenizer.Parameters(tree)
		names := make([]string, len(params))
		for i, p := range params {
			names[i] = p.String()
		}
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "tokenize",
			Status:   StatusPass,
			Message:  fmt.Sprintf("%s: %d parameters", path, len(params)),
			Details:  strings.Join(names, "\n"),
		})

		if placeholderStyle(dia) != "anonymous" {
			continue
		}
		if shared := repeatedSingles(tree); len(shared) > 0 {
			report.AddCheck(CheckResult{
				Category: category,
				Name:     "placeholder_repeat",
				Status:   StatusWarn,
				Message:  fmt.Sprintf("%s: %s repeated with a compound parameter", path, strings.Join(shared, ", ")),
				Details:  "Anonymous ? placeholders bind once per occurrence. Rendering fails when a compound parameter repeats a scope holding one.",
				FixHint:  "Move the parameter out of the compound scope or use a dialect with named or numbered placeholders",
			})
		}
	}
}

// placeholderStyle reports whether a dialect's placeholders are named
// (:pname_1), numbered ($1) or anonymous (?).
func placeholderStyle(dia dialect.Dialect) string {
	name, placeholder := dia.Namer("x", 1, 1)
	switch {
	case strings.Contains(placeholder, name):
		return "named"
	case sqlscope.IsAnonymous(dia.Namer):
		return "anonymous"
	default:
		return "numbered"
	}
}

// repeatedSingles returns the non-compound parameters that sit inside the
// scope of a compound parameter and are therefore emitted once per value.
func repeatedSingles(tree *tokenizer.Tree) []string {
	var out []string
	for _, peer := range tree.CompoundPeers() {
		name := tree.Node(peer.Param).Param.String()
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

func readFileContent(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
