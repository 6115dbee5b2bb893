// Package main provides a CLI for working with sqlscope scripts.
//
// The CLI supports:
//   - render: Produce SQL and bind parameters from a script and a conditions file
//   - tokens: Show the token tree of a script
//   - validate: Check that scripts tokenize
//   - exec: Render a script and run it against a database
//   - doctor: Run health checks on the configuration, database and scripts
//   - config show: Print the effective configuration
//   - version: Print the version, optionally checking for a newer release
//
// Usage:
//
//	sqlscope [flags] <command>
//
// Only exec needs database access; it reads database.url (or SQLSCOPE_DATABASE_URL).
package main

func main() {
	Execute()
}
