// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp/hcredact/database"
	"github.com/hashicorp/hcredact/hcl"
	"github.com/hashicorp/hcredact/logging"
	"github.com/hashicorp/hcredact/redact"
)

var _ cli.Command = &UsersCommand{}

type UsersCommand struct {
	ui    cli.Ui
	flags *flag.FlagSet

	// out receives the redacted rows; summary receives the report written after a run.
	out     io.Writer
	summary io.Writer

	// connect opens the database; replaced in tests.
	connect func(context.Context, database.Config) (*sql.DB, error)

	// HCL file location
	config string

	// envFiles are .env style files loaded before reading PERSONAL_DATA_DB_* variables.
	envFiles []string

	noSummary bool
}

func (c *UsersCommand) init() {
	const (
		configUsageText    = "Path to HCL configuration file"
		envUsageText       = "Comma-separated .env files to load before reading PERSONAL_DATA_DB_* variables. Defaults to ./.env when present"
		noSummaryUsageText = "Do not print the redaction summary after all rows are logged"
	)

	c.flags = flag.NewFlagSet("users", flag.ContinueOnError)
	c.flags.StringVar(&c.config, "config", "", configUsageText)
	c.flags.Var(CSVFlag{Values: &c.envFiles}, "env", envUsageText)
	c.flags.BoolVar(&c.noSummary, "no-summary", false, noSummaryUsageText)
	c.flags.SetOutput(io.Discard)
}

// NewUsersCommand produces a new *UsersCommand that logs to stdout and reports to stderr.
func NewUsersCommand(ui cli.Ui) *UsersCommand {
	c := &UsersCommand{
		ui:      ui,
		out:     os.Stdout,
		summary: os.Stderr,
		connect: database.Connect,
	}
	c.init()
	return c
}

// UsersCommandFactory provides a cli.CommandFactory that will produce an appropriately-initiated *command.
func UsersCommandFactory(ui cli.Ui) cli.CommandFactory {
	return func() (cli.Command, error) {
		return NewUsersCommand(ui), nil
	}
}

// Help provides help text to users who pass in the --help flag or who enter invalid options.
func (c *UsersCommand) Help() string {
	helpText := `Usage: hcredact users [options]

Reads every row of the users table and logs it with personal data redacted. Connection settings come from the
PERSONAL_DATA_DB_USERNAME, PERSONAL_DATA_DB_PASSWORD, PERSONAL_DATA_DB_HOST and PERSONAL_DATA_DB_NAME environment
variables, falling back to the database block of the HCL configuration. The redact blocks of the HCL configuration
are applied to every logged row after the logger's own field redaction.
`
	return Usage(helpText, c.flags, usersEnv...)
}

var usersEnv = []EnvVar{
	{Name: database.EnvDBUsername, Usage: "Database user. Defaults to " + database.DefaultUsername},
	{Name: database.EnvDBPassword, Usage: "Database password. Defaults to empty"},
	{Name: database.EnvDBHost, Usage: "Database host. Defaults to " + database.DefaultHost},
	{Name: database.EnvDBName, Usage: "Database name. Required unless set in the HCL database block"},
	{Name: database.EnvDBPort, Usage: "Database port. Defaults to 3306"},
	{Name: database.EnvDBCACert, Usage: "Path to a PEM-encoded CA certificate; enables TLS"},
	{Name: database.EnvDBCAPath, Usage: "Path to a directory of PEM-encoded CA certificates; enables TLS"},
	{Name: database.EnvDBSkipVerify, Usage: "Skip verification of the server certificate; enables TLS"},
}

// Synopsis provides a brief description of the command, for inclusion in the application's primary --help.
func (c *UsersCommand) Synopsis() string {
	return "Log the users table with personal data redacted"
}

// Run executes the command.
func (c *UsersCommand) Run(args []string) int {
	if err := c.flags.Parse(args); err != nil {
		c.ui.Warn(err.Error())
		c.ui.Warn(c.Help())
		return FlagParseError
	}

	l := logging.ConfigureLogging("hcredact")

	var (
		h     hcl.HCL
		rules []*redact.Redact
	)
	if c.config != "" {
		var err error
		h, err = hcl.Parse(c.config)
		if err != nil {
			l.Error("Failed to load configuration", "config", c.config, "error", err)
			return ConfigError
		}
		rules, err = hcl.MapRedacts(h.Redactions)
		if err != nil {
			l.Error("Failed to load redactions", "config", c.config, "error", err)
			return ConfigError
		}
		// Literal rules hold the secrets they match, so the dump goes through the rules too.
		dump, err := json.Marshal(h)
		if err == nil {
			l.Debug("HCL config is", "hcl", redact.NewRedactedString(string(dump), rules))
		}
	}

	if err := database.LoadEnv(c.envFiles...); err != nil {
		l.Error("Failed to load environment files", "files", c.envFiles, "error", err)
		return ConfigError
	}
	cfg, err := database.FromEnv(h.DatabaseConfig())
	if err != nil {
		l.Error("Invalid database configuration", "error", err)
		return ConfigError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	l.Debug("connecting to database", "addr", cfg.Addr(), "name", cfg.Name, "tls", cfg.UseTLS())
	db, err := c.connect(ctx, cfg)
	if err != nil {
		l.Error("Failed to connect to database", "error", err)
		return DatabaseConnectError
	}
	defer db.Close()

	// Rows are redacted by the logger's fields first, then by the configured redact blocks.
	out := redact.NewWriter(c.out, rules...)
	fields := h.LoggerFields()
	counts, err := logUsers(ctx, db, logging.NewLogger(h.LoggerName(), out, fields), fields)
	if flushErr := out.Flush(); flushErr != nil {
		l.Error("Failed to write rows", "error", flushErr)
		return OutputError
	}
	if err != nil {
		l.Error("Failed to read users", "error", err)
		return DatabaseQueryError
	}

	if c.noSummary {
		return Success
	}
	if err := writeSummary(c.summary, counts); err != nil {
		l.Warn("failed to write summary", "error", err)
		return OutputError
	}
	return Success
}

// redactionCounts holds the number of rows logged and, per sensitive field, how many rows carried it.
type redactionCounts struct {
	rows   int
	fields map[string]int
}

// logUsers logs every users row through logger and counts the sensitive fields seen.
func logUsers(ctx context.Context, q database.Querier, logger hclog.Logger, fields []string) (redactionCounts, error) {
	counts := redactionCounts{fields: make(map[string]int, len(fields))}
	sensitive := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		sensitive[f] = struct{}{}
		counts.fields[f] = 0
	}

	err := database.StreamUsers(ctx, q, func(r database.Row) error {
		counts.rows++
		for _, f := range r {
			if _, ok := sensitive[f.Name]; ok {
				counts.fields[f.Name]++
			}
		}
		logger.Info(r.String())
		return nil
	})
	return counts, err
}

func writeSummary(writer io.Writer, counts redactionCounts) error {
	_, err := fmt.Fprintf(writer, "Logged %d rows from the users table.\n", counts.rows)
	if err != nil {
		return err
	}

	t := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	_, err = fmt.Fprint(t, formatReportLine("field", "redacted"))
	if err != nil {
		return err
	}

	// For deterministic output, we sort the fields in alphabetical order.
	var fields []string
	for k := range counts.fields {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	for _, f := range fields {
		_, err := fmt.Fprint(t, formatReportLine(f, strconv.Itoa(counts.fields[f])))
		if err != nil {
			return err
		}
	}

	return t.Flush()
}

func formatReportLine(cells ...string) string {
	format := ""

	// The coercion from the argument of type []string to type []interface is required for the later
	// call to fmt.Sprintf, in which variadic arguments must be of type any/interface{}.
	strValues := make([]interface{}, len(cells))
	for i, cell := range cells {
		format += "%s\t"
		strValues[i] = cell
	}

	format += "\n"

	return fmt.Sprintf(format, strValues...)
}
