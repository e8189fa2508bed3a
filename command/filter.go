// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"flag"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	home "github.com/mitchellh/go-homedir"

	"github.com/hashicorp/hcredact/hcl"
	"github.com/hashicorp/hcredact/logging"
	"github.com/hashicorp/hcredact/redact"
)

var _ cli.Command = &FilterCommand{}

type FilterCommand struct {
	ui    cli.Ui
	flags *flag.FlagSet

	// in and out default to stdin and stdout.
	in  io.Reader
	out io.Writer

	fields    []string
	redaction string
	separator string

	// outPath, when set, receives the output instead of out.
	outPath string
	json    bool

	// HCL file location
	config string
}

func (c *FilterCommand) init() {
	const (
		fieldsUsageText    = "Comma-separated field names whose values are redacted, e.g. 'password,ssn'. Defaults to the PII fields name, email, phone, ssn and password"
		redactionUsageText = "Text that replaces every redacted value"
		separatorUsageText = "Separator between field=value pairs"
		configUsageText    = "Path to HCL configuration file; its redact blocks are applied after -fields"
		outUsageText       = "Write the redacted output to this file instead of stdout. Accepts a single input"
		jsonUsageText      = "Treat each line as JSON: every string is redacted and the values of members named in -fields are replaced"
	)

	c.fields = append([]string(nil), logging.PIIFields...)

	// flag.ContinueOnError allows flag.Parse to return an error if one comes up, rather than doing an `os.Exit(2)`
	// on its own.
	c.flags = flag.NewFlagSet("filter", flag.ContinueOnError)
	c.flags.Var(CSVFlag{Values: &c.fields}, "fields", fieldsUsageText)
	c.flags.StringVar(&c.redaction, "redaction", logging.Redaction, redactionUsageText)
	c.flags.StringVar(&c.separator, "separator", logging.Separator, separatorUsageText)
	c.flags.StringVar(&c.config, "config", "", configUsageText)
	c.flags.StringVar(&c.outPath, "out", "", outUsageText)
	c.flags.BoolVar(&c.json, "json", false, jsonUsageText)

	// When invalid flags are provided, Go will output a usage message of its own. If we direct our flag set to
	// io.Discard, it will effectively be hidden, allowing us to print our own Help message upon failure.
	c.flags.SetOutput(io.Discard)
}

// NewFilterCommand produces a new *FilterCommand reading stdin and writing stdout.
func NewFilterCommand(ui cli.Ui) *FilterCommand {
	c := &FilterCommand{
		ui:  ui,
		in:  os.Stdin,
		out: os.Stdout,
	}
	c.init()
	return c
}

// FilterCommandFactory provides a cli.CommandFactory that will produce an appropriately-initiated *command.
func FilterCommandFactory(ui cli.Ui) cli.CommandFactory {
	return func() (cli.Command, error) {
		return NewFilterCommand(ui), nil
	}
}

// Help provides help text to users who pass in the --help flag or who enter invalid options.
func (c *FilterCommand) Help() string {
	helpText := `Usage: hcredact filter [options] [file ...]

Redacts the values of sensitive fields in log lines of the form field=value;field=value; and writes the result to
stdout. Reads stdin when no files are given, or when a file is "-". Line endings are kept as they are in the input.
`
	return Usage(helpText, c.flags)
}

// Synopsis provides a brief description of the command, for inclusion in the application's primary --help.
func (c *FilterCommand) Synopsis() string {
	return "Redact sensitive field values from log lines"
}

// Run executes the command.
func (c *FilterCommand) Run(args []string) int {
	if err := c.flags.Parse(args); err != nil {
		c.ui.Warn(err.Error())
		c.ui.Warn(c.Help())
		return FlagParseError
	}

	l := logging.ConfigureLogging("hcredact")

	redactions, err := c.redactions(l)
	if err != nil {
		l.Error("Failed to load redactions", "config", c.config, "error", err)
		return ConfigError
	}

	paths := c.flags.Args()
	if len(paths) == 0 {
		paths = []string{"-"}
	}

	if c.outPath != "" {
		if len(paths) > 1 {
			c.ui.Warn("-out accepts a single input")
			c.ui.Warn(c.Help())
			return FlagParseError
		}
		return c.filterToFile(l, paths[0], redactions)
	}

	for _, p := range paths {
		if rc := c.filter(l, p, redactions); rc != Success {
			return rc
		}
	}
	return Success
}

// redactions builds the field redaction from flags, followed by any configured in HCL.
func (c *FilterCommand) redactions(l hclog.Logger) ([]*redact.Redact, error) {
	var fromFlags []*redact.Redact
	if len(c.fields) > 0 {
		r, err := redact.NewFields(c.fields, "", c.redaction, c.separator)
		if err != nil {
			return nil, err
		}
		fromFlags = append(fromFlags, r)
	}

	var fromConfig []*redact.Redact
	if c.config != "" {
		h, err := hcl.Parse(c.config)
		if err != nil {
			return nil, err
		}
		fromConfig, err = hcl.MapRedacts(h.Redactions)
		if err != nil {
			return nil, err
		}
	}

	l.Debug("redactions loaded", "fields", strings.Join(c.fields, ","), "config", len(fromConfig))
	return redact.Flatten(fromFlags, fromConfig), nil
}

// filterToFile redacts a single input into c.outPath.
func (c *FilterCommand) filterToFile(l hclog.Logger, path string, redactions []*redact.Redact) int {
	dest, err := home.Expand(c.outPath)
	if err != nil {
		l.Error("Failed to expand path", "path", c.outPath, "error", err)
		return RunError
	}

	if path != "-" && !c.json {
		src, err := home.Expand(path)
		if err != nil {
			l.Error("Failed to expand path", "path", path, "error", err)
			return RunError
		}
		if err := redact.File(src, dest, redactions); err != nil {
			l.Error("Failed to redact file", "path", path, "out", c.outPath, "error", err)
			return OutputError
		}
		return Success
	}

	f, err := os.Create(dest)
	if err != nil {
		l.Error("Failed to create output", "out", c.outPath, "error", err)
		return OutputError
	}
	defer f.Close()
	c.out = f
	if rc := c.filter(l, path, redactions); rc != Success {
		return rc
	}
	if err := f.Sync(); err != nil {
		l.Error("Failed to write output", "out", c.outPath, "error", err)
		return OutputError
	}
	return Success
}

func (c *FilterCommand) filter(l hclog.Logger, path string, redactions []*redact.Redact) int {
	in := c.in
	if path != "-" {
		expanded, err := home.Expand(path)
		if err != nil {
			l.Error("Failed to expand path", "path", path, "error", err)
			return RunError
		}
		f, err := os.Open(expanded)
		if err != nil {
			l.Error("Failed to open input", "path", path, "error", err)
			return RunError
		}
		defer f.Close()
		in = f
	}

	lines := redact.Lines
	if c.json {
		lines = redact.JSONLines
	}
	if err := lines(c.out, in, redactions); err != nil {
		l.Error("Failed to redact input", "path", path, "error", err)
		return OutputError
	}
	return Success
}
