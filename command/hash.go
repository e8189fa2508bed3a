// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"bufio"
	"errors"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/cli"

	"github.com/hashicorp/hcredact/password"
)

var _ cli.Command = &HashCommand{}

type HashCommand struct {
	ui    cli.Ui
	flags *flag.FlagSet

	// in defaults to stdin.
	in io.Reader

	// check holds a bcrypt hash to validate the password against instead of hashing it.
	check string
}

func (c *HashCommand) init() {
	const checkUsageText = "A bcrypt hash. When set, the password read from stdin is validated against it instead of being hashed"

	c.flags = flag.NewFlagSet("hash", flag.ContinueOnError)
	c.flags.StringVar(&c.check, "check", "", checkUsageText)
	c.flags.SetOutput(io.Discard)
}

func NewHashCommand(ui cli.Ui) *HashCommand {
	c := &HashCommand{ui: ui, in: os.Stdin}
	c.init()
	return c
}

// HashCommandFactory provides a cli.CommandFactory that will produce an appropriately-initiated *command.
func HashCommandFactory(ui cli.Ui) cli.CommandFactory {
	return func() (cli.Command, error) {
		return NewHashCommand(ui), nil
	}
}

func (c *HashCommand) Help() string {
	helpText := `Usage: hcredact hash [options]

Reads a password from the first line of stdin and prints its salted bcrypt hash.
`
	return Usage(helpText, c.flags)
}

func (c *HashCommand) Synopsis() string {
	return "Hash or validate a password with bcrypt"
}

func (c *HashCommand) Run(args []string) int {
	if err := c.flags.Parse(args); err != nil {
		c.ui.Warn(err.Error())
		c.ui.Warn(c.Help())
		return FlagParseError
	}

	pw, err := readLine(c.in)
	if err != nil {
		c.ui.Error("Failed to read password: " + err.Error())
		return RunError
	}

	if c.check != "" {
		if !password.IsValid([]byte(c.check), pw) {
			c.ui.Error("Password does not match hash")
			return CheckError
		}
		c.ui.Output("Password matches hash")
		return Success
	}

	hashed, err := password.HashPassword(pw)
	if err != nil {
		c.ui.Error(err.Error())
		return RunError
	}
	c.ui.Output(string(hashed))
	return Success
}

// readLine returns the first line of r without its line ending.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if err != nil && line == "" {
		return "", errors.New("no input")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
