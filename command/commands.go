// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"strings"

	"github.com/mitchellh/cli"
)

// Commands returns the factories for every hcredact subcommand.
func Commands(ui cli.Ui) map[string]cli.CommandFactory {
	return map[string]cli.CommandFactory{
		"filter":  FilterCommandFactory(ui),
		"users":   UsersCommandFactory(ui),
		"hash":    HashCommandFactory(ui),
		"version": VersionCommandFactory(ui),
	}
}

// CSVFlag is a flag.Value that splits a comma-separated list.
type CSVFlag struct {
	Values *[]string
}

func (s CSVFlag) String() string {
	if s.Values == nil {
		return ""
	}
	return strings.Join(*s.Values, ",")
}

func (s CSVFlag) Set(v string) error {
	var vals []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			vals = append(vals, part)
		}
	}
	*s.Values = vals
	return nil
}
