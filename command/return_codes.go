// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package command

// Success indicates a successful command execution.
const Success int = 0

// The following error group is intended for issues within the command's execution.
const (
	// FlagParseError indicates that a command was unable to successfully parse the flags/arguments provided to it.
	FlagParseError int = iota + 16

	// ConfigError indicates that there was an error in the hcredact configuration.
	ConfigError

	// RunError indicates an error while reading or redacting input.
	RunError

	// OutputError indicates an error writing redacted output.
	OutputError

	// CheckError is returned when a password does not match the provided hash.
	CheckError
)

// The following error group is intended for issues with the database.
const (
	// DatabaseConnectError is returned when the database cannot be reached.
	DatabaseConnectError int = iota + 32

	// DatabaseQueryError is returned when reading rows from the database fails.
	DatabaseQueryError
)
