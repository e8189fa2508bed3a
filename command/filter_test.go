// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mitchellh/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var update = flag.Bool("update", false, "update golden files")

const filterInput = "testdata/filter/input.log"

// newTestFilterCommand returns a FilterCommand writing to a buffer.
func newTestFilterCommand(in string) (*FilterCommand, *bytes.Buffer, *cli.MockUi) {
	ui := cli.NewMockUi()
	c := NewFilterCommand(ui)
	out := new(bytes.Buffer)
	c.in = strings.NewReader(in)
	c.out = out
	return c, out, ui
}

func TestFilterCommand_Golden(t *testing.T) {
	// NOTE: If you make changes to the filter command, you may break existing unit tests until the golden files are
	// updated to reflect your changes. To update them, run `go test ./command -update`, and then manually verify that
	// the new files under testdata/filter look like you expect.
	testCases := []struct {
		name string
		args []string
	}{
		{
			name: "Default Fields",
			args: []string{filterInput},
		},
		{
			name: "Custom Fields",
			args: []string{"-fields", "ip,last_login", "-redaction", "xxx", filterInput},
		},
		{
			name: "With Config",
			args: []string{"-config", "testdata/filter/config.hcl", filterInput},
		},
		{
			name: "No Fields",
			args: []string{"-fields", "", filterInput},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, out, ui := newTestFilterCommand("")

			rc := c.Run(tc.args)
			require.Equal(t, Success, rc, ui.ErrorWriter.String())

			golden := filepath.Join("testdata/filter", tc.name+".golden")
			if *update {
				writeErr := os.WriteFile(golden, out.Bytes(), 0644)
				if writeErr != nil {
					t.Errorf("Error writing golden file (%s): %s", golden, writeErr)
				}
			}

			expected, readErr := os.ReadFile(golden)
			if readErr != nil {
				t.Errorf("Error reading golden file (%s): %s", golden, readErr)
			}
			assert.Equal(t, string(expected), out.String())
		})
	}
}

func TestFilterCommand_Stdin(t *testing.T) {
	c, out, _ := newTestFilterCommand("name=Bob;password=1234;ssn=000;\n")
	rc := c.Run([]string{"-fields", "password,ssn"})
	assert.Equal(t, Success, rc)
	assert.Equal(t, "name=Bob;password=***;ssn=***;\n", out.String())
}

func TestFilterCommand_StdinDash(t *testing.T) {
	c, out, _ := newTestFilterCommand("a=1|password=2\n")
	rc := c.Run([]string{"-separator", "|", "-"})
	assert.Equal(t, Success, rc)
	assert.Equal(t, "a=1|password=***\n", out.String())
}

func TestFilterCommand_CRLF(t *testing.T) {
	c, out, _ := newTestFilterCommand("name=Bob\r\npassword=1234")
	rc := c.Run(nil)
	assert.Equal(t, Success, rc)
	assert.Equal(t, "name=***\r\npassword=***", out.String())
}

func TestFilterCommand_Out(t *testing.T) {
	dir := t.TempDir()

	t.Run("file input", func(t *testing.T) {
		dest := filepath.Join(dir, "file.log")
		c, out, ui := newTestFilterCommand("")
		rc := c.Run([]string{"-out", dest, filterInput})
		require.Equal(t, Success, rc, ui.ErrorWriter.String())
		assert.Empty(t, out.String())

		expected, err := os.ReadFile("testdata/filter/Default Fields.golden")
		require.NoError(t, err)
		written, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, string(expected), string(written))
	})

	t.Run("stdin input", func(t *testing.T) {
		dest := filepath.Join(dir, "stdin.log")
		c, out, _ := newTestFilterCommand("ssn=000;ip=1;\n")
		rc := c.Run([]string{"-out", dest})
		require.Equal(t, Success, rc)
		assert.Empty(t, out.String())

		written, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "ssn=***;ip=1;\n", string(written))
	})

	t.Run("more than one input", func(t *testing.T) {
		c, _, _ := newTestFilterCommand("")
		rc := c.Run([]string{"-out", filepath.Join(dir, "many.log"), filterInput, filterInput})
		assert.Equal(t, FlagParseError, rc)
	})

	t.Run("unwritable destination", func(t *testing.T) {
		c, _, _ := newTestFilterCommand("ssn=1;\n")
		rc := c.Run([]string{"-out", filepath.Join(dir, "missing", "out.log")})
		assert.Equal(t, OutputError, rc)
	})
}

func TestFilterCommand_JSON(t *testing.T) {
	in := `{"name":"Bob","ssn":"000","meta":{"ip":"1.2.3.4","note":"password=x;"}}` + "\n" + "email=bob@dylan.com;ip=1;\n"
	c, out, _ := newTestFilterCommand(in)
	rc := c.Run([]string{"-json"})
	require.Equal(t, Success, rc)
	assert.Equal(t,
		`{"meta":{"ip":"1.2.3.4","note":"password=***;"},"name":"***","ssn":"***"}`+"\n"+"email=***;ip=1;\n",
		out.String())

	dest := filepath.Join(t.TempDir(), "out.jsonl")
	c, out, _ = newTestFilterCommand(`{"password":"x"}`)
	rc = c.Run([]string{"-json", "-out", dest})
	require.Equal(t, Success, rc)
	assert.Empty(t, out.String())
	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, `{"password":"***"}`, string(written))
}

func TestFilterCommand_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		args   []string
		expect int
	}{
		{name: "unknown flag", args: []string{"-nope"}, expect: FlagParseError},
		{name: "missing config", args: []string{"-config", "testdata/filter/missing.hcl"}, expect: ConfigError},
		{name: "invalid config", args: []string{"-config", "../tests/resources/config/invalid_redact.hcl"}, expect: ConfigError},
		{name: "missing input", args: []string{"testdata/filter/missing.log"}, expect: RunError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, _, _ := newTestFilterCommand("")
			assert.Equal(t, tc.expect, c.Run(tc.args))
		})
	}
}

func TestFilterCommand_Help(t *testing.T) {
	c, _, _ := newTestFilterCommand("")
	help := c.Help()
	assert.Contains(t, help, "Usage: hcredact filter")
	assert.Contains(t, help, "-fields")
	assert.Contains(t, help, "-separator")
	assert.NotEmpty(t, c.Synopsis())
}
