// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/kr/text"
)

// maxLineLength is the maximum width of any line.
const maxLineLength int = 72

// EnvVar documents an environment variable read by a command.
type EnvVar struct {
	Name  string
	Usage string
}

// Usage renders help text followed by the command's flags and, optionally, the environment variables it reads.
func Usage(txt string, flags *flag.FlagSet, env ...EnvVar) string {
	u := &Usager{
		Usage: txt,
		Flags: flags,
		Env:   env,
	}
	return u.String()
}

type Usager struct {
	Usage string
	Flags *flag.FlagSet
	Env   []EnvVar
}

func (u *Usager) String() string {
	out := new(bytes.Buffer)

	// Write out the usage slug.
	out.WriteString(strings.TrimSpace(u.Usage))
	out.WriteString("\n")
	out.WriteString("\n")

	if u.Flags != nil {
		printTitle(out, "Command Options")

		u.Flags.VisitAll(func(f *flag.Flag) {
			printFlag(out, f)
		})
	}

	if len(u.Env) > 0 {
		printTitle(out, "Environment Variables")

		for _, e := range u.Env {
			printEnv(out, e)
		}
	}

	return strings.TrimRight(out.String(), "\n")
}

// printTitle prints a consistently-formatted title to the given writer.
func printTitle(w io.Writer, s string) {
	_, _ = fmt.Fprintf(w, "%s\n\n", s)
}

// printFlag prints a single flag to the given writer.
func printFlag(w io.Writer, f *flag.Flag) {
	_, _ = fmt.Fprintf(w, "  -%s\n", f.Name)

	indented := wrapAtLength(f.Usage, 5)
	_, _ = fmt.Fprintf(w, "%s\n\n", indented)
}

func printEnv(w io.Writer, e EnvVar) {
	_, _ = fmt.Fprintf(w, "  %s\n", e.Name)
	_, _ = fmt.Fprintf(w, "%s\n\n", wrapAtLength(e.Usage, 5))
}

// wrapAtLength wraps the given text at the maxLineLength, taking into account
// any provided left padding.
func wrapAtLength(s string, pad int) string {
	wrapped := text.Wrap(s, maxLineLength-pad)
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		lines[i] = strings.Repeat(" ", pad) + line
	}
	return strings.Join(lines, "\n")
}
