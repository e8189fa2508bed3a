// Package logging formats log records and redacts personal data from them before they are emitted.
package logging

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/hcredact/redact"
)

const (
	// Redaction replaces the value of every sensitive field.
	Redaction = "***"

	// Separator delimits field=value pairs within a message.
	Separator = ";"

	// Prefix starts every formatted line.
	Prefix = "[HCREDACT]"

	// TimeFormat is the layout used for record timestamps.
	TimeFormat = "2006-01-02 15:04:05,000"
)

// Record is a single log entry prior to formatting.
type Record struct {
	Name    string
	Level   hclog.Level
	Time    time.Time
	Message string
}

// RedactingFormatter renders records with a fixed template and redacts the values of a fixed set of fields.
type RedactingFormatter struct {
	fields   []string
	redactor *redact.FieldRedactor
}

// NewRedactingFormatter returns a formatter that redacts fields. The slice is copied.
func NewRedactingFormatter(fields []string) *RedactingFormatter {
	fs := make([]string, len(fields))
	copy(fs, fields)
	return &RedactingFormatter{
		fields:   fs,
		redactor: redact.NewFieldRedactor(fs, Redaction, Separator),
	}
}

// Fields returns a copy of the fields the formatter redacts.
func (f *RedactingFormatter) Fields() []string {
	fs := make([]string, len(f.fields))
	copy(fs, f.fields)
	return fs
}

// Format renders r as "[HCREDACT] <name> <LEVEL> <time>: <message>" with every configured field redacted.
func (f *RedactingFormatter) Format(r Record) string {
	line := fmt.Sprintf("%s %s %s %s: %s",
		Prefix,
		r.Name,
		levelName(r.Level),
		r.Time.Format(TimeFormat),
		r.Message,
	)
	return f.redactor.Redact(line)
}

func levelName(l hclog.Level) string {
	return strings.ToUpper(l.String())
}
