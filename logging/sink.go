package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// missingValueKey mirrors the key hclog uses when an odd number of args is logged.
const missingValueKey = "EXTRA_VALUE_AT_END"

var _ hclog.SinkAdapter = &Sink{}

// Sink is an hclog.SinkAdapter that writes every accepted entry through a RedactingFormatter, one line per entry.
type Sink struct {
	mu        sync.Mutex
	out       io.Writer
	formatter *RedactingFormatter
	level     hclog.Level

	// now is swapped out in tests.
	now func() time.Time
}

// NewSink returns a Sink that writes entries at level or above to out.
func NewSink(out io.Writer, formatter *RedactingFormatter, level hclog.Level) *Sink {
	return &Sink{
		out:       out,
		formatter: formatter,
		level:     level,
		now:       time.Now,
	}
}

// Accept formats and writes a single entry. Key/value args are appended to the message as key=value pairs, each
// followed by Separator, so they are subject to the same redaction as the message itself.
func (s *Sink) Accept(name string, level hclog.Level, msg string, args ...interface{}) {
	if level == hclog.Off || level < s.level {
		return
	}

	r := Record{
		Name:    name,
		Level:   level,
		Time:    s.now(),
		Message: joinArgs(msg, args),
	}
	line := s.formatter.Format(r) + "\n"

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.out, line)
}

func joinArgs(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	if len(args)%2 != 0 {
		args = append(args[:len(args):len(args)], nil)
		args[len(args)-2], args[len(args)-1] = missingValueKey, args[len(args)-2]
	}

	var b strings.Builder
	b.WriteString(msg)
	if msg != "" {
		b.WriteString(" ")
	}
	for i := 0; i < len(args); i += 2 {
		fmt.Fprintf(&b, "%s=%s%s", formatArg(args[i]), formatArg(args[i+1]), Separator)
	}
	return b.String()
}

func formatArg(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case hclog.Format:
		if len(v) == 0 {
			return ""
		}
		if f, ok := v[0].(string); ok {
			return fmt.Sprintf(f, v[1:]...)
		}
		return fmt.Sprint(v...)
	case error:
		return v.Error()
	default:
		return fmt.Sprint(v)
	}
}
