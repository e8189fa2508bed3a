package redact

import (
	"regexp"
	"strings"
)

var _ matcher = &FieldRedactor{}

// FieldRedactor replaces the values of named fields in text shaped like `field=value<sep>field=value<sep>`.
//
// All field names are combined into a single alternation and quoted, so names are always matched literally. A
// field only matches as a whole key: it must sit at the start of the text or follow a non-word character or the
// separator, so `my_password=` is not the `password` field. Its value runs from just after the `=` up to, but not
// including, the next separator or the end of text; line breaks are part of the value. The zero value redacts
// nothing.
type FieldRedactor struct {
	keys      *regexp.Regexp
	names     map[string]struct{}
	redaction string
	separator string
}

// NewFieldRedactor compiles fields into a FieldRedactor. Empty and duplicate field names are ignored. An empty
// separator means a value extends to the end of the text.
func NewFieldRedactor(fields []string, redaction, separator string) *FieldRedactor {
	fr := &FieldRedactor{
		redaction: redaction,
		separator: separator,
	}

	alternatives, names := quoteFields(fields)
	if len(alternatives) == 0 {
		return fr
	}
	fr.names = names

	boundary := `^|\W`
	if separator != "" {
		boundary += "|" + regexp.QuoteMeta(separator)
	}
	// Every piece is quoted above, so this cannot fail to compile.
	fr.keys = regexp.MustCompile(`(?:` + boundary + `)(` + strings.Join(alternatives, "|") + `)=`)
	return fr
}

// FilterDatum returns message with the value of every listed field replaced by redaction. Values are bounded by
// the next separator or the end of the message. A field name only matches as a whole key, at the start of the
// message or after a non-word character or the separator: with fields ["password"], `my_password=x;` is kept.
// Fields that are not listed are left untouched.
func FilterDatum(fields []string, redaction, message, separator string) string {
	return NewFieldRedactor(fields, redaction, separator).Redact(message)
}

// Redact applies the redactor to message using its configured redaction token.
func (fr *FieldRedactor) Redact(message string) string {
	if fr == nil {
		return message
	}
	return fr.replace(message, fr.redaction)
}

// ReplaceAll lets a FieldRedactor back a Redact; repl is used as the redaction token.
func (fr *FieldRedactor) ReplaceAll(src, repl []byte) []byte {
	if fr == nil || fr.keys == nil {
		return src
	}
	return []byte(fr.replace(string(src), string(repl)))
}

func (fr *FieldRedactor) replace(message, redaction string) string {
	if fr.keys == nil || message == "" {
		return message
	}
	locs := fr.keys.FindAllStringSubmatchIndex(message, -1)
	if len(locs) == 0 {
		return message
	}

	var b strings.Builder
	b.Grow(len(message))
	cursor := 0
	for _, loc := range locs {
		// loc[2] is where the field name starts. Anything before the cursor sits inside a value that has already
		// been replaced.
		if loc[2] < cursor {
			continue
		}
		start := loc[1]
		b.WriteString(message[cursor:start])
		b.WriteString(redaction)
		cursor = fr.valueEnd(message, start)
	}
	b.WriteString(message[cursor:])
	return b.String()
}

// valueEnd returns the index one past the last byte of the value starting at start.
func (fr *FieldRedactor) valueEnd(message string, start int) int {
	rest := message[start:]
	end := len(rest)
	if fr.separator != "" {
		if i := strings.Index(rest, fr.separator); i >= 0 {
			end = i
		}
	}
	return start + end
}

// HasField reports whether name is one of the fields the redactor matches.
func (fr *FieldRedactor) HasField(name string) bool {
	if fr == nil {
		return false
	}
	_, ok := fr.names[name]
	return ok
}

func quoteFields(fields []string) ([]string, map[string]struct{}) {
	seen := make(map[string]struct{}, len(fields))
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		quoted = append(quoted, regexp.QuoteMeta(f))
	}
	return quoted, seen
}
