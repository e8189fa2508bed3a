package redact

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

const DefaultReplace = "<REDACTED>"

// matcher is the part of a Redact that knows how to rewrite its input.
type matcher interface {
	ReplaceAll(src, repl []byte) []byte
}

type Redact struct {
	ID      string `json:"ID"`
	matcher matcher
	Replace string `json:"replace"`
}

// Config holds the options used to build a Redact. Matcher is required; ID and Replace are optional.
type Config struct {
	Matcher string
	ID      string
	Replace string
}

// New takes a Config and returns a compiled and ready-to-use regex redaction. When ID is empty it is generated from
// the matcher; when Replace is empty DefaultReplace is used.
func New(cfg Config) (*Redact, error) {
	if cfg.Matcher == "" {
		return nil, errors.New("redact: matcher must not be empty")
	}
	r, err := regexp.Compile(cfg.Matcher)
	if err != nil {
		return nil, fmt.Errorf("redact: could not compile matcher %q: %w", cfg.Matcher, err)
	}
	id, replace := defaults(cfg.ID, cfg.Replace, cfg.Matcher)
	return &Redact{ID: id, matcher: r, Replace: replace}, nil
}

// NewLiteral builds a Redact that replaces every occurrence of s verbatim.
func NewLiteral(s, id, replace string) (*Redact, error) {
	if s == "" {
		return nil, errors.New("redact: literal must not be empty")
	}
	return New(Config{Matcher: regexp.QuoteMeta(s), ID: id, Replace: replace})
}

// NewFields builds a Redact that replaces the values of the given fields. See FilterDatum for the matching rules.
func NewFields(fields []string, id, replace, separator string) (*Redact, error) {
	if len(fields) == 0 {
		return nil, errors.New("redact: at least one field is required")
	}
	if replace == "" {
		replace = DefaultReplace
	}
	fr := NewFieldRedactor(fields, replace, separator)
	id, _ = defaults(id, replace, strings.Join(fields, separator))
	return &Redact{ID: id, matcher: fr, Replace: replace}, nil
}

func defaults(id, replace, seed string) (string, string) {
	if id == "" {
		genID := md5.Sum([]byte(seed))
		id = fmt.Sprint(genID)
	}
	if replace == "" {
		replace = DefaultReplace
	}
	return id, replace
}

// Bytes applies a single redaction to bts.
func (x Redact) Bytes(bts []byte) []byte {
	if x.matcher == nil || len(bts) == 0 {
		return bts
	}
	return x.matcher.ReplaceAll(bts, []byte(x.Replace))
}

func (x Redact) Apply(w io.Writer, r io.Reader) error {
	bts, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	_, err = w.Write(x.Bytes(bts))
	return err
}

// ApplyMany takes a slice of redactions and a writer + reader, reading everything in and applying redactions in
// sequential order before writing. Therefore, each Redact that appears earlier in the list takes precedence over later
// Redacts. It is possible for redactions to collide with one another if a matcher can match with the Replace string
// of an earlier Redact.
func ApplyMany(redactions []*Redact, w io.Writer, r io.Reader) error {
	bts, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	_, err = w.Write(applyAll(redactions, bts))
	return err
}

func applyAll(redactions []*Redact, bts []byte) []byte {
	if len(bts) == 0 {
		return bts
	}
	for _, redact := range redactions {
		if redact == nil {
			continue
		}
		bts = redact.Bytes(bts)
	}
	return bts
}

// String takes a string result and a slice of redactions, and wraps it with a reader and writer to apply the
// redactions, returning a string back.
func String(result string, redactions []*Redact) (string, error) {
	r := strings.NewReader(result)
	buf := new(bytes.Buffer)
	err := ApplyMany(redactions, buf, r)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// File takes src, dest paths and a slice of redactions. It applies redactions line by line, reading from the source
// and writing to the destination, which is created or truncated. Returns nil on success, otherwise an error.
func File(src, dest string, redactions []*Redact) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	destFile, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if err := Lines(destFile, srcFile, redactions); err != nil {
		return fmt.Errorf("redacting %s: %w", src, err)
	}
	return destFile.Sync()
}

// Lines reads r line by line, applies redactions to each line and writes it to w. Redactions never see the line
// ending, which is written back unchanged, so CRLF input stays CRLF and a missing final newline is not added.
func Lines(w io.Writer, r io.Reader, redactions []*Redact) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			if _, werr := bw.Write(redactLine(redactions, line)); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// redactLine applies redactions to line without its trailing "\n" or "\r\n" and then restores the ending.
func redactLine(redactions []*Redact, line []byte) []byte {
	body := bytes.TrimSuffix(line, []byte("\n"))
	body = bytes.TrimSuffix(body, []byte("\r"))
	eol := line[len(body):]

	redacted := applyAll(redactions, body[:len(body):len(body)])
	out := make([]byte, 0, len(redacted)+len(eol))
	out = append(out, redacted...)
	return append(out, eol...)
}

// Flatten combines any number of redaction slices into one, preserving order and skipping nil or empty slices.
func Flatten(redactions ...[]*Redact) []*Redact {
	flat := make([]*Redact, 0)
	for _, r := range redactions {
		flat = append(flat, r...)
	}
	return flat
}

// JSON walks a decoded JSON value (maps, slices, strings and scalars) and applies redactions to every string it
// contains. Map keys are left as they are, but the value of a member whose key is a field of a field redaction is
// replaced as a whole by that redaction's Replace, whatever its type.
func JSON(in any, redactions []*Redact) (any, error) {
	switch v := in.(type) {
	case string:
		return String(v, redactions)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			if r := fieldRedaction(k, redactions); r != nil {
				out[k] = r.Replace
				continue
			}
			r, err := JSON(val, redactions)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			r, err := JSON(val, redactions)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

// fieldRedaction returns the first field redaction that matches key, or nil.
func fieldRedaction(key string, redactions []*Redact) *Redact {
	for _, r := range redactions {
		if r == nil {
			continue
		}
		if fr, ok := r.matcher.(*FieldRedactor); ok && fr.HasField(key) {
			return r
		}
	}
	return nil
}

// JSONLines reads r line by line like Lines. A line holding a JSON value is decoded, redacted with JSON and
// re-encoded compactly; object members come out sorted by key. Any other line is redacted as text.
func JSONLines(w io.Writer, r io.Reader, redactions []*Redact) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			out, jerr := jsonLine(line, redactions)
			if jerr != nil {
				out = redactLine(redactions, line)
			}
			if _, werr := bw.Write(out); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

func jsonLine(line []byte, redactions []*Redact) ([]byte, error) {
	body := bytes.TrimRight(line, "\r\n")
	eol := line[len(body):]
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("redact: blank line")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("redact: trailing data after JSON value")
	}

	redacted, err := JSON(v, redactions)
	if err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(redacted); err != nil {
		return nil, err
	}
	return append(bytes.TrimSuffix(buf.Bytes(), []byte("\n")), eol...), nil
}
