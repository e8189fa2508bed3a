package redact

import (
	"encoding/json"
)

var _ json.Marshaler = RedactedString{}

// RedactedString holds an input and the redactions to apply to it. Redaction is deferred until the value is
// rendered, so the raw input never leaves through String or MarshalJSON.
type RedactedString struct {
	inputString string
	redactions  []*Redact
}

func NewRedactedString(input string, redactions []*Redact) RedactedString {
	return RedactedString{
		inputString: input,
		redactions:  redactions,
	}
}

func (r RedactedString) String() string {
	red, err := String(r.inputString, r.redactions)
	if err != nil {
		// Returning nothing is safer than returning the unredacted input.
		return ""
	}
	return red
}

func (r RedactedString) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}
