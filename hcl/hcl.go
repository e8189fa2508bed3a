package hcl

import (
	"fmt"
	"regexp"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
	home "github.com/mitchellh/go-homedir"

	"github.com/hashicorp/hcredact/database"
	"github.com/hashicorp/hcredact/logging"
	"github.com/hashicorp/hcredact/redact"
)

// Valid redact block labels.
const (
	RedactRegex   = "regex"
	RedactLiteral = "literal"
	RedactFields  = "fields"
)

type HCL struct {
	Logger     *Logger   `hcl:"logger,block" json:"logger"`
	Database   *Database `hcl:"database,block" json:"database"`
	Redactions []Redact  `hcl:"redact,block" json:"redactions"`
}

// Logger configures the user data logger.
type Logger struct {
	Name   string   `hcl:"name,optional"`
	Fields []string `hcl:"fields,optional"`
}

// Database holds connection defaults. PERSONAL_DATA_DB_* environment variables take precedence.
type Database struct {
	Username   string `hcl:"username,optional"`
	Host       string `hcl:"host,optional"`
	Port       int    `hcl:"port,optional"`
	Name       string `hcl:"name,optional"`
	CACert     string `hcl:"ca_cert,optional"`
	CAPath     string `hcl:"ca_path,optional"`
	SkipVerify bool   `hcl:"skip_verify,optional"`
}

type Redact struct {
	Label     string   `hcl:"name,label"`
	ID        string   `hcl:"id,optional"`
	Match     string   `hcl:"match,optional"`
	Fields    []string `hcl:"fields,optional"`
	Separator string   `hcl:"separator,optional"`
	Replace   string   `hcl:"replace,optional"`
}

// Parse takes a file path and decodes the file from disk into HCL types. A leading ~ is expanded to the user's home
// directory.
func Parse(path string) (HCL, error) {
	var h HCL
	expanded, err := home.Expand(path)
	if err != nil {
		return HCL{}, err
	}
	err = hclsimple.DecodeFile(expanded, nil, &h)
	if err != nil {
		return HCL{}, err
	}
	if err := ValidateRedactions(h.Redactions); err != nil {
		return HCL{}, err
	}
	return h, nil
}

// LoggerName returns the configured logger name, or the default user data logger name.
func (h HCL) LoggerName() string {
	if h.Logger != nil && h.Logger.Name != "" {
		return h.Logger.Name
	}
	return logging.UserDataLoggerName
}

// LoggerFields returns the configured sensitive fields, or logging.PIIFields when none are set.
func (h HCL) LoggerFields() []string {
	if h.Logger != nil && len(h.Logger.Fields) > 0 {
		return h.Logger.Fields
	}
	return logging.PIIFields
}

// DatabaseConfig maps the database block to a database.Config. Credentials other than the username are never read
// from HCL.
func (h HCL) DatabaseConfig() database.Config {
	if h.Database == nil {
		return database.Config{}
	}
	d := h.Database
	return database.Config{
		Username:   d.Username,
		Host:       d.Host,
		Port:       d.Port,
		Name:       d.Name,
		CACert:     d.CACert,
		CAPath:     d.CAPath,
		SkipVerify: d.SkipVerify,
	}
}

// MapRedacts maps HCL redactions to "real" `redact.Redact`s
func MapRedacts(redactions []Redact) ([]*redact.Redact, error) {
	err := ValidateRedactions(redactions)
	if err != nil {
		return nil, err
	}

	s := make([]*redact.Redact, len(redactions))
	for i, r := range redactions {
		var red *redact.Redact
		switch r.Label {
		case RedactRegex:
			red, err = redact.New(redact.Config{
				Matcher: r.Match,
				ID:      r.ID,
				Replace: r.Replace,
			})
		case RedactLiteral:
			red, err = redact.NewLiteral(r.Match, r.ID, r.Replace)
		case RedactFields:
			sep := r.Separator
			if sep == "" {
				sep = logging.Separator
			}
			replace := r.Replace
			if replace == "" {
				replace = logging.Redaction
			}
			red, err = redact.NewFields(r.Fields, r.ID, replace, sep)
		}
		if err != nil {
			return nil, err
		}
		s[i] = red
	}
	return s, nil
}

// ValidateRedactions takes a slice of redactions and ensures they match valid names. Every invalid block is
// reported, not just the first.
func ValidateRedactions(redactions []Redact) error {
	hclog.L().Trace("hcl.ValidateRedactions()", "redactions", redactions)
	var errs *multierror.Error
	for _, r := range redactions {
		switch r.Label {
		case RedactRegex:
			if r.Match == "" {
				errs = multierror.Append(errs, fmt.Errorf("regex redact requires match, id=%s", r.ID))
				continue
			}
			_, err := regexp.Compile(r.Match)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("could not compile regex, matcher=%s, err=%s", r.Match, err))
			}
		case RedactLiteral:
			if r.Match == "" {
				errs = multierror.Append(errs, fmt.Errorf("literal redact requires match, id=%s", r.ID))
			}
		case RedactFields:
			if len(r.Fields) == 0 {
				errs = multierror.Append(errs, fmt.Errorf("fields redact requires at least one field, id=%s", r.ID))
			}
		default:
			errs = multierror.Append(errs, fmt.Errorf("invalid redact name, name=%s", r.Label))
		}
	}
	return errs.ErrorOrNil()
}
