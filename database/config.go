// Package database connects to the personal data MySQL database using credentials from the environment.
package database

import (
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/hashicorp/go-rootcerts"
	"github.com/joho/godotenv"
	home "github.com/mitchellh/go-homedir"
)

const tlsKeyPrefix = "hcredact-"

const (
	DefaultUsername = "root"
	DefaultHost     = "localhost"
	DefaultPort     = 3306
	DefaultTimeout  = 5 * time.Second

	EnvDBUsername   = "PERSONAL_DATA_DB_USERNAME"
	EnvDBPassword   = "PERSONAL_DATA_DB_PASSWORD"
	EnvDBHost       = "PERSONAL_DATA_DB_HOST"
	EnvDBName       = "PERSONAL_DATA_DB_NAME"
	EnvDBPort       = "PERSONAL_DATA_DB_PORT"
	EnvDBCACert     = "PERSONAL_DATA_DB_CACERT"
	EnvDBCAPath     = "PERSONAL_DATA_DB_CAPATH"
	EnvDBSkipVerify = "PERSONAL_DATA_DB_SKIP_VERIFY"

	// DefaultEnvFile is loaded by LoadEnv when no paths are given. It is optional.
	DefaultEnvFile = ".env"
)

// ErrNoDatabaseName is returned when no database name is configured.
var ErrNoDatabaseName = fmt.Errorf("database name is required; set %s", EnvDBName)

// Config contains the parameters needed to connect to the personal data database.
type Config struct {
	Username string
	Password string
	Host     string
	Port     int
	Name     string

	// CACert is the path to a PEM-encoded CA cert file used to verify the server certificate. When CACert or CAPath
	// is set the connection uses TLS.
	CACert string

	// CAPath is the path to a directory of PEM-encoded CA cert files.
	CAPath string

	// SkipVerify disables server certificate verification. Setting it to true is highly discouraged.
	SkipVerify bool

	Timeout time.Duration
}

// LoadEnv loads .env style files into the process environment. Variables that are already set are not overridden.
// With no paths, DefaultEnvFile is loaded if it exists.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		err := godotenv.Load(DefaultEnvFile)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	expanded := make([]string, 0, len(paths))
	for _, p := range paths {
		e, err := home.Expand(p)
		if err != nil {
			return err
		}
		expanded = append(expanded, e)
	}
	if err := godotenv.Load(expanded...); err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}
	return nil
}

// NewConfigFromEnv builds a Config from the PERSONAL_DATA_DB_* environment variables.
func NewConfigFromEnv() (Config, error) {
	return FromEnv(Config{})
}

// FromEnv overlays the PERSONAL_DATA_DB_* environment variables onto base, fills in defaults for anything still
// unset, and validates the result.
func FromEnv(base Config) (Config, error) {
	cfg := base

	if v, ok := os.LookupEnv(EnvDBUsername); ok {
		cfg.Username = v
	}
	if v, ok := os.LookupEnv(EnvDBPassword); ok {
		cfg.Password = v
	}
	if v := os.Getenv(EnvDBHost); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv(EnvDBName); v != "" {
		cfg.Name = v
	}
	if v := os.Getenv(EnvDBPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvDBPort, v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv(EnvDBCACert); v != "" {
		cfg.CACert = v
	}
	if v := os.Getenv(EnvDBCAPath); v != "" {
		cfg.CAPath = v
	}
	if v := os.Getenv(EnvDBSkipVerify); v != "" {
		skipVerify, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvDBSkipVerify, v, err)
		}
		cfg.SkipVerify = skipVerify
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	if c.Username == "" {
		c.Username = DefaultUsername
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Validate reports whether the Config can be used to connect.
func (c Config) Validate() error {
	if c.Name == "" {
		return ErrNoDatabaseName
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// UseTLS reports whether the connection should be encrypted.
func (c Config) UseTLS() bool {
	return c.CACert != "" || c.CAPath != "" || c.SkipVerify
}

// MySQL converts the Config to a driver configuration.
func (c Config) MySQL() (*mysql.Config, error) {
	c = c.withDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	mc := mysql.NewConfig()
	mc.User = c.Username
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = c.Addr()
	mc.DBName = c.Name
	mc.Timeout = c.Timeout
	mc.ParseTime = true

	if c.UseTLS() {
		tlsConfig, err := c.tlsConfig()
		if err != nil {
			return nil, err
		}
		mc.TLS = tlsConfig
	}
	return mc, nil
}

// DSN returns the go-sql-driver/mysql data source name for the Config. When TLS is enabled the TLS configuration is
// registered with the driver under a key derived from the connection settings, and the DSN refers to it by that key.
func (c Config) DSN() (string, error) {
	mc, err := c.MySQL()
	if err != nil {
		return "", err
	}
	if mc.TLS != nil {
		key := c.tlsKey()
		if err := mysql.RegisterTLSConfig(key, mc.TLS); err != nil {
			return "", fmt.Errorf("registering database TLS config: %w", err)
		}
		mc.TLSConfig = key
	}
	return mc.FormatDSN(), nil
}

// tlsKey identifies the TLS settings of c. Configs with equal settings share a key.
func (c Config) tlsKey() string {
	c = c.withDefaults()
	sum := sha256.Sum256([]byte(strings.Join([]string{
		c.Addr(), c.CACert, c.CAPath, strconv.FormatBool(c.SkipVerify),
	}, "\x00")))
	return tlsKeyPrefix + hex.EncodeToString(sum[:8])
}

func (c Config) tlsConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		ServerName:         c.Host,
		InsecureSkipVerify: c.SkipVerify,
		MinVersion:         tls.VersionTLS12,
	}
	caFile, err := home.Expand(c.CACert)
	if err != nil {
		return nil, err
	}
	caPath, err := home.Expand(c.CAPath)
	if err != nil {
		return nil, err
	}
	err = rootcerts.ConfigureTLS(tlsConfig, &rootcerts.Config{
		CAFile: caFile,
		CAPath: caPath,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring database TLS: %w", err)
	}
	return tlsConfig, nil
}
