package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every PERSONAL_DATA_DB_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvDBUsername, EnvDBPassword, EnvDBHost, EnvDBName, EnvDBPort, EnvDBCACert, EnvDBCAPath, EnvDBSkipVerify,
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestNewConfigFromEnv(t *testing.T) {
	testCases := []struct {
		name      string
		env       map[string]string
		expected  Config
		expectErr bool
	}{
		{
			name: "defaults",
			env: map[string]string{
				EnvDBName: "my_db",
			},
			expected: Config{
				Username: DefaultUsername,
				Host:     DefaultHost,
				Port:     DefaultPort,
				Name:     "my_db",
				Timeout:  DefaultTimeout,
			},
		},
		{
			name: "all values set",
			env: map[string]string{
				EnvDBUsername:   "holberton",
				EnvDBPassword:   "secret",
				EnvDBHost:       "db.example.com",
				EnvDBName:       "my_db",
				EnvDBPort:       "3307",
				EnvDBCACert:     "/etc/ca.pem",
				EnvDBCAPath:     "/etc/certs",
				EnvDBSkipVerify: "true",
			},
			expected: Config{
				Username:   "holberton",
				Password:   "secret",
				Host:       "db.example.com",
				Port:       3307,
				Name:       "my_db",
				CACert:     "/etc/ca.pem",
				CAPath:     "/etc/certs",
				SkipVerify: true,
				Timeout:    DefaultTimeout,
			},
		},
		{
			name:      "missing name",
			env:       map[string]string{EnvDBUsername: "root"},
			expectErr: true,
		},
		{
			name:      "invalid port",
			env:       map[string]string{EnvDBName: "my_db", EnvDBPort: "abc"},
			expectErr: true,
		},
		{
			name:      "out of range port",
			env:       map[string]string{EnvDBName: "my_db", EnvDBPort: "70000"},
			expectErr: true,
		},
		{
			name:      "invalid skip verify",
			env:       map[string]string{EnvDBName: "my_db", EnvDBSkipVerify: "maybe"},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := NewConfigFromEnv()
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, cfg)
		})
	}
}

func TestNewConfigFromEnv_MissingName(t *testing.T) {
	clearEnv(t)
	_, err := NewConfigFromEnv()
	assert.ErrorIs(t, err, ErrNoDatabaseName)
}

func TestFromEnv_EnvOverridesBase(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDBHost, "env-host")
	t.Setenv(EnvDBPassword, "")

	base := Config{
		Username: "base-user",
		Password: "base-password",
		Host:     "base-host",
		Name:     "base_db",
		Timeout:  time.Second,
	}
	cfg, err := FromEnv(base)
	require.NoError(t, err)
	assert.Equal(t, "base-user", cfg.Username)
	// An explicitly empty password in the environment wins over the base.
	assert.Equal(t, "", cfg.Password)
	assert.Equal(t, "env-host", cfg.Host)
	assert.Equal(t, "base_db", cfg.Name)
	assert.Equal(t, time.Second, cfg.Timeout)
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, "db.env")
	content := "PERSONAL_DATA_DB_NAME=from_file\nPERSONAL_DATA_DB_HOST=file-host\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	// Values already in the environment are kept.
	t.Setenv(EnvDBHost, "env-host")

	require.NoError(t, LoadEnv(envFile))
	assert.Equal(t, "from_file", os.Getenv(EnvDBName))
	assert.Equal(t, "env-host", os.Getenv(EnvDBHost))

	assert.Error(t, LoadEnv(filepath.Join(dir, "missing.env")))
}

func TestLoadEnv_DefaultFileOptional(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	assert.NoError(t, LoadEnv())
}

func TestConfig_MySQL(t *testing.T) {
	cfg := Config{
		Username: "root",
		Password: "pw",
		Host:     "localhost",
		Name:     "my_db",
	}
	mc, err := cfg.MySQL()
	require.NoError(t, err)
	assert.Equal(t, "root", mc.User)
	assert.Equal(t, "pw", mc.Passwd)
	assert.Equal(t, "tcp", mc.Net)
	assert.Equal(t, "localhost:3306", mc.Addr)
	assert.Equal(t, "my_db", mc.DBName)
	assert.Equal(t, DefaultTimeout, mc.Timeout)
	assert.Nil(t, mc.TLS)
	assert.True(t, mc.ParseTime)
	assert.Contains(t, mc.FormatDSN(), "root:pw@tcp(localhost:3306)/my_db?")

	_, err = Config{}.MySQL()
	assert.ErrorIs(t, err, ErrNoDatabaseName)
}

func TestConfig_MySQL_TLS(t *testing.T) {
	cfg := Config{
		Host:       "db.example.com",
		Name:       "my_db",
		SkipVerify: true,
	}
	require.True(t, cfg.UseTLS())
	mc, err := cfg.MySQL()
	require.NoError(t, err)
	require.NotNil(t, mc.TLS)
	assert.True(t, mc.TLS.InsecureSkipVerify)
	assert.Equal(t, "db.example.com", mc.TLS.ServerName)

	cfg = Config{Name: "my_db", CACert: filepath.Join(t.TempDir(), "missing.pem")}
	_, err = cfg.MySQL()
	assert.Error(t, err)
}

func TestConfig_DSN(t *testing.T) {
	dsn, err := Config{Username: "root", Password: "pw", Name: "my_db"}.DSN()
	require.NoError(t, err)
	assert.Contains(t, dsn, "root:pw@tcp(localhost:3306)/my_db?")
	assert.NotContains(t, dsn, "tls=")

	cfg := Config{Host: "db.example.com", Name: "my_db", SkipVerify: true}
	dsn, err = cfg.DSN()
	require.NoError(t, err)
	assert.Contains(t, dsn, "tls="+cfg.tlsKey())

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	require.NotNil(t, parsed.TLS)
	assert.True(t, parsed.TLS.InsecureSkipVerify)
	assert.Equal(t, "db.example.com", parsed.TLS.ServerName)
	assert.True(t, parsed.ParseTime)

	again, err := cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, dsn, again)

	other := Config{Host: "other.example.com", Name: "my_db", SkipVerify: true}
	assert.NotEqual(t, cfg.tlsKey(), other.tlsKey())

	_, err = Config{}.DSN()
	assert.ErrorIs(t, err, ErrNoDatabaseName)
}

func TestConfig_Addr(t *testing.T) {
	assert.Equal(t, "[::1]:3306", Config{Host: "::1", Port: 3306}.Addr())
}
