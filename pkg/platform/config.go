// Package platform wires the credential store, connector registry and MCP
// server together and manages their lifecycle.
package platform

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/txn2/dbmesh/pkg/credentials"
	"github.com/txn2/dbmesh/pkg/registry"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Duplicate registration policies.
const (
	DuplicateWarn   = "warn"
	DuplicateIgnore = "ignore"
)

// Config holds the complete server configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Connectors  ConnectorsConfig  `yaml:"connectors"`
}

// ServerConfig configures the MCP server and its transport.
type ServerConfig struct {
	Name        string `yaml:"name"`
	Transport   string `yaml:"transport"` // "stdio", "http"
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Path        string `yaml:"path"` // streamable HTTP endpoint
	Debug       bool   `yaml:"debug"`
	LogLevel    string `yaml:"log_level"`
	OnDuplicate string `yaml:"on_duplicate"` // "warn", "ignore"

	// ClientLogging sends a log notification to the client after each tool
	// call. Clients only receive it after logging/setLevel.
	ClientLogging bool `yaml:"client_logging"`
}

// CredentialsConfig locates the credential file.
type CredentialsConfig struct {
	Path string `yaml:"path"`
}

// ConnectorsConfig selects the connectors to activate.
type ConnectorsConfig struct {
	Enabled []string `yaml:"enabled"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig loads configuration from a file.
// The path is expected to come from command line arguments, controlled by the administrator.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by admin
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "dbmesh"
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = TransportHTTP
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.Path == "" {
		cfg.Server.Path = "/mcp"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "INFO"
	}
	if cfg.Server.OnDuplicate == "" {
		cfg.Server.OnDuplicate = DuplicateWarn
	}
	if cfg.Credentials.Path == "" {
		cfg.Credentials.Path = credentials.DefaultPath
	}
	if len(cfg.Connectors.Enabled) == 0 {
		cfg.Connectors.Enabled = append([]string(nil), registry.DefaultEnabled...)
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		errs = append(errs, fmt.Sprintf("server.transport %q must be %s or %s", c.Server.Transport, TransportStdio, TransportHTTP))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		errs = append(errs, fmt.Sprintf("server.path %q must start with /", c.Server.Path))
	}
	if _, err := ParseLogLevel(c.Server.LogLevel); err != nil {
		errs = append(errs, err.Error())
	}
	switch c.Server.OnDuplicate {
	case DuplicateWarn, DuplicateIgnore:
	default:
		errs = append(errs, fmt.Sprintf("server.on_duplicate %q must be %s or %s", c.Server.OnDuplicate, DuplicateWarn, DuplicateIgnore))
	}
	if len(c.Connectors.Enabled) == 0 {
		errs = append(errs, "connectors.enabled must name at least one connector")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Address returns host:port for the HTTP transport.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Level returns the effective log level. Debug forces slog.LevelDebug.
func (c *Config) Level() slog.Level {
	if c.Server.Debug {
		return slog.LevelDebug
	}
	level, err := ParseLogLevel(c.Server.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLogLevel maps DEBUG, INFO, WARNING (or WARN), ERROR and CRITICAL to
// slog levels. Matching is case-insensitive.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR", "CRITICAL":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("server.log_level %q is not one of DEBUG, INFO, WARNING, ERROR, CRITICAL", s)
	}
}
