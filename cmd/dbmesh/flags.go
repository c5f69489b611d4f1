package main

import (
	"github.com/peterbourgon/ff/v4"

	"github.com/txn2/dbmesh/pkg/platform"
	"github.com/txn2/dbmesh/pkg/registry"
)

// envPrefix maps flags to environment variables, e.g. --log-level to
// DBMESH_LOG_LEVEL.
const envPrefix = "DBMESH"

// cliFlags holds the command line. Flags that were set, on the command line
// or through the environment, override the configuration file.
type cliFlags struct {
	fs *ff.FlagSet

	configPath      *string
	name            *string
	transport       *string
	host            *string
	port            *int
	path            *string
	credentials     *string
	connectors      *string
	logLevel        *string
	debug           *bool
	quietDuplicates *bool
	clientLogging   *bool
	version         *bool
}

func newFlags() *cliFlags {
	fs := ff.NewFlagSet("dbmesh")
	return &cliFlags{
		fs:              fs,
		configPath:      fs.String('c', "config", "", "Path to configuration file (optional)"),
		name:            fs.StringLong("name", "", "Server name advertised to clients"),
		transport:       fs.String('t', "transport", "", "Transport type: stdio, http"),
		host:            fs.StringLong("host", "", "HTTP listen host"),
		port:            fs.Int('p', "port", 0, "HTTP listen port"),
		path:            fs.StringLong("path", "", "HTTP endpoint path"),
		credentials:     fs.StringLong("credentials", "", "Path to the credential file"),
		connectors:      fs.StringLong("connectors", "", "Comma-separated list of connectors to enable"),
		logLevel:        fs.StringLong("log-level", "", "Log level: DEBUG, INFO, WARNING, ERROR, CRITICAL"),
		debug:           fs.BoolLong("debug", "Enable debug logging"),
		quietDuplicates: fs.BoolLong("quiet-duplicates", "Do not warn when a registration replaces an earlier one"),
		clientLogging:   fs.BoolLong("client-logging", "Send a log notification to the client after each tool call"),
		version:         fs.BoolLong("version", "Print version information and exit"),
	}
}

// parse reads args and DBMESH_* environment variables.
func (f *cliFlags) parse(args []string) error {
	return ff.Parse(f.fs, args, ff.WithEnvVarPrefix(envPrefix))
}

func (f *cliFlags) isSet(name string) bool {
	fl, ok := f.fs.GetFlag(name)
	return ok && fl.IsSet()
}

// resolveConfig loads the configuration file, if any, and applies the flags
// that were set on top of it.
func (f *cliFlags) resolveConfig() (*platform.Config, error) {
	cfg := platform.DefaultConfig()
	if *f.configPath != "" {
		loaded, err := platform.LoadConfig(*f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	f.applyOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *cliFlags) applyOverrides(cfg *platform.Config) {
	if f.isSet("name") {
		cfg.Server.Name = *f.name
	}
	if f.isSet("transport") {
		cfg.Server.Transport = *f.transport
	}
	if f.isSet("host") {
		cfg.Server.Host = *f.host
	}
	if f.isSet("port") {
		cfg.Server.Port = *f.port
	}
	if f.isSet("path") {
		cfg.Server.Path = *f.path
	}
	if f.isSet("credentials") {
		cfg.Credentials.Path = *f.credentials
	}
	if f.isSet("connectors") {
		cfg.Connectors.Enabled = registry.ParseEnabled(*f.connectors)
	}
	if f.isSet("log-level") {
		cfg.Server.LogLevel = *f.logLevel
	}
	if *f.debug {
		cfg.Server.Debug = true
	}
	if *f.quietDuplicates {
		cfg.Server.OnDuplicate = platform.DuplicateIgnore
	}
	if *f.clientLogging {
		cfg.Server.ClientLogging = true
	}
}
