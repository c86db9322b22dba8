package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/contractmock/pkg/validation"
)

// DefaultPort is the listener port when none is configured.
const DefaultPort = 8000

// DefaultService is the service name used in diagnostics when none is configured.
const DefaultService = "contractmock"

// DiscoveryOrder lists the file names searched in the working directory.
var DiscoveryOrder = []string{
	"contractmock.yaml",
	"contractmock.yml",
	".contractmock.yaml",
	".contractmock.yml",
}

// ErrNoConfig is returned by Discover when no configuration file exists.
var ErrNoConfig = errors.New("no config found")

// Config is the complete server configuration.
type Config struct {
	Service     string                      `json:"service" yaml:"service"`
	Port        int                         `json:"port" yaml:"port"`
	Contract    validation.ContractSource   `json:"contract" yaml:"contract"`
	Validation  validation.ValidationConfig `json:"validation" yaml:"validation"`
	Auth        AuthConfig                  `json:"auth" yaml:"auth"`
	FixturesDir string                      `json:"fixturesDir,omitempty" yaml:"fixturesDir,omitempty"`
	Stubs       []StubSource                `json:"stubs,omitempty" yaml:"stubs,omitempty"`
	Log         LogConfig                   `json:"log" yaml:"log"`
	Metrics     MetricsConfig               `json:"metrics" yaml:"metrics"`
	Journal     JournalConfig               `json:"journal" yaml:"journal"`

	// Path is the file the configuration was loaded from, "" for defaults.
	Path string `json:"-" yaml:"-"`
	// BaseDir resolves relative paths. It is the directory of Path, or the
	// working directory.
	BaseDir string `json:"-" yaml:"-"`
}

// AuthConfig configures the bearer token gate.
type AuthConfig struct {
	Required bool `json:"required" yaml:"required"`
}

// LogConfig configures operational logging.
type LogConfig struct {
	Level     string `json:"level" yaml:"level"`
	Format    string `json:"format" yaml:"format"`
	AddSource bool   `json:"addSource,omitempty" yaml:"addSource,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// JournalConfig configures the in-memory request journal.
type JournalConfig struct {
	MaxEntries int `json:"maxEntries" yaml:"maxEntries"`
}

// StubSource names stub files: either one file or a glob pattern.
// Only one of File or Files should be set.
type StubSource struct {
	// File reference (loads stubs from a single file)
	File string `json:"file,omitempty" yaml:"file,omitempty"`

	// Files glob pattern (loads stubs from multiple files, ** supported)
	Files string `json:"files,omitempty" yaml:"files,omitempty"`
}

// IsFileRef returns true if this is a single file reference.
func (s StubSource) IsFileRef() bool {
	return s.File != ""
}

// IsGlob returns true if this is a glob pattern for multiple files.
func (s StubSource) IsGlob() bool {
	return s.Files != ""
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &Config{
		Service:    DefaultService,
		Port:       DefaultPort,
		Validation: *validation.DefaultValidationConfig(),
		Auth:       AuthConfig{Required: true},
		Log:        LogConfig{Level: "info", Format: "text"},
		Metrics:    MetricsConfig{Enabled: true},
		Journal:    JournalConfig{MaxEntries: 1000},
		BaseDir:    cwd,
	}
}

// Load reads the configuration at path. A .env file in the same directory
// is loaded first. Environment overrides are not applied; see ApplyEnv.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	if err := LoadDotEnv(filepath.Join(filepath.Dir(abs), ".env")); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = abs
	cfg.BaseDir = filepath.Dir(abs)
	return cfg, nil
}

// LoadFromBytes parses a configuration on top of Default, applying
// environment variable substitution. Unknown fields are rejected.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := Default()

	expanded := ExpandEnvVars(string(data))
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Discover finds a configuration file via CONTRACTMOCK_CONFIG or in the
// working directory. It returns ErrNoConfig when there is none.
func Discover() (string, error) {
	if envPath := os.Getenv(EnvConfig); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%s points to non-existent file: %s", EnvConfig, envPath)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}

	for _, name := range DiscoveryOrder {
		path := filepath.Join(cwd, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrNoConfig
}

// Validate checks the configuration for errors that would prevent startup.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Service) == "" {
		errs = append(errs, errors.New("service must not be empty"))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 0 and 65535, got %d", c.Port))
	}
	if c.Validation.Enabled && c.Contract.IsZero() {
		errs = append(errs, errors.New("contract is required when validation is enabled"))
	}
	n := 0
	for _, set := range []string{c.Contract.File, c.Contract.URL, c.Contract.Spec} {
		if set != "" {
			n++
		}
	}
	if n > 1 {
		errs = append(errs, errors.New("contract: only one of file, url or spec may be set"))
	}
	for i, s := range c.Stubs {
		switch {
		case s.IsFileRef() && s.IsGlob():
			errs = append(errs, fmt.Errorf("stubs[%d]: cannot specify both file and files", i))
		case !s.IsFileRef() && !s.IsGlob():
			errs = append(errs, fmt.Errorf("stubs[%d]: file or files is required", i))
		}
	}
	if c.Journal.MaxEntries < 0 {
		errs = append(errs, fmt.Errorf("journal.maxEntries must not be negative, got %d", c.Journal.MaxEntries))
	}

	return errors.Join(errs...)
}

// ContractSource returns the contract source with relative file paths
// resolved against BaseDir.
func (c *Config) ContractSource() validation.ContractSource {
	src := c.Contract
	if src.File != "" {
		src.File = ResolvePath(c.BaseDir, src.File)
	}
	return src
}

// ContractSourceFor interprets a contract location given on the command line
// or in the environment. http:// and https:// locations are URLs; anything
// else is a file path relative to the working directory.
func ContractSourceFor(loc string) validation.ContractSource {
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		return validation.ContractSource{URL: loc}
	}
	if abs, err := filepath.Abs(loc); err == nil {
		loc = abs
	}
	return validation.ContractSource{File: loc}
}

// FixturesPath returns the fixtures directory resolved against BaseDir.
func (c *Config) FixturesPath() string {
	if c.FixturesDir == "" {
		return c.BaseDir
	}
	return ResolvePath(c.BaseDir, c.FixturesDir)
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars expands environment variables in the input string.
// Supports ${VAR_NAME} and ${VAR_NAME:-default} syntax.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}

		varName := submatch[1]
		defaultVal := ""
		if len(submatch) >= 3 {
			defaultVal = submatch[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}

// ResolvePath resolves a potentially relative path against a base directory.
func ResolvePath(basePath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	// Handle ~ expansion
	if strings.HasPrefix(targetPath, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, targetPath[2:])
		}
	}
	return filepath.Join(basePath, targetPath)
}
