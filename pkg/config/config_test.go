package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultService, cfg.Service)
	assert.True(t, cfg.Validation.Enabled)
	assert.True(t, cfg.Validation.ValidateRequest)
	assert.True(t, cfg.Validation.ValidateResponse)
	assert.True(t, cfg.Auth.Required)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 1000, cfg.Journal.MaxEntries)
	assert.NotEmpty(t, cfg.BaseDir)
}

func TestLoadFromBytes(t *testing.T) {
	t.Setenv("CM_TEST_SERVICE", "Ewyrys API")

	cfg, err := LoadFromBytes([]byte(`
service: ${CM_TEST_SERVICE}
port: ${CM_TEST_PORT:-9100}
contract:
  file: contract/ewyrys.yaml
validation:
  validateResponse: false
  levels:
    validation.request.parameter.query.unknown: WARN
fixturesDir: fixtures
stubs:
  - file: stubs/create.yaml
  - files: "stubs/**/*.yaml"
log:
  level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, "Ewyrys API", cfg.Service)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "contract/ewyrys.yaml", cfg.Contract.File)
	assert.True(t, cfg.Validation.Enabled, "unset fields keep their defaults")
	assert.True(t, cfg.Validation.ValidateRequest)
	assert.False(t, cfg.Validation.ValidateResponse)
	assert.Equal(t, "WARN", cfg.Validation.Levels["validation.request.parameter.query.unknown"])
	assert.True(t, cfg.Auth.Required)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	require.Len(t, cfg.Stubs, 2)
	assert.True(t, cfg.Stubs[0].IsFileRef())
	assert.True(t, cfg.Stubs[1].IsGlob())
	require.NoError(t, cfg.Validate())
}

func TestLoadFromBytes_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown field", "servce: typo\n"},
		{"wrong type", "port: eighty\n"},
		{"malformed", "port: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.data))
			assert.Error(t, err)
		})
	}

	cfg, err := LoadFromBytes(nil)
	require.NoError(t, err, "an empty file yields the defaults")
	assert.Equal(t, DefaultPort, cfg.Port)
}

func TestLoad_ResolvesRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "contractmock.yaml", `
service: Ewyrys API
contract:
  file: contract/ewyrys.yaml
fixturesDir: fixtures
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.BaseDir)
	assert.Equal(t, filepath.Join(dir, "contract", "ewyrys.yaml"), cfg.ContractSource().File)
	assert.Equal(t, filepath.Join(dir, "fixtures"), cfg.FixturesPath())

	cfg.FixturesDir = ""
	assert.Equal(t, dir, cfg.FixturesPath())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "CM_DOTENV_SERVICE=From Dotenv\nCM_DOTENV_PORT=9200\n")
	path := writeFile(t, dir, "contractmock.yaml", "service: ${CM_DOTENV_SERVICE}\nport: ${CM_DOTENV_PORT}\n")

	t.Setenv("CM_DOTENV_PORT", "9300")
	t.Cleanup(func() { _ = os.Unsetenv("CM_DOTENV_SERVICE") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "From Dotenv", cfg.Service)
	assert.Equal(t, 9300, cfg.Port, "existing variables win over .env")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	t.Run("env var", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "custom.yaml", "port: 1\n")
		t.Setenv(EnvConfig, path)
		got, err := Discover()
		require.NoError(t, err)
		assert.Equal(t, path, got)
	})

	t.Run("env var points nowhere", func(t *testing.T) {
		t.Setenv(EnvConfig, filepath.Join(t.TempDir(), "missing.yaml"))
		_, err := Discover()
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoConfig)
	})

	t.Run("working directory", func(t *testing.T) {
		t.Setenv(EnvConfig, "")
		dir := t.TempDir()
		writeFile(t, dir, "contractmock.yml", "port: 1\n")
		t.Chdir(dir)

		got, err := Discover()
		require.NoError(t, err)
		assert.Equal(t, "contractmock.yml", filepath.Base(got))
	})

	t.Run("nothing found", func(t *testing.T) {
		t.Setenv(EnvConfig, "")
		t.Chdir(t.TempDir())
		_, err := Discover()
		assert.ErrorIs(t, err, ErrNoConfig)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Contract.File = "contract.yaml"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"random port", func(c *Config) { c.Port = 0 }, ""},
		{"no contract without validation", func(c *Config) { c.Contract.File = ""; c.Validation.Enabled = false }, ""},
		{"empty service", func(c *Config) { c.Service = " " }, "service must not be empty"},
		{"port out of range", func(c *Config) { c.Port = 70000 }, "port must be between 0 and 65535"},
		{"missing contract", func(c *Config) { c.Contract.File = "" }, "contract is required"},
		{"two contract sources", func(c *Config) { c.Contract.URL = "http://x" }, "only one of file, url or spec"},
		{"stub source both", func(c *Config) { c.Stubs = []StubSource{{File: "a", Files: "b"}} }, "stubs[0]: cannot specify both"},
		{"stub source empty", func(c *Config) { c.Stubs = []StubSource{{}} }, "stubs[0]: file or files is required"},
		{"negative journal", func(c *Config) { c.Journal.MaxEntries = -1 }, "journal.maxEntries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvPort, "9001")
	t.Setenv(EnvContract, "https://contracts.example.test/ewyrys.yaml")
	t.Setenv(EnvService, "OsApi")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFormat, "json")

	cfg := Default()
	require.NoError(t, ApplyEnv(cfg))
	assert.Equal(t, 9001, cfg.Port)
	assert.Equal(t, "https://contracts.example.test/ewyrys.yaml", cfg.Contract.URL)
	assert.Empty(t, cfg.Contract.File)
	assert.Equal(t, "OsApi", cfg.Service)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	t.Setenv(EnvPort, "not-a-port")
	assert.Error(t, ApplyEnv(Default()))
}

func TestContractSourceFor(t *testing.T) {
	assert.Equal(t, "http://x/api.yaml", ContractSourceFor("http://x/api.yaml").URL)

	src := ContractSourceFor("contract.yaml")
	assert.Empty(t, src.URL)
	assert.True(t, filepath.IsAbs(src.File))
	assert.Equal(t, "contract.yaml", filepath.Base(src.File))
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CM_SET", "value")
	tests := []struct {
		in, want string
	}{
		{"${CM_SET}", "value"},
		{"${CM_UNSET_VAR}", ""},
		{"${CM_UNSET_VAR:-fallback}", "fallback"},
		{"${CM_SET:-fallback}", "value"},
		{"prefix-${CM_SET}-suffix", "prefix-value-suffix"},
		{"$CM_SET", "$CM_SET"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandEnvVars(tt.in), tt.in)
	}
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "/abs/file.yaml", ResolvePath("/base", "/abs/file.yaml"))
	assert.Equal(t, filepath.Join("/base", "rel", "file.yaml"), ResolvePath("/base", "rel/file.yaml"))
	home, err := os.UserHomeDir()
	if err == nil {
		assert.Equal(t, filepath.Join(home, "x.yaml"), ResolvePath("/base", "~/x.yaml"))
	}
}
