package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veetance/artifice/pkg/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "verbose: false\n")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	root := filepath.Dir(cfgPath)
	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(root, DefaultBankDir), cfg.BankDir)
	assert.Equal(t, filepath.Join(root, DefaultStateFile), cfg.StatePath)
	assert.Empty(t, cfg.IndexFile)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, core.DefaultPalette(), cfg.Brand)
	assert.Equal(t, DefaultPort, cfg.GetUIConfig().Port)
	assert.True(t, cfg.GetUIConfig().Watch)
	assert.Equal(t, DefaultTimeout, cfg.GetFetchConfig().Timeout)
	assert.Equal(t, int64(DefaultMaxBytes), cfg.GetFetchConfig().MaxBytes)
	assert.Equal(t, core.DefaultBaseline(), cfg.GetBaseline())
	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_FileValues(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, `bank_dir: sketches
index_file: sketches/index.yaml
hero: terrain.js
state_path: /var/lib/artifice/state.db
brand:
  hue: 120
baseline:
  hue: 10
  radius: 40
fetch:
  timeout: 3s
  max_bytes: 1024
ui:
  port: 9000
  watch: false
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	root := filepath.Dir(cfgPath)
	assert.Equal(t, filepath.Join(root, "sketches"), cfg.BankDir)
	assert.Equal(t, filepath.Join(root, "sketches", "index.yaml"), cfg.IndexFile)
	assert.Equal(t, "terrain.js", cfg.Hero, "hero is a bank reference, not a path")
	assert.Equal(t, "/var/lib/artifice/state.db", cfg.StatePath)
	assert.Equal(t, float64(120), cfg.Brand.Hue)
	assert.Equal(t, float64(core.BrandSaturation), cfg.Brand.Saturation, "unset brand keys keep defaults")
	assert.Equal(t, core.ParameterMap{"hue": 10, "radius": 40}, cfg.GetBaseline())
	assert.Equal(t, 3*time.Second, cfg.GetFetchConfig().Timeout)
	assert.Equal(t, int64(1024), cfg.GetFetchConfig().MaxBytes)
	assert.Equal(t, 9000, cfg.GetUIConfig().Port)
	assert.False(t, cfg.GetUIConfig().Watch)
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "output: text\n")
	t.Setenv("ARTIFICE_OUTPUT", "yaml")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "", "output format")
	require.NoError(t, flags.Set("output", "json"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat, "flag value should override config file and env var")
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "output: text\nui:\n  port: 9000\n")
	t.Setenv("ARTIFICE_OUTPUT", "yaml")
	t.Setenv("ARTIFICE_UI__PORT", "9100")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "yaml", cfg.OutputFormat)
	assert.Equal(t, 9100, cfg.GetUIConfig().Port, "double underscore addresses nested keys")
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "output: text\n")
	t.Setenv("ARTIFICE_OUTPUT", "yaml")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "", "output format")

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "yaml", cfg.OutputFormat, "env var should be used when flag is not set")
}

func TestLoadConfig_PathFlagsResolveAgainstWorkingDir(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "bank_dir: from_file\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("bank-dir", "", "")
	flags.String("state", "", "")
	require.NoError(t, flags.Set("bank-dir", "from_flag"))
	require.NoError(t, flags.Set("state", "db/state.db"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	wantBank, _ := filepath.Abs("from_flag")
	wantState, _ := filepath.Abs("db/state.db")
	assert.Equal(t, wantBank, cfg.BankDir)
	assert.Equal(t, wantState, cfg.StatePath, "--state maps to state_path")
}

func TestLoadConfig_Invalid(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "output: xml\nbrand:\n  hue: 400\n")

	_, err := LoadConfig(cfgPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output must be one of")
	assert.Contains(t, err.Error(), "brand.hue")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestFindProjectRootUpward(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, DefaultConfigName)
	require.NoError(t, os.WriteFile(cfgPath, []byte("{}"), 0600))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0750))

	dir, found := findProjectRootUpward(nested)
	assert.Equal(t, root, dir)
	assert.Equal(t, cfgPath, found)

	dir, found = findProjectRootUpward(t.TempDir())
	assert.Empty(t, dir)
	assert.Empty(t, found)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "valid", cfg: Config{BankDir: "bank", Brand: core.DefaultPalette()}},
		{name: "missing bank", cfg: Config{Brand: core.DefaultPalette()}, wantErr: "bank_dir is required"},
		{name: "bad saturation", cfg: Config{BankDir: "b", Brand: core.Palette{Saturation: 101}}, wantErr: "brand.saturation"},
		{name: "bad port", cfg: Config{BankDir: "b", UI: &UIConfig{Port: 70000}}, wantErr: "ui.port"},
		{name: "negative max bytes", cfg: Config{BankDir: "b", Fetch: &FetchConfig{MaxBytes: -1}}, wantErr: "fetch.max_bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateDirectories(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, (&Config{BankDir: dir}).ValidateDirectories())

	err := (&Config{BankDir: filepath.Join(dir, "missing")}).ValidateDirectories()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bank directory does not exist")

	file := filepath.Join(dir, "f.js")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))
	assert.Error(t, (&Config{BankDir: file}).ValidateDirectories())
}

func TestGetLogger_FallsBackToDiscard(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := NewLogger(os.Stderr, true)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
