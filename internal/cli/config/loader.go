package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/veetance/artifice/pkg/core"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// EnvPrefix is the prefix of environment overrides.
// A double underscore separates nesting levels: ARTIFICE_UI__PORT -> ui.port.
const EnvPrefix = "ARTIFICE_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// flagKeys maps flag names whose config key is not the snake_case of the flag.
var flagKeys = map[string]string{
	"state": "state_path",
	"index": "index_file",
}

// pathFlags are resolved against the working directory when set on the command line.
var pathFlags = []string{"bank-dir", "index", "state"}

var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

func configCandidates(dir string) []string {
	return []string{
		filepath.Join(dir, DefaultConfigName),
		filepath.Join(dir, "artifice.yml"),
	}
}

// findProjectRootUpward searches upward from startDir for an artifice config file.
func findProjectRootUpward(startDir string) (string, string) {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		for _, candidate := range configCandidates(dir) {
			if _, err := os.Stat(candidate); err == nil {
				return dir, candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

func defaults() map[string]interface{} {
	palette := core.DefaultPalette()
	return map[string]interface{}{
		"bank_dir":         DefaultBankDir,
		"state_path":       DefaultStateFile,
		"verbose":          false,
		"output":           DefaultOutput,
		"brand.hue":        palette.Hue,
		"brand.saturation": palette.Saturation,
		"brand.brightness": palette.Brightness,
		"fetch.timeout":    DefaultTimeout.String(),
		"fetch.max_bytes":  DefaultMaxBytes,
		"ui.port":          DefaultPort,
		"ui.auto_open":     true,
		"ui.watch":         true,
	}
}

// envKey maps ARTIFICE_FETCH__MAX_BYTES to fetch.max_bytes.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	// Flag paths are relative to the working directory, everything else to the project root
	flagPaths := make(map[string]string)
	if flags != nil {
		for _, name := range pathFlags {
			f := flags.Lookup(name)
			if f == nil || !f.Changed || f.Value.String() == "" {
				continue
			}
			if abs, err := filepath.Abs(f.Value.String()); err == nil {
				flagPaths[name] = abs
			}
		}
	}

	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	projectRoot := cwd
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	} else if root, found := findProjectRootUpward(cwd); found != "" {
		projectRoot, cfgFile = root, found
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only those explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[f.Name]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectRoot = projectRoot
	cfg.BankDir = pickPath(flagPaths["bank-dir"], cfg.BankDir, projectRoot)
	cfg.IndexFile = pickPath(flagPaths["index"], cfg.IndexFile, projectRoot)
	cfg.StatePath = pickPath(flagPaths["state"], cfg.StatePath, projectRoot)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	currentConfig = &cfg
	return &cfg, nil
}

func pickPath(fromFlag, value, root string) string {
	if fromFlag != "" {
		return fromFlag
	}
	return resolvePathRelativeTo(value, root)
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// NewLogger builds the CLI logger: text to w, debug level when verbose.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
