package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"abstraktor/internal/logging"
	"abstraktor/internal/source"
	"abstraktor/internal/targets"
)

// DefaultFile is read when present and no config path is given.
const DefaultFile = "abstraktor.yaml"

type Config struct {
	Extensions []string       `yaml:"extensions"`
	Workers    int            `yaml:"workers"`
	Strict     bool           `yaml:"strict"`
	Format     string         `yaml:"format"`
	LogLevel   string         `yaml:"logLevel"`
	CacheSize  int            `yaml:"cacheSize"`
	TargetsEnv string         `yaml:"targetsEnv"`
	Compiler   CompilerConfig `yaml:"compiler"`
	Mallory    MalloryConfig  `yaml:"mallory"`
	Mediator   MediatorConfig `yaml:"mediator"`
}

// CompilerConfig describes how the instrumenting build is started.
type CompilerConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	CC      string   `yaml:"cc"`
	CXX     string   `yaml:"cxx"`
}

type MalloryConfig struct {
	Dir string `yaml:"dir"`
}

type MediatorConfig struct {
	Binary    string `yaml:"binary"`
	Algorithm string `yaml:"algorithm"`
	Table     string `yaml:"table"`
	Reward    string `yaml:"reward"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Extensions: append([]string(nil), source.DefaultExtensions...),
		Workers:    runtime.NumCPU(),
		Format:     string(targets.FormatJSON),
		LogLevel:   string(logging.LevelInfo),
		CacheSize:  targets.DefaultCacheSize,
		TargetsEnv: "TARGETS_FILE",
		Compiler: CompilerConfig{
			Command: "make",
			CC:      "afl-clang-fast",
			CXX:     "afl-clang-fast++",
		},
		Mallory: MalloryConfig{Dir: "mallory/docker"},
		Mediator: MediatorConfig{
			Binary:    "mallory/mediator/target/x86_64-unknown-linux-musl/release/mediator",
			Algorithm: "qlearning",
			Table:     "event_history",
			Reward:    "0.7",
		},
	}
}

// Load builds the configuration: .env, then the YAML file, then
// ABSTRAKTOR_* environment variables. An explicitly named file must exist;
// the default file is optional.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	explicit := path != ""
	if !explicit {
		if env := strings.TrimSpace(os.Getenv("ABSTRAKTOR_CONFIG")); env != "" {
			path, explicit = env, true
		} else {
			path = DefaultFile
		}
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("ABSTRAKTOR_EXTENSIONS")); v != "" {
		c.Extensions = strings.Split(v, ",")
	}
	if v := strings.TrimSpace(os.Getenv("ABSTRAKTOR_WORKERS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ABSTRAKTOR_WORKERS %q: %w", v, err)
		}
		c.Workers = n
	}
	if v := strings.TrimSpace(os.Getenv("ABSTRAKTOR_STRICT")); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ABSTRAKTOR_STRICT %q: %w", v, err)
		}
		c.Strict = strict
	}
	if v := strings.TrimSpace(os.Getenv("ABSTRAKTOR_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("ABSTRAKTOR_COMPILER")); v != "" {
		c.Compiler.Command = v
	}
	if v := strings.TrimSpace(os.Getenv("ABSTRAKTOR_CC")); v != "" {
		c.Compiler.CC = v
	}
	if v := strings.TrimSpace(os.Getenv("ABSTRAKTOR_CXX")); v != "" {
		c.Compiler.CXX = v
	}
	return nil
}

// Validate rejects values no command can run with.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if _, err := targets.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if len(source.NormalizeExtensions(c.Extensions)) == 0 {
		return errors.New("at least one source extension is required")
	}
	if strings.TrimSpace(c.TargetsEnv) == "" {
		return errors.New("targetsEnv must not be empty")
	}
	if strings.TrimSpace(c.Compiler.Command) == "" {
		return errors.New("compiler.command must not be empty")
	}
	return nil
}
