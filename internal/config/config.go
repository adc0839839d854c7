package config

import (
	"math"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/woozymasta/efidecompress"
)

const (
	EnvVarPrefix = "EFIDECOMPRESS"

	DefaultLogLevel     = "info"
	DefaultVariant      = "efi"
	DefaultCacheEntries = 256

	MinConcurrency  = 0 // 0 = one worker per CPU
	MaxConcurrency  = 1024
	MinCacheEntries = -1 // batch only; -1 = caching disabled, 0 = default
	MaxCacheEntries = 1_000_000

	MaxOriginalSize = math.MaxUint32 // 0 = unlimited
)

// VERSION gets set during build
var VERSION = "0.0.0"

type Config struct {
	CLI  *CLI
	TOML *TOML
}

type TOML struct {
	Config *TOMLConfig `toml:"config"`
}

type TOMLConfig struct {
	LogLevel     string `toml:"log_level"`
	Variant      string `toml:"variant"`
	Concurrency  int    `toml:"concurrency"`
	CacheEntries int    `toml:"cache_entries"`

	// Largest output a single header may declare
	MaxOriginalSize int64 `toml:"max_original_size"`
}

type CLI struct {
	ConfigFile string `kong:"help='Path to an optional TOML config file',type='path',short='c'"`
	Variant    string `kong:"help='Stream variant: efi or tiano (overrides config)',short='V'"`

	Debug   bool             `kong:"help='Enable debug output',short='d'"`
	Quiet   bool             `kong:"help='Only log errors',short='q'"`
	Version kong.VersionFlag `help:"Show version and exit" short:"v" env:"-"`

	Info       InfoCmd       `kong:"cmd,help='Print header sizes of compressed files'"`
	Decompress DecompressCmd `kong:"cmd,help='Decompress one file'"`
	Batch      BatchCmd      `kong:"cmd,help='Decompress many files in parallel'"`

	// Internal bits
	Ctx *kong.Context `kong:"-"`
}

type InfoCmd struct {
	Files []string `kong:"arg,help='Compressed files',type='existingfile'"`
}

type DecompressCmd struct {
	File   string `kong:"arg,help='Compressed file',type='existingfile'"`
	Output string `kong:"help='Output file (default: input with .bin suffix)',short='o',type='path'"`
}

type BatchCmd struct {
	Files  []string `kong:"arg,help='Compressed files',type='existingfile'"`
	OutDir string   `kong:"help='Directory for decompressed files',short='O',type='path',default='.'"`
}

// NewConfig parses args (without the program name), loads .env and the optional
// TOML file, applies defaults and validates the result.
func NewConfig(args []string) (*Config, error) {
	// Attempt to load .env
	_ = godotenv.Load(".env")

	cli, err := readCLIArgs(args)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing CLI args")
	}

	tomlConfig := &TOML{}
	if cli.ConfigFile != "" {
		tomlConfig, err = readTOML(cli.ConfigFile)
		if err != nil {
			return nil, errors.Wrap(err, "error reading config file")
		}
	}

	if err := setTOMLDefaults(tomlConfig); err != nil {
		return nil, errors.Wrap(err, "error setting TOML defaults")
	}

	// CLI flags win over the file
	if cli.Variant != "" {
		tomlConfig.Config.Variant = cli.Variant
	}
	if cli.Debug {
		tomlConfig.Config.LogLevel = "debug"
	} else if cli.Quiet {
		tomlConfig.Config.LogLevel = "error"
	}

	cfg := &Config{
		CLI:  cli,
		TOML: tomlConfig,
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "error validating config")
	}

	return cfg, nil
}

// Options converts the config into decoder options logging through log.
func (c *Config) Options(log logrus.FieldLogger) *efidecompress.Options {
	variant, _ := efidecompress.ParseVariant(c.TOML.Config.Variant)

	opts := &efidecompress.Options{
		Variant:         variant,
		Concurrency:     c.TOML.Config.Concurrency,
		MaxOriginalSize: uint32(c.TOML.Config.MaxOriginalSize), // #nosec G115 -- validated range
	}
	if c.TOML.Config.LogLevel == "debug" {
		opts.Logger = log
	}

	return opts
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.TOML.Config.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}

	return level
}

func setTOMLDefaults(t *TOML) error {
	if t == nil {
		return errors.New("toml config cannot be nil")
	}

	if t.Config == nil {
		t.Config = &TOMLConfig{}
	}

	if t.Config.CacheEntries == 0 {
		t.Config.CacheEntries = DefaultCacheEntries
	}

	if t.Config.LogLevel == "" {
		t.Config.LogLevel = DefaultLogLevel
	}

	if t.Config.Variant == "" {
		t.Config.Variant = DefaultVariant
	}

	return nil
}

func Validate(c *Config) error {
	if c == nil {
		return errors.New("config cannot be nil")
	}

	if err := validateCLIArgs(c.CLI); err != nil {
		return errors.Wrap(err, "error validating CLI args")
	}

	if err := validateTOML(c.TOML); err != nil {
		return errors.Wrap(err, "error validating toml config")
	}

	return nil
}

func validateTOML(t *TOML) error {
	if t == nil {
		return errors.New("toml config cannot be nil")
	}

	if err := validateTOMLConfig(t.Config); err != nil {
		return errors.Wrap(err, "config error(s)")
	}

	return nil
}

func validateTOMLConfig(c *TOMLConfig) error {
	if c == nil {
		return errors.New("config cannot be empty")
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Errorf("config.log_level %q is invalid", c.LogLevel)
	}

	if _, ok := efidecompress.ParseVariant(c.Variant); !ok {
		return errors.Errorf("config.variant %q is invalid", c.Variant)
	}

	if c.Concurrency < MinConcurrency || c.Concurrency > MaxConcurrency {
		return errors.Errorf("config.concurrency must be between %d and %d", MinConcurrency, MaxConcurrency)
	}

	if c.CacheEntries < MinCacheEntries || c.CacheEntries > MaxCacheEntries {
		return errors.Errorf("config.cache_entries must be between %d and %d", MinCacheEntries, MaxCacheEntries)
	}

	if c.MaxOriginalSize < 0 || c.MaxOriginalSize > MaxOriginalSize {
		return errors.Errorf("config.max_original_size must be between 0 and %d", int64(MaxOriginalSize))
	}

	return nil
}

func readCLIArgs(args []string) (*CLI, error) {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("efidecompress"),
		kong.Description("Decompress UEFI/Tiano compressed sections"),
		kong.UsageOnError(),
		kong.DefaultEnvars(EnvVarPrefix),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{
			"version": VERSION,
		})
	if err != nil {
		return nil, errors.Wrap(err, "error building CLI parser")
	}

	cli.Ctx, err = parser.Parse(args)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing args")
	}

	if err := validateCLIArgs(cli); err != nil {
		return nil, errors.Wrap(err, "error validating args")
	}

	return cli, nil
}

func readTOML(file string) (*TOML, error) {
	// Attempt to load file
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "error reading file")
	}

	tomlConfig := &TOML{}

	if err := toml.Unmarshal(data, tomlConfig); err != nil {
		return nil, errors.Wrap(err, "error parsing TOML config")
	}

	return tomlConfig, nil
}

func validateCLIArgs(cli *CLI) error {
	if cli == nil {
		return errors.New("config cannot be nil")
	}

	if cli.Debug && cli.Quiet {
		return errors.New("--debug and --quiet are mutually exclusive")
	}

	return nil
}
