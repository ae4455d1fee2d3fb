package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// envPrefix prefixes every environment override, e.g. TEXTMODEL_WORKERS or
// TEXTMODEL_TOKEN_SIZE.
const envPrefix = "TEXTMODEL"

// RunConfig holds the settings of a search run. Values are resolved in
// increasing precedence: defaults, run file, environment, flags.
type RunConfig struct {
	Corpus string `yaml:"corpus" toml:"corpus" validate:"required"`
	Test   string `yaml:"test" toml:"test"`
	Output string `yaml:"output" toml:"output"`
	Store  string `yaml:"store" toml:"store"`

	// Lang is a supported language, "auto" to detect it from the corpus, or
	// empty to skip language transforms.
	Lang string `yaml:"lang" toml:"lang" validate:"omitempty,oneof=auto spanish english french"`

	Samples      int     `yaml:"samples" toml:"samples" validate:"min=1"`
	TokenSize    int     `yaml:"token_size" toml:"token_size" split_words:"true" validate:"min=1"`
	TokenMean    float64 `yaml:"token_mean" toml:"token_mean" split_words:"true" validate:"gte=0"`
	Folds        int     `yaml:"folds" toml:"folds" validate:"min=2"`
	Seed         uint64  `yaml:"seed" toml:"seed"`
	Workers      int     `yaml:"workers" toml:"workers" validate:"min=1"`
	HillClimbing bool    `yaml:"hill_climbing" toml:"hill_climbing" split_words:"true"`
	Top          int     `yaml:"top" toml:"top" validate:"gte=0"`
	LogLevel     string  `yaml:"log_level" toml:"log_level" split_words:"true" validate:"oneof=debug info warn error"`
}

// DefaultRunConfig returns the built-in defaults.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Samples:      32,
		TokenSize:    3,
		Folds:        5,
		Workers:      1,
		HillClimbing: true,
		Top:          10,
		LogLevel:     "info",
	}
}

var validate = validator.New()

// Validate checks the resolved settings.
func (c RunConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid run configuration: %w", err)
	}
	return nil
}

// loadRunFile merges a YAML or TOML run file into cfg. The format follows the
// file extension.
func loadRunFile(path string, cfg *RunConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading run file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return fmt.Errorf("run file %s: unknown format (want .yaml, .yml or .toml)", path)
	}
	return nil
}

// searchFlags binds the search flags. Only flags given on the command line
// override the other sources.
type searchFlags struct {
	fs     *flag.FlagSet
	config string
	values RunConfig
}

func newSearchFlags() *searchFlags {
	f := &searchFlags{fs: flag.NewFlagSet("search", flag.ContinueOnError)}
	d := DefaultRunConfig()
	v := &f.values

	f.fs.StringVarP(&f.config, "config", "c", "", "Run file (.yaml, .yml or .toml)")
	f.fs.StringVar(&v.Corpus, "corpus", d.Corpus, "Training corpus file or glob (JSON lines or TASS XML, optionally .gz)")
	f.fs.StringVar(&v.Test, "test", d.Test, "Test corpus; scores on this split instead of k-fold")
	f.fs.StringVarP(&v.Output, "output", "o", d.Output, "Write the ranked results as JSON to this file")
	f.fs.StringVar(&v.Store, "store", d.Store, "SQLite result store; previously scored configurations are skipped")
	f.fs.StringVar(&v.Lang, "lang", d.Lang, "Language: spanish, english, french or auto")
	f.fs.IntVarP(&v.Samples, "samples", "n", d.Samples, "Number of sampled configurations")
	f.fs.IntVar(&v.TokenSize, "token-size", d.TokenSize, "Token list size of sampled configurations")
	f.fs.Float64Var(&v.TokenMean, "token-mean", d.TokenMean, "Mean token list size; draws sizes from a Gaussian when > 0")
	f.fs.IntVarP(&v.Folds, "folds", "k", d.Folds, "Cross-validation folds")
	f.fs.Uint64Var(&v.Seed, "seed", d.Seed, "Random seed")
	f.fs.IntVarP(&v.Workers, "workers", "w", d.Workers, "Configurations scored concurrently")
	f.fs.BoolVar(&v.HillClimbing, "hill-climbing", d.HillClimbing, "Refine the best configuration by hill climbing")
	f.fs.IntVar(&v.Top, "top", d.Top, "Rows of the printed ranking (0 prints all)")
	f.fs.StringVar(&v.LogLevel, "log-level", d.LogLevel, "Log level: debug, info, warn, error")
	return f
}

// apply copies the flags set on the command line into cfg.
func (f *searchFlags) apply(cfg *RunConfig) {
	v := f.values
	set := func(name string, assign func()) {
		if f.fs.Changed(name) {
			assign()
		}
	}
	set("corpus", func() { cfg.Corpus = v.Corpus })
	set("test", func() { cfg.Test = v.Test })
	set("output", func() { cfg.Output = v.Output })
	set("store", func() { cfg.Store = v.Store })
	set("lang", func() { cfg.Lang = v.Lang })
	set("samples", func() { cfg.Samples = v.Samples })
	set("token-size", func() { cfg.TokenSize = v.TokenSize })
	set("token-mean", func() { cfg.TokenMean = v.TokenMean })
	set("folds", func() { cfg.Folds = v.Folds })
	set("seed", func() { cfg.Seed = v.Seed })
	set("workers", func() { cfg.Workers = v.Workers })
	set("hill-climbing", func() { cfg.HillClimbing = v.HillClimbing })
	set("top", func() { cfg.Top = v.Top })
	set("log-level", func() { cfg.LogLevel = v.LogLevel })
}

// resolve builds the run configuration from every source.
func (f *searchFlags) resolve() (RunConfig, error) {
	cfg := DefaultRunConfig()
	if f.config != "" {
		if err := loadRunFile(f.config, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("reading environment: %w", err)
	}
	f.apply(&cfg)
	return cfg, cfg.Validate()
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
