// Package config loads engine and simulator settings from a YAML file with
// LORCANA_ environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LORCANA_RULES_WIN_LORE.
const EnvPrefix = "LORCANA"

// Config is the full configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Rules     RulesConfig     `mapstructure:"rules"`
	Replay    ReplayConfig    `mapstructure:"replay"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
}

// LoggingConfig selects the zap level and encoding.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
}

// RulesConfig holds the game options a table may change.
type RulesConfig struct {
	WinLore           int  `mapstructure:"win_lore"`
	StartingHandSize  int  `mapstructure:"starting_hand_size"`
	MaxTriggerCascade int  `mapstructure:"max_trigger_cascade"`
	SkipFirstDraw     bool `mapstructure:"skip_first_draw"`
	InkEntersExerted  bool `mapstructure:"ink_enters_exerted"`
}

// ReplayConfig controls replay recording.
type ReplayConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

// SimulatorConfig drives bot-vs-bot games.
type SimulatorConfig struct {
	Seed     uint64        `mapstructure:"seed"`
	Games    int           `mapstructure:"games"`
	MaxTurns int           `mapstructure:"max_turns"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CardFile string        `mapstructure:"card_file"`
	DeckFile string        `mapstructure:"deck_file"`
	Decks    []string      `mapstructure:"decks"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("rules.win_lore", 20)
	v.SetDefault("rules.starting_hand_size", 7)
	v.SetDefault("rules.max_trigger_cascade", 100)
	v.SetDefault("rules.skip_first_draw", true)
	v.SetDefault("rules.ink_enters_exerted", false)

	v.SetDefault("replay.enabled", false)
	v.SetDefault("replay.directory", "replays")

	v.SetDefault("simulator.seed", 1)
	v.SetDefault("simulator.games", 1)
	v.SetDefault("simulator.max_turns", 60)
	v.SetDefault("simulator.timeout", "30s")
	v.SetDefault("simulator.card_file", "config/cards.yaml")
	v.SetDefault("simulator.deck_file", "config/decks.yaml")
	v.SetDefault("simulator.decks", []string{"amber-steel", "ruby-sapphire"})
}

// Load reads the configuration at path. An empty path uses defaults and
// environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hooks); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	if c.Rules.WinLore <= 0 {
		errs = append(errs, errors.New("rules.win_lore must be positive"))
	}
	if c.Rules.StartingHandSize < 0 {
		errs = append(errs, errors.New("rules.starting_hand_size can't be negative"))
	}
	if c.Rules.MaxTriggerCascade <= 0 {
		errs = append(errs, errors.New("rules.max_trigger_cascade must be positive"))
	}
	if c.Replay.Enabled && c.Replay.Directory == "" {
		errs = append(errs, errors.New("replay.directory is required when replays are enabled"))
	}
	if c.Simulator.MaxTurns <= 0 {
		errs = append(errs, errors.New("simulator.max_turns must be positive"))
	}
	if len(c.Simulator.Decks) < 2 {
		errs = append(errs, errors.New("simulator.decks needs a deck per player"))
	}
	return errors.Join(errs...)
}
