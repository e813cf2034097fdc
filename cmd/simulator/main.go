package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/inkwell-labs/lorcana-engine/internal/config"
	"github.com/inkwell-labs/lorcana-engine/internal/game"
	"github.com/inkwell-labs/lorcana-engine/internal/game/catalog"
	"github.com/inkwell-labs/lorcana-engine/internal/sim"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	games      = flag.Int("games", 0, "number of games to play (overrides simulator.games)")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting simulator",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	cat := catalog.New()
	if err := cat.LoadFile(cfg.Simulator.CardFile); err != nil {
		return fmt.Errorf("failed to load cards: %w", err)
	}
	decks, err := catalog.ParseDeckFile(cfg.Simulator.DeckFile, cat)
	if err != nil {
		return fmt.Errorf("failed to load decks: %w", err)
	}
	logger.Info("card pool loaded",
		zap.Int("cards", cat.Len()),
		zap.Int("decks", len(decks)),
	)

	players := make([]game.PlayerSetup, len(cfg.Simulator.Decks))
	for i, name := range cfg.Simulator.Decks {
		deck, ok := decks[name]
		if !ok {
			return fmt.Errorf("unknown deck %q", name)
		}
		players[i] = game.PlayerSetup{ID: fmt.Sprintf("p%d-%s", i+1, name), Deck: deck}
	}

	engine := game.NewEngine(logger, cat)
	if cfg.Replay.Enabled {
		engine.SetRecorder(game.NewReplayRecorder(logger, cfg.Replay.Directory))
		logger.Info("replay recording enabled", zap.String("directory", cfg.Replay.Directory))
	}
	runner := sim.NewRunner(logger, engine, cfg.Simulator.Seed, cfg.Simulator.MaxTurns)

	count := cfg.Simulator.Games
	if *games > 0 {
		count = *games
	}
	wins := make(map[string]int)
	timeouts := 0
	for i := 0; i < count; i++ {
		opts := gameOptions(cfg.Rules)
		opts.Seed = cfg.Simulator.Seed + uint64(i)

		gameCtx, cancel := context.WithTimeout(ctx, cfg.Simulator.Timeout)
		result, err := runner.Play(gameCtx, fmt.Sprintf("sim-%04d", i+1), players, opts)
		cancel()
		if err != nil {
			return err
		}
		if result.TimedOut {
			timeouts++
			continue
		}
		wins[result.Winner]++
	}

	fields := []zap.Field{zap.Int("games", count), zap.Int("turn_limit_reached", timeouts)}
	for _, p := range players {
		fields = append(fields, zap.Int("wins_"+p.ID, wins[p.ID]))
	}
	logger.Info("simulation complete", fields...)
	return nil
}

func gameOptions(rules config.RulesConfig) game.Options {
	opts := game.DefaultOptions()
	opts.WinLore = rules.WinLore
	opts.StartingHand = rules.StartingHandSize
	opts.MaxTriggerCascade = rules.MaxTriggerCascade
	opts.SkipFirstDraw = rules.SkipFirstDraw
	opts.InkEntersExerted = rules.InkEntersExerted
	return opts
}

func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
