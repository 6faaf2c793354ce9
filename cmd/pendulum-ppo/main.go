package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"pendulum-ppo/internal/agent"
	"pendulum-ppo/internal/pendulum"
	"pendulum-ppo/internal/training"
)

const defaultSaveFile = "pendulum-ppo.json"

func main() {
	train := flag.Bool("train", true, "train until the target score is reached")
	play := flag.Bool("play", false, "render episodes with the saved agent instead of training")
	clean := flag.Bool("clean", false, "delete the saved agent and exit")
	flag.Parse()

	logger := newLogger()
	savePath := getenv("SAVE_FILE", defaultSaveFile)

	if *clean {
		if err := os.Remove(savePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Fatal().Err(err).Msg("could not delete the saved agent")
		}
		logger.Info().Str("path", savePath).Msg("saved agent deleted")
		return
	}

	cfg := agent.DefaultConfig()
	cfg.LearningRate = getenvFloat("LEARNING_RATE", cfg.LearningRate)
	cfg.BatchSize = getenvInt("BATCH_SIZE", cfg.BatchSize)
	cfg.Epochs = getenvInt("EPOCHS", cfg.Epochs)

	seed := getenvUint64("SEED", uint64(time.Now().UnixNano()))
	rng := rand.New(rand.NewSource(seed))

	env := pendulum.NewEnv(rng)
	ppo, err := agent.New(cfg, pendulum.ObservationSize, pendulum.ActionBounds(), rng, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not create the agent")
	}

	switch err := ppo.Load(savePath); {
	case err == nil:
		logger.Info().Str("path", savePath).Str("run_id", ppo.RunID()).Msg("agent loaded")
	case errors.Is(err, fs.ErrNotExist):
		logger.Info().Str("path", savePath).Str("run_id", ppo.RunID()).Msg("agent created")
	default:
		logger.Warn().Err(err).Str("path", savePath).Msg("could not load the saved agent, starting fresh")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *play:
		player := &training.Player{
			Env:       env,
			Agent:     ppo,
			StepDelay: 20 * time.Millisecond,
			Log:       logger,
		}
		if err := player.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal().Err(err).Msg("play failed")
		}
	case *train:
		loop := &training.Loop{
			Env:          env,
			Agent:        ppo,
			SavePath:     savePath,
			SuccessScore: getenvFloat("SUCCESS_SCORE", training.DefaultSuccessScore),
			SaveEvery:    getenvInt("SAVE_EVERY", training.DefaultSaveEvery),
			Log:          logger,
		}
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal().Err(err).Msg("training failed")
		}
	default:
		logger.Info().Msg("nothing to do")
	}
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvUint64(key string, fallback uint64) uint64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
