package main

import (
	"flag"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rag-nar1/Sketches/internal/config"
	"github.com/rag-nar1/Sketches/internal/scenario"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	logLevel := flag.String("log-level", "", "log level, overrides config and LOG_LEVEL")
	flag.Parse()

	// a missing .env is fine, real environment variables still apply
	envErr := godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err == nil {
		cfg, err = cfg.ApplyEnv()
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log := newLogger(cfg.LogLevel)
	defer log.Sync()

	if envErr != nil {
		log.Debug("no .env file loaded", zap.Error(envErr))
	}
	if err != nil {
		log.Error("loading config", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}

	log.Info("running",
		zap.Int("numberOfBuckets", cfg.NumberOfBuckets),
		zap.Int("numberOfBucketsPerElement", cfg.NumberOfBucketsPerElement))
	report, err := scenario.Run(cfg, log)
	if err != nil {
		log.Error("scenario failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	log.Info("done",
		zap.Int("selfScore", report.SelfScore),
		zap.Int("diffScore", report.DiffScore),
		zap.Bool("peelComplete", report.PeelComplete))
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	log, err := zc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
