package main

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pribylovaa/go-taskboard/internal/config"
	logctx "github.com/pribylovaa/go-taskboard/internal/pkg/log"
)

// setupLogger - логгер CLI. Логи не смешиваются с выводом команд:
// при заданном log.file пишем в файл с ротацией, иначе в stderr.
func setupLogger(env string, cfg config.LogConfig, stderr io.Writer) (*slog.Logger, io.Closer) {
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}

		return logctx.New(env, lj), lj
	}

	if stderr == nil {
		stderr = os.Stderr
	}

	return logctx.New(env, stderr), nopCloser{}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
