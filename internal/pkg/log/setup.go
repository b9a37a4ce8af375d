package log

import (
	"io"
	"log/slog"
)

// Окружения из config.Config.Env.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// New - логгер для окружения: local пишет текст, dev и prod пишут JSON.
// prod пишет с Info, остальные с Debug. Неизвестное окружение считается local.
func New(env string, w io.Writer) *slog.Logger {
	level := slog.LevelDebug
	if env == EnvProd {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	switch env {
	case EnvDev, EnvProd:
		return slog.New(slog.NewJSONHandler(w, opts))
	default:
		return slog.New(slog.NewTextHandler(w, opts))
	}
}
