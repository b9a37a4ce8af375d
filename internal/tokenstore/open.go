package tokenstore

import (
	"context"
	"fmt"

	"github.com/pribylovaa/go-taskboard/internal/config"
)

// Kinds - допустимые значения store.kind.
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindRedis  = "redis"
)

// Open собирает хранилище по конфигурации. Непустая passphrase
// оборачивает его в Encrypted. Возвращаемый close освобождает ресурсы
// бэкенда и безопасен для вызова у memory/file.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, func() error, error) {
	const op = "tokenstore.Open"

	var (
		st      Store
		closeFn = func() error { return nil }
	)

	switch cfg.Kind {
	case KindMemory:
		st = NewMemory()
	case KindFile, "":
		st = NewFile(cfg.Path)
	case KindSQLite:
		s, err := NewSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		st, closeFn = s, s.Close
	case KindRedis:
		r, err := NewRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		st, closeFn = r, r.Close
	default:
		return nil, nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownKind, cfg.Kind)
	}

	if cfg.Passphrase != "" {
		enc, err := NewEncrypted(st, cfg.Passphrase)
		if err != nil {
			_ = closeFn()
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		st = enc
	}

	return st, closeFn, nil
}
