// log переносит *slog.Logger через context.Context. Мидлвары бэкенда кладут
// логгер с request_id, CLI кладёт логгер с именем команды.
package log

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into кладёт логгер в контекст. nil не меняет контекст.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	if l == nil {
		return ctx
	}

	return context.WithValue(ctx, ctxKey{}, l)
}

// From - логгер из контекста или slog.Default().
func From(ctx context.Context) *slog.Logger {
	return FromOr(ctx, nil)
}

// FromOr - логгер из контекста; без него fallback, при nil fallback slog.Default().
func FromOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}

	if fallback != nil {
		return fallback
	}

	return slog.Default()
}

// With добавляет атрибуты к логгеру из контекста и кладёт результат обратно.
func With(ctx context.Context, args ...any) context.Context {
	if len(args) == 0 {
		return ctx
	}

	return Into(ctx, From(ctx).With(args...))
}
