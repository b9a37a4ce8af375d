package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

type capHandler struct {
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = map[string]any{}
	r.Attrs(func(a slog.Attr) bool {
		h.attrs[a.Key] = a.Value.Any()
		return true
	})
	return nil
}

func (h *capHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *capHandler) WithGroup(string) slog.Handler      { return h }

func TestWriter_Format(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWriter(&buf).Notify(context.Background(), Notice{Level: LevelWarn, Message: MsgLoginRequired})

	require.Equal(t, "[warn] please log in to continue\n", buf.String())
}

func TestLog_LevelMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   Level
		want slog.Level
	}{
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		h := &capHandler{}
		NewLog(slog.New(h)).Notify(context.Background(), Notice{Level: tt.in, Message: "m"})

		require.Equal(t, "user_notice", h.lastMsg)
		require.Equal(t, tt.want, h.lastLvl)
		require.Equal(t, "m", h.attrs["message"])
	}
}

func TestMulti_FanOut(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	Multi{NewWriter(&a), nil, NewWriter(&b)}.Notify(context.Background(), Notice{Level: LevelInfo, Message: "hi"})

	require.Equal(t, "[info] hi\n", a.String())
	require.Equal(t, "[info] hi\n", b.String())
}
