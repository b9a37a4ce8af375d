package tokenstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pribylovaa/go-taskboard/internal/models"
)

// Интеграционные тесты Redis-хранилища: поднимают redis:7-alpine через testcontainers-go.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/tokenstore -run Redis -v -count=1

// startRedis - поднимает временный Redis и возвращает его URL.
// Если переменная окружения GO_TEST_INTEGRATION не установлена - тест пропускается.
func startRedis(t *testing.T) string {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func TestRedis_Contract(t *testing.T) {
	url := startRedis(t)

	st, err := NewRedis(context.Background(), url, "test:contract:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	contract(t, st)
}

func TestRedis_PartialKeyIsAbsent(t *testing.T) {
	url := startRedis(t)
	ctx := context.Background()

	st, err := NewRedis(ctx, url, "test:partial:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.rdb.Set(ctx, st.key(models.AccessTokenKey), "a", 0).Err())

	_, err = st.Get(ctx)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNewRedis_BadURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedis(context.Background(), "not-a-url", "")
	require.Error(t, err)
}
