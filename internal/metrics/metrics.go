// metrics - Prometheus-коллекторы жизненного цикла сессии.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Триггеры обновления токена.
const (
	TriggerProactive    = "proactive"
	TriggerUnauthorized = "unauthorized"
	TriggerExplicit     = "explicit"
)

// Результаты обновления токена.
const (
	ResultOK           = "ok"
	ResultUnauthorized = "unauthorized"
	ResultError        = "error"
)

// Причины повторного запуска операции.
const (
	RetryAfterRefresh  = "after_refresh"
	RetryAfterError    = "after_error"
	RetryAfterTeardown = "after_teardown"
)

// Metrics - счётчики Session Manager. Нулевое значение не годится,
// используйте New или Nop.
type Metrics struct {
	Refresh  *prometheus.CounterVec
	Teardown prometheus.Counter
	Retry    *prometheus.CounterVec
}

// New создаёт коллекторы и регистрирует их в reg (nil - без регистрации).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Refresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskboard",
			Subsystem: "session",
			Name:      "refresh_total",
			Help:      "Token refresh attempts by trigger and result.",
		}, []string{"trigger", "result"}),
		Teardown: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskboard",
			Subsystem: "session",
			Name:      "teardown_total",
			Help:      "Sessions ended because the refresh token was rejected.",
		}),
		Retry: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskboard",
			Subsystem: "session",
			Name:      "retry_total",
			Help:      "Operation re-runs by reason.",
		}, []string{"reason"}),
	}

	if reg != nil {
		reg.MustRegister(m.Refresh, m.Teardown, m.Retry)
	}

	return m
}

// Nop - рабочие, но нигде не зарегистрированные коллекторы.
func Nop() *Metrics { return New(nil) }

func (m *Metrics) ObserveRefresh(trigger, result string) {
	m.Refresh.WithLabelValues(trigger, result).Inc()
}

func (m *Metrics) ObserveTeardown() { m.Teardown.Inc() }

func (m *Metrics) ObserveRetry(reason string) {
	m.Retry.WithLabelValues(reason).Inc()
}
