package backend

import "github.com/prometheus/client_golang/prometheus"

// Метки grant и reason.
const (
	grantRegister = "register"
	grantLogin    = "login"
	grantRefresh  = "refresh"

	rejectUnknown = "unknown"
	rejectExpired = "expired"
	rejectReused  = "reused"
)

type serviceMetrics struct {
	issued   *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

func newServiceMetrics(reg prometheus.Registerer) *serviceMetrics {
	m := &serviceMetrics{
		issued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskboard",
			Subsystem: "backend",
			Name:      "tokens_issued_total",
			Help:      "Token pairs issued by grant.",
		}, []string{"grant"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskboard",
			Subsystem: "backend",
			Name:      "refresh_rejected_total",
			Help:      "Rejected refresh tokens by reason.",
		}, []string{"reason"}),
	}

	if reg != nil {
		reg.MustRegister(m.issued, m.rejected)
	}

	return m
}
