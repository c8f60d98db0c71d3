package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas de dominio. Viven en un paquete aparte para que services y store
// las usen sin importar internal/http.

var (
	ReconcileTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "usercopy_reconcile_total",
		Help: "Reconciliaciones del mirror por resultado",
	}, []string{"result"}) // ok|not_found|error

	SignInEventsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "usercopy_sign_in_events_total",
		Help: "Inicios de sesión detectados al reconciliar (incrementos de sign_in_count)",
	})

	StatsCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "usercopy_stats_cache_total",
		Help: "Lecturas de estadísticas por resultado de cache",
	}, []string{"stat", "result"}) // hit|miss|error

	PasswordPolicyRejectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "usercopy_password_policy_rejects_total",
		Help: "Violaciones de política de contraseña por regla",
	}, []string{"code"})
)

// Register registra las métricas de dominio (default registerer si reg es nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{ReconcileTotal, SignInEventsTotal, StatsCacheTotal, PasswordPolicyRejectsTotal} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
