package sankhya

import "github.com/prometheus/client_golang/prometheus"

var (
	callsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sankhya_calls_total",
		Help: "Chamadas ao gateway do ERP por serviço, modo e resultado",
	}, []string{"service", "mode", "result"}) // result: ok|rejected|error

	tokenRefreshes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sankhya_token_refreshes_total",
		Help: "Logins de sistema executados contra o ERP",
	})
)

// RegisterMetrics registra os contadores de upstream no registry dado.
// Chamado uma vez no wiring do servidor.
func RegisterMetrics(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(callsTotal); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return err
		}
	}
	if err := reg.Register(tokenRefreshes); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return err
		}
	}
	return nil
}
