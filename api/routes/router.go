package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/landgrants/agreement-backend/api/controllers"
	"github.com/landgrants/agreement-backend/api/middleware"
	"github.com/landgrants/agreement-backend/internal/agreements"
	"github.com/landgrants/agreement-backend/internal/invoices"
	"github.com/landgrants/agreement-backend/pkg/config"
	"github.com/landgrants/agreement-backend/pkg/logger"
)

// Dependencies carries everything the router needs wired in.
type Dependencies struct {
	Config     *config.Config
	Logger     *logger.Logger
	Agreements agreements.Service
	Invoices   invoices.Service
	Pingers    map[string]controllers.Pinger
	Registry   *prometheus.Registry
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/agreements", func(r chi.Router) {
			r.Post("/withdraw", controllers.WithdrawAgreement(deps.Agreements, logg))
			r.Get("/sbi/{sbi}", controllers.AgreementBySBI(deps.Agreements, logg))

			r.Route("/{agreementNumber}", func(r chi.Router) {
				r.Get("/", controllers.AgreementDetail(deps.Agreements, logg))
				r.Get("/document", controllers.AgreementDocument(deps.Agreements, logg))
				r.Get("/schedule", controllers.AgreementSchedule(deps.Agreements, logg))
				r.Get("/invoices", controllers.AgreementInvoices(deps.Invoices, logg))
				r.Post("/accept", controllers.AcceptAgreement(deps.Agreements, logg))
				r.Post("/unaccept", controllers.UnacceptAgreement(deps.Agreements, logg))
			})
		})
	})

	return r
}
