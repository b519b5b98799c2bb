package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lucasmoreno-dev/devisio-backend/api/controllers"
	webhookcontrollers "github.com/lucasmoreno-dev/devisio-backend/api/controllers/webhooks"
	"github.com/lucasmoreno-dev/devisio-backend/api/middleware"
	"github.com/lucasmoreno-dev/devisio-backend/internal/catalog"
	"github.com/lucasmoreno-dev/devisio-backend/internal/clients"
	"github.com/lucasmoreno-dev/devisio-backend/internal/devis"
	"github.com/lucasmoreno-dev/devisio-backend/internal/params"
	"github.com/lucasmoreno-dev/devisio-backend/internal/signing"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/config"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/db"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/logger"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Gatherer prometheus.Gatherer

	Clients *clients.Service
	Catalog *catalog.Service
	Params  *params.Service
	Devis   *devis.Service
	Signing *signing.Service

	WebhookGuard *signing.IdempotencyGuard
	WebhookURL   string
}

func NewRouter(deps Deps) http.Handler {
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	// Provider callbacks authenticate by envelope knowledge, not by bearer
	// token: the envelope id is only ever shared with the provider. The
	// surface is throttled per IP since it carries no credentials.
	webhookPolicy := middleware.NewRateLimitPolicy(
		"signing-webhook",
		cfg.RateLimit.WebhookWindow,
		cfg.RateLimit.WebhookIPLimit,
	)
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		if deps.Redis != nil {
			r.Use(middleware.RateLimit(webhookPolicy, deps.Redis, logg))
		}
		r.Post("/signing", webhookcontrollers.SigningWebhook(deps.Signing, deps.WebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", controllers.ClientList(deps.Clients, logg))
			r.Post("/", controllers.ClientCreate(deps.Clients, logg))
			r.Get("/{clientId}", controllers.ClientDetail(deps.Clients, logg))
			r.Put("/{clientId}", controllers.ClientUpdate(deps.Clients, logg))
			r.Delete("/{clientId}", controllers.ClientDelete(deps.Clients, logg))
		})

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", controllers.ArticleList(deps.Catalog, logg))
			r.Post("/", controllers.ArticleCreate(deps.Catalog, logg))
			r.Get("/{articleId}", controllers.ArticleDetail(deps.Catalog, logg))
			r.Put("/{articleId}", controllers.ArticleUpdate(deps.Catalog, logg))
			r.Delete("/{articleId}", controllers.ArticleDelete(deps.Catalog, logg))
		})

		r.Route("/vat-rates", func(r chi.Router) {
			r.Get("/", controllers.VatRateList(deps.Catalog, logg))
			r.Post("/", controllers.VatRateCreate(deps.Catalog, logg))
			r.Delete("/{rateId}", controllers.VatRateDelete(deps.Catalog, logg))
		})

		r.Route("/parameters", func(r chi.Router) {
			r.Get("/", controllers.ParametersGet(deps.Params, logg))
			r.Put("/", controllers.ParametersUpdate(deps.Params, logg))
		})

		r.Route("/devis", func(r chi.Router) {
			r.Get("/", controllers.DevisList(deps.Devis, logg))
			r.Post("/", controllers.DevisCreate(deps.Devis, logg))
			r.Get("/next-numero", controllers.DevisNextNumero(deps.Devis, logg))
			r.Route("/{devisId}", func(r chi.Router) {
				r.Get("/", controllers.DevisDetail(deps.Devis, logg))
				r.Put("/", controllers.DevisUpdate(deps.Devis, logg))
				r.Delete("/", controllers.DevisDelete(deps.Devis, logg))
				r.Get("/scenarios", controllers.DevisScenarios(deps.Devis, logg))
				r.Post("/select-scenario", controllers.DevisSelectScenario(deps.Devis, logg))
				r.Get("/pdf-payload", controllers.DevisDocumentPayload(deps.Devis, logg))
				r.Post("/send-for-signature", controllers.DevisSendForSignature(deps.Signing, deps.WebhookURL, logg))
				r.Get("/envelopes", controllers.DevisEnvelopes(deps.Signing, logg))
			})
		})

		r.Route("/signing", func(r chi.Router) {
			r.Get("/envelopes/{envelopeId}", controllers.EnvelopeStatus(deps.Signing, logg))
		})
	})

	return r
}
