package controllers

import (
	"context"
	"net/http"

	"github.com/lucasmoreno-dev/devisio-backend/api/responses"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/config"
	pkgerrors "github.com/lucasmoreno-dev/devisio-backend/pkg/errors"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/logger"
)

const envHeader = "X-Devisio-Env"

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the backing stores so orchestrators only route traffic
// once the database and redis answer.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		checks := map[string]string{}
		failed := false

		check := func(name string, p pinger) {
			if p == nil {
				checks[name] = "skipped"
				return
			}
			if err := p.Ping(r.Context()); err != nil {
				checks[name] = "down"
				failed = true
				if logg != nil {
					logg.Error(r.Context(), "readiness check failed: "+name, err)
				}
				return
			}
			checks[name] = "up"
		}

		check("database", dbP)
		check("redis", redisP)

		if failed {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
