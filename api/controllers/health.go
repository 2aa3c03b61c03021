package controllers

import (
	"net/http"

	"github.com/angelmondragon/adsync/api/responses"
	"github.com/angelmondragon/adsync/pkg/config"
	"github.com/angelmondragon/adsync/pkg/db"
	pkgerrors "github.com/angelmondragon/adsync/pkg/errors"
	"github.com/angelmondragon/adsync/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Adsync-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the warehouse answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Adsync-Env", cfg.App.Env)

		if err := dbP.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, "warehouse unreachable"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
