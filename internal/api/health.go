package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fieldops/fieldmirror/internal/models/entities"
	"github.com/jmoiron/sqlx"
)

// HealthCheckHandler handles GET /health
//
// Reports the store connection and process uptime. The remote provider is
// deliberately not probed here, a flaky upstream should not mark the
// mirror itself unhealthy.
func HealthCheckHandler(db *sqlx.DB, backend string, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		services := make(map[string]entities.ServiceStatus)

		storeStatus := "ok"
		storeDetails := "Store connected"
		if err := db.PingContext(r.Context()); err != nil {
			storeStatus = "down"
			storeDetails = err.Error()
		}
		services[backend] = entities.ServiceStatus{
			Status:  storeStatus,
			Details: storeDetails,
		}

		overallStatus := "ok"
		for _, svc := range services {
			if svc.Status != "ok" {
				overallStatus = "down"
				break
			}
		}

		now := time.Now()
		uptime := now.Sub(upSince).Round(time.Second).String()

		resp := entities.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			Uptime:   uptime,
		}
		w.Header().Set("Content-Type", "application/json")
		if overallStatus != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
