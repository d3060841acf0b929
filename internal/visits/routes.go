package visits

import (
	"net/http"

	"github.com/TubeQuest/TQ-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RateLimitMiddleware(rate.Limit(5), 10))

	// Pre-flight + display reads
	r.Post("/geofence/validate", ValidateGeofenceHandler)
	r.Get("/activity/{activity_id}", ListActivityVisitsHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(SessionInfo{}))
		r.Post("/check-in", CheckInHandler)
	})

	return r
}
