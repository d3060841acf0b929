package stations

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	// Public routes — the catalogue is display data
	r.Get("/", ListStations)
	r.Get("/{station_id}", GetStation)

	return r
}
