package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/TubeQuest/TQ-Backend/internal/db"
	"github.com/TubeQuest/TQ-Backend/internal/middleware"
	"github.com/TubeQuest/TQ-Backend/internal/stations"
	"github.com/TubeQuest/TQ-Backend/internal/visits"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	stations.Init()
	visits.Init()
	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Mount("/stations", stations.SetupRoutes())
	r.Mount("/visits", visits.SetupRoutes())

	fmt.Println("Server listening on port :" + port + "...")

	http.ListenAndServe("0.0.0.0:"+port, r)
}
