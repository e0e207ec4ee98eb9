package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var botStatus atomic.Value

func init() {
	botStatus.Store("starting")
}

func setStatus(status string) {
	botStatus.Store(status)
}

func currentStatus() string {
	return botStatus.Load().(string)
}

// statsFunc reports open sessions by game and the number of open coin drops
type statsFunc func() (sessions map[string]int, drops int)

func newHealthRouter(stats statsFunc) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Discord Bot Status: %s", currentStatus())
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		sessions, drops := stats()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":          "healthy",
			"service":         "discord-bot",
			"bot_status":      currentStatus(),
			"active_sessions": sessions,
			"open_drops":      drops,
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}

func newHealthServer(port string, stats statsFunc) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           newHealthRouter(stats),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
