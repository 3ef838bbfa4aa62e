package main

import (
	"log"
	"log/slog"

	"github.com/phishnheat/threat-intel-service/internal/cache"
	"github.com/phishnheat/threat-intel-service/internal/config"
	"github.com/phishnheat/threat-intel-service/internal/feedclient"
	"github.com/phishnheat/threat-intel-service/internal/httpserver"
	"github.com/phishnheat/threat-intel-service/internal/service"
	"github.com/phishnheat/threat-intel-service/internal/store"
)

const userAgent = "phishnheat-threat-intel-service/1.0"

// main boots the service: config → optional DB → feed client → HTTP server.
func main() {
	// Load runtime config from environment; invalid values are fatal here,
	// never recoverable at request time.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Durable storage is optional: without DB_URL the service runs cache-only.
	var st *store.PostgresStore
	if cfg.DBURL != "" {
		st, err = store.NewPostgresStore(cfg.DBURL)
		if err != nil {
			log.Fatal(err)
		}
		defer st.Close()

		// Ensure required tables/indexes exist so `docker compose up --build`
		// is enough.
		if err := st.EnsureSchema(); err != nil {
			log.Fatal(err)
		}
	} else {
		slog.Info("DB_URL not set, running without persistence")
	}

	// The freshness cache is owned here and injected into the coordinator,
	// not a process-wide singleton.
	feedCache := cache.New[[]feedclient.RawIncident]()
	client := feedclient.New(feedCache, feedclient.Options{
		BaseURL:    cfg.FeedURL,
		UserAgent:  userAgent,
		Timeout:    cfg.FeedTimeout,
		CacheTTL:   cfg.CacheTTL,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	})

	svc := service.New(client, st, cfg.MaxIncidentsPerRequest)
	router := httpserver.NewRouter(svc, st)

	slog.Info("server starting",
		"addr", cfg.ListenAddr, "feed_url", cfg.FeedURL, "cache_ttl", cfg.CacheTTL)
	log.Fatal(router.Run(cfg.ListenAddr))
}
