package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	analyticsapp "cleanbin-cloud/internal/analytics/application"
	analyticsinterfaces "cleanbin-cloud/internal/analytics/interfaces"
	"cleanbin-cloud/internal/audit"
	"cleanbin-cloud/internal/auth"
	"cleanbin-cloud/internal/config"
	ingestapp "cleanbin-cloud/internal/ingest/application"
	ingesthttp "cleanbin-cloud/internal/ingest/interfaces/http"
	"cleanbin-cloud/internal/observability/metrics"
	"cleanbin-cloud/internal/reporting"
	wastepostgres "cleanbin-cloud/internal/waste/infrastructure/postgres"
	wastehttp "cleanbin-cloud/internal/waste/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	store, err := wastepostgres.NewUnitOfWork(db)
	if err != nil {
		logger.Fatalf("waste store error: %v", err)
	}

	ingestService, err := ingestapp.NewService(store)
	if err != nil {
		logger.Fatalf("ingest service error: %v", err)
	}
	ingestHandler, err := ingesthttp.NewHandler(ingestService, auth.NewAPIKeyVerifier(cfg.IngestAPIKey), auditRepo, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}

	statsService, err := analyticsapp.NewStatisticsService(store)
	if err != nil {
		logger.Fatalf("statistics service error: %v", err)
	}
	statsHandler, err := analyticsinterfaces.NewStatisticsHandler(statsService)
	if err != nil {
		logger.Fatalf("statistics handler error: %v", err)
	}

	districtsHandler, err := wastehttp.NewDistrictsHandler(store)
	if err != nil {
		logger.Fatalf("districts handler error: %v", err)
	}
	neighborhoodsHandler, err := wastehttp.NewNeighborhoodsHandler(store)
	if err != nil {
		logger.Fatalf("neighborhoods handler error: %v", err)
	}
	locationsHandler, err := wastehttp.NewLocationsHandler(store)
	if err != nil {
		logger.Fatalf("locations handler error: %v", err)
	}
	binsHandler, err := wastehttp.NewBinsHandler(store)
	if err != nil {
		logger.Fatalf("bins handler error: %v", err)
	}
	exportHandler, err := reporting.NewExportHandler(store, auditRepo)
	if err != nil {
		logger.Fatalf("export handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, []string{"/ingest/"})
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/ingest/bin-status", ingestHandler)
	mux.Handle("/api/v1/districts", districtsHandler)
	mux.Handle("/api/v1/districts/", districtsHandler)
	mux.Handle("/api/v1/neighborhoods", neighborhoodsHandler)
	mux.Handle("/api/v1/neighborhoods/", neighborhoodsHandler)
	mux.Handle("/api/v1/locations", locationsHandler)
	mux.Handle("/api/v1/locations/", locationsHandler)
	mux.Handle("/api/v1/bins", binsHandler)
	mux.Handle("/api/v1/bins/", binsHandler)
	mux.Handle("/api/v1/statistics", statsHandler)
	mux.Handle("/api/v1/exports/", exportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
