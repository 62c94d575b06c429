package main

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/moyu7925/bag-unit-price-calculator/internal/config"
	"github.com/moyu7925/bag-unit-price-calculator/internal/db"
	"github.com/moyu7925/bag-unit-price-calculator/internal/migrations"
	"github.com/moyu7925/bag-unit-price-calculator/internal/seed"
	"github.com/moyu7925/bag-unit-price-calculator/internal/templates"
)

type server struct {
	store *templates.Store
}

func main() {
	cfg := config.Load()
	configureLogging(cfg)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		log.Fatalf("failed to run database migrations: %v", err)
	}
	version, err := migrations.Version(database)
	if err != nil {
		log.Fatalf("failed to read schema version: %v", err)
	}
	log.WithField("version", version).Info("schema up to date")

	stats, err := seed.Run(database)
	if err != nil {
		log.Fatalf("failed to seed templates: %v", err)
	}
	log.WithFields(log.Fields{
		"inserts": stats.Inserts,
		"updates": stats.Updates,
	}).Info("seed complete")

	srv := &server{store: templates.NewStore(database)}

	addr := ":" + cfg.Port
	log.WithFields(log.Fields{
		"addr": addr,
		"env":  cfg.Env,
		"db":   cfg.DBPath,
	}).Info("listening")
	if err := http.ListenAndServe(addr, srv.routes()); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func configureLogging(cfg config.Config) {
	log.SetOutput(os.Stdout)
	if cfg.IsDev() {
		log.SetLevel(log.DebugLevel)
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		return
	}
	log.SetFormatter(&log.JSONFormatter{})
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/", s.handleHome)
	r.Post("/calculate", s.handleCalculateForm)
	r.Post("/api/calculate", s.handleCalculateAPI)
	r.Post("/api/calculate/text", s.handleCalculateText)
	r.Get("/ws", s.handleLiveCalculate)

	r.Get("/templates", s.handleTemplatesList)
	r.Post("/templates", s.handleTemplateCreate)
	r.Post("/templates/{name}", s.handleTemplateUpdate)
	r.Post("/templates/{name}/rename", s.handleTemplateRename)
	r.Post("/templates/{name}/duplicate", s.handleTemplateDuplicate)
	r.Post("/templates/{name}/delete", s.handleTemplateDelete)
	r.Post("/templates/{name}/default", s.handleTemplateSetDefault)
	r.Post("/templates/{name}/apply", s.handleTemplateApply)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	})
}
