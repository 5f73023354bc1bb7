package router

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "medication-adherence/internal/docs"
	"medication-adherence/internal/domain/adherence"
	"medication-adherence/internal/domain/dashboard"
	"medication-adherence/internal/domain/interactions"
	"medication-adherence/internal/domain/medications"
	"medication-adherence/internal/middleware"
	"medication-adherence/internal/platform/logger"
	"medication-adherence/internal/ports/auth"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	Log          logger.Logger
	CORSOrigins  []string

	Medications  *medications.Service
	Ledger       *adherence.Ledger
	Aggregator   *adherence.Aggregator
	Interactions *interactions.Checker
	Dashboard    *dashboard.Composer
}

// @title Medication Adherence API
// @version 1.0
// @description Registro de medicaciones, tomas programadas, adherencia e interacciones.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AuthContext(opts.AuthVerifier, opts.Log))
	r.Use(middleware.RequestLog(opts.Log))
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(corsOptions(opts.CORSOrigins)))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Rutas por módulo
	medications.RegisterRoutes(r, opts.Medications)
	adherence.RegisterRoutes(r, opts.Ledger, opts.Aggregator)
	interactions.RegisterRoutes(r, opts.Interactions)
	dashboard.RegisterRoutes(r, opts.Dashboard)

	return r
}

// corsOptions: sin orígenes configurados se abre a "*" pero sin credenciales.
func corsOptions(origins []string) cors.Options {
	o := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.DebugUserHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		o.AllowedOrigins = []string{"*"}
		o.AllowCredentials = false
	}
	return o
}
