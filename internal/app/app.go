// Package app arma el grafo de dependencias a partir de la configuración:
// storage (memoria o Postgres), fuentes de interacciones, auth y router.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"

	jwtauth "medication-adherence/internal/adapters/auth/jwt"
	"medication-adherence/internal/adapters/auth/remote"
	rediscache "medication-adherence/internal/adapters/cache/redis"
	"medication-adherence/internal/adapters/interactions/openfda"
	mem "medication-adherence/internal/adapters/storage/memory"
	pg "medication-adherence/internal/adapters/storage/postgres"
	"medication-adherence/internal/config"
	"medication-adherence/internal/domain/adherence"
	"medication-adherence/internal/domain/dashboard"
	"medication-adherence/internal/domain/interactions"
	"medication-adherence/internal/domain/medications"
	"medication-adherence/internal/platform/logger"
	"medication-adherence/internal/ports/auth"
	"medication-adherence/internal/router"
)

type App struct {
	Config   *config.Config
	Log      logger.Logger
	Location *time.Location

	DB    *sql.DB         // nil en modo memoria
	Redis *goredis.Client // nil sin REDIS_URL

	Medications  *medications.Service
	Ledger       *adherence.Ledger
	Aggregator   *adherence.Aggregator
	Interactions *interactions.Checker
	Dashboard    *dashboard.Composer
	Rules        *interactions.StaticSource
	RulesRepo    *pg.RulesRepo // nil en modo memoria
	Verifier     auth.AuthVerifier

	closers []func() error
}

// New valida cfg y construye todo. Si algo falla, cierra lo que ya abrió.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (_ *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Log: log, Location: loc}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	var (
		medRepo medications.Repository
		adhRepo adherence.Repository
	)
	if cfg.DBDSN != "" {
		db, err := pg.Open(ctx, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		a.DB = db
		a.closers = append(a.closers, db.Close)
		medRepo = pg.NewMedicationsRepo(db)
		adhRepo = pg.NewAdherenceRepo(db)
		a.RulesRepo = pg.NewRulesRepo(db)
		log.Info("storage: postgres", nil)
	} else {
		medRepo = mem.NewMedicationRepo()
		adhRepo = mem.NewAdherenceRepo()
		log.Warn("storage: in-memory (DB_DSN not set), data is lost on restart", nil)
	}

	if cfg.RedisURL != "" {
		rdb, err := rediscache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.Redis = rdb
		a.closers = append(a.closers, rdb.Close)
	}

	a.Medications = medications.NewService(medRepo)
	a.Ledger = adherence.NewLedger(adhRepo, a.Medications, adherence.Options{
		Location:    loc,
		GracePeriod: cfg.GracePeriod,
		Lookback:    cfg.SweepLookback,
	})
	a.Aggregator = adherence.NewAggregator(a.Ledger)
	a.Dashboard = dashboard.NewComposer(a.Medications, a.Ledger, a.Aggregator)

	sources, err := a.ruleSources()
	if err != nil {
		return nil, err
	}
	a.Interactions = interactions.NewChecker(a.Medications, loc, log.With(map[string]any{"component": "interactions"}), sources...)

	a.Verifier, err = newVerifier(cfg)
	if err != nil {
		return nil, err
	}

	return a, nil
}

// ruleSources: tabla estática, luego la tabla de Postgres y por último openFDA
// (cacheado en redis si hay).
func (a *App) ruleSources() ([]interactions.RuleSource, error) {
	rules, err := interactions.LoadRulesFile(a.Config.InteractionRulesFile)
	if err != nil {
		return nil, fmt.Errorf("interaction rules: %w", err)
	}
	a.Rules = interactions.NewStaticSource(rules)

	sources := []interactions.RuleSource{a.Rules}
	if a.RulesRepo != nil {
		sources = append(sources, a.RulesRepo)
	}

	if a.Config.OpenFDAEnabled {
		fda, err := openfda.New(a.Config.OpenFDABaseURL, a.Config.OpenFDATimeout)
		if err != nil {
			return nil, fmt.Errorf("openfda: %w", err)
		}
		var src interactions.RuleSource = fda
		if a.Redis != nil {
			src = rediscache.NewRuleCache(a.Redis, fda, rediscache.Options{
				Log: a.Log.With(map[string]any{"component": "interaction-cache"}),
			})
		}
		sources = append(sources, src)
	}

	a.Log.Info("interaction sources ready", map[string]any{
		"static_rules": a.Rules.Len(),
		"postgres":     a.RulesRepo != nil,
		"openfda":      a.Config.OpenFDAEnabled,
		"redis_cache":  a.Config.OpenFDAEnabled && a.Redis != nil,
	})
	return sources, nil
}

func newVerifier(cfg *config.Config) (auth.AuthVerifier, error) {
	switch cfg.AuthMode {
	case config.AuthModeJWT:
		return jwtauth.NewVerifier(jwtauth.Config{
			Secret: []byte(cfg.JWTSecretKey),
			Issuer: cfg.JWTIssuer,
		})
	case config.AuthModeRemote:
		c, err := remote.NewClient(remote.Config{
			BaseURL: cfg.AuthRemoteURL,
			APIKey:  cfg.AuthRemoteAPIKey,
		})
		if err != nil {
			return nil, err
		}
		return remote.NewVerifier(c), nil
	default:
		// dev: sin verifier; el middleware acepta X-Debug-User-ID.
		return nil, nil
	}
}

func (a *App) Handler() http.Handler {
	return router.NewRouter(router.Options{
		AuthVerifier: a.Verifier,
		Log:          a.Log.With(map[string]any{"component": "http"}),
		CORSOrigins:  a.Config.CORSOrigins,
		Medications:  a.Medications,
		Ledger:       a.Ledger,
		Aggregator:   a.Aggregator,
		Interactions: a.Interactions,
		Dashboard:    a.Dashboard,
	})
}

func (a *App) Sweeper() *adherence.Sweeper {
	return adherence.NewSweeper(a.Ledger, a.Config.SweepInterval, a.Log)
}

// Close cierra conexiones en orden inverso a la apertura.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
