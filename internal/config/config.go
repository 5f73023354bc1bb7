package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	AuthModeDev    = "dev"
	AuthModeJWT    = "jwt"
	AuthModeRemote = "remote"
)

type Config struct {
	Port    string `mapstructure:"PORT"`
	Env     string `mapstructure:"ENV"`
	AppName string `mapstructure:"APP_NAME"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Vacío => repositorios en memoria.
	DBDSN    string `mapstructure:"DB_DSN"`
	RedisURL string `mapstructure:"REDIS_URL"`

	AuthMode         string `mapstructure:"AUTH_MODE"`
	JWTSecretKey     string `mapstructure:"JWT_SECRET_KEY"`
	JWTIssuer        string `mapstructure:"JWT_ISSUER"`
	AuthRemoteURL    string `mapstructure:"AUTH_REMOTE_URL"`
	AuthRemoteAPIKey string `mapstructure:"AUTH_REMOTE_API_KEY"`

	Timezone      string        `mapstructure:"TIMEZONE"`
	GracePeriod   time.Duration `mapstructure:"GRACE_PERIOD"`
	SweepInterval time.Duration `mapstructure:"SWEEP_INTERVAL"`
	SweepLookback time.Duration `mapstructure:"SWEEP_LOOKBACK"`

	InteractionRulesFile string        `mapstructure:"INTERACTION_RULES_FILE"`
	OpenFDAEnabled       bool          `mapstructure:"OPENFDA_ENABLED"`
	OpenFDABaseURL       string        `mapstructure:"OPENFDA_BASE_URL"`
	OpenFDATimeout       time.Duration `mapstructure:"OPENFDA_TIMEOUT"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`
}

var keys = []string{
	"PORT", "ENV", "APP_NAME",
	"LOG_LEVEL", "LOG_FORMAT",
	"DB_DSN", "REDIS_URL",
	"AUTH_MODE", "JWT_SECRET_KEY", "JWT_ISSUER", "AUTH_REMOTE_URL", "AUTH_REMOTE_API_KEY",
	"TIMEZONE", "GRACE_PERIOD", "SWEEP_INTERVAL", "SWEEP_LOOKBACK",
	"INTERACTION_RULES_FILE", "OPENFDA_ENABLED", "OPENFDA_BASE_URL", "OPENFDA_TIMEOUT",
	"CORS_ORIGINS",
}

// Load lee .env (si existe) y luego el entorno. No valida; ver Validate.
func Load(envFiles ...string) (*Config, error) {
	// .env es opcional; las variables ya exportadas tienen prioridad.
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("APP_NAME", "medication-adherence")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("AUTH_MODE", AuthModeDev)
	v.SetDefault("JWT_ISSUER", "medtrack")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("GRACE_PERIOD", "1h")
	v.SetDefault("SWEEP_INTERVAL", "15m")
	v.SetDefault("SWEEP_LOOKBACK", "168h")
	v.SetDefault("OPENFDA_ENABLED", false)
	v.SetDefault("OPENFDA_BASE_URL", "https://api.fda.gov")
	v.SetDefault("OPENFDA_TIMEOUT", "5s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.AuthMode = strings.ToLower(strings.TrimSpace(cfg.AuthMode))
	cfg.CORSOrigins = splitList(cfg.CORSOrigins)
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Location resuelve TIMEZONE. Todos los cálculos de fechas usan esta zona.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", tz, err)
	}
	return loc, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.AuthMode {
	case AuthModeDev:
		if c.Env == "production" {
			errs = append(errs, errors.New("AUTH_MODE=dev is not allowed when ENV=production"))
		}
	case AuthModeJWT:
		if strings.TrimSpace(c.JWTSecretKey) == "" {
			errs = append(errs, errors.New("JWT_SECRET_KEY is required when AUTH_MODE=jwt"))
		}
	case AuthModeRemote:
		if strings.TrimSpace(c.AuthRemoteURL) == "" || strings.TrimSpace(c.AuthRemoteAPIKey) == "" {
			errs = append(errs, errors.New("AUTH_REMOTE_URL and AUTH_REMOTE_API_KEY are required when AUTH_MODE=remote"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_MODE must be %q, %q or %q, got %q", AuthModeDev, AuthModeJWT, AuthModeRemote, c.AuthMode))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.GracePeriod <= 0 {
		errs = append(errs, fmt.Errorf("GRACE_PERIOD must be positive, got %s", c.GracePeriod))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval))
	}
	if c.SweepLookback < c.GracePeriod {
		errs = append(errs, fmt.Errorf("SWEEP_LOOKBACK (%s) must not be shorter than GRACE_PERIOD (%s)", c.SweepLookback, c.GracePeriod))
	}
	if c.OpenFDAEnabled && c.OpenFDATimeout <= 0 {
		errs = append(errs, errors.New("OPENFDA_TIMEOUT must be positive when OPENFDA_ENABLED=true"))
	}

	return errors.Join(errs...)
}

// splitList acepta tanto ["a","b"] como ["a,b"] (lo que deja viper desde env).
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
