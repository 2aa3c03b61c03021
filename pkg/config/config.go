package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Meta         MetaConfig
	ETL          ETLConfig
	Worker       WorkerConfig
	Server       ServerConfig
	FeatureFlags FeatureFlags
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.ETL.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ADSYNC_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"ADSYNC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ADSYNC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ADSYNC_DB_DSN"`
	Driver string `envconfig:"ADSYNC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ADSYNC_DB_HOST"`
	LegacyPort     int    `envconfig:"ADSYNC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ADSYNC_DB_USER"`
	LegacyPassword string `envconfig:"ADSYNC_DB_PASSWORD"`
	LegacyName     string `envconfig:"ADSYNC_DB_NAME"`
	LegacySSLMode  string `envconfig:"ADSYNC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ADSYNC_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"ADSYNC_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"ADSYNC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ADSYNC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// MetaConfig holds the Graph API credentials and rate limiting knobs.
type MetaConfig struct {
	AccessToken string `envconfig:"ADSYNC_META_ACCESS_TOKEN" required:"true"`
	AccountID   string `envconfig:"ADSYNC_META_ACCOUNT_ID" required:"true"`
	BaseURL     string `envconfig:"ADSYNC_META_BASE_URL" default:"https://graph.facebook.com"`

	// RateLimitInterval is both the mandatory pause after every successful
	// request and the initial backoff delay when the API throttles us.
	RateLimitInterval time.Duration `envconfig:"ADSYNC_META_RATE_LIMIT_INTERVAL" default:"500ms"`
	HTTPTimeout       time.Duration `envconfig:"ADSYNC_META_HTTP_TIMEOUT" default:"30s"`
}

// ETLConfig controls run stamping. Timezone fixes the hour bucket regardless
// of the host's wall clock.
type ETLConfig struct {
	Timezone string `envconfig:"ADSYNC_ETL_TIMEZONE" default:"Asia/Kolkata"`
}

func (e ETLConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading etl timezone %q: %w", e.Timezone, err)
	}
	return loc, nil
}

type WorkerConfig struct {
	Interval time.Duration `envconfig:"ADSYNC_WORKER_INTERVAL" default:"1h"`
}

type ServerConfig struct {
	Port string `envconfig:"ADSYNC_SERVER_PORT" default:"8080"`
}

type FeatureFlags struct {
	AutoMigrate bool `envconfig:"ADSYNC_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
