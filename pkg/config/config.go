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
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Entitlements EntitlementsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"OASA_APP_ENV" required:"true"`
	Port         string `envconfig:"OASA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OASA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OASA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"OASA_DB_DSN"`
	Driver string `envconfig:"OASA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"OASA_DB_HOST"`
	LegacyPort     int    `envconfig:"OASA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OASA_DB_USER"`
	LegacyPassword string `envconfig:"OASA_DB_PASSWORD"`
	LegacyName     string `envconfig:"OASA_DB_NAME"`
	LegacySSLMode  string `envconfig:"OASA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OASA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OASA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OASA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OASA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OASA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"OASA_REDIS_ADDR"`
	Password     string        `envconfig:"OASA_REDIS_PASSWORD"`
	DB           int           `envconfig:"OASA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OASA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OASA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OASA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OASA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OASA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"OASA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"OASA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"OASA_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate        bool `envconfig:"OASA_AUTO_MIGRATE" default:"false"`
	LegacySettingsRead bool `envconfig:"OASA_LEGACY_SETTINGS_READ" default:"false"`
	LegacySettingsSync bool `envconfig:"OASA_LEGACY_SETTINGS_SYNC" default:"false"`
	PublishEvents      bool `envconfig:"OASA_PUBLISH_ENTITLEMENT_EVENTS" default:"true"`
}

type EntitlementsConfig struct {
	DefaultClientID string        `envconfig:"OASA_DEFAULT_CLIENT_ID" default:"oasa-default"`
	SnapshotTTL     time.Duration `envconfig:"OASA_ENTITLEMENTS_SNAPSHOT_TTL" default:"24h"`
	FetchTimeout    time.Duration `envconfig:"OASA_ENTITLEMENTS_FETCH_TIMEOUT" default:"3s"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"OASA_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"OASA_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	EntitlementsTopic        string `envconfig:"OASA_PUBSUB_ENTITLEMENTS_TOPIC" default:"oasa-entitlement-events"`
	EntitlementsSubscription string `envconfig:"OASA_PUBSUB_ENTITLEMENTS_SUBSCRIPTION"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"OASA_CRON_INTERVAL" default:"1h"`
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
