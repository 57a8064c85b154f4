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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	UPIGateway   UPIGatewayConfig
	PhonePe      PhonePeConfig
	Sendgrid     SendgridConfig
	Reconcile    ReconcileConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"PRINTVEDA_APP_ENV" required:"true"`
	Port         string `envconfig:"PRINTVEDA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PRINTVEDA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRINTVEDA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PRINTVEDA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PRINTVEDA_DB_DSN"`
	Driver string `envconfig:"PRINTVEDA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PRINTVEDA_DB_HOST"`
	LegacyPort     int    `envconfig:"PRINTVEDA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PRINTVEDA_DB_USER"`
	LegacyPassword string `envconfig:"PRINTVEDA_DB_PASSWORD"`
	LegacyName     string `envconfig:"PRINTVEDA_DB_NAME"`
	LegacySSLMode  string `envconfig:"PRINTVEDA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRINTVEDA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRINTVEDA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRINTVEDA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRINTVEDA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRINTVEDA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PRINTVEDA_REDIS_ADDR"`
	Password     string        `envconfig:"PRINTVEDA_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRINTVEDA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRINTVEDA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRINTVEDA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRINTVEDA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRINTVEDA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRINTVEDA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// UPIGatewayConfig carries credentials for the hosted UPI QR gateway.
type UPIGatewayConfig struct {
	Key     string        `envconfig:"PRINTVEDA_UPIGATEWAY_KEY"`
	BaseURL string        `envconfig:"PRINTVEDA_UPIGATEWAY_BASE_URL" default:"https://api.ekqr.in"`
	Timeout time.Duration `envconfig:"PRINTVEDA_UPIGATEWAY_TIMEOUT" default:"15s"`
}

// PhonePeConfig carries the PhonePe PG merchant credentials.
type PhonePeConfig struct {
	MerchantID  string        `envconfig:"PRINTVEDA_PHONEPE_MERCHANT_ID"`
	SaltKey     string        `envconfig:"PRINTVEDA_PHONEPE_SALT_KEY"`
	SaltIndex   string        `envconfig:"PRINTVEDA_PHONEPE_SALT_INDEX" default:"1"`
	BaseURL     string        `envconfig:"PRINTVEDA_PHONEPE_BASE_URL" default:"https://api.phonepe.com/apis/hermes"`
	CallbackURL string        `envconfig:"PRINTVEDA_PHONEPE_CALLBACK_URL"`
	Timeout     time.Duration `envconfig:"PRINTVEDA_PHONEPE_TIMEOUT" default:"15s"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"PRINTVEDA_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"PRINTVEDA_SENDGRID_FROM_EMAIL"`
}

// ReconcileConfig tunes the pending-payment sweep worker.
type ReconcileConfig struct {
	Interval   time.Duration `envconfig:"PRINTVEDA_RECONCILE_INTERVAL" default:"5m"`
	PendingAge time.Duration `envconfig:"PRINTVEDA_RECONCILE_PENDING_AGE" default:"10m"`
	BatchSize  int           `envconfig:"PRINTVEDA_RECONCILE_BATCH_SIZE" default:"50"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PRINTVEDA_AUTO_MIGRATE" default:"false"`
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
