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
	Eventing     EventingConfig
	GCP          GCPConfig
	Storage      StorageConfig
	Retention    RetentionConfig
	PubSub       PubSubConfig
	PaymentsAPI  PaymentsAPIConfig
	PaymentHub   PaymentHubConfig
	Seeding      SeedingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Retention.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env           string `envconfig:"AGREEMENTS_APP_ENV" required:"true"`
	Port          string `envconfig:"AGREEMENTS_APP_PORT" required:"true"`
	LogLevel      string `envconfig:"AGREEMENTS_LOG_LEVEL" default:"info"`
	LogWarnStack  bool   `envconfig:"AGREEMENTS_LOG_WARN_STACK" default:"false"`
	PublicBaseURL string `envconfig:"AGREEMENTS_PUBLIC_BASE_URL" default:""`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AGREEMENTS_DB_DSN"`
	Driver string `envconfig:"AGREEMENTS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AGREEMENTS_DB_HOST"`
	LegacyPort     int    `envconfig:"AGREEMENTS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AGREEMENTS_DB_USER"`
	LegacyPassword string `envconfig:"AGREEMENTS_DB_PASSWORD"`
	LegacyName     string `envconfig:"AGREEMENTS_DB_NAME"`
	LegacySSLMode  string `envconfig:"AGREEMENTS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AGREEMENTS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGREEMENTS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGREEMENTS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGREEMENTS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AGREEMENTS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AGREEMENTS_REDIS_ADDR"`
	Password     string        `envconfig:"AGREEMENTS_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGREEMENTS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGREEMENTS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGREEMENTS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGREEMENTS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGREEMENTS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGREEMENTS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"AGREEMENTS_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"AGREEMENTS_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AGREEMENTS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AGREEMENTS_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	ConsumerIdempotencyTTL time.Duration `envconfig:"AGREEMENTS_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	PublishMaxAttempts     int           `envconfig:"AGREEMENTS_EVENTING_PUBLISH_MAX_ATTEMPTS" default:"3"`
	PublishBackoffInitial  time.Duration `envconfig:"AGREEMENTS_EVENTING_PUBLISH_BACKOFF_INITIAL" default:"1s"`
	PublishBackoffMax      time.Duration `envconfig:"AGREEMENTS_EVENTING_PUBLISH_BACKOFF_MAX" default:"5s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"AGREEMENTS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"AGREEMENTS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"AGREEMENTS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type StorageConfig struct {
	BucketName string `envconfig:"AGREEMENTS_STORAGE_BUCKET_NAME" required:"true"`
}

// RetentionConfig drives the storage-path prefix selection for agreement
// documents. Total retention years = whole-year agreement span + BaseYears,
// classified against the two ascending thresholds.
type RetentionConfig struct {
	BaseYears         int    `envconfig:"AGREEMENTS_RETENTION_BASE_YEARS" default:"7"`
	BaseThreshold     int    `envconfig:"AGREEMENTS_RETENTION_BASE_THRESHOLD" default:"10"`
	ExtendedThreshold int    `envconfig:"AGREEMENTS_RETENTION_EXTENDED_THRESHOLD" default:"15"`
	BasePrefix        string `envconfig:"AGREEMENTS_RETENTION_BASE_PREFIX" default:"base"`
	ExtendedPrefix    string `envconfig:"AGREEMENTS_RETENTION_EXTENDED_PREFIX" default:"extended"`
	MaximumPrefix     string `envconfig:"AGREEMENTS_RETENTION_MAXIMUM_PREFIX" default:"maximum"`
}

func (r RetentionConfig) validate() error {
	if r.BaseThreshold >= r.ExtendedThreshold {
		return fmt.Errorf("retention thresholds must be ascending: base %d >= extended %d", r.BaseThreshold, r.ExtendedThreshold)
	}
	return nil
}

type PubSubConfig struct {
	AgreementEventsTopic string `envconfig:"AGREEMENTS_PUBSUB_EVENTS_TOPIC" required:"true"`
	TriggersSubscription string `envconfig:"AGREEMENTS_PUBSUB_TRIGGERS_SUBSCRIPTION" required:"true"`
}

type PaymentsAPIConfig struct {
	BaseURL string        `envconfig:"AGREEMENTS_PAYMENTS_API_BASE_URL" required:"true"`
	Token   string        `envconfig:"AGREEMENTS_PAYMENTS_API_TOKEN" required:"true"`
	Timeout time.Duration `envconfig:"AGREEMENTS_PAYMENTS_API_TIMEOUT" default:"30s"`
}

type PaymentHubConfig struct {
	BaseURL string        `envconfig:"AGREEMENTS_PAYMENT_HUB_BASE_URL" required:"true"`
	Token   string        `envconfig:"AGREEMENTS_PAYMENT_HUB_TOKEN" required:"true"`
	Timeout time.Duration `envconfig:"AGREEMENTS_PAYMENT_HUB_TIMEOUT" default:"30s"`
}

type SeedingConfig struct {
	Concurrency    int `envconfig:"AGREEMENTS_SEED_CONCURRENCY" default:"5"`
	MaxConcurrency int `envconfig:"AGREEMENTS_SEED_MAX_CONCURRENCY" default:"20"`
	BatchSize      int `envconfig:"AGREEMENTS_SEED_BATCH_SIZE" default:"100"`
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
