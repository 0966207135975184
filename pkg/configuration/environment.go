package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ar3/our-gruuv-sub016/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"gruuv"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type OutboxOptions struct {
	RelayEnabled         bool          `env:"OUTBOX_RELAY_ENABLED" envDefault:"true"`
	RelayTables          string        `env:"OUTBOX_RELAY_TABLES" envDefault:"public.observations_outbox,public.economy_outbox"`
	RelayPollInterval    time.Duration `env:"OUTBOX_RELAY_POLL_INTERVAL" envDefault:"1s"`
	RelayBatchSize       int           `env:"OUTBOX_RELAY_BATCH_SIZE" envDefault:"100"`
	RelayLockTTL         time.Duration `env:"OUTBOX_RELAY_LOCK_TTL" envDefault:"60s"`
	RelayMaxAttempts     int           `env:"OUTBOX_RELAY_MAX_ATTEMPTS" envDefault:"25"`
	RelaySingleActive    bool          `env:"OUTBOX_RELAY_SINGLE_ACTIVE" envDefault:"true"`
	RelayDispatchTimeout time.Duration `env:"OUTBOX_RELAY_DISPATCH_TIMEOUT" envDefault:"30s"`

	LastErrorMaxBytes int `env:"OUTBOX_LAST_ERROR_MAX_BYTES" envDefault:"2048"`

	CleanerEnabled       bool          `env:"OUTBOX_CLEANER_ENABLED" envDefault:"true"`
	CleanerTables        string        `env:"OUTBOX_CLEANER_TABLES" envDefault:""`
	CleanerInterval      time.Duration `env:"OUTBOX_CLEANER_INTERVAL" envDefault:"1m"`
	CleanerRetention     time.Duration `env:"OUTBOX_CLEANER_RETENTION" envDefault:"168h"`
	CleanerDeadRetention time.Duration `env:"OUTBOX_CLEANER_DEAD_RETENTION" envDefault:"0"`
}

// EconomyOptions tunes the points economy. Granularity and kickback values are
// parsed into decimals at load time so services never deal with raw strings.
type EconomyOptions struct {
	// PointGranularity is the step every persisted delta is rounded up to.
	PointGranularity string `env:"ECONOMY_POINT_GRANULARITY" envDefault:"0.5"`
	// KickbackMultiplier scales the kickback for recognition feedback as a
	// fraction of the total distributed amount.
	KickbackMultiplier string `env:"ECONOMY_KICKBACK_MULTIPLIER" envDefault:"0.2"`
	// ConstructiveKickback is the flat kickback for constructive feedback.
	ConstructiveKickback string `env:"ECONOMY_CONSTRUCTIVE_KICKBACK" envDefault:"1"`
	// WeeklyGuaranteedMinimum is the weekly floor of points-to-give topped up
	// by the allowance job.
	WeeklyGuaranteedMinimum string `env:"ECONOMY_WEEKLY_GUARANTEED_MINIMUM" envDefault:"10"`
	// ConflictRetries bounds how many times a whole business operation is
	// replayed after a concurrent-modification conflict.
	ConflictRetries int `env:"ECONOMY_CONFLICT_RETRIES" envDefault:"3"`

	granularity          decimal.Decimal
	kickbackMultiplier   decimal.Decimal
	constructiveKickback decimal.Decimal
	weeklyMinimum        decimal.Decimal
}

func (e *EconomyOptions) parse() error {
	var err error
	if e.granularity, err = decimal.NewFromString(e.PointGranularity); err != nil {
		return fmt.Errorf("invalid ECONOMY_POINT_GRANULARITY=%q: %w", e.PointGranularity, err)
	}
	if !e.granularity.IsPositive() {
		return fmt.Errorf("ECONOMY_POINT_GRANULARITY must be positive, got %s", e.PointGranularity)
	}
	if e.kickbackMultiplier, err = decimal.NewFromString(e.KickbackMultiplier); err != nil {
		return fmt.Errorf("invalid ECONOMY_KICKBACK_MULTIPLIER=%q: %w", e.KickbackMultiplier, err)
	}
	if e.constructiveKickback, err = decimal.NewFromString(e.ConstructiveKickback); err != nil {
		return fmt.Errorf("invalid ECONOMY_CONSTRUCTIVE_KICKBACK=%q: %w", e.ConstructiveKickback, err)
	}
	if e.weeklyMinimum, err = decimal.NewFromString(e.WeeklyGuaranteedMinimum); err != nil {
		return fmt.Errorf("invalid ECONOMY_WEEKLY_GUARANTEED_MINIMUM=%q: %w", e.WeeklyGuaranteedMinimum, err)
	}
	if e.ConflictRetries < 1 {
		return fmt.Errorf("ECONOMY_CONFLICT_RETRIES must be at least 1, got %d", e.ConflictRetries)
	}
	return nil
}

func (e *EconomyOptions) Granularity() decimal.Decimal           { return e.granularity }
func (e *EconomyOptions) RecognitionMultiplier() decimal.Decimal { return e.kickbackMultiplier }
func (e *EconomyOptions) ConstructiveFlat() decimal.Decimal      { return e.constructiveKickback }
func (e *EconomyOptions) WeeklyMinimum() decimal.Decimal         { return e.weeklyMinimum }

// AuthzOptions locates the Casbin model, policy, and runtime flag files.
type AuthzOptions struct {
	ModelPath      string `env:"AUTHZ_MODEL_PATH" envDefault:"config/access/model.conf"`
	PolicyPath     string `env:"AUTHZ_POLICY_PATH" envDefault:"config/access/policy.csv"`
	FlagConfigPath string `env:"AUTHZ_FLAG_CONFIG_PATH" envDefault:"config/access/flags.yml"`
	Mode           string `env:"AUTHZ_MODE" envDefault:"enforce"`
}

type Configuration struct {
	Database   DatabaseOptions
	Prometheus PrometheusOptions
	Outbox     OutboxOptions
	Economy    EconomyOptions
	Authz      AuthzOptions

	MigrationsDir    string `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	Domain           string `env:"DOMAIN" envDefault:"localhost"`
	Origin           string `env:"ORIGIN" envDefault:"http://localhost:3200"`
	PageSize         int    `env:"PAGE_SIZE" envDefault:"25"`
	MaxPageSize      int    `env:"MAX_PAGE_SIZE" envDefault:"100"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string `env:"LOG_PATH" envDefault:""`
	RequestIDHeader  string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	RealIPHeader     string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`

	// RLS enforcement mode (disabled/enforce).
	RLSEnforce string `env:"RLS_ENFORCE" envDefault:"disabled"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func (c *Configuration) Scheme() string {
	if c.GoAppEnvironment == Production {
		return "https"
	}
	return "http"
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.Economy.parse(); err != nil {
		return fmt.Errorf("economy configuration error: %w", err)
	}
	if err := c.validateRLS(); err != nil {
		return err
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}

	if os.Getenv("ORIGIN") == "" {
		if c.GoAppEnvironment == "development" {
			c.Origin = fmt.Sprintf("%s://%s:%d", c.Scheme(), c.Domain, c.ServerPort)
		} else {
			c.Origin = fmt.Sprintf("%s://%s", c.Scheme(), c.Domain)
		}
	}

	return nil
}

func (c *Configuration) validateRLS() error {
	mode := strings.ToLower(strings.TrimSpace(c.RLSEnforce))
	if mode == "" {
		mode = "disabled"
	}
	switch mode {
	case "disabled", "enforce":
	default:
		return fmt.Errorf("invalid RLS_ENFORCE=%q (expected disabled|enforce)", c.RLSEnforce)
	}

	if mode == "enforce" && strings.EqualFold(strings.TrimSpace(c.Database.User), "postgres") {
		return fmt.Errorf("RLS_ENFORCE=enforce requires a non-superuser DB_USER (postgres will bypass RLS)")
	}

	c.RLSEnforce = mode
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
