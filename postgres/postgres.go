package postgres

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/xy-planning-network/switchback"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PG Docs: https://www.postgresql.org/docs/current/libpq-connect.html#LIBPQ-PARAMKEYWORDS
const cxnStr = "host=%s port=%s dbname=%s user=%s password=%s sslmode=%s"

// CxnConfig holds connection information used to connect to a PostgreSQL database.
type CxnConfig struct {
	URL      string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

// NewCxnConfig reads a CxnConfig from the DATABASE_* environment variables.
// DATABASE_URL, when set, wins over the rest.
func NewCxnConfig() *CxnConfig {
	return &CxnConfig{
		URL:      os.Getenv("DATABASE_URL"),
		Host:     switchback.EnvVarOrString("DATABASE_HOST", "localhost"),
		Port:     switchback.EnvVarOrString("DATABASE_PORT", "5432"),
		Name:     os.Getenv("DATABASE_NAME"),
		User:     os.Getenv("DATABASE_USER"),
		Password: os.Getenv("DATABASE_PASSWORD"),
		SSLMode:  os.Getenv("DATABASE_SSLMODE"),
	}
}

// Valid asserts config names a database to connect to.
func (config *CxnConfig) Valid() error {
	if config == nil {
		return fmt.Errorf("%w: no connection config", switchback.ErrBadConfig)
	}

	if config.URL == "" && config.Name == "" {
		return fmt.Errorf("%w: DATABASE_URL or DATABASE_NAME must be set", switchback.ErrBadConfig)
	}

	return nil
}

// Connect creates a database connection through GORM according to the connection config.
func Connect(config *CxnConfig, env switchback.Environment) (*gorm.DB, error) {
	if err := config.Valid(); err != nil {
		return nil, err
	}

	// https://gorm.io/docs/logger.html
	c := logger.Config{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      logger.Warn,
		Colorful:      false,
	}

	if env.IsDevelopment() {
		c.Colorful = true
	}

	db, err := gorm.Open(postgres.Open(buildCxnStr(config)), &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), c),
		NowFunc: func() time.Time {
			return time.Now().Truncate(time.Microsecond)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", switchback.ErrUnexpected, err)
	}

	return db, nil
}

func buildCxnStr(config *CxnConfig) string {
	if config.URL != "" {
		return config.URL
	}

	sslMode := config.SSLMode
	if sslMode == "" {
		// PG Docs: https://www.postgresql.org/docs/current/libpq-ssl.html#LIBPQ-SSL-SSLMODE-STATEMENTS
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		cxnStr,
		config.Host,
		config.Port,
		config.Name,
		config.User,
		config.Password,
		sslMode,
	)
}
