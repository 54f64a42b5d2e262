package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Run modes.
const (
	ModeOnce     = "once"
	ModeWatch    = "watch"
	ModeSchedule = "schedule"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	InputPath string `env:"INPUT_PATH" validate:"required"`
	SheetName string `env:"SHEET_NAME"`

	RunMode  string `env:"RUN_MODE" validate:"oneof=once watch schedule"`
	Schedule string `env:"SCHEDULE" validate:"required_if=RunMode schedule"`

	ChartKind        string `env:"CHART_KIND" validate:"oneof=bar scatter"`
	ChartFormat      string `env:"CHART_FORMAT" validate:"oneof=svg png"`
	ChartPath        string `env:"CHART_PATH"`
	ChartPagePath    string `env:"CHART_PAGE_PATH"`
	ChartShow        bool   `env:"CHART_SHOW"`
	ChartCapturePath string `env:"CHART_CAPTURE_PATH"`
	ChromeBin        string `env:"CHROME_BIN"`

	CSVOutputPath  string `env:"CSV_OUTPUT_PATH"`
	XLSXOutputPath string `env:"XLSX_OUTPUT_PATH"`

	PostgresEnabled  bool   `env:"POSTGRES_ENABLED"`
	PostgresHost     string `env:"POSTGRES_HOST" validate:"required_if=PostgresEnabled true"`
	PostgresPort     string `env:"POSTGRES_PORT" validate:"required_if=PostgresEnabled true"`
	PostgresUser     string `env:"POSTGRES_USER" validate:"required_if=PostgresEnabled true"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresDB       string `env:"POSTGRES_DB" validate:"required_if=PostgresEnabled true"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE"`

	MaxRetries int    `env:"MAX_RETRIES" validate:"min=1"`
	LogLevel   string `env:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		InputPath: getEnv("INPUT_PATH", "./nyc-rolling-sales.csv"),
		SheetName: getEnv("SHEET_NAME", ""),

		RunMode:  strings.ToLower(getEnv("RUN_MODE", ModeOnce)),
		Schedule: getEnv("SCHEDULE", ""),

		ChartKind:        strings.ToLower(getEnv("CHART_KIND", "bar")),
		ChartFormat:      strings.ToLower(getEnv("CHART_FORMAT", "svg")),
		ChartPath:        getEnv("CHART_PATH", "./output/manhattan_chart.svg"),
		ChartPagePath:    getEnv("CHART_PAGE_PATH", "./output/manhattan_chart.html"),
		ChartShow:        getEnvBool("CHART_SHOW", false),
		ChartCapturePath: getEnv("CHART_CAPTURE_PATH", ""),
		ChromeBin:        getEnv("CHROME_BIN", ""),

		CSVOutputPath:  getEnv("CSV_OUTPUT_PATH", ""),
		XLSXOutputPath: getEnv("XLSX_OUTPUT_PATH", ""),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "sales"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "sales123"),
		PostgresDB:       getEnv("POSTGRES_DB", "nyc_sales"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxRetries: getEnvInt("MAX_RETRIES", 3),
		LogLevel:   strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

// Validate checks the config against its struct tags. The returned error
// names the offending environment variables.
func (c *Config) Validate() error {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("env")
	})

	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %q)", fe.Field(), fe.Tag(), fmt.Sprint(fe.Value())))
	}
	return fmt.Errorf("config: invalid settings: %s", strings.Join(msgs, "; "))
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
