package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa de scanner y servidor.
type Config struct {
	Scanner    ScannerConfig     `yaml:"scanner"`
	Thresholds domain.Thresholds `yaml:"thresholds"`
	Storage    StorageConfig     `yaml:"storage"`
	Server     ServerConfig      `yaml:"server"`
	Log        LogConfig         `yaml:"log"`
}

// ScannerConfig controla el comportamiento del scanner.
type ScannerConfig struct {
	IntervalSeconds int      `yaml:"interval_seconds"`
	Symbols         []string `yaml:"symbols"`        // vacío = todos los de la fuente
	NativeMinutes   int      `yaml:"native_minutes"` // intervalo de las velas de entrada
	Workers         int      `yaml:"workers"`
	LoadsPerSecond  float64  `yaml:"loads_per_second"`
	Source          string   `yaml:"source"`   // csv | sqlite
	DataDir         string   `yaml:"data_dir"` // directorio de CSV
}

// StorageConfig controla dónde se guardan las velas.
type StorageConfig struct {
	DSN           string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
	RetentionDays int    `yaml:"retention_days"`
}

// ServerConfig controla la API HTTP.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las claves de thresholds ausentes conservan el valor de domain.DefaultThresholds.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodifica un YAML de configuración y aplica env y defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Config{Thresholds: domain.DefaultThresholds()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Parse: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ScanInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scanner.IntervalSeconds) * time.Second
}

// Retention devuelve la retención de velas (0 = sin límite).
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Storage.RetentionDays) * 24 * time.Hour
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("CFDALERT_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("CFDALERT_DATA_DIR"); v != "" {
		cfg.Scanner.DataDir = v
	}
	if v := os.Getenv("CFDALERT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CFDALERT_SCORE_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Thresholds.ScoreThreshold = n
		}
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Scanner.IntervalSeconds <= 0 {
		cfg.Scanner.IntervalSeconds = 60
	}
	if cfg.Scanner.NativeMinutes <= 0 {
		cfg.Scanner.NativeMinutes = domain.BaseMinutes
	}
	if cfg.Scanner.Source == "" {
		cfg.Scanner.Source = "csv"
	}
	if cfg.Scanner.DataDir == "" {
		cfg.Scanner.DataDir = "data"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "cfdalert.db"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func validate(cfg *Config) error {
	switch cfg.Scanner.Source {
	case "csv", "sqlite":
	default:
		return fmt.Errorf("config.validate: unknown scanner.source %q (want csv or sqlite)", cfg.Scanner.Source)
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return fmt.Errorf("config.validate: thresholds: %w", err)
	}
	return nil
}

// SetupLogger instala el logger slog por defecto según cfg, escribiendo en w.
func SetupLogger(cfg LogConfig, w io.Writer) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}
