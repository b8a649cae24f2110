package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug     bool     `yaml:"debug" env:"DEBUG"`
	AppSecret string   `yaml:"app_secret" env:"APP_SECRET" env-required:"true"`
	Server    Server   `yaml:"server"`
	DB        DB       `yaml:"db"`
	Limiter   Limiter  `yaml:"limiter"`
	CORS      CORS     `yaml:"cors"`
	SMTP      SMTP     `yaml:"smtp"`
	Tokens    Tokens   `yaml:"tokens"`
	Tasks     Tasks    `yaml:"tasks"`
	Importer  Importer `yaml:"importer"`
}

type Limiter struct {
	Enabled bool    `yaml:"enabled" env:"LIMITER_ENABLED"`
	Rps     float64 `yaml:"rps" env-default:"20"`
	Burst   int     `yaml:"burst" env-default:"5"`
}

type Server struct {
	Port string `yaml:"port" env:"SERVER_PORT" env-default:"8000"`
	Host string `yaml:"host" env:"SERVER_HOST" env-default:"localhost"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"20s"`
}

func (s Server) Addr() string {
	return s.Host + ":" + s.Port
}

type DB struct {
	Dsn             string        `yaml:"dsn" env:"DB_DSN" env-required:"true"`
	MaxConns        int           `yaml:"max_conns" env-default:"25"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env-default:"10m"`
	Migrate         bool          `yaml:"migrate" env:"DB_MIGRATE" env-default:"true"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:","`
}

// SMTP configures confirmation mail delivery. When ApiToken is set mails go
// through the HTTP sending API at ApiURL instead of the SMTP server.
type SMTP struct {
	Host         string        `yaml:"host" env:"SMTP_HOST" env-default:"localhost"`
	Port         int           `yaml:"port" env:"SMTP_PORT" env-default:"25"`
	Username     string        `yaml:"username" env:"SMTP_USERNAME"`
	Password     string        `yaml:"password" env:"SMTP_PASSWORD"`
	Sender       string        `yaml:"sender" env:"SMTP_SENDER" env-default:"YaMDb <noreply@yamdb.local>"`
	Timeout      time.Duration `yaml:"timeout" env-default:"5s"`
	RetriesCount int           `yaml:"retries_count" env-default:"3"`
	ApiURL       string        `yaml:"api_url" env:"SMTP_API_URL"`
	ApiToken     string        `yaml:"api_token" env:"SMTP_API_TOKEN"`
}

type Tokens struct {
	AccessTTL time.Duration `yaml:"access_ttl" env-default:"24h"`
	HashCost  int           `yaml:"hash_cost" env-default:"10"`
}

type Tasks struct {
	Workers   int `yaml:"workers" env-default:"3"`
	QueueSize int `yaml:"queue_size" env-default:"100"`
}

type Importer struct {
	Dir string `yaml:"dir" env:"IMPORT_DIR" env-default:"static/data"`
}

// ResolvePath returns the config path from the -config flag, falling back to
// the CONFIG_PATH environment variable.
func ResolvePath() string {
	var path string
	if !flag.Parsed() {
		flag.StringVar(&path, "config", "", "path to config file")
		flag.Parse()
	}
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}

// MustLoad preloads .env when present and reads configPath with environment
// overrides.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if configPath == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file %s not found", configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
