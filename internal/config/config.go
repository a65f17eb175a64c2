package config

import (
	"flag"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Env             string        `yaml:"env" env:"ENV" env-default:"local" env-description:"Environment" env-choices:"local,dev,prod"`
	ApiPort         int           `yaml:"api_port" env:"API_PORT" env-default:"8000"`
	ApiHost         string        `yaml:"api_host" env:"API_HOST" env-default:"localhost"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"5s"`
	Storage         string        `yaml:"storage" env:"STORAGE" env-default:"postgres" env-description:"Storage backend" env-choices:"postgres,memory"`
	Postgres        `yaml:"postgres"`
	Auth            `yaml:"auth"`
	Bank            `yaml:"bank"`
}

type Postgres struct {
	Host    string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User    string `yaml:"user" env:"POSTGRES_USER" env-default:"bank"`
	Pass    string `yaml:"pass" env:"POSTGRES_PASSWORD" env-default:"bank"`
	Db      string `yaml:"db" env:"POSTGRES_DB" env-default:"bank"`
	SSLMode string `yaml:"sslmode" env:"POSTGRES_SSLMODE" env-default:"disable"`
}

// DSN returns the lib/pq connection URL.
func (p Postgres) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Pass),
		Host:     net.JoinHostPort(p.Host, p.Port),
		Path:     "/" + p.Db,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}
	return u.String()
}

type Auth struct {
	TokenTTL    time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"24h"`
	RememberTTL time.Duration `yaml:"remember_ttl" env:"REMEMBER_TTL" env-default:"720h"`
	BcryptCost  int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

type Bank struct {
	// SeedBalance is credited to every newly registered profile.
	SeedBalance string `yaml:"seed_balance" env:"SEED_BALANCE" env-default:"10000"`
}

func MustLoad() *Config {
	path := fetchConfigPath()

	if path == "" {
		panic("config path is empty")
	}

	cfg, err := Load(path)
	if err != nil {
		panic("Failed to read config: " + err.Error())
	}

	return cfg
}

// Load reads the YAML file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, err
	}

	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
