package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store kinds accepted by History.Store.
const (
	StoreNone     = "none"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreREST     = "rest"
)

type Config struct {
	HTTPAddr   string     `yaml:"http_addr"`
	Calculator Calculator `yaml:"calculator"`
	History    History    `yaml:"history"`
}

type Calculator struct {
	ErrorReset time.Duration `yaml:"error_reset"`
}

type History struct {
	Store   string        `yaml:"store"`
	Limit   int           `yaml:"limit"`
	Timeout time.Duration `yaml:"timeout"`

	Postgres Postgres `yaml:"postgres"`
	REST     REST     `yaml:"rest"`
}

type Postgres struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

type REST struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Table  string `yaml:"table"`
}

func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		Calculator: Calculator{
			ErrorReset: 1500 * time.Millisecond,
		},
		History: History{
			Store:    StoreNone,
			Limit:    20,
			Timeout:  5 * time.Second,
			Postgres: Postgres{Table: "calculator_history"},
			REST:     REST{Table: "calculator_history"},
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (or
// $CALC_CONFIG when path is empty) and environment overrides, then
// validates it. A missing file is only an error when path was given
// explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("CALC_CONFIG")
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, err
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"HTTP_ADDR":          &c.HTTPAddr,
		"HISTORY_STORE":      &c.History.Store,
		"HISTORY_PG_DSN":     &c.History.Postgres.DSN,
		"HISTORY_PG_TABLE":   &c.History.Postgres.Table,
		"HISTORY_REST_URL":   &c.History.REST.URL,
		"HISTORY_REST_KEY":   &c.History.REST.APIKey,
		"HISTORY_REST_TABLE": &c.History.REST.Table,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	dur := map[string]*time.Duration{
		"HISTORY_TIMEOUT":  &c.History.Timeout,
		"CALC_ERROR_RESET": &c.Calculator.ErrorReset,
	}
	for key, dst := range dur {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	c.History.Store = strings.ToLower(strings.TrimSpace(c.History.Store))
	return nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.History.Store {
	case StoreNone, StoreMemory:
	case StorePostgres:
		if c.History.Postgres.DSN == "" {
			errs = append(errs, errors.New("history.postgres.dsn is required for the postgres store"))
		}
	case StoreREST:
		if c.History.REST.URL == "" {
			errs = append(errs, errors.New("history.rest.url is required for the rest store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown history store %q", c.History.Store))
	}

	if c.History.Limit <= 0 {
		errs = append(errs, fmt.Errorf("history.limit must be positive, got %d", c.History.Limit))
	}
	if c.History.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("history.timeout must be positive, got %s", c.History.Timeout))
	}
	if c.Calculator.ErrorReset <= 0 {
		errs = append(errs, fmt.Errorf("calculator.error_reset must be positive, got %s", c.Calculator.ErrorReset))
	}

	return errors.Join(errs...)
}
