package config

import (
	"errors"
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"time"
)

var (
	ErrConfigNotLoaded = errors.New("config not loaded")
)

type Environment string

const (
	Production  Environment = "prod"
	Development Environment = "dev"
)

func (e *Environment) SetValue(s string) error {
	*e = Environment(s)
	return e.validate()
}

func (e *Environment) validate() error {
	if *e != Production && *e != Development {
		return configNotLoadedErr(`only "prod" and "dev" environments are allowed`)
	}
	return nil
}

type StorageDriver string

const (
	DriverMemory   StorageDriver = "memory"
	DriverPostgres StorageDriver = "postgres"
	DriverRedis    StorageDriver = "redis"
)

func (d *StorageDriver) SetValue(s string) error {
	*d = StorageDriver(s)
	return d.validate()
}

func (d *StorageDriver) validate() error {
	switch *d {
	case DriverMemory, DriverPostgres, DriverRedis:
		return nil
	default:
		return configNotLoadedErr(`storage driver must be one of "memory", "postgres", "redis"`)
	}
}

type Config struct {
	App struct {
		Env Environment `yaml:"env" env:"ENV" env-required:""`
	} `yaml:"app" env-prefix:"APP_"`

	Server struct {
		Host string `yaml:"host" env:"HOST" env-default:"localhost"`
		Port int    `yaml:"port" env:"PORT" env-default:"8080"`
	} `yaml:"server" env-prefix:"SERVER_"`

	Storage struct {
		Driver        StorageDriver `yaml:"driver" env:"DRIVER" env-default:"memory"`
		PurgeInterval time.Duration `yaml:"purge_interval" env:"PURGE_INTERVAL" env-default:"10m"`
	} `yaml:"storage" env-prefix:"STORAGE_"`

	DB struct {
		DSN string `yaml:"dsn" env:"DSN"`
	} `yaml:"db" env-prefix:"DB_"`

	Redis struct {
		Addr     string `yaml:"addr" env:"ADDR" env-default:"localhost:6379"`
		Password string `yaml:"password" env:"PASSWORD"`
		DB       int    `yaml:"db" env:"DB" env-default:"0"`
		PoolSize int    `yaml:"pool_size" env:"POOL_SIZE" env-default:"10"`
	} `yaml:"redis" env-prefix:"REDIS_"`

	Session struct {
		Secret string        `yaml:"secret" env:"SECRET" env-required:""`
		TTL    time.Duration `yaml:"ttl" env:"TTL" env-default:"2h"`
	} `yaml:"session" env-prefix:"SESSION_"`

	Nutrition struct {
		GoalPolicy string `yaml:"goal_policy" env:"GOAL_POLICY" env-default:"fixed_deficit"`
	} `yaml:"nutrition" env-prefix:"NUTRITION_"`

	Payment struct {
		ContactEmail string `yaml:"contact_email" env:"CONTACT_EMAIL" env-default:"pana74269@gmail.com"`
	} `yaml:"payment" env-prefix:"PAYMENT_"`
}

func Load(filePath string) (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadConfig(filePath, cfg); err != nil {
		return nil, configNotLoadedErr("config not loaded: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func MustLoad(filePath string) *Config {
	cfg, err := Load(filePath)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks values that cleanenv only checks when they come from the
// environment.
func (c *Config) Validate() error {
	if err := c.App.Env.validate(); err != nil {
		return err
	}
	if err := c.Storage.Driver.validate(); err != nil {
		return err
	}
	if c.Storage.Driver == DriverPostgres && c.DB.DSN == "" {
		return configNotLoadedErr("db.dsn is required for the postgres storage driver")
	}
	if c.Session.TTL <= 0 {
		return configNotLoadedErr("session.ttl must be positive")
	}
	return nil
}

func configNotLoadedErr(format string, args ...any) error {
	return errors.Join(fmt.Errorf(format, args...), ErrConfigNotLoaded)
}
