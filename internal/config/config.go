package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rocketscienceinc/connectfour/internal/entity"
)

const (
	PlayerHuman    = "human"
	PlayerComputer = "computer"
)

var (
	ErrInvalidRole   = errors.New("invalid role")
	ErrInvalidPlayer = errors.New("invalid player")
	ErrInvalidPort   = errors.New("invalid port")
)

type Config struct {
	LogLevel string `yaml:"log-level" env:"C4_LOG_LEVEL" env-default:"info"`
	Role     string `yaml:"role"      env:"C4_ROLE"      env-default:"host"`
	Player   string `yaml:"player"    env:"C4_PLAYER"    env-default:"human"`
	Host     string `yaml:"host"      env:"C4_HOST"      env-default:"localhost"`
	Port     int    `yaml:"port"      env:"C4_PORT"      env-default:"4000"`
	Seed     int64  `yaml:"seed"      env:"C4_SEED"      env-default:"0"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load reads path and applies C4_* environment overrides on top.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func (that *Config) Validate() error {
	if !entity.Role(that.Role).IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, that.Role)
	}

	if that.Player != PlayerHuman && that.Player != PlayerComputer {
		return fmt.Errorf("%w: %q", ErrInvalidPlayer, that.Player)
	}

	if that.Port < 0 || that.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, that.Port)
	}

	return nil
}

func (that *Config) GetRole() entity.Role {
	return entity.Role(that.Role)
}

func (that *Config) IsComputer() bool {
	return that.Player == PlayerComputer
}

// GetAddr is the address the host listens on and the peer dials.
func (that *Config) GetAddr() string {
	return net.JoinHostPort(that.Host, strconv.Itoa(that.Port))
}
