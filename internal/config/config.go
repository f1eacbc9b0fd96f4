package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr" env:"LISTEN_ADDR" env-default:":8080"`
	GinMode    string `yaml:"gin_mode" env:"GIN_MODE" env-default:"debug"`

	DBDriver   string `yaml:"db_driver" env:"DB_DRIVER" env-default:"mysql"`
	DBHost     string `yaml:"db_host" env:"DB_HOST" env-default:"localhost"`
	DBPort     string `yaml:"db_port" env:"DB_PORT" env-default:"3306"`
	DBUser     string `yaml:"db_user" env:"DB_USER" env-default:"root"`
	DBPassword string `yaml:"db_password" env:"DB_PASSWORD" env-default:"password"`
	DBName     string `yaml:"db_name" env:"DB_NAME" env-default:"ducktodo"`

	RedisHost     string `yaml:"redis_host" env:"REDIS_HOST" env-default:"localhost"`
	RedisPort     string `yaml:"redis_port" env:"REDIS_PORT" env-default:"6379"`
	SessionSecret string `yaml:"session_secret" env:"SESSION_SECRET" env-default:"your-secret-key-change-in-production"`

	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFile  string `yaml:"log_file" env:"LOG_FILE"`

	Storage StorageConfig `yaml:"storage"`
}

// StorageConfig points at an S3-compatible bucket holding task attachments.
// An empty Endpoint disables object removal.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT"`
	Region    string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	Bucket    string `yaml:"bucket" env:"S3_BUCKET" env-default:"ducktodo"`
	AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
}

// Load reads the YAML file at path when it exists and the environment otherwise.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env: %w", err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return nil, fmt.Errorf("failed to read config %q: %w", path, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env: %w", err)
		}
	}

	return &cfg, nil
}

func (c *Config) Release() bool {
	return c.GinMode == "release"
}
