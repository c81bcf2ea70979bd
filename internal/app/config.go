package app

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/Hum-Bao/canvas-enable-totals/internal/scoring"
)

const (
	envDatabaseDSN = "TOTALS_DATABASE_DSN"
	envServerPort  = "TOTALS_SERVER_PORT"

	defaultPageCacheSize = 64
)

type HeaderConfig struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type Config struct {
	Server struct {
		Port        string   `toml:"port"`
		CORSOrigins []string `toml:"cors_origins"`
	} `toml:"server"`

	API struct {
		RequiredHeaders []HeaderConfig `toml:"required_headers"`
	} `toml:"api"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Scoring scoring.Grader `toml:"scoring"`

	Extract struct {
		SkipZeroWeight bool `toml:"skip_zero_weight"`
		CacheSize      int  `toml:"cache_size"`
	} `toml:"extract"`
}

func defaultConfig() Config {
	var config Config
	config.Scoring.WeightTolerance = scoring.DefaultWeightTolerance
	config.Extract.SkipZeroWeight = true
	config.Extract.CacheSize = defaultPageCacheSize
	return config
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := defaultConfig()
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	config.applyEnv()

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}

	logger.Debug.Printf("Loaded scoring config: %+v", config.Scoring)
	logger.Debug.Printf("Loaded extract config: %+v", config.Extract)

	return &config, nil
}

func (c *Config) applyEnv() {
	if dsn := os.Getenv(envDatabaseDSN); dsn != "" {
		c.Database.DSN = dsn
	}
	if port := os.Getenv(envServerPort); port != "" {
		c.Server.Port = port
	}
}
