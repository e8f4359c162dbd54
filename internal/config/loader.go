package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/rpattn/dimstore/internal/db"
	"github.com/rpattn/dimstore/internal/domain"
	"github.com/rpattn/dimstore/pkg/validator"
)

// Config is the full runtime configuration.
type Config struct {
	Database   db.Config
	Server     ServerConfig
	Dimensions []domain.Dimension
	// Fields holds optional per-dimension property declarations used by
	// the validation pipeline stage.
	Fields map[string]map[string]validator.FieldDefinition
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

type dimensionEntry struct {
	Name          string                `mapstructure:"name"`
	Table         string                `mapstructure:"table"`
	PrimaryKey    string                `mapstructure:"primary_key"`
	CurrentColumn string                `mapstructure:"current_column"`
	LockColumn    string                `mapstructure:"lock_column"`
	ScopeColumns  []string              `mapstructure:"scope_columns"`
	Fields        map[string]fieldEntry `mapstructure:"fields"`
}

type fieldEntry struct {
	Type     string `mapstructure:"type"`
	Required bool   `mapstructure:"required"`
}

// Load reads config.yaml from configPath with environment overrides.
func Load(configPath string) (Config, error) {
	cfg := Config{
		Database: db.DefaultConfig(),
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Dimensions: DefaultDimensions(),
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("DIMSTORE")

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.addr")

	if err := v.ReadInConfig(); err != nil {
		logrus.Info("No config.yaml found, using defaults and env vars")
	} else {
		logrus.Info("Loaded config.yaml")
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}

	if v.IsSet("dimensions") {
		var entries []dimensionEntry
		if err := v.UnmarshalKey("dimensions", &entries); err != nil {
			return Config{}, fmt.Errorf("failed to parse dimensions config: %w", err)
		}
		dims, fields, err := buildDimensions(entries)
		if err != nil {
			return Config{}, err
		}
		cfg.Dimensions = dims
		cfg.Fields = fields
	}

	return cfg, nil
}

func buildDimensions(entries []dimensionEntry) ([]domain.Dimension, map[string]map[string]validator.FieldDefinition, error) {
	dims := make([]domain.Dimension, 0, len(entries))
	fields := make(map[string]map[string]validator.FieldDefinition)
	for _, entry := range entries {
		dim := domain.NewDimension(entry.Name, entry.Table, entry.ScopeColumns...)
		if entry.PrimaryKey != "" {
			dim.PrimaryKey = entry.PrimaryKey
		}
		if entry.CurrentColumn != "" {
			dim.CurrentColumn = entry.CurrentColumn
		}
		// lock_column may be set empty on purpose to disable the
		// optimistic predicate for a dimension.
		dim.LockColumn = entry.LockColumn
		if err := dim.Validate(); err != nil {
			return nil, nil, fmt.Errorf("invalid dimension config: %w", err)
		}
		dims = append(dims, dim)

		if len(entry.Fields) > 0 {
			defs := make(map[string]validator.FieldDefinition, len(entry.Fields))
			for name, f := range entry.Fields {
				defs[name] = validator.FieldDefinition{
					Type:     validator.FieldType(f.Type),
					Required: f.Required,
				}
			}
			fields[dim.Name] = defs
		}
	}
	return dims, fields, nil
}

// DefaultDimensions matches the tables shipped in the migrations.
func DefaultDimensions() []domain.Dimension {
	return []domain.Dimension{
		domain.NewDimension("customer", "customers", "account_id"),
		domain.NewDimension("product_price", "product_prices", "product_id", "region"),
	}
}
