package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/po-workflow/internal/domain/authz"
)

// EnvPrefix prefixes every environment override, e.g. POWF_SERVER_PORT
const EnvPrefix = "POWF"

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Logger        LoggerConfig        `mapstructure:"logger"`
	Authorization AuthorizationConfig `mapstructure:"authorization"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
	// MigrationsDir overrides the migrations compiled into the binary
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// AuthorizationConfig holds the role and transition table
type AuthorizationConfig struct {
	AdminRole   string                 `mapstructure:"admin_role"`
	Roles       []RoleConfig           `mapstructure:"roles"`
	Transitions []TransitionRuleConfig `mapstructure:"transitions"`
}

// RoleConfig lists the actions granted to a role.
// Roles are a list rather than a map because viper lowercases map keys.
type RoleConfig struct {
	Name    string   `mapstructure:"name"`
	Actions []string `mapstructure:"actions"`
}

// TransitionRuleConfig permits one role to move one entity type between two states
type TransitionRuleConfig struct {
	Role       string `mapstructure:"role"`
	From       string `mapstructure:"from"`
	To         string `mapstructure:"to"`
	EntityType string `mapstructure:"entity_type"`
}

// Load loads configuration from file, an optional .env file and environment variables
func Load(configPath string) (*Config, error) {
	return LoadWithEnvFile(configPath, ".env")
}

// LoadWithEnvFile is Load with an explicit .env location. A missing env file is not an error.
func LoadWithEnvFile(configPath, envFile string) (*Config, error) {
	if envFile != "" {
		// Variables already set in the process win over the file
		if err := gotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/workflow.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.busy_timeout", 5*time.Second)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds the unprefixed variables used by deployments
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("database.path", EnvPrefix+"_DATABASE_PATH", "DATABASE_PATH")
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("logger.level", EnvPrefix+"_LOGGER_LEVEL", "LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}

	for i, role := range c.Authorization.Roles {
		if role.Name == "" {
			return fmt.Errorf("authorization.roles[%d]: name is required", i)
		}
	}
	for i, rule := range c.Authorization.Transitions {
		if rule.Role == "" || rule.From == "" || rule.To == "" || rule.EntityType == "" {
			return fmt.Errorf("authorization.transitions[%d]: role, from, to and entity_type are required", i)
		}
	}
	if len(c.Authorization.Roles) > 0 && c.Authorization.AdminRole == "" {
		return fmt.Errorf("authorization.admin_role is required when roles are configured")
	}

	return nil
}

// ToAuthz converts the authorization section. An empty section yields authz.DefaultConfig.
func (a AuthorizationConfig) ToAuthz() authz.Config {
	if a.AdminRole == "" && len(a.Roles) == 0 && len(a.Transitions) == 0 {
		return authz.DefaultConfig()
	}

	cfg := authz.Config{
		AdminRole:   authz.Role(a.AdminRole),
		Roles:       make(map[authz.Role][]authz.Action, len(a.Roles)),
		Transitions: make([]authz.TransitionRule, 0, len(a.Transitions)),
	}

	for _, role := range a.Roles {
		actions := make([]authz.Action, 0, len(role.Actions))
		for _, action := range role.Actions {
			actions = append(actions, authz.Action(action))
		}
		cfg.Roles[authz.Role(role.Name)] = actions
	}

	for _, rule := range a.Transitions {
		cfg.Transitions = append(cfg.Transitions, authz.TransitionRule{
			Role:       authz.Role(rule.Role),
			From:       rule.From,
			To:         rule.To,
			EntityType: rule.EntityType,
		})
	}

	return cfg
}
