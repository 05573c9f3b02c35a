package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/claude/fitforge/internal/exercise"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Engine    EngineConfig    `yaml:"engine"`
	Profile   ProfileConfig   `yaml:"profile"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	// Driver is postgres (default), sqlite or memory.
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	// Path is the SQLite database file.
	Path string `yaml:"path"`
}

// AuthConfig protects the API with a bearer key. An empty key disables the
// check.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// EngineConfig tunes the fatigue engine. Zero values use the engine defaults.
type EngineConfig struct {
	RecoveryRatePerDay float64 `yaml:"recovery_rate_per_day"`
	CriticalThreshold  float64 `yaml:"critical_threshold"`
	WarningFraction    float64 `yaml:"warning_fraction"`
	SafetyCeiling      float64 `yaml:"safety_ceiling"`
	ReferenceVolume    float64 `yaml:"reference_volume"`
	BodyweightLoad     float64 `yaml:"bodyweight_load"`
	DefaultBaseline    float64 `yaml:"default_baseline"`
	BaselineIncrement  float64 `yaml:"baseline_increment"`
	RecentWindowDays   int     `yaml:"recent_window_days"`
}

// ProfileConfig describes the user's gym.
type ProfileConfig struct {
	Equipment []string `yaml:"equipment"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// ParsedEquipment returns the profile equipment as library values.
func (p ProfileConfig) ParsedEquipment() ([]exercise.Equipment, error) {
	out := make([]exercise.Equipment, 0, len(p.Equipment))
	for _, name := range p.Equipment {
		e, err := exercise.ParseEquipment(name)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix FITFORGE_ and underscore-separated paths:
//
//	FITFORGE_SERVER_HOST, FITFORGE_SERVER_PORT,
//	FITFORGE_DB_DRIVER, FITFORGE_DB_PATH,
//	FITFORGE_DB_HOST, FITFORGE_DB_PORT, FITFORGE_DB_NAME,
//	FITFORGE_DB_USER, FITFORGE_DB_PASSWORD, FITFORGE_DB_SSLMODE,
//	FITFORGE_AUTH_API_KEY,
//	FITFORGE_TS_ENABLED, FITFORGE_TS_HOSTNAME, FITFORGE_TS_STATE_DIR,
//	FITFORGE_RECOVERY_RATE, FITFORGE_PROFILE_EQUIPMENT (comma separated)
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverPostgres
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FITFORGE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FITFORGE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FITFORGE_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("FITFORGE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("FITFORGE_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FITFORGE_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FITFORGE_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("FITFORGE_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FITFORGE_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FITFORGE_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("FITFORGE_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("FITFORGE_TS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = enabled
		}
	}
	if v := os.Getenv("FITFORGE_TS_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("FITFORGE_TS_STATE_DIR"); v != "" {
		cfg.Tailscale.StateDir = v
	}
	if v := os.Getenv("FITFORGE_RECOVERY_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.RecoveryRatePerDay = rate
		}
	}
	if v := os.Getenv("FITFORGE_PROFILE_EQUIPMENT"); v != "" {
		var eq []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				eq = append(eq, part)
			}
		}
		cfg.Profile.Equipment = eq
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver %q is not one of postgres, sqlite, memory", c.Database.Driver)
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	e := c.Engine
	for name, v := range map[string]float64{
		"recovery_rate_per_day": e.RecoveryRatePerDay,
		"critical_threshold":    e.CriticalThreshold,
		"safety_ceiling":        e.SafetyCeiling,
		"reference_volume":      e.ReferenceVolume,
		"bodyweight_load":       e.BodyweightLoad,
		"default_baseline":      e.DefaultBaseline,
		"baseline_increment":    e.BaselineIncrement,
	} {
		if v < 0 {
			return fmt.Errorf("engine.%s must be >= 0", name)
		}
	}
	if e.WarningFraction < 0 || e.WarningFraction >= 1 {
		return fmt.Errorf("engine.warning_fraction must be in [0, 1)")
	}
	if e.RecentWindowDays < 0 {
		return fmt.Errorf("engine.recent_window_days must be >= 0")
	}
	if _, err := c.Profile.ParsedEquipment(); err != nil {
		return fmt.Errorf("profile.equipment: %w", err)
	}
	return nil
}
