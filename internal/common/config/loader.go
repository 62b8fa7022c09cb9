// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// legacyEnv binds keys whose environment names do not follow the section_key form.
var legacyEnv = map[string]string{
	"server.port":     "PORT",
	"server.base_url": "BASE_URL",
	"app.environment": "APP_ENVIRONMENT",
}

func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := v.GetString("app.environment")
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional per-environment overlay

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		_ = v.BindEnv(key, env)
	}
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "client-onboarding")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.base_url", "http://localhost:3000")
	v.SetDefault("server.max_file_bytes", 10<<20)
	v.SetDefault("server.max_request_bytes", 50<<20)
	v.SetDefault("server.expose_error_details", true)
	v.SetDefault("server.shutdown_timeout", 30000)

	v.SetDefault("sharepoint.site_url", "https://ibvza.sharepoint.com/sites/AINexGen")
	v.SetDefault("sharepoint.site_name", "AINexGen")
	v.SetDefault("sharepoint.document_library", "Gold Pre-Trade Clients")
	v.SetDefault("sharepoint.tenant_id", "")
	v.SetDefault("sharepoint.client_id", "")
	v.SetDefault("sharepoint.client_secret", "")

	v.SetDefault("email.tenant_id", "")
	v.SetDefault("email.client_id", "")
	v.SetDefault("email.client_secret", "")
	v.SetDefault("email.from", "")
	v.SetDefault("email.legal_team", "")

	v.SetDefault("graph.base_url", "https://graph.microsoft.com/v1.0")
	v.SetDefault("graph.authority_url", "https://login.microsoftonline.com")
	v.SetDefault("graph.timeout", 60000)

	v.SetDefault("notifications.provider", "graph")
	v.SetDefault("notifications.aws.region", "af-south-1")
	v.SetDefault("notifications.sms.enabled", false)
	v.SetDefault("notifications.sms.approver_phone", "")

	v.SetDefault("locking.backend", "memory")
	v.SetDefault("locking.ttl", 120000)

	v.SetDefault("database.redis.address", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("camunda.enabled", false)
	v.SetDefault("camunda.broker_address", "")
	v.SetDefault("camunda.max_jobs_active", 5)
	v.SetDefault("camunda.timeout", 60000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// loadEnvFile loads the first .env found from the working directory up to the project root.
func loadEnvFile() string {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults fills values that may have been zeroed by an explicit config file entry.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	cfg.Server.BaseURL = strings.TrimSuffix(cfg.Server.BaseURL, "/")
	if cfg.Server.MaxFileBytes <= 0 {
		cfg.Server.MaxFileBytes = 10 << 20
	}
	if cfg.Server.MaxRequestBytes < cfg.Server.MaxFileBytes {
		cfg.Server.MaxRequestBytes = cfg.Server.MaxFileBytes
	}

	cfg.SharePoint.SiteURL = strings.TrimSuffix(cfg.SharePoint.SiteURL, "/")
	cfg.Graph.BaseURL = strings.TrimSuffix(cfg.Graph.BaseURL, "/")
	cfg.Graph.AuthorityURL = strings.TrimSuffix(cfg.Graph.AuthorityURL, "/")
	if cfg.Graph.Timeout == 0 {
		cfg.Graph.Timeout = 60000
	}

	cfg.Notifications.Provider = strings.ToLower(cfg.Notifications.Provider)
	if cfg.Notifications.Provider == "" {
		cfg.Notifications.Provider = "graph"
	}
	cfg.Locking.Backend = strings.ToLower(cfg.Locking.Backend)
	if cfg.Locking.Backend == "" {
		cfg.Locking.Backend = "memory"
	}
	if cfg.Locking.TTL == 0 {
		cfg.Locking.TTL = 120000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 5
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 60000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// validateConfig checks runtime settings only. Missing credentials surface
// on the first external call instead of at startup.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if cfg.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}

	switch cfg.Notifications.Provider {
	case "graph", "ses":
	default:
		return fmt.Errorf("notifications.provider must be graph or ses, got %q", cfg.Notifications.Provider)
	}
	if cfg.Notifications.SMS.Enabled && cfg.Notifications.SMS.ApproverPhone == "" {
		return fmt.Errorf("notifications.sms.approver_phone is required when sms is enabled")
	}

	switch cfg.Locking.Backend {
	case "memory":
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis lock backend")
		}
	default:
		return fmt.Errorf("locking.backend must be memory or redis, got %q", cfg.Locking.Backend)
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}
	return nil
}
