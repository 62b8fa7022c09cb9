// internal/common/config/config.go
package config

import (
	"net/url"
	"strings"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	SharePoint    SharePointConfig   `mapstructure:"sharepoint"`
	Email         EmailConfig        `mapstructure:"email"`
	Graph         GraphConfig        `mapstructure:"graph"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Locking       LockingConfig      `mapstructure:"locking"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Camunda       CamundaConfig      `mapstructure:"camunda"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port               int    `mapstructure:"port"`
	BaseURL            string `mapstructure:"base_url"`
	MaxFileBytes       int64  `mapstructure:"max_file_bytes"`
	MaxRequestBytes    int64  `mapstructure:"max_request_bytes"`
	ExposeErrorDetails bool   `mapstructure:"expose_error_details"`
	ShutdownTimeout    int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// SharePointConfig locates the document library that holds client folders.
type SharePointConfig struct {
	SiteURL         string `mapstructure:"site_url"`
	SiteName        string `mapstructure:"site_name"`
	DocumentLibrary string `mapstructure:"document_library"`
	TenantID        string `mapstructure:"tenant_id"`
	ClientID        string `mapstructure:"client_id"`
	ClientSecret    string `mapstructure:"client_secret"`
}

// Hostname returns the host part of SiteURL.
func (s SharePointConfig) Hostname() string {
	u, err := url.Parse(s.SiteURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// SitePath returns the server-relative site path, e.g. /sites/AINexGen.
func (s SharePointConfig) SitePath() string {
	u, err := url.Parse(s.SiteURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "/sites/" + s.SiteName
	}
	return "/" + strings.Trim(u.Path, "/")
}

type EmailConfig struct {
	TenantID     string `mapstructure:"tenant_id"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	From         string `mapstructure:"from"`
	LegalTeam    string `mapstructure:"legal_team"`
}

type GraphConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	AuthorityURL string `mapstructure:"authority_url"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds
}

// NotificationConfig selects the approval-mail provider and the optional SMS ping.
type NotificationConfig struct {
	Provider string `mapstructure:"provider"` // "graph" or "ses"
	AWS      struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	SMS struct {
		Enabled       bool   `mapstructure:"enabled"`
		ApproverPhone string `mapstructure:"approver_phone"`
	} `mapstructure:"sms"`
}

type LockingConfig struct {
	Backend string `mapstructure:"backend"` // "memory" or "redis"
	TTL     int    `mapstructure:"ttl"`     // milliseconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CamundaConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BrokerAddress string `mapstructure:"broker_address"`
	MaxJobsActive int    `mapstructure:"max_jobs_active"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StorageCredentials returns the app registration used for the document library,
// falling back to the mail registration when none is configured.
func (c *Config) StorageCredentials() (tenantID, clientID, clientSecret string) {
	if c.SharePoint.TenantID != "" && c.SharePoint.ClientID != "" {
		return c.SharePoint.TenantID, c.SharePoint.ClientID, c.SharePoint.ClientSecret
	}
	return c.Email.TenantID, c.Email.ClientID, c.Email.ClientSecret
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
