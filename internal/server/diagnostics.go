// internal/server/diagnostics.go
package server

import (
	"net/http"
	"runtime"
	"time"

	apperrors "client-onboarding/internal/common/errors"
	httpx "client-onboarding/internal/common/http"
)

type HealthResponse struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Config    HealthConfig `json:"config"`
}

// HealthConfig echoes non-secret settings.
type HealthConfig struct {
	SharePoint      string `json:"sharepoint"`
	DocumentLibrary string `json:"documentLibrary"`
	EmailFrom       string `json:"emailFrom"`
}

type DiagnosticsResponse struct {
	Status         string          `json:"status"`
	Timestamp      string          `json:"timestamp"`
	Environment    string          `json:"environment"`
	Version        string          `json:"version"`
	GoVersion      string          `json:"go_version"`
	Platform       string          `json:"platform"`
	EnvVarsPresent map[string]bool `json:"env_vars_present"`
}

type DriveSummary struct {
	Name   string `json:"name"`
	ID     string `json:"id"`
	WebURL string `json:"webUrl"`
}

type DrivesResponse struct {
	Success bool           `json:"success"`
	Drives  []DriveSummary `json:"drives,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "OK",
		Timestamp: s.timestamp(),
		Config: HealthConfig{
			SharePoint:      s.config.SharePoint.SiteURL,
			DocumentLibrary: s.config.SharePoint.DocumentLibrary,
			EmailFrom:       s.config.Email.From,
		},
	})
}

func (s *Server) diagnostics(w http.ResponseWriter, r *http.Request) {
	c := s.config
	httpx.WriteJSON(w, http.StatusOK, DiagnosticsResponse{
		Status:      "OK",
		Timestamp:   s.timestamp(),
		Environment: c.App.Environment,
		Version:     c.App.Version,
		GoVersion:   runtime.Version(),
		Platform:    runtime.GOOS,
		EnvVarsPresent: map[string]bool{
			"SHAREPOINT_TENANT_ID":     c.SharePoint.TenantID != "",
			"SHAREPOINT_CLIENT_ID":     c.SharePoint.ClientID != "",
			"SHAREPOINT_CLIENT_SECRET": c.SharePoint.ClientSecret != "",
			"EMAIL_TENANT_ID":          c.Email.TenantID != "",
			"EMAIL_CLIENT_ID":          c.Email.ClientID != "",
			"EMAIL_CLIENT_SECRET":      c.Email.ClientSecret != "",
			"BASE_URL":                 s.envSet("BASE_URL"),
		},
	})
}

// envSet reports whether the variable was set in the environment, ignoring
// defaults applied by the config loader.
func (s *Server) envSet(key string) bool {
	v, ok := s.env(key)
	return ok && v != ""
}

func (s *Server) drives(w http.ResponseWriter, r *http.Request) {
	drives, err := s.store.ListDrives(r.Context())
	if err != nil {
		s.logger.Error("listing drives failed", map[string]interface{}{"error": err.Error()})
		httpx.WriteJSON(w, http.StatusInternalServerError, DrivesResponse{
			Success: false,
			Error:   apperrors.Describe(err, s.config.Server.ExposeErrorDetails),
		})
		return
	}

	out := make([]DriveSummary, 0, len(drives))
	for _, d := range drives {
		out = append(out, DriveSummary{Name: d.Name, ID: d.ID, WebURL: d.WebURL})
	}
	httpx.WriteJSON(w, http.StatusOK, DrivesResponse{Success: true, Drives: out})
}
