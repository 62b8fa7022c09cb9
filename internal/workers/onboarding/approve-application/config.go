// internal/workers/onboarding/approve-application/config.go
package approveapplication

import "time"

type Config struct {
	Timeout            time.Duration
	ExposeErrorDetails bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:            60 * time.Second,
		ExposeErrorDetails: true,
	}
}
