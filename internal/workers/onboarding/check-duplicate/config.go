// internal/workers/onboarding/check-duplicate/config.go
package checkduplicate

type Config struct {
	MaxBodyBytes       int64
	ExposeErrorDetails bool
}

func LoadConfig() *Config {
	return &Config{
		MaxBodyBytes:       64 << 10,
		ExposeErrorDetails: true,
	}
}
