// internal/workers/onboarding/submit-application/config.go
package submitapplication

type Config struct {
	MaxFileBytes       int64
	MaxFieldBytes      int64
	MaxRequestBytes    int64
	UploadConcurrency  int
	TempDir            string
	BaseURL            string
	SiteURL            string
	SiteName           string
	DocumentLibrary    string
	ExposeErrorDetails bool
}

func LoadConfig() *Config {
	return &Config{
		MaxFileBytes:       10 << 20,
		MaxFieldBytes:      10 << 20,
		MaxRequestBytes:    50 << 20,
		UploadConcurrency:  4,
		BaseURL:            "http://localhost:3000",
		SiteURL:            "https://ibvza.sharepoint.com/sites/AINexGen",
		SiteName:           "AINexGen",
		DocumentLibrary:    "Gold Pre-Trade Clients",
		ExposeErrorDetails: true,
	}
}
