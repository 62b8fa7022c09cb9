// internal/common/auth/entra.go
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// GraphScope requests every application permission granted to the app registration.
const GraphScope = "https://graph.microsoft.com/.default"

// ClientCredentials identifies an app registration in a Microsoft Entra tenant.
type ClientCredentials struct {
	AuthorityURL string // e.g. https://login.microsoftonline.com
	TenantID     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// TokenURL returns the v2.0 token endpoint for the tenant.
func (c ClientCredentials) TokenURL() string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimSuffix(c.AuthorityURL, "/"), c.TenantID)
}

func (c ClientCredentials) oauthConfig() *clientcredentials.Config {
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = []string{GraphScope}
	}
	return &clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL(),
		Scopes:       scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
}

// NewHTTPClient returns a client that attaches a cached app-only bearer token
// to every request. Tokens are fetched lazily, so missing credentials only
// fail when the first request is made.
func NewHTTPClient(ctx context.Context, creds ClientCredentials, timeout time.Duration) *http.Client {
	base := &http.Client{Timeout: timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	client := oauth2.NewClient(ctx, creds.oauthConfig().TokenSource(ctx))
	client.Timeout = timeout
	return client
}
