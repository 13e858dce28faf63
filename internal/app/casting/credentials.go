package casting

import (
	"fmt"
	"strings"

	"github.com/casting-intake/internal/adapters/provider/bunny"
	"github.com/casting-intake/internal/adapters/provider/cloudflare"
	"github.com/casting-intake/internal/adapters/provider/youtube"
	"github.com/casting-intake/internal/core/services"
)

// Credentials holds provider secrets. Only presence is validated here; a bad
// key surfaces as a provider error on first use.
type Credentials struct {
	BunnyLibraryID string
	BunnyAPIKey    string
	BunnyBaseURL   string

	CloudflareAccountID string
	CloudflareAPIToken  string
	CloudflareBaseURL   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string
	YouTubeBaseURL     string
}

type credentialKey struct {
	name  string
	value string
}

func (c Credentials) keys(provider string) ([]credentialKey, error) {
	switch provider {
	case bunny.Tag:
		return []credentialKey{
			{"BUNNY_STREAM_LIBRARY_ID", c.BunnyLibraryID},
			{"BUNNY_VIDEO_API_KEY", c.BunnyAPIKey},
		}, nil
	case cloudflare.Tag:
		return []credentialKey{
			{"CLOUDFLARE_ACCOUNT_ID", c.CloudflareAccountID},
			{"CLOUDFLARE_API_TOKEN", c.CloudflareAPIToken},
		}, nil
	case youtube.Tag:
		return []credentialKey{
			{"GOOGLE_CLIENT_ID", c.GoogleClientID},
			{"GOOGLE_CLIENT_SECRET", c.GoogleClientSecret},
			{"GOOGLE_REFRESH_TOKEN", c.GoogleRefreshToken},
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", services.ErrUnknownProvider, provider)
}

// Require fails with ErrMissingCredentials naming every unset key.
func (c Credentials) Require(provider string) error {
	keys, err := c.keys(provider)
	if err != nil {
		return err
	}
	var missing []string
	for _, k := range keys {
		if strings.TrimSpace(k.value) == "" {
			missing = append(missing, k.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s needs %s", services.ErrMissingCredentials, provider, strings.Join(missing, ", "))
	}
	return nil
}

func (c Credentials) Configured(provider string) bool {
	return c.Require(provider) == nil
}

func (c Credentials) Bunny(rps float64) bunny.Config {
	return bunny.Config{BaseURL: c.BunnyBaseURL, LibraryID: c.BunnyLibraryID, APIKey: c.BunnyAPIKey, RPS: rps}
}

func (c Credentials) Cloudflare(rps float64) cloudflare.Config {
	return cloudflare.Config{BaseURL: c.CloudflareBaseURL, AccountID: c.CloudflareAccountID, APIToken: c.CloudflareAPIToken, RPS: rps}
}

func (c Credentials) YouTube(rps float64) youtube.Config {
	return youtube.Config{
		ClientID:     c.GoogleClientID,
		ClientSecret: c.GoogleClientSecret,
		RefreshToken: c.GoogleRefreshToken,
		BaseURL:      c.YouTubeBaseURL,
		RPS:          rps,
	}
}
