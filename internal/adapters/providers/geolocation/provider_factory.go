package geolocation

import (
	"strings"

	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
	"github.com/snacktacular/backend/pkg/config"
)

// NewProvider selects the configured geolocation provider. Google without
// an API key falls back to the mock catalogue so development setups work.
func NewProvider(cfg config.GeolocationConfig, cache providers.CacheProvider) providers.GeolocationProvider {
	switch strings.ToLower(cfg.Provider) {
	case "google":
		if cfg.APIKey != "" {
			return NewGoogleGeolocationProvider(cfg.APIKey, cache)
		}
		observability.GetLogger().Warn().Msg("GEOLOCATION_API_KEY not set, using mock geolocation provider")
	}
	return NewMockGeolocationProvider()
}
