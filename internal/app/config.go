package app

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/snacktacular/backend/pkg/config"
	"github.com/snacktacular/backend/pkg/secrets"
)

// LoadConfig reads .env, then Vault when VAULT_ENABLED is set, then the
// environment. The secrets result is zero when Vault is disabled.
func LoadConfig(ctx context.Context) (*config.Config, secrets.Result, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	var res secrets.Result
	if vault, ok := secrets.VaultFromEnv(); ok {
		var err error
		res, err = vault.Apply(ctx)
		if err != nil {
			return nil, res, fmt.Errorf("failed to load vault secrets: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, res, err
	}
	return cfg, res, nil
}
