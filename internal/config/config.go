package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Config carries process configuration read from the environment.
type Config struct {
	Port         string
	DatabasePath string
	// PostgresURL selects PostgreSQL over the local SQLite file when set.
	PostgresURL string
	JWTSecret   string

	// Role bootstrap. The owner implicitly receives every role.
	OwnerAddress         common.Address
	EditorAddresses      []common.Address
	DistributorAddresses []common.Address

	// Ledger custody accounts for fundraised deposits and distribution
	// pools.
	FundraisingAccount  common.Address
	DistributionAccount common.Address
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		DatabasePath:        getEnv("DATABASE_PATH", "fundraising-ledger.db"),
		PostgresURL:         os.Getenv("POSTGRES_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		FundraisingAccount:  common.HexToAddress(getEnv("FUNDRAISING_ACCOUNT", "0x00000000000000000000000000000000000000F1")),
		DistributionAccount: common.HexToAddress(getEnv("DISTRIBUTION_ACCOUNT", "0x00000000000000000000000000000000000000F2")),
	}

	owner := os.Getenv("OWNER_ADDRESS")
	if owner == "" {
		return nil, fmt.Errorf("OWNER_ADDRESS is required")
	}
	if !common.IsHexAddress(owner) {
		return nil, fmt.Errorf("OWNER_ADDRESS is not a valid address: %s", owner)
	}
	cfg.OwnerAddress = common.HexToAddress(owner)

	var err error
	if cfg.EditorAddresses, err = parseAddressList(os.Getenv("EDITOR_ADDRESSES")); err != nil {
		return nil, fmt.Errorf("EDITOR_ADDRESSES: %w", err)
	}
	if cfg.DistributorAddresses, err = parseAddressList(os.Getenv("DISTRIBUTOR_ADDRESSES")); err != nil {
		return nil, fmt.Errorf("DISTRIBUTOR_ADDRESSES: %w", err)
	}

	return cfg, nil
}

func parseAddressList(raw string) ([]common.Address, error) {
	if raw == "" {
		return nil, nil
	}
	var addrs []common.Address
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !common.IsHexAddress(part) {
			return nil, fmt.Errorf("invalid address %q", part)
		}
		addrs = append(addrs, common.HexToAddress(part))
	}
	return addrs, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
