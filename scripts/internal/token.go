package internal

import (
	"fmt"
	"os"
	"time"

	"github.com/flexprice/invoicer/internal/auth"
	"github.com/flexprice/invoicer/internal/config"
)

// IssueToken signs a bearer token for ACCOUNT with the configured secret
func IssueToken() error {
	account := os.Getenv("ACCOUNT")
	if account == "" {
		return fmt.Errorf("ACCOUNT is required")
	}

	ttl := auth.DefaultTokenTTL
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL: %w", err)
		}
		ttl = parsed
	}

	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}

	token, err := auth.NewProvider(cfg).GenerateToken(account, ttl)
	if err != nil {
		return err
	}

	fmt.Printf("Bearer token for %s (expires in %s):\n%s\n", account, ttl, token)
	return nil
}
