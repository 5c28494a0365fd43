package internal

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/flexprice/invoicer/internal/auth"
)

// GenerateNewAPIKey generates a new API key and prints both the raw key and its configuration
func GenerateNewAPIKey() error {
	account := os.Getenv("ACCOUNT")
	if account == "" {
		return fmt.Errorf("ACCOUNT is required")
	}

	rawKey := auth.GenerateAPIKey()
	hashedKey := auth.HashAPIKey(rawKey)

	jsonBytes, err := json.Marshal(map[string]string{hashedKey: account})
	if err != nil {
		return err
	}

	fmt.Printf("\nNew API Key Generated:\n")
	fmt.Printf("Raw Key (give this to %s): %s\n", account, rawKey)
	fmt.Printf("\nConfiguration:\n")
	fmt.Printf("Add this to your config.yaml under auth.api_keys:\n")
	fmt.Printf("  %s: %s\n", hashedKey, account)
	fmt.Printf("\nOr set this environment variable:\n")
	fmt.Printf("INVOICER_AUTH_API_KEYS='%s'\n", string(jsonBytes))
	return nil
}
