package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/flexprice/invoicer/scripts/internal"
)

// Command represents a script that can be run
type Command struct {
	Name        string
	Description string
	Run         func() error
}

var commands = []Command{
	{
		Name:        "generate-apikey",
		Description: "Generate a new API key for an account",
		Run:         internal.GenerateNewAPIKey,
	},
	{
		Name:        "issue-token",
		Description: "Issue a bearer token for an account",
		Run:         internal.IssueToken,
	},
	{
		Name:        "seed-ledger",
		Description: "Mint balances and approve the settlement spender for an account",
		Run:         internal.SeedLedger,
	},
}

func main() {
	var (
		listCommands bool
		cmdName      string
		account      string
		stableAmt    string
		volatileAmt  string
		ttl          string
	)

	flag.BoolVar(&listCommands, "list", false, "List all available commands")
	flag.StringVar(&cmdName, "cmd", "", "Command to run")
	flag.StringVar(&account, "account", "", "Account the command acts for")
	flag.StringVar(&stableAmt, "stable", "", "Human readable amount of the stable asset")
	flag.StringVar(&volatileAmt, "volatile", "", "Human readable amount of the volatile asset")
	flag.StringVar(&ttl, "ttl", "", "Token lifetime, e.g. 720h")

	flag.Parse()

	if listCommands {
		fmt.Println("Available commands:")
		for _, cmd := range commands {
			fmt.Printf("  %-20s %s\n", cmd.Name, cmd.Description)
		}
		return
	}

	if cmdName == "" {
		log.Fatal("Please specify a command to run using -cmd flag. Use -list to see available commands.")
	}

	// Set command-specific environment variables
	if account != "" {
		os.Setenv("ACCOUNT", account)
	}
	if stableAmt != "" {
		os.Setenv("STABLE_AMOUNT", stableAmt)
	}
	if volatileAmt != "" {
		os.Setenv("VOLATILE_AMOUNT", volatileAmt)
	}
	if ttl != "" {
		os.Setenv("TOKEN_TTL", ttl)
	}

	for _, cmd := range commands {
		if cmd.Name == cmdName {
			if err := cmd.Run(); err != nil {
				log.Fatalf("Error running command %s: %v", cmdName, err)
			}
			return
		}
	}

	log.Fatalf("Unknown command: %s. Use -list to see available commands.", cmdName)
}
