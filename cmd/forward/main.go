// Command forward runs the buy-settle-send pipeline once for a given
// amount and destination, outside the deposit stream. Useful for
// reprocessing a deposit after a failed forward leg.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"autoswap/internal/forwarder"
	"autoswap/internal/storage/memory"
)

func main() {
	loadEnvFile()

	amountFlag := flag.String("amount", "", "USDC amount to spend (required)")
	sender := flag.String("sender", "", "Address to send the bought asset to (required)")
	targetCoin := flag.String("target-coin", "", "Asset to buy (default from service config)")
	slippageFlag := flag.String("slippage-percent", "", "Slippage tolerance (percent)")

	walletAddress := flag.String("wallet-address", os.Getenv("HYPERLIQUID_WALLET_ADDRESS"), "Wallet address holding the USDC")
	privateKey := flag.String("private-key", os.Getenv("HYPERLIQUID_PRIVATE_KEY"), "Signing private key (hex)")
	testnet := flag.Bool("testnet", os.Getenv("HYPERLIQUID_TESTNET") == "true", "Use testnet endpoints")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall pipeline timeout")

	flag.Parse()

	logger := log.New(os.Stderr, "[forward] ", log.LstdFlags)

	if *amountFlag == "" {
		logger.Fatal("--amount is required")
	}
	if *sender == "" {
		logger.Fatal("--sender is required")
	}
	amount, err := decimal.NewFromString(*amountFlag)
	if err != nil {
		logger.Fatalf("invalid --amount: %v", err)
	}
	slippage := decimal.Zero
	if *slippageFlag != "" {
		if slippage, err = decimal.NewFromString(*slippageFlag); err != nil {
			logger.Fatalf("invalid --slippage-percent: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	svc := forwarder.NewService(forwarder.ServiceConfig{
		Address:    *walletAddress,
		PrivateKey: *privateKey,
		Testnet:    *testnet,
	}, memory.NewTransactionStore(), nil, logger)

	tx, err := svc.Manual(ctx, amount, *sender, strings.ToUpper(*targetCoin), slippage)
	if err != nil {
		logger.Fatalf("manual process: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tx); err != nil {
		logger.Fatalf("encode result: %v", err)
	}
	if tx.Error != "" {
		os.Exit(1)
	}
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
