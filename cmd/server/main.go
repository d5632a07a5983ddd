package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"autoswap/internal/forwarder"
	"autoswap/internal/server"
	"autoswap/internal/storage"
	chstore "autoswap/internal/storage/clickhouse"
	"autoswap/internal/storage/memory"
	"autoswap/internal/storage/migrations"
	pgstore "autoswap/internal/storage/postgres"
)

func main() {
	loadEnvFile()

	// Parse flags (env vars provide defaults)
	walletAddress := flag.String("wallet-address", os.Getenv("HYPERLIQUID_WALLET_ADDRESS"), "Monitored wallet address")
	privateKey := flag.String("private-key", os.Getenv("HYPERLIQUID_PRIVATE_KEY"), "Signing private key (hex)")
	testnet := flag.Bool("testnet", os.Getenv("HYPERLIQUID_TESTNET") == "true", "Use testnet endpoints")

	targetCoin := flag.String("target-coin", envOr("TARGET_COIN", "HYPE"), "Asset bought with incoming USDC")
	minOrderAmount := flag.String("min-order-amount", envOr("MIN_ORDER_AMOUNT", "1"), "Minimum deposit to act on (USDC)")
	slippagePercent := flag.String("slippage-percent", envOr("SLIPPAGE_PERCENT", "5"), "Order slippage tolerance (percent)")

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (optional, defaults to in-memory ledger)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional audit archive)")
	useMemory := flag.Bool("use-memory", false, "Force the in-memory ledger even when DSNs are set")

	listenAddr := flag.String("listen", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	autoStart := flag.Bool("auto-start", os.Getenv("AUTO_START") == "true", "Start monitoring on boot")

	flag.Parse()

	logger := log.New(os.Stderr, "[autoswap] ", log.LstdFlags)

	minAmount, err := decimal.NewFromString(*minOrderAmount)
	if err != nil {
		logger.Fatalf("invalid --min-order-amount: %v", err)
	}
	slippage, err := decimal.NewFromString(*slippagePercent)
	if err != nil {
		logger.Fatalf("invalid --slippage-percent: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Ledger store
	var store storage.TransactionStore = memory.NewTransactionStore()
	if *postgresDSN != "" && !*useMemory {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("run postgres migrations: %v", err)
		}
		store = pgstore.NewTransactionStore(pool)
		logger.Printf("ledger: postgres")
	} else {
		logger.Printf("ledger: in-memory")
	}

	// Optional audit archive
	var audit storage.AuditStore
	if *clickhouseDSN != "" && !*useMemory {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("run clickhouse migrations: %v", err)
		}
		defer conn.Close()
		audit = chstore.NewAuditStore(conn)
		logger.Printf("audit archive: clickhouse")
	}

	svc := forwarder.NewService(forwarder.ServiceConfig{
		Address:    *walletAddress,
		PrivateKey: *privateKey,
		Testnet:    *testnet,
		Pipeline: forwarder.Config{
			TargetCoin:      strings.ToUpper(*targetCoin),
			MinOrderAmount:  minAmount,
			SlippagePercent: slippage,
		},
	}, store, audit, logger)

	if *autoStart {
		msg, err := svc.StartMonitoring(ctx, forwarder.StartOptions{})
		if err != nil {
			logger.Fatalf("auto-start monitoring: %v", err)
		}
		logger.Printf("%s", msg)
	}

	srv := &http.Server{
		Addr:              *listenAddr,
		Handler:           server.New(svc, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		svc.StopMonitoring()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("http shutdown: %v", err)
		}
	}()

	logger.Printf("operator API listening on %s", *listenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("http server: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
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

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
