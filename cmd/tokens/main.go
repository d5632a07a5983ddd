// Command tokens inspects Hyperliquid spot metadata: token ids, size
// decimals and the locally configured price tick for a symbol.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"autoswap/internal/hyperliquid"
	"autoswap/internal/trading"
)

func main() {
	symbol := flag.String("symbol", "", "Symbol to inspect (empty lists all tokens)")
	testnet := flag.Bool("testnet", os.Getenv("HYPERLIQUID_TESTNET") == "true", "Use testnet endpoints")
	flag.Parse()

	logger := log.New(os.Stderr, "[tokens] ", log.LstdFlags)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := hyperliquid.NewInfoClient(*testnet)
	meta, err := client.SpotMeta(ctx)
	if err != nil {
		logger.Fatalf("fetch spot metadata: %v", err)
	}

	if *symbol == "" {
		fmt.Printf("%-12s %6s %8s %8s  %s\n", "NAME", "INDEX", "SZDEC", "WEIDEC", "TOKEN ID")
		for _, t := range meta.Tokens {
			fmt.Printf("%-12s %6d %8d %8d  %s\n", t.Name, t.Index, t.SzDecimals, t.WeiDecimals, t.TokenID)
		}
		return
	}

	sym := strings.ToUpper(*symbol)
	token, ok := meta.Token(sym)
	if !ok {
		logger.Fatalf("token %s not found in spot metadata", sym)
	}

	fmt.Printf("name:         %s\n", token.Name)
	fmt.Printf("index:        %d\n", token.Index)
	fmt.Printf("tokenId:      %s\n", token.TokenID)
	fmt.Printf("szDecimals:   %d\n", token.SzDecimals)
	fmt.Printf("weiDecimals:  %d\n", token.WeiDecimals)

	if assetID, ok := meta.SpotAssetID(sym); ok {
		fmt.Printf("spotAssetId:  %d\n", assetID)
	}
	if tick, ok := trading.DefaultPriceTickDecimals[sym]; ok {
		fmt.Printf("tickDecimals: %d\n", tick)
	} else {
		fmt.Printf("tickDecimals: not configured (prices submitted unrounded)\n")
	}
}
