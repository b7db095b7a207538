package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/analytica/storefront/internal/backend"
	"github.com/analytica/storefront/internal/config"
	"github.com/analytica/storefront/internal/domain"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/find-product/main.go <product id or name>")
		fmt.Println("Example: go run cmd/find-product/main.go \"margherita\"")
		os.Exit(1)
	}

	query := os.Args[1]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Create shopping client
	client := backend.NewShoppingClient(backend.NewClient(
		"shopping",
		cfg.Services.ShoppingURL,
		cfg.Session.CookieName,
		cfg.Services.Timeout,
		logger,
	))

	fmt.Printf("🔍 Searching for product: %s\n\n", query)

	products, err := client.ListProducts(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query catalog: %v\n", err)
		os.Exit(1)
	}

	matches := findProducts(products, query)
	if len(matches) == 0 {
		fmt.Printf("❌ Product '%s' not found in the catalog (%d products checked).\n", query, len(products))
		fmt.Printf("\nMake sure:\n")
		fmt.Printf("  1. The shopping service at %s is running\n", cfg.Services.ShoppingURL)
		fmt.Printf("  2. The product id or part of its name is spelled correctly\n")
		os.Exit(1)
	}

	fmt.Printf("✅ Found %d product(s)!\n", len(matches))
	for _, p := range matches {
		fmt.Printf("\nID: %s\n", p.ID)
		fmt.Printf("Name: %s\n", p.Name)
		if p.Description != "" {
			fmt.Printf("Description: %s\n", p.Description)
		}
		fmt.Printf("Price: %s %s\n", p.Price.StringFixed(2), cfg.Order.Currency)
		if p.OwnerID != "" {
			fmt.Printf("Owner: %s\n", p.OwnerID)
		}
	}
}

// findProducts matches an exact id first, then names containing query
func findProducts(products []domain.Product, query string) []domain.Product {
	for _, p := range products {
		if p.ID == query {
			return []domain.Product{p}
		}
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	var matches []domain.Product
	for _, p := range products {
		if needle != "" && strings.Contains(strings.ToLower(p.Name), needle) {
			matches = append(matches, p)
		}
	}
	return matches
}
