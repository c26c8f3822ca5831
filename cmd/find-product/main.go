package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/catalog"
	"github.com/egcartridge/storefront/internal/config"
	"github.com/egcartridge/storefront/internal/platform"
)

func main() {
	brands := pflag.StringSlice("brand", nil, "only products of these brand ids")
	categories := pflag.StringSlice("category", nil, "only products of these category ids")
	discount := pflag.Bool("discount", false, "only products with an active special price")
	pflag.Parse()

	if pflag.NArg() < 1 {
		fmt.Println("Usage: go run cmd/find-product/main.go <query> [--brand id] [--category id] [--discount]")
		fmt.Println("Example: go run cmd/find-product/main.go \"CE285A\" --brand 1")
		os.Exit(1)
	}
	query := strings.Join(pflag.Args(), " ")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	client := platform.NewClient(cfg.Platform, logger)
	view := catalog.NewView(catalog.NewLoader(client, logger), client, cfg.Catalog.PageSize, logger)
	defer view.Close()

	fmt.Printf("🔍 Searching for: %s\n\n", query)

	if err := view.Refresh(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load catalog: %v\n", err)
		os.Exit(1)
	}
	view.SetSearch(query)
	view.SetBrands(*brands)
	view.SetCategories(*categories)
	view.SetDiscountOnly(*discount)

	res := view.Result()
	if res.Page.Total == 0 {
		fmt.Printf("❌ No active product matches '%s'.\n", query)
		os.Exit(1)
	}

	for page := 1; page <= res.Page.Pages; page++ {
		view.SetPage(page)
		res = view.Result()
		for _, p := range res.Page.Items {
			price := p.EffectivePrice().StringFixed(2)
			if p.HasDiscount() {
				price += " (was " + p.Price.StringFixed(2) + ")"
			}
			fmt.Printf("%-10s %-40s %-14s %s\n", p.ID, p.Name, p.ModelNumber, price)
		}
		if page < res.Page.Pages {
			fmt.Printf("⏳ page %d of %d\n", page, res.Page.Pages)
		}
	}

	fmt.Printf("\n✅ %d product(s) found\n", res.Page.Total)
}
