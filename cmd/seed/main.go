package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/pasarlink/marketplace-backend/internal/config"
	"github.com/pasarlink/marketplace-backend/internal/db"
	"github.com/pasarlink/marketplace-backend/internal/model"
)

type seedItem struct {
	SellerUID   string
	Title       string
	Description string
	Price       int64
	Stock       int
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := gdb.AutoMigrate(&model.Item{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var count int64
	if err := gdb.WithContext(ctx).Model(&model.Item{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count items: %w", err)
	}
	if count > 0 {
		log.Printf("items already seeded (%d rows); skipping", count)
		return nil
	}

	items := buildSeedItems()
	for _, it := range items {
		rec := model.Item{
			SellerUID:   it.SellerUID,
			Title:       it.Title,
			Description: it.Description,
			Price:       it.Price,
			Stock:       it.Stock,
		}
		if err := gdb.WithContext(ctx).Create(&rec).Error; err != nil {
			return fmt.Errorf("insert %q: %w", it.Title, err)
		}
	}
	log.Printf("seeded %d items", len(items))
	return nil
}

func buildSeedItems() []seedItem {
	return []seedItem{
		{SellerUID: "seller-demo-1", Title: "Refurbished laptop 14\"", Description: "Lightly used, new battery.", Price: 4_500_000, Stock: 3},
		{SellerUID: "seller-demo-1", Title: "Mechanical keyboard", Description: "Hot-swappable switches.", Price: 850_000, Stock: 10},
		{SellerUID: "seller-demo-2", Title: "Road bicycle", Description: "Aluminium frame, 16 speed.", Price: 6_200_000, Stock: 1},
		{SellerUID: "seller-demo-2", Title: "Espresso machine", Description: "Single boiler, includes tamper.", Price: 2_750_000, Stock: 2},
		{SellerUID: "seller-demo-3", Title: "Acoustic guitar", Description: "Solid spruce top.", Price: 1_900_000, Stock: 4},
	}
}
