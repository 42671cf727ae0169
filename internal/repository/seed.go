package repository

import (
	"fmt"
	model "live-auction/internal/models"
	"live-auction/utils"
	"time"

	"github.com/shopspring/decimal"
)

type demoAuction struct {
	title       string
	description string
	start       time.Duration // offset from now
	duration    time.Duration
	price       int64
	buyout      int64 // 0 means no buyout
}

var demoAuctions = []demoAuction{
	{title: "Vintage Film Camera", description: "35mm rangefinder, fully serviced", start: -time.Hour, duration: 2 * time.Hour, price: 100, buyout: 500},
	{title: "Mechanical Keyboard", description: "Hot-swappable, tactile switches", start: -10 * time.Minute, duration: 30 * time.Minute, price: 80},
	{title: "Signed First Edition", description: "Hardcover, excellent condition", start: -5 * time.Minute, duration: 3 * time.Minute, price: 250, buyout: 1200},
	{title: "Road Bike Frame", description: "Carbon, size 56", start: 2 * time.Minute, duration: time.Hour, price: 400},
}

// SeedDemoAuctions loads a fixed set of auctions relative to now and returns their ids.
// Auctions whose start time is in the future are seeded as pending.
func SeedDemoAuctions(repo *MemoryRepo, now time.Time) ([]string, error) {
	ids := make([]string, 0, len(demoAuctions))
	for _, d := range demoAuctions {
		start := now.Add(d.start)
		status := model.StatusActive
		if start.After(now) {
			status = model.StatusPending
		}

		auction := model.Auction{
			AuctionID:            utils.GenerateID(),
			Title:                d.title,
			Description:          d.description,
			Status:               status,
			StartTime:            start,
			EndTime:              start.Add(d.duration),
			StartingPrice:        decimal.NewFromInt(d.price),
			TimeExtensionMinutes: 1,
		}
		if d.buyout > 0 {
			auction.BuyoutPrice = decimal.NewNullDecimal(decimal.NewFromInt(d.buyout))
		}

		if err := repo.AddAuction(auction); err != nil {
			return nil, fmt.Errorf("seed %q: %w", d.title, err)
		}
		ids = append(ids, auction.AuctionID)
	}

	utils.Info("repository: demo auctions seeded", map[string]any{"count": len(ids)})
	return ids, nil
}
