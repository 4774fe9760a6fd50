package testdata

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fintab/ledgerview/internal/database/repository"
	"github.com/fintab/ledgerview/internal/record"
)

var merchants = []string{
	"UBER EATS* SUSHI", "AMAZON.COM*XYZ", "WOOLWORTHS", "SPOTIFY", "SALARY ACME",
	"SHELL FUEL 0451", "NETFLIX.COM", "CITY RATES", "DAN MURPHY'S", "JB HI-FI",
}

var categories = []string{"Food", "Shopping", "Groceries", "Subscriptions", "Income", "Transport", "Utilities"}

// Seed fills an empty store with sample records so the shell has something to
// show on first run.
func Seed(ctx context.Context, store *repository.RecordStore, n int) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < n; i++ {
		cents := int64(rng.Intn(20000) + 500)
		if rng.Intn(5) != 0 {
			cents = -cents
		}
		cat := categories[rng.Intn(len(categories))]
		merchant := merchants[rng.Intn(len(merchants))]
		status := record.StatusCompleted
		switch rng.Intn(10) {
		case 0, 1:
			status = record.StatusPending
		case 2:
			status = record.StatusUnverified
		case 3:
			status = record.StatusAwaitingReview
		}

		var tags []string
		if rng.Intn(3) == 0 {
			tags = []string{"reviewme"}
		}

		r := record.Record{
			ID:        uuid.NewString(),
			Amount:    decimal.New(cents, -2),
			Currency:  "USD",
			Date:      now.AddDate(0, 0, -rng.Intn(60)),
			CreatedAt: now,
			UpdatedAt: now,
			Category:  &cat,
			Merchant:  &merchant,
			Tags:      tags,
			Status:    status,
			IsManual:  rng.Intn(10) == 0,
		}
		if err := store.Insert(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
