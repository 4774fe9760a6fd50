package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fintab/ledgerview/internal/database"
	"github.com/fintab/ledgerview/internal/record"
)

func setupStore(t *testing.T) (*RecordStore, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.RunMigrations(db))
	return NewRecordStore(db), ctx
}

func insertRecord(t *testing.T, ctx context.Context, s *RecordStore, r record.Record) record.Record {
	t.Helper()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	if r.Currency == "" {
		r.Currency = "USD"
	}
	require.NoError(t, s.Insert(ctx, r))
	return r
}

func day(d int) time.Time {
	return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC)
}

func TestListPaginatesAndClamps(t *testing.T) {
	t.Parallel()
	s, ctx := setupStore(t)

	for i := 1; i <= 7; i++ {
		m := fmt.Sprintf("SHOP %02d", i)
		insertRecord(t, ctx, s, record.Record{
			ID:       fmt.Sprintf("r%d", i),
			Amount:   decimal.NewFromInt(int64(-i)),
			Date:     day(i),
			Merchant: &m,
			Status:   record.StatusCompleted,
		})
	}

	page, err := s.List(ctx, Query{Page: 1, Limit: 3})
	require.NoError(t, err)
	require.Equal(t, 7, page.Total)
	require.Equal(t, 3, page.Pages)
	require.Len(t, page.Records, 3)
	// Newest first.
	require.Equal(t, "r7", page.Records[0].ID)

	// An out-of-range page clamps to the last page instead of coming back
	// empty.
	page, err = s.List(ctx, Query{Page: 9, Limit: 3})
	require.NoError(t, err)
	require.Equal(t, 3, page.Page)
	require.Len(t, page.Records, 1)
	require.Equal(t, "r1", page.Records[0].ID)
}

func TestListFilters(t *testing.T) {
	t.Parallel()
	s, ctx := setupStore(t)

	m1, m2 := "UBER EATS", "WOOLWORTHS"
	cat := "Food"
	insertRecord(t, ctx, s, record.Record{
		ID: "a", Amount: decimal.RequireFromString("-25.50"), Date: day(1),
		Merchant: &m1, Category: &cat, Status: record.StatusPending,
		Tags: []string{"dinner", "work"},
	})
	insertRecord(t, ctx, s, record.Record{
		ID: "b", Amount: decimal.RequireFromString("-80.00"), Date: day(2),
		Merchant: &m2, Status: record.StatusCompleted,
	})
	insertRecord(t, ctx, s, record.Record{
		ID: "c", Amount: decimal.RequireFromString("1200.00"), Date: day(3),
		Status: record.StatusCompleted,
	})

	page, err := s.List(ctx, Query{Filters: Filters{Statuses: []string{"COMPLETED"}}})
	require.NoError(t, err)
	require.Len(t, page.Records, 2)

	// A multi-member set matches any of its values.
	page, err = s.List(ctx, Query{Filters: Filters{Statuses: []string{"COMPLETED", "PENDING"}}})
	require.NoError(t, err)
	require.Len(t, page.Records, 3)

	page, err = s.List(ctx, Query{Filters: Filters{Search: "uber"}})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.Equal(t, "a", page.Records[0].ID)

	page, err = s.List(ctx, Query{Filters: Filters{Tags: []string{"work"}}})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.Equal(t, "a", page.Records[0].ID)

	page, err = s.List(ctx, Query{Filters: Filters{Tags: []string{"absent", "dinner"}}})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.Equal(t, "a", page.Records[0].ID)

	lo := decimal.RequireFromString("-100")
	hi := decimal.RequireFromString("0")
	page, err = s.List(ctx, Query{Filters: Filters{AmountMin: &lo, AmountMax: &hi}})
	require.NoError(t, err)
	require.Len(t, page.Records, 2)

	page, err = s.List(ctx, Query{Filters: Filters{DateFrom: day(2), DateTo: day(3)}})
	require.NoError(t, err)
	require.Len(t, page.Records, 2)

	page, err = s.List(ctx, Query{Filters: Filters{Statuses: []string{"COMPLETED"}, Search: "wool"}})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.Equal(t, "b", page.Records[0].ID)
}

func TestInsertGetRoundTrip(t *testing.T) {
	t.Parallel()
	s, ctx := setupStore(t)

	m := "SHELL FUEL"
	rate := decimal.RequireFromString("0.1")
	insertRecord(t, ctx, s, record.Record{
		ID:          "r1",
		Amount:      decimal.RequireFromString("-42.75"),
		Date:        day(5),
		Merchant:    &m,
		Tags:        []string{"car", "fuel"},
		TaxRate:     &rate,
		Status:      record.StatusFlagged,
		IsRecurring: true,
	})

	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	require.True(t, got.Amount.Equal(decimal.RequireFromString("-42.75")))
	require.Equal(t, []string{"car", "fuel"}, got.Tags)
	require.Equal(t, "SHELL FUEL", *got.Merchant)
	require.True(t, got.TaxRate.Equal(rate))
	require.Equal(t, record.StatusFlagged, got.EffectiveStatus())
	require.True(t, got.IsRecurring)
	require.Nil(t, got.Notes)

	_, err = s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePartial(t *testing.T) {
	t.Parallel()
	s, ctx := setupStore(t)

	r := insertRecord(t, ctx, s, record.Record{
		ID: "r1", Amount: decimal.NewFromInt(-10), Date: day(1),
		Status: record.StatusPending,
	})

	updated, err := s.UpdatePartial(ctx, "r1", map[record.Field]any{
		record.FieldAmount: decimal.RequireFromString("-12.50"),
		record.FieldNotes:  "corrected",
	})
	require.NoError(t, err)
	require.True(t, updated.Amount.Equal(decimal.RequireFromString("-12.50")))
	require.Equal(t, "corrected", *updated.Notes)
	require.True(t, updated.UpdatedAt.After(r.UpdatedAt))
	// Untouched fields keep their values.
	require.Equal(t, record.StatusPending, updated.EffectiveStatus())

	// The wire shape for a status change carries both columns.
	updated, err = s.UpdatePartial(ctx, "r1", map[record.Field]any{
		record.FieldStatus:  record.StatusCompleted,
		record.FieldPending: false,
	})
	require.NoError(t, err)
	require.Equal(t, record.StatusCompleted, updated.EffectiveStatus())
	require.False(t, updated.Pending())

	// Clearing an optional field with nil nulls the column.
	updated, err = s.UpdatePartial(ctx, "r1", map[record.Field]any{
		record.FieldNotes: nil,
	})
	require.NoError(t, err)
	require.Nil(t, updated.Notes)

	_, err = s.UpdatePartial(ctx, "r1", map[record.Field]any{})
	require.Error(t, err)

	_, err = s.UpdatePartial(ctx, "r1", map[record.Field]any{record.FieldID: "other"})
	require.Error(t, err)

	_, err = s.UpdatePartial(ctx, "missing", map[record.Field]any{record.FieldNotes: "x"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePartialDateStaysQueryable(t *testing.T) {
	t.Parallel()
	s, ctx := setupStore(t)

	insertRecord(t, ctx, s, record.Record{
		ID: "r1", Amount: decimal.NewFromInt(-10), Date: day(1),
		Status: record.StatusCompleted,
	})

	// Date edits arrive in their wire form; the stored column must keep
	// comparing against time-typed range bounds afterwards.
	updated, err := s.UpdatePartial(ctx, "r1", map[record.Field]any{
		record.FieldDate: "2026-02-10",
	})
	require.NoError(t, err)
	require.True(t, updated.Date.Equal(day(10)))

	page, err := s.List(ctx, Query{Filters: Filters{DateFrom: day(10), DateTo: day(10)}})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.Equal(t, "r1", page.Records[0].ID)

	page, err = s.List(ctx, Query{Filters: Filters{DateTo: day(9)}})
	require.NoError(t, err)
	require.Empty(t, page.Records)

	_, err = s.UpdatePartial(ctx, "r1", map[record.Field]any{
		record.FieldDate: "tomorrow",
	})
	require.Error(t, err)
}

func TestLockedRecordRefusesMutations(t *testing.T) {
	t.Parallel()
	s, ctx := setupStore(t)

	insertRecord(t, ctx, s, record.Record{
		ID: "r1", Amount: decimal.NewFromInt(-10), Date: day(1),
		Status: record.StatusCompleted, IsLocked: true,
		Tags: []string{"keep"},
	})

	_, err := s.UpdatePartial(ctx, "r1", map[record.Field]any{record.FieldNotes: "x"})
	require.ErrorIs(t, err, ErrLocked)

	err = s.UpdateStatus(ctx, "r1", record.StatusFlagged)
	require.ErrorIs(t, err, ErrLocked)

	_, err = s.RemoveTag(ctx, "r1", "keep")
	require.ErrorIs(t, err, ErrLocked)
}

func TestUpdateStatusPairsPendingColumn(t *testing.T) {
	t.Parallel()
	s, ctx := setupStore(t)

	insertRecord(t, ctx, s, record.Record{
		ID: "r1", Amount: decimal.NewFromInt(-10), Date: day(1),
		Status: record.StatusCompleted,
	})

	require.NoError(t, s.UpdateStatus(ctx, "r1", record.StatusPending))
	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	require.True(t, got.Pending())
	require.True(t, got.LegacyPending)

	require.NoError(t, s.Complete(ctx, "r1"))
	got, err = s.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, record.StatusCompleted, got.EffectiveStatus())
	require.False(t, got.LegacyPending)
}

func TestTagMutations(t *testing.T) {
	t.Parallel()
	s, ctx := setupStore(t)

	insertRecord(t, ctx, s, record.Record{
		ID: "r1", Amount: decimal.NewFromInt(-10), Date: day(1),
		Status: record.StatusCompleted, Tags: []string{"work", "Travel", "food"},
	})

	got, err := s.RemoveTag(ctx, "r1", "TRAVEL")
	require.NoError(t, err)
	require.Equal(t, []string{"work", "food"}, got.Tags)

	got, err = s.UpdateTags(ctx, "r1", []string{"only"})
	require.NoError(t, err)
	require.Equal(t, []string{"only"}, got.Tags)

	got, err = s.UpdateTags(ctx, "r1", nil)
	require.NoError(t, err)
	require.Empty(t, got.Tags)
}
