package editbuf

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fintab/ledgerview/internal/coerce"
	"github.com/fintab/ledgerview/internal/record"
	"github.com/fintab/ledgerview/internal/statusflow"
)

// fakeUpdater records submitted diffs and plays back a canned response.
type fakeUpdater struct {
	calls []map[record.Field]any
	next  record.Record
	err   error
}

func (f *fakeUpdater) UpdateRecord(_ context.Context, id string, data map[record.Field]any) (record.Record, error) {
	f.calls = append(f.calls, data)
	if f.err != nil {
		return record.Record{}, f.err
	}
	out := f.next
	out.ID = id
	return out, nil
}

func sampleRecord() record.Record {
	m := "UBER EATS"
	n := "late dinner"
	return record.Record{
		ID:        "r1",
		Amount:    decimal.RequireFromString("10.00"),
		Currency:  "USD",
		Date:      time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 1, 6, 12, 0, 0, 0, time.UTC),
		Merchant:  &m,
		Notes:     &n,
		Tags:      []string{"food"},
		Status:    record.StatusPending,
	}
}

func newBuffer(u Updater) *Buffer {
	return New(coerce.New(), statusflow.Default(), u)
}

func TestDiffContainsOnlyChangedFields(t *testing.T) {
	t.Parallel()

	up := &fakeUpdater{}
	b := newBuffer(up)
	b.Bind(sampleRecord())
	b.StartEdit()

	require.NoError(t, b.SetField(record.FieldAmount, "12.50"))
	require.NoError(t, b.SetField(record.FieldMerchant, "UBER EATS"))
	require.NoError(t, b.SetField(record.FieldNotes, "late dinner"))

	diff := b.Diff()
	require.Len(t, diff, 1)
	require.True(t, diff[record.FieldAmount].(decimal.Decimal).Equal(decimal.RequireFromString("12.5")))
}

func TestDiffTreatsTagOrderAsEqual(t *testing.T) {
	t.Parallel()

	b := newBuffer(&fakeUpdater{})
	rec := sampleRecord()
	rec.Tags = []string{"food", "Travel"}
	b.Bind(rec)
	b.StartEdit()

	require.NoError(t, b.SetField(record.FieldTags, "travel, food"))
	require.Empty(t, b.Diff())

	require.NoError(t, b.SetField(record.FieldTags, "travel, food, new"))
	diff := b.Diff()
	require.Len(t, diff, 1)
	require.Equal(t, []string{"travel", "food", "new"}, diff[record.FieldTags])
}

func TestDiffRendersDatesInWireForm(t *testing.T) {
	t.Parallel()

	b := newBuffer(&fakeUpdater{})
	b.Bind(sampleRecord())
	b.StartEdit()

	require.NoError(t, b.SetField(record.FieldDate, "2026-02-01"))
	diff := b.Diff()
	require.Equal(t, "2026-02-01", diff[record.FieldDate])
}

func TestStatusEditMovesPendingInSameDiff(t *testing.T) {
	t.Parallel()

	up := &fakeUpdater{next: sampleRecord()}
	b := newBuffer(up)
	b.Bind(sampleRecord())
	b.StartEdit()

	require.NoError(t, b.SetField(record.FieldStatus, "COMPLETED"))

	diff := b.Diff()
	require.Len(t, diff, 2)
	require.Equal(t, record.StatusCompleted, diff[record.FieldStatus])
	require.Equal(t, false, diff[record.FieldPending])

	_, submitted, err := b.Save(context.Background())
	require.NoError(t, err)
	require.True(t, submitted)
	require.Len(t, up.calls, 1)
}

func TestStatusEditRejectedByGraphLeavesFieldUntouched(t *testing.T) {
	t.Parallel()

	b := newBuffer(&fakeUpdater{})
	b.Bind(sampleRecord())
	b.StartEdit()

	err := b.SetField(record.FieldStatus, record.StatusDisputed)
	var ill *statusflow.IllegalTransitionError
	require.True(t, errors.As(err, &ill))
	require.Empty(t, b.Diff())

	cur, cerr := b.CurrentValue(record.FieldStatus)
	require.NoError(t, cerr)
	require.Equal(t, record.StatusPending, cur)
}

func TestStatusEditChainsFromBufferedValue(t *testing.T) {
	t.Parallel()

	b := newBuffer(&fakeUpdater{})
	b.Bind(sampleRecord())
	b.StartEdit()

	// PENDING -> FLAGGED is legal, and a second edit transitions from the
	// buffered FLAGGED, not from the record's PENDING.
	require.NoError(t, b.SetField(record.FieldStatus, "FLAGGED"))
	require.NoError(t, b.SetField(record.FieldStatus, "DISPUTED"))

	diff := b.Diff()
	require.Equal(t, record.StatusDisputed, diff[record.FieldStatus])
}

func TestCoercionRejectionLeavesFieldUntouched(t *testing.T) {
	t.Parallel()

	b := newBuffer(&fakeUpdater{})
	b.Bind(sampleRecord())
	b.StartEdit()

	require.NoError(t, b.SetField(record.FieldAmount, "99"))
	require.Error(t, b.SetField(record.FieldAmount, "lots"))

	cur, err := b.CurrentValue(record.FieldAmount)
	require.NoError(t, err)
	require.True(t, cur.(decimal.Decimal).Equal(decimal.NewFromInt(99)))
}

func TestCancelDiscardsEverything(t *testing.T) {
	t.Parallel()

	up := &fakeUpdater{}
	b := newBuffer(up)
	b.Bind(sampleRecord())
	b.StartEdit()

	require.NoError(t, b.SetField(record.FieldNotes, "changed"))
	require.True(t, b.Dirty())

	b.CancelEdit()
	require.False(t, b.Editing())
	require.False(t, b.Dirty())
	require.Empty(t, up.calls)

	cur, err := b.CurrentValue(record.FieldNotes)
	require.NoError(t, err)
	require.Equal(t, "late dinner", cur)
}

func TestSaveEmptyDiffSkipsSubmit(t *testing.T) {
	t.Parallel()

	up := &fakeUpdater{}
	b := newBuffer(up)
	b.Bind(sampleRecord())
	b.StartEdit()

	// An override identical to the record's value is not a change.
	require.NoError(t, b.SetField(record.FieldAmount, "10.00"))

	_, submitted, err := b.Save(context.Background())
	require.NoError(t, err)
	require.False(t, submitted)
	require.False(t, b.Editing())
	require.Empty(t, up.calls)
}

func TestSaveFailurePreservesEdits(t *testing.T) {
	t.Parallel()

	up := &fakeUpdater{err: errors.New("boom")}
	b := newBuffer(up)
	b.Bind(sampleRecord())
	b.StartEdit()

	require.NoError(t, b.SetField(record.FieldAmount, "12.50"))

	_, submitted, err := b.Save(context.Background())
	require.False(t, submitted)

	var mut *MutationError
	require.True(t, errors.As(err, &mut))
	require.Equal(t, "r1", mut.ID)

	// Still editing, override intact, retry possible.
	require.True(t, b.Editing())
	require.True(t, b.Dirty())
	require.Len(t, b.Diff(), 1)
}

func TestSaveSuccessRebindsToServerCopy(t *testing.T) {
	t.Parallel()

	updated := sampleRecord()
	updated.Amount = decimal.RequireFromString("12.50")
	updated.UpdatedAt = updated.UpdatedAt.Add(time.Hour)

	up := &fakeUpdater{next: updated}
	b := newBuffer(up)
	b.Bind(sampleRecord())
	b.StartEdit()

	require.NoError(t, b.SetField(record.FieldAmount, "12.50"))

	got, submitted, err := b.Save(context.Background())
	require.NoError(t, err)
	require.True(t, submitted)
	require.True(t, got.Amount.Equal(updated.Amount))
	require.False(t, b.Editing())
	require.False(t, b.Dirty())
	require.True(t, b.Record().UpdatedAt.Equal(updated.UpdatedAt))
}

func TestBindDiscardsStaleEdits(t *testing.T) {
	t.Parallel()

	b := newBuffer(&fakeUpdater{})
	rec := sampleRecord()
	b.Bind(rec)
	b.StartEdit()
	require.NoError(t, b.SetField(record.FieldNotes, "draft"))

	// A refresh of the same revision keeps the overlay.
	b.Bind(rec)
	require.True(t, b.Dirty())

	// A newer revision of the same record clears it.
	fresh := rec
	fresh.UpdatedAt = rec.UpdatedAt.Add(time.Minute)
	b.Bind(fresh)
	require.False(t, b.Dirty())

	// So does binding a different record outright.
	b.StartEdit()
	require.NoError(t, b.SetField(record.FieldNotes, "draft"))
	other := sampleRecord()
	other.ID = "r2"
	b.Bind(other)
	require.False(t, b.Dirty())
}

func TestLockedRecordIsNotEditable(t *testing.T) {
	t.Parallel()

	b := newBuffer(&fakeUpdater{})
	rec := sampleRecord()
	rec.IsLocked = true
	b.Bind(rec)
	b.StartEdit()

	require.False(t, b.IsEditable(record.FieldAmount))
	require.Error(t, b.SetField(record.FieldAmount, "1"))
}

func TestReadOnlyFieldsRejected(t *testing.T) {
	t.Parallel()

	b := newBuffer(&fakeUpdater{})
	b.Bind(sampleRecord())
	b.StartEdit()

	require.Error(t, b.SetField(record.FieldID, "other"))
	require.Error(t, b.SetField(record.FieldUpdatedAt, time.Now()))
	require.Error(t, b.SetField(record.FieldPending, false))
}
