package record

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestEffectiveStatusFallsBackToLegacyPending(t *testing.T) {
	t.Parallel()

	r := Record{LegacyPending: true}
	require.Equal(t, StatusPending, r.EffectiveStatus())
	require.True(t, r.Pending())

	r.LegacyPending = false
	require.Equal(t, StatusCompleted, r.EffectiveStatus())
	require.False(t, r.Pending())

	// A valid stored status wins over the legacy column.
	r.Status = StatusFlagged
	r.LegacyPending = true
	require.Equal(t, StatusFlagged, r.EffectiveStatus())
	require.False(t, r.Pending())

	// Garbage in the column falls back too.
	r.Status = Status("archived")
	require.Equal(t, StatusPending, r.EffectiveStatus())
}

func TestValueUnknownFieldIsError(t *testing.T) {
	t.Parallel()

	r := Record{ID: "r1"}
	_, err := r.Value(Field("internalNotes"))
	require.Error(t, err)

	err = r.Apply(Field("internalNotes"), "x")
	require.Error(t, err)
}

func TestValueOptionalFieldsReturnNilWhenUnset(t *testing.T) {
	t.Parallel()

	r := Record{}
	for _, f := range []Field{FieldMerchant, FieldCategory, FieldNotes, FieldImportedAt, FieldTaxRate} {
		v, err := r.Value(f)
		require.NoError(t, err)
		require.Nil(t, v, "field %s", f)
	}

	m := "SHELL"
	r.Merchant = &m
	v, err := r.Value(FieldMerchant)
	require.NoError(t, err)
	require.Equal(t, "SHELL", v)
}

func TestApplyStatusSyncsLegacyPending(t *testing.T) {
	t.Parallel()

	var r Record
	require.NoError(t, r.Apply(FieldStatus, StatusPending))
	require.True(t, r.LegacyPending)

	require.NoError(t, r.Apply(FieldStatus, "COMPLETED"))
	require.Equal(t, StatusCompleted, r.Status)
	require.False(t, r.LegacyPending)

	require.Error(t, r.Apply(FieldStatus, "ARCHIVED"))
}

func TestApplyDateAcceptsWireString(t *testing.T) {
	t.Parallel()

	var r Record
	require.NoError(t, r.Apply(FieldDate, "2026-03-14"))
	require.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), r.Date)

	require.Error(t, r.Apply(FieldDate, "14/03/2026"))
}

func TestApplyFlagFields(t *testing.T) {
	t.Parallel()

	var r Record
	for _, f := range BoolFlags() {
		require.NoError(t, r.Apply(f, true))
		v, err := r.Value(f)
		require.NoError(t, err)
		require.Equal(t, true, v, "flag %s", f)
	}
	require.Error(t, r.Apply(FieldIsVerified, "yes"))
}

func TestEditableExcludesIdentityAndDerivedFields(t *testing.T) {
	t.Parallel()

	require.False(t, Editable(FieldID))
	require.False(t, Editable(FieldCreatedAt))
	require.False(t, Editable(FieldUpdatedAt))
	require.False(t, Editable(FieldPending))
	require.False(t, Editable(FieldIsLocked))
	require.True(t, Editable(FieldAmount))
	require.True(t, Editable(FieldStatus))
	require.True(t, Editable(FieldTags))
}

func TestParseStatusSuggestsNearMiss(t *testing.T) {
	t.Parallel()

	s, err := ParseStatus("completed")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, s)

	s, err = ParseStatus(" PENDING ")
	require.NoError(t, err)
	require.Equal(t, StatusPending, s)

	_, err = ParseStatus("COMPLTED")
	require.Error(t, err)
	require.Contains(t, err.Error(), "COMPLETED")
}

func TestValueCopiesTagSlice(t *testing.T) {
	t.Parallel()

	r := Record{Tags: []string{"a", "b"}}
	v, err := r.Value(FieldTags)
	require.NoError(t, err)
	tags := v.([]string)
	tags[0] = "mutated"
	require.Equal(t, []string{"a", "b"}, r.Tags)
}

func TestValueAmount(t *testing.T) {
	t.Parallel()

	r := Record{Amount: decimal.RequireFromString("-42.50")}
	v, err := r.Value(FieldAmount)
	require.NoError(t, err)
	require.True(t, v.(decimal.Decimal).Equal(decimal.RequireFromString("-42.5")))
}
