// Package editbuf holds pending edits as a sparse overlay over one record
// and computes the minimal changed-field set to submit.
package editbuf

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintab/ledgerview/internal/coerce"
	"github.com/fintab/ledgerview/internal/record"
	"github.com/fintab/ledgerview/internal/statusflow"
)

// Updater submits a partial update keyed by record id and returns the
// refreshed record.
type Updater interface {
	UpdateRecord(ctx context.Context, id string, data map[record.Field]any) (record.Record, error)
}

// MutationError wraps a failed submit. Buffered edits survive it so the user
// can correct and retry.
type MutationError struct {
	ID  string
	Err error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("update record %s: %v", e.ID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Buffer is an edit session scoped to exactly one record. A field present in
// the overlay is an intended override; absence means "use the record's
// value".
type Buffer struct {
	rec      record.Record
	bound    bool
	editing  bool
	pending  map[record.Field]any
	pipeline *coerce.Pipeline
	graph    *statusflow.Graph
	updater  Updater
}

// New returns an empty, unbound buffer.
func New(pipeline *coerce.Pipeline, graph *statusflow.Graph, updater Updater) *Buffer {
	return &Buffer{
		pipeline: pipeline,
		graph:    graph,
		updater:  updater,
		pending:  map[record.Field]any{},
	}
}

// Bind points the buffer at rec. If the record identity or its update
// timestamp differs from the currently bound record, all pending edits are
// discarded. This is the documented stale-edit contract: a refresh from
// elsewhere wins over in-flight edits, favoring consistency.
func (b *Buffer) Bind(rec record.Record) {
	if b.bound && (rec.ID != b.rec.ID || !rec.UpdatedAt.Equal(b.rec.UpdatedAt)) {
		b.pending = map[record.Field]any{}
	}
	b.rec = rec
	b.bound = true
}

// Record returns the currently bound record.
func (b *Buffer) Record() record.Record { return b.rec }

// StartEdit enters edit mode with an empty overlay.
func (b *Buffer) StartEdit() {
	b.editing = true
	b.pending = map[record.Field]any{}
}

// CancelEdit leaves edit mode and unconditionally discards buffered values.
func (b *Buffer) CancelEdit() {
	b.editing = false
	b.pending = map[record.Field]any{}
}

// Editing reports whether an edit session is active.
func (b *Buffer) Editing() bool { return b.editing }

// Dirty reports whether any field has a pending override.
func (b *Buffer) Dirty() bool { return len(b.pending) > 0 }

// IsEditable reports whether f may be edited right now: the field must be on
// the allow-list, the record must not be locked, and an update collaborator
// must be configured.
func (b *Buffer) IsEditable(f record.Field) bool {
	return record.Editable(f) && !b.rec.IsLocked && b.updater != nil
}

// SetField coerces raw and stores the override, replacing any prior pending
// value for the field. Status edits additionally pass through the transition
// graph and move the derived pending flag in the same step. On any rejection
// the field is left untouched.
func (b *Buffer) SetField(f record.Field, raw any) error {
	if !b.IsEditable(f) {
		return fmt.Errorf("field %s is not editable", f)
	}

	if f == record.FieldStatus {
		target, err := parseStatusInput(raw)
		if err != nil {
			return err
		}
		cur, _ := b.CurrentValue(record.FieldStatus)
		res, err := b.graph.RequestTransition(cur.(record.Status), target)
		if err != nil {
			return err
		}
		b.pending[record.FieldStatus] = res.Status
		b.pending[record.FieldPending] = res.Pending
		return nil
	}

	v, err := b.pipeline.Coerce(f, raw)
	if err != nil {
		return err
	}
	b.pending[f] = v
	return nil
}

// CurrentValue returns the buffered value if present, else the record's
// value. Every display and input reads through this, so edited and unedited
// fields render uniformly.
func (b *Buffer) CurrentValue(f record.Field) (any, error) {
	if v, ok := b.pending[f]; ok {
		return v, nil
	}
	return b.rec.Value(f)
}

// Diff returns the fields whose buffered value differs from the record's
// current value, with dates rendered in their wire form. An empty diff means
// nothing to send.
func (b *Buffer) Diff() map[record.Field]any {
	out := map[record.Field]any{}
	for f, v := range b.pending {
		cur, err := b.rec.Value(f)
		if err != nil {
			continue
		}
		if valueEqual(record.KindOf(f), v, cur) {
			continue
		}
		out[f] = wireValue(record.KindOf(f), v)
	}
	return out
}

// Save submits the diff, if any, through the update collaborator. On success
// the buffer rebinds to the refreshed record, clears, and leaves edit mode.
// On failure edit mode and buffered values are preserved. An empty diff exits
// edit mode without a network call. The returned bool reports whether an
// update was actually sent.
func (b *Buffer) Save(ctx context.Context) (record.Record, bool, error) {
	diff := b.Diff()
	if len(diff) == 0 {
		b.CancelEdit()
		return b.rec, false, nil
	}
	if b.updater == nil {
		return b.rec, false, fmt.Errorf("no update collaborator configured")
	}
	updated, err := b.updater.UpdateRecord(ctx, b.rec.ID, diff)
	if err != nil {
		return b.rec, false, &MutationError{ID: b.rec.ID, Err: err}
	}
	b.rec = updated
	b.CancelEdit()
	return updated, true, nil
}

func parseStatusInput(raw any) (record.Status, error) {
	switch v := raw.(type) {
	case record.Status:
		if !v.Valid() {
			return "", fmt.Errorf("unknown status %q", string(v))
		}
		return v, nil
	case string:
		return record.ParseStatus(v)
	}
	return "", fmt.Errorf("status wants a status name, got %T", raw)
}

func valueEqual(kind record.Kind, a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch kind {
	case record.KindAmount:
		da, aok := a.(decimal.Decimal)
		db, bok := b.(decimal.Decimal)
		return aok && bok && da.Equal(db)
	case record.KindDate:
		ta, aok := a.(time.Time)
		tb, bok := b.(time.Time)
		return aok && bok && ta.Equal(tb)
	case record.KindTags:
		return tagSetsEqual(a, b)
	}
	return a == b
}

// tagSetsEqual compares tag lists as case-insensitive sets; order is
// irrelevant for tags.
func tagSetsEqual(a, b any) bool {
	as, aok := a.([]string)
	bs, bok := b.([]string)
	if !aok || !bok || len(as) != len(bs) {
		return false
	}
	set := make(map[string]bool, len(as))
	for _, t := range as {
		set[strings.ToLower(t)] = true
	}
	for _, t := range bs {
		if !set[strings.ToLower(t)] {
			return false
		}
	}
	return true
}

func wireValue(kind record.Kind, v any) any {
	if kind == record.KindDate {
		if t, ok := v.(time.Time); ok {
			return t.Format(record.WireDate)
		}
	}
	return v
}
