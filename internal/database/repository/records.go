// Package repository implements the query and mutation collaborators over
// sqlite: paginated listing plus the partial-update, status, and tag
// mutations the edit layer submits to.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintab/ledgerview/internal/database"
	"github.com/fintab/ledgerview/internal/record"
)

var (
	// ErrNotFound reports a record id with no row.
	ErrNotFound = errors.New("record not found")
	// ErrLocked reports an attempted mutation of a locked record.
	ErrLocked = errors.New("record is locked")
)

// Filters narrows a List query. Zero values mean "no filter". Set-shaped
// filters match any member, mirroring the table layer's set semantics.
type Filters struct {
	Statuses   []string
	Categories []string
	AccountID  string
	Search     string
	Tags       []string
	DateFrom   time.Time
	DateTo     time.Time
	AmountMin  *decimal.Decimal
	AmountMax  *decimal.Decimal
}

// Query is a paginated list request. Page is 1-based.
type Query struct {
	Page    int
	Limit   int
	Filters Filters
}

// Page is the server-authoritative list response shape.
type Page struct {
	Records []record.Record
	Page    int
	Limit   int
	Total   int
	Pages   int
}

// RecordStore handles records.
type RecordStore struct {
	db *sql.DB
}

func NewRecordStore(db *sql.DB) *RecordStore { return &RecordStore{db: db} }

const recordColumns = `id, amount, currency, date, created_at, updated_at, imported_at,
 category, subcategory, custom_category, tags, labels,
 merchant, payment_method, reference_number, account_id, notes,
 tax_category, tax_rate, exchange_rate, original_amount, original_currency,
 status, pending,
 is_manual, is_verified, is_locked, is_recurring, is_transfer, is_refund,
 is_subscription, is_tax_deductible, is_business_expense, is_reimbursable,
 is_reviewed, is_excluded_from_totals, is_split, is_shared, is_archived,
 is_cleared, is_estimated, is_foreign, is_interest, is_fee`

// fieldColumns maps diff keys onto table columns. Only fields that can appear
// in an outbound diff are present.
var fieldColumns = map[record.Field]string{
	record.FieldAmount:               "amount",
	record.FieldCurrency:             "currency",
	record.FieldDate:                 "date",
	record.FieldCategory:             "category",
	record.FieldSubcategory:          "subcategory",
	record.FieldCustomCategory:       "custom_category",
	record.FieldTags:                 "tags",
	record.FieldLabels:               "labels",
	record.FieldMerchant:             "merchant",
	record.FieldPaymentMethod:        "payment_method",
	record.FieldReferenceNumber:      "reference_number",
	record.FieldNotes:                "notes",
	record.FieldTaxCategory:          "tax_category",
	record.FieldStatus:               "status",
	record.FieldPending:              "pending",
	record.FieldIsManual:             "is_manual",
	record.FieldIsVerified:           "is_verified",
	record.FieldIsRecurring:          "is_recurring",
	record.FieldIsTransfer:           "is_transfer",
	record.FieldIsRefund:             "is_refund",
	record.FieldIsSubscription:       "is_subscription",
	record.FieldIsTaxDeductible:      "is_tax_deductible",
	record.FieldIsBusinessExpense:    "is_business_expense",
	record.FieldIsReimbursable:       "is_reimbursable",
	record.FieldIsReviewed:           "is_reviewed",
	record.FieldIsExcludedFromTotals: "is_excluded_from_totals",
	record.FieldIsShared:             "is_shared",
	record.FieldIsEstimated:          "is_estimated",
}

func (s *RecordStore) Insert(ctx context.Context, r record.Record) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO records(`+strings.ReplaceAll(recordColumns, "\n", "")+`)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
	 ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		r.ID, r.Amount.String(), r.Currency, r.Date, r.CreatedAt, r.UpdatedAt, r.ImportedAt,
		r.Category, r.Subcategory, r.CustomCategory,
		strings.Join(r.Tags, ","), strings.Join(r.Labels, ","),
		r.Merchant, r.PaymentMethod, r.ReferenceNumber, r.AccountID, r.Notes,
		r.TaxCategory, optDecimalArg(r.TaxRate), optDecimalArg(r.ExchangeRate),
		optDecimalArg(r.OriginalAmount), r.OriginalCurrency,
		string(r.EffectiveStatus()), r.Pending(),
		r.IsManual, r.IsVerified, r.IsLocked, r.IsRecurring, r.IsTransfer, r.IsRefund,
		r.IsSubscription, r.IsTaxDeductible, r.IsBusinessExpense, r.IsReimbursable,
		r.IsReviewed, r.IsExcludedFromTotals, r.IsSplit, r.IsShared, r.IsArchived,
		r.IsCleared, r.IsEstimated, r.IsForeign, r.IsInterest, r.IsFee)
	return err
}

// List runs a paginated query and reports authoritative pagination alongside
// the rows. An out-of-range page clamps to the last page rather than
// returning emptiness.
func (s *RecordStore) List(ctx context.Context, q Query) (Page, error) {
	if q.Limit <= 0 {
		q.Limit = 25
	}
	if q.Page <= 0 {
		q.Page = 1
	}

	where, args := buildWhere(q.Filters)

	var total int
	countQuery := "SELECT COUNT(*) FROM records" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return Page{}, err
	}

	pages := (total + q.Limit - 1) / q.Limit
	if pages < 1 {
		pages = 1
	}
	if q.Page > pages {
		q.Page = pages
	}

	query := "SELECT " + recordColumns + " FROM records" + where +
		" ORDER BY date DESC, created_at DESC LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, query, append(args, q.Limit, (q.Page-1)*q.Limit)...)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	var out []record.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return Page{}, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}

	return Page{Records: out, Page: q.Page, Limit: q.Limit, Total: total, Pages: pages}, nil
}

func buildWhere(f Filters) (string, []interface{}) {
	var where []string
	var args []interface{}

	if len(f.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, s)
		}
	}
	if len(f.Categories) > 0 {
		where = append(where, "category IN ("+placeholders(len(f.Categories))+")")
		for _, c := range f.Categories {
			args = append(args, c)
		}
	}
	if f.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.Search != "" {
		where = append(where, "(merchant LIKE ? OR notes LIKE ?)")
		args = append(args, "%"+f.Search+"%", "%"+f.Search+"%")
	}
	if len(f.Tags) > 0 {
		var ors []string
		for _, tag := range f.Tags {
			ors = append(ors, "(',' || tags || ',') LIKE ?")
			args = append(args, "%,"+tag+",%")
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}
	if !f.DateFrom.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, f.DateTo)
	}
	if f.AmountMin != nil {
		where = append(where, "CAST(amount AS REAL) >= ?")
		args = append(args, f.AmountMin.InexactFloat64())
	}
	if f.AmountMax != nil {
		where = append(where, "CAST(amount AS REAL) <= ?")
		args = append(args, f.AmountMax.InexactFloat64())
	}

	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func (s *RecordStore) Get(ctx context.Context, id string) (record.Record, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM records WHERE id = ?", id)
	r, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record.Record{}, ErrNotFound
		}
		return record.Record{}, err
	}
	return r, nil
}

// UpdatePartial applies a sparse field diff to one record. Locked records
// refuse every edit; empty diffs are a caller bug. updated_at always bumps so
// stale-edit detection works.
func (s *RecordStore) UpdatePartial(ctx context.Context, id string, data map[record.Field]any) (record.Record, error) {
	if len(data) == 0 {
		return record.Record{}, fmt.Errorf("empty update for record %s", id)
	}
	if err := s.checkUnlocked(ctx, id); err != nil {
		return record.Record{}, err
	}

	var sets []string
	var args []interface{}
	for f, v := range data {
		col, ok := fieldColumns[f]
		if !ok {
			return record.Record{}, fmt.Errorf("field %s is not updatable", f)
		}
		arg, err := updateArg(f, v)
		if err != nil {
			return record.Record{}, err
		}
		sets = append(sets, col+" = ?")
		args = append(args, arg)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, database.Now(), id)

	// Update and re-read in one transaction so the returned record is exactly
	// the revision this diff produced.
	var updated record.Record
	err := database.WithTx(s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE records SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		row := tx.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM records WHERE id = ?", id)
		updated, err = scanRecord(row)
		return err
	})
	if err != nil {
		return record.Record{}, err
	}
	return updated, nil
}

// UpdateStatus writes a status and its paired pending flag in one statement.
func (s *RecordStore) UpdateStatus(ctx context.Context, id string, status record.Status) error {
	if err := s.checkUnlocked(ctx, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE records SET status = ?, pending = ?, updated_at = ? WHERE id = ?`,
		string(status), status == record.StatusPending, database.Now(), id)
	return err
}

// Complete is the mark-complete mutation seam.
func (s *RecordStore) Complete(ctx context.Context, id string) error {
	return s.UpdateStatus(ctx, id, record.StatusCompleted)
}

// UpdateTags replaces the record's tag set.
func (s *RecordStore) UpdateTags(ctx context.Context, id string, tags []string) (record.Record, error) {
	return s.UpdatePartial(ctx, id, map[record.Field]any{record.FieldTags: tags})
}

// RemoveTag drops one tag, compared case-insensitively.
func (s *RecordStore) RemoveTag(ctx context.Context, id string, tag string) (record.Record, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return record.Record{}, err
	}
	kept := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		if !strings.EqualFold(t, tag) {
			kept = append(kept, t)
		}
	}
	return s.UpdateTags(ctx, id, kept)
}

func (s *RecordStore) checkUnlocked(ctx context.Context, id string) error {
	var locked bool
	err := s.db.QueryRowContext(ctx, `SELECT is_locked FROM records WHERE id = ?`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if locked {
		return ErrLocked
	}
	return nil
}

func updateArg(f record.Field, v any) (interface{}, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case decimal.Decimal:
		return t.String(), nil
	case []string:
		return strings.Join(t, ","), nil
	case record.Status:
		return string(t), nil
	case string:
		// Date edits arrive in wire form. The column stores timestamps, so
		// the string is parsed back rather than bound as-is; otherwise the
		// row stops comparing against range filters and ORDER BY date.
		if record.KindOf(f) == record.KindDate {
			ts, err := time.Parse(record.WireDate, t)
			if err != nil {
				return nil, fmt.Errorf("bad date %q for field %s: %w", t, f, err)
			}
			return ts, nil
		}
	}
	return v, nil
}

func optDecimalArg(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

// scanRecord handles nullable fields for both Row and Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (record.Record, error) {
	var r record.Record
	var amount string
	var imported sql.NullTime
	var category, subcategory, customCategory sql.NullString
	var tags, labels string
	var merchant, paymentMethod, referenceNumber, accountID, notes sql.NullString
	var taxCategory, taxRate, exchangeRate, originalAmount, originalCurrency sql.NullString
	var status string

	if err := row.Scan(&r.ID, &amount, &r.Currency, &r.Date, &r.CreatedAt, &r.UpdatedAt, &imported,
		&category, &subcategory, &customCategory, &tags, &labels,
		&merchant, &paymentMethod, &referenceNumber, &accountID, &notes,
		&taxCategory, &taxRate, &exchangeRate, &originalAmount, &originalCurrency,
		&status, &r.LegacyPending,
		&r.IsManual, &r.IsVerified, &r.IsLocked, &r.IsRecurring, &r.IsTransfer, &r.IsRefund,
		&r.IsSubscription, &r.IsTaxDeductible, &r.IsBusinessExpense, &r.IsReimbursable,
		&r.IsReviewed, &r.IsExcludedFromTotals, &r.IsSplit, &r.IsShared, &r.IsArchived,
		&r.IsCleared, &r.IsEstimated, &r.IsForeign, &r.IsInterest, &r.IsFee); err != nil {
		return record.Record{}, err
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return record.Record{}, fmt.Errorf("bad amount %q for record %s: %w", amount, r.ID, err)
	}
	r.Amount = d
	r.Status = record.Status(status)

	if imported.Valid {
		r.ImportedAt = &imported.Time
	}
	r.Category = optString(category)
	r.Subcategory = optString(subcategory)
	r.CustomCategory = optString(customCategory)
	r.Tags = splitList(tags)
	r.Labels = splitList(labels)
	r.Merchant = optString(merchant)
	r.PaymentMethod = optString(paymentMethod)
	r.ReferenceNumber = optString(referenceNumber)
	r.AccountID = optString(accountID)
	r.Notes = optString(notes)
	r.TaxCategory = optString(taxCategory)
	if r.TaxRate, err = optDecimal(taxRate); err != nil {
		return record.Record{}, err
	}
	if r.ExchangeRate, err = optDecimal(exchangeRate); err != nil {
		return record.Record{}, err
	}
	if r.OriginalAmount, err = optDecimal(originalAmount); err != nil {
		return record.Record{}, err
	}
	r.OriginalCurrency = optString(originalCurrency)
	return r, nil
}

func optString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func optDecimal(v sql.NullString) (*decimal.Decimal, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
