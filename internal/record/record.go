// Package record defines the canonical transaction entity and its closed
// field enumeration. Everything that reads or writes a record field by name
// goes through Value/Apply so the reachable field set stays finite.
package record

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Record is the canonical transaction entity. Optional scalars are pointers;
// nil means unset. Amount always carries at most 2 decimal places once
// persisted.
type Record struct {
	ID       string
	Amount   decimal.Decimal
	Currency string

	Date       time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ImportedAt *time.Time

	Category       *string
	Subcategory    *string
	CustomCategory *string
	Tags           []string
	Labels         []string

	Merchant        *string
	PaymentMethod   *string
	ReferenceNumber *string
	AccountID       *string
	Notes           *string

	TaxCategory      *string
	TaxRate          *decimal.Decimal
	ExchangeRate     *decimal.Decimal
	OriginalAmount   *decimal.Decimal
	OriginalCurrency *string

	// Status may be empty or stale on rows imported before the status
	// column existed; EffectiveStatus falls back to LegacyPending.
	Status        Status
	LegacyPending bool

	IsManual             bool
	IsVerified           bool
	IsLocked             bool
	IsRecurring          bool
	IsTransfer           bool
	IsRefund             bool
	IsSubscription       bool
	IsTaxDeductible      bool
	IsBusinessExpense    bool
	IsReimbursable       bool
	IsReviewed           bool
	IsExcludedFromTotals bool
	IsSplit              bool
	IsShared             bool
	IsArchived           bool
	IsCleared            bool
	IsEstimated          bool
	IsForeign            bool
	IsInterest           bool
	IsFee                bool
}

// EffectiveStatus resolves the record's status, deriving it from the legacy
// pending column when the stored value is missing or unknown.
func (r Record) EffectiveStatus() Status {
	if r.Status.Valid() {
		return r.Status
	}
	if r.LegacyPending {
		return StatusPending
	}
	return StatusCompleted
}

// Pending is a pure projection of status; it is never stored independently.
func (r Record) Pending() bool {
	return r.EffectiveStatus() == StatusPending
}

// Value returns the current value of a declared field. Unset optional fields
// return nil. Unknown fields are an error, never a zero value.
func (r Record) Value(f Field) (any, error) {
	switch f {
	case FieldID:
		return r.ID, nil
	case FieldAmount:
		return r.Amount, nil
	case FieldCurrency:
		return r.Currency, nil
	case FieldDate:
		return r.Date, nil
	case FieldCreatedAt:
		return r.CreatedAt, nil
	case FieldUpdatedAt:
		return r.UpdatedAt, nil
	case FieldImportedAt:
		return optTime(r.ImportedAt), nil
	case FieldCategory:
		return optString(r.Category), nil
	case FieldSubcategory:
		return optString(r.Subcategory), nil
	case FieldCustomCategory:
		return optString(r.CustomCategory), nil
	case FieldTags:
		return append([]string(nil), r.Tags...), nil
	case FieldLabels:
		return append([]string(nil), r.Labels...), nil
	case FieldMerchant:
		return optString(r.Merchant), nil
	case FieldPaymentMethod:
		return optString(r.PaymentMethod), nil
	case FieldReferenceNumber:
		return optString(r.ReferenceNumber), nil
	case FieldAccountID:
		return optString(r.AccountID), nil
	case FieldNotes:
		return optString(r.Notes), nil
	case FieldTaxCategory:
		return optString(r.TaxCategory), nil
	case FieldTaxRate:
		return optDecimal(r.TaxRate), nil
	case FieldExchangeRate:
		return optDecimal(r.ExchangeRate), nil
	case FieldOriginalAmount:
		return optDecimal(r.OriginalAmount), nil
	case FieldOriginalCurrency:
		return optString(r.OriginalCurrency), nil
	case FieldStatus:
		return r.EffectiveStatus(), nil
	case FieldPending:
		return r.Pending(), nil
	}
	if v, ok := r.flagValue(f); ok {
		return v, nil
	}
	return nil, fmt.Errorf("record: unknown field %q", f)
}

// Apply writes a typed value onto the record. It is used to fold an accepted
// diff back into the locally cached row. Values follow the same shapes Value
// returns; date fields additionally accept the wire string form.
func (r *Record) Apply(f Field, v any) error {
	switch f {
	case FieldAmount:
		d, ok := v.(decimal.Decimal)
		if !ok {
			return fmt.Errorf("record: amount wants decimal, got %T", v)
		}
		r.Amount = d
		return nil
	case FieldCurrency:
		return applyString(&r.Currency, v)
	case FieldDate:
		return applyTime(&r.Date, v)
	case FieldImportedAt:
		return applyOptTime(&r.ImportedAt, v)
	case FieldCategory:
		return applyOptString(&r.Category, v)
	case FieldSubcategory:
		return applyOptString(&r.Subcategory, v)
	case FieldCustomCategory:
		return applyOptString(&r.CustomCategory, v)
	case FieldTags:
		return applyTags(&r.Tags, v)
	case FieldLabels:
		return applyTags(&r.Labels, v)
	case FieldMerchant:
		return applyOptString(&r.Merchant, v)
	case FieldPaymentMethod:
		return applyOptString(&r.PaymentMethod, v)
	case FieldReferenceNumber:
		return applyOptString(&r.ReferenceNumber, v)
	case FieldAccountID:
		return applyOptString(&r.AccountID, v)
	case FieldNotes:
		return applyOptString(&r.Notes, v)
	case FieldTaxCategory:
		return applyOptString(&r.TaxCategory, v)
	case FieldStatus:
		switch s := v.(type) {
		case Status:
			r.Status = s
		case string:
			parsed, err := ParseStatus(s)
			if err != nil {
				return err
			}
			r.Status = parsed
		default:
			return fmt.Errorf("record: status wants Status or string, got %T", v)
		}
		r.LegacyPending = r.Status == StatusPending
		return nil
	case FieldPending:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("record: pending wants bool, got %T", v)
		}
		r.LegacyPending = b
		return nil
	}
	if p := r.flagPtr(f); p != nil {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("record: %s wants bool, got %T", f, v)
		}
		*p = b
		return nil
	}
	return fmt.Errorf("record: field %q is not applicable", f)
}

func (r Record) flagValue(f Field) (bool, bool) {
	cp := r
	if p := cp.flagPtr(f); p != nil {
		return *p, true
	}
	return false, false
}

func (r *Record) flagPtr(f Field) *bool {
	switch f {
	case FieldIsManual:
		return &r.IsManual
	case FieldIsVerified:
		return &r.IsVerified
	case FieldIsLocked:
		return &r.IsLocked
	case FieldIsRecurring:
		return &r.IsRecurring
	case FieldIsTransfer:
		return &r.IsTransfer
	case FieldIsRefund:
		return &r.IsRefund
	case FieldIsSubscription:
		return &r.IsSubscription
	case FieldIsTaxDeductible:
		return &r.IsTaxDeductible
	case FieldIsBusinessExpense:
		return &r.IsBusinessExpense
	case FieldIsReimbursable:
		return &r.IsReimbursable
	case FieldIsReviewed:
		return &r.IsReviewed
	case FieldIsExcludedFromTotals:
		return &r.IsExcludedFromTotals
	case FieldIsSplit:
		return &r.IsSplit
	case FieldIsShared:
		return &r.IsShared
	case FieldIsArchived:
		return &r.IsArchived
	case FieldIsCleared:
		return &r.IsCleared
	case FieldIsEstimated:
		return &r.IsEstimated
	case FieldIsForeign:
		return &r.IsForeign
	case FieldIsInterest:
		return &r.IsInterest
	case FieldIsFee:
		return &r.IsFee
	}
	return nil
}

// WireDate is the date layout used in outbound partial updates.
const WireDate = "2006-01-02"

func optString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func optTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

func optDecimal(p *decimal.Decimal) any {
	if p == nil {
		return nil
	}
	return *p
}

func applyString(dst *string, v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("record: want string, got %T", v)
	}
	*dst = s
	return nil
}

func applyOptString(dst **string, v any) error {
	if v == nil {
		*dst = nil
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("record: want string or nil, got %T", v)
	}
	*dst = &s
	return nil
}

func applyTime(dst *time.Time, v any) error {
	switch t := v.(type) {
	case time.Time:
		*dst = t
		return nil
	case string:
		parsed, err := time.Parse(WireDate, t)
		if err != nil {
			return fmt.Errorf("record: bad date %q: %w", t, err)
		}
		*dst = parsed
		return nil
	}
	return fmt.Errorf("record: want time or date string, got %T", v)
}

func applyOptTime(dst **time.Time, v any) error {
	if v == nil {
		*dst = nil
		return nil
	}
	var t time.Time
	if err := applyTime(&t, v); err != nil {
		return err
	}
	*dst = &t
	return nil
}

func applyTags(dst *[]string, v any) error {
	if v == nil {
		*dst = nil
		return nil
	}
	tags, ok := v.([]string)
	if !ok {
		return fmt.Errorf("record: want []string, got %T", v)
	}
	*dst = append([]string(nil), tags...)
	return nil
}
