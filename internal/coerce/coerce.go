// Package coerce normalizes raw UI input into canonical typed field values.
// It is the single place field type semantics are decided, so the diff engine
// and the outbound payload stay consistent with what inputs display.
package coerce

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintab/ledgerview/internal/record"
)

// InvalidFieldValueError reports input that cannot become a valid value for
// its field. The caller must leave the field untouched.
type InvalidFieldValueError struct {
	Field  record.Field
	Reason string
}

func (e *InvalidFieldValueError) Error() string {
	return fmt.Sprintf("invalid value for %s: %s", e.Field, e.Reason)
}

// Pipeline holds coercion settings. The zero value is not usable; use New.
type Pipeline struct {
	// TagDelimiter splits single-string tag input.
	TagDelimiter string
	// DateLayouts are tried in order for date strings.
	DateLayouts []string
}

// New returns a pipeline with the default delimiter and date layouts.
func New() *Pipeline {
	return &Pipeline{
		TagDelimiter: ",",
		DateLayouts:  []string{record.WireDate, time.RFC3339, "02/01/2006"},
	}
}

// Coerce normalizes raw into the canonical typed value for field. It is pure:
// no state is read or written. A returned error is always an
// *InvalidFieldValueError.
func (p *Pipeline) Coerce(field record.Field, raw any) (any, error) {
	switch record.KindOf(field) {
	case record.KindBool:
		// Booleans pass through; inputs for bool fields are already typed.
		return raw, nil
	case record.KindTags:
		return p.coerceTags(field, raw)
	case record.KindDate:
		return p.coerceDate(field, raw)
	case record.KindAmount:
		return p.coerceAmount(field, raw)
	}

	// Optional text-ish fields: empty string means "cleared", which is
	// distinct from never having been touched.
	if s, ok := raw.(string); ok && s == "" && field != record.FieldID {
		return nil, nil
	}
	return raw, nil
}

func (p *Pipeline) coerceTags(field record.Field, raw any) (any, error) {
	var parts []string
	switch v := raw.(type) {
	case []string:
		parts = v
	case string:
		parts = strings.Split(v, p.TagDelimiter)
	case nil:
		return []string{}, nil
	default:
		return nil, &InvalidFieldValueError{Field: field, Reason: fmt.Sprintf("want tag list or delimited string, got %T", raw)}
	}

	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out, nil
}

func (p *Pipeline) coerceDate(field record.Field, raw any) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range p.DateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return nil, &InvalidFieldValueError{Field: field, Reason: fmt.Sprintf("unparseable date %q", v)}
	}
	return nil, &InvalidFieldValueError{Field: field, Reason: fmt.Sprintf("want date or date string, got %T", raw)}
}

func (p *Pipeline) coerceAmount(field record.Field, raw any) (any, error) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v.Round(2), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &InvalidFieldValueError{Field: field, Reason: "amount is not a finite number"}
		}
		return decimal.NewFromFloat(v).Round(2), nil
	case int:
		return decimal.NewFromInt(int64(v)).Round(2), nil
	case int64:
		return decimal.NewFromInt(v).Round(2), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, &InvalidFieldValueError{Field: field, Reason: fmt.Sprintf("non-numeric amount %q", v)}
		}
		return d.Round(2), nil
	}
	return nil, &InvalidFieldValueError{Field: field, Reason: fmt.Sprintf("want number or numeric string, got %T", raw)}
}
