package tablestate

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintab/ledgerview/internal/record"
)

// FilterKind selects the comparison semantics for a filterable field.
type FilterKind int

const (
	// FilterSet matches when the row value is a member of the selected set.
	FilterSet FilterKind = iota
	// FilterDateRange matches dates within [Min, Max] inclusive.
	FilterDateRange
	// FilterAmountRange matches amounts within [Min, Max] inclusive.
	FilterAmountRange
	// FilterText matches case-insensitive substrings.
	FilterText
)

// FilterSpec declares one filterable field. The spec list is the only table
// state that is mirrored into addressable state.
type FilterSpec struct {
	Field record.Field
	Kind  FilterKind
}

// Filter is an active filter value; which members are meaningful depends on
// the spec's kind. Zero bounds leave a range open on that side.
type Filter struct {
	Values    []string
	DateMin   time.Time
	DateMax   time.Time
	AmountMin *decimal.Decimal
	AmountMax *decimal.Decimal
	Text      string
}

const rangeSep = ".."

func (f Filter) empty(kind FilterKind) bool {
	switch kind {
	case FilterSet:
		return len(f.Values) == 0
	case FilterDateRange:
		return f.DateMin.IsZero() && f.DateMax.IsZero()
	case FilterAmountRange:
		return f.AmountMin == nil && f.AmountMax == nil
	case FilterText:
		return f.Text == ""
	}
	return true
}

// matches evaluates one filter against one row.
func (f Filter) matches(kind FilterKind, row record.Record, field record.Field) bool {
	v, err := row.Value(field)
	if err != nil {
		return false
	}
	switch kind {
	case FilterSet:
		return matchSet(f.Values, field, v)
	case FilterDateRange:
		t, ok := v.(time.Time)
		if !ok {
			return false
		}
		if !f.DateMin.IsZero() && t.Before(f.DateMin) {
			return false
		}
		if !f.DateMax.IsZero() && t.After(f.DateMax) {
			return false
		}
		return true
	case FilterAmountRange:
		d, ok := v.(decimal.Decimal)
		if !ok {
			return false
		}
		if f.AmountMin != nil && d.Cmp(*f.AmountMin) < 0 {
			return false
		}
		if f.AmountMax != nil && d.Cmp(*f.AmountMax) > 0 {
			return false
		}
		return true
	case FilterText:
		s, ok := v.(string)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(f.Text))
	}
	return false
}

func matchSet(selected []string, field record.Field, v any) bool {
	if record.KindOf(field) == record.KindTags {
		tags, ok := v.([]string)
		if !ok {
			return false
		}
		for _, tag := range tags {
			for _, want := range selected {
				if strings.EqualFold(tag, want) {
					return true
				}
			}
		}
		return false
	}
	got := canonicalString(v)
	for _, want := range selected {
		if strings.EqualFold(got, want) {
			return true
		}
	}
	return false
}

// canonicalString is the facet/address representation of a field value.
func canonicalString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case record.Status:
		return string(t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t.Format(record.WireDate)
	case []string:
		return strings.Join(t, ",")
	}
	return ""
}

// Encode renders the filter into its address-state value.
func (f Filter) Encode(kind FilterKind) string {
	switch kind {
	case FilterSet:
		return strings.Join(f.Values, ",")
	case FilterDateRange:
		var lo, hi string
		if !f.DateMin.IsZero() {
			lo = f.DateMin.Format(record.WireDate)
		}
		if !f.DateMax.IsZero() {
			hi = f.DateMax.Format(record.WireDate)
		}
		return lo + rangeSep + hi
	case FilterAmountRange:
		var lo, hi string
		if f.AmountMin != nil {
			lo = f.AmountMin.String()
		}
		if f.AmountMax != nil {
			hi = f.AmountMax.String()
		}
		return lo + rangeSep + hi
	case FilterText:
		return f.Text
	}
	return ""
}

// decodeFilter parses an address-state value back into a filter.
func decodeFilter(kind FilterKind, raw string) (Filter, bool) {
	switch kind {
	case FilterSet:
		var values []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
		return Filter{Values: values}, len(values) > 0
	case FilterDateRange:
		lo, hi, ok := strings.Cut(raw, rangeSep)
		if !ok {
			return Filter{}, false
		}
		var f Filter
		if lo != "" {
			t, err := time.Parse(record.WireDate, lo)
			if err != nil {
				return Filter{}, false
			}
			f.DateMin = t
		}
		if hi != "" {
			t, err := time.Parse(record.WireDate, hi)
			if err != nil {
				return Filter{}, false
			}
			f.DateMax = t
		}
		return f, !f.empty(kind)
	case FilterAmountRange:
		lo, hi, ok := strings.Cut(raw, rangeSep)
		if !ok {
			return Filter{}, false
		}
		var f Filter
		if lo != "" {
			d, err := decimal.NewFromString(lo)
			if err != nil {
				return Filter{}, false
			}
			f.AmountMin = &d
		}
		if hi != "" {
			d, err := decimal.NewFromString(hi)
			if err != nil {
				return Filter{}, false
			}
			f.AmountMax = &d
		}
		return f, !f.empty(kind)
	case FilterText:
		return Filter{Text: raw}, raw != ""
	}
	return Filter{}, false
}
