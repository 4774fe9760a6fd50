// Package tablestate owns the composed state of a tabular record view:
// filtering, sorting, pagination, row selection, and column layout. A
// declared subset of that state is mirrored into addressable state so a view
// is shareable; column layout goes to a durable client-local store instead.
package tablestate

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintab/ledgerview/internal/prefs"
	"github.com/fintab/ledgerview/internal/record"
)

// AddressStore is the externally shareable key/value state the controller
// pushes filter, sort, and selection keys into.
type AddressStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// Mode selects who slices pages.
type Mode int

const (
	// ModeClient holds the full dataset and slices pages locally.
	ModeClient Mode = iota
	// ModeServer forwards page changes upward; server pagination is
	// authoritative and overwrites local state on conflict.
	ModeServer
)

// SortState is one sort entry. Only the first entry is honored; ties keep
// their prior relative order.
type SortState struct {
	Field      record.Field
	Descending bool
}

// Pagination is the controller's local pagination state. PageIndex is
// 0-based.
type Pagination struct {
	PageIndex int
	PageSize  int
}

// ServerPage is the authoritative pagination a query collaborator reports.
// Page is 1-based, matching the wire shape.
type ServerPage struct {
	Page  int
	Limit int
	Total int
	Pages int
}

const (
	sortKey      = "sort"
	selectionKey = "sel"
	layoutKey    = "table.layout"
)

// Options configures a controller.
type Options struct {
	Filterable       []FilterSpec
	Address          AddressStore
	Layout           prefs.Store
	Mode             Mode
	PageSize         int
	OnPageChange     func(page int) // 1-based, forwarded to the query seam
	OnPageSizeChange func(size int)
}

// Controller owns one table instance's state. It is not safe for concurrent
// use; the host event loop serializes access.
type Controller struct {
	specs      []FilterSpec
	filters    map[record.Field]Filter
	sorting    []SortState
	mode       Mode
	page       Pagination
	serverPage *ServerPage
	rows       []record.Record
	selection  map[string]bool
	order      []record.Field
	hidden     map[record.Field]bool
	addr       AddressStore
	layout     prefs.Store
	onPage     func(int)
	onPageSize func(int)
}

// New builds a controller, loading any persisted column layout.
func New(opts Options) *Controller {
	size := opts.PageSize
	if size <= 0 {
		size = 25
	}
	c := &Controller{
		specs:      opts.Filterable,
		filters:    map[record.Field]Filter{},
		mode:       opts.Mode,
		page:       Pagination{PageSize: size},
		selection:  map[string]bool{},
		order:      record.DefaultColumns(),
		hidden:     map[record.Field]bool{},
		addr:       opts.Address,
		layout:     opts.Layout,
		onPage:     opts.OnPageChange,
		onPageSize: opts.OnPageSizeChange,
	}
	c.loadLayout()
	return c
}

// Specs returns the declared filterable fields.
func (c *Controller) Specs() []FilterSpec {
	return append([]FilterSpec(nil), c.specs...)
}

func (c *Controller) spec(f record.Field) (FilterSpec, bool) {
	for _, s := range c.specs {
		if s.Field == f {
			return s, true
		}
	}
	return FilterSpec{}, false
}

// --- rows and selection -----------------------------------------------------

// SetRows replaces the loaded row set and reconciles selection in the same
// pass: a selected id that is no longer present clears both the selection and
// its addressable-state key, so a detail panel can never show orphaned data.
func (c *Controller) SetRows(rows []record.Record) {
	c.rows = rows
	id, ok := c.SelectedID()
	if !ok {
		return
	}
	for _, r := range rows {
		if r.ID == id {
			return
		}
	}
	c.ClearSelection()
}

// Rows returns the loaded rows (the current page in server mode, the full
// dataset in client mode).
func (c *Controller) Rows() []record.Record { return c.rows }

// Select marks a single row as selected and mirrors it to addressable state.
func (c *Controller) Select(id string) {
	c.selection = map[string]bool{id: true}
	if c.addr != nil {
		c.addr.Set(selectionKey, id)
	}
}

// ClearSelection drops the selection and its addressable key.
func (c *Controller) ClearSelection() {
	c.selection = map[string]bool{}
	if c.addr != nil {
		c.addr.Delete(selectionKey)
	}
}

// SelectedID returns the selected row id, if any.
func (c *Controller) SelectedID() (string, bool) {
	for id := range c.selection {
		return id, true
	}
	return "", false
}

// SelectedRecord returns the selected row, if it is loaded.
func (c *Controller) SelectedRecord() (record.Record, bool) {
	id, ok := c.SelectedID()
	if !ok {
		return record.Record{}, false
	}
	for _, r := range c.rows {
		if r.ID == id {
			return r, true
		}
	}
	return record.Record{}, false
}

// ReplaceRow swaps in a refreshed copy of one row, keyed by id.
func (c *Controller) ReplaceRow(updated record.Record) {
	for i := range c.rows {
		if c.rows[i].ID == updated.ID {
			c.rows[i] = updated
			return
		}
	}
}

// --- filtering --------------------------------------------------------------

// SetSetFilter activates set-membership filtering on a declared field. An
// empty set clears the filter.
func (c *Controller) SetSetFilter(f record.Field, values []string) {
	c.setFilter(f, Filter{Values: values})
}

// SetDateRangeFilter activates an inclusive date-range filter; zero bounds
// are open.
func (c *Controller) SetDateRangeFilter(f record.Field, min, max time.Time) {
	c.setFilter(f, Filter{DateMin: min, DateMax: max})
}

// SetAmountRangeFilter activates an inclusive amount-range filter; nil bounds
// are open.
func (c *Controller) SetAmountRangeFilter(f record.Field, min, max *decimal.Decimal) {
	c.setFilter(f, Filter{AmountMin: min, AmountMax: max})
}

// SetTextFilter activates substring filtering.
func (c *Controller) SetTextFilter(f record.Field, query string) {
	c.setFilter(f, Filter{Text: query})
}

// ClearFilter drops one field's filter.
func (c *Controller) ClearFilter(f record.Field) {
	c.setFilter(f, Filter{})
}

// ClearFilters drops every active filter and its address keys.
func (c *Controller) ClearFilters() {
	c.filters = map[record.Field]Filter{}
	c.page.PageIndex = 0
	c.syncFilters()
}

// FilterFor returns the active filter for a field.
func (c *Controller) FilterFor(f record.Field) (Filter, bool) {
	fl, ok := c.filters[f]
	return fl, ok
}

// HasFilters reports whether any filter is active.
func (c *Controller) HasFilters() bool { return len(c.filters) > 0 }

func (c *Controller) setFilter(f record.Field, fl Filter) {
	spec, ok := c.spec(f)
	if !ok {
		return
	}
	if fl.empty(spec.Kind) {
		delete(c.filters, f)
	} else {
		c.filters[f] = fl
	}
	// A filter change invalidates the page position.
	c.page.PageIndex = 0
	c.syncFilters()
}

// syncFilters pushes every declared filterable field to addressable state,
// absent key meaning "no filter". Declared fields only; arbitrary table state
// never leaks into the address.
func (c *Controller) syncFilters() {
	if c.addr == nil {
		return
	}
	for _, s := range c.specs {
		fl, ok := c.filters[s.Field]
		if !ok {
			c.addr.Delete(string(s.Field))
			continue
		}
		c.addr.Set(string(s.Field), fl.Encode(s.Kind))
	}
}

func (c *Controller) rowMatches(r record.Record) bool {
	for _, s := range c.specs {
		fl, ok := c.filters[s.Field]
		if !ok {
			continue
		}
		if !fl.matches(s.Kind, r, s.Field) {
			return false
		}
	}
	return true
}

// --- sorting ----------------------------------------------------------------

// SetSort replaces the sort list with a single entry and mirrors it.
func (c *Controller) SetSort(f record.Field, descending bool) {
	c.sorting = []SortState{{Field: f, Descending: descending}}
	c.syncSort()
}

// ToggleSort sorts by f ascending, or flips direction if already sorted by f.
func (c *Controller) ToggleSort(f record.Field) {
	if len(c.sorting) > 0 && c.sorting[0].Field == f {
		c.SetSort(f, !c.sorting[0].Descending)
		return
	}
	c.SetSort(f, false)
}

// ClearSort drops all sorting.
func (c *Controller) ClearSort() {
	c.sorting = nil
	c.syncSort()
}

// Sorting returns the sort list; only the first entry is honored.
func (c *Controller) Sorting() []SortState {
	return append([]SortState(nil), c.sorting...)
}

func (c *Controller) syncSort() {
	if c.addr == nil {
		return
	}
	if len(c.sorting) == 0 {
		c.addr.Delete(sortKey)
		return
	}
	dir := "asc"
	if c.sorting[0].Descending {
		dir = "desc"
	}
	c.addr.Set(sortKey, string(c.sorting[0].Field)+"."+dir)
}

func (c *Controller) sortRows(rows []record.Record) {
	if len(c.sorting) == 0 {
		return
	}
	s := c.sorting[0]
	sort.SliceStable(rows, func(i, j int) bool {
		// Descending swaps operands rather than negating, so equal keys
		// compare "not less" both ways and ties keep their prior order.
		if s.Descending {
			return rowLess(rows[j], rows[i], s.Field)
		}
		return rowLess(rows[i], rows[j], s.Field)
	})
}

func rowLess(a, b record.Record, f record.Field) bool {
	av, _ := a.Value(f)
	bv, _ := b.Value(f)
	switch record.KindOf(f) {
	case record.KindAmount:
		ad, aok := av.(decimal.Decimal)
		bd, bok := bv.(decimal.Decimal)
		if aok && bok {
			return ad.Cmp(bd) < 0
		}
	case record.KindDate:
		at, aok := av.(time.Time)
		bt, bok := bv.(time.Time)
		if aok && bok {
			return at.Before(bt)
		}
	}
	return strings.ToLower(canonicalString(av)) < strings.ToLower(canonicalString(bv))
}

// --- pagination -------------------------------------------------------------

// Pagination returns the current local pagination state.
func (c *Controller) Pagination() Pagination { return c.page }

// ServerPagination returns the last authoritative server pagination, if in
// server mode and one has arrived.
func (c *Controller) ServerPagination() (ServerPage, bool) {
	if c.serverPage == nil {
		return ServerPage{}, false
	}
	return *c.serverPage, true
}

// SetPageIndex requests a page change. In server mode the request is
// forwarded upward and local state is provisional until the server's
// pagination arrives; in client mode it is clamped immediately.
func (c *Controller) SetPageIndex(i int) {
	if i < 0 {
		i = 0
	}
	c.page.PageIndex = i
	if c.mode == ModeServer {
		if c.onPage != nil {
			c.onPage(i + 1)
		}
		return
	}
	c.clampClientPage()
}

// SetPageSize changes the page size and resets to the first page.
func (c *Controller) SetPageSize(n int) {
	if n <= 0 {
		return
	}
	c.page.PageSize = n
	c.page.PageIndex = 0
	if c.mode == ModeServer && c.onPageSize != nil {
		c.onPageSize(n)
	}
}

// ApplyServerPage overwrites local pagination with the server's authoritative
// report. An out-of-range local request is corrected here rather than left
// dangling.
func (c *Controller) ApplyServerPage(p ServerPage) {
	c.serverPage = &p
	if p.Limit > 0 {
		c.page.PageSize = p.Limit
	}
	idx := p.Page - 1
	if idx < 0 {
		idx = 0
	}
	if p.Pages > 0 && idx > p.Pages-1 {
		idx = p.Pages - 1
	}
	c.page.PageIndex = idx
}

func (c *Controller) clampClientPage() {
	n := len(c.filteredRows())
	maxIndex := 0
	if c.page.PageSize > 0 && n > 0 {
		maxIndex = (n - 1) / c.page.PageSize
	}
	if c.page.PageIndex > maxIndex {
		c.page.PageIndex = maxIndex
	}
}

// --- derived views ----------------------------------------------------------

func (c *Controller) filteredRows() []record.Record {
	out := make([]record.Record, 0, len(c.rows))
	for _, r := range c.rows {
		if c.rowMatches(r) {
			out = append(out, r)
		}
	}
	return out
}

// VisibleRows returns the rows for the current page: filtered, sorted by the
// first sort entry, and (in client mode) sliced to the page window.
func (c *Controller) VisibleRows() []record.Record {
	rows := c.filteredRows()
	c.sortRows(rows)
	if c.mode == ModeServer {
		return rows
	}
	start := c.page.PageIndex * c.page.PageSize
	if start >= len(rows) {
		return nil
	}
	end := start + c.page.PageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// FacetCounts returns value -> row count over the loaded rows for a field,
// for filter UIs. Tag fields count each tag.
func (c *Controller) FacetCounts(f record.Field) map[string]int {
	out := map[string]int{}
	for _, r := range c.rows {
		v, err := r.Value(f)
		if err != nil {
			continue
		}
		if tags, ok := v.([]string); ok && record.KindOf(f) == record.KindTags {
			for _, tag := range tags {
				out[tag]++
			}
			continue
		}
		out[canonicalString(v)]++
	}
	return out
}

// --- column layout ----------------------------------------------------------

type layoutState struct {
	Order  []string `json:"order"`
	Hidden []string `json:"hidden"`
}

// ColumnOrder returns the full column permutation, including hidden columns.
func (c *Controller) ColumnOrder() []record.Field {
	return append([]record.Field(nil), c.order...)
}

// VisibleColumns returns the ordered columns that are not hidden.
func (c *Controller) VisibleColumns() []record.Field {
	out := make([]record.Field, 0, len(c.order))
	for _, f := range c.order {
		if !c.hidden[f] {
			out = append(out, f)
		}
	}
	return out
}

// MoveColumn shifts a column by delta positions and persists the layout.
func (c *Controller) MoveColumn(f record.Field, delta int) {
	idx := -1
	for i, col := range c.order {
		if col == f {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	target := idx + delta
	if target < 0 {
		target = 0
	}
	if target > len(c.order)-1 {
		target = len(c.order) - 1
	}
	col := c.order[idx]
	c.order = append(c.order[:idx], c.order[idx+1:]...)
	c.order = append(c.order[:target], append([]record.Field{col}, c.order[target:]...)...)
	c.saveLayout()
}

// SetColumnVisible shows or hides a column and persists the layout.
func (c *Controller) SetColumnVisible(f record.Field, visible bool) {
	if visible {
		delete(c.hidden, f)
	} else {
		c.hidden[f] = true
	}
	c.saveLayout()
}

// ResetLayout restores default column order and visibility and persists it.
func (c *Controller) ResetLayout() {
	c.order = record.DefaultColumns()
	c.hidden = map[record.Field]bool{}
	c.saveLayout()
}

func (c *Controller) loadLayout() {
	if c.layout == nil {
		return
	}
	raw, ok := c.layout.Get(layoutKey)
	if !ok {
		return
	}
	var st layoutState
	if err := json.Unmarshal(raw, &st); err != nil {
		return
	}
	if len(st.Order) > 0 {
		order := make([]record.Field, 0, len(st.Order))
		for _, name := range st.Order {
			if f := record.Field(name); record.Known(f) {
				order = append(order, f)
			}
		}
		if len(order) > 0 {
			c.order = order
		}
	}
	c.hidden = map[record.Field]bool{}
	for _, name := range st.Hidden {
		if f := record.Field(name); record.Known(f) {
			c.hidden[f] = true
		}
	}
}

func (c *Controller) saveLayout() {
	if c.layout == nil {
		return
	}
	st := layoutState{}
	for _, f := range c.order {
		st.Order = append(st.Order, string(f))
	}
	for f := range c.hidden {
		st.Hidden = append(st.Hidden, string(f))
	}
	sort.Strings(st.Hidden)
	raw, err := json.Marshal(st)
	if err != nil {
		return
	}
	_ = c.layout.Set(layoutKey, raw)
}

// --- restore ----------------------------------------------------------------

// Restore seeds filters, sort, and selection from an addressable-state
// snapshot. Unknown or malformed keys are ignored; selection validity is
// settled by the next SetRows.
func (c *Controller) Restore(values url.Values) {
	for _, s := range c.specs {
		raw := values.Get(string(s.Field))
		if raw == "" {
			continue
		}
		if fl, ok := decodeFilter(s.Kind, raw); ok {
			c.filters[s.Field] = fl
		}
	}
	if raw := values.Get(sortKey); raw != "" {
		if field, dir, ok := strings.Cut(raw, "."); ok {
			f := record.Field(field)
			if record.Known(f) && (dir == "asc" || dir == "desc") {
				c.sorting = []SortState{{Field: f, Descending: dir == "desc"}}
			}
		}
	}
	if id := values.Get(selectionKey); id != "" {
		c.selection = map[string]bool{id: true}
	}
	// Push the restored state back out so the address reflects what was
	// actually accepted.
	c.syncFilters()
	c.syncSort()
	if id, ok := c.SelectedID(); ok && c.addr != nil {
		c.addr.Set(selectionKey, id)
	}
}
