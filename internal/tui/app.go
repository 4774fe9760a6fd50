// Package tui is the terminal shell over the table controller and edit
// buffer. The bubbletea event loop is the single writer of all view state;
// every database call runs in a command and reports back as a message.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/fintab/ledgerview/internal/coerce"
	"github.com/fintab/ledgerview/internal/config"
	"github.com/fintab/ledgerview/internal/database/repository"
	"github.com/fintab/ledgerview/internal/editbuf"
	"github.com/fintab/ledgerview/internal/prefs"
	"github.com/fintab/ledgerview/internal/record"
	"github.com/fintab/ledgerview/internal/statusflow"
	"github.com/fintab/ledgerview/internal/tablestate"
	"github.com/fintab/ledgerview/internal/urlstate"
)

// sortCycle is the fields the sort key rotates through.
var sortCycle = []record.Field{record.FieldDate, record.FieldAmount, record.FieldMerchant}

// detailFields is the edit panel's field order.
var detailFields = []record.Field{
	record.FieldMerchant,
	record.FieldAmount,
	record.FieldCurrency,
	record.FieldDate,
	record.FieldCategory,
	record.FieldSubcategory,
	record.FieldStatus,
	record.FieldTags,
	record.FieldPaymentMethod,
	record.FieldReferenceNumber,
	record.FieldNotes,
	record.FieldTaxCategory,
	record.FieldIsVerified,
	record.FieldIsReviewed,
	record.FieldIsTaxDeductible,
	record.FieldIsShared,
}

type (
	pageLoadedMsg struct {
		page repository.Page
		err  error
	}

	saveDoneMsg struct {
		id        string
		rec       record.Record
		submitted bool
		err       error
	}

	// mutationDoneMsg reports a status or tag mutation that bypassed the
	// edit buffer; the row set is reloaded on success.
	mutationDoneMsg struct {
		id     string
		action string
		err    error
	}
)

// App is the bubbletea model for the record table and detail panel.
type App struct {
	ctx   context.Context
	cfg   config.Config
	store *repository.RecordStore
	graph *statusflow.Graph
	table *tablestate.Controller
	buf   *editbuf.Buffer
	addr  *urlstate.Store
	keys  keyMap

	// The controller forwards page requests through closures; flags set
	// there are collected after each Update pass.
	wantLoad bool

	width  int
	height int
	ready  bool

	cursor    int
	sortIdx   int
	statusMsg string
	errMsg    string
	inflight  int

	showDetail   bool
	detailCursor int

	filterInput textinput.Model
	filtering   bool

	fieldInput   textinput.Model
	editingField record.Field
}

// New wires the shell together. The address store seeds the initial view;
// anything it carries that no longer validates is silently dropped.
func New(ctx context.Context, cfg config.Config, store *repository.RecordStore, addr *urlstate.Store, layout prefs.Store) *App {
	a := &App{
		ctx:   ctx,
		cfg:   cfg,
		store: store,
		graph: statusflow.Default(),
		addr:  addr,
		keys:  newKeyMap(),
	}

	a.table = tablestate.New(tablestate.Options{
		Filterable: []tablestate.FilterSpec{
			{Field: record.FieldStatus, Kind: tablestate.FilterSet},
			{Field: record.FieldCategory, Kind: tablestate.FilterSet},
			{Field: record.FieldTags, Kind: tablestate.FilterSet},
			{Field: record.FieldMerchant, Kind: tablestate.FilterText},
			{Field: record.FieldDate, Kind: tablestate.FilterDateRange},
			{Field: record.FieldAmount, Kind: tablestate.FilterAmountRange},
		},
		Address:  addr,
		Layout:   layout,
		Mode:     tablestate.ModeServer,
		PageSize: cfg.UI.PageSize,
		OnPageChange: func(int) {
			a.wantLoad = true
		},
		OnPageSizeChange: func(int) {
			a.wantLoad = true
		},
	})
	a.table.Restore(addr.Values())

	a.buf = editbuf.New(coerce.New(), a.graph, storeUpdater{store})

	fi := textinput.New()
	fi.Placeholder = "merchant contains..."
	fi.CharLimit = 64
	a.filterInput = fi

	ei := textinput.New()
	ei.CharLimit = 128
	a.fieldInput = ei

	return a
}

// storeUpdater adapts the record store to the buffer's submit seam.
type storeUpdater struct {
	store *repository.RecordStore
}

func (u storeUpdater) UpdateRecord(ctx context.Context, id string, data map[record.Field]any) (record.Record, error) {
	return u.store.UpdatePartial(ctx, id, data)
}

func (a *App) Init() tea.Cmd {
	return a.loadCmd()
}

// loadCmd snapshots the controller's filter and pagination state into a
// query and runs it off the event loop.
func (a *App) loadCmd() tea.Cmd {
	q := repository.Query{
		Page:    a.table.Pagination().PageIndex + 1,
		Limit:   a.table.Pagination().PageSize,
		Filters: a.queryFilters(),
	}
	ctx := a.ctx
	store := a.store
	return func() tea.Msg {
		page, err := store.List(ctx, q)
		return pageLoadedMsg{page: page, err: err}
	}
}

// queryFilters maps the declared table filters onto the store's query shape.
// Set filters forward every selected value; the store ORs the members.
func (a *App) queryFilters() repository.Filters {
	var f repository.Filters
	if fl, ok := a.table.FilterFor(record.FieldStatus); ok {
		f.Statuses = fl.Values
	}
	if fl, ok := a.table.FilterFor(record.FieldCategory); ok {
		f.Categories = fl.Values
	}
	if fl, ok := a.table.FilterFor(record.FieldTags); ok {
		f.Tags = fl.Values
	}
	if fl, ok := a.table.FilterFor(record.FieldMerchant); ok {
		f.Search = fl.Text
	}
	if fl, ok := a.table.FilterFor(record.FieldDate); ok {
		f.DateFrom = fl.DateMin
		f.DateTo = fl.DateMax
	}
	if fl, ok := a.table.FilterFor(record.FieldAmount); ok {
		f.AmountMin = fl.AmountMin
		f.AmountMax = fl.AmountMax
	}
	return f
}

func (a *App) saveCmd() tea.Cmd {
	ctx := a.ctx
	buf := a.buf
	id := a.buf.Record().ID
	return func() tea.Msg {
		rec, submitted, err := buf.Save(ctx)
		return saveDoneMsg{id: id, rec: rec, submitted: submitted, err: err}
	}
}

func (a *App) completeCmd(id string, res statusflow.Result) tea.Cmd {
	ctx := a.ctx
	store := a.store
	return func() tea.Msg {
		err := store.UpdateStatus(ctx, id, res.Status)
		return mutationDoneMsg{id: id, action: "complete", err: err}
	}
}

func (a *App) removeTagCmd(id, tag string) tea.Cmd {
	ctx := a.ctx
	store := a.store
	return func() tea.Msg {
		_, err := store.RemoveTag(ctx, id, tag)
		return mutationDoneMsg{id: id, action: "untag", err: err}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case pageLoadedMsg:
		return a.onPageLoaded(msg)

	case saveDoneMsg:
		return a.onSaveDone(msg)

	case mutationDoneMsg:
		a.inflight--
		if msg.err != nil {
			a.errMsg = msg.err.Error()
			return a, nil
		}
		a.statusMsg = msg.action + " applied"
		return a, a.loadCmd()

	case tea.KeyMsg:
		a.errMsg = ""
		var cmd tea.Cmd
		switch {
		case a.editingField != "":
			cmd = a.updateFieldInput(msg)
		case a.filtering:
			cmd = a.updateFilterInput(msg)
		case a.showDetail:
			cmd = a.updateDetail(msg)
		default:
			cmd = a.updateTable(msg)
		}
		if a.wantLoad {
			a.wantLoad = false
			return a, tea.Batch(cmd, a.loadCmd())
		}
		return a, cmd
	}
	return a, nil
}

func (a *App) onPageLoaded(msg pageLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.errMsg = fmt.Sprintf("load failed: %v", msg.err)
		return a, nil
	}
	a.ready = true
	a.table.ApplyServerPage(tablestate.ServerPage{
		Page:  msg.page.Page,
		Limit: msg.page.Limit,
		Total: msg.page.Total,
		Pages: msg.page.Pages,
	})
	a.table.SetRows(msg.page.Records)
	if a.cursor >= len(a.table.VisibleRows()) {
		a.cursor = max(0, len(a.table.VisibleRows())-1)
	}
	if rec, ok := a.table.SelectedRecord(); ok {
		a.buf.Bind(rec)
	} else if a.showDetail {
		// The selected row fell out of the data set; the panel closes
		// rather than showing orphaned data.
		a.closeDetail()
	}
	return a, nil
}

func (a *App) onSaveDone(msg saveDoneMsg) (tea.Model, tea.Cmd) {
	a.inflight--
	if msg.err != nil {
		// Buffered edits survived; show the failure and stay in edit mode.
		a.errMsg = msg.err.Error()
		return a, nil
	}
	if id, ok := a.table.SelectedID(); !ok || id != msg.id {
		// The user moved on while the save was in flight; the reload
		// below still picks up the write.
		return a, a.loadCmd()
	}
	if !msg.submitted {
		a.statusMsg = "no changes"
		return a, nil
	}
	a.table.ReplaceRow(msg.rec)
	a.buf.Bind(msg.rec)
	a.statusMsg = "saved"
	return a, a.loadCmd()
}

// --- table mode ---------------------------------------------------------------

func (a *App) updateTable(msg tea.KeyMsg) tea.Cmd {
	rows := a.table.VisibleRows()
	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}

	case key.Matches(msg, a.keys.Down):
		if a.cursor < len(rows)-1 {
			a.cursor++
		}

	case key.Matches(msg, a.keys.Open):
		if a.cursor < len(rows) {
			rec := rows[a.cursor]
			a.table.Select(rec.ID)
			a.buf.Bind(rec)
			a.showDetail = true
			a.detailCursor = 0
		}

	case key.Matches(msg, a.keys.Complete):
		if a.cursor < len(rows) {
			rec := rows[a.cursor]
			res, err := a.graph.Complete(rec.EffectiveStatus())
			if err != nil {
				a.errMsg = err.Error()
				return nil
			}
			a.inflight++
			return a.completeCmd(rec.ID, res)
		}

	case key.Matches(msg, a.keys.NextPage):
		a.table.SetPageIndex(a.table.Pagination().PageIndex + 1)

	case key.Matches(msg, a.keys.PrevPage):
		a.table.SetPageIndex(a.table.Pagination().PageIndex - 1)

	case key.Matches(msg, a.keys.Filter):
		a.filtering = true
		if fl, ok := a.table.FilterFor(record.FieldMerchant); ok {
			a.filterInput.SetValue(fl.Text)
		} else {
			a.filterInput.SetValue("")
		}
		return a.filterInput.Focus()

	case key.Matches(msg, a.keys.Sort):
		a.cycleSort()

	case key.Matches(msg, a.keys.ClearFilters):
		if a.table.HasFilters() {
			a.table.ClearFilters()
			a.wantLoad = true
		}

	case key.Matches(msg, a.keys.ResetLayout):
		a.table.ResetLayout()
		a.statusMsg = "layout reset"
	}
	return nil
}

// cycleSort rotates through the sort fields, flipping direction on a repeat.
func (a *App) cycleSort() {
	sorting := a.table.Sorting()
	if len(sorting) > 0 && sorting[0].Field == sortCycle[a.sortIdx] && !sorting[0].Descending {
		a.table.ToggleSort(sortCycle[a.sortIdx])
		return
	}
	if len(sorting) > 0 && sorting[0].Field == sortCycle[a.sortIdx] && sorting[0].Descending {
		a.sortIdx = (a.sortIdx + 1) % len(sortCycle)
	}
	a.table.SetSort(sortCycle[a.sortIdx], false)
}

func (a *App) updateFilterInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.filtering = false
		a.filterInput.Blur()
		return nil
	case "enter":
		a.filtering = false
		a.filterInput.Blur()
		a.table.SetTextFilter(record.FieldMerchant, a.filterInput.Value())
		a.wantLoad = true
		return nil
	}
	var cmd tea.Cmd
	a.filterInput, cmd = a.filterInput.Update(msg)
	return cmd
}

// --- detail mode --------------------------------------------------------------

func (a *App) updateDetail(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit

	case key.Matches(msg, a.keys.Close):
		a.closeDetail()

	case key.Matches(msg, a.keys.Up):
		if a.detailCursor > 0 {
			a.detailCursor--
		}

	case key.Matches(msg, a.keys.Down):
		if a.detailCursor < len(detailFields)-1 {
			a.detailCursor++
		}

	case key.Matches(msg, a.keys.Edit):
		if a.buf.Editing() {
			a.buf.CancelEdit()
			a.statusMsg = "edit cancelled"
		} else {
			a.buf.StartEdit()
			a.statusMsg = "editing"
		}

	case key.Matches(msg, a.keys.Save):
		if a.buf.Editing() {
			a.inflight++
			return a.saveCmd()
		}

	case key.Matches(msg, a.keys.Open):
		return a.beginFieldEdit(detailFields[a.detailCursor])

	case msg.String() == "x":
		rec := a.buf.Record()
		if len(rec.Tags) > 0 && !a.buf.Editing() {
			a.inflight++
			return a.removeTagCmd(rec.ID, rec.Tags[len(rec.Tags)-1])
		}
	}
	return nil
}

func (a *App) closeDetail() {
	a.showDetail = false
	a.editingField = ""
	a.buf.CancelEdit()
}

// beginFieldEdit routes a field to its input affordance: bools toggle in
// place, everything else opens a text prompt seeded with the current value.
func (a *App) beginFieldEdit(f record.Field) tea.Cmd {
	if !a.buf.Editing() {
		a.statusMsg = "press e to edit first"
		return nil
	}
	if !a.buf.IsEditable(f) {
		a.errMsg = fmt.Sprintf("field %s is read-only here", f)
		return nil
	}

	if record.KindOf(f) == record.KindBool {
		cur, _ := a.buf.CurrentValue(f)
		on, _ := cur.(bool)
		if err := a.buf.SetField(f, !on); err != nil {
			a.errMsg = err.Error()
		}
		return nil
	}

	a.editingField = f
	a.fieldInput.SetValue(a.inputSeed(f))
	a.fieldInput.Placeholder = string(f)
	if f == record.FieldStatus {
		cur, _ := a.buf.CurrentValue(record.FieldStatus)
		if s, ok := cur.(record.Status); ok {
			a.fieldInput.Placeholder = "next: " + joinStatuses(a.graph.Allowed(s))
		}
	}
	return a.fieldInput.Focus()
}

func (a *App) updateFieldInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.editingField = ""
		a.fieldInput.Blur()
		return nil
	case "enter":
		if err := a.buf.SetField(a.editingField, a.fieldInput.Value()); err != nil {
			// The field keeps its previous value; the prompt stays open
			// so the input can be corrected.
			a.errMsg = err.Error()
			return nil
		}
		a.editingField = ""
		a.fieldInput.Blur()
		return nil
	}
	var cmd tea.Cmd
	a.fieldInput, cmd = a.fieldInput.Update(msg)
	return cmd
}

// inputSeed renders a field's current value for the text prompt.
func (a *App) inputSeed(f record.Field) string {
	v, err := a.buf.CurrentValue(f)
	if err != nil || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case record.Status:
		return string(t)
	case decimal.Decimal:
		return t.StringFixed(2)
	case time.Time:
		return t.Format(record.WireDate)
	case []string:
		return joinTags(t)
	}
	return fmt.Sprintf("%v", v)
}
