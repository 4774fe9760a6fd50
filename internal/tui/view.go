package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/fintab/ledgerview/internal/record"
)

var columnWidths = map[record.Field]int{
	record.FieldDate:      10,
	record.FieldMerchant:  24,
	record.FieldAmount:    12,
	record.FieldCategory:  14,
	record.FieldStatus:    20,
	record.FieldTags:      16,
	record.FieldNotes:     20,
	record.FieldAccountID: 12,
}

func (a *App) View() string {
	if !a.ready {
		return statusStyle.Render("loading records...")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("ledgerview"))
	b.WriteString("  ")
	b.WriteString(statusStyle.Render(a.pageLine()))
	b.WriteString("\n\n")

	if a.showDetail {
		b.WriteString(a.detailView())
	} else {
		b.WriteString(a.tableView())
	}

	b.WriteString("\n")
	b.WriteString(a.statusLine())
	b.WriteString("\n")
	b.WriteString(a.footer())
	return b.String()
}

func (a *App) pageLine() string {
	if sp, ok := a.table.ServerPagination(); ok {
		return fmt.Sprintf("page %d/%d · %d records", sp.Page, max(sp.Pages, 1), sp.Total)
	}
	return fmt.Sprintf("page %d", a.table.Pagination().PageIndex+1)
}

func (a *App) tableView() string {
	cols := a.table.VisibleColumns()
	rows := a.table.VisibleRows()
	selectedID, _ := a.table.SelectedID()

	var b strings.Builder

	if a.filtering {
		b.WriteString("filter: " + a.filterInput.View() + "\n\n")
	} else if a.table.HasFilters() {
		b.WriteString(statusStyle.Render("filters: "+a.filterSummary()) + "\n\n")
	}

	var header []string
	for _, f := range cols {
		header = append(header, pad(columnTitle(f), colWidth(f)))
	}
	b.WriteString(headerRowStyle.Render(strings.Join(header, " ")))
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString(statusStyle.Render("  no records match"))
		b.WriteString("\n")
		return b.String()
	}

	for i, r := range rows {
		var cells []string
		for _, f := range cols {
			cells = append(cells, pad(a.cellValue(r, f), colWidth(f)))
		}
		line := strings.Join(cells, " ")
		switch {
		case i == a.cursor:
			line = cursorRowStyle.Render("> " + line)
		case r.ID == selectedID:
			line = selectedRowStyle.Render("  " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) filterSummary() string {
	var parts []string
	for _, s := range a.table.Specs() {
		fl, ok := a.table.FilterFor(s.Field)
		if !ok {
			continue
		}
		parts = append(parts, string(s.Field)+"="+fl.Encode(s.Kind))
	}
	return strings.Join(parts, "  ")
}

func (a *App) detailView() string {
	rec := a.buf.Record()
	var b strings.Builder

	b.WriteString(titleStyle.Render(a.recordTitle(rec)))
	b.WriteString("\n")
	if a.buf.Editing() {
		b.WriteString(pendingBadge.Render("EDITING"))
		if a.buf.Dirty() {
			b.WriteString(pendingBadge.Render(" (unsaved changes)"))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, f := range detailFields {
		label := pad(columnTitle(f), 18)
		value := a.detailValue(f)
		mark := " "
		if a.fieldEdited(f) {
			mark = editedMark
		}
		line := fmt.Sprintf("%s %s %s", label, mark, value)
		if i == a.detailCursor {
			line = cursorRowStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if a.editingField != "" {
		b.WriteString("\n")
		b.WriteString(string(a.editingField) + ": " + a.fieldInput.View())
		b.WriteString("\n")
	}

	return modalStyle.Render(b.String())
}

func (a *App) recordTitle(rec record.Record) string {
	name := rec.ID
	if rec.Merchant != nil {
		name = *rec.Merchant
	}
	return name + "  " + a.statusBadge(rec)
}

func (a *App) statusBadge(rec record.Record) string {
	s := rec.EffectiveStatus()
	if rec.Pending() {
		return pendingBadge.Render(string(s))
	}
	if s == record.StatusCompleted {
		return okBadge.Render(string(s))
	}
	return statusStyle.Render(string(s))
}

// detailValue renders through the buffer so overrides and record values show
// uniformly.
func (a *App) detailValue(f record.Field) string {
	v, err := a.buf.CurrentValue(f)
	if err != nil {
		return errorStyle.Render("?")
	}
	return a.renderValue(f, v)
}

// fieldEdited reports whether the buffered rendering differs from the bound
// record's, which is what the panel marks.
func (a *App) fieldEdited(f record.Field) bool {
	if !a.buf.Editing() {
		return false
	}
	cur, err := a.buf.CurrentValue(f)
	if err != nil {
		return false
	}
	base, err := a.buf.Record().Value(f)
	if err != nil {
		return false
	}
	return a.renderValue(f, cur) != a.renderValue(f, base)
}

func (a *App) cellValue(r record.Record, f record.Field) string {
	if f == record.FieldStatus {
		return a.statusBadge(r)
	}
	v, err := r.Value(f)
	if err != nil {
		return ""
	}
	return a.renderValue(f, v)
}

func (a *App) renderValue(f record.Field, v any) string {
	if v == nil {
		return statusStyle.Render("-")
	}
	switch t := v.(type) {
	case decimal.Decimal:
		return a.formatAmount(t)
	case time.Time:
		return t.Format(a.cfg.UI.DateFormat)
	case []string:
		return joinTags(t)
	case record.Status:
		return string(t)
	case bool:
		if t {
			return okBadge.Render("yes")
		}
		return statusStyle.Render("no")
	case string:
		return t
	}
	return fmt.Sprintf("%v", v)
}

// formatAmount renders a decimal amount with the configured currency's
// symbol and separators.
func (a *App) formatAmount(d decimal.Decimal) string {
	code := a.cfg.UI.CurrencyCode
	if rec, ok := a.table.SelectedRecord(); ok && a.showDetail && rec.Currency != "" {
		code = rec.Currency
	}
	m := money.New(d.Shift(2).IntPart(), code)
	return m.Display()
}

func (a *App) statusLine() string {
	switch {
	case a.errMsg != "":
		return errorStyle.Render(a.errMsg)
	case a.inflight > 0:
		return pendingBadge.Render(fmt.Sprintf("saving (%d in flight)...", a.inflight))
	case a.statusMsg != "":
		return statusStyle.Render(a.statusMsg)
	}
	return ""
}

func (a *App) footer() string {
	bindings := a.keys.tableHelp()
	if a.showDetail {
		bindings = a.keys.detailHelp()
	}
	var parts []string
	for _, b := range bindings {
		parts = append(parts, b.Help().Key+" "+b.Help().Desc)
	}
	return footerStyle.Render(strings.Join(parts, " · "))
}

func columnTitle(f record.Field) string {
	switch f {
	case record.FieldAccountID:
		return "account"
	case record.FieldPaymentMethod:
		return "payment"
	case record.FieldReferenceNumber:
		return "reference"
	case record.FieldTaxCategory:
		return "tax category"
	case record.FieldIsTaxDeductible:
		return "tax deductible"
	case record.FieldIsVerified:
		return "verified"
	case record.FieldIsReviewed:
		return "reviewed"
	case record.FieldIsShared:
		return "shared"
	case record.FieldCustomCategory:
		return "custom category"
	}
	return string(f)
}

func colWidth(f record.Field) int {
	if w, ok := columnWidths[f]; ok {
		return w
	}
	return 14
}

func pad(s string, w int) string {
	if n := lipgloss.Width(s); n > w {
		return truncate(s, w)
	} else if n == w {
		return s
	}
	return s + strings.Repeat(" ", w-lipgloss.Width(s))
}

// truncate is rune-safe but deliberately ignores embedded styling; styled
// cells (status, bools) are always shorter than their column.
func truncate(s string, w int) string {
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w <= 1 {
		return string(r[:w])
	}
	return string(r[:w-1]) + "…"
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	return strings.Join(tags, ",")
}

func joinStatuses(ss []record.Status) string {
	var parts []string
	for _, s := range ss {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, ", ")
}
