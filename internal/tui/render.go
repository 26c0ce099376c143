package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vvka-141/csvasset/internal/files/loader"
	"github.com/vvka-141/csvasset/internal/schema"
	"github.com/vvka-141/csvasset/pkg/csvasset"
)

// noKindColumn disables kind styling for tables without a kind column.
const noKindColumn = -1

// cellStyles highlights kindColumn with KindStyle. When isKind is set, rows
// for which it returns false are muted in that column instead.
func cellStyles(kindColumn int, isKind func(row int) bool) func(row, col int) lipgloss.Style {
	return func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return HeaderCellStyle
		case col != kindColumn:
			return CellStyle
		case isKind != nil && !isKind(row):
			return MutedStyle
		}
		return KindStyle
	}
}

func newTable(styles func(row, col int) lipgloss.Style, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(MutedStyle).
		Headers(headers...).
		StyleFunc(styles)
}

// RenderPreview shows each column with its first value and guessed kind.
func RenderPreview(path string, columns []loader.ColumnPreview, dataRows int) string {
	t := newTable(cellStyles(2, nil), "#", "Column", "Kind", "Sample")
	for i, c := range columns {
		t.Row(strconv.Itoa(i), c.Header, c.Kind.String(), c.Sample)
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(path))
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(MutedStyle.Render(fmt.Sprintf("%d column(s), %d data row(s)", len(columns), dataRows)))
	b.WriteString("\n")
	return b.String()
}

// RenderTypes lists registered record types.
func RenderTypes(types []*schema.RecordType) string {
	t := newTable(cellStyles(noKindColumn, nil), "Type", "Name", "Fields")
	for _, rt := range types {
		t.Row(string(rt.ID()), rt.Name(), strconv.Itoa(len(rt.Fields())))
	}
	return t.String() + "\n"
}

// RenderFields lists the fields of one record type. Unsupported fields show
// their declared type name.
func RenderFields(rt *schema.RecordType) string {
	fields := rt.Fields()
	assignable := func(row int) bool {
		return row >= 0 && row < len(fields) && fields[row].Kind.Assignable()
	}
	t := newTable(cellStyles(2, assignable), "Field", "Importable", "Type")
	for _, f := range fields {
		importable := SymbolCross
		if f.Kind.Assignable() {
			importable = SymbolCheck
		}
		t.Row(f.Name, importable, f.DisplayType())
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(string(rt.ID())))
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}

// RenderReport summarizes an import. Locations are listed when verbose.
func RenderReport(r *csvasset.ImportReport, verbose bool) string {
	var b strings.Builder

	status := SuccessStyle.Render(SymbolCheck + " Imported")
	if !r.Committed {
		status = WarningStyle.Render(SymbolBullet + " Dry run")
	}
	fmt.Fprintf(&b, "%s %d row(s) as %s: %d created, %d updated",
		status, r.Rows, r.Type, len(r.Created), len(r.Updated))
	if len(r.Warnings) > 0 {
		b.WriteString(", ")
		b.WriteString(WarningStyle.Render(fmt.Sprintf("%d warning(s)", len(r.Warnings))))
	}
	b.WriteString("\n")

	if verbose {
		if r.Stored >= 0 {
			fmt.Fprintf(&b, "  %d %s record(s) in store\n", r.Stored, r.Type)
		}
		for _, loc := range r.Created {
			fmt.Fprintf(&b, "  + %s\n", loc)
		}
		for _, loc := range r.Updated {
			fmt.Fprintf(&b, "  ~ %s\n", loc)
		}
	}
	return b.String()
}
