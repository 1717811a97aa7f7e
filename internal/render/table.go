package render

import (
	"slices"
	"strings"

	"github.com/GregMSThompson/finance-dashboard/internal/fields"
	"github.com/GregMSThompson/finance-dashboard/internal/format"
	"github.com/GregMSThompson/finance-dashboard/internal/jsondoc"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
)

const (
	PageSize          = 10
	defaultColumnKeys = 5
)

// SortState is the clicked sort column and its direction.
type SortState struct {
	Column string `json:"column,omitempty"`
	Desc   bool   `json:"desc"`
}

// Click returns the state after a click on column: a new column sorts
// ascending, the current column flips direction.
func (s SortState) Click(column string) SortState {
	if s.Column == column {
		return SortState{Column: column, Desc: !s.Desc}
	}
	return SortState{Column: column}
}

type TableQuery struct {
	Search string
	Sort   SortState
	Page   int // 1-based
}

type TableColumn struct {
	Path   string `json:"path"`
	Label  string `json:"label"`
	Format string `json:"format"`
}

type TableView struct {
	Columns    []TableColumn `json:"columns"`
	Rows       [][]string    `json:"rows"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	TotalRows  int           `json:"totalRows"`
	Sort       SortState     `json:"sort"`
}

// Table searches, sorts and paginates the extracted rows.
func Table(data any, selected []models.SelectedField, q TableQuery) TableView {
	ds := Extract(data, selected)
	columns := tableColumns(ds)

	rows := searchRows(ds.Rows, q.Search)
	if q.Sort.Column != "" {
		rows = sortRows(rows, ds.relative(q.Sort.Column), q.Sort.Desc)
	}

	total := len(rows)
	totalPages := (total + PageSize - 1) / PageSize
	page := q.Page
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := min((page-1)*PageSize, total)
	end := min(start+PageSize, total)

	out := make([][]string, 0, end-start)
	for _, row := range rows[start:end] {
		cells := make([]string, len(columns))
		for i, col := range columns {
			v, _ := fields.Lookup(row, ds.relative(col.Path))
			cells[i] = format.Value(v, format.Kind(col.Format))
		}
		out = append(out, cells)
	}

	return TableView{
		Columns:    columns,
		Rows:       out,
		Page:       page,
		TotalPages: totalPages,
		TotalRows:  total,
		Sort:       q.Sort,
	}
}

func tableColumns(ds Dataset) []TableColumn {
	if len(ds.Scalars) > 0 {
		cols := make([]TableColumn, len(ds.Scalars))
		for i, f := range ds.Scalars {
			cols[i] = TableColumn{Path: f.Path, Label: f.Label, Format: string(kindOf(f))}
		}
		return cols
	}

	rec := ds.firstRecord()
	if rec == nil {
		return nil
	}
	keys := rec.Keys()
	if len(keys) > defaultColumnKeys {
		keys = keys[:defaultColumnKeys]
	}
	cols := make([]TableColumn, len(keys))
	for i, k := range keys {
		cols[i] = TableColumn{Path: k, Label: k, Format: string(format.Text)}
	}
	return cols
}

func searchRows(rows []any, search string) []any {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return rows
	}
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		if rowMatches(row, needle) {
			out = append(out, row)
		}
	}
	return out
}

func rowMatches(row any, needle string) bool {
	obj, ok := row.(*jsondoc.Object)
	if !ok {
		return strings.Contains(strings.ToLower(jsondoc.String(row)), needle)
	}
	for _, m := range obj.Members() {
		if strings.Contains(strings.ToLower(jsondoc.String(m.Value)), needle) {
			return true
		}
	}
	return false
}

// sortRows returns a stably sorted copy. Numbers compare numerically, anything
// else by its string form.
func sortRows(rows []any, path string, desc bool) []any {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b any) int {
		av, _ := fields.Lookup(a, path)
		bv, _ := fields.Lookup(b, path)
		c := compareValues(av, bv)
		if desc {
			return -c
		}
		return c
	})
	return out
}

func compareValues(a, b any) int {
	af, aok := jsondoc.ToNumber(a)
	bf, bok := jsondoc.ToNumber(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(jsondoc.String(a), jsondoc.String(b))
}
