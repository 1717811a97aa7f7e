// Package render projects normalized responses into display-ready views for
// each widget display mode.
package render

import (
	"strings"

	"github.com/GregMSThompson/finance-dashboard/internal/fields"
	"github.com/GregMSThompson/finance-dashboard/internal/format"
	"github.com/GregMSThompson/finance-dashboard/internal/jsondoc"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
)

// Dataset is the array a widget iterates over plus the selected fields that
// were not used to find it.
type Dataset struct {
	Rows    []any
	Anchor  string
	Scalars []models.SelectedField
}

// Extract finds the rows to display. In order: the response itself when it is
// an array, the first selected field that resolves to an array, the first
// top-level array entry, or nothing.
func Extract(data any, selected []models.SelectedField) Dataset {
	if rows, ok := data.([]any); ok {
		return Dataset{Rows: rows, Scalars: selected}
	}

	for i, f := range selected {
		v, ok := fields.Resolve(data, f.Path)
		if !ok {
			continue
		}
		if rows, ok := v.([]any); ok {
			rest := make([]models.SelectedField, 0, len(selected)-1)
			rest = append(rest, selected[:i]...)
			rest = append(rest, selected[i+1:]...)
			return Dataset{Rows: rows, Anchor: f.Path, Scalars: rest}
		}
	}

	if obj, ok := data.(*jsondoc.Object); ok {
		for _, m := range obj.Members() {
			if rows, ok := m.Value.([]any); ok {
				return Dataset{Rows: rows, Anchor: m.Key, Scalars: selected}
			}
		}
	}
	return Dataset{Scalars: selected}
}

// relative strips the anchor prefix from a column path so it can be looked up
// inside a single row.
func (d Dataset) relative(path string) string {
	if d.Anchor != "" && strings.HasPrefix(path, d.Anchor+".") {
		return path[len(d.Anchor)+1:]
	}
	return path
}

// firstRecord returns the first row when it is an object.
func (d Dataset) firstRecord() *jsondoc.Object {
	if len(d.Rows) == 0 {
		return nil
	}
	obj, _ := d.Rows[0].(*jsondoc.Object)
	return obj
}

func kindOf(f models.SelectedField) format.Kind {
	k, ok := format.ParseKind(f.Format)
	if !ok {
		return format.Text
	}
	return k
}
