package render

import (
	"github.com/GregMSThompson/finance-dashboard/internal/fields"
	"github.com/GregMSThompson/finance-dashboard/internal/format"
	"github.com/GregMSThompson/finance-dashboard/internal/jsondoc"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
)

type CardItem struct {
	Path   string `json:"path"`
	Label  string `json:"label"`
	Format string `json:"format"`
	Value  string `json:"value"`
}

type CardView struct {
	Items []CardItem `json:"items"`
}

// Card shows each selected field of one representative record.
func Card(data any, selected []models.SelectedField) CardView {
	record := cardRecord(data)
	items := make([]CardItem, 0, len(selected))
	for _, f := range selected {
		v, ok := fields.Lookup(record, f.Path)
		if !ok {
			v, _ = fields.Resolve(data, f.Path)
		}
		kind := kindOf(f)
		items = append(items, CardItem{
			Path:   f.Path,
			Label:  f.Label,
			Format: string(kind),
			Value:  format.Value(v, kind),
		})
	}
	return CardView{Items: items}
}

func cardRecord(data any) any {
	if obj, ok := data.(*jsondoc.Object); ok {
		if v, ok := obj.Get("values"); ok {
			if values, ok := v.([]any); ok && len(values) > 0 {
				return values[0]
			}
		}
	}
	if arr, ok := data.([]any); ok && len(arr) > 0 {
		return arr[0]
	}
	return data
}
