package selection

import (
	"slices"
	"strings"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/internal/fields"
	"github.com/GregMSThompson/finance-dashboard/internal/format"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
)

// ApplyDefaults fills the optional parts of a widget configuration.
func ApplyDefaults(w *models.Widget) {
	w.Name = strings.TrimSpace(w.Name)
	w.SourceURL = strings.TrimSpace(w.SourceURL)
	if w.RefreshIntervalSeconds == 0 {
		w.RefreshIntervalSeconds = models.DefaultRefreshIntervalSeconds
	}
	if w.DisplayMode == "" {
		w.DisplayMode = models.DisplayCard
	}
	w.DisplayMode = strings.ToUpper(w.DisplayMode)
}

// Validate enforces the rules a widget must meet before it is saved from an
// editing workflow.
func Validate(w models.Widget) error {
	if strings.TrimSpace(w.Name) == "" {
		return errs.NewValidationError("widget name is required")
	}
	if strings.TrimSpace(w.SourceURL) == "" {
		return errs.NewValidationError("source URL is required")
	}
	if len(w.SelectedFields) == 0 {
		return errs.NewValidationError("select at least one field")
	}
	return validateSettings(w)
}

func validateSettings(w models.Widget) error {
	if w.RefreshIntervalSeconds <= 0 {
		return errs.NewValidationError("refresh interval must be positive")
	}
	if !slices.Contains(models.DisplayModes, w.DisplayMode) {
		return errs.NewValidationError("invalid display mode: " + w.DisplayMode)
	}
	if !slices.Contains(models.ChartIntervals, w.ChartInterval) {
		return errs.NewValidationError("invalid chart interval: " + w.ChartInterval)
	}
	return nil
}

// NormalizeFields trims paths, drops repeated paths (first one wins) and fills
// in default labels and formats.
func NormalizeFields(in []models.SelectedField) ([]models.SelectedField, error) {
	out := make([]models.SelectedField, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, f := range in {
		f.Path = strings.TrimSpace(f.Path)
		if f.Path == "" {
			return nil, errs.NewValidationError("field path is required")
		}
		if seen[f.Path] {
			continue
		}
		seen[f.Path] = true

		kind, ok := format.ParseKind(f.Format)
		if !ok {
			return nil, errs.NewValidationError("invalid format: " + f.Format)
		}
		f.Format = string(kind)
		if strings.TrimSpace(f.Label) == "" {
			f.Label = fields.LastSegment(f.Path)
		}
		out = append(out, f)
	}
	return out, nil
}

// Prepare applies defaults, normalizes fields and validates w in place.
func Prepare(w *models.Widget) error {
	ApplyDefaults(w)
	normalized, err := NormalizeFields(w.SelectedFields)
	if err != nil {
		return err
	}
	w.SelectedFields = normalized
	return Validate(*w)
}

// PrepareImported is Prepare for imported configurations, which may carry no
// fields or name.
func PrepareImported(w *models.Widget) error {
	ApplyDefaults(w)
	normalized, err := NormalizeFields(w.SelectedFields)
	if err != nil {
		return err
	}
	w.SelectedFields = normalized
	return validateSettings(*w)
}
