package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
	"github.com/GregMSThompson/finance-dashboard/internal/normalize"
	"github.com/GregMSThompson/finance-dashboard/internal/poller"
	"github.com/GregMSThompson/finance-dashboard/internal/render"
	"github.com/GregMSThompson/finance-dashboard/internal/selection"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

const DefaultRefreshConcurrency = 4

// MaxImportWidgets keeps an import within a single storage transaction.
const MaxImportWidgets = 200

// dashboardStore is the Firestore storage interface for widgets.
type dashboardStore interface {
	Create(ctx context.Context, uid string, w *models.Widget) error
	Get(ctx context.Context, uid, widgetID string) (*models.Widget, error)
	List(ctx context.Context, uid string) ([]*models.Widget, error)
	Update(ctx context.Context, uid string, w *models.Widget) error
	Delete(ctx context.Context, uid, widgetID string) error
	Count(ctx context.Context, uid string) (int, error)
	BulkUpdatePositions(ctx context.Context, uid string, positions map[string]int) error
	ReplaceAll(ctx context.Context, uid string, widgets []*models.Widget) error
}

// widgetPoller keeps watched widgets refreshed in the background.
type widgetPoller interface {
	Watch(uid string, w models.Widget)
	Unwatch(uid, widgetID string)
	Sync(uid string, widgets []*models.Widget)
	Snapshot(uid, widgetID string) (poller.State, bool)
	Refresh(ctx context.Context, uid string, w models.Widget) poller.State
}

type sourceFetcher interface {
	Fetch(ctx context.Context, rawURL string) (normalize.Response, error)
}

type dashboardService struct {
	store        dashboardStore
	poller       widgetPoller
	fetcher      sourceFetcher
	refreshLimit int
	location     *time.Location
	clockNow     func() time.Time
}

func NewDashboardService(store dashboardStore, poller widgetPoller, fetcher sourceFetcher, refreshLimit int) *dashboardService {
	if refreshLimit <= 0 {
		refreshLimit = DefaultRefreshConcurrency
	}
	return &dashboardService{
		store:        store,
		poller:       poller,
		fetcher:      fetcher,
		refreshLimit: refreshLimit,
		location:     time.Local,
		clockNow:     time.Now,
	}
}

// SetLocation sets the zone chart labels are rendered in.
func (s *dashboardService) SetLocation(loc *time.Location) {
	if loc != nil {
		s.location = loc
	}
}

// --- Public service methods ---

// GetDashboard lists the user's widgets and makes sure each one is being
// refreshed.
func (s *dashboardService) GetDashboard(ctx context.Context, uid string) ([]*models.Widget, error) {
	widgets, err := s.store.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	s.poller.Sync(uid, widgets)
	return widgets, nil
}

func (s *dashboardService) AddWidget(ctx context.Context, uid string, req dto.WidgetRequest) (*models.Widget, error) {
	w := widgetFromRequest(req)
	if err := selection.Prepare(w); err != nil {
		return nil, err
	}
	count, err := s.store.Count(ctx, uid)
	if err != nil {
		return nil, err
	}
	w.WidgetID = uuid.New().String()
	w.Position = count + 1
	if err := s.store.Create(ctx, uid, w); err != nil {
		return nil, err
	}
	s.poller.Watch(uid, *w)
	return w, nil
}

// UpdateWidget replaces the widget's settings. Its id, position and creation
// time are kept.
func (s *dashboardService) UpdateWidget(ctx context.Context, uid, widgetID string, req dto.WidgetRequest) (*models.Widget, error) {
	existing, err := s.store.Get(ctx, uid, widgetID)
	if err != nil {
		return nil, err
	}
	w := widgetFromRequest(req)
	w.WidgetID = existing.WidgetID
	w.Position = existing.Position
	w.CreatedAt = existing.CreatedAt
	if err := selection.Prepare(w); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, uid, w); err != nil {
		return nil, err
	}
	s.poller.Watch(uid, *w)
	return w, nil
}

func (s *dashboardService) ReorderWidgets(ctx context.Context, uid string, req dto.ReorderWidgetsRequest) error {
	if len(req.WidgetOrder) == 0 {
		return errs.NewValidationError("widgetOrder is required")
	}
	positions := make(map[string]int, len(req.WidgetOrder))
	for _, item := range req.WidgetOrder {
		if item.WidgetID == "" {
			return errs.NewValidationError("widgetId is required")
		}
		positions[item.WidgetID] = item.Position
	}
	return s.store.BulkUpdatePositions(ctx, uid, positions)
}

func (s *dashboardService) DeleteWidget(ctx context.Context, uid, widgetID string) error {
	if err := s.store.Delete(ctx, uid, widgetID); err != nil {
		return err
	}
	s.poller.Unwatch(uid, widgetID)
	return nil
}

// GetWidgetData renders the widget from its latest polled data, fetching it
// directly when the widget has no data yet. Once data exists, refresh
// failures are not reported.
func (s *dashboardService) GetWidgetData(ctx context.Context, uid, widgetID string, q dto.WidgetDataQuery) (dto.WidgetDataResponse, error) {
	w, err := s.store.Get(ctx, uid, widgetID)
	if err != nil {
		return dto.WidgetDataResponse{}, err
	}

	state, ok := s.poller.Snapshot(uid, widgetID)
	if !ok {
		// not polled, e.g. after the user went idle
		s.poller.Watch(uid, *w)
	}
	if !ok || !state.HasData {
		resp, err := s.fetcher.Fetch(ctx, w.SourceURL)
		if err != nil {
			return dto.WidgetDataResponse{}, err
		}
		state = poller.State{Data: resp, HasData: true, UpdatedAt: s.clockNow()}
	}

	view := render.Render(*w, state.Data.Data, render.Query{
		Table: render.TableQuery{
			Search: q.Search,
			Sort:   render.SortState{Column: q.SortColumn, Desc: q.SortDesc},
			Page:   q.Page,
		},
		Descending: q.Descending,
		Location:   s.location,
	})
	return dto.WidgetDataResponse{
		WidgetID:    w.WidgetID,
		Name:        w.Name,
		View:        view,
		LastUpdated: state.UpdatedAt,
	}, nil
}

// RefreshDashboard refreshes every widget now, a bounded number at a time.
// A failing widget does not stop the others.
func (s *dashboardService) RefreshDashboard(ctx context.Context, uid string) ([]dto.RefreshResult, error) {
	widgets, err := s.store.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	s.poller.Sync(uid, widgets)

	results := make([]dto.RefreshResult, len(widgets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.refreshLimit)
	for i, w := range widgets {
		g.Go(func() error {
			state := s.poller.Refresh(gctx, uid, *w)
			res := dto.RefreshResult{WidgetID: w.WidgetID, OK: state.Err == nil, HasData: state.HasData}
			if state.Err != nil {
				res.Error = state.Err.Error()
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}
	logger.FromContext(ctx).Info("dashboard refreshed", "widgets", len(results), "failed", failed)
	return results, nil
}

// ExportDashboard returns the user's widgets as a pretty-printed JSON array.
func (s *dashboardService) ExportDashboard(ctx context.Context, uid string) ([]byte, error) {
	widgets, err := s.store.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(widgets, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode widgets: %w", err)
	}
	return out, nil
}

// ImportDashboard replaces the user's widgets with a previously exported
// array. Anything other than a JSON array of widgets is rejected before any
// change is made.
func (s *dashboardService) ImportDashboard(ctx context.Context, uid string, body []byte) ([]*models.Widget, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errs.NewValidationError("import must be a JSON array of widgets")
	}
	var imported []models.Widget
	if err := json.Unmarshal(trimmed, &imported); err != nil {
		return nil, errs.NewValidationError("invalid widget file: " + err.Error())
	}
	if len(imported) > MaxImportWidgets {
		return nil, errs.NewValidationError(fmt.Sprintf("import holds %d widgets; the limit is %d", len(imported), MaxImportWidgets))
	}

	now := s.clockNow()
	seen := make(map[string]bool, len(imported))
	widgets := make([]*models.Widget, 0, len(imported))
	for i := range imported {
		w := &imported[i]
		if err := selection.PrepareImported(w); err != nil {
			return nil, errs.NewValidationError(fmt.Sprintf("widget %d: %s", i+1, err.Error()))
		}
		if w.WidgetID == "" || seen[w.WidgetID] {
			w.WidgetID = uuid.New().String()
		}
		seen[w.WidgetID] = true
		w.Position = i + 1
		if w.CreatedAt.IsZero() {
			w.CreatedAt = now
		}
		widgets = append(widgets, w)
	}

	if err := s.store.ReplaceAll(ctx, uid, widgets); err != nil {
		return nil, err
	}
	s.poller.Sync(uid, widgets)
	return widgets, nil
}

func widgetFromRequest(req dto.WidgetRequest) *models.Widget {
	return &models.Widget{
		Name:                   req.Name,
		SourceURL:              req.SourceURL,
		RefreshIntervalSeconds: req.RefreshIntervalSeconds,
		DisplayMode:            req.DisplayMode,
		SelectedFields:         req.SelectedFields,
		ChartInterval:          req.ChartInterval,
	}
}
