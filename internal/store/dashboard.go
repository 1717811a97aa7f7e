package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

type dashboardStore struct {
	client *firestore.Client
}

func NewDashboardStore(client *firestore.Client) *dashboardStore {
	return &dashboardStore{client: client}
}

func (s *dashboardStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("dashboard_widgets")
}

func (s *dashboardStore) Create(ctx context.Context, uid string, w *models.Widget) error {
	now := time.Now()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now
	_, err := s.collection(uid).Doc(w.WidgetID).Create(ctx, w)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errs.NewAlreadyExistsError("widget already exists")
		}
		return errs.NewDatabaseError("create", "failed to create widget", err)
	}
	return nil
}

func (s *dashboardStore) Get(ctx context.Context, uid, widgetID string) (*models.Widget, error) {
	doc, err := s.collection(uid).Doc(widgetID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("widget not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get widget", err)
	}
	var w models.Widget
	if err := doc.DataTo(&w); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse widget data", err)
	}
	return &w, nil
}

// List returns the user's widgets in dashboard order.
func (s *dashboardStore) List(ctx context.Context, uid string) ([]*models.Widget, error) {
	iter := s.collection(uid).OrderBy("position", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	widgets := make([]*models.Widget, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to list widgets", err)
		}
		var w models.Widget
		if err := doc.DataTo(&w); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse widget data", err)
		}
		widgets = append(widgets, &w)
	}
	return widgets, nil
}

func (s *dashboardStore) Update(ctx context.Context, uid string, w *models.Widget) error {
	w.UpdatedAt = time.Now()
	_, err := s.collection(uid).Doc(w.WidgetID).Set(ctx, w)
	if err != nil {
		return errs.NewDatabaseError("update", "failed to update widget", err)
	}
	return nil
}

func (s *dashboardStore) Delete(ctx context.Context, uid, widgetID string) error {
	ref := s.collection(uid).Doc(widgetID)
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return errs.NewNotFoundError("widget not found")
		}
		return errs.NewDatabaseError("read", "failed to get widget", err)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return errs.NewDatabaseError("delete", "failed to delete widget", err)
	}
	return nil
}

func (s *dashboardStore) Count(ctx context.Context, uid string) (int, error) {
	docs, err := s.collection(uid).Documents(ctx).GetAll()
	if err != nil {
		return 0, errs.NewDatabaseError("read", "failed to count widgets", err)
	}
	return len(docs), nil
}

type bulkJob struct {
	widgetID string
	job      *firestore.BulkWriterJob
}

func (s *dashboardStore) BulkUpdatePositions(ctx context.Context, uid string, positions map[string]int) error {
	bw := s.client.BulkWriter(ctx)
	coll := s.collection(uid)
	now := time.Now()

	jobs := make([]bulkJob, 0, len(positions))
	for widgetID, pos := range positions {
		j, err := bw.Update(coll.Doc(widgetID), []firestore.Update{
			{Path: "position", Value: pos},
			{Path: "updatedAt", Value: now},
		})
		if err != nil {
			bw.End()
			return errs.NewDatabaseError("update", "failed to schedule position update", err)
		}
		jobs = append(jobs, bulkJob{widgetID: widgetID, job: j})
	}
	bw.End()

	return s.awaitJobs(ctx, jobs, "update", "failed to update widget position")
}

// ReplaceAll makes widgets the user's entire dashboard. Existing widgets that
// are not in the new set are deleted. The read and every write run in one
// transaction, so a failure leaves the previous dashboard untouched.
func (s *dashboardStore) ReplaceAll(ctx context.Context, uid string, widgets []*models.Widget) error {
	coll := s.collection(uid)
	keep := make(map[string]bool, len(widgets))
	for _, w := range widgets {
		keep[w.WidgetID] = true
	}

	now := time.Now()
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(coll).GetAll()
		if err != nil {
			return err
		}
		for _, doc := range existing {
			if keep[doc.Ref.ID] {
				continue
			}
			if err := tx.Delete(doc.Ref); err != nil {
				return err
			}
		}
		for _, w := range widgets {
			if w.CreatedAt.IsZero() {
				w.CreatedAt = now
			}
			w.UpdatedAt = now
			if err := tx.Set(coll.Doc(w.WidgetID), w); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.FromContext(ctx).Error("failed to replace widgets", "uid", uid, "count", len(widgets), "error", err)
		return errs.NewDatabaseError("update", "failed to replace widgets", err)
	}
	return nil
}

func (s *dashboardStore) awaitJobs(ctx context.Context, jobs []bulkJob, op, msg string) error {
	log := logger.FromContext(ctx)
	for _, entry := range jobs {
		if _, err := entry.job.Results(); err != nil {
			log.Error(msg, "widget_id", entry.widgetID, "error", err)
			return errs.NewDatabaseError(op, msg, err)
		}
	}
	return nil
}
