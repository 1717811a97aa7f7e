package store

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
)

func TestDashboardStoreWithEmulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("firestore client error: %v", err)
	}
	defer client.Close()

	store := NewDashboardStore(client)
	uid := "dashboard-user"

	seed := []*models.Widget{
		{WidgetID: "w1", Name: "Quote", SourceURL: "https://example.com/q", DisplayMode: models.DisplayCard, Position: 2,
			SelectedFields: []models.SelectedField{{Path: "price", Label: "price", Format: "currency"}}},
		{WidgetID: "w2", Name: "News", SourceURL: "https://example.com/n", DisplayMode: models.DisplayTable, Position: 1},
	}
	if err := store.ReplaceAll(ctx, uid, seed); err != nil {
		t.Fatalf("replace error: %v", err)
	}

	list, err := store.List(ctx, uid)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(list) != 2 || list[0].WidgetID != "w2" {
		t.Fatalf("expected widgets ordered by position, got %+v", list)
	}

	if err := store.BulkUpdatePositions(ctx, uid, map[string]int{"w1": 1, "w2": 2}); err != nil {
		t.Fatalf("reorder error: %v", err)
	}
	w, err := store.Get(ctx, uid, "w1")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if w.Position != 1 || w.SelectedFields[0].Format != "currency" {
		t.Fatalf("unexpected widget after reorder: %+v", w)
	}

	if err := store.ReplaceAll(ctx, uid, []*models.Widget{{WidgetID: "w3", Name: "Only", Position: 1}}); err != nil {
		t.Fatalf("replace error: %v", err)
	}
	count, err := store.Count(ctx, uid)
	if err != nil {
		t.Fatalf("count error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 widget after replace, got %d", count)
	}

	if err := store.Create(ctx, uid, &models.Widget{WidgetID: "w3", Name: "Dup"}); err == nil {
		t.Fatal("expected error creating an existing widget")
	} else if _, ok := err.(*errs.AlreadyExistsError); !ok {
		t.Fatalf("expected already exists error, got %T: %v", err, err)
	}

	// an invalid document id fails the write after the delete of w3 was staged
	bad := []*models.Widget{{WidgetID: "w4", Name: "New", Position: 1}, {WidgetID: "bad/id", Name: "Bad", Position: 2}}
	if err := store.ReplaceAll(ctx, uid, bad); err == nil {
		t.Fatal("expected replace with an invalid id to fail")
	}
	list, err = store.List(ctx, uid)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(list) != 1 || list[0].WidgetID != "w3" {
		t.Fatalf("failed replace must leave the dashboard unchanged, got %+v", list)
	}

	if err := store.Delete(ctx, uid, "w1"); err == nil {
		t.Fatal("expected not found deleting a replaced widget")
	}
	if err := store.Delete(ctx, uid, "w3"); err != nil {
		t.Fatalf("delete error: %v", err)
	}
}
