// Package selection holds the state of one widget editing session: testing a
// source URL, browsing the discovered fields and picking the ones to display.
package selection

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/internal/fields"
	"github.com/GregMSThompson/finance-dashboard/internal/format"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
	"github.com/GregMSThompson/finance-dashboard/internal/normalize"
)

type State int

const (
	Idle State = iota
	Testing
	Tested
	Failed
)

func (s State) String() string {
	switch s {
	case Testing:
		return "testing"
	case Tested:
		return "tested"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// sourceFetcher is the part of the fetcher a session needs to test a URL.
type sourceFetcher interface {
	Fetch(ctx context.Context, rawURL string) (normalize.Response, error)
}

type Session struct {
	mu         sync.Mutex
	fetcher    sourceFetcher
	state      State
	url        string
	testErr    error
	discovered []fields.Field
	search     string
	arraysOnly bool
	selected   []models.SelectedField
	clockNow   func() time.Time
}

func NewSession(fetcher sourceFetcher) *Session {
	return &Session{fetcher: fetcher, clockNow: time.Now}
}

// State reports the session state and, when Failed, the test error.
func (s *Session) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.testErr
}

// Test fetches rawURL and discovers its fields. Any previous discovery is
// replaced; selected fields are kept.
func (s *Session) Test(ctx context.Context, rawURL string) error {
	s.mu.Lock()
	s.state = Testing
	s.url = rawURL
	s.testErr = nil
	s.discovered = nil
	s.mu.Unlock()

	resp, err := s.fetcher.Fetch(ctx, rawURL)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.url != rawURL {
		// a newer test replaced this one
		return err
	}
	if err != nil {
		s.state = Failed
		s.testErr = err
		return err
	}
	s.state = Tested
	s.discovered = fields.Flatten(resp.Data)
	return nil
}

// URL is the last URL tested or loaded.
func (s *Session) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

func (s *Session) SetSearch(search string) {
	s.mu.Lock()
	s.search = search
	s.mu.Unlock()
}

func (s *Session) SetArraysOnly(on bool) {
	s.mu.Lock()
	s.arraysOnly = on
	s.mu.Unlock()
}

// Candidates returns the discovered fields matching the current filters,
// truncated to fields.MaxCandidates. It is empty unless the last test passed.
func (s *Session) Candidates() []fields.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Tested {
		return nil
	}
	out := fields.Filter(s.discovered, s.search, s.arraysOnly)
	if len(out) > fields.MaxCandidates {
		out = out[:fields.MaxCandidates]
	}
	return out
}

// Add selects a discovered path. Adding a path that is already selected does
// nothing.
func (s *Session) Add(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Tested {
		return errs.NewValidationError("test the source URL before adding fields")
	}
	if s.indexOf(path) >= 0 {
		return nil
	}
	if !s.isDiscovered(path) {
		return errs.NewValidationError("unknown field: " + path)
	}
	s.selected = append(s.selected, models.SelectedField{
		Path:   path,
		Label:  fields.LastSegment(path),
		Format: string(format.Text),
	})
	return nil
}

// Remove drops a selected field and reports whether it was selected.
func (s *Session) Remove(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(path)
	if i < 0 {
		return false
	}
	s.selected = append(s.selected[:i], s.selected[i+1:]...)
	return true
}

func (s *Session) SetLabel(path, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(path)
	if i < 0 {
		return errs.NewNotFoundError("field not selected: " + path)
	}
	s.selected[i].Label = label
	return nil
}

func (s *Session) SetFormat(path, kind string) error {
	k, ok := format.ParseKind(kind)
	if !ok {
		return errs.NewValidationError("invalid format: " + kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(path)
	if i < 0 {
		return errs.NewNotFoundError("field not selected: " + path)
	}
	s.selected[i].Format = string(k)
	return nil
}

// Selected returns a copy of the selected fields in insertion order.
func (s *Session) Selected() []models.SelectedField {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SelectedField, len(s.selected))
	copy(out, s.selected)
	return out
}

// Load starts editing an existing widget. Its fields can be relabelled,
// reformatted or removed without testing the source again.
func (s *Session) Load(w models.Widget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
	s.testErr = nil
	s.discovered = nil
	s.url = w.SourceURL
	s.selected = make([]models.SelectedField, len(w.SelectedFields))
	copy(s.selected, w.SelectedFields)
}

// Save combines draft with the selected fields into a widget ready to store.
// A rejected save leaves both the session and draft untouched.
func (s *Session) Save(draft models.Widget) (models.Widget, error) {
	w := draft
	w.SelectedFields = s.Selected()
	if w.SourceURL == "" {
		w.SourceURL = s.URL()
	}
	if err := Prepare(&w); err != nil {
		return models.Widget{}, err
	}
	if w.WidgetID == "" {
		w.WidgetID = uuid.New().String()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = s.clockNow()
	}
	return w, nil
}

func (s *Session) indexOf(path string) int {
	for i, f := range s.selected {
		if f.Path == path {
			return i
		}
	}
	return -1
}

func (s *Session) isDiscovered(path string) bool {
	for _, f := range s.discovered {
		if f.Path == path {
			return true
		}
	}
	return false
}
