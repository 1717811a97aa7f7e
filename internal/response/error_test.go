package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
)

func TestHandleErrorMapping(t *testing.T) {
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name   string
		err    error
		status int
		code   string
		msg    string
	}{
		{"not found", errs.NewNotFoundError("widget not found"), http.StatusNotFound, "not_found", "widget not found"},
		{"already exists", errs.NewAlreadyExistsError("widget already exists"), http.StatusConflict, "already_exists", "widget already exists"},
		{"validation", errs.NewValidationError("select at least one field"), http.StatusBadRequest, "invalid_input", "select at least one field"},
		{"wrapped validation", fmt.Errorf("import: %w", errs.NewValidationError("bad")), http.StatusBadRequest, "invalid_input", "bad"},
		{"provider", errs.NewProviderError("Invalid API key"), http.StatusBadGateway, "provider_error", "Invalid API key"},
		{"transport", errs.NewTransportError("https://example.com", errors.New("refused")), http.StatusBadGateway, "fetch_failed", ""},
		{"database", errs.NewDatabaseError("read", "failed", errors.New("boom")), http.StatusInternalServerError, "internal_error", "An error occurred"},
		{"transient", errs.NewExternalServiceError("secretmanager", "down", true, nil), http.StatusServiceUnavailable, "service_unavailable", ""},
		{"permanent", errs.NewExternalServiceError("secretmanager", "denied", false, nil), http.StatusBadGateway, "service_unavailable", ""},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error", "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.HandleError(rr, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rr.Code)
			}
			var body ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, body.Code)
			}
			if tt.msg != "" && body.Message != tt.msg {
				t.Errorf("expected message %q, got %q", tt.msg, body.Message)
			}
		})
	}
}

func TestWriteSuccessEnvelope(t *testing.T) {
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	rr := httptest.NewRecorder()

	h.WriteSuccess(rr, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusCreated, map[string]string{"widgetId": "w1"})

	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	var body struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success || body.Data["widgetId"] != "w1" {
		t.Fatalf("unexpected body: %+v", body)
	}
}
