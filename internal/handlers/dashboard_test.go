package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/internal/middleware"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
)

type stubDashboardService struct {
	uid      string
	widgetID string
	req      dto.WidgetRequest
	query    dto.WidgetDataQuery
	imported []byte
	export   []byte
	called   string
	err      error
}

func (s *stubDashboardService) GetDashboard(_ context.Context, uid string) ([]*models.Widget, error) {
	s.called, s.uid = "GetDashboard", uid
	return []*models.Widget{{WidgetID: "w1"}}, s.err
}

func (s *stubDashboardService) AddWidget(_ context.Context, uid string, req dto.WidgetRequest) (*models.Widget, error) {
	s.called, s.uid, s.req = "AddWidget", uid, req
	if s.err != nil {
		return nil, s.err
	}
	return &models.Widget{WidgetID: "new", Name: req.Name}, nil
}

func (s *stubDashboardService) UpdateWidget(_ context.Context, uid, widgetID string, req dto.WidgetRequest) (*models.Widget, error) {
	s.called, s.uid, s.widgetID, s.req = "UpdateWidget", uid, widgetID, req
	if s.err != nil {
		return nil, s.err
	}
	return &models.Widget{WidgetID: widgetID}, nil
}

func (s *stubDashboardService) ReorderWidgets(_ context.Context, uid string, _ dto.ReorderWidgetsRequest) error {
	s.called, s.uid = "ReorderWidgets", uid
	return s.err
}

func (s *stubDashboardService) DeleteWidget(_ context.Context, uid, widgetID string) error {
	s.called, s.uid, s.widgetID = "DeleteWidget", uid, widgetID
	return s.err
}

func (s *stubDashboardService) GetWidgetData(_ context.Context, uid, widgetID string, q dto.WidgetDataQuery) (dto.WidgetDataResponse, error) {
	s.called, s.uid, s.widgetID, s.query = "GetWidgetData", uid, widgetID, q
	return dto.WidgetDataResponse{WidgetID: widgetID}, s.err
}

func (s *stubDashboardService) RefreshDashboard(_ context.Context, uid string) ([]dto.RefreshResult, error) {
	s.called, s.uid = "RefreshDashboard", uid
	return []dto.RefreshResult{{WidgetID: "w1", OK: true}}, s.err
}

func (s *stubDashboardService) ExportDashboard(_ context.Context, uid string) ([]byte, error) {
	s.called, s.uid = "ExportDashboard", uid
	return s.export, s.err
}

func (s *stubDashboardService) ImportDashboard(_ context.Context, uid string, body []byte) ([]*models.Widget, error) {
	s.called, s.uid, s.imported = "ImportDashboard", uid, body
	return nil, s.err
}

type stubResponseHandler struct {
	writeSuccessCalled bool
	writeSuccessStatus int
	writeSuccessData   any

	handleErrorCalled bool
	handleError       error

	writeErrorCalled bool
	writeErrorStatus int
	writeErrorCode   string
	writeErrorMsg    string
}

func (s *stubResponseHandler) WriteSuccess(w http.ResponseWriter, _ *http.Request, status int, data any) {
	s.writeSuccessCalled = true
	s.writeSuccessStatus = status
	s.writeSuccessData = data

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"success":true}`))
}

func (s *stubResponseHandler) WriteError(w http.ResponseWriter, _ *http.Request, status int, code, message string) {
	s.writeErrorCalled = true
	s.writeErrorStatus = status
	s.writeErrorCode = code
	s.writeErrorMsg = message
	w.WriteHeader(status)
}

func (s *stubResponseHandler) HandleError(w http.ResponseWriter, _ *http.Request, err error) {
	s.handleErrorCalled = true
	s.handleError = err
	w.WriteHeader(http.StatusInternalServerError)
}

func newDashboardTest() (*stubDashboardService, *stubResponseHandler, http.Handler) {
	svc := &stubDashboardService{}
	resp := &stubResponseHandler{}
	h := NewDashboardHandlers(&Deps{ResponseHandler: resp, DashboardSvc: svc})
	return svc, resp, h.DashboardRoutes()
}

func authed(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithUID(req.Context(), "uid-123"))
}

func TestAddWidgetSuccess(t *testing.T) {
	svc, resp, routes := newDashboardTest()

	body := `{"name":"IBM","sourceUrl":"https://example.com","selectedFields":[{"path":"price"}]}`
	req := authed(httptest.NewRequest(http.MethodPost, "/widgets", strings.NewReader(body)))
	rr := httptest.NewRecorder()
	routes.ServeHTTP(rr, req)

	if svc.called != "AddWidget" || svc.uid != "uid-123" {
		t.Fatalf("expected AddWidget for uid-123, got %s/%s", svc.called, svc.uid)
	}
	if svc.req.Name != "IBM" || len(svc.req.SelectedFields) != 1 {
		t.Fatalf("service received wrong request: %+v", svc.req)
	}
	if !resp.writeSuccessCalled || resp.writeSuccessStatus != http.StatusCreated {
		t.Fatalf("WriteSuccess not called with status 201")
	}
}

func TestAddWidgetInvalidJSON(t *testing.T) {
	svc, resp, routes := newDashboardTest()

	req := authed(httptest.NewRequest(http.MethodPost, "/widgets", strings.NewReader("not-json")))
	routes.ServeHTTP(httptest.NewRecorder(), req)

	if svc.called != "" {
		t.Fatalf("service should not be called on invalid JSON")
	}
	var verr *errs.ValidationError
	if !resp.handleErrorCalled || !errors.As(resp.handleError, &verr) {
		t.Fatalf("expected validation error, got %v", resp.handleError)
	}
}

func TestReorderRoutesBeforeWidgetID(t *testing.T) {
	svc, _, routes := newDashboardTest()

	body := `{"widgetOrder":[{"widgetId":"a","position":1}]}`
	req := authed(httptest.NewRequest(http.MethodPut, "/widgets/reorder", strings.NewReader(body)))
	routes.ServeHTTP(httptest.NewRecorder(), req)

	if svc.called != "ReorderWidgets" {
		t.Fatalf("expected ReorderWidgets, got %s", svc.called)
	}
}

func TestUpdateWidgetUsesURLParam(t *testing.T) {
	svc, _, routes := newDashboardTest()

	req := authed(httptest.NewRequest(http.MethodPut, "/widgets/w9", strings.NewReader(`{"name":"x"}`)))
	routes.ServeHTTP(httptest.NewRecorder(), req)

	if svc.called != "UpdateWidget" || svc.widgetID != "w9" {
		t.Fatalf("expected UpdateWidget for w9, got %s/%s", svc.called, svc.widgetID)
	}
}

func TestDeleteWidgetServiceError(t *testing.T) {
	svc, resp, routes := newDashboardTest()
	svc.err = errs.NewNotFoundError("widget not found")

	req := authed(httptest.NewRequest(http.MethodDelete, "/widgets/missing", nil))
	routes.ServeHTTP(httptest.NewRecorder(), req)

	if !resp.handleErrorCalled || !errors.Is(resp.handleError, svc.err) {
		t.Fatalf("expected handler to delegate error, got %v", resp.handleError)
	}
	if resp.writeSuccessCalled {
		t.Fatalf("WriteSuccess should not be called on service error")
	}
}

func TestGetWidgetDataParsesQuery(t *testing.T) {
	svc, resp, routes := newDashboardTest()

	req := authed(httptest.NewRequest(http.MethodGet, "/widgets/w1?search=ib&sort=price&dir=DESC&page=2&order=desc", nil))
	routes.ServeHTTP(httptest.NewRecorder(), req)

	want := dto.WidgetDataQuery{Search: "ib", SortColumn: "price", SortDesc: true, Page: 2, Descending: true}
	if svc.query != want {
		t.Fatalf("unexpected query: %+v", svc.query)
	}
	if !resp.writeSuccessCalled {
		t.Fatalf("expected success")
	}
}

func TestGetWidgetDataDefaults(t *testing.T) {
	svc, _, routes := newDashboardTest()

	req := authed(httptest.NewRequest(http.MethodGet, "/widgets/w1", nil))
	routes.ServeHTTP(httptest.NewRecorder(), req)

	if svc.query.Page != 1 || svc.query.SortDesc || svc.query.Descending {
		t.Fatalf("unexpected defaults: %+v", svc.query)
	}
}

func TestGetWidgetDataBadPage(t *testing.T) {
	svc, resp, routes := newDashboardTest()

	req := authed(httptest.NewRequest(http.MethodGet, "/widgets/w1?page=two", nil))
	routes.ServeHTTP(httptest.NewRecorder(), req)

	if svc.called != "" || !resp.handleErrorCalled {
		t.Fatalf("expected validation failure before calling service")
	}
}

func TestExportDashboardDownload(t *testing.T) {
	svc, resp, routes := newDashboardTest()
	svc.export = []byte("[]")

	rr := httptest.NewRecorder()
	routes.ServeHTTP(rr, authed(httptest.NewRequest(http.MethodGet, "/export", nil)))

	if rr.Code != http.StatusOK || rr.Body.String() != "[]" {
		t.Fatalf("unexpected export response: %d %q", rr.Code, rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "dashboard-widgets.json") {
		t.Fatalf("expected attachment header, got %q", cd)
	}
	if resp.writeSuccessCalled {
		t.Fatalf("export writes the raw file, not an envelope")
	}
}

func TestImportDashboardPassesBody(t *testing.T) {
	svc, resp, routes := newDashboardTest()

	req := authed(httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(`[{"name":"a"}]`)))
	routes.ServeHTTP(httptest.NewRecorder(), req)

	if string(svc.imported) != `[{"name":"a"}]` {
		t.Fatalf("unexpected body: %s", svc.imported)
	}
	if !resp.writeSuccessCalled {
		t.Fatalf("expected success")
	}
}

func TestRefreshDashboard(t *testing.T) {
	svc, resp, routes := newDashboardTest()

	routes.ServeHTTP(httptest.NewRecorder(), authed(httptest.NewRequest(http.MethodPost, "/refresh", nil)))

	if svc.called != "RefreshDashboard" {
		t.Fatalf("expected RefreshDashboard, got %s", svc.called)
	}
	results, ok := resp.writeSuccessData.([]dto.RefreshResult)
	if !ok || len(results) != 1 {
		t.Fatalf("unexpected data: %#v", resp.writeSuccessData)
	}
}
