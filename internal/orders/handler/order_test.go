package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ptcms/internal/orders/assignment"
	"ptcms/internal/orders/availability"
	"ptcms/internal/orders/form"
	"ptcms/internal/orders/service"
	apperrors "ptcms/pkg/errors"
	kafka_middleware "ptcms/pkg/kafka/middleware"
	"ptcms/pkg/logger"
	"ptcms/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"
)

type mockOrderService struct {
	loadFunc     func(ctx context.Context, id int64) (*service.OrderView, error)
	saveFunc     func(ctx context.Context, id int64, in form.Input, submit bool) (*service.SaveResponse, error)
	assignFunc   func(ctx context.Context, id int64, req assignment.Request) (*assignment.Result, error)
	quoteFunc    func(ctx context.Context, req service.QuoteRequest) (*service.QuoteResponse, error)
	driversFunc  func(ctx context.Context, branchID int64, q string) ([]model.Driver, error)
	openFormFunc func(ctx context.Context, id int64) (*form.Form, error)
	refreshFunc  func(ctx context.Context) (*model.ReferenceData, error)
}

func (m *mockOrderService) Load(ctx context.Context, id int64) (*service.OrderView, error) {
	return m.loadFunc(ctx, id)
}

func (m *mockOrderService) Save(ctx context.Context, id int64, in form.Input, submit bool) (*service.SaveResponse, error) {
	return m.saveFunc(ctx, id, in, submit)
}

func (m *mockOrderService) Assign(ctx context.Context, id int64, req assignment.Request) (*assignment.Result, error) {
	return m.assignFunc(ctx, id, req)
}

func (m *mockOrderService) Quote(ctx context.Context, req service.QuoteRequest) (*service.QuoteResponse, error) {
	return m.quoteFunc(ctx, req)
}

func (m *mockOrderService) CheckAvailability(ctx context.Context, req availability.Request) (*availability.Result, error) {
	return &availability.Result{Available: true, Message: "✓ Khả dụng: Xe 16 chỗ: Còn 2 xe"}, nil
}

func (m *mockOrderService) Reference(ctx context.Context) (*model.ReferenceData, error) {
	return &model.ReferenceData{}, nil
}

func (m *mockOrderService) RefreshReference(ctx context.Context) (*model.ReferenceData, error) {
	return m.refreshFunc(ctx)
}

func (m *mockOrderService) Drivers(ctx context.Context, branchID int64, q string) ([]model.Driver, error) {
	return m.driversFunc(ctx, branchID, q)
}

func (m *mockOrderService) Vehicles(ctx context.Context, branchID int64, q string) ([]model.Vehicle, error) {
	return []model.Vehicle{}, nil
}

func (m *mockOrderService) OpenForm(ctx context.Context, id int64) (*form.Form, error) {
	return m.openFormFunc(ctx, id)
}

type mockLiveServer struct {
	served *form.Form
}

func (m *mockLiveServer) Serve(w http.ResponseWriter, r *http.Request, f *form.Form) error {
	m.served = f
	w.WriteHeader(http.StatusSwitchingProtocols)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func newTestRouter(svc service.OrderService, live LiveServer) *httprouter.Router {
	router := httprouter.New()
	NewOrderHandler(svc, live, testLogger()).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetByID(t *testing.T) {
	svc := &mockOrderService{
		loadFunc: func(ctx context.Context, id int64) (*service.OrderView, error) {
			return &service.OrderView{Form: &form.Form{BookingID: id}, CanEdit: true, StatusLabel: "Chờ xử lý"}, nil
		},
	}

	w := serve(newTestRouter(svc, nil), http.MethodGet, "/api/v1/orders/id/42", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var body struct {
		Data struct {
			Form struct {
				BookingID int64 `json:"bookingId"`
			} `json:"form"`
			CanEdit bool `json:"canEdit"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Form.BookingID != 42 || !body.Data.CanEdit {
		t.Errorf("data = %+v", body.Data)
	}
}

func TestGetByID_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
	}{
		{"bad id", "/api/v1/orders/id/abc", nil, http.StatusBadRequest},
		{"not found", "/api/v1/orders/id/42", apperrors.NotFoundWithID("Booking", "42"), http.StatusNotFound},
		{"plain error hidden", "/api/v1/orders/id/42", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockOrderService{
				loadFunc: func(ctx context.Context, id int64) (*service.OrderView, error) {
					return nil, tt.err
				},
			}
			w := serve(newTestRouter(svc, nil), http.MethodGet, tt.path, "")
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if strings.Contains(w.Body.String(), "boom") {
				t.Error("internal error leaked")
			}
		})
	}
}

func TestSaveRoutes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		wantSubmit bool
	}{
		{"draft", http.MethodPut, "/api/v1/orders/id/42", false},
		{"submit", http.MethodPost, "/api/v1/orders/id/42/submit", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSubmit bool
			var gotInput form.Input
			svc := &mockOrderService{
				saveFunc: func(ctx context.Context, id int64, in form.Input, submit bool) (*service.SaveResponse, error) {
					gotSubmit, gotInput = submit, in
					return &service.SaveResponse{Order: &service.OrderView{Form: &form.Form{BookingID: id}}, Message: "Đã lưu thay đổi."}, nil
				},
			}

			body := `{"customerName":"Nguyễn Văn A","distance":150,"vehicles":[{"vehicleCategoryId":1,"quantity":2}],"systemPrice":"3500000"}`
			w := serve(newTestRouter(svc, nil), tt.method, tt.path, body)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}
			if gotSubmit != tt.wantSubmit {
				t.Errorf("submit = %v, want %v", gotSubmit, tt.wantSubmit)
			}
			if gotInput.CustomerName != "Nguyễn Văn A" || gotInput.DistanceKm != 150 || !gotInput.SystemPrice.Equal(decimal.NewFromInt(3500000)) {
				t.Errorf("input = %+v", gotInput)
			}
			if !strings.Contains(w.Body.String(), "Đã lưu thay đổi.") {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

func TestSave_Locked(t *testing.T) {
	svc := &mockOrderService{
		saveFunc: func(ctx context.Context, id int64, in form.Input, submit bool) (*service.SaveResponse, error) {
			return nil, apperrors.Locked("Đơn hàng đã hoàn thành. Không thể chỉnh sửa.")
		},
	}
	w := serve(newTestRouter(svc, nil), http.MethodPut, "/api/v1/orders/id/42", `{}`)
	if w.Code != http.StatusLocked {
		t.Errorf("status = %d, want 423", w.Code)
	}
}

func TestAssign_Cooldown(t *testing.T) {
	var gotReq assignment.Request
	svc := &mockOrderService{
		assignFunc: func(ctx context.Context, id int64, req assignment.Request) (*assignment.Result, error) {
			gotReq = req
			return nil, apperrors.Cooldown("Vui lòng đợi 4:59 để thay đổi tài xế/xe", 299)
		},
	}

	w := serve(newTestRouter(svc, nil), http.MethodPost, "/api/v1/orders/id/42/assign", `{"branchId":3,"tripIds":[7],"driverId":5}`)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", w.Code)
	}
	if gotReq.BranchID != 3 || len(gotReq.TripIDs) != 1 || gotReq.DriverID == nil || *gotReq.DriverID != 5 || gotReq.VehicleID != nil {
		t.Errorf("request = %+v", gotReq)
	}

	var body struct {
		Error   string         `json:"error"`
		Details map[string]any `json:"details"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Details["remaining_seconds"] != float64(299) {
		t.Errorf("details = %v", body.Details)
	}
}

func TestLive(t *testing.T) {
	live := &mockLiveServer{}
	svc := &mockOrderService{
		openFormFunc: func(ctx context.Context, id int64) (*form.Form, error) {
			return &form.Form{BookingID: id}, nil
		},
	}

	w := serve(newTestRouter(svc, live), http.MethodGet, "/api/v1/orders/id/42/live", "")
	if w.Code != http.StatusSwitchingProtocols {
		t.Errorf("status = %d", w.Code)
	}
	if live.served == nil || live.served.BookingID != 42 {
		t.Errorf("served = %+v", live.served)
	}
}

func TestLive_LoadFailureBeforeUpgrade(t *testing.T) {
	live := &mockLiveServer{}
	svc := &mockOrderService{
		openFormFunc: func(ctx context.Context, id int64) (*form.Form, error) {
			return nil, apperrors.NotFound("Booking")
		},
	}

	w := serve(newTestRouter(svc, live), http.MethodGet, "/api/v1/orders/id/42/live", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}
	if live.served != nil {
		t.Error("session started for a missing booking")
	}
}

func TestQuote_BadBody(t *testing.T) {
	w := serve(newTestRouter(&mockOrderService{}, nil), http.MethodPost, "/api/v1/orders/quote", `{"distance":`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestQuote(t *testing.T) {
	var gotDiscount string
	var gotDistance float64
	svc := &mockOrderService{
		quoteFunc: func(ctx context.Context, req service.QuoteRequest) (*service.QuoteResponse, error) {
			gotDiscount, gotDistance = req.Discount, req.DistanceKm
			return &service.QuoteResponse{SystemPrice: decimal.NewFromInt(100), FinalPrice: decimal.NewFromInt(100), Message: "ok"}, nil
		},
	}

	w := serve(newTestRouter(svc, nil), http.MethodPost, "/api/v1/orders/quote", `{"distance":80,"discount":"1.000"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if gotDiscount != "1.000" || gotDistance != 80 {
		t.Errorf("request discount %q distance %v", gotDiscount, gotDistance)
	}
}

func TestAvailability(t *testing.T) {
	w := serve(newTestRouter(&mockOrderService{}, nil), http.MethodPost, "/api/v1/orders/availability", `{"branchId":3}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Còn 2 xe") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestDrivers_Search(t *testing.T) {
	var gotBranch int64
	var gotQuery string
	svc := &mockOrderService{
		driversFunc: func(ctx context.Context, branchID int64, q string) ([]model.Driver, error) {
			gotBranch, gotQuery = branchID, q
			return []model.Driver{{ID: 5, Name: "Trần Văn B"}}, nil
		},
	}

	w := serve(newTestRouter(svc, nil), http.MethodGet, "/api/v1/branches/3/drivers?q=+tr%E1%BA%A7n+", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotBranch != 3 || gotQuery != "trần" {
		t.Errorf("branch %d query %q", gotBranch, gotQuery)
	}
}

func TestReady(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	fail := func(ctx context.Context) error { return errors.New("down") }

	tests := []struct {
		name       string
		checks     HealthChecks
		wantStatus int
		want       HealthResponse
	}{
		{
			name:       "all healthy",
			checks:     HealthChecks{Backend: ok, Database: ok, Cache: ok},
			wantStatus: http.StatusOK,
			want:       HealthResponse{Status: "ready", Backend: "ok", Database: "ok", Cache: "ok"},
		},
		{
			name:       "backend down",
			checks:     HealthChecks{Backend: fail},
			wantStatus: http.StatusServiceUnavailable,
			want:       HealthResponse{Status: "unavailable", Backend: "error"},
		},
		{
			name:       "cache down is tolerated",
			checks:     HealthChecks{Backend: ok, Cache: fail},
			wantStatus: http.StatusOK,
			want:       HealthResponse{Status: "ready", Backend: "ok", Cache: "error"},
		},
		{
			name:       "database down",
			checks:     HealthChecks{Backend: ok, Database: fail},
			wantStatus: http.StatusServiceUnavailable,
			want:       HealthResponse{Status: "unavailable", Backend: "ok", Database: "error"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := httprouter.New()
			NewHealthHandler(tt.checks, testLogger()).RegisterRoutes(router)

			w := serve(router, http.MethodGet, "/ready", "")
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var got HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want {
				t.Errorf("response = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReady_EventMetrics(t *testing.T) {
	router := httprouter.New()
	NewHealthHandler(HealthChecks{Events: kafka_middleware.NewMetrics()}, testLogger()).RegisterRoutes(router)

	w := serve(router, http.MethodGet, "/ready", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"events":{"published":0`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestRefreshReference(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"refreshed", nil, http.StatusOK},
		{"forbidden", apperrors.Forbidden("Bạn không có quyền làm mới dữ liệu danh mục"), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockOrderService{
				refreshFunc: func(ctx context.Context) (*model.ReferenceData, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &model.ReferenceData{Categories: []model.VehicleCategory{{ID: 1, Name: "Xe 16 chỗ", Seats: 16}}}, nil
				},
			}
			w := serve(newTestRouter(svc, &mockLiveServer{}), http.MethodPost, "/api/v1/orders/reference/refresh", "")
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
