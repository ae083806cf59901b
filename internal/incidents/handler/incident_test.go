package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "ptcms/pkg/errors"
	"ptcms/pkg/logger"
	"ptcms/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockIncidentService struct {
	byBranchFunc func(ctx context.Context, branchID int64, resolved *bool) ([]model.Incident, error)
	resolveFunc  func(ctx context.Context, id int64, resolution *model.IncidentResolution) (*model.Incident, error)
}

func (m *mockIncidentService) ByBranch(ctx context.Context, branchID int64, resolved *bool) ([]model.Incident, error) {
	if m.byBranchFunc != nil {
		return m.byBranchFunc(ctx, branchID, resolved)
	}
	return []model.Incident{}, nil
}

func (m *mockIncidentService) ByDriver(ctx context.Context, driverID int64, resolved *bool) ([]model.Incident, error) {
	return []model.Incident{{ID: 1, DriverID: driverID}}, nil
}

func (m *mockIncidentService) Resolve(ctx context.Context, id int64, resolution *model.IncidentResolution) (*model.Incident, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, id, resolution)
	}
	return &model.Incident{ID: id, Resolved: true}, nil
}

func newTestRouter(svc *mockIncidentService) *httprouter.Router {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	router := httprouter.New()
	NewIncidentHandler(svc, log).RegisterRoutes(router)
	return router
}

func TestByBranch(t *testing.T) {
	var gotBranch int64
	var gotResolved *bool
	svc := &mockIncidentService{
		byBranchFunc: func(ctx context.Context, branchID int64, resolved *bool) ([]model.Incident, error) {
			gotBranch, gotResolved = branchID, resolved
			return []model.Incident{{ID: 9, BranchID: branchID, Description: "Xe hỏng"}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/incidents/branch/3?resolved=true", nil)
	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if gotBranch != 3 || gotResolved == nil || !*gotResolved {
		t.Errorf("service got branch %d, resolved %v", gotBranch, gotResolved)
	}

	var body struct {
		Data []model.Incident `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].ID != 9 {
		t.Errorf("data = %+v", body.Data)
	}
}

func TestByBranch_BadParams(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"non numeric branch", "/api/v1/incidents/branch/abc"},
		{"zero branch", "/api/v1/incidents/branch/0"},
		{"bad resolved flag", "/api/v1/incidents/branch/3?resolved=maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newTestRouter(&mockIncidentService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestResolve_Handler(t *testing.T) {
	var gotAction string
	svc := &mockIncidentService{
		resolveFunc: func(ctx context.Context, id int64, resolution *model.IncidentResolution) (*model.Incident, error) {
			gotAction = resolution.ResolutionAction
			return &model.Incident{ID: id, Resolved: true}, nil
		},
	}

	body := strings.NewReader(`{"resolutionAction":"REASSIGN_DRIVER","resolutionNote":"ok"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/id/5/resolve", body)
	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if gotAction != "REASSIGN_DRIVER" {
		t.Errorf("action = %q", gotAction)
	}
}

func TestResolve_UpstreamMessageShown(t *testing.T) {
	svc := &mockIncidentService{
		resolveFunc: func(ctx context.Context, id int64, resolution *model.IncidentResolution) (*model.Incident, error) {
			return nil, apperrors.Upstream("Sự cố đã được xử lý", nil)
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/id/5/resolve", strings.NewReader(`{"resolutionAction":"X"}`))
	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Sự cố đã được xử lý") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestResolve_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/id/5/resolve", strings.NewReader(""))
	w := httptest.NewRecorder()
	newTestRouter(&mockIncidentService{}).ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
