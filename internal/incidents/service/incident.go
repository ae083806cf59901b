package service

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"ptcms/internal/orders/validator"
	"ptcms/pkg/client"
	"ptcms/pkg/config"
	apperrors "ptcms/pkg/errors"
	"ptcms/pkg/model"
	"ptcms/pkg/sanitizer"
)

type IncidentService interface {
	ByBranch(ctx context.Context, branchID int64, resolved *bool) ([]model.Incident, error)
	ByDriver(ctx context.Context, driverID int64, resolved *bool) ([]model.Incident, error)
	Resolve(ctx context.Context, id int64, resolution *model.IncidentResolution) (*model.Incident, error)
}

// IncidentStore is the backend incidents API.
type IncidentStore interface {
	ByBranch(ctx context.Context, branchID int64, resolved *bool) ([]model.Incident, error)
	ByDriver(ctx context.Context, driverID int64, resolved *bool) ([]model.Incident, error)
	Resolve(ctx context.Context, id int64, resolution *model.IncidentResolution) (*model.Incident, error)
}

type incidentService struct {
	store     IncidentStore
	validator *validator.OrderValidator
	cfg       *config.Config
}

func NewIncidentService(store IncidentStore, validator *validator.OrderValidator, cfg *config.Config) IncidentService {
	return &incidentService{
		store:     store,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *incidentService) ByBranch(ctx context.Context, branchID int64, resolved *bool) ([]model.Incident, error) {
	incidents, err := s.store.ByBranch(ctx, branchID, resolved)
	if err != nil {
		s.cfg.Log.Error("Failed to list branch incidents", "branch_id", branchID, "error", err)
		return nil, mapStoreError(err, "Branch", branchID)
	}
	return nonNil(incidents), nil
}

func (s *incidentService) ByDriver(ctx context.Context, driverID int64, resolved *bool) ([]model.Incident, error) {
	incidents, err := s.store.ByDriver(ctx, driverID, resolved)
	if err != nil {
		s.cfg.Log.Error("Failed to list driver incidents", "driver_id", driverID, "error", err)
		return nil, mapStoreError(err, "Driver", driverID)
	}
	return nonNil(incidents), nil
}

func (s *incidentService) Resolve(ctx context.Context, id int64, resolution *model.IncidentResolution) (*model.Incident, error) {
	resolution.ResolutionAction = sanitizer.TrimAndNormalize(resolution.ResolutionAction)
	resolution.ResolutionNote = sanitizer.SanitizeNote(resolution.ResolutionNote)

	if err := s.validator.Struct(resolution); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, apperrors.Validation(verrs.First(), verrs.Details())
		}
		return nil, apperrors.Internal("Failed to validate resolution", err)
	}

	incident, err := s.store.Resolve(ctx, id, resolution)
	if err != nil {
		s.cfg.Log.Error("Failed to resolve incident", "incident_id", id, "error", err)
		return nil, mapStoreError(err, "Incident", id)
	}

	s.cfg.Log.Info("Incident resolved",
		"incident_id", id,
		"action", resolution.ResolutionAction,
	)
	return incident, nil
}

func mapStoreError(err error, resource string, id int64) error {
	var upErr *client.UpstreamError
	if errors.As(err, &upErr) {
		if upErr.StatusCode == http.StatusNotFound {
			return apperrors.NotFoundWithID(resource, strconv.FormatInt(id, 10))
		}
		return apperrors.Upstream(upErr.Message, err)
	}
	return apperrors.Unavailable("Backend")
}

func nonNil(incidents []model.Incident) []model.Incident {
	if incidents == nil {
		return []model.Incident{}
	}
	return incidents
}
