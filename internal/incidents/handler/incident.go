package handler

import (
	"net/http"

	"ptcms/internal/incidents/service"
	httputil "ptcms/pkg/http"
	"ptcms/pkg/logger"
	"ptcms/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type IncidentHandler struct {
	service service.IncidentService
	log     *logger.Logger
}

func NewIncidentHandler(service service.IncidentService, log *logger.Logger) *IncidentHandler {
	return &IncidentHandler{
		service: service,
		log:     log,
	}
}

func (h *IncidentHandler) ByBranch(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	branchID, err := httputil.ParseIDParam(ps, "branchId")
	if err != nil {
		h.writeError(w, "ByBranch", err)
		return
	}
	resolved, err := httputil.ParseOptionalBool(r, "resolved")
	if err != nil {
		h.writeError(w, "ByBranch", err)
		return
	}

	incidents, err := h.service.ByBranch(r.Context(), branchID, resolved)
	if err != nil {
		h.writeError(w, "ByBranch", err)
		return
	}

	if err := httputil.WriteSuccess(w, incidents); err != nil {
		h.log.Error("failed to write success response", "handler", "ByBranch", "operation", "WriteSuccess", "error", err)
	}
}

func (h *IncidentHandler) ByDriver(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	driverID, err := httputil.ParseIDParam(ps, "driverId")
	if err != nil {
		h.writeError(w, "ByDriver", err)
		return
	}
	resolved, err := httputil.ParseOptionalBool(r, "resolved")
	if err != nil {
		h.writeError(w, "ByDriver", err)
		return
	}

	incidents, err := h.service.ByDriver(r.Context(), driverID, resolved)
	if err != nil {
		h.writeError(w, "ByDriver", err)
		return
	}

	if err := httputil.WriteSuccess(w, incidents); err != nil {
		h.log.Error("failed to write success response", "handler", "ByDriver", "operation", "WriteSuccess", "error", err)
	}
}

func (h *IncidentHandler) Resolve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParseIDParam(ps, "id")
	if err != nil {
		h.writeError(w, "Resolve", err)
		return
	}

	var resolution model.IncidentResolution
	if err := httputil.DecodeBody(r, &resolution); err != nil {
		h.writeError(w, "Resolve", err)
		return
	}

	incident, err := h.service.Resolve(r.Context(), id, &resolution)
	if err != nil {
		h.writeError(w, "Resolve", err)
		return
	}

	if err := httputil.WriteSuccess(w, incident); err != nil {
		h.log.Error("failed to write success response", "handler", "Resolve", "operation", "WriteSuccess", "error", err)
	}
}

func (h *IncidentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *IncidentHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/incidents/branch/:branchId", h.ByBranch)
	router.GET("/api/v1/incidents/driver/:driverId", h.ByDriver)
	router.POST("/api/v1/incidents/id/:id/resolve", h.Resolve)
}
