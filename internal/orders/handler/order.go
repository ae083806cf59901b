package handler

import (
	"net/http"
	"strings"

	"ptcms/internal/orders/assignment"
	"ptcms/internal/orders/availability"
	"ptcms/internal/orders/form"
	"ptcms/internal/orders/service"
	httputil "ptcms/pkg/http"
	"ptcms/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// LiveServer runs a websocket edit session on an already loaded form.
type LiveServer interface {
	Serve(w http.ResponseWriter, r *http.Request, f *form.Form) error
}

type OrderHandler struct {
	service service.OrderService
	live    LiveServer
	log     *logger.Logger
}

func NewOrderHandler(service service.OrderService, live LiveServer, log *logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		live:    live,
		log:     log,
	}
}

func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParseIDParam(ps, "id")
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	view, err := h.service.Load(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.save(w, r, ps, "Update", false)
}

func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.save(w, r, ps, "Submit", true)
}

func (h *OrderHandler) save(w http.ResponseWriter, r *http.Request, ps httprouter.Params, name string, submit bool) {
	id, err := httputil.ParseIDParam(ps, "id")
	if err != nil {
		h.writeError(w, name, err)
		return
	}

	var in form.Input
	if err := httputil.DecodeBody(r, &in); err != nil {
		h.writeError(w, name, err)
		return
	}

	res, err := h.service.Save(r.Context(), id, in, submit)
	if err != nil {
		h.writeError(w, name, err)
		return
	}

	if err := httputil.WriteSuccessMessage(w, res.Order, res.Message); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccessMessage", "error", err)
	}
}

func (h *OrderHandler) Assign(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParseIDParam(ps, "id")
	if err != nil {
		h.writeError(w, "Assign", err)
		return
	}

	var req assignment.Request
	if err := httputil.DecodeBody(r, &req); err != nil {
		h.writeError(w, "Assign", err)
		return
	}

	result, err := h.service.Assign(r.Context(), id, req)
	if err != nil {
		h.writeError(w, "Assign", err)
		return
	}

	if err := httputil.WriteSuccessMessage(w, result, result.Message); err != nil {
		h.log.Error("failed to write success response", "handler", "Assign", "operation", "WriteSuccessMessage", "error", err)
	}
}

// Live upgrades to a websocket once the booking is loaded. Load failures are
// answered as plain JSON errors before the upgrade.
func (h *OrderHandler) Live(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParseIDParam(ps, "id")
	if err != nil {
		h.writeError(w, "Live", err)
		return
	}

	f, err := h.service.OpenForm(r.Context(), id)
	if err != nil {
		h.writeError(w, "Live", err)
		return
	}

	if err := h.live.Serve(w, r, f); err != nil {
		h.log.Warn("Live session upgrade failed", "booking_id", id, "error", err)
	}
}

func (h *OrderHandler) Quote(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req service.QuoteRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		h.writeError(w, "Quote", err)
		return
	}

	res, err := h.service.Quote(r.Context(), req)
	if err != nil {
		h.writeError(w, "Quote", err)
		return
	}

	if err := httputil.WriteSuccessMessage(w, res, res.Message); err != nil {
		h.log.Error("failed to write success response", "handler", "Quote", "operation", "WriteSuccessMessage", "error", err)
	}
}

func (h *OrderHandler) Availability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req availability.Request
	if err := httputil.DecodeBody(r, &req); err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	result, err := h.service.CheckAvailability(r.Context(), req)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	if err := httputil.WriteSuccessMessage(w, result, result.Message); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccessMessage", "error", err)
	}
}

func (h *OrderHandler) Reference(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ref, err := h.service.Reference(r.Context())
	if err != nil {
		h.writeError(w, "Reference", err)
		return
	}

	if err := httputil.WriteSuccess(w, ref); err != nil {
		h.log.Error("failed to write success response", "handler", "Reference", "operation", "WriteSuccess", "error", err)
	}
}

func (h *OrderHandler) RefreshReference(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ref, err := h.service.RefreshReference(r.Context())
	if err != nil {
		h.writeError(w, "RefreshReference", err)
		return
	}

	if err := httputil.WriteSuccess(w, ref); err != nil {
		h.log.Error("failed to write success response", "handler", "RefreshReference", "operation", "WriteSuccess", "error", err)
	}
}

func (h *OrderHandler) Drivers(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	branchID, err := httputil.ParseIDParam(ps, "branchId")
	if err != nil {
		h.writeError(w, "Drivers", err)
		return
	}

	drivers, err := h.service.Drivers(r.Context(), branchID, strings.TrimSpace(r.URL.Query().Get("q")))
	if err != nil {
		h.writeError(w, "Drivers", err)
		return
	}

	if err := httputil.WriteSuccess(w, drivers); err != nil {
		h.log.Error("failed to write success response", "handler", "Drivers", "operation", "WriteSuccess", "error", err)
	}
}

func (h *OrderHandler) Vehicles(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	branchID, err := httputil.ParseIDParam(ps, "branchId")
	if err != nil {
		h.writeError(w, "Vehicles", err)
		return
	}

	vehicles, err := h.service.Vehicles(r.Context(), branchID, strings.TrimSpace(r.URL.Query().Get("q")))
	if err != nil {
		h.writeError(w, "Vehicles", err)
		return
	}

	if err := httputil.WriteSuccess(w, vehicles); err != nil {
		h.log.Error("failed to write success response", "handler", "Vehicles", "operation", "WriteSuccess", "error", err)
	}
}

func (h *OrderHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *OrderHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/orders/id/:id", h.GetByID)
	router.PUT("/api/v1/orders/id/:id", h.Update)
	router.POST("/api/v1/orders/id/:id/submit", h.Submit)
	router.POST("/api/v1/orders/id/:id/assign", h.Assign)
	router.GET("/api/v1/orders/id/:id/live", h.Live)

	router.POST("/api/v1/orders/quote", h.Quote)
	router.POST("/api/v1/orders/availability", h.Availability)
	router.GET("/api/v1/orders/reference", h.Reference)
	router.POST("/api/v1/orders/reference/refresh", h.RefreshReference)

	router.GET("/api/v1/branches/:branchId/drivers", h.Drivers)
	router.GET("/api/v1/branches/:branchId/vehicles", h.Vehicles)
}
