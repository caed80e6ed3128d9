package handler

import (
	"net/http"

	"deskbook/internal/bookings/service"
	httputil "deskbook/pkg/http"
	"deskbook/pkg/logger"
	"deskbook/pkg/middleware"
	"deskbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, r *http.Request, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Ctx(r.Context()).Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) writeSuccess(w http.ResponseWriter, r *http.Request, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Ctx(r.Context()).Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

// List answers GET /bookings. Without a limit every match is returned in one
// response; with one the response carries a next_cursor while more remain.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		h.writeError(w, r, "List", err)
		return
	}

	limit, err := httputil.ExtractLimit(r)
	if err != nil {
		h.writeError(w, r, "List", err)
		return
	}

	query := r.URL.Query()
	filter := &model.BookingFilter{
		Squad:    query.Get("squad"),
		Date:     query.Get("date"),
		OfficeID: query.Get("office_id"),
		Limit:    limit,
		Cursor:   query.Get("cursor"),
	}

	page, err := h.service.List(r.Context(), user, filter)
	if err != nil {
		h.writeError(w, r, "List", err)
		return
	}

	if limit == 0 {
		h.writeSuccess(w, r, "List", page.Bookings)
		return
	}
	if err := httputil.WritePage(w, page.Bookings, limit, page.NextCursor); err != nil {
		h.log.Ctx(r.Context()).Error("failed to write page response", "handler", "List", "operation", "WritePage", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), middleware.UserFromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "GetByID", err)
		return
	}

	h.writeSuccess(w, r, "GetByID", booking)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		h.writeError(w, r, "Create", err)
		return
	}

	var input model.BookingInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, r, "Create", err)
		return
	}

	booking, err := h.service.Create(r.Context(), user, &input)
	if err != nil {
		h.writeError(w, r, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Ctx(r.Context()).Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) Upsert(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		h.writeError(w, r, "Upsert", err)
		return
	}

	var input model.BookingInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, r, "Upsert", err)
		return
	}

	booking, err := h.service.Upsert(r.Context(), user, &input)
	if err != nil {
		h.writeError(w, r, "Upsert", err)
		return
	}

	h.writeSuccess(w, r, "Upsert", booking)
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		h.writeError(w, r, "Update", err)
		return
	}

	var update model.BookingUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, r, "Update", err)
		return
	}

	booking, err := h.service.Update(r.Context(), user, ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, r, "Update", err)
		return
	}

	h.writeSuccess(w, r, "Update", booking)
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), middleware.UserFromContext(r.Context()), ps.ByName("id")); err != nil {
		h.writeError(w, r, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/bookings", h.List)
	router.POST("/api/v1/bookings", h.Create)
	router.PUT("/api/v1/bookings", h.Upsert)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/id/:id", h.Update)
	router.DELETE("/api/v1/bookings/id/:id", h.Delete)
}
