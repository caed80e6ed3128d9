package handler

import (
	"net/http"

	"deskbook/internal/offices/service"
	httputil "deskbook/pkg/http"
	"deskbook/pkg/logger"
	"deskbook/pkg/middleware"
	"deskbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type OfficeHandler struct {
	service service.OfficeService
	log     *logger.Logger
}

func NewOfficeHandler(service service.OfficeService, log *logger.Logger) *OfficeHandler {
	return &OfficeHandler{
		service: service,
		log:     log,
	}
}

func (h *OfficeHandler) writeError(w http.ResponseWriter, r *http.Request, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Ctx(r.Context()).Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *OfficeHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	offices, err := h.service.List(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, "List", err)
		return
	}

	if err := httputil.WriteSuccess(w, offices); err != nil {
		h.log.Ctx(r.Context()).Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *OfficeHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	office, err := h.service.GetByID(r.Context(), middleware.UserFromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, office); err != nil {
		h.log.Ctx(r.Context()).Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *OfficeHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		h.writeError(w, r, "Create", err)
		return
	}

	var input model.OfficeInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, r, "Create", err)
		return
	}

	office, err := h.service.Create(r.Context(), user, &input)
	if err != nil {
		h.writeError(w, r, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, office); err != nil {
		h.log.Ctx(r.Context()).Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *OfficeHandler) Upsert(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		h.writeError(w, r, "Upsert", err)
		return
	}

	var input model.OfficeInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, r, "Upsert", err)
		return
	}

	office, err := h.service.Upsert(r.Context(), user, &input)
	if err != nil {
		h.writeError(w, r, "Upsert", err)
		return
	}

	if err := httputil.WriteSuccess(w, office); err != nil {
		h.log.Ctx(r.Context()).Error("failed to write success response", "handler", "Upsert", "operation", "WriteSuccess", "error", err)
	}
}

func (h *OfficeHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		h.writeError(w, r, "Update", err)
		return
	}

	var input model.OfficeInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, r, "Update", err)
		return
	}

	office, err := h.service.Update(r.Context(), user, ps.ByName("id"), &input)
	if err != nil {
		h.writeError(w, r, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, office); err != nil {
		h.log.Ctx(r.Context()).Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *OfficeHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), middleware.UserFromContext(r.Context()), ps.ByName("id")); err != nil {
		h.writeError(w, r, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *OfficeHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/offices", h.List)
	router.POST("/api/v1/offices", h.Create)
	router.PUT("/api/v1/offices", h.Upsert)
	router.GET("/api/v1/offices/id/:id", h.GetByID)
	router.PATCH("/api/v1/offices/id/:id", h.Update)
	router.DELETE("/api/v1/offices/id/:id", h.Delete)
}
