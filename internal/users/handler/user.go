package handler

import (
	"net/http"

	"deskbook/internal/users/service"
	httputil "deskbook/pkg/http"
	"deskbook/pkg/logger"
	"deskbook/pkg/middleware"
	"deskbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type UserHandler struct {
	service service.UserService
	log     *logger.Logger
}

func NewUserHandler(service service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log,
	}
}

func (h *UserHandler) writeError(w http.ResponseWriter, r *http.Request, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Ctx(r.Context()).Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *UserHandler) writeSuccess(w http.ResponseWriter, r *http.Request, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Ctx(r.Context()).Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var reg model.Registration
	if err := httputil.DecodeJSON(r, &reg); err != nil {
		h.writeError(w, r, "Register", err)
		return
	}

	user, err := h.service.Register(r.Context(), &reg)
	if err != nil {
		h.writeError(w, r, "Register", err)
		return
	}

	if err := httputil.WriteCreated(w, user); err != nil {
		h.log.Ctx(r.Context()).Error("failed to write created response", "handler", "Register", "operation", "WriteCreated", "error", err)
	}
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var creds model.Credentials
	if err := httputil.DecodeJSON(r, &creds); err != nil {
		h.writeError(w, r, "Login", err)
		return
	}

	token, err := h.service.Login(r.Context(), &creds)
	if err != nil {
		h.writeError(w, r, "Login", err)
		return
	}

	h.writeSuccess(w, r, "Login", token)
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := h.service.Logout(r.Context(), middleware.BearerToken(r)); err != nil {
		h.writeError(w, r, "Logout", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, err := h.service.Me(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, "Me", err)
		return
	}

	h.writeSuccess(w, r, "Me", user)
}

func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := h.service.DeleteMe(r.Context(), middleware.UserFromContext(r.Context())); err != nil {
		h.writeError(w, r, "DeleteMe", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	users, err := h.service.List(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, "List", err)
		return
	}

	h.writeSuccess(w, r, "List", users)
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/auth/register", h.Register)
	router.POST("/api/v1/auth/token", h.Login)
	router.DELETE("/api/v1/auth/token", h.Logout)
	router.GET("/api/v1/users", h.List)
	router.GET("/api/v1/users/me", h.Me)
	router.DELETE("/api/v1/users/me", h.DeleteMe)
}
