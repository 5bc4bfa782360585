package pledge

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindhaven/backend/internal/middleware"
	model "github.com/mindhaven/backend/internal/model/pledge"
	"github.com/mindhaven/backend/internal/realtime"
	pledgeservice "github.com/mindhaven/backend/internal/service/pledge"
	"github.com/mindhaven/backend/pkg/utils"
)

// Handler 社区承诺板的HTTP处理器
type Handler struct {
	pledges *pledgeservice.Service
	hub     *realtime.Hub
}

// New 创建承诺处理器。hub 为 nil 时不提供变更订阅端点。
func New(pledges *pledgeservice.Service, hub *realtime.Hub) *Handler {
	return &Handler{pledges: pledges, hub: hub}
}

// RegisterPublicRoutes 注册无需登录的路由：读取列表与变更订阅。
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/pledges", h.handleList)
	if h.hub != nil {
		r.Get("/pledges/ws", h.hub.ServeHTTP)
	}
}

// RegisterProtectedRoutes 注册需要登录的路由。
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/pledges", h.handleCreate)
	r.Patch("/pledges/{id}/status", h.handleSetStatus)
	r.Delete("/pledges/{id}", h.handleDelete)
}

// handleList 返回全部承诺。
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	pledges, err := h.pledges.List(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load pledges")
		return
	}
	if pledges == nil {
		pledges = []model.Pledge{}
	}
	utils.RespondJSON(w, http.StatusOK, pledges)
}

// handleCreate 发布承诺。
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.pledges.Create(r.Context(), userID, payload.Title)
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, p)
}

// handleSetStatus 切换承诺状态，仅限所有者。
func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload struct {
		Status model.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.pledges.SetStatus(r.Context(), userID, chi.URLParam(r, "id"), payload.Status)
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

// handleDelete 删除承诺，仅限所有者。
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.pledges.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pledgeservice.ErrEmptyTitle), errors.Is(err, pledgeservice.ErrInvalidStatus):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pledgeservice.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, pledgeservice.ErrForbidden):
		utils.RespondError(w, http.StatusForbidden, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
