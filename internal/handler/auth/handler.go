package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindhaven/backend/internal/middleware"
	"github.com/mindhaven/backend/internal/repo"
	authservice "github.com/mindhaven/backend/internal/service/auth"
	"github.com/mindhaven/backend/pkg/utils"
)

// Handler 注册登录与公开资料的HTTP处理器
type Handler struct {
	auth *authservice.Service
	repo *repo.Repo
}

// New 创建认证处理器。
func New(auth *authservice.Service, r *repo.Repo) *Handler {
	return &Handler{auth: auth, repo: r}
}

// RegisterPublicRoutes 注册无需登录的路由。
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/signup", h.handleSignup)
	r.Post("/auth/login", h.handleLogin)
	r.Get("/profiles/{id}", h.handleGetProfile)
}

// RegisterProtectedRoutes 注册需要登录的路由。
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
}

// handleSignup 创建账号。
func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.auth.Signup(r.Context(), payload.Email, payload.Password, payload.Username)
	if err != nil {
		if errors.Is(err, authservice.ErrEmailTaken) {
			utils.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleLogin 登录并签发令牌。
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, authservice.ErrInvalidCredentials) {
			utils.RespondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleMe 返回当前登录用户及其资料。
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	u, err := h.repo.GetUser(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "user not found")
		return
	}
	profile, err := h.repo.GetProfile(r.Context(), userID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"user":    u,
		"profile": profile,
	})
}

// handleGetProfile 公开的资料查询，社区页拼接用户名与头像用。
func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.repo.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "profile not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	utils.RespondJSON(w, http.StatusOK, profile)
}
