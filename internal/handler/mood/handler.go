package mood

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	model "github.com/mindhaven/backend/internal/model/mood"
	"github.com/mindhaven/backend/internal/middleware"
	"github.com/mindhaven/backend/internal/service/cooldown"
	moodservice "github.com/mindhaven/backend/internal/service/mood"
	"github.com/mindhaven/backend/internal/service/moodlog"
	"github.com/mindhaven/backend/pkg/utils"
)

// Analyzer 抽象分析核心，测试时以桩替换。
type Analyzer interface {
	Analyze(ctx context.Context, moodText string) (*model.Assessment, error)
}

// Handler 情绪分析与日记的HTTP处理器
type Handler struct {
	analyzer Analyzer
	logs     *moodlog.Service
	throttle *cooldown.Policy
}

// New 创建处理器。analyzer 为 nil 时分析接口返回 503。
func New(analyzer Analyzer, logs *moodlog.Service, throttle *cooldown.Policy) *Handler {
	return &Handler{analyzer: analyzer, logs: logs, throttle: throttle}
}

// RegisterRoutes 注册情绪相关的路由，全部要求登录。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/mood/analyze", h.handleAnalyze)
	r.Post("/mood/logs", h.handleCreateLog)
	r.Get("/mood/logs", h.handleListLogs)
	r.Patch("/mood/logs/{id}", h.handleUpdateLog)
	r.Delete("/mood/logs/{id}", h.handleDeleteLog)
}

// handleAnalyze 处理一次分析提交：先过冷却检查，再调用分析核心。
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if h.analyzer == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "mood analysis unavailable")
		return
	}

	var payload struct {
		MoodText string `json:"moodText"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if h.throttle != nil {
		if verdict := h.throttle.Allow(userID); !verdict.Allowed {
			seconds := int(math.Ceil(verdict.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			utils.RespondError(w, http.StatusTooManyRequests, "You're submitting too quickly. Please wait a moment.")
			return
		}
	}

	assessment, err := h.analyzer.Analyze(r.Context(), payload.MoodText)
	if err != nil {
		var analysisErr *moodservice.AnalysisError
		if errors.As(err, &analysisErr) {
			utils.RespondError(w, analysisErr.Kind.HTTPStatus(), analysisErr.Message)
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "Failed to analyze mood. Please try again.")
		return
	}

	if h.throttle != nil {
		h.throttle.Record(userID)
	}
	utils.RespondJSON(w, http.StatusOK, assessment)
}

// handleCreateLog 保存调用方决定留下的评估结果。
func (h *Handler) handleCreateLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload struct {
		MoodText string `json:"moodText"`
		model.Assessment
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.logs.Create(r.Context(), userID, payload.MoodText, payload.Assessment)
	if err != nil {
		h.respondLogError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, entry)
}

// handleListLogs 返回当前用户的日记。
func (h *Handler) handleListLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	entries, err := h.logs.List(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load mood logs")
		return
	}
	if entries == nil {
		entries = []model.Log{}
	}
	utils.RespondJSON(w, http.StatusOK, entries)
}

// handleUpdateLog 修改日记正文。
func (h *Handler) handleUpdateLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload struct {
		MoodText string `json:"moodText"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.logs.UpdateText(r.Context(), userID, chi.URLParam(r, "id"), payload.MoodText)
	if err != nil {
		h.respondLogError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, entry)
}

// handleDeleteLog 删除日记。
func (h *Handler) handleDeleteLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.logs.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.respondLogError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) respondLogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, moodlog.ErrEmptyText):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, moodlog.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, moodlog.ErrForbidden):
		utils.RespondError(w, http.StatusForbidden, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
