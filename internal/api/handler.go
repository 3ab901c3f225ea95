package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kurihiro0119/gitlab-commit-checker/internal/domain"
	apperrors "github.com/kurihiro0119/gitlab-commit-checker/internal/errors"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/parser"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/storage"
)

// BatchRunner runs a commit check batch
type BatchRunner interface {
	Run(ctx context.Context, baseURL, input, contextID string) (*domain.Batch, error)
	RunTargets(ctx context.Context, baseURL string, targets []domain.Target, contextID string) (*domain.Batch, error)
}

// Handler handles API requests
type Handler struct {
	runner     BatchRunner
	storage    storage.Storage
	defaultURL string
}

// NewHandler creates a new API handler. defaultURL is used when a request
// names no GitLab instance.
func NewHandler(runner BatchRunner, store storage.Storage, defaultURL string) *Handler {
	return &Handler{
		runner:     runner,
		storage:    store,
		defaultURL: defaultURL,
	}
}

// CheckRequest is the body of POST /api/v1/check. Projects holds
// newline-separated "path/branch" lines; Targets, when given, is used as is.
type CheckRequest struct {
	GitLabURL  string          `json:"gitlabUrl"`
	Projects   string          `json:"projects"`
	Targets    []domain.Target `json:"targets"`
	ContextURL string          `json:"contextUrl"`
}

// Check runs a batch
// POST /api/v1/check
func (h *Handler) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError("invalid request body: "+err.Error()))
		return
	}

	baseURL := h.baseURL(req.GitLabURL)

	var (
		batch *domain.Batch
		err   error
	)
	if len(req.Targets) > 0 {
		batch, err = h.runner.RunTargets(c.Request.Context(), baseURL, req.Targets, req.ContextURL)
	} else {
		batch, err = h.runner.Run(c.Request.Context(), baseURL, req.Projects, req.ContextURL)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": batch,
	})
}

// CheckFromQuery runs a batch from a shareable link
// GET /api/v1/check?gitlabUrl=...&projectPath=group/a/main|group/b/dev
func (h *Handler) CheckFromQuery(c *gin.Context) {
	input := parser.SplitList(c.Query("projectPath"))
	baseURL := h.baseURL(c.Query("gitlabUrl"))

	batch, err := h.runner.Run(c.Request.Context(), baseURL, input, c.Query("contextUrl"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": batch,
	})
}

// ListHistory returns previously submitted checks, newest first
// GET /api/v1/history
func (h *Handler) ListHistory(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 0)

	records, err := h.storage.ListHistory(c.Request.Context(), limit)
	if err != nil {
		respondError(c, apperrors.NewInternalError("failed to list history", err))
		return
	}
	if records == nil {
		records = []*domain.HistoryRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data": records,
	})
}

// ClearHistory removes all history records
// DELETE /api/v1/history
func (h *Handler) ClearHistory(c *gin.Context) {
	if err := h.storage.ClearHistory(c.Request.Context()); err != nil {
		respondError(c, apperrors.NewInternalError("failed to clear history", err))
		return
	}
	c.Status(http.StatusNoContent)
}

// HealthCheck returns the health status of the API
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func (h *Handler) baseURL(requested string) string {
	if u := strings.TrimSpace(requested); u != "" {
		return u
	}
	return h.defaultURL
}

// parseIntQuery parses an integer query parameter with a default value
func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

// respondError sends an error response
func respondError(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrCodeBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeUnauthorized:
			status = http.StatusUnauthorized
		case apperrors.ErrCodeForbidden:
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrCodeInternal,
			"message": err.Error(),
		},
	})
}
