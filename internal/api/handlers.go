package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/ieltsprep/internal/logger"
	"github.com/example/ieltsprep/internal/progress"
	"github.com/example/ieltsprep/internal/submission"
	"github.com/example/ieltsprep/pkg/models"
)

// Service is the part of the submission service the HTTP layer drives
type Service interface {
	Submit(ctx context.Context, userID string, req submission.SubmitRequest) (*models.TestResult, error)
	GradeResult(ctx context.Context, req submission.GradeRequest) (*models.TestResult, error)
	Progress(ctx context.Context, userID string) (*models.Progress, error)
	SetTarget(ctx context.Context, userID string, target float64) (*models.Progress, error)
	Report(ctx context.Context, userID string) (*progress.Report, error)
	Results(ctx context.Context, userID string) ([]models.TestResult, error)
	Result(ctx context.Context, userID, resultID string) (*models.TestResult, error)
}

type ResultHandler struct {
	log *logger.Logger
	svc Service
}

func NewResultHandler(log *logger.Logger, svc Service) *ResultHandler {
	return &ResultHandler{
		log: log.With("handler", "ResultHandler"),
		svc: svc,
	}
}

// POST /api/results
func (h *ResultHandler) Submit(c *gin.Context) {
	var req submission.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	userID := c.GetString(ctxUserID)
	result, err := h.svc.Submit(c.Request.Context(), userID, req)
	if err != nil {
		h.respondServiceError(c, "Submit", err, "user_id", userID, "test_id", req.TestID)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GET /api/results
func (h *ResultHandler) List(c *gin.Context) {
	userID := c.GetString(ctxUserID)
	results, err := h.svc.Results(c.Request.Context(), userID)
	if err != nil {
		h.respondServiceError(c, "List", err, "user_id", userID)
		return
	}
	RespondOK(c, gin.H{"results": results})
}

// GET /api/results/:id
func (h *ResultHandler) Get(c *gin.Context) {
	userID := c.GetString(ctxUserID)
	result, err := h.svc.Result(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.respondServiceError(c, "Get", err, "user_id", userID, "result_id", c.Param("id"))
		return
	}
	RespondOK(c, result)
}

// PUT /api/results/:id/grade
func (h *ResultHandler) Grade(c *gin.Context) {
	var req submission.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	req.ResultID = c.Param("id")
	req.GraderID = c.GetString(ctxUserID)

	result, err := h.svc.GradeResult(c.Request.Context(), req)
	if err != nil {
		h.respondServiceError(c, "Grade", err, "result_id", req.ResultID, "graded_by", req.GraderID)
		return
	}
	RespondOK(c, result)
}

type ProgressHandler struct {
	log *logger.Logger
	svc Service
}

func NewProgressHandler(log *logger.Logger, svc Service) *ProgressHandler {
	return &ProgressHandler{
		log: log.With("handler", "ProgressHandler"),
		svc: svc,
	}
}

// GET /api/progress
func (h *ProgressHandler) Get(c *gin.Context) {
	userID := c.GetString(ctxUserID)
	p, err := h.svc.Progress(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("Get progress failed", "error", err, "user_id", userID)
		RespondError(c, http.StatusInternalServerError, "load_progress_failed", nil)
		return
	}
	RespondOK(c, p)
}

type setTargetRequest struct {
	TargetScore *float64 `json:"targetScore" binding:"required"`
}

// PUT /api/progress/target
func (h *ProgressHandler) SetTarget(c *gin.Context) {
	var req setTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	userID := c.GetString(ctxUserID)
	p, err := h.svc.SetTarget(c.Request.Context(), userID, *req.TargetScore)
	if err != nil {
		if errors.Is(err, submission.ErrInvalidScore) {
			RespondError(c, http.StatusBadRequest, "invalid_score", err)
			return
		}
		h.log.Error("SetTarget failed", "error", err, "user_id", userID)
		RespondError(c, http.StatusInternalServerError, "save_progress_failed", nil)
		return
	}
	RespondOK(c, p)
}

// GET /api/progress/me
func (h *ProgressHandler) Report(c *gin.Context) {
	userID := c.GetString(ctxUserID)
	report, err := h.svc.Report(c.Request.Context(), userID)
	switch {
	case errors.Is(err, progress.ErrNoData):
		RespondOK(c, gin.H{"message": progress.ErrNoData.Error(), "report": nil})
	case err != nil:
		h.log.Error("Report failed", "error", err, "user_id", userID)
		RespondError(c, http.StatusInternalServerError, "build_report_failed", nil)
	default:
		RespondOK(c, gin.H{"report": report})
	}
}

// GET /healthz
func Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *ResultHandler) respondServiceError(c *gin.Context, op string, err error, kv ...interface{}) {
	switch {
	case errors.Is(err, submission.ErrInvalidSubmission):
		RespondError(c, http.StatusBadRequest, "invalid_submission", err)
	case errors.Is(err, submission.ErrInvalidScore):
		RespondError(c, http.StatusBadRequest, "invalid_score", err)
	case errors.Is(err, submission.ErrTestNotFound):
		RespondError(c, http.StatusNotFound, "test_not_found", err)
	case errors.Is(err, submission.ErrResultNotFound):
		RespondError(c, http.StatusNotFound, "result_not_found", err)
	default:
		h.log.Error(op+" failed", append([]interface{}{"error", err}, kv...)...)
		RespondError(c, http.StatusInternalServerError, "internal_error", nil)
	}
}
