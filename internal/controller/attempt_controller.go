package controller

import (
	"anatomy_edu_backend/internal/service"
	"anatomy_edu_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService *service.AttemptService
}

func NewAttemptController(attemptService *service.AttemptService) *AttemptController {
	return &AttemptController{AttemptService: attemptService}
}

// SubmitQuiz godoc
// @Summary Submit answers for grading
// @Description Grades the submission, records the attempt and updates quiz and user statistics atomically.
// @Tags attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "quiz id"
// @Param body body service.SubmitQuizRequest true "submitted answers"
// @Success 201 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 429 {object} util.Response "attempt limit reached"
// @Router /api/quizzes/{id}/submit [post]
func (c *AttemptController) SubmitQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AttemptService.SubmitQuiz(claims.UserID, ctx.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuizNotFound), errors.Is(err, util.ErrQuizNotPublished):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrAttemptLimitExceeded):
			util.Error(ctx, 429, "maximum number of attempts reached")
		case errors.Is(err, util.ErrMalformedSubmission):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, result)
}

// ListMyAttempts godoc
// @Summary List the current user's attempts for a quiz
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param id path string true "quiz id"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{id}/attempts [get]
func (c *AttemptController) ListMyAttempts(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	attempts, err := c.AttemptService.ListMyAttempts(claims.UserID, ctx.Param("id"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, attempts)
}

// GetAttempt godoc
// @Summary Get one attempt with its per-question results
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param id path string true "attempt id"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/attempts/{id} [get]
func (c *AttemptController) GetAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	attempt, err := c.AttemptService.GetAttempt(ctx.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAttemptNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, attempt)
}

// ListQuizAttempts godoc
// @Summary List all attempts for a quiz (teacher review)
// @Tags authoring
// @Produce json
// @Security BearerAuth
// @Param id path string true "quiz id"
// @Param page query int false "page number"
// @Param limit query int false "page size"
// @Success 200 {object} util.Response
// @Router /api/teacher/quizzes/{id}/attempts [get]
func (c *AttemptController) ListQuizAttempts(ctx *gin.Context) {
	page, limit := pagination(ctx)

	attempts, total, err := c.AttemptService.ListQuizAttempts(ctx.Param("id"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  attempts,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}
