package controller

import (
	"anatomy_edu_backend/internal/service"
	"anatomy_edu_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type StatsController struct {
	StatsService *service.StatsService
}

func NewStatsController(statsService *service.StatsService) *StatsController {
	return &StatsController{StatsService: statsService}
}

// MyStats godoc
// @Summary Aggregate assessment statistics for the current user
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/stats/me [get]
func (c *StatsController) MyStats(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.StatsService.UserStats(claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, stats)
}

// QuizStats godoc
// @Summary Aggregate statistics for one quiz
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Param id path string true "quiz id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id}/stats [get]
func (c *StatsController) QuizStats(ctx *gin.Context) {
	stats, err := c.StatsService.QuizStats(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, stats)
}
