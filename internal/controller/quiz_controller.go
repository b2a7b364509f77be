package controller

import (
	"anatomy_edu_backend/internal/model"
	"anatomy_edu_backend/internal/service"
	"anatomy_edu_backend/internal/util"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type QuizController struct {
	QuizService    *service.QuizService
	StorageService *service.StorageService
}

func NewQuizController(quizService *service.QuizService, storageService *service.StorageService) *QuizController {
	return &QuizController{
		QuizService:    quizService,
		StorageService: storageService,
	}
}

func pagination(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// ListQuizzes godoc
// @Summary List published quizzes
// @Tags quizzes
// @Produce json
// @Security BearerAuth
// @Param category query string false "filter by category"
// @Param page query int false "page number"
// @Param limit query int false "page size"
// @Success 200 {object} util.Response
// @Router /api/quizzes [get]
func (c *QuizController) ListQuizzes(ctx *gin.Context) {
	page, limit := pagination(ctx)
	category := ctx.Query("category")

	quizzes, total, err := c.QuizService.ListPublished(category, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  quizzes,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// TakeQuiz godoc
// @Summary Fetch a quiz in its student-facing form
// @Description Answer keys are stripped; question and option order may be shuffled.
// @Tags quizzes
// @Produce json
// @Security BearerAuth
// @Param id path string true "quiz id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 429 {object} util.Response "attempt limit reached"
// @Router /api/quizzes/{id}/take [get]
func (c *QuizController) TakeQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	presentation, err := c.QuizService.PresentQuiz(claims.UserID, ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuizNotFound), errors.Is(err, util.ErrQuizNotPublished):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrAttemptLimitExceeded):
			util.Error(ctx, 429, "maximum number of attempts reached")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, presentation)
}

// --- Authoring ---

// ListMyQuizzes godoc
// @Summary List quizzes created by the current teacher
// @Tags authoring
// @Produce json
// @Security BearerAuth
// @Param page query int false "page number"
// @Param limit query int false "page size"
// @Success 200 {object} util.Response
// @Router /api/teacher/quizzes [get]
func (c *QuizController) ListMyQuizzes(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	page, limit := pagination(ctx)

	quizzes, total, err := c.QuizService.ListByCreator(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  quizzes,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// CreateQuiz godoc
// @Summary Create a quiz
// @Tags authoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.QuizRequest true "quiz data"
// @Success 201 {object} util.Response
// @Router /api/teacher/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.CreateQuiz(claims.UserID, req)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	util.Created(ctx, quiz)
}

// ownedQuiz loads a quiz and enforces that the requester created it.
// Admins bypass the ownership check.
func (c *QuizController) ownedQuiz(ctx *gin.Context, quizID string) (*model.Quiz, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return nil, false
	}

	quiz, err := c.QuizService.GetQuiz(quizID)
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return nil, false
	}

	if quiz.CreatorID != claims.UserID && claims.Role != model.Admin {
		util.Forbidden(ctx)
		return nil, false
	}
	return quiz, true
}

// GetQuiz godoc
// @Summary Get a quiz with its full question set, answer keys included
// @Tags authoring
// @Produce json
// @Security BearerAuth
// @Param id path string true "quiz id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/teacher/quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	quiz, ok := c.ownedQuiz(ctx, ctx.Param("id"))
	if !ok {
		return
	}
	util.Success(ctx, quiz)
}

// UpdateQuiz godoc
// @Summary Update quiz settings
// @Tags authoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "quiz id"
// @Param body body service.QuizRequest true "quiz data"
// @Success 200 {object} util.Response
// @Router /api/teacher/quizzes/{id} [put]
func (c *QuizController) UpdateQuiz(ctx *gin.Context) {
	if _, ok := c.ownedQuiz(ctx, ctx.Param("id")); !ok {
		return
	}

	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.UpdateQuiz(ctx.Param("id"), req)
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}

	util.Success(ctx, quiz)
}

// DeleteQuiz godoc
// @Summary Delete a quiz and its questions
// @Tags authoring
// @Produce json
// @Security BearerAuth
// @Param id path string true "quiz id"
// @Success 200 {object} util.Response
// @Router /api/teacher/quizzes/{id} [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
	if _, ok := c.ownedQuiz(ctx, ctx.Param("id")); !ok {
		return
	}

	if err := c.QuizService.DeleteQuiz(ctx.Param("id")); err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, nil)
}

// AddQuestion godoc
// @Summary Add a question to a quiz
// @Tags authoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "quiz id"
// @Param body body service.QuestionRequest true "question data"
// @Success 201 {object} util.Response
// @Router /api/teacher/quizzes/{id}/questions [post]
func (c *QuizController) AddQuestion(ctx *gin.Context) {
	if _, ok := c.ownedQuiz(ctx, ctx.Param("id")); !ok {
		return
	}

	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.QuizService.AddQuestion(ctx.Param("id"), req)
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}

	util.Created(ctx, question)
}

// UpdateQuestion godoc
// @Summary Update a question
// @Tags authoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "quiz id"
// @Param questionId path string true "question id"
// @Param body body service.QuestionRequest true "question data"
// @Success 200 {object} util.Response
// @Router /api/teacher/quizzes/{id}/questions/{questionId} [put]
func (c *QuizController) UpdateQuestion(ctx *gin.Context) {
	if _, ok := c.ownedQuiz(ctx, ctx.Param("id")); !ok {
		return
	}

	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.QuizService.UpdateQuestion(ctx.Param("id"), ctx.Param("questionId"), req)
	if err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}

	util.Success(ctx, question)
}

// DeleteQuestion godoc
// @Summary Delete a question
// @Tags authoring
// @Produce json
// @Security BearerAuth
// @Param id path string true "quiz id"
// @Param questionId path string true "question id"
// @Success 200 {object} util.Response
// @Router /api/teacher/quizzes/{id}/questions/{questionId} [delete]
func (c *QuizController) DeleteQuestion(ctx *gin.Context) {
	if _, ok := c.ownedQuiz(ctx, ctx.Param("id")); !ok {
		return
	}

	if err := c.QuizService.DeleteQuestion(ctx.Param("id"), ctx.Param("questionId")); err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, nil)
}

// UploadImage godoc
// @Summary Upload a question or anatomy diagram image
// @Tags authoring
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "image file"
// @Success 200 {object} util.Response
// @Router /api/teacher/uploads [post]
func (c *QuizController) UploadImage(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	src, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	contentType, err := util.ValidateMimeType(src, []string{util.MimeImage})
	if err != nil {
		util.BadRequest(ctx, "only image uploads are accepted")
		return
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	filename := fmt.Sprintf("images/%s%s", uuid.New().String(), filepath.Ext(file.Filename))
	url, err := c.StorageService.Upload(ctx.Request.Context(), filename, src, file.Size, contentType)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"url": url})
}
