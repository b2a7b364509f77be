package app

import (
	"anatomy_edu_backend/docs"
	"anatomy_edu_backend/internal/config"
	"anatomy_edu_backend/internal/middleware"
	"anatomy_edu_backend/internal/model"
	"anatomy_edu_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)
	rg.PUT("/profile", c.user.UpdateProfile)
	rg.GET("/stats/me", c.stats.MyStats)

	rg.GET("/quizzes", c.quiz.ListQuizzes)
	rg.GET("/quizzes/:id/take", c.quiz.TakeQuiz)
	rg.GET("/quizzes/:id/stats", c.stats.QuizStats)
	rg.POST("/quizzes/:id/submit", c.attempt.SubmitQuiz)
	rg.GET("/quizzes/:id/attempts", c.attempt.ListMyAttempts)
	rg.GET("/attempts/:id", c.attempt.GetAttempt)
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	teacher := rg.Group("/teacher")
	teacher.Use(middleware.RoleMiddleware(model.Teacher, model.Admin))
	{
		teacher.GET("/quizzes", c.quiz.ListMyQuizzes)
		teacher.POST("/quizzes", c.quiz.CreateQuiz)
		teacher.GET("/quizzes/:id", c.quiz.GetQuiz)
		teacher.PUT("/quizzes/:id", c.quiz.UpdateQuiz)
		teacher.DELETE("/quizzes/:id", c.quiz.DeleteQuiz)

		teacher.POST("/quizzes/:id/questions", c.quiz.AddQuestion)
		teacher.PUT("/quizzes/:id/questions/:questionId", c.quiz.UpdateQuestion)
		teacher.DELETE("/quizzes/:id/questions/:questionId", c.quiz.DeleteQuestion)

		teacher.GET("/quizzes/:id/attempts", c.attempt.ListQuizAttempts)
		teacher.POST("/uploads", c.quiz.UploadImage)
	}
}
