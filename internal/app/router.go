package app

import (
	"questionnaire_backend/docs"
	"questionnaire_backend/internal/config"
	"questionnaire_backend/internal/middleware"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	api.Use(middleware.Tenant(a.Tenants))

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(api, c)

	// 2. 管理端
	admin := api.Group("")
	admin.Use(middleware.AuthMiddleware(cfg))
	{
		admin.GET("/auth/me", c.auth.Me)

		// 只读接口：分析员可访问
		a.registerReportingRoutes(admin.Group("", middleware.RoleMiddleware(model.Editor, model.Analyst)), c)

		// 编辑接口
		a.registerEditorRoutes(admin.Group("", middleware.RoleMiddleware(model.Editor)), c)
	}
}

func (a *App) registerPublicRoutes(public *gin.RouterGroup, c *controllers) {
	public.GET("/health", c.health.HealthCheck)
	public.POST("/auth/login", c.auth.Login)
	public.GET("/timezones", c.timezone.ListTimeZones)

	public.GET("/public/forms/:publicKey", c.submission.GetPublicForm)
	public.POST("/public/forms/:publicKey/submissions", c.submission.Submit)
}

func (a *App) registerReportingRoutes(g *gin.RouterGroup, c *controllers) {
	g.GET("/forms", c.form.ListForms)
	g.GET("/forms/:formId", c.form.GetForm)
	g.GET("/forms/:formId/pages", c.form.ListPages)
	g.GET("/forms/:formId/questions", c.question.ListQuestions)
	g.GET("/forms/:formId/rules", c.rule.ListRules)
	g.POST("/forms/:formId/rules/evaluate", c.rule.EvaluateRules)
	g.GET("/questions/:id", c.question.GetQuestion)
	g.GET("/rules/:id", c.rule.GetRule)

	g.GET("/forms/:formId/submissions", c.submission.ListSubmissions)
	g.GET("/submissions/:id", c.submission.GetSubmission)
	g.GET("/submissions/:id/score", c.scoring.GetSubmissionScore)

	g.POST("/forms/:formId/exports", c.export.CreateExport)
	g.GET("/exports/:id", c.export.GetExport)
	g.GET("/exports/:id/download", c.export.DownloadExport)
}

func (a *App) registerEditorRoutes(g *gin.RouterGroup, c *controllers) {
	g.POST("/forms", c.form.CreateForm)
	g.PUT("/forms/:formId", c.form.UpdateForm)
	g.DELETE("/forms/:formId", c.form.DeleteForm)
	g.POST("/forms/:formId/publish", c.form.PublishForm)
	g.POST("/forms/:formId/unpublish", c.form.UnpublishForm)
	g.POST("/forms/:formId/regenerate-key", c.form.RegenerateKey)

	g.POST("/forms/:formId/pages", c.form.CreatePage)
	g.PUT("/forms/:formId/pages/:pageId", c.form.UpdatePage)
	g.DELETE("/forms/:formId/pages/:pageId", c.form.DeletePage)

	g.POST("/forms/:formId/questions", c.question.CreateQuestion)
	g.PUT("/questions/:id", c.question.UpdateQuestion)
	g.DELETE("/questions/:id", c.question.DeleteQuestion)

	g.POST("/forms/:formId/rules", c.rule.CreateRule)
	g.PUT("/rules/:id", c.rule.UpdateRule)
	g.DELETE("/rules/:id", c.rule.DeleteRule)

	g.DELETE("/submissions/:id", c.submission.DeleteSubmission)
	g.POST("/forms/:formId/scoring/recalculate", c.scoring.Recalculate)
	g.DELETE("/exports/expired", c.export.PurgeExpired)
}
