package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"tenderquote/internal/ai"
	appsvc "tenderquote/internal/app"
	"tenderquote/internal/bootstrap"
	"tenderquote/internal/cache"
	"tenderquote/internal/platform/rabbitmq"
	"tenderquote/internal/prompt"
	"tenderquote/internal/repository"
	"tenderquote/internal/transport/http/handler"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	docRepo := repository.NewDocumentRepository(app.MySQL)
	genRepo := repository.NewGenerationRepository(app.MySQL)
	textCache := cache.NewTextCache(app.Redis, time.Duration(app.Config.Redis.TextTTLSeconds)*time.Second)
	publisher := rabbitmq.NewTaskPublisher(app.MQConn, app.Config.RabbitMQ.ExtractQueue)

	docService := appsvc.NewDocumentService(
		docRepo,
		app.Blobs,
		publisher,
		textCache,
		app.Config.MaxFileSizeBytes(),
	)
	genService := appsvc.NewGenerationService(
		docService,
		genRepo,
		app.Ollama,
		prompt.NewBuilder(app.Config.Prompt.MaxTenderChars, app.Config.Prompt.MaxTemplateChars),
		ai.GenerateConfig{
			BaseURL:     app.Config.Ollama.BaseURL,
			Model:       app.Config.Ollama.Model,
			Temperature: app.Config.Ollama.Temperature,
			NumCtx:      app.Config.Ollama.NumCtx,
			NumPredict:  app.Config.Ollama.NumPredict,
		},
		time.Duration(app.Config.Ollama.GenerateTimeoutSeconds)*time.Second,
	)

	docHandler := handler.NewDocumentHandler(docService)
	genHandler := handler.NewGenerationHandler(genService)

	v1 := router.Group("/api/v1")

	docs := v1.Group("/documents")
	docs.POST("", docHandler.Upload)
	docs.GET("", docHandler.List)
	docs.GET("/:id", docHandler.Get)
	docs.GET("/:id/download", docHandler.Download)
	docs.DELETE("/:id", docHandler.Delete)

	v1.GET("/stats", docHandler.Stats)
	v1.GET("/analyses/:id", genHandler.AnalyzeTender)
	v1.POST("/generations", genHandler.GenerateQuote)
	v1.GET("/generations", genHandler.History)
	v1.GET("/models", genHandler.Models)

	return router
}
