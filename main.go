package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Cyberlove-your-dreampartner/backend/internal/config"
	"github.com/Cyberlove-your-dreampartner/backend/internal/conversation"
	"github.com/Cyberlove-your-dreampartner/backend/internal/db"
	"github.com/Cyberlove-your-dreampartner/backend/internal/handlers"
	"github.com/Cyberlove-your-dreampartner/backend/internal/llm"
	"github.com/Cyberlove-your-dreampartner/backend/internal/middleware"
	"github.com/Cyberlove-your-dreampartner/backend/internal/observability"
	"github.com/Cyberlove-your-dreampartner/backend/internal/provisioning"
	"github.com/Cyberlove-your-dreampartner/backend/internal/rabbitmq"
	"github.com/Cyberlove-your-dreampartner/backend/internal/repositories"
	"github.com/Cyberlove-your-dreampartner/backend/internal/storage"
	"github.com/Cyberlove-your-dreampartner/backend/internal/talks"
	"github.com/Cyberlove-your-dreampartner/backend/internal/telemetry"
	"github.com/Cyberlove-your-dreampartner/backend/internal/ws"
)

const serviceName = "partner-backend"

func main() {
	cfg := config.Load()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	shutdownTracing, err := observability.InitTracing(context.Background(), cfg.OTLPEndpoint, serviceName)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))

	emitter := telemetry.NewEventEmitter(publisher, serviceName, cfg.Environment)

	userRepo := repositories.NewUserRepo(database)
	imageRepo := repositories.NewImageRepo(database)
	partnerRepo := repositories.NewPartnerRepo(database)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	talksClient := talks.NewClient(cfg.Talks)
	llmClient := llm.NewClient(cfg.LLM)
	mediaStore := storage.NewS3Store(cfg.Storage)

	conversations := conversation.NewManager(chatRepo, messageRepo, llmClient)
	orchestrator := provisioning.NewOrchestrator(imageRepo, partnerRepo, talksClient, mediaStore, conversations, cfg.Talks)

	hub := ws.NewHub()
	eventsWS := ws.NewEventsHandler(hub, cfg.JWTSecret)

	userHandler := handlers.NewUserHandler(userRepo, partnerRepo, cfg.JWTSecret)
	partnerHandler := handlers.NewPartnerHandler(orchestrator, hub, emitter)
	chatHandler := handlers.NewChatHandler(conversations, partnerRepo, imageRepo, orchestrator, hub, emitter)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/user/register", userHandler.Register)
	router.POST("/user/login", userHandler.Login)

	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)

	router.GET("/user/status", authMiddleware, userHandler.Status)

	router.POST("/partner", authMiddleware, partnerHandler.ChoosePartner)
	router.POST("/partner/generateImage", authMiddleware, partnerHandler.GeneratePartnerImage)
	router.POST("/partner/characterSetting", authMiddleware, partnerHandler.CharacterSetting)
	router.POST("/partner/image", authMiddleware, partnerHandler.UploadImage)

	router.GET("/chat/imageURL", authMiddleware, chatHandler.GetImageURL)
	router.POST("/chat/message", authMiddleware, chatHandler.ReplyMessage)
	router.GET("/chat/idleVideo", authMiddleware, chatHandler.GetIdleVideo)
	router.GET("/chat/history", authMiddleware, chatHandler.GetChatHistory)

	router.GET("/ws/events", eventsWS.Handle)

	handlers.RegisterDebugRoutes(router, emitter, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
