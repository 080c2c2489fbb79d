package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"careline-service/internal/auth"
	"careline-service/internal/config"
	"careline-service/internal/db"
	"careline-service/internal/handlers"
	"careline-service/internal/middleware"
	"careline-service/internal/notify"
	"careline-service/internal/observability"
	"careline-service/internal/rabbitmq"
	"careline-service/internal/repositories"
	"careline-service/internal/telemetry"
	"careline-service/internal/watchdog"
	"careline-service/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracer, err := observability.InitTracer(context.Background(), cfg.OTLPEndpoint, "careline-service")
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer shutdownTracer(context.Background())

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))

	if amqpPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err == nil {
		observability.SetPublisher(amqpPublisher)
		defer amqpPublisher.Close()
	}

	audit := telemetry.NewAuditEmitter(publisher, "audit.careline", "careline-service", cfg.Environment)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)

	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	emergencyRepo := repositories.NewEmergencyRepo(database)

	hub := ws.NewHub()

	pushSender := notify.NewPushSender(notify.PushConfig{
		APIKey:            cfg.PushAPIKey,
		APISecret:         cfg.PushAPISecret,
		BaseURL:           cfg.PushBaseURL,
		ActionURLTemplate: cfg.PushActionURL,
		TruncateLen:       cfg.PushTruncateLen,
	}, &http.Client{Timeout: cfg.DispatchTimeout})
	dispatcher := notify.NewDispatcher(cfg.DispatchTimeout, notify.NewRealtimeSender(hub), pushSender)

	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo, dispatcher)
	emergencyHandler := handlers.NewEmergencyHandler(chatRepo, emergencyRepo, dispatcher, audit)
	chatWS := ws.NewChatWebSocketHandler(hub, chatRepo, tokens)

	dog := watchdog.New(emergencyRepo, audit, cfg.WatchdogThreshold)
	if err := dog.Start(cfg.WatchdogSchedule); err != nil {
		log.Fatalf("failed to start watchdog: %v", err)
	}
	defer dog.Stop()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("careline-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(tokens)

	router.GET("/chats", authMiddleware, chatHandler.ListChats)
	router.POST("/chats/start", authMiddleware, chatHandler.StartChat)
	router.GET("/chats/:chat_id/messages", authMiddleware, chatHandler.GetChatMessages)
	router.GET("/chats/:chat_id/messages/:message_id", authMiddleware, chatHandler.GetChatMessage)
	router.POST("/chats/:chat_id/messages", authMiddleware, chatHandler.PostChatMessage)

	router.POST("/chats/:chat_id/emergencies", authMiddleware, emergencyHandler.RaiseEmergency)
	router.GET("/emergencies/:emergency_id", authMiddleware, emergencyHandler.GetEmergency)
	router.POST("/emergencies/:emergency_id/resolve", authMiddleware, emergencyHandler.ResolveEmergency)
	router.POST("/chats/:chat_id/alert", authMiddleware, emergencyHandler.ActivateAlert)
	router.DELETE("/chats/:chat_id/alert", authMiddleware, emergencyHandler.DeactivateAlert)

	router.GET("/ws/chats/:chat_id", chatWS.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	defer dispatcher.Wait()

	log.Printf("careline-service listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
