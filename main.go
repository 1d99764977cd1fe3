package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"adoption-service/internal/db"
	"adoption-service/internal/handlers"
	"adoption-service/internal/identity"
	"adoption-service/internal/middleware"
	"adoption-service/internal/observability"
	"adoption-service/internal/rabbitmq"
	"adoption-service/internal/repositories"
	"adoption-service/internal/storage"
	"adoption-service/internal/telemetry"
	"adoption-service/internal/ws"
)

const serviceName = "adoption-service"

func main() {
	ctx := context.Background()

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing := telemetry.InitTracing(ctx, serviceName, os.Getenv("OTLP_ENDPOINT"))
	defer shutdownTracing(ctx)

	amqpURL := os.Getenv("AMQP_URL")
	exchange := getEnv("AMQP_EXCHANGE", "adoption.events")
	if eventPublisher, err := observability.NewAMQPPublisher(amqpURL, exchange); err != nil {
		log.Printf("event publishing disabled: %v", err)
	} else {
		observability.SetPublisher(eventPublisher)
		defer eventPublisher.Close()
	}

	auditPublisher := rabbitmq.NewPublisher(amqpURL, getEnv("AMQP_AUDIT_EXCHANGE", "audit.events"))
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))
	emitter := telemetry.NewAuditEmitter(auditPublisher, "audit_log.adoption", serviceName, getEnv("ENVIRONMENT", "dev"))

	identityClient := identity.NewClient(getEnv("IDENTITY_BASE_URL", "http://localhost:8081"))

	var photoStore storage.PhotoStore
	if s3Store, err := storage.NewS3StoreFromEnv(ctx); err != nil {
		log.Printf("photo uploads disabled: %v", err)
	} else {
		photoStore = s3Store
	}

	petRepo := repositories.NewPetRepo(database)
	requestRepo := repositories.NewRequestRepo(database)
	convRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	hub := ws.NewHub()

	petHandler := handlers.NewPetHandler(petRepo)
	requestHandler := handlers.NewRequestHandler(requestRepo, petRepo, identityClient, hub, emitter)
	convHandler := handlers.NewConversationHandler(convRepo, messageRepo, requestRepo, identityClient, hub, emitter)

	convWS := ws.NewConversationWebSocketHandler(hub, convRepo, identityClient)
	requestWS := ws.NewRequestWebSocketHandler(hub, requestRepo, petRepo, identityClient)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	authMiddleware := middleware.AuthMiddleware(identityClient)

	// public catalog
	router.GET("/pets", petHandler.ListPets)
	router.GET("/pets/:pet_id", petHandler.GetPet)

	// listings
	router.POST("/pets", authMiddleware, petHandler.CreatePet)
	router.GET("/my/pets", authMiddleware, petHandler.ListMyPets)
	router.PATCH("/pets/:pet_id", authMiddleware, petHandler.UpdatePet)
	router.DELETE("/pets/:pet_id", authMiddleware, petHandler.DeletePet)

	// adoption requests
	router.POST("/pets/:pet_id/requests", authMiddleware, requestHandler.SubmitRequest)
	router.GET("/requests", authMiddleware, requestHandler.ListRequests)
	router.POST("/requests/:request_id/accept", authMiddleware, requestHandler.AcceptRequest)
	router.POST("/requests/:request_id/reject", authMiddleware, requestHandler.RejectRequest)
	router.POST("/requests/:request_id/confirm", authMiddleware, requestHandler.ConfirmDelivery)

	// conversations
	router.GET("/requests/:request_id/conversation", authMiddleware, convHandler.GetRequestConversation)
	router.GET("/conversations", authMiddleware, convHandler.ListConversations)
	router.GET("/conversations/:conversation_id/messages", authMiddleware, convHandler.GetMessages)
	router.POST("/conversations/:conversation_id/messages", authMiddleware, convHandler.PostMessage)

	// photo uploads
	if photoStore != nil {
		uploadHandler := handlers.NewUploadHandler(photoStore)
		router.POST("/uploads", authMiddleware, uploadHandler.Upload)
	}

	// realtime subscriptions
	router.GET("/ws/conversations/:conversation_id", convWS.Handle)
	router.GET("/ws/requests/:request_id", requestWS.Handle)

	handlers.RegisterDebugRoutes(router, emitter, getEnv("DEBUG_ROUTES", "false") == "true")

	port := getEnv("PORT", "8080")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
