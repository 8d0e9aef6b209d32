package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"social-chat-service/internal/db"
	"social-chat-service/internal/handlers"
	"social-chat-service/internal/middleware"
	"social-chat-service/internal/observability"
	"social-chat-service/internal/rabbitmq"
	"social-chat-service/internal/repositories"
	"social-chat-service/internal/telemetry"
	"social-chat-service/internal/ws"
)

const serviceName = "social-chat-service"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(
		getEnv("AMQP_URL", ""),
		getEnv("AMQP_EXCHANGE", "social_chat.events"),
	)
	defer publisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))
	observability.SetPublisher(publisher)

	audit := telemetry.NewAuditEmitter(
		publisher,
		getEnv("AUDIT_ROUTING_KEY", "audit.social_chat"),
		serviceName,
		getEnv("ENVIRONMENT", "dev"),
	)

	userRepo := repositories.NewUserRepo(database)
	friendRepo := repositories.NewFriendshipRepo(database)
	roomRepo := repositories.NewChatroomRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	hub := ws.NewHub()

	friendshipHandler := handlers.NewFriendshipHandler(friendRepo, userRepo, audit)
	chatroomHandler := handlers.NewChatroomHandler(roomRepo, userRepo, audit)
	messageHandler := handlers.NewMessageHandler(roomRepo, messageRepo, userRepo, hub, audit)
	sessionHandler := ws.NewSessionHandler(hub, roomRepo, messageRepo, userRepo)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	identity := middleware.Identity(userRepo)

	router.POST("/friends/requests", identity, friendshipHandler.RequestFriend)
	router.GET("/friends/requests", identity, friendshipHandler.ListRequests)
	router.POST("/friends/requests/:user_id/accept", identity, friendshipHandler.AcceptRequest)
	router.POST("/friends/requests/:user_id/reject", identity, friendshipHandler.RejectRequest)
	router.GET("/friends", identity, friendshipHandler.ListFriends)
	router.DELETE("/friends/:user_id", identity, friendshipHandler.RemoveFriend)

	router.POST("/chatrooms/one-to-one", identity, chatroomHandler.CreateOneToOne)
	router.POST("/chatrooms/group", identity, chatroomHandler.CreateGroup)
	router.GET("/chatrooms", identity, chatroomHandler.ListRooms)
	router.GET("/chatrooms/find-one-to-one", identity, chatroomHandler.FindOneToOne)
	router.GET("/chatrooms/:room_id", identity, chatroomHandler.GetRoomInfo)
	router.GET("/chatrooms/:room_id/members", identity, chatroomHandler.ListMembers)
	router.POST("/chatrooms/:room_id/join", identity, chatroomHandler.Join)
	router.POST("/chatrooms/:room_id/quit", identity, chatroomHandler.Quit)
	router.GET("/chatrooms/:room_id/messages", identity, messageHandler.GetHistory)
	router.POST("/chatrooms/:room_id/messages", identity, messageHandler.PostMessage)

	router.GET("/ws", identity, sessionHandler.Handle)

	handlers.RegisterDebugRoutes(router, audit, getEnv("DEBUG_ROUTES", "") == "1")

	port := getEnv("PORT", "8083")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
