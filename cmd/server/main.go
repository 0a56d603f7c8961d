package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"order-fulfillment-service/internal/config"
	"order-fulfillment-service/internal/controller"
	"order-fulfillment-service/internal/middleware"
	"order-fulfillment-service/internal/rabbit"
	"order-fulfillment-service/internal/repository"
	"order-fulfillment-service/internal/service"
)

func main() {
	cfg := config.Load()

	// MongoDB connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal(err)
	}
	db := client.Database(cfg.MongoDBName)

	// RabbitMQ connection
	conn, err := amqp091.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("error connecting to RabbitMQ: %v", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("error opening RabbitMQ channel: %v", err)
	}

	publisher, err := rabbit.NewPublisher(ch)
	if err != nil {
		log.Fatalf("error declaring exchanges: %v", err)
	}

	// Repositories and services
	orderRepo := repository.NewMongoOrderRepository(db)
	ledger := repository.NewMongoInventoryLedger(db)
	productRepo := repository.NewMongoProductRepository(db)

	orderService := service.NewOrderService(
		orderRepo,
		ledger,
		productRepo,
		publisher,
		service.WithPricing(cfg.TaxRate, cfg.DefaultShipping),
	)
	authService := service.NewAuthService(cfg.AuthURL)

	// Router
	r := gin.Default()
	r.Use(cors.Default())

	ctrl := controller.NewOrderController(orderService)
	ctrl.RegisterRoutes(r, middleware.AuthMiddleware(authService))

	rabbit.SetupConsumers(ch, orderService)

	log.Printf("Order Fulfillment Service running on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
