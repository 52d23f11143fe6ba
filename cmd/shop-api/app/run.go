package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/tiendamx/shop-api/configs"
	"github.com/tiendamx/shop-api/internal/adapter/cache"
	"github.com/tiendamx/shop-api/internal/adapter/http"
	"github.com/tiendamx/shop-api/internal/adapter/http/middleware"
	"github.com/tiendamx/shop-api/internal/adapter/kafka"
	"github.com/tiendamx/shop-api/internal/adapter/queue"
	"github.com/tiendamx/shop-api/internal/adapter/repo"
	"github.com/tiendamx/shop-api/internal/logging"
	"github.com/tiendamx/shop-api/internal/payment"
	"github.com/tiendamx/shop-api/internal/payment/mercadopago"
	"github.com/tiendamx/shop-api/internal/payment/stripe"
	"github.com/tiendamx/shop-api/internal/usecase"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logging.Init(cfg.App.Name, cfg.App.LogFile)

	// database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := db.PingContext(ctx); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("mysql ping: %w", err)
	}
	cancel()

	logging.Base().Info("shop-api: starting up")

	// redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	// rabbitmq
	conn, err := amqp091.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	// kafka
	syncProducer, err := kafka.NewSyncProducer(cfg.Kafka.Brokers)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}

	// payment providers
	orch := payment.NewOrchestrator(
		stripe.New(stripe.Config{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			APIBase:       cfg.Stripe.APIBase,
			SuccessURL:    cfg.Checkout.FrontendURL + "/checkout/success",
			CancelURL:     cfg.Checkout.FrontendURL + "/checkout/cancel",
			Currency:      cfg.Checkout.Currency,
		}),
		mercadopago.New(mercadopago.Config{
			AccessToken:   cfg.MercadoPago.AccessToken,
			WebhookSecret: cfg.MercadoPago.WebhookSecret,
			APIBase:       cfg.MercadoPago.APIBase,
			FrontendURL:   cfg.Checkout.FrontendURL,
			NotifyURL:     cfg.Checkout.BackendURL + "/api/payments/webhook/mercadopago",
			Currency:      cfg.Checkout.Currency,
		}),
	)

	// infra
	orderRepo := repo.NewMySQLOrderRepo(db)
	productRepo := repo.NewMySQLProductRepo(db)
	webhookLog := repo.NewMySQLWebhookLog(db)
	processed := cache.NewRedisProcessedPayments(rdb, cfg.Idempotency.TTL)
	statusCache := cache.NewRedisCache(rdb, cfg.Cache.TTL)
	statusEvents := kafka.NewStatusProducer(syncProducer, cfg.Kafka.TopicStatus)
	notifier, err := queue.NewRabbitProducer(ch)
	if err != nil {
		return nil, nil, err
	}

	// mail worker drains the confirmation queue in-process
	setupQueue(ch)

	// use cases
	createUC := usecase.NewCreateOrder(orderRepo, productRepo, orch, cfg.Shipping.FlatCents, cfg.Checkout.DefaultProvider)
	checkoutUC := usecase.NewCreateCheckout(orderRepo, orch)
	confirmUC := usecase.NewConfirmPayment(orderRepo, productRepo, processed, statusCache, statusEvents, notifier, webhookLog)
	adminUC := usecase.NewAdminOrders(orderRepo, statusCache, statusEvents)

	// handlers + routers + middleware
	oh := http.NewOrderHandler(createUC, adminUC)
	ph := http.NewPaymentHandler(orch, checkoutUC, confirmUC)
	th := http.NewTokenHandler(cfg)
	auth := middleware.NewAuthz(cfg)
	router := http.NewRouter(oh, ph, th, auth)

	cleanup := func() {
		_ = syncProducer.Close()
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
		_ = db.Close()
	}

	return &App{Router: router}, cleanup, nil
}

func setupQueue(ch *amqp091.Channel) {
	h := queue.NewConfirmationHandler(queue.NewLogMailer())

	router := queue.NewRouter(ch, queue.WithPrefetch(50))
	router.Register(queue.QueueConfirmed, queue.JSONHandler[usecase.OrderConfirmedMsg]{HandleFunc: h.HandleConfirmed})

	if err := router.Start(); err != nil {
		panic(err)
	}
}
