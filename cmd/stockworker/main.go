package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/davidortiz/eshop-backend/internal/config"
	kafkax "github.com/davidortiz/eshop-backend/internal/kafka"
	"github.com/davidortiz/eshop-backend/internal/orders"
	"github.com/davidortiz/eshop-backend/internal/postgres"
	"github.com/davidortiz/eshop-backend/internal/redisx"
	"github.com/davidortiz/eshop-backend/internal/stock"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStockRejected, 1024)
	prod.Start(ctx)

	svc := &stock.Service{
		Stock:       &orders.StockRepo{DB: db},
		Orders:      &orders.Repo{DB: db},
		Redis:       rdb,
		Producer:    prod,
		ServiceName: cfg.ServiceName + "-stock",
	}

	group := getenv("STOCK_GROUP", "stock-worker")
	workers := atoi(os.Getenv("STOCK_WORKERS"), 8)
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderEvents, workers)

	go func() {
		log.Printf("stock consumer started: group=%s topic=%s workers=%d", group, orders.TopicOrderEvents, workers)
		if err := cons.Start(ctx, svc.HandleOrderPlaced); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	prod.Close()
	prod.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil || i < 1 {
		return def
	}
	return i
}
