package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/davidortiz/eshop-backend/internal/auth"
	"github.com/davidortiz/eshop-backend/internal/catalog"
	"github.com/davidortiz/eshop-backend/internal/config"
	"github.com/davidortiz/eshop-backend/internal/httpx"
	kafkax "github.com/davidortiz/eshop-backend/internal/kafka"
	"github.com/davidortiz/eshop-backend/internal/orders"
	"github.com/davidortiz/eshop-backend/internal/postgres"
	"github.com/davidortiz/eshop-backend/internal/redisx"
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
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderEvents, 1024)
	prod.Start(ctx)

	gate := auth.NewGate(cfg.JWTSecret, cfg.TokenTTL, auth.DefaultExemptions(cfg.APIBasePath))

	oh := &httpx.OrdersHandler{
		Store:    &orders.Repo{DB: db},
		Producer: prod,
		Redis:    rdb,
		Service:  cfg.ServiceName,
	}
	ph := &httpx.ProductsHandler{Store: &catalog.ProductRepo{DB: db}}
	ch := &httpx.CategoriesHandler{Store: &catalog.CategoryRepo{DB: db}}
	uh := &httpx.UsersHandler{Store: &catalog.UserRepo{DB: db}, Gate: gate}

	router := httpx.NewRouter()
	router.Route(cfg.APIBasePath, func(api chi.Router) {
		api.Use(gate.Middleware)
		oh.Register(api)
		ph.Register(api)
		ch.Register(api)
		uh.Register(api)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()
	prod.WaitClosed()
}
