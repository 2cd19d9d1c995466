package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/DynastyTech/fusion-aura-sub001/internal/cart"
	"github.com/DynastyTech/fusion-aura-sub001/internal/guestcart"
	"github.com/DynastyTech/fusion-aura-sub001/internal/httpapi"
	"github.com/DynastyTech/fusion-aura-sub001/internal/poller"
	"github.com/DynastyTech/fusion-aura-sub001/internal/remote"
	sess "github.com/DynastyTech/fusion-aura-sub001/internal/session"
	sig "github.com/DynastyTech/fusion-aura-sub001/internal/signal"
	"github.com/DynastyTech/fusion-aura-sub001/internal/syncer"
)

type Config struct {
	HTTPPort        string
	CartAPIBaseURL  string
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    []string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		CartAPIBaseURL:  getEnv("CART_API_BASE_URL", "http://localhost:3000"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Guest cart storage. An unreachable Redis degrades to in-memory rather
	// than refusing to boot; guests get an empty, non-persistent cart.
	var kv guestcart.KV
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable, guest cart is in-memory only: %v", err)
		kv = guestcart.NewMemoryKV()
	} else {
		log.Printf("connected to redis at %s", cfg.RedisAddr)
		kv = guestcart.NewRedisKV(redisClient)
	}

	sessionStore := sess.NewStore()
	bus := sig.NewBus()
	guestStore := guestcart.NewStore(kv)
	apiClient := remote.NewClient(cfg.CartAPIBaseURL, sessionStore, bus)
	cartSyncer := syncer.New(apiClient, guestStore, sessionStore, bus)
	mutator := cart.NewMutator(sessionStore, apiClient, guestStore, bus)

	cartHandler := httpapi.NewCartHandler(cartSyncer, mutator, guestStore, sessionStore, bus)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httpapi.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Route("/api/v1", cartHandler.Routes)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "storefront-edge"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	checkoutPoller := poller.New(sessionStore, guestStore, bus, cfg.KafkaBrokers...)
	defer checkoutPoller.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("storefront edge listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		cartSyncer.Run(gctx)
		return nil
	})
	g.Go(func() error {
		checkoutPoller.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down storefront edge...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("storefront edge error: %v", err)
	}
	log.Println("storefront edge stopped")
}
