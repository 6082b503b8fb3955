package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"padaria-backend/internal/config"
	"padaria-backend/internal/database"
	"padaria-backend/internal/realtime"
	"padaria-backend/internal/server"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var publishers []realtime.Publisher

	// fasthttp cannot hand the connection to gorilla/websocket, so the panels
	// connect to a plain net/http listener of their own
	var wsServer *http.Server
	if cfg.WSPort != "" {
		hub := realtime.NewHub()
		go hub.Run(ctx)
		publishers = append(publishers, hub)

		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		wsServer = &http.Server{
			Addr:              ":" + cfg.WSPort,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Println("Realtime listening on port:", cfg.WSPort)
			if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[WARN] realtime listener stopped: %v", err)
			}
		}()
	}

	if cfg.RedisURL != "" {
		client, err := realtime.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Printf("[WARN] %v; continuing without redis events", err)
		} else {
			defer client.Close()
			publishers = append(publishers, realtime.NewRedisPublisher(client))
		}
	}

	app := server.New(cfg, realtime.Multi(publishers...))

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if wsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			wsServer.Shutdown(shutdownCtx)
		}
		app.ShutdownWithTimeout(10 * time.Second)
	}()

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
