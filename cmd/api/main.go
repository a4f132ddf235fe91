package main

import (
	"log"
	"os"

	"github.com/concordapp/concord-backend/internal/config"
	"github.com/concordapp/concord-backend/internal/db"
	"github.com/concordapp/concord-backend/internal/model"
	"github.com/concordapp/concord-backend/internal/server"
	"github.com/joho/godotenv"
)

// Set via -ldflags at build time.
var (
	gitSHA    = "dev"
	buildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Printf("config load error: %v", err)
		cfg = &config.Config{Port: os.Getenv("PORT")}
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	srv := server.New(nil, cfg, gitSHA, buildTime)
	addr := ":" + cfg.Port

	errCh := make(chan error, 1)

	go func() {
		log.Printf("starting server on %s", addr)
		errCh <- srv.Start(addr)
	}()

	go func() {
		if err != nil {
			log.Printf("skipping db attach: config incomplete")
			return
		}
		conn, err := db.Connect(cfg)
		if err != nil {
			log.Printf("db connect error: %v", err)
			return
		}
		srv.SetDB(conn)
		if err := conn.AutoMigrate(
			&model.Server{},
			&model.Channel{},
			&model.Member{},
			&model.Conversation{},
			&model.Message{},
			&model.DirectMessage{},
		); err != nil {
			log.Printf("auto migrate error: %v", err)
		}
	}()

	if err := <-errCh; err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
