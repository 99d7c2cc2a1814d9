package main

import (
	"context"
	"log"

	"docchat/internal/api"
	"docchat/internal/config"
	"docchat/internal/objectstore"
	"docchat/internal/service/completion"
	"docchat/internal/service/sessions"
	"docchat/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	log.Printf("database driver: %s\n", cfg.DBDriver)
	db, err := storage.Open(cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Create the chat_sessions table when absent.
	if err := storage.Migrate(db, cfg.DBDriver); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	sessionStore, err := sessions.NewService(db)
	if err != nil {
		log.Fatalf("init session service: %v", err)
	}
	objects, err := objectstore.NewClient(cfg)
	if err != nil {
		log.Fatalf("init object storage: %v", err)
	}
	completer, err := completion.NewService(context.Background(), cfg)
	if err != nil {
		log.Fatalf("init completion service: %v", err)
	}
	handlers := api.NewHandler(sessionStore, objects, completer)

	router := gin.Default()
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = []string{cfg.FrontendURL}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsCfg.AllowCredentials = true
	router.Use(cors.New(corsCfg))
	handlers.RegisterRoutes(router)

	if err := router.Run(cfg.Addr()); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
