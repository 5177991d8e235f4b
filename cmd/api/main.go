package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/mdhub/note-service/internal/config"
	"github.com/mdhub/note-service/internal/handler"
	"github.com/mdhub/note-service/internal/jobs"
	"github.com/mdhub/note-service/internal/middleware"
	"github.com/mdhub/note-service/internal/repository"
	"github.com/mdhub/note-service/internal/service"
	"github.com/mdhub/note-service/internal/utils/email"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	mailer := email.NewSender(cfg, logger)
	svc := service.NewService(repo, mailer, logger, cfg)
	h := handler.NewHandler(svc, logger, cfg)

	// Schedule delete token rotation
	c := cron.New()
	if err := jobs.ScheduleTokenRotation(c, svc, logger); err != nil {
		logger.Fatalf("Failed to schedule token rotation: %v", err)
	}
	c.Start()
	defer c.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/settings/account", h.GetAccount).Methods("GET")
	authRouter.HandleFunc("/settings/account", h.UpdateAccount).Methods("POST")
	authRouter.HandleFunc("/settings/account/delete-token", h.RequestDeleteToken).Methods("POST")
	authRouter.HandleFunc("/settings/account/delete", h.DeleteAccount).Methods("GET")
	authRouter.HandleFunc("/settings/account/delete/{token}", h.DeleteAccount).Methods("GET")
	authRouter.HandleFunc("/settings/account/export", h.ExportAccount).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// exports stream the archive, so the write timeout is generous
		WriteTimeout: 60 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
