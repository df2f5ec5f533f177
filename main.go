package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/mr-sankar/Sindhuur-backend-latest/database"
	"github.com/mr-sankar/Sindhuur-backend-latest/gateway"
	"github.com/mr-sankar/Sindhuur-backend-latest/handlers"
	"github.com/mr-sankar/Sindhuur-backend-latest/mailer"
	"github.com/mr-sankar/Sindhuur-backend-latest/otp"
	"github.com/mr-sankar/Sindhuur-backend-latest/routes"
	"github.com/mr-sankar/Sindhuur-backend-latest/scheduler"
	"github.com/mr-sankar/Sindhuur-backend-latest/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, relying on process environment")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" || os.Getenv("MONGODB_URI") == "" {
		log.Fatal("JWT_SECRET and MONGODB_URI must be set")
	}

	var dbErr error
	for i := 1; i <= 3; i++ {
		if dbErr = database.ConnectMongo(); dbErr == nil {
			break
		}
		log.Warnf("MongoDB connection attempt %d failed: %v", i, dbErr)
		time.Sleep(2 * time.Second)
	}
	if dbErr != nil {
		log.Fatalf("failed to connect to MongoDB: %v", dbErr)
	}

	if err := database.EnsureIndexes(); err != nil {
		log.Fatalf("failed to ensure indexes: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Collaborators behind the handler setters. The nil checks matter: a
	// typed nil wrapped in an interface would not compare equal to nil in
	// the handlers.
	handlers.SetOTPService(otp.NewService(handlers.UserCredentialStore{}, []byte(jwtSecret)))
	if m := mailer.NewFromEnv(); m != nil {
		handlers.SetMailer(m)
	} else {
		log.Warn("SMTP not configured, email delivery disabled")
	}
	if g := gateway.NewRazorpayFromEnv(); g != nil {
		handlers.SetGateway(g)
	} else {
		log.Warn("Razorpay keys not configured, payments disabled")
	}

	router := routes.SetupRouter()

	hub := websocket.NewHub(websocket.NewMongoStore())
	go hub.Run()
	handlers.SetHub(hub)
	router.GET("/ws", func(c *gin.Context) {
		websocket.Handler(hub)(c.Writer, c.Request)
	})

	eventCron := scheduler.Start()
	defer eventCron.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("server listening on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("forced shutdown: %v", err)
	}

	if err := database.DisconnectMongo(); err != nil {
		log.Errorf("mongo disconnect: %v", err)
	}

	log.Info("server stopped")
}
