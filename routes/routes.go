package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mr-sankar/Sindhuur-backend-latest/handlers"
	"github.com/mr-sankar/Sindhuur-backend-latest/middleware"
)

func SetupRouter() *gin.Engine {
	router := gin.Default()

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Sindhuur API is running",
			"time":    time.Now().Unix(),
			"ws":      "WebSocket available at /ws",
		})
	})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:8080", "http://127.0.0.1:8080", "http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.RateLimitMiddleware())

	// Registration and session (no auth required)
	router.POST("/api/send-email-otp", handlers.SendEmailOTP)
	router.POST("/api/verify-email-otp", handlers.VerifyEmailOTP)
	router.POST("/api/create-profile", handlers.CreateProfile)
	router.POST("/api/login", handlers.Login)
	router.GET("/api/vapid-public-key", handlers.GetVapidPublicKey)

	// Password recovery, throttled harder than the global limit.
	forgotLimiter := middleware.NewIPRateLimiter(6, 15*time.Minute)
	auth := router.Group("/api/auth")
	auth.POST("/forgot-password", forgotLimiter.Middleware(), handlers.ForgotPassword)
	auth.POST("/verify-otp", handlers.VerifyResetOTP)
	auth.POST("/reset-password", handlers.ResetPassword)

	// Protected routes group
	protected := router.Group("/api")
	protected.Use(middleware.JWTAuthMiddleware())

	// Account
	protected.POST("/change-password", handlers.ChangePassword)

	// Profiles
	protected.GET("/profiles/:id", handlers.GetProfile)
	protected.PUT("/update-profile", handlers.UpdateProfile)
	protected.POST("/increment-profile-views", handlers.IncrementProfileViews)
	protected.PATCH("/profiles/:id/flag", handlers.FlagProfile)
	protected.PATCH("/profiles/:id/unflag", handlers.UnflagProfile)

	// Interest graph
	protected.POST("/send-interest", handlers.SendInterest)
	protected.GET("/interested-profiles", handlers.InterestedProfiles)
	protected.GET("/received-interests", handlers.ReceivedInterests)
	protected.DELETE("/remove-interest", handlers.RemoveInterest)
	protected.DELETE("/remove-all-interests", handlers.RemoveAllInterests)
	protected.POST("/pass-profile", handlers.PassProfile)
	protected.GET("/passed-profiles", handlers.PassedProfiles)

	// Payments and subscriptions
	payment := protected.Group("/payment")
	payment.POST("/initiate", handlers.InitiatePayment)
	payment.POST("/upgrade", handlers.UpgradePreview)
	payment.POST("/verify", handlers.VerifyPayment)
	payment.GET("/total-revenue", handlers.TotalRevenue)

	// Messaging
	protected.GET("/messages", handlers.GetMessages)
	protected.POST("/add-chat-contact", handlers.AddChatContact)
	protected.GET("/chat-contacts", handlers.GetChatContacts)

	// Events
	protected.GET("/events", handlers.ListEvents)
	protected.POST("/events", handlers.CreateEvent)
	protected.GET("/events/:id", handlers.GetEvent)
	protected.PUT("/events/:id", handlers.UpdateEvent)
	protected.DELETE("/events/:id", handlers.DeleteEvent)
	protected.POST("/events/:id/register", handlers.RegisterEvent)
	protected.GET("/registered-events", handlers.RegisteredEvents)
	protected.POST("/events/sweep", handlers.RunEventSweep)

	// Moderation
	protected.POST("/reports", handlers.CreateReport)
	protected.GET("/reports", handlers.ListReports)
	protected.PATCH("/reports/:id/status", handlers.UpdateReportStatus)

	// Push subscriptions
	protected.POST("/subscribe", handlers.SubscribePush)

	router.NoRoute(func(c *gin.Context) {
		if len(c.Request.URL.Path) >= 4 && c.Request.URL.Path[:4] == "/api" {
			c.JSON(404, gin.H{
				"error": "Endpoint not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.Next()
	})

	return router
}
