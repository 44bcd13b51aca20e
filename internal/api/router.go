package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/olehkozhan/contactbook/internal/app"
	"github.com/olehkozhan/contactbook/internal/handlers"
	"github.com/olehkozhan/contactbook/internal/middleware"
	"github.com/olehkozhan/contactbook/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, auth *services.AuthService, contacts *services.ContactService, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if auth == nil {
		return nil, fmt.Errorf("auth service must be provided")
	}
	if contacts == nil {
		return nil, fmt.Errorf("contact service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	// Health endpoint (public)
	r.GET("/health", handlers.Health(db))

	authHandler := handlers.NewAuthHandler(auth, cfg.Avatars.TempDir)
	contactHandler := handlers.NewContactHandler(contacts)

	// Public auth routes
	users := r.Group("/api/users")
	{
		users.POST("/register", authHandler.Register)
		users.GET("/verify/:token", authHandler.Verify)
		users.POST("/verify", authHandler.ResendVerification)
		users.POST("/login", authHandler.Login)
	}

	// Protected routes
	requireAuth := middleware.Auth(auth)

	api := r.Group("/api")
	api.Use(requireAuth)

	// Authenticated account routes
	api.GET("/users/current", authHandler.Current)
	api.POST("/users/logout", authHandler.Logout)
	api.PATCH("/users/avatar", authHandler.UpdateAvatar)
	api.PATCH("/users/subscription", authHandler.UpdateSubscription)

	// Contacts
	contactsGroup := api.Group("/contacts")
	{
		contactsGroup.GET("", contactHandler.List)
		contactsGroup.GET("/:id", contactHandler.Get)
		contactsGroup.POST("", contactHandler.Create)
		contactsGroup.PUT("/:id", contactHandler.Update)
		contactsGroup.PATCH("/:id/favorite", contactHandler.SetFavorite)
		contactsGroup.DELETE("/:id", contactHandler.Delete)
	}

	// Processed avatars are served straight from disk
	if cfg.Avatars.Dir != "" {
		r.Static("/avatars", cfg.Avatars.Dir)
	}

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
