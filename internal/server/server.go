package server

import (
	"fmt"
	"log"
	"net/http"
	"slices"

	"github.com/farellandr/eventshots/config"
	"github.com/farellandr/eventshots/internal/auth"
	"github.com/farellandr/eventshots/internal/handlers"
	"github.com/farellandr/eventshots/internal/middleware"
	"github.com/farellandr/eventshots/internal/objectstore"
	"github.com/farellandr/eventshots/internal/services"
	"github.com/farellandr/eventshots/internal/store"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	st, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}
	defer st.Close()

	objects, err := config.InitObjectStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize object store: %v", err)
	}

	r := NewRouter(newServices(st, objects, cfg), cfg)

	log.Printf("eventshots listening on :%s (records=%s, objects=%s)", cfg.Port, cfg.RecordStore, cfg.ObjectStore)
	return r.Run(":" + cfg.Port)
}

func newServices(st store.Store, objects objectstore.ObjectStore, cfg *config.Config) *services.Services {
	policy := services.DefaultUploadPolicy
	policy.MaxSizeBytes = cfg.UploadMaxBytes()

	return services.New(
		st,
		objects,
		auth.NewProvider(st, cfg.JWTSecret, cfg.JWTTTL),
		services.WithUploadPolicy(policy),
		services.WithWorkers(cfg.IngestWorkers),
		services.WithMaxBatchItems(cfg.BatchMaxItems),
	)
}

// NewRouter wires every route onto a fresh engine.
func NewRouter(svc *services.Services, cfg *config.Config) *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = cfg.UploadMaxBytes()

	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(middleware.ServicesMiddleware(svc))

	setupRoutes(r)

	if cfg.ObjectStore == "local" {
		r.Static("/media", cfg.StorageDir)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

func setupRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", handlers.Register)
		authGroup.POST("/login", handlers.Login)
		authGroup.POST("/logout", handlers.Logout)
		authGroup.GET("/me", middleware.OptionalAuthMiddleware(), handlers.GetProfile)
	}

	events := r.Group("/events")
	{
		events.GET("", handlers.ListEvents)
		events.GET("/code/:code", handlers.GetEventByCode)
		events.GET("/visible", middleware.JWTAuthMiddleware(), handlers.ListVisibleEvents)
		events.POST("", middleware.JWTAuthMiddleware(), handlers.CreateEvent)
	}

	photos := r.Group("/photos")
	{
		photos.GET("", handlers.ListPhotos)
		photos.POST("", handlers.CreatePhoto)
		photos.POST("/batch", handlers.CreatePhotoBatch)
		photos.DELETE("", handlers.DeletePhoto)
	}
}
