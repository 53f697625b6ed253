package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"guestlist/internal/attendance"
	"guestlist/internal/auth"
	"guestlist/internal/config"
	"guestlist/internal/httpmiddleware"
	"guestlist/internal/metrics"
	"guestlist/internal/queue"
	"guestlist/internal/reconcile"
	"guestlist/internal/store"
)

func main() {
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	var db *store.DB
	var repo attendance.Store
	if cfg.StoreBackend == "memory" {
		repo = attendance.NewMemoryRepository()
		log.Println("using in-memory store")
	} else {
		var err error
		db, err = store.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Printf("warning: db not reachable: %v", err)
		}
		if db != nil {
			repo = attendance.NewRepository(db.Client)
		} else {
			repo = attendance.NewMemoryRepository()
			log.Println("falling back to in-memory store")
		}
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "guestlist:checkins")
	}

	m := metrics.New()
	cache := attendance.NewSummaryCache(redisClient.Client, cfg.SummaryCacheTTL)
	svc := attendance.NewService(repo, cache, m)

	r := newRouter(cfg, svc, m, q, func(ctx context.Context) (bool, bool) {
		return db != nil || cfg.StoreBackend == "memory", redisClient.Healthy(ctx)
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// newRouter wires middleware and routes. healthFn reports db and redis
// reachability for /healthz.
func newRouter(cfg config.App, svc *attendance.Service, m *metrics.Metrics, q queue.Queue, healthFn func(ctx context.Context) (bool, bool)) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		dbHealthy, redisHealthy := healthFn(c.Request.Context())
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/devices/register", func(c *gin.Context) {
		var req struct {
			DeviceID string `json:"device_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := svc.RegisterDevice(c.Request.Context(), req.DeviceID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tokens, err := auth.Issue(req.DeviceID, "device", cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}

		_ = svc.SaveRefreshToken(c.Request.Context(), req.DeviceID, tokens.RefreshToken, tokens.RefreshExp)

		c.JSON(http.StatusCreated, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	authGroup := r.Group("/v1", auth.DeviceAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	authGroup.POST("/events", func(c *gin.Context) {
		var req struct {
			Name string `json:"name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		evt, err := svc.CreateEvent(c.Request.Context(), req.Name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, evt)
	})

	authGroup.POST("/events/:id/guests", func(c *gin.Context) {
		var req struct {
			Guests []struct {
				Name    string `json:"name" binding:"required"`
				Contact string `json:"contact"`
			} `json:"guests" binding:"required,dive"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		guests := make([]attendance.Guest, len(req.Guests))
		for i, g := range req.Guests {
			guests[i] = attendance.Guest{Name: g.Name, Contact: g.Contact}
		}
		added, err := svc.AddGuests(c.Request.Context(), c.Param("id"), guests)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"added": added})
	})

	authGroup.POST("/checkins", func(c *gin.Context) {
		var req struct {
			EventID    string    `json:"event_id" binding:"required"`
			Name       string    `json:"name" binding:"required"`
			Contact    string    `json:"contact"`
			PartySize  int       `json:"party_size"`
			OccurredAt time.Time `json:"occurred_at"`
			PhotoRef   string    `json:"photo_ref"`
			Invited    *bool     `json:"invited"`
			Note       string    `json:"note"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		saved, err := svc.CheckIn(c.Request.Context(), attendance.Checkin{
			EventID:    req.EventID,
			Name:       req.Name,
			Contact:    req.Contact,
			PartySize:  req.PartySize,
			OccurredAt: req.OccurredAt,
			PhotoRef:   req.PhotoRef,
			Invited:    req.Invited,
			Note:       req.Note,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		if err := q.Publish(c.Request.Context(), queue.Message{Type: "checkin", Body: []byte(saved.EventID)}); err != nil {
			log.Printf("queue publish failed: %v", err)
		}

		c.JSON(http.StatusAccepted, gin.H{"checkin_id": saved.ID, "occurred_at": saved.OccurredAt})
	})

	authGroup.GET("/attendance", func(c *gin.Context) {
		eventID := c.Query("eventId")
		if eventID == "" {
			m.IncrementReports("bad_request")
			c.JSON(http.StatusBadRequest, gin.H{"error": "eventId required"})
			return
		}

		query := attendance.Query{
			EventID: eventID,
			Status:  reconcile.ParseStatusFilter(c.Query("status")),
			Source:  reconcile.ParseSourceFilter(c.Query("source")),
			Search:  c.Query("search"),
			Sort:    reconcile.ParseSortOrder(c.Query("sort")),
		}
		if v := c.Query("page"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				query.Page = parsed
			}
		}
		if v := c.Query("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				query.Limit = parsed
			}
		}
		if v := c.Query("summaryOnly"); v != "" {
			if parsed, err := strconv.ParseBool(v); err == nil {
				query.SummaryOnly = parsed
			}
		}

		report, err := svc.Report(c.Request.Context(), query)
		if err != nil {
			if errors.Is(err, attendance.ErrEventNotFound) {
				m.IncrementReports("not_found")
			} else {
				m.IncrementReports("error")
			}
			respondError(c, err)
			return
		}
		m.IncrementReports("ok")
		c.JSON(http.StatusOK, report)
	})

	return r
}

// respondError maps service errors to HTTP statuses without leaking
// internals on unexpected failures.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, attendance.ErrEventNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
	case errors.Is(err, attendance.ErrEventIDRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "event id required"})
	default:
		log.Printf("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
