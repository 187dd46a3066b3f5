package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/config"
	"rollcall/internal/export"
	"rollcall/internal/httpmiddleware"
	"rollcall/internal/metrics"
	"rollcall/internal/migrations"
	"rollcall/internal/qr"
	"rollcall/internal/queue"
	"rollcall/internal/session"
	"rollcall/internal/stats"
	"rollcall/internal/store"
	"rollcall/internal/user"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect failed: %w", err)
	}
	defer db.Close()

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	subjects := store.NewSubjectIndex(redisClient.Client, "")

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "rollcall:marks")
	}

	userRepo := user.NewRepository(db.Client)
	users := user.NewService(userRepo)

	sessionRepo := session.NewRepository(db.Client)
	registry := session.NewRegistry(sessionRepo, cfg.SessionTTL)

	attendanceRepo := attendance.NewRepository(db.Client)
	ledger := attendance.NewLedger(registry, attendanceRepo)

	agg := stats.NewAggregator(registry, ledger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/auth/register", func(c *gin.Context) {
		var req struct {
			Name     string `json:"name" binding:"required"`
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
			Role     string `json:"role" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		role, err := auth.ParseRole(req.Role)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		u, err := users.Register(c.Request.Context(), req.Name, req.Email, req.Password, role)
		if err != nil {
			if errors.Is(err, user.ErrEmailTaken) {
				c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondWithTokens(c, http.StatusCreated, cfg, u)
	})

	r.POST("/v1/auth/login", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		u, err := users.Authenticate(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, user.ErrInvalidCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "try again"})
			return
		}
		respondWithTokens(c, http.StatusOK, cfg, u)
	})

	admin := r.Group("/v1", auth.RequireRole(auth.RoleAdmin, cfg.JWTSigningKey, cfg.JWTIssuer))

	admin.POST("/sessions", func(c *gin.Context) {
		var req struct {
			Subject string `json:"subject" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		claims := auth.ClaimsFrom(c)
		s, err := registry.Create(c.Request.Context(), req.Subject, claims.Subject)
		if err != nil {
			if errors.Is(err, session.ErrEmptySubject) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "subject required"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "try again"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"id":         s.ID,
			"subject":    s.Subject,
			"expires_at": s.ExpiresAt,
		})
	})

	admin.GET("/sessions", func(c *gin.Context) {
		list, err := registry.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "try again"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessions": list})
	})

	admin.GET("/sessions/:id/qr", func(c *gin.Context) {
		s, err := registry.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "try again"})
			return
		}

		png, err := qr.EncodePNG(s.ID, 0)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "qr encode failed"})
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	})

	admin.GET("/attendance", func(c *gin.Context) {
		f, err := filterFromQuery(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		records, err := ledger.List(c.Request.Context(), f)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "try again"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": records})
	})

	admin.GET("/attendance/export", func(c *gin.Context) {
		records, err := ledger.List(c.Request.Context(), attendance.Filter{})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "try again"})
			return
		}

		filename := "attendance_" + time.Now().Format("2006-01-02") + ".csv"
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Header("Content-Type", "text/csv")
		c.Status(http.StatusOK)
		if err := export.WriteCSV(c.Writer, records); err != nil {
			log.Printf("csv export failed: %v", err)
		}
	})

	admin.GET("/stats", func(c *gin.Context) {
		overview, err := agg.Overview(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "try again"})
			return
		}
		c.JSON(http.StatusOK, overview)
	})

	admin.GET("/subjects", func(c *gin.Context) {
		ctx := c.Request.Context()
		known, err := subjects.Members(ctx)
		if err != nil || len(known) == 0 {
			// Cold or unavailable index: fall back to the ledger.
			known, err = attendanceRepo.DistinctSubjects(ctx)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "try again"})
				return
			}
			if rebuildErr := subjects.Rebuild(ctx, known); rebuildErr != nil {
				log.Printf("subject index rebuild failed: %v", rebuildErr)
			}
		}
		c.JSON(http.StatusOK, gin.H{"subjects": known})
	})

	student := r.Group("/v1", auth.RequireRole(auth.RoleStudent, cfg.JWTSigningKey, cfg.JWTIssuer))

	student.POST("/attendance/scan", func(c *gin.Context) {
		var req struct {
			Code string `json:"code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		claims := auth.ClaimsFrom(c)
		rec, err := ledger.Mark(c.Request.Context(), strings.TrimSpace(req.Code), claims.Subject, claims.Name)
		if err != nil {
			switch {
			case errors.Is(err, attendance.ErrInvalidSession):
				metrics.MarkOutcomes.WithLabelValues(metrics.OutcomeInvalid).Inc()
				c.JSON(http.StatusNotFound, gin.H{"error": "invalid code, this session does not exist"})
			case errors.Is(err, attendance.ErrSessionExpired):
				metrics.MarkOutcomes.WithLabelValues(metrics.OutcomeExpired).Inc()
				c.JSON(http.StatusGone, gin.H{"error": "code has expired, ask for a new one"})
			case errors.Is(err, attendance.ErrAlreadyMarked):
				metrics.MarkOutcomes.WithLabelValues(metrics.OutcomeDuplicate).Inc()
				c.JSON(http.StatusConflict, gin.H{"error": "attendance already marked for this session"})
			default:
				metrics.MarkOutcomes.WithLabelValues(metrics.OutcomeError).Inc()
				c.JSON(http.StatusInternalServerError, gin.H{"error": "try again"})
			}
			return
		}
		metrics.MarkOutcomes.WithLabelValues(metrics.OutcomeAccepted).Inc()

		if err := q.Publish(c.Request.Context(), queue.Message{Type: "mark", Body: []byte(rec.Subject)}); err != nil {
			log.Printf("queue publish failed: %v", err)
		}

		c.JSON(http.StatusCreated, gin.H{
			"subject":   rec.Subject,
			"marked_at": rec.MarkedAt,
			"status":    rec.Status,
		})
	})

	student.GET("/attendance/me", func(c *gin.Context) {
		claims := auth.ClaimsFrom(c)
		ctx := c.Request.Context()

		records, err := ledger.ListForStudent(ctx, claims.Subject)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "try again"})
			return
		}
		percentage, err := agg.StudentPercentage(ctx, claims.Subject)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "try again"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"records":    records,
			"present":    len(records),
			"percentage": percentage,
		})
	})

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

func runMigrations(db *store.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db.Client, ".")
}

func respondWithTokens(c *gin.Context, status int, cfg config.App, u user.User) {
	tokens, err := auth.Issue(u.ID, u.Name, u.Role, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(status, gin.H{
		"user": gin.H{
			"id":    u.ID,
			"name":  u.Name,
			"email": u.Email,
			"role":  u.Role,
		},
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

// filterFromQuery reads the optional date (YYYY-MM-DD, local) and subject
// query params.
func filterFromQuery(c *gin.Context) (attendance.Filter, error) {
	var f attendance.Filter
	if v := c.Query("date"); v != "" {
		day, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return attendance.Filter{}, errors.New("date must be YYYY-MM-DD")
		}
		f.Date = day
	}
	f.Subject = c.Query("subject")
	return f, nil
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

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
