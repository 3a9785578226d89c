// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"time"

	"praxis/internal/cache"
	"praxis/internal/config"
	"praxis/internal/database"
	"praxis/internal/middleware"
	"praxis/internal/notifications"
	"praxis/internal/repository"
	"praxis/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus

	userRepo  repository.UserRepository
	postRepo  repository.PostRepository
	likeRepo  repository.LikeRepository
	hideRepo  repository.HideRepository
	tagRepo   repository.TagRepository
	notifRepo repository.NotificationRepository

	notifier *notifications.Notifier

	feedService       *service.FeedService
	postService       *service.PostService
	commentService    *service.CommentService
	voteService       *service.VoteService
	moderationService *service.ModerationService
	tagService        *service.TagService
	userService       *service.UserService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	server := &Server{
		config:    cfg,
		db:        db,
		redis:     redisClient,
		userRepo:  repository.NewUserRepository(db),
		postRepo:  repository.NewPostRepository(db),
		likeRepo:  repository.NewLikeRepository(db),
		hideRepo:  repository.NewHideRepository(db),
		tagRepo:   repository.NewTagRepository(db),
		notifRepo: repository.NewNotificationRepository(db),
	}

	server.promMiddleware = fiberprometheus.New("praxis-api")

	server.userService = service.NewUserService(server.userRepo, server.notifRepo)
	server.notifier = notifications.NewNotifier(server.notifRepo, redisClient)

	isStaff := server.userService.IsStaff
	server.feedService = service.NewFeedService(server.postRepo, server.likeRepo, server.hideRepo, server.tagRepo, isStaff)
	server.postService = service.NewPostService(db, server.postRepo, server.tagRepo, server.userRepo, isStaff)
	server.commentService = service.NewCommentService(db, server.userRepo, isStaff, server.feedService.CanViewPost)
	server.voteService = service.NewVoteService(server.likeRepo, repository.NewCommentRepository(db), server.feedService.CanViewPost)
	server.moderationService = service.NewModerationService(db, server.notifier, isStaff)
	server.tagService = service.NewTagService(server.tagRepo, server.isAdminByUserID)

	middleware.InitMiddleware(cfg, server.userService.GetRole)

	return server, nil
}

// isAdminByUserID is the capability injected into services that need
// the stricter admin check.
func (s *Server) isAdminByUserID(ctx context.Context, userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	role, err := s.userService.GetRole(ctx, userID)
	if err != nil {
		return false, err
	}
	return role == "admin", nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Distributed tracing
	app.Use(middleware.TracingMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Public browse routes resolve the viewer when a token is present.
	publicPosts := api.Group("/posts", middleware.OptionalAuth)
	publicPosts.Get("/", s.GetFeed)
	publicPosts.Get("/search", middleware.RateLimit(
		s.redis, 10, time.Minute, "search"), s.SearchPosts)
	publicPosts.Get("/:id/comments", s.GetComments)
	publicPosts.Get("/:id", s.GetPost)

	tags := api.Group("/tags")
	tags.Get("/", s.GetTags)

	comments := api.Group("/comments", middleware.OptionalAuth)
	comments.Get("/:id", s.GetComment)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired)

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Get("/me/notifications", s.GetNotifications)
	users.Get("/me/notifications/unread-count", s.GetUnreadNotificationCount)
	users.Post("/me/notifications/read-all", s.MarkAllNotificationsRead)
	users.Post("/me/notifications/:id/read", s.MarkNotificationRead)
	users.Get("/:id/stats", s.GetUserStats)
	users.Get("/:id/posts", s.GetUserPosts)

	posts := protected.Group("/posts")
	posts.Post("/", middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "create_post"), s.CreatePost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Post("/:id/vote", s.VotePost)
	posts.Delete("/:id/vote", s.UnvotePost)
	posts.Post("/:id/hide", s.HidePost)
	posts.Delete("/:id/hide", s.UnhidePost)
	posts.Post("/:id/comments", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	protectedComments := protected.Group("/comments")
	protectedComments.Post("/:id/vote", s.VoteComment)
	protectedComments.Delete("/:id/vote", s.UnvoteComment)
	protectedComments.Post("/:id/report", middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "report_comment"), s.ReportComment)
	protectedComments.Put("/:id", s.UpdateComment)
	protectedComments.Delete("/:id", s.DeleteComment)

	// Moderation routes
	mod := protected.Group("/moderation", middleware.ModeratorRequired)
	mod.Get("/queue", s.GetModerationQueue)
	mod.Get("/reports", s.GetReports)
	mod.Post("/reports/:id/approve", s.ApproveReport)
	mod.Post("/reports/:id/dismiss", s.DismissReport)
	mod.Post("/posts/:id/approve", s.ApprovePost)
	mod.Post("/posts/:id/reject", s.RejectPost)
	mod.Post("/posts/:id/pin", s.PinPost)
	mod.Delete("/posts/:id/pin", s.UnpinPost)
	mod.Post("/posts/:id/hide", s.HidePostGlobally)
	mod.Delete("/posts/:id/hide", s.UnhidePostGlobally)
	mod.Post("/users/:id/restrict", s.RestrictUser)
	mod.Delete("/users/:id/restrict", s.UnrestrictUser)

	// Admin-only tag management
	adminTags := protected.Group("/tags")
	adminTags.Post("/", s.CreateTag)
	adminTags.Delete("/:id", s.DeleteTag)
}

// App builds and returns the configured Fiber application.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName: "praxis-api",
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start runs the HTTP server until it fails or is shut down.
func (s *Server) Start() error {
	return s.App().Listen(":" + s.config.Port)
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app == nil {
		return nil
	}
	return s.app.ShutdownWithContext(ctx)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   dbStatus,
		"database": dbStatus,
		"redis":    redisStatus,
	})
}
