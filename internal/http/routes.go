package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/sujalbistaa/chronicles/internal/ws"
)

const limiterSweepInterval = 10 * time.Minute

// Options carries the router settings that are not handler dependencies.
type Options struct {
	CORSOrigin string
	AdminToken string
	RateLimit  rate.Limit
	RateBurst  int
	Hub        *ws.Hub
	Gatherer   prometheus.Gatherer
}

// SetupRoutes configures all application routes and middleware. The limiter
// cleanup goroutine stops when ctx is cancelled.
func SetupRoutes(ctx context.Context, router *gin.Engine, env *Env, opts Options) {

	// --- Middleware ---

	router.Use(env.Recovery())
	router.Use(RequestLogger())
	router.Use(SecurityHeadersMiddleware())
	router.Use(env.Metrics.Middleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{opts.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Admin-Token"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: opts.CORSOrigin != "*",
	}))

	// --- Rate Limiter Setup ---

	limiter := NewIPRateLimiter(opts.RateLimit, opts.RateBurst)
	go limiter.RunCleanup(ctx, limiterSweepInterval)
	limited := env.RateLimitMiddleware(limiter)

	// --- API Routes ---

	api := router.Group("/api")
	{
		blogs := api.Group("/blogs")
		blogs.GET("", env.GetBlogs)
		blogs.POST("", limited, env.CreateBlog)
		blogs.GET("/:id", env.GetBlog)
		blogs.PUT("/:id", env.EditBlog)
		blogs.DELETE("/:id", env.DeleteBlog)
		blogs.POST("/:id/like", env.LikeBlog)
		blogs.POST("/:id/dislike", env.DislikeBlog)

		auth := api.Group("/auth")
		auth.POST("/signup", limited, env.Signup)
		auth.POST("/login", limited, env.Login)

		stats := api.Group("/analytics")
		stats.GET("/company-count", analyticsHandler(env, env.Analytics.CompanyCounts))
		stats.GET("/company-sentiment", analyticsHandler(env, env.Analytics.CompanySentiment))
		stats.GET("/engagement", analyticsHandler(env, env.Analytics.Engagement))
		stats.GET("/top-liked", analyticsHandler(env, env.Analytics.TopLiked))
		stats.GET("/timeline", analyticsHandler(env, env.Analytics.Timeline))

		if opts.AdminToken != "" {
			admin := api.Group("/admin", env.AdminAuthMiddleware(opts.AdminToken))
			admin.POST("/coordinators", env.ProvisionCoordinator)
		} else {
			slog.Warn("X_ADMIN_TOKEN not set, admin routes disabled")
		}
	}

	router.GET("/health", env.Health)

	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	// --- WebSocket Route ---

	if opts.Hub != nil {
		router.GET("/ws", func(c *gin.Context) {
			ws.ServeWs(opts.Hub, c.Writer, c.Request)
		})
	}
}
