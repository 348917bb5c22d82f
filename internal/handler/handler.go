package handler

import (
	"net/http"
	"strings"

	"github.com/BloggingApp/writerspace/internal/config"
	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/BloggingApp/writerspace/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	userCtxKey   = "user"
	deviceCtxKey = "device-id"
)

type Handler struct {
	logger       *zap.Logger
	services     *service.Service
	devices      sessions.Store
	limiter      *ipRateLimiter
	upgrader     websocket.Upgrader
	clientOrigin string
}

func New(logger *zap.Logger, services *service.Service, cfg *config.AppConfig) *Handler {
	return &Handler{
		logger:       logger,
		services:     services,
		devices:      newDeviceStore(cfg.Auth.SessionSecret, strings.HasPrefix(cfg.PublicOrigin, "https://")),
		limiter:      newIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		clientOrigin: cfg.ClientOrigin,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == cfg.ClientOrigin
			},
		},
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(h.metricsMiddleware)
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{h.clientOrigin},
		AllowMethods:     []string{"POST", "GET", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", h.rateLimitMiddleware, h.authSignUp)
			auth.POST("/signin", h.rateLimitMiddleware, h.authSignIn)
			auth.POST("/federated", h.rateLimitMiddleware, h.authFederated)
			auth.POST("/signout", h.authSignOut)
			auth.GET("/me", h.authMiddleware, h.authMe)
		}

		posts := v1.Group("/posts")
		{
			posts.GET("", h.postsGetPublished)
			posts.GET("/recommended", h.postsGetRecommended)
			posts.GET("/live", h.postsLive)

			post := posts.Group("/:postID")
			{
				post.GET("", h.notRequiredAuthMiddleware, h.postsGetByID)
				post.GET("/reactions", h.deviceMiddleware, h.reactionsGet)
				post.GET("/reactions/:type", h.deviceMiddleware, h.reactionsHas)
				post.POST("/reactions/:type", h.rateLimitMiddleware, h.deviceMiddleware, h.reactionsRecord)
			}
		}

		admin := v1.Group("/admin", h.adminMiddleware)
		{
			admin.GET("/posts", h.adminGetPosts)
			admin.GET("/stats", h.adminStats)
			admin.POST("/posts", h.adminCreatePost)
			admin.PATCH("/posts/:postID", h.adminUpdatePost)
			admin.DELETE("/posts/:postID", h.adminDeletePost)
			admin.POST("/posts/:postID/recommend", h.adminToggleRecommendation)
		}

		newsletter := v1.Group("/newsletter")
		{
			newsletter.POST("/subscribe", h.rateLimitMiddleware, h.newsletterSubscribe)
			newsletter.GET("/unsubscribe", h.newsletterUnsubscribe)
			newsletter.POST("/unsubscribe", h.newsletterUnsubscribe)
		}
	}

	return r
}

// health stays 200 while the posts feed is down; reads keep serving the last snapshot.
func (h *Handler) health(c *gin.Context) {
	if err := h.services.Post.FeedError(); err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "degraded", "posts_feed": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getUserFromRequest(c *gin.Context) *model.User {
	userReq, _ := c.Get(userCtxKey)

	user, ok := userReq.(model.User)
	if !ok {
		return nil
	}

	return &user
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
