package handler

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/BloggingApp/writerspace/internal/dto"
	"github.com/BloggingApp/writerspace/internal/metrics"
	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"golang.org/x/time/rate"
)

const (
	deviceCookieName = "writerspace-device"
	deviceIDValue    = "device_id"
	deviceCookieAge  = 365 * 24 * 60 * 60
)

func (h *Handler) authMiddleware(c *gin.Context) {
	accessToken := bearerToken(c)
	if accessToken == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewBasicResponse(false, errNotAuthorized.Error()))
		return
	}

	user, err := h.services.Session.CurrentUser(c.Request.Context(), accessToken)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.Set(userCtxKey, *user)

	c.Next()
}

func (h *Handler) adminMiddleware(c *gin.Context) {
	accessToken := bearerToken(c)
	if accessToken == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewBasicResponse(false, errNotAuthorized.Error()))
		return
	}

	user, err := h.services.Session.CurrentUser(c.Request.Context(), accessToken)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	if user.Role != model.RoleAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewBasicResponse(false, errNoAccess.Error()))
		return
	}

	c.Set(userCtxKey, *user)

	c.Next()
}

func (h *Handler) notRequiredAuthMiddleware(c *gin.Context) {
	accessToken := bearerToken(c)
	if accessToken == "" {
		c.Next()
		return
	}

	user, err := h.services.Session.CurrentUser(c.Request.Context(), accessToken)
	if err != nil {
		c.Next()
		return
	}

	c.Set(userCtxKey, *user)

	c.Next()
}

func newDeviceStore(secret []byte, secure bool) sessions.Store {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   deviceCookieAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// deviceMiddleware pins a random id to the browser in a signed cookie. Reactions are
// deduplicated per device id.
func (h *Handler) deviceMiddleware(c *gin.Context) {
	session, err := h.devices.Get(c.Request, deviceCookieName)
	if err != nil {
		// A cookie signed with an old secret decodes to an error and a fresh session.
		h.logger.Sugar().Infof("replacing unreadable device cookie: %s", err.Error())
	}

	deviceID, _ := session.Values[deviceIDValue].(string)
	if deviceID == "" {
		deviceID = uuid.NewString()
		session.Values[deviceIDValue] = deviceID
		if err := session.Save(c.Request, c.Writer); err != nil {
			h.logger.Sugar().Errorf("failed to save device cookie: %s", err.Error())
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewBasicResponse(false, errNoDevice.Error()))
			return
		}
	}

	c.Set(deviceCtxKey, deviceID)

	c.Next()
}

func (h *Handler) getDeviceID(c *gin.Context) string {
	return c.GetString(deviceCtxKey)
}

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterSweepSize = 10000
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
}

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *ipRateLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if len(l.visitors) >= limiterSweepSize {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(l.visitors, key)
			}
		}
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (h *Handler) rateLimitMiddleware(c *gin.Context) {
	if !h.limiter.get(c.ClientIP()).Allow() {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewBasicResponse(false, errTooManyRequests.Error()))
		return
	}

	c.Next()
}

func (h *Handler) metricsMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next()

	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
}
