package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	errs "github.com/locentra/locentra-api/errors"
	"github.com/locentra/locentra-api/metrics"
	"github.com/locentra/locentra-api/models"
	"github.com/locentra/locentra-api/server/response"
	"github.com/locentra/locentra-api/services/jwt"
)

// Authorize validates the bearer token and places the user plus an explicit
// AuthSession (user id + role) into the request context. Handlers and
// services consume the session rather than re-reading ambient auth state.
func (s *Server) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := getTokenFromHeader(c)
		if accessToken == "" {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		if s.AuthRepository.IsTokenInBlacklist(accessToken) {
			respondAndAbort(c, "Access token is blacklisted", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		secret := s.Config.JWTSecret
		accessClaims, err := jwt.ValidateAndGetClaims(accessToken, secret)
		if err != nil {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		var userID uint
		switch v := accessClaims["id"].(type) {
		case float64:
			userID = uint(v)
		default:
			respondAndAbort(c, "", http.StatusBadRequest, nil, errs.New("Invalid userID format", http.StatusBadRequest))
			return
		}

		user, err := s.AuthRepository.FindUserByID(userID)
		if err != nil {
			switch {
			case errors.Is(err, errs.InActiveUserError):
				respondAndAbort(c, "inactive user", http.StatusUnauthorized, nil, errs.New(err.Error(), http.StatusUnauthorized))
				return
			case errors.Is(err, gorm.ErrRecordNotFound):
				respondAndAbort(c, "user not found", http.StatusUnauthorized, nil, errs.New(err.Error(), http.StatusUnauthorized))
				return
			default:
				respondAndAbort(c, "unable to find entity", http.StatusInternalServerError, nil, errs.New("internal server error", http.StatusInternalServerError))
				return
			}
		}

		session := models.AuthSession{UserID: user.ID, Role: user.Role.Name}

		c.Set("user", user)
		c.Set("session", session)
		c.Set("access_token", accessToken)
		c.Next()
	}
}

// currentSession returns the AuthSession the Authorize middleware stored.
func currentSession(c *gin.Context) (models.AuthSession, bool) {
	v, ok := c.Get("session")
	if !ok {
		return models.AuthSession{}, false
	}
	session, ok := v.(models.AuthSession)
	return session, ok
}

// limitRateForMessageSend keys the limiter by sender so one noisy client
// cannot starve the rest.
func limitRateForMessageSend(store ratelimit.Store) gin.HandlerFunc {
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			respondAndAbort(c, "too many messages, slow down", http.StatusTooManyRequests, nil,
				errs.New("rate limited until "+info.ResetTime.Format(time.RFC3339), http.StatusTooManyRequests))
		},
		KeyFunc: func(c *gin.Context) string {
			if session, ok := currentSession(c); ok {
				return strconv.FormatUint(uint64(session.UserID), 10)
			}
			return c.ClientIP()
		},
	})
}

// Metrics records request counts and latency per route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// respondAndAbort calls response.JSON and aborts the Context
func respondAndAbort(c *gin.Context, message string, status int, data interface{}, e *errs.Error) {
	response.JSON(c, message, status, data, e)
	c.Abort()
}

// getTokenFromHeader returns the token string in the authorization header
func getTokenFromHeader(c *gin.Context) string {
	authHeader := c.Request.Header.Get("Authorization")
	if len(authHeader) > 8 {
		return authHeader[7:]
	}
	return ""
}
