package router

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sai-suraj143/Intelli-Prep/internal/handlers"
	"github.com/sai-suraj143/Intelli-Prep/internal/store"
)

// UserLoaderMiddleware checks for a user email in the cookie session.
// If found, it loads the record from the store and adds it to the
// context. This ensures we don't have "zombie" sessions for users who
// no longer exist.
func UserLoaderMiddleware(userStore store.UserStore, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		email, ok := session.Get(handlers.SessionUserKey).(string)
		if !ok {
			// No email in session, proceed as a guest.
			c.Next()
			return
		}

		user, err := userStore.FindByEmail(c.Request.Context(), email)
		if errors.Is(err, store.ErrNotFound) {
			// The session points at an unknown user. Clear the bad
			// session and treat as a guest.
			session.Clear()
			session.Options(sessions.Options{Path: "/", MaxAge: -1})
			if err := session.Save(); err != nil {
				log.Warn("failed to clear stale session", zap.Error(err))
			}
			c.Next()
			return
		}
		if err != nil {
			// Transient store failure: keep the cookie so the session
			// cache restore path can still match the caller.
			log.Warn("user lookup failed", zap.Error(err))
			c.Next()
			return
		}

		c.Set("user", *user)
		c.Next()
	}
}

// AuthRequired checks if a valid user was loaded into the context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("user"); !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
