package router

import (
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"github.com/sai-suraj143/Intelli-Prep/internal/handlers"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func rateErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again later"})
}

// Deps carries everything the route tree needs.
type Deps struct {
	Log            *zap.Logger
	SessionSecret  string
	AuthHandler    *handlers.AuthHandler
	SessionHandler *handlers.SessionHandler
	UserLoader     gin.HandlerFunc
}

func Setup(d Deps) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(d.Log))

	store := cookie.NewStore([]byte(d.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})
	router.Use(sessions.Sessions("intelliprep_session", store))
	router.Use(d.UserLoader)

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
	})

	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 5,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: rateErrorHandler,
		KeyFunc:      keyFunc,
	})

	api := router.Group("/api")
	{
		api.POST("/register", limiter, d.AuthHandler.Register)
		api.POST("/login", limiter, d.AuthHandler.Login)
		api.POST("/logout", d.AuthHandler.Logout)
		api.GET("/me", d.AuthHandler.Me)
		api.GET("/topics", d.SessionHandler.Topics)

		authorized := api.Group("/")
		authorized.Use(AuthRequired())
		{
			authorized.POST("/session", d.SessionHandler.Start)
			authorized.GET("/session", d.SessionHandler.Current)
			authorized.POST("/session/begin", d.SessionHandler.BeginAnswer)
			authorized.POST("/session/answer", d.SessionHandler.EndAnswer)
			authorized.POST("/session/skip", d.SessionHandler.Skip)
			authorized.POST("/session/cancel", d.SessionHandler.Cancel)
		}
	}

	return router
}
