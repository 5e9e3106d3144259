package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/sai-suraj143/Intelli-Prep/internal/analysis"
	"github.com/sai-suraj143/Intelli-Prep/internal/cache"
	"github.com/sai-suraj143/Intelli-Prep/internal/config"
	"github.com/sai-suraj143/Intelli-Prep/internal/database"
	"github.com/sai-suraj143/Intelli-Prep/internal/handlers"
	logger "github.com/sai-suraj143/Intelli-Prep/internal/logging"
	"github.com/sai-suraj143/Intelli-Prep/internal/router"
	"github.com/sai-suraj143/Intelli-Prep/internal/services"
	"github.com/sai-suraj143/Intelli-Prep/internal/session"
	"github.com/sai-suraj143/Intelli-Prep/internal/store"
	"github.com/sai-suraj143/Intelli-Prep/internal/topics"
	"github.com/sai-suraj143/Intelli-Prep/internal/utils"
)

func main() {
	// Bootstrap logger so config load failures are visible; rebuilt
	// below once the logging config is known.
	log, err := logger.Init(logger.DefaultOptions())
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	if err := config.Init(".", log); err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	conf := config.Conf

	log, err = logger.Init(logger.Options{
		Directory:  conf.Logging.Directory,
		MaxSize:    conf.Logging.MaxSize,
		MaxBackups: conf.Logging.MaxBackups,
		MaxAge:     conf.Logging.MaxAge,
		Compress:   conf.Logging.Compress,
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// Progress store
	db, err := database.Connect(conf.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	userStore := store.NewGormStore(db)

	// Session cache: Redis when configured, in-process otherwise.
	var sessionCache cache.SessionCache
	if conf.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(conf.Redis.Addr, time.Duration(conf.Redis.TTLHours)*time.Hour, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		sessionCache = redisCache
	} else {
		log.Warn("No Redis address configured; session cache will not survive restarts")
		sessionCache = cache.NewMemoryCache()
	}

	// Practice content
	catalog, err := topics.Load(conf.Content.TopicsFile)
	if err != nil {
		log.Fatal("Failed to load topics", zap.Error(err))
	}
	log.Info("Topics loaded", zap.Int("count", len(catalog.Topics)))

	// Session engine
	dispatcher := analysis.NewDispatcher(
		conf.Analyzer.URL,
		time.Duration(conf.Analyzer.TimeoutSeconds)*time.Second,
		log,
		analysis.WithSimDelay(time.Duration(conf.Analyzer.SimDelayMillis)*time.Millisecond),
	)
	manager := session.NewManager(catalog, dispatcher, session.LoggingEvents{Log: log}, log)
	progress := services.NewProgressService(userStore, sessionCache, log)

	sessionSecret := conf.Server.SessionSecret
	if sessionSecret == "" {
		sessionSecret, err = utils.GenerateSecureToken(32)
		if err != nil {
			log.Fatal("Failed to generate session secret", zap.Error(err))
		}
		log.Warn("No session secret configured; using a random one, logins will not survive restarts")
	}

	r := router.Setup(router.Deps{
		Log:            log,
		SessionSecret:  sessionSecret,
		AuthHandler:    handlers.NewAuthHandler(userStore, sessionCache, log),
		SessionHandler: handlers.NewSessionHandler(manager, catalog, progress, log),
		UserLoader:     router.UserLoaderMiddleware(userStore, log),
	})

	port := ":" + conf.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
}
