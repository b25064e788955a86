package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(hooks *handlers.HookHandler, reminders *handlers.ReminderHandler, notifications *handlers.NotificationHandler, snapshots *handlers.SnapshotHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.POST("/hooks/animal-created", hooks.AnimalCreated)

	r.GET("/reminders", reminders.List)
	r.POST("/reminders", reminders.Create)
	r.POST("/reminders/:id/complete", reminders.Complete)
	r.DELETE("/reminders/:id", reminders.Purge)
	r.POST("/sweep/run", reminders.RunSweep)

	r.GET("/notifications", notifications.List)
	r.GET("/notifications/unread-count", notifications.UnreadCount)
	r.POST("/notifications/read-all", notifications.MarkAllRead)
	r.POST("/notifications/:id/read", notifications.MarkRead)
	r.DELETE("/notifications/:id", notifications.Delete)
	r.DELETE("/notifications", notifications.DeleteAll)

	r.POST("/snapshots/:month/reconcile", snapshots.Reconcile)
	r.GET("/snapshots/:month", snapshots.Get)
	r.PUT("/snapshots/:month", snapshots.Save)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
