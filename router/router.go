package router

import (
	"github.com/gin-gonic/gin"
	"github.com/lunchline/pos-server/config"
	"github.com/lunchline/pos-server/controllers"
	"github.com/lunchline/pos-server/middlewares"
	"github.com/lunchline/pos-server/services"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	// Apply security middlewares
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	// One allocator per process, shared by every upload path.
	families := services.NewFamilyAllocator(config.CashFamilyFloor())

	// Controller init
	authCtrl := controllers.NewAuthController(db)
	lineCtrl := controllers.NewLineLogController(db)
	syncCtrl := controllers.NewSyncController(db, families)
	stationCtrl := controllers.NewStationController(db)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Rate limiter for login
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/login", authCtrl.Login)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.SessionAuth(db))

	auth.POST("/logout", authCtrl.Logout)

	// LINE LIFECYCLE
	auth.POST("/linelogs/open", lineCtrl.OpenLine)
	auth.POST("/linelogs/close", lineCtrl.CloseLine)
	auth.GET("/linelogs/ready", lineCtrl.ReadyToClose)

	// SYNC (batch uploads from registers)
	syncGroup := auth.Group("/sync")
	syncGroup.Use(middlewares.SyncRateLimiter())
	syncGroup.Use(middlewares.LimitBatchSize())
	syncGroup.Use(middlewares.SyncLoggerMiddleware())
	{
		syncGroup.POST("/transactions", syncCtrl.UploadTransactions)
		syncGroup.POST("/payments", syncCtrl.UploadPayments)
		syncGroup.POST("/deletions", syncCtrl.UploadDeletions)
		syncGroup.POST("/validate", syncCtrl.ValidateSync)
	}

	// MANAGER ROUTES
	manager := auth.Group("/")
	manager.Use(middlewares.RequireManager())
	{
		manager.GET("/stations", stationCtrl.ListStations)
		manager.GET("/sessions", stationCtrl.ListSessions)
		manager.GET("/linelogs", lineCtrl.ListLineLogs)
	}

	// WebSocket endpoint with its own auth middleware
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.MonitorAuthMiddleware(db))
	{
		wsGroup.GET("/monitor", controllers.MonitorHandler)
	}

	return r
}
