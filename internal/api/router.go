package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/tolls-backend-go/internal/config"
	"github.com/jengzang/tolls-backend-go/internal/database"
	"github.com/jengzang/tolls-backend-go/internal/handler"
	"github.com/jengzang/tolls-backend-go/internal/middleware"
	"github.com/jengzang/tolls-backend-go/internal/repository"
	"github.com/jengzang/tolls-backend-go/internal/service"
	"github.com/jengzang/tolls-backend-go/internal/spatial"
)

// SetupRouter wires repositories, services and handlers onto the gin engine
func SetupRouter(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.RateLimit(300, time.Minute))

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Tolls Backend API is running",
		})
	})

	db := database.GetDB()
	engine := spatial.NewPlanarEngine()

	tollRepo := repository.NewTollRepository(db)
	roadRepo := repository.NewRoadRepository(db)
	calcRepo := repository.NewCalculatorRepository(db)
	priceRepo := repository.NewPriceRepository(db)

	matcher := service.NewMatcherService(tollRepo, engine, nil)
	roadnet := service.NewRoadNetService(roadRepo, engine, cfg.MergeToleranceMeters)
	resolver := service.NewResolverService(calcRepo)
	ledger := service.NewLedgerService(db, priceRepo, calcRepo, tollRepo)

	tollHandler := handler.NewTollHandler(tollRepo, matcher, cfg.NearbyLimit)
	roadHandler := handler.NewRoadHandler(roadRepo, roadnet)
	routeHandler := handler.NewRouteHandler(tollRepo, roadnet, resolver, engine)
	priceHandler := handler.NewPriceHandler(ledger)

	api := r.Group("/api/v1")
	{
		tolls := api.Group("/tolls")
		{
			tolls.GET("", tollHandler.GetTolls)
			tolls.GET("/nearby", tollHandler.GetNearby)
			tolls.GET("/:id", tollHandler.GetTollByID)
			tolls.POST("/match", tollHandler.MatchFacilities)
		}

		roads := api.Group("/roads")
		{
			roads.GET("", roadHandler.GetRoads)
			roads.POST("/merge", middleware.Auth(cfg.JWTSecret), roadHandler.MergeRoads)
		}

		routes := api.Group("/routes")
		{
			routes.POST("/intersecting", routeHandler.GetIntersectingRoads)
			routes.POST("/resolve", routeHandler.ResolveRoute)
		}

		prices := api.Group("/prices", middleware.Auth(cfg.JWTSecret))
		{
			prices.POST("", priceHandler.BatchUpsert)
		}
	}

	return r
}
