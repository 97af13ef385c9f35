package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"asrs-inventory-backend/config"
	"asrs-inventory-backend/internal/engine"
	"asrs-inventory-backend/internal/mw"
	"asrs-inventory-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, s store.Store, eng *engine.Engine, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, eng, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// GET responses are cached briefly; every successful write flushes the
	// cache so listings never trail a committed placement or withdrawal.
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter, caching)
	{
		boxes := api.Group("/boxes")
		{
			boxes.GET("", handler.GetBoxes)
			boxes.GET("/empty", handler.GetBoxesWithCapacity)
			boxes.GET("/:id", handler.GetBox)
			boxes.POST("", handler.CreateBox)
			boxes.DELETE("/:id", handler.DeleteBox)
		}

		items := api.Group("/items")
		{
			items.GET("", handler.GetItems)
			items.GET("/available", handler.GetAvailableItems)
			items.GET("/:id", handler.GetItem)
			items.GET("/:id/locations", handler.GetItemLocations)
			items.GET("/:id/exists", handler.GetItemIDExists)
			items.POST("", handler.CreateItem)
			items.DELETE("/:id", handler.DeleteItem)
		}

		subs := api.Group("/subcompartments")
		{
			subs.GET("", handler.GetSubCompartments)
			subs.POST("", handler.CreateSubCompartment)
			subs.POST("/operations/add-product", handler.AddProduct)
			subs.POST("/operations/retrieve-product", handler.RetrieveProduct)
			subs.GET("/:place", handler.GetSubCompartment)
			subs.PATCH("/:place/status", handler.UpdateSubCompartmentStatus)
			subs.DELETE("/:place", handler.DeleteSubCompartment)
		}

		trans := api.Group("/transactions")
		{
			trans.GET("", handler.GetTransactions)
			trans.GET("/item/:itemId", handler.GetTransactionsByItem)
			trans.GET("/:id", handler.GetTransaction)
		}

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
