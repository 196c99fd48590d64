package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/audfs/creator-node/internal/api/middleware"
	"github.com/audfs/creator-node/internal/registry"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, provider registry.Provider, denylist *registry.Denylist) {
	// Health check endpoint (no auth); replica selection polls it
	router.GET("/health_check", handler.HealthCheck)

	// Replication protocol (node-to-node)
	router.GET("/export", handler.Export)
	router.POST("/sync", handler.RequestSync)
	router.GET("/sync_status/:wallet", handler.SyncStatus)
	router.GET("/users/clock_status/:wallet", handler.ClockStatus)

	// Content reads (public)
	router.GET("/ipfs/:cid", handler.ServeBlob)
	router.GET("/ipfs/:cid/:filename", handler.ServeDirBlob)

	// Peer repair reads (registered nodes only)
	router.GET("/file_lookup", middleware.NodeAuth(provider), handler.FileLookup)

	// Writes (acting wallet required)
	walletAuth := middleware.WalletAuth(denylist)
	router.POST("/audius_users/metadata", walletAuth, handler.CreateUserMetadata)
	router.POST("/audius_users", walletAuth, handler.CreateUser)
	router.POST("/tracks/metadata", walletAuth, handler.CreateTrackMetadata)
	router.POST("/tracks", walletAuth, handler.CreateTrack)
	router.POST("/image_upload", walletAuth, handler.UploadImage)
	router.POST("/track_content", walletAuth, handler.UploadTrackContent)
}
