package handler

import (
	"foodcatalog/internal/websocket"

	"github.com/gin-gonic/gin"
)

// CatalogFeedHandler upgrades clients onto the live catalog event stream
type CatalogFeedHandler struct {
	hub *websocket.Hub
}

func NewCatalogFeedHandler(hub *websocket.Hub) *CatalogFeedHandler {
	return &CatalogFeedHandler{hub: hub}
}

func (h *CatalogFeedHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws/catalog", h.Serve)
}

// Serve handles the websocket upgrade
// @Summary      Catalog feed
// @Description  Websocket stream of product.created, product.updated and product.deleted events
// @Tags         products
// @Router       /ws/catalog [get]
func (h *CatalogFeedHandler) Serve(c *gin.Context) {
	websocket.ServeWs(h.hub, c)
}
