package handler

import (
	"net/http"

	"foodcatalog/internal/middleware"
	"foodcatalog/internal/model"
	"foodcatalog/internal/service"
	"foodcatalog/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// DashboardHandler serves the per-role landing pages
type DashboardHandler struct {
	productService service.ProductService
	accountService service.AccountService
	log            zerolog.Logger
}

func NewDashboardHandler(productService service.ProductService, accountService service.AccountService, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{productService: productService, accountService: accountService, log: log}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/FoodProducer/Dashboard",
		middleware.RequireRole(model.RoleFoodProducer, model.RoleAdministrator), h.FoodProducer)
	router.GET("/RegularUser/Dashboard",
		middleware.RequireRole(model.RoleRegularUser, model.RoleAdministrator), h.RegularUser)
}

// FoodProducer lists the caller's own products
// @Summary      Producer dashboard
// @Tags         dashboards
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Failure      403  {object}  response.Response
// @Router       /FoodProducer/Dashboard [get]
func (h *DashboardHandler) FoodProducer(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	products, err := h.productService.ListByProducer(c.Request.Context(), principal.UserID)
	if err != nil {
		writeError(c, h.log, err, nil)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"username": principal.Username,
		"products": products,
		"total":    len(products),
	}))
}

// RegularUser summarises the caller and the catalog
// @Summary      Regular user dashboard
// @Tags         dashboards
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Failure      403  {object}  response.Response
// @Router       /RegularUser/Dashboard [get]
func (h *DashboardHandler) RegularUser(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	account, err := h.accountService.GetAccount(c.Request.Context(), principal.UserID)
	if err != nil {
		writeError(c, h.log, err, nil)
		return
	}
	count, err := h.productService.Count(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err, nil)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"account":       account,
		"product_count": count,
	}))
}
