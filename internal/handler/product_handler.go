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

type ProductHandler struct {
	productService service.ProductService
	log            zerolog.Logger
}

func NewProductHandler(productService service.ProductService, log zerolog.Logger) *ProductHandler {
	return &ProductHandler{productService: productService, log: log}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/Products")
	{
		// Public catalog
		products.GET("/Productsindex", h.List)
		products.GET("/Index", h.List)
		products.GET("/Details/:id", h.Details)

		manage := middleware.RequireRole(model.RoleFoodProducer, model.RoleAdministrator)
		products.GET("/Create", manage, h.CreateForm)
		products.POST("/Create", manage, h.Create)
		products.GET("/Edit/:id", manage, h.EditForm)
		products.POST("/Edit/:id", manage, h.Edit)
		products.GET("/Delete/:id", manage, h.DeleteConfirm)
		products.POST("/Delete/:id", manage, h.Delete)
	}
}

// List handles the public product catalog
// @Summary      List products
// @Description  Lists every product. Unknown sort keys fall back to name ascending.
// @Tags         products
// @Produce      json
// @Param        sortOrder      query     string  false  "Name, Category, Calories, Protein, Fat or Carbohydrates"
// @Param        sortDirection  query     string  false  "asc or desc"
// @Success      200            {object}  response.Response{data=[]service.ProductResponse}
// @Failure      500            {object}  response.Response
// @Router       /Products/Productsindex [get]
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.productService.List(c.Request.Context(), c.Query("sortOrder"), c.Query("sortDirection"))
	if err != nil {
		writeError(c, h.log, err, nil)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, products))
}

// Details returns one product
// @Summary      Product details
// @Tags         products
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.ProductResponse}
// @Failure      404  {object}  response.Response
// @Router       /Products/Details/{id} [get]
func (h *ProductHandler) Details(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	product, err := h.productService.Detail(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err, nil)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// CreateForm returns the selectable categories and allergens
// @Summary      Product form options
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.ProductFormOptions}
// @Failure      403  {object}  response.Response
// @Router       /Products/Create [get]
func (h *ProductHandler) CreateForm(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.productService.FormOptions()))
}

// Create adds a product owned by the caller
// @Summary      Create product
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ProductForm  true  "Product"
// @Success      201      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /Products/Create [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var form service.ProductForm
	if err := c.ShouldBindJSON(&form); err != nil {
		invalidPayload(c, err)
		return
	}

	principal := middleware.CurrentPrincipal(c)
	product, err := h.productService.Create(c.Request.Context(), principal, form)
	if err != nil {
		writeError(c, h.log, err, h.echo(form))
		return
	}

	h.log.Info().Uint("product_id", product.ID).Str("user_id", principal.UserID.String()).Msg("product created")
	c.JSON(http.StatusCreated, response.Redirect(http.StatusCreated, product, service.RedirectCatalog))
}

// EditForm returns the current values with the form options
// @Summary      Product edit form
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /Products/Edit/{id} [get]
func (h *ProductHandler) EditForm(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	product, err := h.productService.GetForModify(c.Request.Context(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		writeError(c, h.log, err, nil)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"product": product,
		"options": h.productService.FormOptions(),
	}))
}

// Edit updates a product. Producers may only edit their own.
// @Summary      Edit product
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                  true  "Product ID"
// @Param        payload  body      service.ProductForm  true  "Product"
// @Success      200      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /Products/Edit/{id} [post]
func (h *ProductHandler) Edit(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var form service.ProductForm
	if err := c.ShouldBindJSON(&form); err != nil {
		invalidPayload(c, err)
		return
	}

	product, err := h.productService.Edit(c.Request.Context(), middleware.CurrentPrincipal(c), id, form)
	if err != nil {
		writeError(c, h.log, err, h.echo(form))
		return
	}
	c.JSON(http.StatusOK, response.Redirect(http.StatusOK, product, service.RedirectCatalog))
}

// DeleteConfirm returns the product to be deleted
// @Summary      Product delete confirmation
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.ProductResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /Products/Delete/{id} [get]
func (h *ProductHandler) DeleteConfirm(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	product, err := h.productService.GetForModify(c.Request.Context(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		writeError(c, h.log, err, nil)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// Delete removes a product. Producers may only delete their own.
// @Summary      Delete product
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /Products/Delete/{id} [post]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	if err := h.productService.Delete(c.Request.Context(), middleware.CurrentPrincipal(c), id); err != nil {
		writeError(c, h.log, err, nil)
		return
	}
	c.JSON(http.StatusOK, response.Redirect(http.StatusOK, "Product deleted successfully", service.RedirectCatalog))
}

// echo returns the submitted form together with the options so the client can redraw it
func (h *ProductHandler) echo(form service.ProductForm) gin.H {
	return gin.H{"form": form, "options": h.productService.FormOptions()}
}
