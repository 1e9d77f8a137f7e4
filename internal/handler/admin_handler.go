package handler

import (
	"errors"
	"net/http"
	"strings"

	"foodcatalog/internal/middleware"
	"foodcatalog/internal/model"
	"foodcatalog/internal/service"
	"foodcatalog/pkg/pagination"
	"foodcatalog/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type AdminHandler struct {
	adminService service.AdminService
	auditService service.AuditService
	authn        *middleware.Authenticator
	log          zerolog.Logger
}

func NewAdminHandler(adminService service.AdminService, auditService service.AuditService, authn *middleware.Authenticator, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{adminService: adminService, auditService: auditService, authn: authn, log: log}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/Admin")
	admin.Use(middleware.RequireRole(model.RoleAdministrator))
	{
		admin.GET("/UserManager", h.UserManager)
		admin.GET("/EditUser/:id", h.EditUserForm)
		admin.POST("/EditUser/:id", h.EditUser)
		admin.GET("/DeleteUser/:id", h.DeleteUserConfirm)
		admin.POST("/DeleteUserConfirmed", h.DeleteUserConfirmed)
		admin.POST("/DeleteUserConfirmed/:id", h.DeleteUserConfirmed)
		admin.GET("/AuditLog", h.AuditLog)
	}
}

// UserManager lists every account with its roles
// @Summary      List users
// @Description  Lists accounts ordered by username and returns any pending flash messages
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Failure      403  {object}  response.Response
// @Router       /Admin/UserManager [get]
func (h *AdminHandler) UserManager(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err, nil)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"users":   users,
		"message": middleware.PopFlash(c, middleware.FlashMessage),
		"error":   middleware.PopFlash(c, middleware.FlashError),
	}))
}

// EditUserForm returns the account, its roles and the role catalog
// @Summary      Edit user roles form
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=service.EditUserView}
// @Failure      404  {object}  response.Response
// @Router       /Admin/EditUser/{id} [get]
func (h *AdminHandler) EditUserForm(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	view, err := h.adminService.GetUserForEdit(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err, nil)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, view))
}

// EditUser replaces the account's whole role set
// @Summary      Replace user roles
// @Description  Full replace: an empty list strips every role. Runs in one transaction.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "User ID"
// @Param        payload  body      service.UpdateUserRolesRequest  true  "Roles"
// @Success      200      {object}  response.Response{data=service.UserWithRoles}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /Admin/EditUser/{id} [post]
func (h *AdminHandler) EditUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req service.UpdateUserRolesRequest
	if err := c.ShouldBind(&req); err != nil {
		invalidPayload(c, err)
		return
	}

	actor := middleware.CurrentPrincipal(c)
	user, err := h.adminService.UpdateUserRoles(c.Request.Context(), actor.UserID, id, req)
	switch {
	case errors.Is(err, service.ErrRemoveRoles):
		h.log.Error().Err(err).Str("user_id", id.String()).Msg("role removal failed")
		c.JSON(http.StatusBadRequest, response.Invalid(http.StatusBadRequest, service.ErrRemoveRoles.Error(), nil, req))
		return
	case errors.Is(err, service.ErrAddRoles):
		h.log.Error().Err(err).Str("user_id", id.String()).Msg("role assignment failed")
		c.JSON(http.StatusBadRequest, response.Invalid(http.StatusBadRequest, service.ErrAddRoles.Error(), nil, req))
		return
	case err != nil:
		writeError(c, h.log, err, req)
		return
	}

	h.authn.Forget(id)
	middleware.SetFlash(c, middleware.FlashMessage, "User roles updated successfully!")
	c.JSON(http.StatusOK, response.Redirect(http.StatusOK, user, service.RedirectUserManager))
}

// DeleteUserConfirm returns the account to be deleted
// @Summary      Delete user confirmation
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=service.UserWithRoles}
// @Failure      404  {object}  response.Response
// @Router       /Admin/DeleteUser/{id} [get]
func (h *AdminHandler) DeleteUserConfirm(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	user, err := h.adminService.GetUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err, nil)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// DeleteUserConfirmed deletes an account and redirects back to the list.
// Outcomes travel in flash cookies.
// @Summary      Delete user
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      303
// @Failure      404  {object}  response.Response
// @Router       /Admin/DeleteUserConfirmed/{id} [post]
func (h *AdminHandler) DeleteUserConfirmed(c *gin.Context) {
	raw := strings.TrimSpace(c.Param("id"))
	if raw == "" {
		raw = strings.TrimSpace(c.PostForm("id"))
	}
	if raw == "" {
		h.redirectWithFlash(c, middleware.FlashError, "Invalid user ID.")
		return
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "User not found"))
		return
	}

	actor := middleware.CurrentPrincipal(c)
	err = h.adminService.DeleteUser(c.Request.Context(), actor.UserID, id)
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "User not found"))
	case err != nil:
		h.log.Error().Err(err).Str("user_id", id.String()).Msg("user deletion failed")
		h.redirectWithFlash(c, middleware.FlashError, service.ErrDeleteUser.Error())
	default:
		h.authn.Forget(id)
		h.redirectWithFlash(c, middleware.FlashMessage, "User deleted successfully!")
	}
}

// AuditLog returns the paginated mutation trail
// @Summary      Audit log
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Param        action     query     string  false  "Only this action, e.g. CREATE_PRODUCT"
// @Param        entity_id  query     string  false  "Only rows for this entity"
// @Success      200        {object}  response.Response{data=object}
// @Router       /Admin/AuditLog [get]
func (h *AdminHandler) AuditLog(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), service.AuditLogFilter{
		Page:     params.Page,
		Limit:    params.Limit,
		Action:   c.Query("action"),
		EntityID: c.Query("entity_id"),
	})
	if err != nil {
		writeError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"logs":       logs,
		"pagination": params.Meta(total),
	}))
}

func (h *AdminHandler) redirectWithFlash(c *gin.Context, kind, text string) {
	middleware.SetFlash(c, kind, text)
	c.Redirect(http.StatusSeeOther, service.RedirectUserManager)
}
