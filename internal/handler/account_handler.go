package handler

import (
	"net/http"

	"foodcatalog/internal/auth"
	"foodcatalog/internal/middleware"
	"foodcatalog/internal/service"
	"foodcatalog/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type AccountHandler struct {
	accountService service.AccountService
	authn          *middleware.Authenticator
	log            zerolog.Logger
}

// NewAccountHandler sets up the routing dependencies for Account endpoints
func NewAccountHandler(accountService service.AccountService, authn *middleware.Authenticator, log zerolog.Logger) *AccountHandler {
	return &AccountHandler{accountService: accountService, authn: authn, log: log}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AccountHandler) RegisterRoutes(router *gin.RouterGroup) {
	account := router.Group("/Account")
	{
		account.GET("/Index", h.Index)
		account.POST("/Login", h.Login)
		account.POST("/Register", h.Register)
		account.POST("/Logout", h.Logout)

		account.GET("/Me", middleware.RequireAuth(), h.Me)
		account.GET("/ChangePassword", middleware.RequireAuth(), h.ChangePasswordForm)
		account.POST("/ChangePassword", middleware.RequireAuth(), h.ChangePassword)
		account.GET("/DeleteAccount", middleware.RequireAuth(), h.DeleteAccount)
		account.POST("/DeleteAccountConfirmed", middleware.RequireAuth(), h.DeleteAccountConfirmed)
	}
}

// Index describes the landing state
// @Summary      Account landing
// @Description  Returns whether the caller is signed in and which roles can be chosen at registration
// @Tags         account
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Router       /Account/Index [get]
func (h *AccountHandler) Index(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"authenticated":     principal != nil,
		"principal":         principal,
		"registrable_roles": h.accountService.RegistrableRoles(),
	}))
}

// Login verifies credentials and starts a session
// @Summary      Sign in
// @Description  Verifies credentials, sets the HttpOnly session cookie and returns the token
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.SessionResult}
// @Failure      401      {object}  response.Response
// @Router       /Account/Login [post]
func (h *AccountHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		invalidPayload(c, err)
		return
	}

	res, err := h.accountService.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err, gin.H{"username": req.Username})
		return
	}

	h.authn.SetSessionCookie(c, res.Token)
	c.JSON(http.StatusOK, response.Redirect(http.StatusOK, res, res.RedirectTo))
}

// Register creates an account and signs it in
// @Summary      Register
// @Description  Creates an account with an optional self-assignable role (defaults to RegularUser)
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Registration"
// @Success      201      {object}  response.Response{data=service.SessionResult}
// @Failure      400      {object}  response.Response
// @Router       /Account/Register [post]
func (h *AccountHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		invalidPayload(c, err)
		return
	}

	res, err := h.accountService.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err, gin.H{"username": req.Username, "role": req.Role})
		return
	}

	h.authn.SetSessionCookie(c, res.Token)
	c.JSON(http.StatusCreated, response.Redirect(http.StatusCreated, res, res.RedirectTo))
}

// Logout ends the session
// @Summary      Sign out
// @Tags         account
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /Account/Logout [post]
func (h *AccountHandler) Logout(c *gin.Context) {
	if principal := middleware.CurrentPrincipal(c); principal != nil {
		h.authn.Forget(principal.UserID)
	}
	h.authn.ClearSessionCookie(c)
	c.JSON(http.StatusOK, response.Redirect(http.StatusOK, nil, service.RedirectHome))
}

// Me returns the signed in account
// @Summary      Current account
// @Tags         account
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.AccountResponse}
// @Failure      401  {object}  response.Response
// @Router       /Account/Me [get]
func (h *AccountHandler) Me(c *gin.Context) {
	account, err := h.accountService.GetAccount(c.Request.Context(), middleware.CurrentPrincipal(c).UserID)
	if err != nil {
		writeError(c, h.log, err, nil)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, account))
}

// ChangePasswordForm returns the password rules
// @Summary      Change password form
// @Tags         account
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Router       /Account/ChangePassword [get]
func (h *AccountHandler) ChangePasswordForm(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"username": middleware.CurrentPrincipal(c).Username,
		"policy":   auth.DefaultPasswordPolicy,
	}))
}

// ChangePassword replaces the password and re-issues the session
// @Summary      Change password
// @Tags         account
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ChangePasswordRequest  true  "Passwords"
// @Success      200      {object}  response.Response{data=service.SessionResult}
// @Failure      400      {object}  response.Response
// @Router       /Account/ChangePassword [post]
func (h *AccountHandler) ChangePassword(c *gin.Context) {
	var req service.ChangePasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		invalidPayload(c, err)
		return
	}

	res, err := h.accountService.ChangePassword(c.Request.Context(), middleware.CurrentPrincipal(c).UserID, req)
	if err != nil {
		writeError(c, h.log, err, nil)
		return
	}

	h.authn.SetSessionCookie(c, res.Token)
	c.JSON(http.StatusOK, response.Redirect(http.StatusOK, res, res.RedirectTo))
}

// DeleteAccount returns the confirmation data
// @Summary      Delete account confirmation
// @Tags         account
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.AccountResponse}
// @Router       /Account/DeleteAccount [get]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	h.Me(c)
}

// DeleteAccountConfirmed removes the caller's account after password confirmation
// @Summary      Delete account
// @Description  Permanently deletes the account and every product it produced
// @Tags         account
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.DeleteAccountRequest  true  "Password confirmation"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /Account/DeleteAccountConfirmed [post]
func (h *AccountHandler) DeleteAccountConfirmed(c *gin.Context) {
	var req service.DeleteAccountRequest
	if err := c.ShouldBind(&req); err != nil {
		invalidPayload(c, err)
		return
	}

	principal := middleware.CurrentPrincipal(c)
	if err := h.accountService.DeleteAccount(c.Request.Context(), principal.UserID, req); err != nil {
		writeError(c, h.log, err, nil)
		return
	}

	h.authn.Forget(principal.UserID)
	h.authn.ClearSessionCookie(c)
	c.JSON(http.StatusOK, response.Redirect(http.StatusOK, "Account deleted successfully", service.RedirectHome))
}
