package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"foodcatalog/internal/auth"
	"foodcatalog/internal/events"
	"foodcatalog/internal/middleware"
	"foodcatalog/internal/model"
	"foodcatalog/internal/repository/repotest"
	"foodcatalog/internal/service"
	"foodcatalog/pkg/pagination"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "Passw0rd"

type testApp struct {
	router *gin.Engine
	store  *repotest.Store
	tokens *auth.TokenManager
	events *events.Recorder
}

type envelope struct {
	Status     string               `json:"status"`
	StatusCode int                  `json:"status_code"`
	Data       json.RawMessage      `json:"data"`
	Error      string               `json:"error"`
	Errors     []service.FieldError `json:"errors"`
	RedirectTo string               `json:"redirect_to"`
}

func buildTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()

	store := repotest.NewStore()
	tokens := auth.NewTokenManager([]byte("test-secret"), time.Hour, "foodcatalog-test")
	rec := &events.Recorder{}

	accounts := service.NewAccountService(store.Users(), store.Roles(), store.Audit(), store.Tx(), tokens)
	products := service.NewProductService(store.Products(), store.Audit(), store.Tx(), rec, log)
	admin := service.NewAdminService(store.Users(), store.Roles(), store.Audit(), store.Tx())
	audit := service.NewAuditService(store.Audit())
	authn := middleware.NewAuthenticator(tokens, accounts, time.Minute, false, log)

	router := NewRouter(authn, log, nil,
		NewAccountHandler(accounts, authn, log),
		NewProductHandler(products, log),
		NewAdminHandler(admin, audit, authn, log),
		NewDashboardHandler(products, accounts, log),
	)
	return &testApp{router: router, store: store, tokens: tokens, events: rec}
}

// seedUser stores an account and returns a bearer token for it
func (a *testApp) seedUser(t *testing.T, username string, roles ...string) (*model.User, string) {
	t.Helper()
	ctx := context.Background()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	user := &model.User{Username: username, PasswordHash: hash}
	require.NoError(t, a.store.Users().Create(ctx, user))
	require.NoError(t, a.store.Users().AddToRoles(ctx, user.ID, roles))

	token, err := a.tokens.Issue(user.ID, user.Username)
	require.NoError(t, err)
	return user, token
}

func (a *testApp) seedProduct(t *testing.T, owner *model.User) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:          "Apple",
		Description:   "Crunchy",
		Calories:      decimal.NewFromInt(52),
		Protein:       decimal.RequireFromString("0.3"),
		Carbohydrates: decimal.NewFromInt(14),
		Fat:           decimal.RequireFromString("0.2"),
		ProducerID:    &owner.ID,
	}
	p.SetCategoryList([]string{"Fruit"})
	require.NoError(t, a.store.Products().Create(context.Background(), p))
	return p
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func productBody(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":          name,
		"description":   "Fresh",
		"categories":    []string{"Fruit"},
		"calories":      52,
		"protein":       0.3,
		"carbohydrates": 14,
		"fat":           0.2,
		"allergens":     []string{},
	}
}

func TestHealth(t *testing.T) {
	app := buildTestApp(t)

	w := app.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK"}`, w.Body.String())
}

func TestLogin(t *testing.T) {
	app := buildTestApp(t)
	app.seedUser(t, "maria", model.RoleFoodProducer)

	w := app.do(t, http.MethodPost, "/Account/Login", "", service.LoginRequest{Username: "maria", Password: testPassword})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/Products/Productsindex", decode(t, w).RedirectTo)

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, session.SameSite)

	w = app.do(t, http.MethodPost, "/Account/Login", "", service.LoginRequest{Username: "maria", Password: "nope"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid username or password.", decode(t, w).Error)
}

func TestLogout_ClearsSessionCookie(t *testing.T) {
	app := buildTestApp(t)
	_, token := app.seedUser(t, "maria", model.RoleRegularUser)

	req := httptest.NewRequest(http.MethodPost, "/Account/Logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/", decode(t, w).RedirectTo)

	var cleared *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
	assert.True(t, cleared.HttpOnly)

	// the browser now sends the emptied cookie
	me := httptest.NewRequest(http.MethodGet, "/Account/Me", nil)
	me.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: cleared.Value})
	w = httptest.NewRecorder()
	app.router.ServeHTTP(w, me)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister_AdministratorRejected(t *testing.T) {
	app := buildTestApp(t)

	w := app.do(t, http.MethodPost, "/Account/Register", "", service.RegisterRequest{
		Username: "sneaky", Password: testPassword, ConfirmPassword: testPassword, Role: model.RoleAdministrator,
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "Registration as Administrator is not allowed.", env.Errors[0].Message)
}

func TestRegister_SignsIn(t *testing.T) {
	app := buildTestApp(t)

	w := app.do(t, http.MethodPost, "/Account/Register", "", service.RegisterRequest{
		Username: "eater", Password: testPassword, ConfirmPassword: testPassword,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/", decode(t, w).RedirectTo)
	assert.NotEmpty(t, w.Result().Cookies())
}

func TestProducts_PublicListing(t *testing.T) {
	app := buildTestApp(t)
	owner, _ := app.seedUser(t, "maria", model.RoleFoodProducer)
	app.seedProduct(t, owner)

	w := app.do(t, http.MethodGet, "/Products/Productsindex?sortOrder=Bogus&sortDirection=desc", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var list []service.ProductResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, []string{"Fruit"}, list[0].Categories)

	w = app.do(t, http.MethodGet, "/Products/Details/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = app.do(t, http.MethodGet, "/Products/Details/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProducts_CreateAuthorization(t *testing.T) {
	app := buildTestApp(t)
	_, regular := app.seedUser(t, "eater", model.RoleRegularUser)
	producer, producerToken := app.seedUser(t, "maria", model.RoleFoodProducer)

	w := app.do(t, http.MethodPost, "/Products/Create", "", productBody("Apple"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodPost, "/Products/Create", regular, productBody("Apple"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodPost, "/Products/Create", producerToken, productBody("Apple"))
	require.Equal(t, http.StatusCreated, w.Code)
	env := decode(t, w)
	assert.Equal(t, "/Products/Productsindex", env.RedirectTo)
	var created service.ProductResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, producer.ID.String(), created.ProducerID)
	assert.Len(t, app.events.Events, 1)
}

func TestProducts_CreateValidation(t *testing.T) {
	app := buildTestApp(t)
	_, token := app.seedUser(t, "maria", model.RoleFoodProducer)

	body := productBody("")
	body["categories"] = []string{}
	delete(body, "calories")
	w := app.do(t, http.MethodPost, "/Products/Create", token, body)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	msgs := make([]string, 0, len(env.Errors))
	for _, e := range env.Errors {
		msgs = append(msgs, e.Message)
	}
	assert.Contains(t, msgs, "Name is required")
	assert.Contains(t, msgs, "At least one category must be selected")
	assert.Contains(t, msgs, "Calories value is required")
	assert.Contains(t, string(env.Data), "available_categories")
}

func TestProducts_EditOwnership(t *testing.T) {
	app := buildTestApp(t)
	owner, ownerToken := app.seedUser(t, "maria", model.RoleFoodProducer)
	_, intruderToken := app.seedUser(t, "other", model.RoleFoodProducer)
	_, adminToken := app.seedUser(t, "boss", model.RoleAdministrator)
	product := app.seedProduct(t, owner)
	path := "/Products/Edit/1"

	w := app.do(t, http.MethodPost, path, intruderToken, productBody("Stolen"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = app.do(t, http.MethodGet, path, intruderToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = app.do(t, http.MethodPost, "/Products/Delete/1", intruderToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodPost, path, ownerToken, productBody("Green Apple"))
	assert.Equal(t, http.StatusOK, w.Code)

	mismatched := productBody("Red Apple")
	mismatched["id"] = product.ID + 7
	w = app.do(t, http.MethodPost, path, adminToken, mismatched)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, path, adminToken, productBody("Red Apple"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodPost, "/Products/Edit/99", adminToken, productBody("Ghost"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, http.MethodPost, "/Products/Delete/1", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/Products/Productsindex", decode(t, w).RedirectTo)
}

func TestAdmin_RequiresAdministrator(t *testing.T) {
	app := buildTestApp(t)
	_, producer := app.seedUser(t, "maria", model.RoleFoodProducer)

	assert.Equal(t, http.StatusUnauthorized, app.do(t, http.MethodGet, "/Admin/UserManager", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, app.do(t, http.MethodGet, "/Admin/UserManager", producer, nil).Code)
}

func TestAdmin_EditRolesEvictsCachedPrincipal(t *testing.T) {
	app := buildTestApp(t)
	_, adminToken := app.seedUser(t, "boss", model.RoleAdministrator)
	producer, producerToken := app.seedUser(t, "maria", model.RoleFoodProducer)

	// warm the principal cache
	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/FoodProducer/Dashboard", producerToken, nil).Code)

	w := app.do(t, http.MethodPost, "/Admin/EditUser/"+producer.ID.String(), adminToken,
		service.UpdateUserRolesRequest{Roles: []string{}})
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, "/Admin/UserManager", env.RedirectTo)
	var updated service.UserWithRoles
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Empty(t, updated.Roles)

	assert.Equal(t, http.StatusForbidden, app.do(t, http.MethodGet, "/FoodProducer/Dashboard", producerToken, nil).Code)
}

func TestAdmin_EditRolesUnknownRole(t *testing.T) {
	app := buildTestApp(t)
	_, adminToken := app.seedUser(t, "boss", model.RoleAdministrator)
	user, _ := app.seedUser(t, "maria", model.RoleFoodProducer)

	w := app.do(t, http.MethodPost, "/Admin/EditUser/"+user.ID.String(), adminToken,
		service.UpdateUserRolesRequest{Roles: []string{"Chef"}})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Error adding roles.", decode(t, w).Error)
}

func TestAdmin_DeleteUserConfirmed(t *testing.T) {
	app := buildTestApp(t)
	_, adminToken := app.seedUser(t, "boss", model.RoleAdministrator)
	user, _ := app.seedUser(t, "maria", model.RoleFoodProducer)

	w := app.do(t, http.MethodPost, "/Admin/DeleteUserConfirmed/00000000-0000-0000-0000-000000000001", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, http.MethodPost, "/Admin/DeleteUserConfirmed", adminToken, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/Admin/UserManager", w.Header().Get("Location"))

	w = app.do(t, http.MethodPost, "/Admin/DeleteUserConfirmed/"+user.ID.String(), adminToken, nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/Admin/UserManager", w.Header().Get("Location"))

	// follow the redirect with the flash cookie
	req := httptest.NewRequest(http.MethodGet, "/Admin/UserManager", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	list := httptest.NewRecorder()
	app.router.ServeHTTP(list, req)
	require.Equal(t, http.StatusOK, list.Code)

	var data struct {
		Users   []service.UserWithRoles `json:"users"`
		Message string                  `json:"message"`
	}
	require.NoError(t, json.Unmarshal(decode(t, list).Data, &data))
	assert.Equal(t, "User deleted successfully!", data.Message)
	assert.Len(t, data.Users, 1)
}

func TestAdmin_AuditLog(t *testing.T) {
	app := buildTestApp(t)
	_, adminToken := app.seedUser(t, "boss", model.RoleAdministrator)
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/Products/Create", adminToken, productBody("Apple")).Code)

	w := app.do(t, http.MethodGet, "/Admin/AuditLog?page=1&limit=5", adminToken, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Logs       []service.AuditLogResponse `json:"logs"`
		Pagination pagination.Meta            `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, pagination.Meta{Page: 1, Limit: 5, Total: 1, TotalPages: 1}, data.Pagination)
	assert.Equal(t, model.ActionCreateProduct, data.Logs[0].Action)

	w = app.do(t, http.MethodGet, "/Admin/AuditLog?action=DELETE_USER", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Empty(t, data.Logs)
}

func TestDashboards(t *testing.T) {
	app := buildTestApp(t)
	producer, producerToken := app.seedUser(t, "maria", model.RoleFoodProducer)
	_, regularToken := app.seedUser(t, "eater", model.RoleRegularUser)
	app.seedProduct(t, producer)

	assert.Equal(t, http.StatusForbidden, app.do(t, http.MethodGet, "/FoodProducer/Dashboard", regularToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, app.do(t, http.MethodGet, "/RegularUser/Dashboard", producerToken, nil).Code)

	w := app.do(t, http.MethodGet, "/RegularUser/Dashboard", regularToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"product_count":1`)
}

func TestAccount_DeleteAccountConfirmed(t *testing.T) {
	app := buildTestApp(t)
	_, token := app.seedUser(t, "maria", model.RoleRegularUser)

	w := app.do(t, http.MethodPost, "/Account/DeleteAccountConfirmed", token, service.DeleteAccountRequest{Password: "wrong"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Incorrect password.", decode(t, w).Errors[0].Message)

	w = app.do(t, http.MethodPost, "/Account/DeleteAccountConfirmed", token, service.DeleteAccountRequest{Password: testPassword})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/", decode(t, w).RedirectTo)

	assert.Equal(t, http.StatusUnauthorized, app.do(t, http.MethodGet, "/Account/Me", token, nil).Code)
}
