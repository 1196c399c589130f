package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/linskybing/gpu-portal/internal/api/handlers"
	"github.com/linskybing/gpu-portal/internal/application"
	"github.com/linskybing/gpu-portal/internal/config"
	"github.com/linskybing/gpu-portal/internal/domain/inventory"
	"github.com/linskybing/gpu-portal/internal/domain/notification"
	"github.com/linskybing/gpu-portal/internal/domain/request"
	"github.com/linskybing/gpu-portal/internal/domain/user"
	"github.com/linskybing/gpu-portal/internal/identity"
	"github.com/linskybing/gpu-portal/internal/repository"
	"github.com/linskybing/gpu-portal/internal/testutils"
	"github.com/linskybing/gpu-portal/pkg/response"
	"github.com/linskybing/gpu-portal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var router *gin.Engine

type testEnv struct {
	repos  *repository.Repos
	seeded testutils.Seeded
}

func setupRouter(t *testing.T) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	origAudit := utils.LogAuditWithConsole
	utils.LogAuditWithConsole = func(*gin.Context, string, string, string, interface{}, interface{}, string, repository.AuditRepo) {}
	origAdmins := config.AdminEmails
	config.AdminEmails = []string{"admin@lab.edu"}
	t.Cleanup(func() {
		utils.LogAuditWithConsole = origAudit
		config.AdminEmails = origAdmins
	})

	repos := testutils.NewTestRepos(t)
	seeded := testutils.SeedInventory(t, repos,
		testutils.Stock{Rack: "gpu-node-01", IP: "10.0.0.11", Model: "A100 SXM4 80GB", Total: 8, Available: 6},
		testutils.Stock{Rack: "gpu-node-01", IP: "10.0.0.11", Model: "V100 32GB", Total: 4, Available: 0},
	)

	gw := identity.NewLocalGateway(repos.Identity, identity.Options{Secret: "test-secret", Issuer: "gpu-portal-test"})
	svc := application.New(repos, application.Deps{Gateway: gw})

	router = gin.New()
	RegisterRoutes(router, handlers.New(svc, repos), gw)
	return testEnv{repos: repos, seeded: seeded}
}

func doRequest(t *testing.T, method, path string, token string, body interface{}, expectStatus int) *httptest.ResponseRecorder {
	var req *http.Request

	switch v := body.(type) {
	case nil:
		req = httptest.NewRequest(method, path, nil)
	default:
		reqBody, err := json.Marshal(v)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewBuffer(reqBody))
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if expectStatus != 0 {
		require.Equal(t, expectStatus, w.Code,
			fmt.Sprintf("expected %d, got %d, body=%s", expectStatus, w.Code, w.Body.String()))
	}
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// signUp registers and logs in, returning the session token and user ID.
func signUp(t *testing.T, email, name string) (string, string) {
	t.Helper()
	doRequest(t, http.MethodPost, "/auth/register", "", user.RegisterInput{
		Email: email, Password: "password123", Name: name,
	}, http.StatusCreated)

	w := doRequest(t, http.MethodPost, "/auth/login", "", user.LoginInput{
		Email: email, Password: "password123",
	}, http.StatusOK)
	tok := decode[response.TokenResponse](t, w)
	require.NotEmpty(t, tok.Token)
	return tok.Token, tok.UserID
}

func (e testEnv) form(quantity int) request.CreateRequestDTO {
	return request.CreateRequestDTO{
		ServerID:           e.seeded.Racks["gpu-node-01"].ID,
		GPUModelID:         e.seeded.Models["A100 SXM4 80GB"].ID,
		Quantity:           quantity,
		ProjectName:        "LLM fine-tuning",
		ProjectDescription: "Fine-tune a 7B model",
		DurationDays:       "7",
		AgreedToTerms:      true,
	}
}

func (e testEnv) available(t *testing.T, token string) int {
	t.Helper()
	w := doRequest(t, http.MethodGet, "/gpus?q=a100", token, nil, http.StatusOK)
	rows := decode[[]inventory.Availability](t, w)
	require.Len(t, rows, 1)
	return rows[0].AvailableCount
}

// --------------------- Auth ---------------------
func TestAuthRoutes(t *testing.T) {
	setupRouter(t)

	t.Run("Protected route requires a token", func(t *testing.T) {
		doRequest(t, http.MethodGet, "/profile", "", nil, http.StatusUnauthorized)
		doRequest(t, http.MethodGet, "/profile", "garbage", nil, http.StatusUnauthorized)
	})

	token, userID := signUp(t, "alice@lab.edu", "Alice")

	t.Run("Duplicate email", func(t *testing.T) {
		doRequest(t, http.MethodPost, "/auth/register", "", user.RegisterInput{
			Email: "alice@lab.edu", Password: "password123", Name: "Alice again",
		}, http.StatusConflict)
	})

	t.Run("Wrong password", func(t *testing.T) {
		doRequest(t, http.MethodPost, "/auth/login", "", user.LoginInput{
			Email: "alice@lab.edu", Password: "nope-nope",
		}, http.StatusUnauthorized)
	})

	t.Run("Profile round trip", func(t *testing.T) {
		w := doRequest(t, http.MethodGet, "/profile", token, nil, http.StatusOK)
		u := decode[user.User](t, w)
		assert.Equal(t, userID, u.ID)
		assert.Equal(t, "Alice", u.Name)

		dept := "Physics"
		w = doRequest(t, http.MethodPut, "/profile", token, user.UpdateProfileInput{Department: &dept}, http.StatusOK)
		assert.Equal(t, "Physics", decode[user.User](t, w).Department)
	})

	t.Run("Logout revokes the session", func(t *testing.T) {
		doRequest(t, http.MethodGet, "/auth/status", token, nil, http.StatusOK)
		doRequest(t, http.MethodPost, "/auth/logout", token, nil, http.StatusOK)
		doRequest(t, http.MethodGet, "/auth/status", token, nil, http.StatusUnauthorized)
	})
}

// --------------------- Inventory ---------------------
func TestInventoryRoutes(t *testing.T) {
	env := setupRouter(t)
	token, _ := signUp(t, "alice@lab.edu", "Alice")
	rackID := env.seeded.Racks["gpu-node-01"].ID

	t.Run("Models on rack skip sold out", func(t *testing.T) {
		w := doRequest(t, http.MethodGet, fmt.Sprintf("/racks/%d/models", rackID), token, nil, http.StatusOK)
		models := decode[[]inventory.GPUModel](t, w)
		require.Len(t, models, 1)
		assert.Equal(t, "A100 SXM4 80GB", models[0].Name)
	})

	t.Run("Quantity options are capped", func(t *testing.T) {
		path := fmt.Sprintf("/racks/%d/models/%d/quantity-options", rackID, env.seeded.Models["A100 SXM4 80GB"].ID)
		w := doRequest(t, http.MethodGet, path, token, nil, http.StatusOK)
		assert.Equal(t, []int{1, 2, 3, 4}, decode[handlers.QuantityOptionsResponse](t, w).Options)
	})

	t.Run("Unknown rack", func(t *testing.T) {
		doRequest(t, http.MethodGet, "/racks/9999/models", token, nil, http.StatusNotFound)
		doRequest(t, http.MethodGet, "/racks/abc/models", token, nil, http.StatusBadRequest)
	})
}

// --------------------- Requests ---------------------
func TestRequestLifecycle(t *testing.T) {
	env := setupRouter(t)
	token, userID := signUp(t, "alice@lab.edu", "Alice")

	t.Run("Validation message is returned verbatim", func(t *testing.T) {
		form := env.form(2)
		form.AgreedToTerms = false
		w := doRequest(t, http.MethodPost, "/requests", token, form, http.StatusBadRequest)
		assert.Equal(t, request.MsgTermsNotAgreed, decode[response.ErrorResponse](t, w).Error)

		form = env.form(2)
		form.DurationDays = "45"
		w = doRequest(t, http.MethodPost, "/requests", token, form, http.StatusBadRequest)
		assert.Equal(t, request.MsgDurationRange, decode[response.ErrorResponse](t, w).Error)
	})

	t.Run("Quantity above available", func(t *testing.T) {
		form := env.form(2)
		form.GPUModelID = env.seeded.Models["V100 32GB"].ID
		doRequest(t, http.MethodPost, "/requests", token, form, http.StatusBadRequest)
	})

	var created request.ResourceRequest
	t.Run("Submit takes GPUs from inventory", func(t *testing.T) {
		w := doRequest(t, http.MethodPost, "/requests", token, env.form(2), http.StatusCreated)
		var body struct {
			Message string                  `json:"message"`
			Data    request.ResourceRequest `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		created = body.Data
		assert.Equal(t, request.StatusPending, created.Status)
		assert.Equal(t, userID, created.UserID)
		assert.Equal(t, 4, env.available(t, token))
	})

	t.Run("History shows the request", func(t *testing.T) {
		w := doRequest(t, http.MethodGet, "/requests", token, nil, http.StatusOK)
		views := decode[[]request.View](t, w)
		require.Len(t, views, 1)
		assert.Equal(t, created.ID, views[0].ID)
		assert.Equal(t, "info", views[0].Display.Tone)
	})

	t.Run("Another user cannot withdraw it", func(t *testing.T) {
		other, _ := signUp(t, "bob@lab.edu", "Bob")
		doRequest(t, http.MethodDelete, fmt.Sprintf("/requests/%d", created.ID), other, nil, http.StatusNotFound)
	})

	t.Run("Withdraw restores inventory", func(t *testing.T) {
		w := doRequest(t, http.MethodDelete, fmt.Sprintf("/requests/%d", created.ID), token, nil, http.StatusOK)
		assert.Equal(t, "Request cancelled", decode[response.MessageResponse](t, w).Message)
		assert.Equal(t, 6, env.available(t, token))

		doRequest(t, http.MethodDelete, fmt.Sprintf("/requests/%d", created.ID), token, nil, http.StatusNotFound)
	})

	t.Run("Attachment without storage", func(t *testing.T) {
		w := doRequest(t, http.MethodPost, "/requests", token, env.form(1), http.StatusCreated)
		id := decode[struct {
			Data request.ResourceRequest `json:"data"`
		}](t, w).Data.ID
		doRequest(t, http.MethodGet, fmt.Sprintf("/requests/%d/attachment", id), token, nil, http.StatusServiceUnavailable)
	})
}

// --------------------- Admin ---------------------
func TestAdminRoutes(t *testing.T) {
	env := setupRouter(t)
	userToken, userID := signUp(t, "alice@lab.edu", "Alice")
	adminToken, _ := signUp(t, "admin@lab.edu", "Admin")

	w := doRequest(t, http.MethodPost, "/requests", userToken, env.form(3), http.StatusCreated)
	reqID := decode[struct {
		Data request.ResourceRequest `json:"data"`
	}](t, w).Data.ID
	statusPath := fmt.Sprintf("/admin/requests/%d/status", reqID)

	t.Run("Non-admin is rejected", func(t *testing.T) {
		doRequest(t, http.MethodGet, "/admin/requests", userToken, nil, http.StatusForbidden)
		doRequest(t, http.MethodPut, statusPath, userToken, request.UpdateStatusDTO{Status: request.StatusApproved}, http.StatusForbidden)
	})

	t.Run("List by status", func(t *testing.T) {
		w := doRequest(t, http.MethodGet, "/admin/requests?status=pending", adminToken, nil, http.StatusOK)
		assert.Len(t, decode[[]request.View](t, w), 1)

		w = doRequest(t, http.MethodGet, "/admin/requests?status=approved", adminToken, nil, http.StatusOK)
		assert.Empty(t, decode[[]request.View](t, w))

		doRequest(t, http.MethodGet, "/admin/requests?status=bogus", adminToken, nil, http.StatusBadRequest)
	})

	t.Run("Only approve or deny", func(t *testing.T) {
		doRequest(t, http.MethodPut, statusPath, adminToken, map[string]string{"status": "expired"}, http.StatusBadRequest)
	})

	t.Run("Deny restores inventory once", func(t *testing.T) {
		assert.Equal(t, 3, env.available(t, userToken))

		w := doRequest(t, http.MethodPut, statusPath, adminToken, request.UpdateStatusDTO{Status: request.StatusDenied}, http.StatusOK)
		assert.Equal(t, request.StatusDenied, decode[request.ResourceRequest](t, w).Status)
		assert.Equal(t, 6, env.available(t, userToken))

		doRequest(t, http.MethodPut, statusPath, adminToken, request.UpdateStatusDTO{Status: request.StatusApproved}, http.StatusConflict)
		assert.Equal(t, 6, env.available(t, userToken))
	})

	t.Run("Unknown request", func(t *testing.T) {
		doRequest(t, http.MethodPut, "/admin/requests/9999/status", adminToken, request.UpdateStatusDTO{Status: request.StatusApproved}, http.StatusNotFound)
	})

	t.Run("Send notification", func(t *testing.T) {
		doRequest(t, http.MethodPost, "/admin/notifications", adminToken, notification.CreateNotificationDTO{
			UserID: "missing", Title: "Hi", Message: "There",
		}, http.StatusNotFound)

		w := doRequest(t, http.MethodPost, "/admin/notifications", adminToken, notification.CreateNotificationDTO{
			UserID: userID, Title: "Maintenance", Message: "gpu-node-01 reboots Friday",
		}, http.StatusCreated)
		n := decode[notification.Notification](t, w)
		assert.Equal(t, notification.TypeInfo, n.Type)
		assert.False(t, n.Read)
	})

	t.Run("Audit log query validation", func(t *testing.T) {
		doRequest(t, http.MethodGet, "/admin/audit/logs", adminToken, nil, http.StatusOK)
		doRequest(t, http.MethodGet, "/admin/audit/logs?start_time=yesterday", adminToken, nil, http.StatusBadRequest)
	})
}

// --------------------- Notifications ---------------------
func TestNotificationRoutes(t *testing.T) {
	setupRouter(t)
	userToken, userID := signUp(t, "alice@lab.edu", "Alice")
	adminToken, _ := signUp(t, "admin@lab.edu", "Admin")

	w := doRequest(t, http.MethodPost, "/admin/notifications", adminToken, notification.CreateNotificationDTO{
		UserID: userID, Title: "Welcome", Message: "Your account is ready", Type: notification.TypeSuccess,
	}, http.StatusCreated)
	created := decode[notification.Notification](t, w)

	w = doRequest(t, http.MethodGet, "/notifications/unread-count", userToken, nil, http.StatusOK)
	assert.Equal(t, int64(1), decode[response.CountResponse](t, w).Count)

	w = doRequest(t, http.MethodGet, "/notifications", userToken, nil, http.StatusOK)
	list := decode[[]notification.Notification](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	doRequest(t, http.MethodPut, "/notifications/unknown/read", userToken, nil, http.StatusNotFound)

	w = doRequest(t, http.MethodPut, "/notifications/"+created.ID+"/read", userToken, nil, http.StatusOK)
	assert.Equal(t, int64(0), decode[response.CountResponse](t, w).Count)

	w = doRequest(t, http.MethodPut, "/notifications/read-all", userToken, nil, http.StatusOK)
	assert.Equal(t, int64(0), decode[response.CountResponse](t, w).Count)
}

// --------------------- Dashboard ---------------------
func TestDashboardRoute(t *testing.T) {
	env := setupRouter(t)
	token, userID := signUp(t, "alice@lab.edu", "Alice")

	doRequest(t, http.MethodPost, "/requests", token, env.form(1), http.StatusCreated)

	w := doRequest(t, http.MethodGet, "/dashboard", token, nil, http.StatusOK)
	d := decode[application.Dashboard](t, w)
	assert.Equal(t, userID, d.User.ID)
	assert.Len(t, d.RecentRequests, 1)
	assert.Empty(t, d.ActiveResources)
}
