package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/pizzanet/pizza-service/internal/auth"
	"github.com/pizzanet/pizza-service/internal/config"
	"github.com/pizzanet/pizza-service/internal/factory"
	"github.com/pizzanet/pizza-service/internal/models"
	"github.com/pizzanet/pizza-service/internal/storage/memory"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedFactory stands in for the external fulfillment collaborator.
type scriptedFactory struct {
	mu        sync.Mutex
	fail      bool
	reportURL string
}

func (f *scriptedFactory) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *scriptedFactory) Submit(_ context.Context, _ models.User, _ models.Order) (factory.Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return factory.Confirmation{}, &factory.SubmitError{ReportURL: f.reportURL, Err: fmt.Errorf("factory offline")}
	}
	return factory.Confirmation{Receipt: "factory.receipt.jwt"}, nil
}

func newTestServer(t *testing.T, fc *scriptedFactory) *httptest.Server {
	t.Helper()

	cfg := config.Config{
		Port:         "0",
		Version:      "test",
		StoreBackend: "memory",
		JWTSecret:    "test-secret",
		JWTIssuer:    "pizza-service",
		FactoryURL:   "https://factory.test",
		CORSOrigins:  []string{"*"},
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	sessions := auth.NewRedisSessionsFromClient(client)

	srv := New(cfg, zap.NewNop(), memory.NewStore(), sessions, fc)
	require.NoError(t, srv.Auth().Bootstrap(context.Background(), "admin", "a@jwt.com", "admin"))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func request(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

type authBody struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

var dinerSeq atomic.Int64

func registerDiner(t *testing.T, ts *httptest.Server) authBody {
	t.Helper()
	name := fmt.Sprintf("diner_%d", dinerSeq.Add(1))
	status, raw := request(t, ts, http.MethodPost, "/api/auth", "", map[string]string{
		"name":     name,
		"email":    name + "@test.com",
		"password": "a",
	})
	require.Equal(t, http.StatusOK, status)
	return decode[authBody](t, raw)
}

func loginAdmin(t *testing.T, ts *httptest.Server) authBody {
	t.Helper()
	status, raw := request(t, ts, http.MethodPut, "/api/auth", "", map[string]string{
		"email":    "a@jwt.com",
		"password": "admin",
	})
	require.Equal(t, http.StatusOK, status)
	return decode[authBody](t, raw)
}

func createFranchiseWithStore(t *testing.T, ts *httptest.Server, adminToken, name string) (models.Franchise, models.Store) {
	t.Helper()
	admin := loginAdmin(t, ts)
	status, raw := request(t, ts, http.MethodPost, "/api/franchise", adminToken, map[string]any{
		"name":   name,
		"admins": []map[string]string{{"email": admin.User.Email}},
	})
	require.Equal(t, http.StatusOK, status)
	f := decode[models.Franchise](t, raw)

	status, raw = request(t, ts, http.MethodPost, fmt.Sprintf("/api/franchise/%d/store", f.ID), adminToken, map[string]string{"name": "SLC"})
	require.Equal(t, http.StatusOK, status)
	st := decode[models.Store](t, raw)
	return f, st
}

func TestWelcomePage(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})

	status, raw := request(t, ts, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, status)
	body := decode[map[string]string](t, raw)
	assert.Equal(t, "welcome to JWT Pizza", body["message"])
	assert.NotEmpty(t, body["version"])
}

func TestDocsEndpoint(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})

	status, raw := request(t, ts, http.MethodGet, "/api/docs", "", nil)
	require.Equal(t, http.StatusOK, status)
	body := decode[map[string]any](t, raw)
	assert.NotEmpty(t, body["version"])
	assert.NotEmpty(t, body["endpoints"])
	assert.NotEmpty(t, body["config"])
}

func TestUnknownEndpoint(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})

	status, raw := request(t, ts, http.MethodGet, "/api/invalid", "", nil)
	require.Equal(t, http.StatusNotFound, status)
	body := decode[map[string]string](t, raw)
	assert.Equal(t, "unknown endpoint", body["message"])
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})

	status, raw := request(t, ts, http.MethodPost, "/api/auth", "", map[string]string{
		"name": "d1", "email": "d1@test.com", "password": "a",
	})
	require.Equal(t, http.StatusOK, status)
	body := decode[authBody](t, raw)
	assert.Equal(t, "d1", body.User.Name)
	assert.Equal(t, "d1@test.com", body.User.Email)
	assert.Regexp(t, regexp.MustCompile(`^[a-zA-Z0-9\-_.]+$`), body.Token)

	// The fresh token verifies back to the registered user.
	status, raw = request(t, ts, http.MethodGet, "/api/user/me", body.Token, nil)
	require.Equal(t, http.StatusOK, status)
	me := decode[models.User](t, raw)
	assert.Equal(t, body.User.ID, me.ID)
	assert.Equal(t, "d1@test.com", me.Email)
}

func TestRegisterMissingFields(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})

	status, _ := request(t, ts, http.MethodPost, "/api/auth", "", map[string]string{"name": "test"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLoginAndWrongPassword(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})
	diner := registerDiner(t, ts)

	status, raw := request(t, ts, http.MethodPut, "/api/auth", "", map[string]string{
		"email": diner.User.Email, "password": "a",
	})
	require.Equal(t, http.StatusOK, status)
	body := decode[authBody](t, raw)
	assert.Equal(t, diner.User.ID, body.User.ID)

	// Bad login surfaces as 404, not 401.
	status, _ = request(t, ts, http.MethodPut, "/api/auth", "", map[string]string{
		"email": diner.User.Email, "password": "wrong",
	})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})
	diner := registerDiner(t, ts)

	status, raw := request(t, ts, http.MethodDelete, "/api/auth", diner.Token, nil)
	require.Equal(t, http.StatusOK, status)
	body := decode[map[string]string](t, raw)
	assert.Equal(t, "logout successful", body["message"])

	// The revoked token no longer authenticates.
	status, _ = request(t, ts, http.MethodGet, "/api/user/me", diner.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// A second logout of the same token is an authentication error.
	status, _ = request(t, ts, http.MethodDelete, "/api/auth", diner.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLogoutWithoutToken(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})

	status, _ := request(t, ts, http.MethodDelete, "/api/auth", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestListFranchisesIsPublic(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})

	status, raw := request(t, ts, http.MethodGet, "/api/franchise", "", nil)
	require.Equal(t, http.StatusOK, status)
	body := decode[map[string][]models.Franchise](t, raw)
	_, ok := body["franchises"]
	assert.True(t, ok)
}

func TestCreateFranchise(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})
	admin := loginAdmin(t, ts)

	status, raw := request(t, ts, http.MethodPost, "/api/franchise", admin.Token, map[string]any{
		"name":   "F1",
		"admins": []map[string]string{{"email": admin.User.Email}},
	})
	require.Equal(t, http.StatusOK, status)
	f := decode[models.Franchise](t, raw)
	assert.Equal(t, "F1", f.Name)
	assert.NotZero(t, f.ID)
	assert.NotEmpty(t, f.Admins)
}

func TestCreateFranchiseAsNonAdmin(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})
	diner := registerDiner(t, ts)

	status, _ := request(t, ts, http.MethodPost, "/api/franchise", diner.Token, map[string]any{
		"name":   "hack",
		"admins": []map[string]string{{"email": diner.User.Email}},
	})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestCreateFranchiseUnknownAdmin(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})
	admin := loginAdmin(t, ts)

	status, _ := request(t, ts, http.MethodPost, "/api/franchise", admin.Token, map[string]any{
		"name":   "F1",
		"admins": []map[string]string{{"email": "ghost@test.com"}},
	})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGetUserFranchises(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})
	admin := loginAdmin(t, ts)
	createFranchiseWithStore(t, ts, admin.Token, "F1")

	status, raw := request(t, ts, http.MethodGet, fmt.Sprintf("/api/franchise/%d", admin.User.ID), admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[[]models.Franchise](t, raw)
	assert.NotEmpty(t, list)
}

func TestGetUserFranchisesAsDifferentUserReturnsEmpty(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})
	admin := loginAdmin(t, ts)
	createFranchiseWithStore(t, ts, admin.Token, "F1")
	diner := registerDiner(t, ts)

	// No access reads as an empty list, never as an error.
	status, raw := request(t, ts, http.MethodGet, fmt.Sprintf("/api/franchise/%d", admin.User.ID), diner.Token, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[[]models.Franchise](t, raw)
	assert.Empty(t, list)
}

func TestDeleteFranchiseCascades(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})
	admin := loginAdmin(t, ts)
	f, st := createFranchiseWithStore(t, ts, admin.Token, "F1")

	status, raw := request(t, ts, http.MethodDelete, fmt.Sprintf("/api/franchise/%d", f.ID), admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	body := decode[map[string]string](t, raw)
	assert.Equal(t, "franchise deleted", body["message"])

	// Store operations against the deleted franchise are NotFound.
	status, _ = request(t, ts, http.MethodPost, fmt.Sprintf("/api/franchise/%d/store", f.ID), admin.Token, map[string]string{"name": "SLC2"})
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = request(t, ts, http.MethodDelete, fmt.Sprintf("/api/franchise/%d/store/%d", f.ID, st.ID), admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreateStore(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})
	admin := loginAdmin(t, ts)
	_, st := createFranchiseWithStore(t, ts, admin.Token, "F1")

	assert.Equal(t, "SLC", st.Name)
	assert.NotZero(t, st.ID)
}

func TestStoreOperationsRequirePrivilege(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})
	admin := loginAdmin(t, ts)
	f, st := createFranchiseWithStore(t, ts, admin.Token, "F1")
	diner := registerDiner(t, ts)

	status, _ := request(t, ts, http.MethodPost, fmt.Sprintf("/api/franchise/%d/store", f.ID), diner.Token, map[string]string{"name": "SLC"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = request(t, ts, http.MethodDelete, fmt.Sprintf("/api/franchise/%d/store/%d", f.ID, st.ID), diner.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestDeleteStore(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})
	admin := loginAdmin(t, ts)
	f, st := createFranchiseWithStore(t, ts, admin.Token, "F1")

	status, raw := request(t, ts, http.MethodDelete, fmt.Sprintf("/api/franchise/%d/store/%d", f.ID, st.ID), admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	body := decode[map[string]string](t, raw)
	assert.Equal(t, "store deleted", body["message"])
}

func TestGetMenuIsPublic(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})

	status, raw := request(t, ts, http.MethodGet, "/api/order/menu", "", nil)
	require.Equal(t, http.StatusOK, status)
	menu := decode[[]models.MenuItem](t, raw)
	assert.NotNil(t, menu)
}

func TestAddMenuItem(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})
	admin := loginAdmin(t, ts)

	item := map[string]any{"title": "Test Pizza", "description": "A test pizza", "image": "pizza.png", "price": 0.001}
	status, raw := request(t, ts, http.MethodPut, "/api/order/menu", admin.Token, item)
	require.Equal(t, http.StatusOK, status)
	menu := decode[[]models.MenuItem](t, raw)
	require.Len(t, menu, 1)
	assert.Equal(t, "Test Pizza", menu[0].Title)

	// Non-admins, including franchisees, may not touch the menu.
	diner := registerDiner(t, ts)
	status, _ = request(t, ts, http.MethodPut, "/api/order/menu", diner.Token, item)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = request(t, ts, http.MethodPut, "/api/order/menu", "", item)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestGetOrders(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})
	diner := registerDiner(t, ts)

	status, raw := request(t, ts, http.MethodGet, "/api/order", diner.Token, nil)
	require.Equal(t, http.StatusOK, status)
	body := decode[map[string]any](t, raw)
	assert.Equal(t, float64(diner.User.ID), body["dinerId"])
	assert.NotNil(t, body["orders"])
}

func TestCreateOrder(t *testing.T) {
	fc := &scriptedFactory{}
	ts := newTestServer(t, fc)
	admin := loginAdmin(t, ts)
	f, st := createFranchiseWithStore(t, ts, admin.Token, "F1")
	diner := registerDiner(t, ts)

	order := map[string]any{
		"franchiseId": f.ID,
		"storeId":     st.ID,
		"items":       []map[string]any{{"menuId": 1, "description": "Veggie", "price": 0.05}},
	}
	status, raw := request(t, ts, http.MethodPost, "/api/order", diner.Token, order)
	require.Equal(t, http.StatusOK, status)
	body := decode[map[string]models.Order](t, raw)
	created := body["order"]
	assert.Equal(t, diner.User.ID, created.DinerID)
	assert.Equal(t, models.FulfillmentConfirmed, created.State)
	assert.Equal(t, "factory.receipt.jwt", created.FactoryReceipt)
}

func TestCreateOrderFactoryFailure(t *testing.T) {
	fc := &scriptedFactory{reportURL: "https://factory.test/report/1"}
	ts := newTestServer(t, fc)
	admin := loginAdmin(t, ts)
	f, st := createFranchiseWithStore(t, ts, admin.Token, "F1")
	diner := registerDiner(t, ts)

	fc.setFail(true)
	order := map[string]any{
		"franchiseId": f.ID,
		"storeId":     st.ID,
		"items":       []map[string]any{{"menuId": 1, "description": "Veggie", "price": 0.05}},
	}
	status, raw := request(t, ts, http.MethodPost, "/api/order", diner.Token, order)
	require.Equal(t, http.StatusInternalServerError, status)
	body := decode[map[string]string](t, raw)
	assert.Equal(t, "Failed to fulfill order at factory", body["message"])
	assert.Equal(t, "https://factory.test/report/1", body["reportUrl"])

	// The order survives the factory failure and is readable in its
	// failed state.
	status, raw = request(t, ts, http.MethodGet, "/api/order", diner.Token, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[struct {
		Orders []models.Order `json:"orders"`
	}](t, raw)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, models.FulfillmentFailed, list.Orders[0].State)
}

func TestCreateOrderUnknownFranchise(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})
	diner := registerDiner(t, ts)

	order := map[string]any{
		"franchiseId": 999,
		"storeId":     1,
		"items":       []map[string]any{{"menuId": 1, "price": 0.05}},
	}
	status, _ := request(t, ts, http.MethodPost, "/api/order", diner.Token, order)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGetCurrentUser(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})
	diner := registerDiner(t, ts)

	status, raw := request(t, ts, http.MethodGet, "/api/user/me", diner.Token, nil)
	require.Equal(t, http.StatusOK, status)
	me := decode[models.User](t, raw)
	assert.Equal(t, diner.User.Email, me.Email)
}

func TestUpdateUser(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})
	diner := registerDiner(t, ts)

	newEmail := "updated_" + diner.User.Email
	status, raw := request(t, ts, http.MethodPut, fmt.Sprintf("/api/user/%d", diner.User.ID), diner.Token, map[string]string{
		"email": newEmail, "password": "a",
	})
	require.Equal(t, http.StatusOK, status)
	body := decode[authBody](t, raw)
	assert.Equal(t, newEmail, body.User.Email)
	require.NotEmpty(t, body.Token)

	status, _ = request(t, ts, http.MethodGet, "/api/user/me", body.Token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestUpdateOtherUserIsForbidden(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})
	diner := registerDiner(t, ts)
	other := registerDiner(t, ts)

	status, _ := request(t, ts, http.MethodPut, fmt.Sprintf("/api/user/%d", other.User.ID), diner.Token, map[string]string{
		"email": "hacker@test.com",
	})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAdminCanUpdateAnyUser(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})
	diner := registerDiner(t, ts)
	admin := loginAdmin(t, ts)

	status, _ := request(t, ts, http.MethodPut, fmt.Sprintf("/api/user/%d", diner.User.ID), admin.Token, map[string]string{
		"email": diner.User.Email, "password": "a",
	})
	assert.Equal(t, http.StatusOK, status)
}

func TestUserStubs(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})
	diner := registerDiner(t, ts)

	status, raw := request(t, ts, http.MethodDelete, fmt.Sprintf("/api/user/%d", diner.User.ID), diner.Token, nil)
	require.Equal(t, http.StatusOK, status)
	body := decode[map[string]string](t, raw)
	assert.Equal(t, "not implemented", body["message"])

	status, raw = request(t, ts, http.MethodGet, "/api/user/", diner.Token, nil)
	require.Equal(t, http.StatusOK, status)
	body = decode[map[string]string](t, raw)
	assert.Equal(t, "not implemented", body["message"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, &scriptedFactory{})

	// Generate at least one counted request first.
	request(t, ts, http.MethodGet, "/", "", nil)

	status, raw := request(t, ts, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), "pizza_http_requests_total")
}
