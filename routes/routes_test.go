package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"food-ordering-api/config"
	"food-ordering-api/handlers"
	"food-ordering-api/middleware"
	"food-ordering-api/models"
	"food-ordering-api/services"
)

type testServer struct {
	router    *gin.Engine
	db        *gorm.DB
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg := config.Config{
		DBDriver:      "sqlite",
		DBDSN:         filepath.Join(dir, "api.db") + "?_pragma=busy_timeout(5000)",
		DBLogLevel:    "silent",
		AdminEmail:    "admin@example.com",
		AdminPassword: "admin123",
		AdminName:     "Admin",
	}
	db, err := config.OpenDB(cfg)
	require.NoError(t, err)
	require.NoError(t, config.EnsureAdmin(db, cfg))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	uploadDir := filepath.Join(dir, "uploads")
	tokens := middleware.NewTokenIssuer([]byte("test-secret"), time.Hour)
	h := handlers.New(handlers.Deps{
		Users:    services.NewUserService(db),
		Products: services.NewProductService(db),
		Orders:   services.NewOrderService(db),
		Reports:  services.NewReportService(db),
		Tokens:   tokens,
		Uploads:  handlers.NewUploadStore(uploadDir, 1<<20),
	})

	r := gin.New()
	SetupRoutes(r, h, tokens, db, uploadDir)
	return &testServer{router: r, db: db, uploadDir: uploadDir}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (s *testServer) registerCustomer(t *testing.T, name, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/register", "", gin.H{"full_name": name, "email": email, "password": "secret123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return s.login(t, email, "secret123")
}

func (s *testServer) seedProducts(t *testing.T) {
	t.Helper()
	for _, p := range []models.Product{
		{ID: 1, Name: "Chicken Adobo", Price: decimal.RequireFromString("150.00"), Category: models.CategoryMainCourses},
		{ID: 2, Name: "Halo-halo", Price: decimal.RequireFromString("80.00"), Category: models.CategoryDesserts},
	} {
		require.NoError(t, s.db.Create(&p).Error)
	}
}

func TestPlaceOrderUsesServerPrices(t *testing.T) {
	s := newTestServer(t)
	s.seedProducts(t)
	token := s.registerCustomer(t, "Ana Reyes", "ana@example.com")

	w := s.do(t, http.MethodPost, "/api/orders", token, gin.H{
		"items": []gin.H{
			{"id": 1, "quantity": 2, "price": 1},
			{"product_id": 2, "quantity": 1},
		},
		"payment_method":   "cod",
		"delivery_address": "12 Mabini St",
		"latitude":         14.6,
		"longitude":        120.98,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "380.00", body["total"])
	assert.NotZero(t, body["order_id"])

	list := s.do(t, http.MethodGet, "/api/orders", token, nil)
	require.Equal(t, http.StatusOK, list.Code)
	var orders []map[string]interface{}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, "380.00", orders[0]["total"])
	assert.Equal(t, "pending", orders[0]["status"])
	assert.Len(t, orders[0]["items"], 2)

	detail := s.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%v", body["order_id"]), token, nil)
	require.Equal(t, http.StatusOK, detail.Code, detail.Body.String())
	order := decode(t, detail)["order"].(map[string]interface{})
	assert.Equal(t, "380.00", order["total"])
	firstItem := order["items"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "150.00", firstItem["price"])

	product := decode(t, s.do(t, http.MethodGet, "/api/products/2", "", nil))["product"].(map[string]interface{})
	assert.Equal(t, "80.00", product["price"])
}

func TestPlaceOrderMasksLongCardNumber(t *testing.T) {
	s := newTestServer(t)
	s.seedProducts(t)
	token := s.registerCustomer(t, "Ivy", "ivy@example.com")

	w := s.do(t, http.MethodPost, "/api/orders", token, json.RawMessage(`{
		"items": [{"id": 2, "quantity": 1}],
		"payment_method": "card",
		"payment_details": {"number": 4111111111111111234, "expiry": "12/29", "cvv": "123"},
		"delivery_address": "Alabang"
	}`))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var payment models.PaymentDetail
	require.NoError(t, s.db.First(&payment).Error)
	var details map[string]interface{}
	require.NoError(t, json.Unmarshal(payment.Details, &details))
	assert.Equal(t, "**** **** **** 1234", details["number"])
	assert.Equal(t, "12/29", details["expiry"])
	assert.NotContains(t, details, "cvv")
}

func TestPlaceOrderValidation(t *testing.T) {
	s := newTestServer(t)
	s.seedProducts(t)
	token := s.registerCustomer(t, "Ben", "ben@example.com")

	cases := map[string]gin.H{
		"no items":         {"items": []gin.H{}, "payment_method": "cod", "delivery_address": "x"},
		"zero quantity":    {"items": []gin.H{{"id": 1, "quantity": 0}}, "payment_method": "cod", "delivery_address": "x"},
		"unknown method":   {"items": []gin.H{{"id": 1, "quantity": 1}}, "payment_method": "barter", "delivery_address": "x"},
		"missing address":  {"items": []gin.H{{"id": 1, "quantity": 1}}, "payment_method": "cod"},
		"unknown product":  {"items": []gin.H{{"id": 99, "quantity": 1}}, "payment_method": "cod", "delivery_address": "x"},
		"half coordinates": {"items": []gin.H{{"id": 1, "quantity": 1}}, "payment_method": "cod", "delivery_address": "x", "latitude": 14.0},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/orders", token, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, false, decode(t, w)["success"])
		})
	}

	var n int64
	require.NoError(t, s.db.Model(&models.Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestAuthGates(t *testing.T) {
	s := newTestServer(t)
	token := s.registerCustomer(t, "Cara", "cara@example.com")

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/orders", "", nil).Code)

	adminRoutes := []struct{ method, path string }{
		{http.MethodGet, "/api/admin/orders"},
		{http.MethodPost, "/api/admin/orders/status"},
		{http.MethodPost, "/api/admin/orders/location"},
		{http.MethodDelete, "/api/admin/orders/1"},
		{http.MethodGet, "/api/admin/stats"},
		{http.MethodGet, "/api/admin/sales-report"},
		{http.MethodPost, "/api/products"},
		{http.MethodPut, "/api/products/1"},
		{http.MethodDelete, "/api/products/1"},
		{http.MethodGet, "/api/users"},
		{http.MethodPut, "/api/users/1"},
		{http.MethodDelete, "/api/users/1"},
	}
	for _, route := range adminRoutes {
		w := s.do(t, route.method, route.path, token, gin.H{})
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", route.method, route.path)
	}

	other := s.do(t, http.MethodGet, "/api/orders?user_id=1", token, nil)
	assert.Equal(t, http.StatusForbidden, other.Code)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/products", "", nil).Code)
}

func TestAdminOrderLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.seedProducts(t)
	customer := s.registerCustomer(t, "Dina", "dina@example.com")
	admin := s.login(t, "admin@example.com", "admin123")

	placed := decode(t, s.do(t, http.MethodPost, "/api/orders", customer, gin.H{
		"items":            []gin.H{{"id": 1, "quantity": 1}},
		"payment_method":   "gcash",
		"delivery_address": "Makati",
	}))
	orderID := placed["order_id"]

	skip := s.do(t, http.MethodPost, "/api/admin/orders/status", admin, gin.H{"order_id": orderID, "new_status": "preparing"})
	require.Equal(t, http.StatusConflict, skip.Code, skip.Body.String())
	body := decode(t, skip)
	assert.Equal(t, "pending", body["current_status"])
	assert.Equal(t, []interface{}{"confirmed"}, body["valid_next_states"])

	for _, next := range []string{"confirmed", "preparing", "delivering"} {
		w := s.do(t, http.MethodPost, "/api/admin/orders/status", admin, gin.H{"order_id": orderID, "new_status": next})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	loc := s.do(t, http.MethodPost, "/api/admin/orders/location", admin, gin.H{
		"order_id": orderID, "latitude": 14.55, "longitude": 121.02, "location_name": "EDSA",
	})
	require.Equal(t, http.StatusOK, loc.Code, loc.Body.String())

	missing := s.do(t, http.MethodPost, "/api/admin/orders/location", admin, gin.H{
		"order_id": orderID, "longitude": 121.02, "location_name": "EDSA",
	})
	assert.Equal(t, http.StatusBadRequest, missing.Code)

	list := s.do(t, http.MethodGet, "/api/admin/orders?status=delivering", admin, nil)
	require.Equal(t, http.StatusOK, list.Code)
	var orders []map[string]interface{}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, "EDSA", orders[0]["current_location_name"])
	assert.Equal(t, services.DestinationFromSnapshot, orders[0]["destination_source"])

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/admin/orders?status=lost", admin, nil).Code)

	del := s.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/orders/%v", orderID), admin, nil)
	require.Equal(t, http.StatusOK, del.Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/orders/%v", orderID), admin, nil).Code)
}

func TestDuplicateRegistration(t *testing.T) {
	s := newTestServer(t)
	s.registerCustomer(t, "Eli", "eli@example.com")

	w := s.do(t, http.MethodPost, "/api/register", "", gin.H{"full_name": "Eli", "email": "ELI@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	bad := s.do(t, http.MethodPost, "/api/register", "", gin.H{"full_name": "Eli", "email": "not-an-email", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Contains(t, decode(t, bad)["error"], "email")

	wrong := s.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "eli@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
}

func multipartProfile(t *testing.T, fields map[string]string, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("profile_picture", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func (s *testServer) putProfile(t *testing.T, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/api/user/profile", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestProfileUploadReplacesPicture(t *testing.T) {
	s := newTestServer(t)
	token := s.registerCustomer(t, "Fe", "fe@example.com")

	body, ct := multipartProfile(t, map[string]string{
		"full_name": "Fe Santos",
		"address":   "Pasig",
		"latitude":  "14.57",
		"longitude": "121.08",
	}, "me.png", []byte("first"))
	w := s.putProfile(t, token, body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	user := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "Fe Santos", user["full_name"])
	assert.Equal(t, "Pasig", user["delivery_address"])
	first := user["profile_picture"].(string)
	firstPath := filepath.Join(s.uploadDir, filepath.Base(first))
	assert.FileExists(t, firstPath)

	body, ct = multipartProfile(t, nil, "me.webp", []byte("second"))
	w = s.putProfile(t, token, body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	second := decode(t, w)["user"].(map[string]interface{})["profile_picture"].(string)
	assert.NotEqual(t, first, second)
	assert.NoFileExists(t, firstPath)

	content, err := os.ReadFile(filepath.Join(s.uploadDir, filepath.Base(second)))
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	body, ct = multipartProfile(t, nil, "script.exe", []byte("nope"))
	assert.Equal(t, http.StatusBadRequest, s.putProfile(t, token, body, ct).Code)

	body, ct = multipartProfile(t, map[string]string{"latitude": "north"}, "", nil)
	assert.Equal(t, http.StatusBadRequest, s.putProfile(t, token, body, ct).Code)
}

func TestProfileRejectsOversizedForm(t *testing.T) {
	s := newTestServer(t)
	token := s.registerCustomer(t, "Jo", "jo@example.com")

	body, ct := multipartProfile(t, map[string]string{"full_name": "Jo Big"}, "huge.png", bytes.Repeat([]byte("x"), 3<<20))
	w := s.putProfile(t, token, body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())

	entries, err := os.ReadDir(s.uploadDir)
	if err == nil {
		assert.Empty(t, entries)
	}

	profile := decode(t, s.do(t, http.MethodGet, "/api/user/profile", token, nil))["user"].(map[string]interface{})
	assert.Equal(t, "Jo", profile["full_name"])
	assert.Nil(t, profile["profile_picture"])
}

func TestAccountSelfService(t *testing.T) {
	s := newTestServer(t)
	s.seedProducts(t)
	token := s.registerCustomer(t, "Gio", "gio@example.com")

	w := s.do(t, http.MethodPost, "/api/user/change-password", token, gin.H{"current_password": "secret123", "new_password": "newsecret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	s.login(t, "gio@example.com", "newsecret")

	s.do(t, http.MethodPost, "/api/orders", token, gin.H{
		"items": []gin.H{{"id": 2, "quantity": 1}}, "payment_method": "cod", "delivery_address": "Taguig",
	})

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodDelete, "/api/user/account", token, gin.H{"password": "secret123"}).Code)

	w = s.do(t, http.MethodDelete, "/api/user/account", token, gin.H{"password": "newsecret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/user/profile", token, nil).Code)
	var n int64
	require.NoError(t, s.db.Model(&models.Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestReportsEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.seedProducts(t)
	customer := s.registerCustomer(t, "Hana", "hana@example.com")
	admin := s.login(t, "admin@example.com", "admin123")

	s.do(t, http.MethodPost, "/api/orders", customer, gin.H{
		"items": []gin.H{{"id": 1, "quantity": 2}}, "payment_method": "cod", "delivery_address": "Manila",
	})

	stats := s.do(t, http.MethodGet, "/api/admin/stats?view=monthly", admin, nil)
	require.Equal(t, http.StatusOK, stats.Code)
	payload := decode(t, stats)["stats"].(map[string]interface{})
	assert.Equal(t, "300.00", payload["total_sales"])
	assert.Len(t, payload["series"], 30)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/admin/stats?view=hourly", admin, nil).Code)

	report := decode(t, s.do(t, http.MethodGet, "/api/admin/sales-report", admin, nil))
	summary := report["summary"].(map[string]interface{})
	assert.Equal(t, "300.00", summary["daily_sales"])
	top := report["topItems"].([]interface{})
	require.Len(t, top, 1)
	assert.Equal(t, "Chicken Adobo", top[0].(map[string]interface{})["name"])
}
