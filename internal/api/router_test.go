package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/tailorshop/config"
	"github.com/d60-Lab/tailorshop/internal/api/handler"
	"github.com/d60-Lab/tailorshop/internal/model"
	"github.com/d60-Lab/tailorshop/internal/service"
)

type nullMailer struct{}

func (nullMailer) Send(to, subject, body string) error { return nil }

func setupRouter(t *testing.T) (*gorm.DB, http.Handler, *service.UserService) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))
	require.NoError(t, model.SeedReferenceData(db))

	pricing := config.PricingConfig{
		TaxRatePercent:          18,
		UrgencySurchargePercent: 20,
		InvoiceDueDays:          7,
		OrderNumberPrefix:       "ORD",
		InvoiceNumberPrefix:     "INV",
	}
	gatewayCfg := config.GatewayConfig{KeySecret: "s", WebhookSecret: "ws", Currency: "INR"}

	audit := service.NewAuditService()
	users := service.NewUserService(db, config.JWTConfig{Secret: "router-test", TTL: time.Hour})
	customers := service.NewCustomerService(db, users, audit)
	inventory := service.NewInventoryService(db, audit)
	billing := service.NewBillingService(db, pricing)
	notifications := service.NewNotificationService(db, nullMailer{}, config.DispatcherConfig{})
	policy := service.DefaultTransitionPolicy()
	orders := service.NewOrderService(db, pricing, policy, billing, inventory, notifications, audit)
	trials := service.NewTrialService(db, billing, notifications, audit)
	gateway := service.NewHMACGateway(gatewayCfg)
	payments := service.NewPaymentService(db, gateway, gatewayCfg, billing, notifications, audit)
	reports := service.NewReportService(db, nil, time.Minute)

	h := handler.New(users, customers, orders, trials, inventory, billing, payments, reports, notifications)
	return db, NewRouter("test", h, users, false), users
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "identity")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthGuardRejectsAnonymous(t *testing.T) {
	_, r, _ := setupRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/orders?status=booked", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterLoginAndRoleGuard(t *testing.T) {
	_, r, _ := setupRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"username": "frontdesk",
		"email":    "frontdesk@shop.test",
		"password": "password123",
		"roles":    []string{model.RoleStaff},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "frontdesk",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var loginResp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))
	staffToken := loginResp.Data.Token
	require.NotEmpty(t, staffToken)

	// staff may create customers
	w = doJSON(t, r, http.MethodPost, "/api/v1/customers", staffToken, map[string]interface{}{
		"username":     "walkin",
		"email":        "walkin@customer.test",
		"password":     "password123",
		"full_name":    "Walk In",
		"phone_number": "9999999999",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// a tailor may not
	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"username": "stitcher",
		"email":    "stitcher@shop.test",
		"password": "password123",
		"roles":    []string{model.RoleTailor},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "stitcher",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))

	w = doJSON(t, r, http.MethodPost, "/api/v1/customers", loginResp.Data.Token, map[string]interface{}{
		"username":     "another",
		"email":        "another@customer.test",
		"password":     "password123",
		"full_name":    "Another",
		"phone_number": "8888888888",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	_, r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook",
		bytes.NewBufferString(`{"event_id":"evt_1","event":"payment.captured","payload":{}}`))
	req.Header.Set("X-Webhook-Signature", "forged")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
