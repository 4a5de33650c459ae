package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/tailorshop/config"
	"github.com/d60-Lab/tailorshop/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))
	require.NoError(t, model.SeedReferenceData(db))
	return db
}

func testPricing() config.PricingConfig {
	return config.PricingConfig{
		TaxRatePercent:          18,
		UrgencySurchargePercent: 20,
		InvoiceDueDays:          7,
		DefaultReorderThreshold: 5,
		OrderNumberPrefix:       "ORD",
		InvoiceNumberPrefix:     "INV",
	}
}

// fakeMailer records sends and can be told to fail.
type fakeMailer struct {
	mu    sync.Mutex
	sent  []string // recipient addresses in send order
	fails int      // fail this many sends before succeeding
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fails > 0 {
		m.fails--
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, to)
	return nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type testEnv struct {
	db            *gorm.DB
	mailer        *fakeMailer
	audit         *AuditService
	users         *UserService
	customers     *CustomerService
	inventory     *InventoryService
	billing       *BillingService
	notifications *NotificationService
	orders        *OrderService
	trials        *TrialService
	payments      *PaymentService
	gatewayCfg    config.GatewayConfig
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	pricing := testPricing()
	gatewayCfg := config.GatewayConfig{
		KeyID:         "key_test",
		KeySecret:     "secret_test",
		WebhookSecret: "whsec_test",
		Currency:      "INR",
	}

	mailer := &fakeMailer{}
	audit := NewAuditService()
	users := NewUserService(db, config.JWTConfig{Secret: "test-secret", TTL: time.Hour})
	customers := NewCustomerService(db, users, audit)
	inventory := NewInventoryService(db, audit)
	billing := NewBillingService(db, pricing)
	notifications := NewNotificationService(db, mailer, config.DispatcherConfig{
		Workers:      1,
		ClaimLimit:   64,
		PollInterval: 10 * time.Millisecond,
		MaxAttempts:  3,
	})
	policy := DefaultTransitionPolicy()
	orders := NewOrderService(db, pricing, policy, billing, inventory, notifications, audit)
	trials := NewTrialService(db, billing, notifications, audit)
	gateway := NewHMACGateway(gatewayCfg)
	payments := NewPaymentService(db, gateway, gatewayCfg, billing, notifications, audit)

	return &testEnv{
		db:            db,
		mailer:        mailer,
		audit:         audit,
		users:         users,
		customers:     customers,
		inventory:     inventory,
		billing:       billing,
		notifications: notifications,
		orders:        orders,
		trials:        trials,
		payments:      payments,
		gatewayCfg:    gatewayCfg,
	}
}

func (e *testEnv) staffActor(t *testing.T) Actor {
	t.Helper()
	user, err := e.users.Register(context.Background(), RegisterInput{
		Username: "staff-" + uuid.New().String()[:8],
		Email:    uuid.New().String()[:8] + "@shop.test",
		Password: "password123",
		Roles:    []string{model.RoleStaff},
	})
	require.NoError(t, err)
	return Actor{ID: user.ID, Roles: []string{model.RoleStaff}}
}

func (e *testEnv) actorWithRole(t *testing.T, role string) Actor {
	t.Helper()
	user, err := e.users.Register(context.Background(), RegisterInput{
		Username: role + "-" + uuid.New().String()[:8],
		Email:    uuid.New().String()[:8] + "@shop.test",
		Password: "password123",
		Roles:    []string{role},
	})
	require.NoError(t, err)
	return Actor{ID: user.ID, Roles: []string{role}}
}

func (e *testEnv) createCustomer(t *testing.T) *model.CustomerProfile {
	t.Helper()
	profile, err := e.customers.Create(context.Background(), e.staffActor(t), CreateCustomerInput{
		Username:     "cust-" + uuid.New().String()[:8],
		Email:        uuid.New().String()[:8] + "@customer.test",
		Password:     "password123",
		FullName:     "Test Customer",
		PhoneNumber:  "9999999999",
		AllowContact: true,
	})
	require.NoError(t, err)
	return profile
}

func (e *testEnv) createGarment(t *testing.T, name string, basePrice float64) *model.GarmentType {
	t.Helper()
	g := &model.GarmentType{
		ID:        uuid.New().String(),
		Name:      name,
		BasePrice: basePrice,
		IsActive:  true,
	}
	require.NoError(t, e.db.Create(g).Error)
	return g
}

func (e *testEnv) createWorkType(t *testing.T, name string, charge float64) *model.WorkType {
	t.Helper()
	wt := &model.WorkType{ID: uuid.New().String(), Name: name, ExtraCharge: charge}
	require.NoError(t, e.db.Create(wt).Error)
	return wt
}

func (e *testEnv) createFabric(t *testing.T, qty, threshold float64) *model.Fabric {
	t.Helper()
	fabric, err := e.inventory.CreateFabric(context.Background(), CreateFabricInput{
		Name:             "Fabric-" + uuid.New().String()[:8],
		Color:            "navy",
		CostPerMeter:     250,
		InitialQuantity:  qty,
		ReorderThreshold: threshold,
		RecordedByID:     "tester",
	})
	require.NoError(t, err)
	return fabric
}

func (e *testEnv) createOrder(t *testing.T, actor Actor, customerID, garmentID string, urgent bool) *model.Order {
	t.Helper()
	order, err := e.orders.Create(context.Background(), actor, CreateOrderInput{
		CustomerID:           customerID,
		GarmentTypeID:        garmentID,
		ExpectedDeliveryDate: time.Now().AddDate(0, 0, 14),
		IsUrgent:             urgent,
	})
	require.NoError(t, err)
	return order
}

// invoiceForOrder walks order -> bill -> invoice.
func (e *testEnv) invoiceForOrder(t *testing.T, orderID string) *model.Invoice {
	t.Helper()
	var bill model.OrderBill
	require.NoError(t, e.db.Where("order_id = ?", orderID).First(&bill).Error)
	var invoice model.Invoice
	require.NoError(t, e.db.Where("bill_id = ?", bill.ID).First(&invoice).Error)
	return &invoice
}
