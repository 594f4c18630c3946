package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pasarlink/marketplace-backend/internal/installment"
	"github.com/pasarlink/marketplace-backend/internal/model"
	"github.com/pasarlink/marketplace-backend/internal/orderlock"
	"github.com/pasarlink/marketplace-backend/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Item{},
		&model.Order{},
		&model.OrderItem{},
		&model.InstallmentPlan{},
		&model.ScheduleEntry{},
		&model.InstallmentProof{},
		&model.Notification{},
		&model.AuditLog{},
	))
	return db
}

type fixture struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	locks     *orderlock.Registry
	guard     CancellationWindowGuard
	orders    OrderService
	inst      InstallmentService
	engine    *PenaltyEngine
	itemID    uint64
}

const (
	buyerUID  = "buyer-1"
	sellerUID = "seller-1"
)

func buyer() Actor  { return Actor{UID: buyerUID, Role: RoleBuyer} }
func seller() Actor { return Actor{UID: sellerUID, Role: RoleSeller} }
func admin() Actor  { return Actor{UID: "admin-1", Role: RoleAdmin} }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	itemRepo := repository.NewItemRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	locks := orderlock.NewRegistry()
	guard := NewCancellationWindowGuard(30 * time.Minute)
	notif := NewNotificationService(notifRepo)
	audit := NewAuditService(auditRepo)

	orders := NewOrderService(orderRepo, itemRepo, locks, guard, installment.HeuristicScorer{}, notif, audit, nil, nil)
	inst := NewInstallmentService(orderRepo, locks, notif, audit, nil, nil)
	engine := NewPenaltyEngine(orderRepo, locks, installment.FixedDailyPercentPolicy{DailyPercent: 1.0}, time.Hour, notif, audit, nil, nil)

	item := &model.Item{SellerUID: sellerUID, Title: "Espresso machine", Description: "test", Price: 10000, Stock: 5}
	require.NoError(t, itemRepo.Create(context.Background(), item))

	return &fixture{
		db:        db,
		orderRepo: orderRepo,
		locks:     locks,
		guard:     guard,
		orders:    orders,
		inst:      inst,
		engine:    engine,
		itemID:    item.ID,
	}
}

func (f *fixture) checkoutFull(t *testing.T, qty int) *model.Order {
	t.Helper()
	o, err := f.orders.Checkout(context.Background(), buyerUID, CheckoutInput{
		Items:           []CheckoutItem{{ItemID: f.itemID, Quantity: qty}},
		PaymentType:     model.PaymentTypeFull,
		DeliveryAddress: "Jl. Merdeka 1",
		DeliveryCity:    "Bandung",
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) checkoutInstallment(t *testing.T, qty, count, cadenceDays int) *model.Order {
	t.Helper()
	o, err := f.orders.Checkout(context.Background(), buyerUID, CheckoutInput{
		Items:           []CheckoutItem{{ItemID: f.itemID, Quantity: qty}},
		PaymentType:     model.PaymentTypeInstallment,
		DeliveryAddress: "Jl. Merdeka 1",
		DeliveryCity:    "Bandung",
		Installment:     &InstallmentInput{Count: count, CadenceDays: cadenceDays},
	})
	require.NoError(t, err)
	return o
}

// expireWindow forces the cancellation deadline into the past so seller
// transitions are no longer blocked.
func (f *fixture) expireWindow(t *testing.T, orderID uint64) {
	t.Helper()
	past := time.Now().Add(-time.Hour)
	require.NoError(t, f.db.Model(&model.Order{}).Where("id = ?", orderID).Update("cancel_deadline", past).Error)
}

func (f *fixture) reload(t *testing.T, orderID uint64) *model.Order {
	t.Helper()
	o, err := f.orderRepo.FindByID(context.Background(), orderID)
	require.NoError(t, err)
	return o
}

// activePlan moves a fresh installment order through seller sale
// confirmation so proofs are allowed.
func (f *fixture) activePlan(t *testing.T, qty, count, cadenceDays int) *model.Order {
	t.Helper()
	o := f.checkoutInstallment(t, qty, count, cadenceDays)
	o, err := f.inst.ConfirmSale(context.Background(), o.ID, seller(), true)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusInstallmentActive, o.Status)
	return o
}

const validCode = "1234567890"
