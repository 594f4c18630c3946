package model

import "time"

type OrderStatus string

const (
	OrderStatusPending            OrderStatus = "pending"
	OrderStatusPendingInstallment OrderStatus = "pending_installment"
	OrderStatusInstallmentActive  OrderStatus = "installment_active"
	OrderStatusOverdueInstallment OrderStatus = "overdue_installment"
	OrderStatusConfirmed          OrderStatus = "confirmed"
	OrderStatusDelivering         OrderStatus = "delivering"
	OrderStatusDelivered          OrderStatus = "delivered"
	OrderStatusCompleted          OrderStatus = "completed"
	OrderStatusCancelled          OrderStatus = "cancelled"
)

type PaymentType string

const (
	PaymentTypeFull        PaymentType = "full"
	PaymentTypeInstallment PaymentType = "installment"
)

// SaleStatus tracks physical fulfillment of an installment order after the
// plan itself is fully paid. Empty until the order reaches completed.
type SaleStatus string

const (
	SaleStatusNone       SaleStatus = ""
	SaleStatusConfirmed  SaleStatus = "confirmed"
	SaleStatusDelivering SaleStatus = "delivering"
	SaleStatusDelivered  SaleStatus = "delivered"
	SaleStatusCancelled  SaleStatus = "cancelled"
)

type Order struct {
	ID          uint64      `gorm:"primaryKey;autoIncrement"`
	OrderNumber string      `gorm:"column:order_number;size:64;uniqueIndex;not null"`
	CustomerUID string      `gorm:"column:customer_uid;size:128;index;not null"`
	Status      OrderStatus `gorm:"column:status;size:32;index;not null"`
	PaymentType PaymentType `gorm:"column:payment_type;size:16;not null"`

	TotalAmount     int64 `gorm:"column:total_amount;not null"`
	PaidAmount      int64 `gorm:"column:paid_amount;not null"`
	RemainingAmount int64 `gorm:"column:remaining_amount;not null"`

	CancelDeadline      time.Time `gorm:"column:cancel_deadline;not null"`
	CancelWindowSkipped bool      `gorm:"column:cancel_window_skipped;not null"`

	CancellationReason string     `gorm:"column:cancellation_reason;type:text"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`

	DeliveryAddress string `gorm:"column:delivery_address;type:text"`
	DeliveryCity    string `gorm:"column:delivery_city;size:128"`

	SaleStatus SaleStatus `gorm:"column:sale_status;size:32"`

	// Version backs the optimistic write check; every persisted mutation
	// bumps it by one.
	Version uint64 `gorm:"column:version;not null;default:0"`

	Items           []OrderItem      `gorm:"foreignKey:OrderID"`
	InstallmentPlan *InstallmentPlan `gorm:"foreignKey:OrderID"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is a snapshot of a catalog item at purchase time. Snapshots are
// never re-fetched or re-priced after the order is created.
type OrderItem struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	OrderID   uint64 `gorm:"column:order_id;index;not null"`
	ItemID    uint64 `gorm:"column:item_id;index;not null"`
	SellerUID string `gorm:"column:seller_uid;size:128;index;not null"`
	Title     string `gorm:"column:title;size:120;not null"`
	UnitPrice int64  `gorm:"column:unit_price;not null"`
	Quantity  int    `gorm:"column:quantity;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// SellerUIDs returns the distinct sellers of this order's line items.
func (o *Order) SellerUIDs() []string {
	seen := make(map[string]struct{}, len(o.Items))
	uids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		if _, ok := seen[it.SellerUID]; ok {
			continue
		}
		seen[it.SellerUID] = struct{}{}
		uids = append(uids, it.SellerUID)
	}
	return uids
}

// HasSeller reports whether uid sells at least one of the order's items.
func (o *Order) HasSeller(uid string) bool {
	for _, it := range o.Items {
		if it.SellerUID == uid {
			return true
		}
	}
	return false
}

// IsInstallment reports whether the order is paid over an installment plan.
func (o *Order) IsInstallment() bool {
	return o.PaymentType == PaymentTypeInstallment
}

// AddressEditable reports whether the delivery address may still change.
func (o *Order) AddressEditable() bool {
	switch o.Status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPendingInstallment:
		return true
	}
	return false
}

// Terminal reports whether the order can accept no further mutation at all.
// completed is terminal for the payment dimension only; fulfillment of an
// installment sale continues through SaleStatus.
func (o *Order) Terminal() bool {
	return o.Status == OrderStatusCancelled
}
