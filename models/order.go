package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OrderStatus represents all possible states of a food order
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusPreparing  OrderStatus = "preparing"
	StatusDelivering OrderStatus = "delivering"
	StatusDelivered  OrderStatus = "delivered"
	StatusCanceled   OrderStatus = "canceled"
)

// PaymentMethod is how the customer settles the order.
type PaymentMethod string

const (
	PaymentCOD   PaymentMethod = "cod"
	PaymentGCash PaymentMethod = "gcash"
	PaymentCard  PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentGCash || m == PaymentCard
}

// LocationType tags a tracking row as rider position or delivery target.
type LocationType string

const (
	LocationCurrent     LocationType = "current"
	LocationDestination LocationType = "destination"
)

type Order struct {
	ID              uint                 `json:"id" gorm:"primaryKey"`
	UserID          uint                 `json:"user_id" gorm:"not null;index"`
	User            *User                `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Total           decimal.Decimal      `json:"total" gorm:"type:decimal(10,2);not null"`
	PaymentMethod   PaymentMethod        `json:"payment_method" gorm:"not null"`
	Status          OrderStatus          `json:"status" gorm:"not null;default:'pending';index"`
	DeliveryAddress string               `json:"delivery_address" gorm:"not null"`
	Items           []OrderItem          `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Tracking        []OrderTracking      `json:"tracking,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory   []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time            `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"not null;index"`
	ProductID uint            `json:"product_id" gorm:"not null;index"`
	Product   *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"` // unit price snapshot at time of order
	Name      string          `json:"name"`                                     // snapshot name
}

// OrderTracking holds at most one row per (order, location type).
type OrderTracking struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	OrderID      uint         `json:"order_id" gorm:"not null;uniqueIndex:idx_tracking_order_type"`
	Latitude     float64      `json:"latitude" gorm:"not null"`
	Longitude    float64      `json:"longitude" gorm:"not null"`
	LocationName string       `json:"location_name"`
	LocationType LocationType `json:"location_type" gorm:"size:16;not null;uniqueIndex:idx_tracking_order_type"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (OrderTracking) TableName() string { return "order_tracking" }

type PaymentDetail struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	OrderID       uint           `json:"order_id" gorm:"not null;index"`
	PaymentMethod PaymentMethod  `json:"payment_method" gorm:"not null"`
	Details       datatypes.JSON `json:"details"`
	CreatedAt     time.Time      `json:"created_at"`
}

// OrderStatusHistory tracks every status change
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"not null;index"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  uint        `json:"changed_by"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}

// All lists every model for auto-migration.
var All = []interface{}{
	&User{},
	&Product{},
	&Order{},
	&OrderItem{},
	&OrderTracking{},
	&PaymentDetail{},
	&OrderStatusHistory{},
}
