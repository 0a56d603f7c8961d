// models.go
package model

import "time"

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
)

// AllStatuses lists every valid order status.
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
	StatusRefunded,
}

func (s OrderStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Order struct {
	OrderID        string         `bson:"order_id" json:"orderId"`
	UserID         string         `bson:"user_id" json:"userId"`
	Status         OrderStatus    `bson:"status" json:"status"`
	Items          []OrderItem    `bson:"items" json:"items"`
	Subtotal       float64        `bson:"subtotal" json:"subtotal"`
	Tax            float64        `bson:"tax" json:"tax"`
	ShippingCost   float64        `bson:"shipping_cost" json:"shippingCost"`
	Total          float64        `bson:"total" json:"total"`
	PaymentDetails PaymentDetails `bson:"payment_details" json:"paymentDetails"`
	ShippingInfo   ShippingInfo   `bson:"shipping_info" json:"shippingInfo"`
	IdempotencyKey string         `bson:"idempotency_key,omitempty" json:"idempotencyKey,omitempty"`
	CreatedAt      time.Time      `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `bson:"updated_at" json:"updatedAt"`
	CompletedAt    *time.Time     `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
}

// OrderItem snapshots the product name and unit price at order time.
// The snapshot never changes even if the product does later.
type OrderItem struct {
	ProductID   string  `bson:"product_id" json:"productId"`
	ProductName string  `bson:"product_name" json:"productName"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	UnitPrice   float64 `bson:"unit_price" json:"unitPrice"`
	Subtotal    float64 `bson:"subtotal" json:"subtotal"`
}

type ShippingInfo struct {
	AddressLine1   string `bson:"address_line1" json:"addressLine1"`
	City           string `bson:"city" json:"city"`
	PostalCode     string `bson:"postal_code" json:"postalCode"`
	Province       string `bson:"province" json:"province"`
	Country        string `bson:"country" json:"country"`
	Method         string `bson:"method" json:"method"`
	Carrier        string `bson:"carrier,omitempty" json:"carrier,omitempty"`
	TrackingNumber string `bson:"tracking_number,omitempty" json:"trackingNumber,omitempty"`
}

type PaymentDetails struct {
	Method        string `bson:"method" json:"method"`
	TransactionID string `bson:"transaction_id" json:"transactionId"`
	Status        string `bson:"status" json:"status"`
}

// InventoryRecord is owned by the inventory ledger. Quantity only changes
// through the ledger's atomic reserve/release operations.
type InventoryRecord struct {
	ProductID    string    `bson:"product_id" json:"productId"`
	Quantity     int       `bson:"quantity" json:"quantity"`
	Location     string    `bson:"location" json:"location"`
	ReorderPoint int       `bson:"reorder_point" json:"reorderPoint"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

type Product struct {
	ProductID string  `bson:"product_id" json:"productId"`
	Name      string  `bson:"name" json:"name"`
	Price     float64 `bson:"price" json:"price"`
	Available bool    `bson:"available" json:"available"`
}

// TrackingView is a read-only projection of an order's delivery timeline,
// derived entirely from status and timestamps.
type TrackingView struct {
	OrderID           string          `json:"orderId"`
	Status            OrderStatus     `json:"status"`
	TrackingAvailable bool            `json:"trackingAvailable"`
	EstimatedShipping *time.Time      `json:"estimatedShipping,omitempty"`
	Carrier           string          `json:"carrier,omitempty"`
	TrackingNumber    string          `json:"trackingNumber,omitempty"`
	Events            []TrackingEvent `json:"events,omitempty"`
}

type TrackingEvent struct {
	Label     string    `json:"label"`
	Timestamp time.Time `json:"timestamp"`
}
