package order

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the upstream lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusConfirmed  Status = "Confirmed"
	StatusAccepted   Status = "Accepted"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// ProductLine is a single line item as the REST API stores it.
type ProductLine struct {
	ProductID       string  `json:"productId"`
	ProductName     string  `json:"productName"`
	ProductPrice    float64 `json:"productPrice"`
	ProductQuantity int     `json:"productQuantity"`
}

// Order is owned by the REST API; this service only holds read copies.
type Order struct {
	ID             primitive.ObjectID `json:"_id"`
	OrderID        string             `json:"orderId"`
	CustomerName   string             `json:"customerName"`
	CustomerPhone  string             `json:"customerPhone"`
	CustomerEmail  string             `json:"customerEmail,omitempty"`
	DeliverAddress string             `json:"deliverAddress"`
	Area           string             `json:"area"`
	City           string             `json:"city,omitempty"`
	PostalCode     string             `json:"postalCode,omitempty"`
	PaymentMethod  string             `json:"paymentMethod,omitempty"`
	InsideDhaka    bool               `json:"insideDhaka,omitempty"`
	ShippingCost   float64            `json:"shippingCost,omitempty"`
	Discount       float64            `json:"discount,omitempty"`
	Products       []ProductLine      `json:"products"`
	TotalAmount    float64            `json:"totalAmount"`
	OrderStatus    Status             `json:"orderStatus"`
	Notes          string             `json:"notes,omitempty"`
	InvoiceURL     string             `json:"invoiceUrl,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// ItemCount is the sum of product quantities.
func (o Order) ItemCount() int {
	n := 0
	for _, p := range o.Products {
		n += p.ProductQuantity
	}
	return n
}

// CreateOrderRequest is the body of POST /order/add-order.
type CreateOrderRequest struct {
	CustomerName   string        `json:"customerName"`
	CustomerPhone  string        `json:"customerPhone"`
	DeliverAddress string        `json:"deliverAddress"`
	Area           string        `json:"area"`
	Notes          string        `json:"notes"`
	Products       []ProductLine `json:"products"`
	TotalAmount    float64       `json:"totalAmount"`
}

// CancelRequest must echo the order id back as explicit confirmation.
type CancelRequest struct {
	ConfirmOrderID string `json:"confirmOrderId"`
}
