package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string

const (
	PaymentStatusAwaiting PaymentStatus = "awaiting_payment"
	PaymentStatusPaid     PaymentStatus = "paid"
)

type FulfillmentStatus string

const (
	FulfillmentPending   FulfillmentStatus = "pending"
	FulfillmentPreparing FulfillmentStatus = "preparing"
	FulfillmentShipped   FulfillmentStatus = "shipped"
	FulfillmentDelivered FulfillmentStatus = "delivered"
)

// FulfillmentSteps is the fixed progression rendered by the order tracker.
var FulfillmentSteps = []FulfillmentStatus{
	FulfillmentPending,
	FulfillmentPreparing,
	FulfillmentShipped,
	FulfillmentDelivered,
}

// ParseFulfillmentStatus maps a raw string onto the closed status set.
func ParseFulfillmentStatus(s string) (FulfillmentStatus, bool) {
	switch FulfillmentStatus(s) {
	case FulfillmentPending, FulfillmentPreparing, FulfillmentShipped, FulfillmentDelivered:
		return FulfillmentStatus(s), true
	}
	return "", false
}

// StepIndex returns the position of the status within FulfillmentSteps.
// Unset or unrecognized values render as step 0 (pending).
func (s FulfillmentStatus) StepIndex() int {
	for i, step := range FulfillmentSteps {
		if s == step {
			return i
		}
	}
	return 0
}

type CustomerInfo struct {
	FirstName string `bson:"firstName" json:"firstName"`
	LastName  string `bson:"lastName" json:"lastName"`
	Email     string `bson:"email" json:"email"`
	Phone     string `bson:"phone" json:"phone"`
	Address   string `bson:"address" json:"address"`
	Postcode  string `bson:"postcode" json:"postcode"`
	City      string `bson:"city" json:"city"`
	Country   string `bson:"country,omitempty" json:"country,omitempty"`
}

// MissingFields lists the required checkout fields that are empty.
func (c CustomerInfo) MissingFields() []string {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"email", c.Email},
		{"phone", c.Phone},
		{"firstName", c.FirstName},
		{"lastName", c.LastName},
		{"address", c.Address},
		{"postcode", c.Postcode},
		{"city", c.City},
	}
	for _, f := range required {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// OrderItem is a line-item snapshot taken at checkout. It is decoupled
// from the cart: later cart mutations never touch a created order.
type OrderItem struct {
	ProductID string  `bson:"id" json:"id"`
	Name      string  `bson:"name" json:"name"`
	Price     float64 `bson:"price" json:"price"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Image     string  `bson:"image,omitempty" json:"image,omitempty"`
	Size      string  `bson:"size,omitempty" json:"size,omitempty"`
}

type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Customer      CustomerInfo       `bson:"customer" json:"customer"`
	Items         []OrderItem        `bson:"items" json:"items"`
	Total         float64            `bson:"total" json:"total"`
	PaymentStatus PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	Status        FulfillmentStatus  `bson:"status" json:"status"`
	PaymentID     string             `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	PaidAt        *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
}
