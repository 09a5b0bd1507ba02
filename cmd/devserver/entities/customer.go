package entities

import (
	"time"

	"github.com/google/uuid"
)

// Customer places orders. Filters reach orders through the Orders
// navigation, e.g. orders.filter(status.eq('shipped')).
type Customer struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"not null;uniqueIndex"`
	Age       int       `json:"age"`
	VIP       bool      `json:"vip" gorm:"not null;default:false"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
	// PasswordHash must never be exposed.
	PasswordHash string `json:"-"`

	Orders []Order `json:"orders,omitempty" gorm:"foreignKey:CustomerID;references:ID"`
}

// Order belongs to a customer and lists the ordered products.
type Order struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Number     string    `json:"number" gorm:"not null;uniqueIndex"`
	CustomerID uint      `json:"customerId" gorm:"not null;index"`
	Status     string    `json:"status" gorm:"not null"`
	Total      float64   `json:"total" gorm:"not null"`
	PlacedAt   time.Time `json:"placedAt" gorm:"not null"`

	Customer *Customer  `json:"customer,omitempty" gorm:"foreignKey:CustomerID;references:ID"`
	Items    []LineItem `json:"items,omitempty" gorm:"foreignKey:OrderID;references:ID"`
}

// LineItem is one product line of an order.
type LineItem struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	OrderID   uint    `json:"orderId" gorm:"not null;index"`
	ProductID uint    `json:"productId" gorm:"not null"`
	Quantity  int     `json:"quantity" gorm:"not null"`
	UnitPrice float64 `json:"unitPrice" gorm:"not null"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID;references:ID"`
}

// GetSampleCustomers returns sample customers with their orders.
// Order numbers are random UUIDs.
func GetSampleCustomers() []Customer {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	order := func(id uint, status string, total float64, days int, items ...LineItem) Order {
		return Order{
			ID:       id,
			Number:   uuid.NewString(),
			Status:   status,
			Total:    total,
			PlacedAt: base.AddDate(0, 0, days),
			Items:    items,
		}
	}
	return []Customer{
		{
			ID: 1, Name: "Alice Johnson", Email: "alice@example.com", Age: 34, VIP: true, Country: "US",
			CreatedAt: base.AddDate(-1, 0, 0),
			Orders: []Order{
				order(1, "shipped", 1029.98, 2,
					LineItem{ProductID: 1, Quantity: 1, UnitPrice: 999.99},
					LineItem{ProductID: 2, Quantity: 1, UnitPrice: 29.99}),
				order(2, "pending", 39.95, 30, LineItem{ProductID: 5, Quantity: 1, UnitPrice: 39.95}),
			},
		},
		{
			ID: 2, Name: "Bob Smith", Email: "bob@example.com", Age: 17, Country: "GB",
			CreatedAt: base.AddDate(0, -6, 0),
			Orders: []Order{
				order(3, "cancelled", 15.50, 5, LineItem{ProductID: 3, Quantity: 1, UnitPrice: 15.50}),
			},
		},
		{
			ID: 3, Name: "Charlie Davis", Email: "charlie@example.com", Age: 52, VIP: true, Country: "DE",
			CreatedAt: base.AddDate(0, -2, 0),
			Orders: []Order{
				order(4, "shipped", 68.00, 12, LineItem{ProductID: 4, Quantity: 2, UnitPrice: 34.00}),
			},
		},
		{
			ID: 4, Name: "Diana Martinez", Email: "diana@example.com", Age: 28, Country: "ES",
			CreatedAt: base,
		},
		{
			ID: 5, Name: "陈伟", Email: "wei.chen@example.com", Age: 41, Country: "CN",
			CreatedAt: base.AddDate(0, 1, 0),
			Orders: []Order{
				order(5, "shipped", 59.98, 40, LineItem{ProductID: 2, Quantity: 2, UnitPrice: 29.99}),
			},
		},
	}
}
