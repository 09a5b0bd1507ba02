package ameba

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Customer struct {
	ID     uint    `json:"id" gorm:"primarykey"`
	Name   string  `json:"name"`
	Age    int     `json:"age"`
	VIP    bool    `json:"vip"`
	Secret string  `json:"-"`
	Orders []Order `json:"orders,omitempty"`
}

type Order struct {
	ID         uint    `json:"id" gorm:"primarykey"`
	CustomerID uint    `json:"customerId"`
	Status     string  `json:"status"`
	Total      float64 `json:"total"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&Customer{}, &Order{}); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	customers := []Customer{
		{ID: 1, Name: "Alice", Age: 34, VIP: true, Secret: "a", Orders: []Order{
			{ID: 1, Status: "paid", Total: 120},
			{ID: 2, Status: "void", Total: 5},
		}},
		{ID: 2, Name: "Bob", Age: 17, Secret: "b", Orders: []Order{
			{ID: 3, Status: "paid", Total: 20},
		}},
		{ID: 3, Name: "Carol", Age: 52, VIP: true, Secret: "c"},
	}
	if err := db.Create(&customers).Error; err != nil {
		t.Fatalf("Failed to seed customers: %v", err)
	}
	return db
}

func setupTestService(t *testing.T, opts ...Option) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	service, err := NewService(db, opts...)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	if err := service.RegisterEntity(&Customer{}); err != nil {
		t.Fatalf("Failed to register Customer: %v", err)
	}
	if err := service.RegisterEntity(&Order{}); err != nil {
		t.Fatalf("Failed to register Order: %v", err)
	}
	return service, db
}
