package entities

import "time"

// ProductStatus is stored as a small integer.
type ProductStatus int32

const (
	ProductStatusDraft ProductStatus = iota
	ProductStatusActive
	ProductStatusDiscontinued
)

// Category groups products. Products reach it through Product.Category.
type Category struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	Name     string    `json:"name" gorm:"not null;uniqueIndex"`
	Products []Product `json:"products,omitempty" gorm:"foreignKey:CategoryID;references:ID"`
}

// Product is the main catalog entity of the development server.
type Product struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	SKU         string        `json:"sku" gorm:"not null;uniqueIndex"`
	Name        string        `json:"name" gorm:"not null"`
	Description *string       `json:"description"`
	Price       float64       `json:"price" gorm:"not null"`
	Stock       int           `json:"stock" gorm:"not null;default:0"`
	Status      ProductStatus `json:"status" gorm:"not null"`
	CategoryID  *uint         `json:"categoryId"`
	CreatedAt   time.Time     `json:"createdAt" gorm:"not null"`
	// CostPrice is loaded but cannot be filtered on or returned.
	CostPrice float64 `json:"-"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID;references:ID"`
	Tags     []Tag     `json:"tags,omitempty" gorm:"many2many:product_tags;"`
}

// Tag labels products, e.g. "sale" or "new".
type Tag struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null;uniqueIndex"`
}

func stringPtr(s string) *string {
	return &s
}

func uintPtr(v uint) *uint {
	return &v
}

// GetSampleCategories returns sample category data for seeding the database
func GetSampleCategories() []Category {
	return []Category{
		{ID: 1, Name: "Electronics"},
		{ID: 2, Name: "Kitchen"},
		{ID: 3, Name: "Books"},
	}
}

// GetSampleTags returns sample tag data for seeding the database
func GetSampleTags() []Tag {
	return []Tag{
		{ID: 1, Name: "sale"},
		{ID: 2, Name: "new"},
		{ID: 3, Name: "gift"},
	}
}

// GetSampleProducts returns sample product data for seeding the database.
func GetSampleProducts() []Product {
	created := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	tags := GetSampleTags()
	sale, newArrival, gift := tags[0], tags[1], tags[2]
	return []Product{
		{
			ID: 1, SKU: "EL-1001", Name: "Laptop", Price: 999.99, Stock: 12,
			Description: stringPtr("14 inch ultrabook with 16GB RAM"),
			Status:      ProductStatusActive, CategoryID: uintPtr(1), CreatedAt: created, CostPrice: 700,
			Tags: []Tag{newArrival},
		},
		{
			ID: 2, SKU: "EL-1002", Name: "Wireless Mouse", Price: 29.99, Stock: 150,
			Status: ProductStatusActive, CategoryID: uintPtr(1), CreatedAt: created.AddDate(0, 1, 0), CostPrice: 9,
			Tags: []Tag{sale, gift},
		},
		{
			ID: 3, SKU: "KI-2001", Name: "Coffee Mug", Price: 15.50, Stock: 0,
			Description: stringPtr("Ceramic mug, 350ml"),
			Status:      ProductStatusDiscontinued, CategoryID: uintPtr(2), CreatedAt: created.AddDate(0, 2, 3), CostPrice: 3,
			Tags: []Tag{gift},
		},
		{
			ID: 4, SKU: "KI-2002", Name: "French Press", Price: 34.00, Stock: 40,
			Status: ProductStatusActive, CategoryID: uintPtr(2), CreatedAt: created.AddDate(0, 3, 0), CostPrice: 12,
			Tags: []Tag{sale},
		},
		{
			ID: 5, SKU: "BO-3001", Name: "The Go Programming Language", Price: 39.95, Stock: 25,
			Description: stringPtr("Donovan and Kernighan"),
			Status:      ProductStatusActive, CategoryID: uintPtr(3), CreatedAt: created.AddDate(0, 4, 10), CostPrice: 20,
		},
		{
			ID: 6, SKU: "XX-0001", Name: "Mystery Box", Price: 9.99, Stock: 3,
			Status: ProductStatusDraft, CreatedAt: created.AddDate(0, 5, 0), CostPrice: 1,
		},
	}
}
