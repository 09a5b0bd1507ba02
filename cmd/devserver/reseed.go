package main

import (
	"fmt"
	"log/slog"

	"github.com/icode/ameba/cmd/devserver/entities"
	"gorm.io/gorm"
)

// seedDatabase drops and recreates all tables, then loads the sample data.
func seedDatabase(db *gorm.DB, logger *slog.Logger) error {
	models := entities.All()
	// GORM orders the drops by foreign key dependencies.
	if err := db.Migrator().DropTable(append(models, "product_tags")...); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	categories := entities.GetSampleCategories()
	if err := db.Create(&categories).Error; err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	tags := entities.GetSampleTags()
	if err := db.Create(&tags).Error; err != nil {
		return fmt.Errorf("failed to seed tags: %w", err)
	}
	products := entities.GetSampleProducts()
	if err := db.Create(&products).Error; err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	// Orders and line items are created with their customers.
	customers := entities.GetSampleCustomers()
	if err := db.Create(&customers).Error; err != nil {
		return fmt.Errorf("failed to seed customers: %w", err)
	}
	users := entities.GetSampleUsers()
	if err := db.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Info("Database seeded",
		"categories", len(categories),
		"products", len(products),
		"customers", len(customers),
		"users", len(users))
	return nil
}
