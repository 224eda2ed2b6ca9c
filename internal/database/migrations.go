package database

import (
	"gorm.io/gorm"

	"github.com/charlesng35/artisan/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.CacheEntry{},
	)
}

// DefaultCategories are inserted into an empty catalog on first start.
var DefaultCategories = []string{"Decor", "Lighting", "Textiles"}

// SeedData populates the default categories when the catalog has none.
func SeedData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, name := range DefaultCategories {
		category := models.Category{Name: name}
		if err := db.Where(models.Category{Name: name}).Attrs(category).FirstOrCreate(&models.Category{}).Error; err != nil {
			return err
		}
	}
	return nil
}
