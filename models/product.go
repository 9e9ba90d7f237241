package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Menu categories shown in the storefront.
const (
	CategoryAppetizers  = "Appetizers"
	CategoryMainCourses = "Main Courses"
	CategoryDesserts    = "Desserts"
	CategoryBeverages   = "Beverages"
)

var Categories = []string{CategoryAppetizers, CategoryMainCourses, CategoryDesserts, CategoryBeverages}

// ValidCategory reports whether c is one of Categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"not null"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Category    string          `json:"category" gorm:"index"`
	ImageURL    string          `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
