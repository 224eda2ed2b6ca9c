package models

import "strings"

// Product is a sellable catalog item. Product lists are served newest first
// and always embed their category.
type Product struct {
	BaseModel

	Name          string    `gorm:"type:varchar(200);not null" json:"name"`
	Slug          string    `gorm:"type:varchar(220);not null;uniqueIndex" json:"slug"`
	Description   *string   `gorm:"type:text" json:"description"`
	Price         float64   `gorm:"not null" json:"price"`
	OriginalPrice *float64  `json:"originalPrice"`
	Discount      *string   `gorm:"type:varchar(40)" json:"discount"`
	Image         string    `gorm:"type:text;not null" json:"image"`
	Stock         int       `gorm:"not null;default:0" json:"stock"`
	Tag           *string   `gorm:"type:varchar(40)" json:"tag"`
	CategoryID    string    `gorm:"type:varchar(36);not null;index" json:"categoryId"`
	Category      *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category,omitempty"`
}

// Normalise trims free-text fields before persisting.
func (p *Product) Normalise() {
	p.Name = strings.TrimSpace(p.Name)
	p.Image = strings.TrimSpace(p.Image)
	p.CategoryID = strings.TrimSpace(p.CategoryID)
}
