package models

// Category groups products on the storefront. Category lists are served in
// name order.
type Category struct {
	BaseModel

	Name  string  `gorm:"type:varchar(120);not null;uniqueIndex" json:"name"`
	Image *string `gorm:"type:text" json:"image"`
}
