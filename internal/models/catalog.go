package models

import (
	"github.com/jinzhu/gorm"
)

// Product is a catalog item referenced by order lines. The catalog
// subsystem owns it; this core reads it and caches it by id.
type Product struct {
	gorm.Model
	CategoryID uint
	Name       string
	Price      float64
	Available  bool
}

// TableName sets the table name for Product
func (Product) TableName() string {
	return "products"
}
