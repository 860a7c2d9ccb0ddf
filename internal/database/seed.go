package database

import (
	"brigade/internal/models"

	"github.com/jinzhu/gorm"
)

func intPtr(v int) *int { return &v }

// Seed ensures a usable default catalog and station layout exists.
// Dev bootstrap only; production data comes from the catalog and
// kitchen-admin subsystems.
func Seed(db *gorm.DB) error {
	var stationCount int
	db.Model(&models.Station{}).Count(&stationCount)
	if stationCount == 0 {
		defaultStations := []models.Station{
			{Name: "Grill", Type: models.StationTypeGrill, StepOrder: intPtr(1), DisplayLimit: 8, MaxCapacity: 10, Categories: models.UintSlice{1}, Active: true},
			{Name: "Fryer", Type: models.StationTypeFry, StepOrder: intPtr(1), DisplayLimit: 6, MaxCapacity: 8, Categories: models.UintSlice{2}, Active: true},
			{Name: "Assembly", Type: models.StationTypeAssembly, StepOrder: intPtr(2), DisplayLimit: 10, MaxCapacity: 12, Categories: models.UintSlice{1, 2}, Active: true},
			{Name: "Bar", Type: models.StationTypeBar, DisplayLimit: 6, MaxCapacity: 6, Categories: models.UintSlice{3}, Active: true, Independent: true},
		}
		for _, station := range defaultStations {
			if err := db.Create(&station).Error; err != nil {
				return err
			}
		}
	}

	var productCount int
	db.Model(&models.Product{}).Count(&productCount)
	if productCount == 0 {
		defaultProducts := []models.Product{
			{Name: "Classic Burger", CategoryID: 1, Price: 8.50, Available: true},
			{Name: "Cheeseburger", CategoryID: 1, Price: 9.25, Available: true},
			{Name: "Fries", CategoryID: 2, Price: 3.00, Available: true},
			{Name: "Onion Rings", CategoryID: 2, Price: 3.75, Available: true},
			{Name: "Lemonade", CategoryID: 3, Price: 2.50, Available: true},
			{Name: "Iced Tea", CategoryID: 3, Price: 2.25, Available: true},
		}
		for _, product := range defaultProducts {
			if err := db.Create(&product).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
