package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/jinzhu/gorm"
)

// UintSlice represents a set of ids that can be stored in the database
type UintSlice []uint

// Value converts the slice to a JSON string for storage
func (s UintSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	return json.Marshal(s)
}

// Scan converts the database value back to a slice
func (s *UintSlice) Scan(value interface{}) error {
	if value == nil {
		*s = UintSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported type for UintSlice")
	}
}

// Contains reports whether id is in the set
func (s UintSlice) Contains(id uint) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// StationType identifies the kind of preparation a station performs
type StationType string

const (
	StationTypeGrill    StationType = "grill"
	StationTypeFry      StationType = "fry"
	StationTypeAssembly StationType = "assembly"
	StationTypeBar      StationType = "bar"
	StationTypePrep     StationType = "prep"
	StationTypeDessert  StationType = "dessert"
)

// KnownStationTypes lists every valid station type.
var KnownStationTypes = []StationType{
	StationTypeGrill,
	StationTypeFry,
	StationTypeAssembly,
	StationTypeBar,
	StationTypePrep,
	StationTypeDessert,
}

// Valid reports whether the type is one of the known enum values
func (t StationType) Valid() bool {
	for _, known := range KnownStationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Station is a kitchen preparation station. StepOrder is nil for
// independent stations that do not wait on the step sequence.
// CurrentLoad and MaxCapacity are informational; assignment performs
// no admission control.
type Station struct {
	gorm.Model
	Name         string      `gorm:"size:30"`
	Type         StationType `gorm:"size:20"`
	StepOrder    *int
	DisplayLimit int
	CurrentLoad  int
	MaxCapacity  int
	Categories   UintSlice `gorm:"type:text"`
	Active       bool
	Independent  bool
}

// TableName sets the table name for Station
func (Station) TableName() string {
	return "stations"
}

// SeesCategory reports whether the station is configured to see the
// given product category.
func (s *Station) SeesCategory(categoryID uint) bool {
	return s.Categories.Contains(categoryID)
}
