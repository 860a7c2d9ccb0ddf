package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/jinzhu/gorm"
)

// OrderType represents how the customer receives the order
type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeout  OrderType = "takeout"
	OrderTypeDelivery OrderType = "delivery"
)

// Valid reports whether the type is one of the known enum values
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeDineIn, OrderTypeTakeout, OrderTypeDelivery:
		return true
	}
	return false
}

// OrderStatus represents the possible states of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ItemStatus represents the possible states of an order item
type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusPreparing ItemStatus = "preparing"
	ItemStatusDone      ItemStatus = "done"
)

// StepStatus represents the possible states of a workflow step
type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "in_progress"
	StepStatusCompleted  StepStatus = "completed"
	StepStatusCancelled  StepStatus = "cancelled"
)

// Terminal reports whether the step can no longer receive kitchen work
func (s StepStatus) Terminal() bool {
	return s == StepStatusCompleted || s == StepStatusCancelled
}

// Modification is a single added or removed sub-choice with its price delta
type Modification struct {
	Name       string  `json:"name"`
	PriceDelta float64 `json:"price_delta"`
}

// Modifications holds the added/removed sub-choices of an order item,
// stored as a JSON column.
type Modifications struct {
	Added   []Modification `json:"added,omitempty"`
	Removed []Modification `json:"removed,omitempty"`
}

// Value converts the modifications to a JSON string for storage
func (m Modifications) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan converts the database value back to modifications
func (m *Modifications) Scan(value interface{}) error {
	if value == nil {
		*m = Modifications{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("unsupported type for Modifications")
	}
}

// ExtraPrice is the net price delta of the modifications, charged once
// per order line.
func (m Modifications) ExtraPrice() float64 {
	var extra float64
	for _, mod := range m.Added {
		extra += mod.PriceDelta
	}
	for _, mod := range m.Removed {
		extra -= mod.PriceDelta
	}
	return extra
}

// Order represents a customer order. It exclusively owns its items and
// workflow steps; all three are written as one persistence unit.
type Order struct {
	gorm.Model
	OrderNumber string `gorm:"size:50;unique_index"`
	CustomerID  string `gorm:"size:36"`
	Type        OrderType
	Status      OrderStatus
	TotalAmount float64
	Tax         float64
	Discount    float64
	DeliveryFee *float64
	TableID     *string
	Notes       string
	Items       []OrderItem    `gorm:"foreignkey:OrderID"`
	Steps       []WorkflowStep `gorm:"foreignkey:OrderID"`
}

// TableName sets the table name for Order
func (Order) TableName() string {
	return "orders"
}

// OrderItem represents an item in an order. UnitPrice is a snapshot
// taken at order time; later catalog price changes never touch it.
type OrderItem struct {
	gorm.Model
	OrderID        uint
	ProductID      uint
	Quantity       int
	UnitPrice      float64
	Modifications  Modifications `gorm:"type:text"`
	ExtraPrice     float64
	SpecialRequest string
	Status         ItemStatus
}

// TableName sets the table name for OrderItem
func (OrderItem) TableName() string {
	return "order_items"
}

// LineTotal is the priced amount of the line at snapshot prices
func (i *OrderItem) LineTotal() float64 {
	return i.UnitPrice*float64(i.Quantity) + i.ExtraPrice
}

// WorkflowStep is a unit of kitchen work derived from an order and
// assigned to one or more stations. Steps are derived, never
// hand-edited.
type WorkflowStep struct {
	gorm.Model
	OrderID     uint
	StationIDs  UintSlice `gorm:"type:text"`
	Parallel    bool
	Independent bool
	Status      StepStatus
}

// TableName sets the table name for WorkflowStep
func (WorkflowStep) TableName() string {
	return "workflow_steps"
}

// References reports whether the step is assigned to the given station
func (w *WorkflowStep) References(stationID uint) bool {
	return w.StationIDs.Contains(stationID)
}
