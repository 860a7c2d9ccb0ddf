package workflow

import (
	"context"
	"sort"

	"brigade/internal/models"

	"go.uber.org/zap"
)

// ProductResolver resolves product ids to products, cache-first
type ProductResolver interface {
	ResolveProducts(ctx context.Context, ids []uint) (map[uint]models.Product, error)
}

// StationLister returns the current station configuration
type StationLister interface {
	ListStations(ctx context.Context) ([]models.Station, error)
}

// Deriver computes the kitchen workflow steps for a persisted order:
// one step per station whose visible categories intersect the order,
// parallel when the station is independent. Steps reflect the station
// configuration at derivation time; later reconfiguration does not
// re-derive existing steps.
type Deriver struct {
	products ProductResolver
	stations StationLister
	log      *zap.Logger
}

// NewDeriver creates a workflow step deriver
func NewDeriver(products ProductResolver, stations StationLister, log *zap.Logger) *Deriver {
	return &Deriver{products: products, stations: stations, log: log}
}

// DeriveSteps returns the workflow steps for the order's items in
// station step-order ascending. Stations sharing a step order may
// start concurrently; their relative position is stable by creation
// order and carries no execution precedence. A station seeing none of
// the order's categories produces no step. Any lookup failure fails
// the whole derivation, which the caller's transaction turns into a
// full order rollback.
func (d *Deriver) DeriveSteps(ctx context.Context, orderID uint, items []models.OrderItem) ([]models.WorkflowStep, error) {
	ids := make([]uint, 0, len(items))
	for i := range items {
		ids = append(ids, items[i].ProductID)
	}

	products, err := d.products.ResolveProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	categories := make(map[uint]struct{}, len(products))
	for _, product := range products {
		categories[product.CategoryID] = struct{}{}
	}

	stations, err := d.stations.ListStations(ctx)
	if err != nil {
		return nil, err
	}
	sortByStepOrder(stations)

	var steps []models.WorkflowStep
	for i := range stations {
		station := &stations[i]
		if !station.Active || !seesAny(station, categories) {
			continue
		}
		steps = append(steps, models.WorkflowStep{
			OrderID:     orderID,
			StationIDs:  models.UintSlice{station.ID},
			Parallel:    station.Independent,
			Independent: station.Independent,
			Status:      models.StepStatusPending,
		})
	}

	d.log.Debug("derived workflow steps",
		zap.Uint("order_id", orderID),
		zap.Int("stations", len(stations)),
		zap.Int("steps", len(steps)))

	return steps, nil
}

// seesAny reports whether the station sees at least one of the
// order's product categories.
func seesAny(station *models.Station, categories map[uint]struct{}) bool {
	for categoryID := range categories {
		if station.SeesCategory(categoryID) {
			return true
		}
	}
	return false
}

// sortByStepOrder orders stations step-order ascending with unordered
// (independent) stations last, stable by id.
func sortByStepOrder(stations []models.Station) {
	sort.SliceStable(stations, func(i, j int) bool {
		a, b := stations[i].StepOrder, stations[j].StepOrder
		switch {
		case a == nil && b == nil:
			return stations[i].ID < stations[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			return *a < *b
		default:
			return stations[i].ID < stations[j].ID
		}
	})
}
