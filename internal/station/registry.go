package station

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"brigade/internal/apperr"
	"brigade/internal/cache"
	"brigade/internal/models"

	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

const namespace = "station"

// listShape is the canonical query shape behind the station list cache
// slot. Anything that changes what the list query returns belongs here.
type listShape struct {
	OrderBy string `json:"order_by"`
}

// Registry holds kitchen station configuration. Reads are cache-aside;
// every mutation sweeps the whole station:* key space rather than
// updating slots surgically. Station data is small and mutated
// infrequently.
type Registry struct {
	db    *gorm.DB
	store cache.Store
	ttl   time.Duration
	log   *zap.Logger
}

// NewRegistry creates a station registry
func NewRegistry(db *gorm.DB, store cache.Store, ttl time.Duration, log *zap.Logger) *Registry {
	return &Registry{db: db, store: store, ttl: ttl, log: log}
}

// CreateStationInput carries the fields for a new station
type CreateStationInput struct {
	Name         string             `json:"name"`
	Type         models.StationType `json:"type"`
	StepOrder    *int               `json:"step_order"`
	DisplayLimit int                `json:"display_limit"`
	MaxCapacity  int                `json:"max_capacity"`
	Categories   []uint             `json:"categories"`
	Independent  bool               `json:"independent"`
}

// StationPatch carries a partial station update; nil fields are left
// unchanged.
type StationPatch struct {
	Name         *string             `json:"name"`
	Type         *models.StationType `json:"type"`
	StepOrder    *int                `json:"step_order"`
	DisplayLimit *int                `json:"display_limit"`
	MaxCapacity  *int                `json:"max_capacity"`
	Categories   *[]uint             `json:"categories"`
	Active       *bool               `json:"active"`
	Independent  *bool               `json:"independent"`
}

// ListStations returns all stations ordered by step order ascending,
// independent (unordered) stations last. Cache-aside: an empty storage
// result is never cached, so a transiently empty table cannot pin an
// empty list until TTL.
func (r *Registry) ListStations(ctx context.Context) ([]models.Station, error) {
	const op = "station.ListStations"

	key, err := cache.QueryKey(namespace, "list", listShape{OrderBy: "step_order"})
	if err != nil {
		return nil, apperr.Internal(op, err)
	}

	var stations []models.Station
	found, err := r.store.Get(ctx, key, &stations)
	if err != nil {
		r.log.Warn("station list cache read failed, treating as miss", zap.Error(err))
		found = false
	}
	if found && len(stations) > 0 {
		return stations, nil
	}

	// "step_order IS NULL" sorts before the column itself so stations
	// without a step order land last on every supported dialect.
	if err := r.db.Order("step_order IS NULL, step_order asc, id asc").Find(&stations).Error; err != nil {
		return nil, apperr.Internal(op, err)
	}

	if len(stations) > 0 {
		if err := r.store.Set(ctx, key, stations, r.ttl); err != nil {
			r.log.Warn("station list cache population failed", zap.Error(err))
		}
	}

	return stations, nil
}

// GetStation returns one station by id, through its detail cache slot
func (r *Registry) GetStation(ctx context.Context, id uint) (*models.Station, error) {
	const op = "station.GetStation"

	key := cache.EntityKey(namespace, "detail", id)
	var cached models.Station
	found, err := r.store.Get(ctx, key, &cached)
	if err != nil {
		r.log.Warn("station cache read failed, treating as miss",
			zap.Uint("station_id", id), zap.Error(err))
		found = false
	}
	if found {
		return &cached, nil
	}

	var station models.Station
	if err := r.db.First(&station, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, apperr.NotFound(op, "station %d not found", id)
		}
		return nil, apperr.Internal(op, err)
	}

	if err := r.store.Set(ctx, key, station, r.ttl); err != nil {
		r.log.Warn("station cache population failed",
			zap.Uint("station_id", id), zap.Error(err))
	}

	return &station, nil
}

// CreateStation validates and persists a new station
func (r *Registry) CreateStation(ctx context.Context, input CreateStationInput) (*models.Station, error) {
	const op = "station.CreateStation"

	if err := validateStation(op, input.Name, input.Type, input.DisplayLimit, input.MaxCapacity); err != nil {
		return nil, err
	}

	// Existence check before create; the name collision window between
	// check and insert is acceptable for admin-frequency mutations.
	var count int
	if err := r.db.Model(&models.Station{}).
		Where("LOWER(name) = ?", strings.ToLower(input.Name)).
		Count(&count).Error; err != nil {
		return nil, apperr.Internal(op, err)
	}
	if count > 0 {
		return nil, apperr.Duplicate(op, "station named %q already exists", input.Name)
	}

	station := models.Station{
		Name:         input.Name,
		Type:         input.Type,
		StepOrder:    input.StepOrder,
		DisplayLimit: input.DisplayLimit,
		MaxCapacity:  input.MaxCapacity,
		Categories:   models.UintSlice(input.Categories),
		Active:       true,
		Independent:  input.Independent,
	}
	if err := r.db.Create(&station).Error; err != nil {
		return nil, apperr.Internal(op, err)
	}

	r.invalidate(ctx)
	return &station, nil
}

// UpdateStation applies a partial update to an existing station
func (r *Registry) UpdateStation(ctx context.Context, id uint, patch StationPatch) (*models.Station, error) {
	const op = "station.UpdateStation"

	var station models.Station
	if err := r.db.First(&station, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, apperr.NotFound(op, "station %d not found", id)
		}
		return nil, apperr.Internal(op, err)
	}

	if patch.Name != nil && !strings.EqualFold(*patch.Name, station.Name) {
		var count int
		if err := r.db.Model(&models.Station{}).
			Where("LOWER(name) = ? AND id <> ?", strings.ToLower(*patch.Name), id).
			Count(&count).Error; err != nil {
			return nil, apperr.Internal(op, err)
		}
		if count > 0 {
			return nil, apperr.Duplicate(op, "station named %q already exists", *patch.Name)
		}
	}

	if patch.Name != nil {
		station.Name = *patch.Name
	}
	if patch.Type != nil {
		station.Type = *patch.Type
	}
	if patch.StepOrder != nil {
		station.StepOrder = patch.StepOrder
	}
	if patch.DisplayLimit != nil {
		station.DisplayLimit = *patch.DisplayLimit
	}
	if patch.MaxCapacity != nil {
		station.MaxCapacity = *patch.MaxCapacity
	}
	if patch.Categories != nil {
		station.Categories = models.UintSlice(*patch.Categories)
	}
	if patch.Active != nil {
		station.Active = *patch.Active
	}
	if patch.Independent != nil {
		station.Independent = *patch.Independent
	}

	if err := validateStation(op, station.Name, station.Type, station.DisplayLimit, station.MaxCapacity); err != nil {
		return nil, err
	}

	if err := r.db.Save(&station).Error; err != nil {
		return nil, apperr.Internal(op, err)
	}

	r.invalidate(ctx)
	return &station, nil
}

// DeleteStation removes a station. It refuses while any non-terminal
// workflow step still references the station, so in-flight kitchen
// work is never orphaned.
func (r *Registry) DeleteStation(ctx context.Context, id uint) error {
	const op = "station.DeleteStation"

	var station models.Station
	if err := r.db.First(&station, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return apperr.NotFound(op, "station %d not found", id)
		}
		return apperr.Internal(op, err)
	}

	outstanding, err := r.outstandingSteps(id)
	if err != nil {
		return apperr.Internal(op, err)
	}
	if outstanding > 0 {
		return apperr.Validation(op, "station %q has %d outstanding workflow steps", station.Name, outstanding)
	}

	if err := r.db.Delete(&station).Error; err != nil {
		return apperr.Internal(op, err)
	}

	r.invalidate(ctx)
	return nil
}

// outstandingSteps counts non-terminal workflow steps assigned to the
// station. Station ids live in a JSON column, so membership is checked
// in process; the non-terminal set is small by nature.
func (r *Registry) outstandingSteps(stationID uint) (int, error) {
	var steps []models.WorkflowStep
	err := r.db.
		Where("status NOT IN (?)", []models.StepStatus{models.StepStatusCompleted, models.StepStatusCancelled}).
		Find(&steps).Error
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range steps {
		if steps[i].References(stationID) {
			count++
		}
	}
	return count, nil
}

// invalidate sweeps every station:* slot (list, detail, existence).
// Failures are logged, not returned: the triggering write already
// happened and the TTL bounds the staleness window.
func (r *Registry) invalidate(ctx context.Context) {
	if err := r.store.DeleteByPattern(ctx, namespace+":*"); err != nil {
		r.log.Warn("station cache invalidation failed", zap.Error(err))
	}
}

func validateStation(op, name string, stationType models.StationType, displayLimit, maxCapacity int) error {
	if n := utf8.RuneCountInString(name); n == 0 || n > 30 {
		return apperr.Validation(op, "station name must be 1-30 characters")
	}
	if !stationType.Valid() {
		return apperr.Validation(op, "unknown station type %q", stationType)
	}
	if displayLimit <= 0 {
		return apperr.Validation(op, "display limit must be a positive integer")
	}
	if maxCapacity <= 0 {
		return apperr.Validation(op, "max capacity must be a positive integer")
	}
	return nil
}
