package station

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"brigade/internal/apperr"
	"brigade/internal/cache"
	"brigade/internal/database"
	"brigade/internal/models"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testRegistry(t *testing.T) (*Registry, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open("sqlite3", dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return NewRegistry(db, cache.NewMemory(), time.Hour, zap.NewNop()), db
}

func grillInput() CreateStationInput {
	order := 1
	return CreateStationInput{
		Name:         "Grill",
		Type:         models.StationTypeGrill,
		StepOrder:    &order,
		DisplayLimit: 8,
		MaxCapacity:  10,
		Categories:   []uint{1},
	}
}

func TestCreateStation(t *testing.T) {
	registry, _ := testRegistry(t)

	created, err := registry.CreateStation(context.Background(), grillInput())
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.True(t, created.Active)
	assert.Equal(t, models.StationTypeGrill, created.Type)
}

func TestCreateStationValidation(t *testing.T) {
	registry, _ := testRegistry(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateStationInput)
	}{
		{"empty name", func(in *CreateStationInput) { in.Name = "" }},
		{"name too long", func(in *CreateStationInput) { in.Name = "an extremely long station name over 30" }},
		{"unknown type", func(in *CreateStationInput) { in.Type = "smoker" }},
		{"zero display limit", func(in *CreateStationInput) { in.DisplayLimit = 0 }},
		{"negative capacity", func(in *CreateStationInput) { in.MaxCapacity = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := grillInput()
			tc.mutate(&input)
			_, err := registry.CreateStation(ctx, input)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestCreateStationDuplicateNameCaseInsensitive(t *testing.T) {
	registry, _ := testRegistry(t)
	ctx := context.Background()

	_, err := registry.CreateStation(ctx, grillInput())
	require.NoError(t, err)

	dup := grillInput()
	dup.Name = "gRiLL"
	_, err = registry.CreateStation(ctx, dup)
	require.Error(t, err)
	assert.Equal(t, apperr.KindDuplicate, apperr.KindOf(err))
}

func TestListStationsOrderedAndCached(t *testing.T) {
	registry, db := testRegistry(t)
	ctx := context.Background()

	second := grillInput()
	second.Name = "Assembly"
	second.Type = models.StationTypeAssembly
	two := 2
	second.StepOrder = &two
	first, err := registry.CreateStation(ctx, grillInput())
	require.NoError(t, err)
	_, err = registry.CreateStation(ctx, second)
	require.NoError(t, err)

	stations, err := registry.ListStations(ctx)
	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.Equal(t, "Grill", stations[0].Name)
	assert.Equal(t, "Assembly", stations[1].Name)

	// Remove a row behind the cache's back; the cached list must
	// still be served until something invalidates it.
	require.NoError(t, db.Unscoped().Delete(&models.Station{}, first.ID).Error)

	stations, err = registry.ListStations(ctx)
	require.NoError(t, err)
	assert.Len(t, stations, 2)
}

func TestListStationsSortsUnorderedStationsLast(t *testing.T) {
	registry, _ := testRegistry(t)
	ctx := context.Background()

	// Bar is created first (lower id) and has no step order; it must
	// still come after every station that has one.
	_, err := registry.CreateStation(ctx, CreateStationInput{
		Name: "Bar", Type: models.StationTypeBar,
		DisplayLimit: 6, MaxCapacity: 6, Categories: []uint{3}, Independent: true,
	})
	require.NoError(t, err)
	_, err = registry.CreateStation(ctx, grillInput())
	require.NoError(t, err)

	stations, err := registry.ListStations(ctx)
	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.Equal(t, "Grill", stations[0].Name)
	assert.Equal(t, "Bar", stations[1].Name)
}

func TestCreateStationMultibyteNameLength(t *testing.T) {
	registry, _ := testRegistry(t)
	ctx := context.Background()

	// 9 runes but 27 bytes; length is counted in runes.
	input := grillInput()
	input.Name = "グリルステーション"
	created, err := registry.CreateStation(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "グリルステーション", created.Name)

	tooLong := grillInput()
	tooLong.Name = strings.Repeat("ス", 31)
	_, err = registry.CreateStation(ctx, tooLong)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestListStationsEmptyNotCached(t *testing.T) {
	registry, _ := testRegistry(t)
	ctx := context.Background()

	stations, err := registry.ListStations(ctx)
	require.NoError(t, err)
	assert.Empty(t, stations)

	// An empty result must not pin an empty list: a station created
	// afterwards shows up immediately.
	_, err = registry.CreateStation(ctx, grillInput())
	require.NoError(t, err)

	stations, err = registry.ListStations(ctx)
	require.NoError(t, err)
	assert.Len(t, stations, 1)
}

func TestUpdateStationInvalidatesCache(t *testing.T) {
	registry, _ := testRegistry(t)
	ctx := context.Background()

	created, err := registry.CreateStation(ctx, grillInput())
	require.NoError(t, err)

	// Warm the list cache
	_, err = registry.ListStations(ctx)
	require.NoError(t, err)

	newName := "Char Grill"
	_, err = registry.UpdateStation(ctx, created.ID, StationPatch{Name: &newName})
	require.NoError(t, err)

	stations, err := registry.ListStations(ctx)
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Equal(t, "Char Grill", stations[0].Name)
}

func TestUpdateStationNotFound(t *testing.T) {
	registry, _ := testRegistry(t)

	name := "Anything"
	_, err := registry.UpdateStation(context.Background(), 404, StationPatch{Name: &name})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestGetStationCachesDetail(t *testing.T) {
	registry, db := testRegistry(t)
	ctx := context.Background()

	created, err := registry.CreateStation(ctx, grillInput())
	require.NoError(t, err)

	got, err := registry.GetStation(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grill", got.Name)

	// Served from the detail slot even after the row is gone
	require.NoError(t, db.Unscoped().Delete(&models.Station{}, created.ID).Error)

	got, err = registry.GetStation(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grill", got.Name)
}

func TestDeleteStation(t *testing.T) {
	registry, _ := testRegistry(t)
	ctx := context.Background()

	created, err := registry.CreateStation(ctx, grillInput())
	require.NoError(t, err)

	require.NoError(t, registry.DeleteStation(ctx, created.ID))

	_, err = registry.GetStation(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteStationGuardedByOutstandingSteps(t *testing.T) {
	registry, db := testRegistry(t)
	ctx := context.Background()

	created, err := registry.CreateStation(ctx, grillInput())
	require.NoError(t, err)

	step := models.WorkflowStep{
		OrderID:    1,
		StationIDs: models.UintSlice{created.ID},
		Status:     models.StepStatusPending,
	}
	require.NoError(t, db.Create(&step).Error)

	err = registry.DeleteStation(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	// Terminal steps release the guard
	require.NoError(t, db.Model(&step).Update("status", models.StepStatusCompleted).Error)
	require.NoError(t, registry.DeleteStation(ctx, created.ID))
}

func TestDeleteStationNotFound(t *testing.T) {
	registry, _ := testRegistry(t)

	err := registry.DeleteStation(context.Background(), 404)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
