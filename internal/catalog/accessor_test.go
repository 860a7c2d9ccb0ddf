package catalog

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"brigade/internal/cache"
	"brigade/internal/database"
	"brigade/internal/models"
	"brigade/internal/monitoring"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Named shared-cache in-memory database so every pooled
	// connection sees the same data.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open("sqlite3", dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func testAccessor(t *testing.T, db *gorm.DB, store cache.Store) *Accessor {
	t.Helper()
	return NewAccessor(db, store, time.Hour, zap.NewNop(), monitoring.NewMetrics())
}

func seedProducts(t *testing.T, db *gorm.DB) (uint, uint) {
	t.Helper()
	burger := models.Product{Name: "Classic Burger", CategoryID: 1, Price: 8.50, Available: true}
	drink := models.Product{Name: "Lemonade", CategoryID: 3, Price: 2.50, Available: true}
	require.NoError(t, db.Create(&burger).Error)
	require.NoError(t, db.Create(&drink).Error)
	return burger.ID, drink.ID
}

func TestResolveProductsFromStorage(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	burgerID, drinkID := seedProducts(t, db)

	accessor := testAccessor(t, db, cache.NewMemory())

	resolved, err := accessor.ResolveProducts(ctx, []uint{burgerID, drinkID})
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, 8.50, resolved[burgerID].Price)
	assert.Equal(t, 2.50, resolved[drinkID].Price)
}

func TestResolveProductsServedFromCacheAfterFirstRead(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	burgerID, drinkID := seedProducts(t, db)

	accessor := testAccessor(t, db, cache.NewMemory())

	_, err := accessor.ResolveProducts(ctx, []uint{burgerID, drinkID})
	require.NoError(t, err)

	// Mutate storage behind the cache's back; a cached resolution
	// must not see it, proving zero storage reads on the second call.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", burgerID).Update("price", 99.0).Error)
	require.NoError(t, db.Where("id = ?", drinkID).Delete(&models.Product{}).Error)

	resolved, err := accessor.ResolveProducts(ctx, []uint{burgerID, drinkID})
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, 8.50, resolved[burgerID].Price)
	assert.Equal(t, 2.50, resolved[drinkID].Price)
}

func TestResolveProductsMissingIDsAbsent(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	burgerID, _ := seedProducts(t, db)

	accessor := testAccessor(t, db, cache.NewMemory())

	resolved, err := accessor.ResolveProducts(ctx, []uint{burgerID, 9999})
	require.NoError(t, err)
	assert.Len(t, resolved, 1)
	_, ok := resolved[9999]
	assert.False(t, ok)
}

func TestResolveProductsPartialCacheHit(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	burgerID, drinkID := seedProducts(t, db)

	store := cache.NewMemory()
	accessor := testAccessor(t, db, store)

	// Warm only one of the two slots
	_, err := accessor.ResolveProducts(ctx, []uint{burgerID})
	require.NoError(t, err)

	resolved, err := accessor.ResolveProducts(ctx, []uint{burgerID, drinkID})
	require.NoError(t, err)
	require.Len(t, resolved, 2)

	// The miss was repopulated
	var cached models.Product
	found, err := store.Get(ctx, cache.EntityKey("product", "detail", drinkID), &cached)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2.50, cached.Price)
}

func TestResolveProductsCacheFailureDegradesToStorage(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	burgerID, _ := seedProducts(t, db)

	accessor := testAccessor(t, db, failingStore{})

	resolved, err := accessor.ResolveProducts(ctx, []uint{burgerID})
	require.NoError(t, err)
	assert.Equal(t, 8.50, resolved[burgerID].Price)
}

func TestResolveProductsDeduplicatesIDs(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	burgerID, _ := seedProducts(t, db)

	accessor := testAccessor(t, db, cache.NewMemory())

	resolved, err := accessor.ResolveProducts(ctx, []uint{burgerID, burgerID, burgerID})
	require.NoError(t, err)
	assert.Len(t, resolved, 1)
}

// failingStore errors on every call; read paths must degrade to the
// authoritative store.
type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, assert.AnError
}

func (failingStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return assert.AnError
}

func (failingStore) Delete(ctx context.Context, keys ...string) error {
	return assert.AnError
}

func (failingStore) DeleteByPattern(ctx context.Context, pattern string) error {
	return assert.AnError
}
