package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityKey(t *testing.T) {
	assert.Equal(t, "product:detail:42", EntityKey("product", "detail", 42))
	assert.Equal(t, "station:detail:7", EntityKey("station", "detail", 7))
}

func TestQueryKeyIgnoresInsertionOrder(t *testing.T) {
	a := map[string]interface{}{
		"category": 3,
		"page":     1,
		"limit":    20,
	}
	b := map[string]interface{}{
		"limit":    20,
		"page":     1,
		"category": 3,
	}

	keyA, err := QueryKey("station", "list", a)
	require.NoError(t, err)
	keyB, err := QueryKey("station", "list", b)
	require.NoError(t, err)

	assert.Equal(t, keyA, keyB)
}

func TestQueryKeyStructAndMapCollapse(t *testing.T) {
	type shape struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
	}

	fromStruct, err := QueryKey("station", "list", shape{Page: 2, Limit: 10})
	require.NoError(t, err)
	fromMap, err := QueryKey("station", "list", map[string]interface{}{
		"limit": 10,
		"page":  2,
	})
	require.NoError(t, err)

	assert.Equal(t, fromStruct, fromMap)
}

func TestQueryKeyDistinguishesShapes(t *testing.T) {
	keyA, err := QueryKey("station", "list", map[string]interface{}{"page": 1})
	require.NoError(t, err)
	keyB, err := QueryKey("station", "list", map[string]interface{}{"page": 2})
	require.NoError(t, err)

	assert.NotEqual(t, keyA, keyB)
}

func TestQueryKeyFixedLength(t *testing.T) {
	small, err := QueryKey("station", "list", map[string]interface{}{"a": 1})
	require.NoError(t, err)

	big, err := QueryKey("station", "list", map[string]interface{}{
		"a": "a very long filter value repeated over and over again to inflate the shape",
		"b": []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		"c": map[string]interface{}{"nested": "values", "go": "here"},
	})
	require.NoError(t, err)

	assert.Equal(t, len(small), len(big))
}
