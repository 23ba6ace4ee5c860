package baseline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	b := Baseline{Region: "Amazon Basin", NDVI: 0.78, NDWI: 0.12, SWIR: 0.21, UpdatedAt: 1700000000000}
	require.NoError(t, s.Put(b))

	got, ok, err := s.Get("Amazon Basin")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, b, got)
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Get("Atlantis")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutOverwrites(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put(Baseline{Region: "Sahel Region", NDVI: 0.40, UpdatedAt: 1}))
	require.NoError(t, s.Put(Baseline{Region: "Sahel Region", NDVI: 0.35, UpdatedAt: 2}))

	got, ok, err := s.Get("Sahel Region")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0.35, got.NDVI, 1e-9)
	assert.EqualValues(t, 2, got.UpdatedAt)
}

func TestPutEmptyRegion(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.Put(Baseline{}))
}

func TestForEach(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put(Baseline{Region: "Punjab Farmlands", NDVI: 0.6}))
	require.NoError(t, s.Put(Baseline{Region: "Congo Basin", NDVI: 0.8}))

	seen := map[string]bool{}
	require.NoError(t, s.ForEach(func(b Baseline) error {
		seen[b.Region] = true
		return nil
	}))
	assert.Len(t, seen, 2)
	assert.True(t, seen["Punjab Farmlands"])
	assert.True(t, seen["Congo Basin"])
}
