package lettertype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogHasUniqueCodes(t *testing.T) {
	seen := make(map[string]bool)
	for _, lt := range Catalog() {
		assert.NotEmpty(t, lt.Code)
		assert.NotEmpty(t, lt.Name)
		assert.False(t, seen[lt.Code], "duplicate code %s", lt.Code)
		seen[lt.Code] = true
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry(Catalog())

	ska, ok := r.Get("SKA")
	require.True(t, ok)
	assert.Equal(t, []string{"semester", "tahun_akademik"}, ska.RequiredFields)

	assert.True(t, r.Valid("SKMHS"))
	assert.False(t, r.Valid("XYZ"))

	_, ok = r.Get("XYZ")
	assert.False(t, ok)
}

func TestAllReturnsCopy(t *testing.T) {
	r := NewRegistry(Catalog())

	all := r.All()
	require.NotEmpty(t, all)
	all[0].Code = "MUTATED"

	again := r.All()
	assert.NotEqual(t, "MUTATED", again[0].Code)
}

func TestMissingFields(t *testing.T) {
	r := NewRegistry(Catalog())

	// All present.
	missing := r.MissingFields("SKA", map[string]string{
		"semester":       "5",
		"tahun_akademik": "2025/2026",
	})
	assert.Empty(t, missing)

	// Empty values count as missing, order follows the catalog.
	missing = r.MissingFields("SKP", map[string]string{
		"judul_penelitian": "Analisis jaringan kampus",
		"tanggal_mulai":    "",
	})
	assert.Equal(t, []string{"lokasi_penelitian", "tanggal_mulai", "tanggal_selesai"}, missing)

	// Nil data.
	missing = r.MissingFields("SKA", nil)
	assert.Equal(t, []string{"semester", "tahun_akademik"}, missing)

	// Types with no required fields accept anything.
	assert.Empty(t, r.MissingFields("SKBS", nil))

	// Unknown code reports nothing; validity is checked separately.
	assert.Empty(t, r.MissingFields("XYZ", nil))
}
