package scenario

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-mes-scenarios/internal/catalog"
)

func TestEveryCatalogEntryHasAHandler(t *testing.T) {
	reg, err := catalog.Default()
	require.NoError(t, err)

	handlers := DefaultRegistry()
	for _, id := range reg.IDs() {
		h, ok := handlers.Lookup(id)
		require.True(t, ok, "missing handler for %s", id)
		assert.Equal(t, id, h.ID)
		assert.NotNil(t, h.Run)
	}
	assert.ElementsMatch(t, reg.IDs(), handlers.IDs())
}

func TestRegistryLaterEntryWins(t *testing.T) {
	r := NewRegistry(
		Handler{ID: "QS001", Name: "first"},
		Handler{ID: "QS001", Name: "second"},
	)
	h, ok := r.Lookup("QS001")
	require.True(t, ok)
	assert.Equal(t, "second", h.Name)

	_, ok = r.Lookup("ZZ999")
	assert.False(t, ok)
}

func TestNewRandomIsDeterministicForSeed(t *testing.T) {
	a, b := NewRandom(7), NewRandom(7)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.IntN(1000), b.IntN(1000))
	}
	assert.Equal(t, a.Perm(10), b.Perm(10))
}

func TestDocumentNumbers(t *testing.T) {
	env := newTestEnv()
	for i := 0; i < 200; i++ {
		assert.Regexp(t, `^SO202401159\d{3}$`, env.salesOrderNo())
		assert.Regexp(t, `^WO202401159\d{3}$`, env.workOrderNo())
		assert.Regexp(t, `^MO202401159\d{4}$`, env.productionOrderNo())
		assert.Regexp(t, `^MR20240115[1-9]\d{3}$`, env.materialRequestNo())
	}
}

func TestToday(t *testing.T) {
	env := newTestEnv()
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), env.Today())
}
