package protest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danverh/panopticon/internal/chance"
)

func TestIgnitionProbability(t *testing.T) {
	tests := []struct {
		name     string
		severity int
		anger    int
		want     float64
	}{
		{"calm public ignores mild actions", 7, 10, 0},
		{"calm public reacts to atrocities", 8, 10, 0.15},
		{"low anger needs severity six", 5, 30, 0},
		{"low anger halves the base", 8, 30, 0.4},
		{"mid anger scales up", 6, 50, 0.9},
		{"high anger scales harder", 5, 80, 1.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ignitionProbability(tt.severity, tt.anger), 1e-9)
		})
	}
}

func TestProtestSize_Bounds(t *testing.T) {
	src := chance.NewSeeded(5)
	for range 200 {
		size := protestSize(src, 10, 100)
		assert.GreaterOrEqual(t, size, minSize)
		assert.LessOrEqual(t, size, maxSize)
	}

	// Tiny base with the minimum multiplier clamps to the floor.
	small := protestSize(chance.NewFixed(0), 0, 0)
	assert.Equal(t, minSize, small)
}

func TestProtestSize_Formula(t *testing.T) {
	// Fixed(0.5) makes Between(0.7, 1.3) return exactly 1.0.
	size := protestSize(chance.NewFixed(0.5), 8, 40)
	assert.Equal(t, 50+2*40+30*8, size)
}

func TestMaybeIgnite_NoProtestOnHighRoll(t *testing.T) {
	m := NewManager(NewMemoryStore(), chance.NewFixed(0.99))
	pr, err := m.MaybeIgnite(context.Background(), 8, 10)
	require.NoError(t, err)
	assert.Nil(t, pr)
}

func TestMaybeIgnite_CreatesFormingProtest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	// Draw order: ignition roll, neighborhood, description, size, agitator.
	m := NewManager(store, chance.NewFixed(0.01, 0.2, 0.4, 0.5, 0.1))

	pr, err := m.MaybeIgnite(ctx, 6, 50)
	require.NoError(t, err)
	require.NotNil(t, pr)

	assert.Equal(t, StatusForming, pr.Status)
	assert.NotEmpty(t, pr.Neighborhood)
	assert.Contains(t, pr.Description, pr.Neighborhood)
	assert.True(t, pr.AgitatorPlanted) // 0.1 < 0.30
	assert.False(t, pr.AgitatorDiscovered)

	stored, err := store.Get(ctx, pr.ID)
	require.NoError(t, err)
	assert.Equal(t, pr.ID, stored.ID)
}

func TestAdvance_FormingTurnsActive(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, &Protest{ID: "p1", Status: StatusForming}))

	m := NewManager(store, chance.NewFixed(0.99))
	changed, err := m.Advance(ctx)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, StatusActive, changed[0].Status)
}

func TestAdvance_ActiveMayDisperse(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, &Protest{ID: "p1", Status: StatusActive}))

	// Roll under the disperse chance.
	m := NewManager(store, chance.NewFixed(0.01))
	changed, err := m.Advance(ctx)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, StatusDispersed, changed[0].Status)

	// Terminal protests never come back.
	changed, err = m.Advance(ctx)
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestAdvance_ActiveStaysOnHighRoll(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, &Protest{ID: "p1", Status: StatusActive}))

	m := NewManager(store, chance.NewFixed(0.9))
	changed, err := m.Advance(ctx)
	require.NoError(t, err)
	assert.Empty(t, changed)

	p, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, p.Status)
}
