package resources

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/asteroidworker/internal/core/models"
)

func TestValueNoise_RangeAndDeterminism(t *testing.T) {
	n := ValueNoise{Seed: 7, Scale: 50, Period: 60}
	for i := 0; i < 200; i++ {
		x, y, z := float64(i)*13.7-900, float64(i)*-3.1, float64(i%17)*41
		ts := int64(i) * 37
		v := n.Sample(x, y, z, ts)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		assert.Equal(t, v, n.Sample(x, y, z, ts))
	}
}

func TestLayer(t *testing.T) {
	assert.Equal(t, 0.0, Layer(0, 0, 0))
	assert.Equal(t, 1.0, Layer(1, 1, 1))
	assert.InDelta(t, 4.0/7, Layer(1, 0, 0), 1e-12)
}

func TestTimeBucket(t *testing.T) {
	assert.Equal(t, int64(0), TimeBucket(Epoch))
	assert.Equal(t, int64(90), TimeBucket(Epoch.Add(90*time.Second+500*time.Millisecond)))
}

func TestSeed(t *testing.T) {
	assert.Equal(t, Seed(5, "user"), Seed(5, "user"))
	assert.NotEqual(t, Seed(5, "user"), Seed(6, "user"))
	assert.NotEqual(t, Seed(5, "user"), Seed(5, "other"))
}

func TestGenerator_Deterministic(t *testing.T) {
	a, b := NewGenerator(42), NewGenerator(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
		assert.Equal(t, a.IntN(100), b.IntN(100))
	}
	idA, idB := a.DocumentID(), b.DocumentID()
	assert.Equal(t, idA, idB)
	_, err := uuid.Parse(idA)
	require.NoError(t, err)
	assert.NotEqual(t, idA, a.DocumentID())

	assert.NotEqual(t, NewGenerator(1).Float64(), NewGenerator(2).Float64())
}

func TestGenerator_RandomResourceTypeNeverRandom(t *testing.T) {
	g := NewGenerator(3)
	for i := 0; i < 500; i++ {
		rt := g.RandomResourceType()
		assert.NotEqual(t, models.ResourceRandom, rt)
		assert.True(t, rt.Valid())
	}
}

func TestYield(t *testing.T) {
	scanner := models.Scanner{Sensitivity: 1, MinYield: 100, MaxYield: 200}

	t.Run("zero probability finds nothing", func(t *testing.T) {
		assert.Zero(t, Yield(0, NewGenerator(1), scanner))
	})

	t.Run("blind scanner finds nothing", func(t *testing.T) {
		blind := scanner
		blind.Sensitivity = 0
		assert.Zero(t, Yield(1, NewGenerator(1), blind))
	})

	t.Run("certain find stays within bounds", func(t *testing.T) {
		for seed := int64(0); seed < 100; seed++ {
			q := Yield(1, NewGenerator(seed), scanner)
			assert.GreaterOrEqual(t, q, 100)
			assert.LessOrEqual(t, q, 200)
		}
	})

	t.Run("same seed same yield", func(t *testing.T) {
		assert.Equal(t, Yield(0.6, NewGenerator(9), scanner), Yield(0.6, NewGenerator(9), scanner))
	})
}
