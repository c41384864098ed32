// Package resources contains the math behind asteroid resource generation:
// the probability map sampled at a position and time, the yield curve and the
// seeded generator that makes a request reproducible.
package resources

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/asteroidworker/internal/core/models"
)

// Noise is a pure function of position and time returning a value in [0,1].
type Noise interface {
	Sample(x, y, z float64, t int64) float64
}

// ValueNoise is lattice value noise: hashed corner values blended with a smoothstep
// in space and linearly between time slices.
type ValueNoise struct {
	Seed uint64
	// Scale is the lattice spacing in world units.
	Scale float64
	// Period is the number of seconds between two time slices.
	Period int64
}

var _ Noise = ValueNoise{}

func (n ValueNoise) Sample(x, y, z float64, t int64) float64 {
	scale := n.Scale
	if scale <= 0 {
		scale = 1
	}
	period := n.Period
	if period <= 0 {
		period = 1
	}

	x, y, z = x/scale, y/scale, z/scale
	slice := floorDiv(t, period)
	ft := float64(t-slice*period) / float64(period)

	a := n.spatial(x, y, z, slice)
	b := n.spatial(x, y, z, slice+1)
	return clamp01(a + (b-a)*ft)
}

func (n ValueNoise) spatial(x, y, z float64, slice int64) float64 {
	x0, y0, z0 := math.Floor(x), math.Floor(y), math.Floor(z)
	fx, fy, fz := smooth(x-x0), smooth(y-y0), smooth(z-z0)
	ix, iy, iz := int64(x0), int64(y0), int64(z0)

	c000 := n.corner(ix, iy, iz, slice)
	c100 := n.corner(ix+1, iy, iz, slice)
	c010 := n.corner(ix, iy+1, iz, slice)
	c110 := n.corner(ix+1, iy+1, iz, slice)
	c001 := n.corner(ix, iy, iz+1, slice)
	c101 := n.corner(ix+1, iy, iz+1, slice)
	c011 := n.corner(ix, iy+1, iz+1, slice)
	c111 := n.corner(ix+1, iy+1, iz+1, slice)

	x00 := lerp(c000, c100, fx)
	x10 := lerp(c010, c110, fx)
	x01 := lerp(c001, c101, fx)
	x11 := lerp(c011, c111, fx)
	return lerp(lerp(x00, x10, fy), lerp(x01, x11, fy), fz)
}

func (n ValueNoise) corner(x, y, z, t int64) float64 {
	var buf [40]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(x))
	binary.LittleEndian.PutUint64(buf[8:], uint64(y))
	binary.LittleEndian.PutUint64(buf[16:], uint64(z))
	binary.LittleEndian.PutUint64(buf[24:], uint64(t))
	binary.LittleEndian.PutUint64(buf[32:], n.Seed)
	// 53 high bits give a uniform float in [0,1)
	return float64(xxhash.Sum64(buf[:])>>11) / (1 << 53)
}

// ProbabilityMap layers three noise octaves into one probability.
type ProbabilityMap struct {
	Low, Med, High Noise
}

// DefaultProbabilityMap returns the map used by the worker: large slow-moving
// regions with finer, faster detail on top.
func DefaultProbabilityMap(seed uint64) ProbabilityMap {
	return ProbabilityMap{
		Low:  ValueNoise{Seed: seed, Scale: 10000, Period: 86400},
		Med:  ValueNoise{Seed: seed + 1, Scale: 1000, Period: 3600},
		High: ValueNoise{Seed: seed + 2, Scale: 100, Period: 600},
	}
}

// Evaluate samples all octaves at coords and time bucket t and layers them.
func (m ProbabilityMap) Evaluate(coords models.Coordinates, t int64) float64 {
	low := m.Low.Sample(coords.X, coords.Y, coords.Z, t)
	med := m.Med.Sample(coords.X, coords.Y, coords.Z, t)
	high := m.High.Sample(coords.X, coords.Y, coords.Z, t)
	return Layer(low, med, high)
}

// Layer combines the octave samples, weighting coarse structure over detail.
// Inputs in [0,1] give a result in [0,1].
func Layer(low, med, high float64) float64 {
	return clamp01((4*low + 2*med + high) / 7)
}

func smooth(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
