package resources

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/zeusync/asteroidworker/internal/core/models"
)

// Epoch is the origin of the time bucket fed to the probability map.
var Epoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// TimeBucket returns whole seconds elapsed since Epoch.
func TimeBucket(now time.Time) int64 {
	return now.Unix() - Epoch.Unix()
}

// Seed derives the per-request seed from the asteroid and the requesting user.
// The same pair always produces the same seed.
func Seed(entity models.EntityID, userDatabaseID string) int64 {
	return int64(entity) ^ int64(xxhash.Sum64String(userDatabaseID))
}

// Generator is a deterministic random source for one request.
type Generator struct {
	source *rand.ChaCha8
	rand   *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[0:], uint64(seed))
	// spread the 64 bit seed over the whole key
	for i := 1; i < 4; i++ {
		binary.LittleEndian.PutUint64(key[i*8:], xxhash.Sum64(key[(i-1)*8:i*8]))
	}
	source := rand.NewChaCha8(key)
	return &Generator{source: source, rand: rand.New(source)}
}

// Float64 returns a value in [0,1).
func (g *Generator) Float64() float64 {
	return g.rand.Float64()
}

// IntN returns a value in [0,n). It panics if n <= 0.
func (g *Generator) IntN(n int) int {
	return g.rand.IntN(n)
}

// DocumentID returns a new random document id drawn from the generator stream.
func (g *Generator) DocumentID() string {
	id, err := uuid.NewRandomFromReader(g.source)
	if err != nil {
		// ChaCha8 reads never fail
		panic(err)
	}
	return id.String()
}

// RandomResourceType picks a concrete type, never ResourceRandom.
func (g *Generator) RandomResourceType() models.ResourceType {
	return models.ResourceType(g.IntN(int(models.ResourceTypeCount)-1) + 1)
}

// Yield turns a probability in [0,1] into a quantity for the given scanner.
// The scanner sensitivity scales the chance of finding anything at all; the amount
// found grows with the probability between MinYield and MaxYield. Zero means nothing.
func Yield(probability float64, gen *Generator, scanner models.Scanner) int {
	probability = clamp01(probability)

	sensitivity := scanner.Sensitivity
	if sensitivity <= 0 {
		return 0
	}
	chance := clamp01(probability * sensitivity)
	if gen.Float64() >= chance {
		return 0
	}

	lo, hi := scanner.MinYield, scanner.MaxYield
	if hi < lo {
		lo, hi = hi, lo
	}
	if hi <= 0 {
		return 0
	}
	if lo < 0 {
		lo = 0
	}

	quantity := lo + int(math.Round(probability*float64(hi-lo)))
	// a little jitter so neighbouring asteroids differ
	if spread := (hi - lo) / 10; spread > 0 {
		quantity += gen.IntN(2*spread+1) - spread
	}
	return min(max(quantity, lo), hi)
}
