package generation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/asteroidworker/internal/core/models"
	"github.com/zeusync/asteroidworker/internal/core/observability/log"
	"github.com/zeusync/asteroidworker/internal/core/outbox"
	"github.com/zeusync/asteroidworker/internal/core/protocol"
	"github.com/zeusync/asteroidworker/internal/core/protocol/memory"
	"github.com/zeusync/asteroidworker/internal/core/resources"
	"github.com/zeusync/asteroidworker/internal/core/state"
	"github.com/zeusync/asteroidworker/internal/core/storage"
	memstore "github.com/zeusync/asteroidworker/internal/core/storage/memory"
	"github.com/zeusync/asteroidworker/internal/core/systems/inventory"
)

type constNoise float64

func (n constNoise) Sample(float64, float64, float64, int64) float64 { return float64(n) }

var scanner = models.Scanner{Speciality: models.ResourceTitanium, Sensitivity: 1, MinYield: 100, MaxYield: 200}

type fixture struct {
	system          *System
	inventory       *inventory.System
	identifications *state.Cache[models.Identification]
	positions       *state.Cache[models.Position]
	outbox          *outbox.Outbox
	store           *memstore.Store
	detached        *storage.Detached
	conn            *memory.Connection
}

func newFixture(t *testing.T, probability float64) *fixture {
	t.Helper()
	f := &fixture{
		identifications: state.NewCache[models.Identification](),
		positions:       state.NewCache[models.Position](),
		outbox:          outbox.New(),
		store:           memstore.New(),
		conn:            memory.New(1),
	}
	f.inventory = inventory.New(f.outbox, log.NewNop())
	f.detached = storage.NewDetached(f.store, time.Second, log.NewNop())

	clock := func() time.Time { return resources.Epoch.Add(time.Hour) }
	noise := constNoise(probability)
	f.system = New(Config{
		Collection: "rocks",
		Map:        resources.ProbabilityMap{Low: noise, Med: noise, High: noise},
		Clock:      clock,
	}, f.positions, f.identifications, f.inventory, f.outbox, f.detached, log.NewNop())
	return f
}

func (f *fixture) request(id models.EntityID, requestID models.RequestID, user string, sc models.Scanner) {
	f.system.Dispatcher().Process(protocol.OpList{protocol.CommandRequestOp{
		EntityID:  id,
		RequestID: requestID,
		Command:   models.CommandGenerateResource,
		Request:   models.GenerateResourceRequest{UserDatabaseID: user, Scanner: sc},
	}})
}

func (f *fixture) flush(t *testing.T) []protocol.Outgoing {
	t.Helper()
	f.conn.Reset()
	_, err := f.outbox.Flush(f.conn)
	require.NoError(t, err)
	return f.conn.Sent()
}

func responses(sent []protocol.Outgoing) []protocol.CommandResponse {
	var out []protocol.CommandResponse
	for _, op := range sent {
		if r, ok := op.(protocol.CommandResponse); ok {
			out = append(out, r)
		}
	}
	return out
}

func TestGenerate_MissingPositionAnswersEmpty(t *testing.T) {
	f := newFixture(t, 1)
	f.request(1, 10, "user", scanner)
	f.system.Update(context.Background())

	sent := f.flush(t)
	require.Len(t, sent, 1)
	assert.Equal(t, protocol.CommandResponse{
		EntityID: 1, RequestID: 10, Command: models.CommandGenerateResource, Response: models.ResourceResponse{},
	}, sent[0])
}

func TestGenerate_NothingFoundHasNoSideEffects(t *testing.T) {
	f := newFixture(t, 0)
	f.positions.OnAdd(1, models.Position{Coords: models.Coordinates{X: 1, Y: 2, Z: 3}})
	f.request(1, 10, "user", scanner)
	f.system.Update(context.Background())
	f.inventory.Update(context.Background())
	f.detached.Wait()

	sent := f.flush(t)
	require.Len(t, sent, 1)
	assert.True(t, sent[0].(protocol.CommandResponse).Response.(models.ResourceResponse).IsEmpty())
	assert.Zero(t, f.identifications.Len())
	assert.Zero(t, f.store.Count("rocks"))
}

func TestGenerate_FoundResource(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	f.positions.OnAdd(5, models.Position{Coords: models.Coordinates{X: 1, Y: 2, Z: 3}})

	f.request(5, 1, "user", scanner)
	f.system.Update(ctx)

	identification, ok := f.identifications.Get(5)
	require.True(t, ok, "identification is cached synchronously")

	f.inventory.Update(ctx)
	f.detached.Wait()

	sent := f.flush(t)
	require.Len(t, sent, 4)
	assert.Equal(t, protocol.AddComponent{EntityID: 5, Component: models.ComponentPersistence, Data: models.Persistence{}}, sent[0])
	assert.Equal(t, models.ComponentResourceInventory, sent[1].(protocol.AddComponent).Component)
	assert.Equal(t, protocol.AddComponent{EntityID: 5, Component: models.ComponentIdentification, Data: identification}, sent[2])

	response := sent[3].(protocol.CommandResponse).Response.(models.ResourceResponse)
	assert.Equal(t, models.ResourceTitanium, response.Type)
	assert.GreaterOrEqual(t, response.Quantity, 100)
	assert.LessOrEqual(t, response.Quantity, 200)
	assert.NotEmpty(t, response.DatabaseID)
	assert.NotEqual(t, response.DatabaseID, identification.EntityDatabaseID)

	inv := sent[1].(protocol.AddComponent).Data.(models.ResourceInventory)
	assert.Equal(t, models.ResourceInfo{DatabaseID: response.DatabaseID, Type: response.Type, Quantity: response.Quantity}, inv.Resources[0])

	doc, ok := f.store.Document("rocks", identification.EntityDatabaseID)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, doc["coords"])
	assert.Equal(t, response.DatabaseID, doc["resource"])
}

func TestGenerate_Idempotent(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	f.positions.OnAdd(5, models.Position{})

	f.request(5, 1, "user", scanner)
	f.system.Update(ctx)
	f.inventory.Update(ctx)
	f.detached.Wait()
	first := responses(f.flush(t))

	// a different user must not change an asteroid that already has its resource
	f.request(5, 2, "someone-else", scanner)
	f.system.Update(ctx)
	f.inventory.Update(ctx)
	f.detached.Wait()
	sent := f.flush(t)

	require.Len(t, sent, 1, "no new adds on retry")
	second := responses(sent)
	assert.Equal(t, first[0].Response, second[0].Response)
	assert.Equal(t, models.RequestID(2), second[0].RequestID)
	assert.Equal(t, 1, f.store.Count("rocks"))
}

func TestGenerate_DuplicateInSameTick(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	f.positions.OnAdd(5, models.Position{})

	f.request(5, 1, "user", scanner)
	f.request(5, 2, "user", scanner)
	f.system.Update(ctx)
	f.inventory.Update(ctx)
	f.detached.Wait()

	sent := f.flush(t)
	got := responses(sent)
	require.Len(t, got, 2)
	assert.Equal(t, got[0].Response, got[1].Response)
	// persistence, inventory, identification once each
	assert.Len(t, sent, 5)
	assert.Equal(t, 1, f.store.Count("rocks"))
}

func TestGenerate_Deterministic(t *testing.T) {
	run := func() models.ResourceResponse {
		f := newFixture(t, 1)
		f.positions.OnAdd(77, models.Position{Coords: models.Coordinates{X: 10, Y: 20, Z: 30}})
		random := scanner
		random.Speciality = models.ResourceRandom
		f.request(77, 1, "user-a", random)
		f.system.Update(context.Background())
		f.detached.Wait()
		return responses(f.flush(t))[0].Response.(models.ResourceResponse)
	}

	a, b := run(), run()
	require.False(t, a.IsEmpty())
	assert.Equal(t, a, b)
	assert.NotEqual(t, models.ResourceRandom, a.Type)
	assert.NotEmpty(t, a.DatabaseID)
	assert.Positive(t, a.Quantity)
}

func TestGenerate_DepletedAsteroidIsNotRegenerated(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	f.positions.OnAdd(5, models.Position{})
	f.identifications.OnAdd(5, models.Identification{EntityDatabaseID: "mined-out"})

	f.request(5, 1, "user", scanner)
	f.system.Update(ctx)
	f.inventory.Update(ctx)
	f.detached.Wait()

	sent := f.flush(t)
	require.Len(t, sent, 1)
	assert.True(t, responses(sent)[0].Response.(models.ResourceResponse).IsEmpty())
	assert.Zero(t, f.store.Count("rocks"))
	got, _ := f.identifications.Get(5)
	assert.Equal(t, "mined-out", got.EntityDatabaseID)
}
