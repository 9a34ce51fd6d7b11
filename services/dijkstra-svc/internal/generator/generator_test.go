package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathfinder/pkg/apperror"
	"pathfinder/services/dijkstra-svc/internal/graph"
)

func testConfig(n int, seed int64) Config {
	cfg := DefaultConfig()
	cfg.Vertices = n
	cfg.Seed = seed
	return cfg
}

func generate(t *testing.T, cfg Config, opts ...Option) (*graph.Store, *Report) {
	t.Helper()
	store, report, err := New(cfg, opts...).Generate(context.Background())
	require.NoError(t, err)
	require.NotNil(t, store)
	require.NotNil(t, report)
	return store, report
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 5000, cfg.Vertices)
	assert.Equal(t, int64(10), cfg.Seed)
	assert.Equal(t, 25, cfg.MaxEdgeWeight)
	assert.Equal(t, 111, cfg.NoConnection)
	assert.NoError(t, cfg.Validate())
}

func TestGenerate_DegreeInvariants(t *testing.T) {
	sizes := []int{2, 3, 5, 17, 64, 200}
	seeds := []int64{0, 1, 10, 42, 12345}

	for _, n := range sizes {
		for _, seed := range seeds {
			store, _ := generate(t, testConfig(n, seed))

			for v := 0; v < n; v++ {
				assert.GreaterOrEqual(t, store.OutDegree(v), 1, "n=%d seed=%d vertex %d has no outgoing edge", n, seed, v)
				assert.GreaterOrEqual(t, store.InDegree(v), 1, "n=%d seed=%d vertex %d has no incoming edge", n, seed, v)
				assert.Equal(t, 0, store.Weight(v, v), "n=%d seed=%d diagonal %d", n, seed, v)
				assert.False(t, store.HasEdge(v, v))
			}
		}
	}
}

func TestGenerate_WeightsInRange(t *testing.T) {
	store, _ := generate(t, testConfig(50, 7))
	limits := store.Limits()

	for i := 0; i < store.Len(); i++ {
		for j := 0; j < store.Len(); j++ {
			w := store.Weight(i, j)
			switch {
			case i == j:
				assert.Equal(t, 0, w)
			case w == limits.NoConnection:
			default:
				assert.True(t, limits.IsLegalWeight(w), "cell (%d,%d) = %d", i, j, w)
			}
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a, reportA := generate(t, testConfig(120, 99))
	b, reportB := generate(t, testConfig(120, 99))

	assert.True(t, a.Equal(b), "same seed must produce bit-identical matrices")
	assert.Equal(t, reportA.Edges, reportB.Edges)
	assert.Equal(t, reportA.ForcedOutgoing, reportB.ForcedOutgoing)
	assert.Equal(t, reportA.ForcedIncoming, reportB.ForcedIncoming)

	c, _ := generate(t, testConfig(120, 100))
	assert.False(t, a.Equal(c), "different seeds should produce different matrices")
}

func TestGenerate_SingleVertex(t *testing.T) {
	store, report := generate(t, testConfig(1, 10))

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 0, store.Weight(0, 0))
	assert.Zero(t, report.Edges)
	assert.Zero(t, report.Forced())
}

func TestGenerate_ForcedEdges(t *testing.T) {
	// With MaxEdgeWeight 2 the only legal weight is 1 and each cell has a
	// 50% chance of an edge, so small graphs regularly need repairs.
	cfg := testConfig(2, 0)
	cfg.MaxEdgeWeight = 2

	var observed []Direction
	for seed := int64(0); seed < 64; seed++ {
		cfg.Seed = seed
		store, report := generate(t, cfg, WithObserver(func(dir Direction, _ ForcedEdge) {
			observed = append(observed, dir)
		}))

		for _, e := range report.ForcedOutgoing {
			assert.NotEqual(t, e.From, e.To, "forced outgoing self-loop")
			assert.Equal(t, 1, e.Weight)
			assert.True(t, store.HasEdge(e.From, e.To))
		}
		for _, e := range report.ForcedIncoming {
			assert.NotEqual(t, e.From, e.To, "forced incoming self-loop")
			assert.True(t, store.HasEdge(e.From, e.To))
		}
		assert.True(t, store.HasEdge(0, 1))
		assert.True(t, store.HasEdge(1, 0))
		assert.Equal(t, 2, report.Edges)
	}

	assert.NotEmpty(t, observed, "some seed should need a repair edge")
}

func TestGenerate_IncomingRepairFollowsRandomEdgesOnly(t *testing.T) {
	cfg := testConfig(2, 0)
	cfg.MaxEdgeWeight = 2

	repairedAfterForcedOut := 0
	for _, n := range []int{2, 3, 4, 5} {
		cfg.Vertices = n
		for seed := int64(0); seed < 128; seed++ {
			cfg.Seed = seed
			store, report := generate(t, cfg)

			type cell struct{ from, to int }
			forced := make(map[cell]struct{})
			forcedOutTo := make(map[int]bool)
			for _, e := range report.ForcedOutgoing {
				forced[cell{e.From, e.To}] = struct{}{}
				forcedOutTo[e.To] = true
			}
			forcedInTo := make(map[int]int)
			for _, e := range report.ForcedIncoming {
				forced[cell{e.From, e.To}] = struct{}{}
				forcedInTo[e.To]++
			}

			for v := 0; v < n; v++ {
				randomIn := store.InDegree(v)
				for c := range forced {
					if c.to == v {
						randomIn--
					}
				}
				if randomIn == 0 {
					assert.Equal(t, 1, forcedInTo[v], "n=%d seed=%d vertex %d lacks a random in-edge", n, seed, v)
				} else {
					assert.Zero(t, forcedInTo[v], "n=%d seed=%d vertex %d already had a random in-edge", n, seed, v)
				}
				if forcedOutTo[v] && forcedInTo[v] > 0 {
					repairedAfterForcedOut++
				}
			}
		}
	}

	assert.Positive(t, repairedAfterForcedOut, "a forced out-edge target must still be eligible for incoming repair")
}

func TestGenerate_ReportMatchesStore(t *testing.T) {
	store, report := generate(t, testConfig(30, 3))

	assert.Equal(t, 30, report.Vertices)
	assert.Equal(t, int64(3), report.Seed)
	assert.Equal(t, store.EdgeCount(), report.Edges)
	assert.Positive(t, report.Duration)
}

func TestGenerate_StoreIsClean(t *testing.T) {
	store, _ := generate(t, testConfig(20, 5))

	for v := 0; v < store.Len(); v++ {
		assert.False(t, store.Discovered(v), "discovery flags must be cleared")
		assert.Equal(t, graph.Infinity, store.Distances()[v])
	}
}

func TestGenerate_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero vertices", func(c *Config) { c.Vertices = 0 }, "vertices"},
		{"negative seed", func(c *Config) { c.Seed = -1 }, "seed"},
		{"max weight too small", func(c *Config) { c.MaxEdgeWeight = 1 }, "max_edge_weight"},
		{"marker below max weight", func(c *Config) { c.NoConnection = 20 }, "no_connection"},
		{"marker above byte", func(c *Config) { c.NoConnection = 300 }, "no_connection"},
		{"negative cell budget", func(c *Config) { c.MaxCells = -1 }, "max_cells"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(4, 1)
			tt.mutate(&cfg)

			store, report, err := New(cfg).Generate(context.Background())
			require.Error(t, err)
			assert.Nil(t, store)
			assert.Nil(t, report)
			assert.True(t, apperror.Is(err, apperror.CodeInvalidArgument))

			var appErr *apperror.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestGenerate_ValidationBeforeAllocation(t *testing.T) {
	// A budget violation would surface as OUT_OF_MEMORY; a bad seed must win.
	cfg := testConfig(1000, -5)
	cfg.MaxCells = 10

	_, _, err := New(cfg).Generate(context.Background())
	assert.True(t, apperror.Is(err, apperror.CodeInvalidArgument))
}

func TestGenerate_OutOfMemory(t *testing.T) {
	cfg := testConfig(1000, 1)
	cfg.MaxCells = 999_999

	_, _, err := New(cfg).Generate(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeOutOfMemory))
	assert.True(t, apperror.IsCritical(err))
}

func TestGenerate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store, report, err := New(testConfig(50, 1)).Generate(ctx)
	require.Error(t, err)
	assert.Nil(t, store)
	assert.Nil(t, report)
	assert.True(t, apperror.Is(err, apperror.CodeCanceled))
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkGenerate(b *testing.B) {
	gen := New(testConfig(500, 10))
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, _, err := gen.Generate(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}
