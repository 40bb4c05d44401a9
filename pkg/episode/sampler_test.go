package episode

import (
	"errors"
	"math"
	"math/rand"
	"strconv"
	"testing"

	"github.com/AssemSadek/habitat-sim2real/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testPoints = floorPoints(600, 1)
	testPairs  = BuildCandidatePairs(testPoints)
)

func testOptions() Options {
	return Options{
		SceneID:         "data/scene_datasets/fake.glb",
		GoalsPerEpisode: 3,
		SuccessDistance: 0.2,
		MaxAttempts:     1000,
		EpisodeRestarts: 20,
	}
}

func generate(t *testing.T, f *fakeSim, seed int64, ratios string, total int, opts Options) ([]Episode, []Difficulty) {
	t.Helper()
	ds, err := ResolveDifficulties(ratios, total, nil, nil)
	require.NoError(t, err)
	s := NewSampler(f, rand.New(rand.NewSource(seed)), opts)
	episodes, err := s.Generate(testPoints, testPairs, ds)
	require.NoError(t, err)
	return episodes, ds
}

// checkEpisode asserts the leg and assembly invariants of one episode.
func checkEpisode(t *testing.T, ep Episode, d Difficulty, opts Options) {
	t.Helper()
	assert.Equal(t, d.Name, ep.Info.Difficulty)
	assert.Equal(t, opts.SceneID, ep.SceneID)
	require.Len(t, ep.Goals, opts.GoalsPerEpisode)

	total := 0.0
	for k, l := range ep.Legs() {
		g := 1.5 * l.From.Distance(l.To)
		assert.GreaterOrEqual(t, g, d.MinDistance, "episode %s leg %d", ep.EpisodeID, k)
		assert.LessOrEqual(t, g, d.MaxDistance, "episode %s leg %d", ep.EpisodeID, k)
		assert.GreaterOrEqual(t, g/l.From.Distance(l.To), MinDistRatio)
		assert.Equal(t, opts.SuccessDistance, ep.Goals[k].Radius)
		total += g
	}
	assert.InDelta(t, total, ep.Info.GeodesicDistance, 1e-9)

	q := ep.StartRotation
	assert.Zero(t, q.X)
	assert.Zero(t, q.Z)
	assert.InDelta(t, 1, q.Y*q.Y+q.W*q.W, 1e-12)
}

func TestGenerateInvariants(t *testing.T) {
	opts := testOptions()
	episodes, ds := generate(t, newFakeSim(1.5), 11, DefaultDifficultyRatios, 20, opts)
	require.Len(t, episodes, 20)

	byName := map[string]Difficulty{}
	for _, d := range ds {
		byName[d.Name] = d
	}
	perBucket := map[string]int{}
	for i, ep := range episodes {
		assert.Equal(t, strconv.Itoa(i), ep.EpisodeID)
		perBucket[ep.Info.Difficulty]++
		checkEpisode(t, ep, byName[ep.Info.Difficulty], opts)
	}
	for _, d := range ds {
		assert.Equal(t, d.Count, perBucket[d.Name], d.Name)
	}
}

func TestGenerateChainsFromSampledPoints(t *testing.T) {
	episodes, _ := generate(t, newFakeSim(1.5), 3, DefaultDifficultyRatios, 8, testOptions())

	known := map[geo.Point3]bool{}
	for _, p := range testPoints {
		known[p] = true
	}
	for _, ep := range episodes {
		assert.True(t, known[ep.StartPosition], "start is a sampled point")
		prev := ep.StartPosition
		for _, g := range ep.Goals {
			assert.True(t, known[g.Position], "goal is a sampled point")
			assert.NotEqual(t, prev, g.Position, "a leg moves to a different point")
			prev = g.Position
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, _ := generate(t, newFakeSim(1.5), 5, DefaultDifficultyRatios, 12, testOptions())
	b, _ := generate(t, newFakeSim(1.5), 5, DefaultDifficultyRatios, 12, testOptions())
	c, _ := generate(t, newFakeSim(1.5), 6, DefaultDifficultyRatios, 12, testOptions())

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGenerateOnePerBucket(t *testing.T) {
	opts := testOptions()
	episodes, ds := generate(t, newFakeSim(1.5), 42, "25,25,25,25", 4, opts)
	require.Len(t, episodes, 4)
	for i, ep := range episodes {
		checkEpisode(t, ep, ds[i], opts)
	}
}

func TestGenerateSkipsEmptyBuckets(t *testing.T) {
	episodes, _ := generate(t, newFakeSim(1.5), 1, "0,100,0,0", 5, testOptions())
	require.Len(t, episodes, 5)
	for i, ep := range episodes {
		assert.Equal(t, "easy", ep.Info.Difficulty)
		assert.Equal(t, strconv.Itoa(i), ep.EpisodeID)
	}
}

func TestGenerateProgress(t *testing.T) {
	var calls [][2]int
	opts := testOptions()
	opts.Progress = func(done, total int) { calls = append(calls, [2]int{done, total}) }

	generate(t, newFakeSim(1.5), 2, "25,25,25,25", 8, opts)
	require.Len(t, calls, 8)
	for i, c := range calls {
		assert.Equal(t, [2]int{i + 1, 8}, c)
	}
}

func TestGenerateExhaustedOnStraightLegs(t *testing.T) {
	f := newFakeSim(1.0)
	opts := testOptions()
	opts.MaxAttempts = 50
	opts.EpisodeRestarts = 5
	ds, err := ResolveDifficulties(DefaultDifficultyRatios, 4, nil, nil)
	require.NoError(t, err)

	_, err = NewSampler(f, rand.New(rand.NewSource(1)), opts).Generate(testPoints, testPairs, ds)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSamplingExhausted)

	var exhausted *SamplingExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, "very easy", exhausted.Difficulty)
	assert.Equal(t, 0, exhausted.Episode)
	assert.Equal(t, 0, exhausted.Leg)
	assert.Equal(t, 50, exhausted.Attempts)
	assert.Positive(t, exhausted.Candidates)
	assert.Equal(t, int64(50), f.queries.Load(), "first leg failures are not restarted")
}

func TestGenerateNoCandidates(t *testing.T) {
	f := newFakeSim(1.5)
	points := []geo.Point3{geo.P3(5, 0, 5), geo.P3(5.1, 0, 5)}
	ds, err := ResolveDifficulties("100,0,0,0", 1, nil, nil)
	require.NoError(t, err)

	_, err = NewSampler(f, rand.New(rand.NewSource(1)), testOptions()).
		Generate(points, BuildCandidatePairs(points), ds)

	var exhausted *SamplingExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Zero(t, exhausted.Candidates)
	assert.Zero(t, exhausted.Attempts)
	assert.Zero(t, f.queries.Load())
	assert.Contains(t, err.Error(), "no candidate pairs")
}

func TestGenerateRestartsOnChainedLeg(t *testing.T) {
	points := []geo.Point3{geo.P3(5, 0, 5), geo.P3(7, 0, 5)}
	pairs := BuildCandidatePairs(points)
	ds, err := ResolveDifficulties("100,0,0,0", 1, nil, nil)
	require.NoError(t, err)

	tests := []struct {
		restarts int
		queries  int64
	}{
		{0, 6},
		{3, 24},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.restarts), func(t *testing.T) {
			f := newFakeSim(1.5)
			f.trapped = map[geo.Point3]bool{points[1]: true}
			opts := testOptions()
			opts.GoalsPerEpisode = 2
			opts.MaxAttempts = 5
			opts.EpisodeRestarts = tt.restarts

			_, err := NewSampler(f, rand.New(rand.NewSource(1)), opts).Generate(points, pairs, ds)

			var exhausted *SamplingExhaustedError
			require.True(t, errors.As(err, &exhausted))
			assert.Equal(t, 1, exhausted.Leg)
			assert.Equal(t, 5, exhausted.Attempts)
			assert.Equal(t, 1, exhausted.Candidates)
			assert.Equal(t, tt.queries, f.queries.Load())
		})
	}
}

func TestGenerateSkipsInvalidGeodesics(t *testing.T) {
	for _, bad := range []float64{math.NaN(), -1, math.Inf(-1)} {
		t.Run(strconv.FormatFloat(bad, 'g', -1, 64), func(t *testing.T) {
			f := newFakeSim(1.5)
			f.broken = map[geo.Point3]float64{}
			for i, p := range testPoints {
				if i%3 == 0 {
					f.broken[p] = bad
				}
			}
			opts := testOptions()
			episodes, ds := generate(t, f, 7, DefaultDifficultyRatios, 8, opts)
			require.Len(t, episodes, 8)

			byName := map[string]Difficulty{}
			for _, d := range ds {
				byName[d.Name] = d
			}
			for _, ep := range episodes {
				checkEpisode(t, ep, byName[ep.Info.Difficulty], opts)
				_, ok := f.broken[ep.StartPosition]
				assert.False(t, ok, "episode %s starts on a broken point", ep.EpisodeID)
				for k, g := range ep.Goals {
					_, ok := f.broken[g.Position]
					assert.False(t, ok, "episode %s goal %d is a broken point", ep.EpisodeID, k)
				}
			}
		})
	}
}

func TestGenerateExhaustedOnInvalidGeodesics(t *testing.T) {
	points := []geo.Point3{geo.P3(5, 0, 5), geo.P3(7, 0, 5)}
	ds, err := ResolveDifficulties("100,0,0,0", 1, nil, nil)
	require.NoError(t, err)

	for _, bad := range []float64{math.NaN(), -1} {
		f := newFakeSim(1.5)
		f.broken = map[geo.Point3]float64{points[0]: bad}
		opts := testOptions()
		opts.MaxAttempts = 20

		_, err := NewSampler(f, rand.New(rand.NewSource(1)), opts).Generate(points, BuildCandidatePairs(points), ds)
		assert.ErrorIs(t, err, ErrSamplingExhausted, "geodesic %v", bad)
		assert.Equal(t, int64(20), f.queries.Load(), "geodesic %v", bad)
	}
}
