package episode

import (
	"errors"
	"math"
	"math/rand"
	"strconv"

	"go.uber.org/zap"

	"github.com/AssemSadek/habitat-sim2real/internal/logging"
	"github.com/AssemSadek/habitat-sim2real/pkg/geo"
	"github.com/AssemSadek/habitat-sim2real/pkg/sim"
)

// Options configures a Sampler.
type Options struct {
	SceneID         string
	GoalsPerEpisode int
	SuccessDistance float64
	// MinDistRatio is the minimum geodesic / Euclidean ratio of every leg.
	// Zero selects MinDistRatio.
	MinDistRatio float64
	// MaxAttempts bounds the draws per leg. Zero means unbounded.
	MaxAttempts int
	// EpisodeRestarts is how many times an episode is started over when one
	// of its chained legs runs out of candidates.
	EpisodeRestarts int
	Logger          *zap.Logger
	// Progress, if set, is called after every completed episode.
	Progress func(done, total int)
}

// Sampler draws episodes from precomputed candidate pairs. It is not safe
// for concurrent use.
type Sampler struct {
	sim  sim.Simulator
	rng  *rand.Rand
	opts Options
	log  *zap.Logger
}

// NewSampler returns a sampler drawing from rng. Output is reproducible for
// a given rng seed and a deterministic simulator.
func NewSampler(s sim.Simulator, rng *rand.Rand, opts Options) *Sampler {
	if opts.MinDistRatio == 0 {
		opts.MinDistRatio = MinDistRatio
	}
	if opts.GoalsPerEpisode <= 0 {
		opts.GoalsPerEpisode = 1
	}
	return &Sampler{sim: s, rng: rng, opts: opts, log: logging.OrNop(opts.Logger)}
}

// bucket is the per-difficulty view of the candidate pairs.
type bucket struct {
	Difficulty
	pairs []CandidatePair
	index [][]int32
}

type leg struct {
	src, dst int
	geodesic float64
}

// Generate samples difficulties[i].Count episodes for each bucket in order.
// Episode ids are consecutive decimal strings starting at "0".
func (s *Sampler) Generate(points []geo.Point3, pairs []CandidatePair, difficulties []Difficulty) ([]Episode, error) {
	total := Total(difficulties)
	episodes := make([]Episode, 0, total)

	for _, d := range difficulties {
		if d.Count == 0 {
			continue
		}
		filtered := FilterCandidates(pairs, d.MinDistance, d.MaxDistance)
		b := &bucket{
			Difficulty: d,
			pairs:      filtered,
			index:      indexByEndpoint(filtered, len(points)),
		}
		s.log.Info("sampling difficulty",
			zap.String("difficulty", d.Name),
			zap.Int("episodes", d.Count),
			zap.Float64("min_distance", d.MinDistance),
			zap.Float64("max_distance", d.MaxDistance),
			zap.Int("candidates", len(filtered)))

		for i := 0; i < d.Count; i++ {
			ep, err := s.sampleEpisode(points, b, len(episodes))
			if err != nil {
				return nil, err
			}
			episodes = append(episodes, ep)
			if s.opts.Progress != nil {
				s.opts.Progress(len(episodes), total)
			}
		}
	}
	return episodes, nil
}

func (s *Sampler) sampleEpisode(points []geo.Point3, b *bucket, id int) (Episode, error) {
	var legs []leg
	for restart := 0; ; restart++ {
		var err error
		legs, err = s.samplePath(points, b, id)
		if err == nil {
			break
		}
		var exhausted *SamplingExhaustedError
		if errors.As(err, &exhausted) && exhausted.Leg > 0 && restart < s.opts.EpisodeRestarts {
			s.log.Debug("restarting episode",
				zap.Int("episode", id),
				zap.Int("leg", exhausted.Leg),
				zap.Int("restart", restart+1))
			continue
		}
		return Episode{}, err
	}

	goals := make([]Goal, len(legs))
	total := 0.0
	for i, l := range legs {
		goals[i] = Goal{Position: points[l.dst], Radius: s.opts.SuccessDistance}
		total += l.geodesic
	}
	yaw := 2 * math.Pi * s.rng.Float64()

	return Episode{
		EpisodeID:     strconv.Itoa(id),
		SceneID:       s.opts.SceneID,
		StartPosition: points[legs[0].src],
		StartRotation: geo.YawQuat(yaw),
		Goals:         goals,
		Info: Info{
			Difficulty:       b.Name,
			GeodesicDistance: total,
		},
	}, nil
}

// samplePath draws the first leg from the whole bucket, then chains each
// following leg from the previous destination.
func (s *Sampler) samplePath(points []geo.Point3, b *bucket, id int) ([]leg, error) {
	legs := make([]leg, 0, s.opts.GoalsPerEpisode)
	from := -1
	for k := 0; k < s.opts.GoalsPerEpisode; k++ {
		l, err := s.sampleLeg(points, b, from)
		if err != nil {
			if exhausted, ok := err.(*SamplingExhaustedError); ok {
				exhausted.Episode = id
				exhausted.Leg = k
			}
			return nil, err
		}
		legs = append(legs, l)
		from = l.dst
	}
	return legs, nil
}

// sampleLeg draws candidate pairs uniformly until one passes accept. A
// negative from selects among all pairs of the bucket; otherwise only pairs
// touching point from are drawn and the leg leads to their other endpoint.
func (s *Sampler) sampleLeg(points []geo.Point3, b *bucket, from int) (leg, error) {
	n := len(b.pairs)
	if from >= 0 {
		n = len(b.index[from])
	}
	if n == 0 {
		return leg{}, &SamplingExhaustedError{Difficulty: b.Name}
	}

	attempts := 0
	for s.opts.MaxAttempts <= 0 || attempts < s.opts.MaxAttempts {
		attempts++
		var p CandidatePair
		var src, dst int
		if from < 0 {
			p = b.pairs[s.rng.Intn(n)]
			src, dst = int(p.I), int(p.J)
		} else {
			p = b.pairs[b.index[from][s.rng.Intn(n)]]
			src, dst = from, p.Other(from)
		}
		d := s.sim.GeodesicDistance(points[src], points[dst])
		if s.accept(d, p.Euclidean, b.MinDistance, b.MaxDistance) {
			return leg{src: src, dst: dst, geodesic: d}, nil
		}
	}
	return leg{}, &SamplingExhaustedError{Difficulty: b.Name, Candidates: n, Attempts: attempts}
}

// accept is the leg test: a finite geodesic distance inside the bucket whose
// ratio to the straight line distance is at least the minimum.
func (s *Sampler) accept(d, euclidean, minD, maxD float64) bool {
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return false
	}
	if d < minD || d > maxD {
		return false
	}
	if euclidean <= 0 {
		return false
	}
	return d/euclidean >= s.opts.MinDistRatio
}
