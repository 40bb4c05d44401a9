package episode

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/AssemSadek/habitat-sim2real/pkg/sim"
	"github.com/AssemSadek/habitat-sim2real/pkg/validation"
)

// Slack for floating point drift in recomputed distances.
const verifyTolerance = 1e-6

// VerifyOptions configures Verify.
type VerifyOptions struct {
	// GoalsPerEpisode, when positive, is the required goal count.
	GoalsPerEpisode int
	// MinDistRatio is the minimum geodesic / Euclidean ratio of every leg.
	// Zero selects MinDistRatio.
	MinDistRatio float64
	// Workers bounds concurrent geodesic queries. Zero uses GOMAXPROCS.
	Workers int
}

// Verify re-checks a dataset against the simulator: every leg distance lies
// in its difficulty's bounds with a sufficient ratio, the recorded geodesic
// distance is the sum of the legs, goal counts match and start rotations
// are unit yaw quaternions. Results are reported in episode order.
//
// The simulator's GeodesicDistance must be safe for concurrent use.
func Verify(ctx context.Context, s sim.Simulator, episodes []Episode, difficulties []Difficulty, opts VerifyOptions) (*validation.Report, error) {
	if opts.MinDistRatio == 0 {
		opts.MinDistRatio = MinDistRatio
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	byName := make(map[string]Difficulty, len(difficulties))
	for _, d := range difficulties {
		byName[d.Name] = d
	}

	reports := make([]*validation.Report, len(episodes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range episodes {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = verifyEpisode(s, i, &episodes[i], byName, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("verifying episodes: %w", err)
	}

	r := validation.NewReport()
	seen := make(map[string]int, len(episodes))
	for i, ep := range episodes {
		if first, ok := seen[ep.EpisodeID]; ok {
			r.AddError(validation.Result{
				Level:        validation.LevelDataset,
				Message:      fmt.Sprintf("duplicate episode id %q", ep.EpisodeID),
				Path:         fmt.Sprintf("episodes[%d].episode_id", i),
				ConflictWith: fmt.Sprintf("episodes[%d]", first),
			})
		} else {
			seen[ep.EpisodeID] = i
		}
		r.Merge(reports[i])
	}
	r.AddInfo(validation.Result{
		Level:       validation.LevelDataset,
		Message:     fmt.Sprintf("checked %d episodes", len(episodes)),
		Path:        "episodes",
		ActualValue: len(episodes),
	})
	return r, nil
}

func verifyEpisode(s sim.Simulator, i int, ep *Episode, byName map[string]Difficulty, opts VerifyOptions) *validation.Report {
	r := validation.NewReport()
	path := fmt.Sprintf("episodes[%d]", i)

	if opts.GoalsPerEpisode > 0 && len(ep.Goals) != opts.GoalsPerEpisode {
		r.AddError(validation.Result{
			Level:       validation.LevelDataset,
			Message:     "wrong number of goals",
			Path:        path + ".goals",
			ActualValue: len(ep.Goals),
			Expected:    fmt.Sprintf("%d", opts.GoalsPerEpisode),
		})
	}
	if len(ep.Goals) == 0 {
		r.AddError(validation.Result{
			Level:   validation.LevelDataset,
			Message: "episode has no goals",
			Path:    path + ".goals",
		})
	}

	q := ep.StartRotation
	if math.Abs(q.X) > verifyTolerance || math.Abs(q.Z) > verifyTolerance ||
		math.Abs(q.Y*q.Y+q.W*q.W-1) > verifyTolerance {
		r.AddError(validation.Result{
			Level:       validation.LevelDataset,
			Message:     "start rotation is not a unit yaw quaternion",
			Path:        path + ".start_rotation",
			ActualValue: q.Array(),
			Expected:    "[0, sin(a/2), 0, cos(a/2)]",
		})
	}

	d, known := byName[ep.Info.Difficulty]
	if !known && len(byName) > 0 {
		r.AddError(validation.Result{
			Level:       validation.LevelDataset,
			Message:     fmt.Sprintf("unknown difficulty %q", ep.Info.Difficulty),
			Path:        path + ".info.difficulty",
			ActualValue: ep.Info.Difficulty,
		})
	}

	total := 0.0
	for k, l := range ep.Legs() {
		legPath := fmt.Sprintf("%s.goals[%d]", path, k)
		g := s.GeodesicDistance(l.From, l.To)
		if math.IsNaN(g) || math.IsInf(g, 0) || g < 0 {
			r.AddError(validation.Result{
				Level:       validation.LevelDataset,
				Message:     "goal is unreachable from the previous position",
				Path:        legPath,
				ActualValue: g,
			})
			continue
		}
		total += g
		if known && (g < d.MinDistance-verifyTolerance || g > d.MaxDistance+verifyTolerance) {
			r.AddError(validation.Result{
				Level:       validation.LevelDataset,
				Message:     fmt.Sprintf("leg geodesic distance outside %q bounds", d.Name),
				Path:        legPath,
				ActualValue: g,
				Expected:    fmt.Sprintf("[%g, %g]", d.MinDistance, d.MaxDistance),
			})
		}
		euc := l.From.Distance(l.To)
		if euc <= 0 || g/euc < opts.MinDistRatio-verifyTolerance {
			r.AddError(validation.Result{
				Level:       validation.LevelDataset,
				Message:     "leg is too straight",
				Path:        legPath,
				ActualValue: ratio(g, euc),
				Expected:    fmt.Sprintf(">= %g", opts.MinDistRatio),
				Suggestions: []string{"Regenerate with a scene that has more obstacles"},
			})
		}
	}

	if math.Abs(total-ep.Info.GeodesicDistance) > verifyTolerance*math.Max(1, total) {
		r.AddError(validation.Result{
			Level:       validation.LevelDataset,
			Message:     "recorded geodesic distance differs from the sum of legs",
			Path:        path + ".info.geodesic_distance",
			ActualValue: ep.Info.GeodesicDistance,
			Expected:    fmt.Sprintf("%g", total),
		})
	}
	return r
}

func ratio(g, euc float64) float64 {
	if euc <= 0 {
		return math.Inf(1)
	}
	return g / euc
}
