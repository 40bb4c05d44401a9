package validation

import (
	"fmt"
	"os"
	"strings"

	"github.com/AssemSadek/habitat-sim2real/pkg/config"
)

// ValidateConfig checks a run configuration for values the generator
// cannot work with before any scene is loaded.
func ValidateConfig(c *config.Config) *Report {
	r := NewReport()

	validateSimulator(c, r)
	validateDepthSensor(c.Simulator.DepthSensor, r)
	validateDataset(c.Dataset, r)
	validateTask(c.Task, r)
	validateGeneration(c.Generation, r)
	validateDifficulties(c.Generation, r)

	return r
}

func validateSimulator(c *config.Config, r *Report) {
	s := c.Simulator
	if s.Type != "grid" {
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     fmt.Sprintf("unknown simulator type %q", s.Type),
			Path:        "simulator.type",
			ActualValue: s.Type,
			Expected:    "grid",
		})
	}

	if s.Scene == "" {
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     "simulator.scene is required",
			Path:        "simulator.scene",
			Suggestions: []string{"Point simulator.scene at a scene YAML file, relative to the config file"},
		})
	} else if _, err := os.Stat(c.ScenePath()); err != nil {
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     fmt.Sprintf("scene file not readable: %v", err),
			Path:        "simulator.scene",
			ActualValue: c.ScenePath(),
		})
	}

	if s.ForwardStepSize <= 0 {
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     "forward_step_size must be greater than 0",
			Path:        "simulator.forward_step_size",
			ActualValue: s.ForwardStepSize,
			Expected:    "> 0",
		})
	}
	if s.TurnAngle <= 0 || s.TurnAngle >= 360 {
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     "turn_angle must be between 0 and 360 degrees",
			Path:        "simulator.turn_angle",
			ActualValue: s.TurnAngle,
			Expected:    "(0, 360)",
		})
	}
}

func validateDepthSensor(d config.DepthSensor, r *Report) {
	if d.Width <= 0 {
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     "depth_sensor.width must be greater than 0",
			Path:        "simulator.depth_sensor.width",
			ActualValue: d.Width,
			Expected:    "> 0",
		})
	}
	if d.HFOV <= 0 || d.HFOV >= 180 {
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     "depth_sensor.hfov must be between 0 and 180 degrees",
			Path:        "simulator.depth_sensor.hfov",
			ActualValue: d.HFOV,
			Expected:    "(0, 180)",
		})
	}
	if d.MinDepth < 0 || d.MaxDepth <= d.MinDepth {
		r.AddError(Result{
			Level:        LevelConfig,
			Message:      "depth range must satisfy 0 <= min_depth < max_depth",
			Path:         "simulator.depth_sensor.max_depth",
			ActualValue:  d.MaxDepth,
			ConflictWith: "simulator.depth_sensor.min_depth",
		})
	}
}

func validateDataset(d config.Dataset, r *Report) {
	if d.Split == "" {
		r.AddError(Result{
			Level:   LevelConfig,
			Message: "dataset.split is required",
			Path:    "dataset.split",
		})
	}
	if d.DataPath == "" {
		r.AddError(Result{
			Level:   LevelConfig,
			Message: "dataset.data_path is required",
			Path:    "dataset.data_path",
		})
		return
	}
	if !strings.Contains(d.DataPath, "{split}") {
		r.AddWarning(Result{
			Level:       LevelConfig,
			Message:     "data_path has no {split} placeholder; every split writes the same file",
			Path:        "dataset.data_path",
			ActualValue: d.DataPath,
		})
	}
	if !strings.HasSuffix(d.DataPath, ".json.gz") {
		r.AddWarning(Result{
			Level:       LevelConfig,
			Message:     "data_path should end in .json.gz; the dataset is gzip compressed JSON",
			Path:        "dataset.data_path",
			ActualValue: d.DataPath,
		})
	}
}

func validateTask(t config.Task, r *Report) {
	if t.Success.SuccessDistance <= 0 {
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     "success_distance must be greater than 0",
			Path:        "task.success.success_distance",
			ActualValue: t.Success.SuccessDistance,
			Expected:    "> 0",
		})
	}
}

func validateGeneration(g config.Generation, r *Report) {
	nonNegative := []struct {
		path  string
		value float64
	}{
		{"generation.min_island_radius", g.MinIslandRadius},
		{"generation.height_epsilon", g.HeightEpsilon},
		{"generation.max_attempts", float64(g.MaxAttempts)},
		{"generation.max_point_attempts", float64(g.MaxPointAttempts)},
		{"generation.episode_restarts", float64(g.EpisodeRestarts)},
		{"generation.min_points", float64(g.MinPoints)},
	}
	for _, f := range nonNegative {
		if f.value < 0 {
			r.AddError(Result{
				Level:       LevelConfig,
				Message:     fmt.Sprintf("%s must be non-negative", f.path),
				Path:        f.path,
				ActualValue: f.value,
				Expected:    ">= 0",
			})
		}
	}

	switch {
	case g.MinDistRatio <= 0:
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     "min_dist_ratio must be greater than 0",
			Path:        "generation.min_dist_ratio",
			ActualValue: g.MinDistRatio,
			Expected:    "> 0",
		})
	case g.MinDistRatio < 1:
		r.AddWarning(Result{
			Level:       LevelConfig,
			Message:     "min_dist_ratio below 1 accepts every reachable pair",
			Path:        "generation.min_dist_ratio",
			ActualValue: g.MinDistRatio,
			Suggestions: []string{"Use at least 1.1 to keep straight line episodes out of the dataset"},
		})
	}

	if g.MaxAttempts == 0 {
		r.AddInfo(Result{
			Level:   LevelConfig,
			Message: "max_attempts is 0; leg sampling retries without limit",
			Path:    "generation.max_attempts",
		})
	}
	if g.MaxPointAttempts == 0 {
		r.AddInfo(Result{
			Level:   LevelConfig,
			Message: "max_point_attempts is 0; point sampling retries without limit",
			Path:    "generation.max_point_attempts",
		})
	}
}

func validateDifficulties(g config.Generation, r *Report) {
	names, bounds := g.DifficultyNames, g.DifficultyBounds
	if len(names) == 0 {
		r.AddError(Result{
			Level:   LevelConfig,
			Message: "at least one difficulty is required",
			Path:    "generation.difficulty_names",
		})
		return
	}
	if len(bounds) != len(names)+1 {
		r.AddError(Result{
			Level:        LevelConfig,
			Message:      fmt.Sprintf("%d difficulties need %d bounds", len(names), len(names)+1),
			Path:         "generation.difficulty_bounds",
			ActualValue:  len(bounds),
			Expected:     fmt.Sprintf("%d", len(names)+1),
			ConflictWith: "generation.difficulty_names",
		})
		return
	}
	if bounds[0] < 0 {
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     "difficulty bounds must be non-negative",
			Path:        "generation.difficulty_bounds[0]",
			ActualValue: bounds[0],
			Expected:    ">= 0",
		})
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i] <= bounds[i-1] {
			r.AddError(Result{
				Level:       LevelConfig,
				Message:     "difficulty bounds must be strictly increasing",
				Path:        fmt.Sprintf("generation.difficulty_bounds[%d]", i),
				ActualValue: bounds[i],
				Expected:    fmt.Sprintf("> %g", bounds[i-1]),
			})
		}
	}
	seen := make(map[string]bool, len(names))
	for i, n := range names {
		if seen[n] {
			r.AddError(Result{
				Level:       LevelConfig,
				Message:     fmt.Sprintf("duplicate difficulty name %q", n),
				Path:        fmt.Sprintf("generation.difficulty_names[%d]", i),
				ActualValue: n,
			})
		}
		seen[n] = true
	}
}
