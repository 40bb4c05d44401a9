package config

// Config is the top-level run configuration for dataset generation and the
// viewer.
type Config struct {
	Simulator  Simulator  `yaml:"simulator" json:"simulator"`
	Dataset    Dataset    `yaml:"dataset" json:"dataset"`
	Task       Task       `yaml:"task" json:"task"`
	Generation Generation `yaml:"generation" json:"generation"`

	// Dir is the directory the config was loaded from. Relative scene paths
	// resolve against it.
	Dir string `yaml:"-" json:"-"`
}

type Simulator struct {
	Type            string      `yaml:"type" json:"type" default:"grid"`
	Scene           string      `yaml:"scene" json:"scene"`
	ForwardStepSize float64     `yaml:"forward_step_size" json:"forward_step_size" default:"0.25"`
	TurnAngle       float64     `yaml:"turn_angle" json:"turn_angle" default:"10"` // degrees
	DepthSensor     DepthSensor `yaml:"depth_sensor" json:"depth_sensor"`
}

// DepthSensor describes the forward-facing depth scan used by the viewer.
type DepthSensor struct {
	Width          int     `yaml:"width" json:"width" default:"64"`
	HFOV           float64 `yaml:"hfov" json:"hfov" default:"90"` // degrees
	MinDepth       float64 `yaml:"min_depth" json:"min_depth" default:"0"`
	MaxDepth       float64 `yaml:"max_depth" json:"max_depth" default:"10"`
	NormalizeDepth bool    `yaml:"normalize_depth" json:"normalize_depth" default:"true"`
}

type Dataset struct {
	Type     string `yaml:"type" json:"type" default:"MultiGoalPointNav-v1"`
	Split    string `yaml:"split" json:"split" default:"train"`
	DataPath string `yaml:"data_path" json:"data_path" default:"data/datasets/multigoal_pointnav/{split}/{split}.json.gz"`
}

type Task struct {
	Success Success `yaml:"success" json:"success"`
}

type Success struct {
	SuccessDistance float64 `yaml:"success_distance" json:"success_distance" default:"0.2"`
}

// Generation holds the episode sampler parameters.
type Generation struct {
	MinIslandRadius  float64   `yaml:"min_island_radius" json:"min_island_radius" default:"1.5"`
	MinDistRatio     float64   `yaml:"min_dist_ratio" json:"min_dist_ratio" default:"1.1"`
	HeightEpsilon    float64   `yaml:"height_epsilon" json:"height_epsilon" default:"1e-5"`
	DifficultyNames  []string  `yaml:"difficulty_names" json:"difficulty_names" default:"[\"very easy\",\"easy\",\"medium\",\"hard\"]"`
	DifficultyBounds []float64 `yaml:"difficulty_bounds" json:"difficulty_bounds" default:"[1,3,7,13,20]"`
	MaxAttempts      int       `yaml:"max_attempts" json:"max_attempts" default:"100000"`
	MaxPointAttempts int       `yaml:"max_point_attempts" json:"max_point_attempts" default:"100000"`
	EpisodeRestarts  int       `yaml:"episode_restarts" json:"episode_restarts" default:"0"`
	MinPoints        int       `yaml:"min_points" json:"min_points" default:"0"`
}
