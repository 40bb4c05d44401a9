package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/AssemSadek/habitat-sim2real/pkg/config"
	"github.com/AssemSadek/habitat-sim2real/pkg/dataset"
	"github.com/AssemSadek/habitat-sim2real/pkg/episode"
)

const citiConfig = "../../examples/citi/config.yaml"

const serpentineScene = `
name: serpentine
cell_size: 0.5
agent_start: [1, 0, 1]
floors:
  - height: 0
    navigable:
      - rect: [0, 0, 20, 20]
    obstacles:
      - rect: [4.5, 0, 5.5, 16]
      - rect: [9.5, 4, 10.5, 20]
      - rect: [14.5, 0, 15.5, 16]
`

const serpentineConfig = `
simulator:
  scene: scene.yaml
generation:
  difficulty_names: [winding]
  difficulty_bounds: [4, 60]
  min_points: 150
  episode_restarts: 20
`

// writeProject lays out a config and scene in a temp dir and returns the
// config path and the directory.
func writeProject(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scene.yaml"), []byte(serpentineScene), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(serpentineConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	return path, dir
}

func TestRunValidate(t *testing.T) {
	err := runValidate(runOptions{configPath: citiConfig, episodes: 300, ratios: episode.DefaultDifficultyRatios})
	if err != nil {
		t.Fatalf("runValidate failed: %v", err)
	}
}

func TestRunValidateBadRatios(t *testing.T) {
	err := runValidate(runOptions{configPath: citiConfig, episodes: 300, ratios: "1, 2, 3"})
	if !errors.Is(err, episode.ErrInvalidConfiguration) {
		t.Errorf("err = %v, want ErrInvalidConfiguration", err)
	}
}

func TestRunValidateOverrides(t *testing.T) {
	opts := runOptions{
		configPath: citiConfig,
		episodes:   10,
		ratios:     episode.DefaultDifficultyRatios,
		overrides:  []string{"GENERATION.MIN_DIST_RATIO", "0"},
	}
	if err := runValidate(opts); !errors.Is(err, errInvalid) {
		t.Errorf("err = %v, want errInvalid", err)
	}

	opts.overrides = []string{"GENERATION.NO_SUCH_KEY", "1"}
	if err := runValidate(opts); !errors.Is(err, config.ErrInvalidOverride) {
		t.Errorf("err = %v, want ErrInvalidOverride", err)
	}
}

func TestOverridesMayLookLikeFlags(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"validate", "-c", citiConfig, "-n", "10", "GENERATION.MIN_DIST_RATIO", "-1"})
	if err := root.Execute(); !errors.Is(err, errInvalid) {
		t.Errorf("err = %v, want errInvalid", err)
	}

	// Anything after the first key is an override, even a known flag.
	root = newRootCmd()
	root.SetArgs([]string{"validate", "-c", citiConfig, "GENERATION.MIN_DIST_RATIO", "1.2", "-n", "10"})
	if err := root.Execute(); !errors.Is(err, config.ErrInvalidOverride) {
		t.Errorf("err = %v, want ErrInvalidOverride", err)
	}
}

func TestRunGenerateFailsFast(t *testing.T) {
	opts := generateOptions{
		runOptions: runOptions{configPath: citiConfig, episodes: 10, ratios: "a, b, c, d"},
		goals:      3,
	}
	if err := runGenerate(opts); !errors.Is(err, episode.ErrInvalidConfiguration) {
		t.Errorf("err = %v, want ErrInvalidConfiguration", err)
	}

	opts.ratios = episode.DefaultDifficultyRatios
	opts.goals = 0
	if err := runGenerate(opts); !errors.Is(err, episode.ErrInvalidConfiguration) {
		t.Errorf("err = %v, want ErrInvalidConfiguration", err)
	}
}

func TestRunGenerateAndVerify(t *testing.T) {
	cfgPath, dir := writeProject(t)
	generate := func(split string) string {
		opts := generateOptions{
			runOptions: runOptions{
				configPath: cfgPath,
				episodes:   4,
				ratios:     "1",
				overrides: []string{
					"DATASET.DATA_PATH", filepath.Join(dir, "out", "{split}", "{split}.json.gz"),
					"DATASET.SPLIT", split,
				},
			},
			goals:   2,
			seed:    12345,
			seedSet: true,
		}
		if err := runGenerate(opts); err != nil {
			t.Fatalf("runGenerate failed: %v", err)
		}
		return filepath.Join(dir, "out", split, split+".json.gz")
	}

	a, b := generate("a"), generate("b")

	d, err := dataset.Read(a)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(d.Episodes) != 4 {
		t.Fatalf("episodes = %d, want 4", len(d.Episodes))
	}
	for i, ep := range d.Episodes {
		if len(ep.Goals) != 2 {
			t.Errorf("episode %d has %d goals, want 2", i, len(ep.Goals))
		}
		if ep.SceneID != "scene.yaml" {
			t.Errorf("scene_id = %q, want %q", ep.SceneID, "scene.yaml")
		}
	}

	da, _ := os.ReadFile(a)
	db, _ := os.ReadFile(b)
	if !bytes.Equal(da, db) {
		t.Error("same seed produced different datasets")
	}

	err = runVerify(verifyOptions{datasetPath: a, configPath: cfgPath, goals: 2, workers: 2})
	if err != nil {
		t.Errorf("runVerify failed: %v", err)
	}
	err = runVerify(verifyOptions{datasetPath: a, configPath: cfgPath, goals: 3})
	if err == nil {
		t.Error("expected goal count errors")
	}
}

func TestRunVerifyRejectsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json.gz")
	bad := &dataset.Dataset{Episodes: []episode.Episode{{EpisodeID: "0"}}}
	if err := dataset.Write(path, bad); err != nil {
		t.Fatal(err)
	}
	if err := runVerify(verifyOptions{datasetPath: path, configPath: citiConfig}); err == nil {
		t.Error("expected schema validation failure")
	}
}

func TestProgressLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	progress := progressLogger(zap.New(core))
	for i := 1; i <= 95; i++ {
		progress(i, 95)
	}
	if logs.Len() != 10 {
		t.Errorf("progress logged %d times, want 10", logs.Len())
	}
}

func TestSummarize(t *testing.T) {
	ds := []episode.Difficulty{{Name: "easy"}, {Name: "hard"}}
	eps := []episode.Episode{
		{Info: episode.Info{Difficulty: "easy", GeodesicDistance: 2}},
		{Info: episode.Info{Difficulty: "easy", GeodesicDistance: 4}},
		{Info: episode.Info{Difficulty: "other", GeodesicDistance: 9}},
	}
	stats := summarize(ds, eps)

	easy := stats["easy"]
	if easy.count != 2 || easy.min != 2 || easy.max != 4 || easy.sum != 6 {
		t.Errorf("easy stats = %+v", *easy)
	}
	if stats["hard"].count != 0 {
		t.Errorf("hard count = %d, want 0", stats["hard"].count)
	}
}
