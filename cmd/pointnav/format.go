package main

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/AssemSadek/habitat-sim2real/pkg/dataset"
	"github.com/AssemSadek/habitat-sim2real/pkg/episode"
	"github.com/AssemSadek/habitat-sim2real/pkg/validation"
)

func printValidationReport(r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Printf("ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Printf("  [%s] %s\n", e.Level, e.Message)
			if e.Path != "" {
				fmt.Printf("    -> %s = %v\n", e.Path, e.ActualValue)
			}
			if e.Expected != "" {
				fmt.Printf("    expected: %s\n", e.Expected)
			}
			if e.ConflictWith != "" {
				fmt.Printf("    conflicts with: %s\n", e.ConflictWith)
			}
			for _, s := range e.Suggestions {
				fmt.Printf("    * %s\n", s)
			}
		}
		fmt.Println()
	}

	if len(r.Warnings) > 0 {
		fmt.Printf("WARNINGS (%d):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			fmt.Printf("  [%s] %s\n", w.Level, w.Message)
			if w.Path != "" {
				fmt.Printf("    -> %s = %v\n", w.Path, w.ActualValue)
			}
			for _, s := range w.Suggestions {
				fmt.Printf("    * %s\n", s)
			}
		}
		fmt.Println()
	}

	if len(r.Info) > 0 {
		fmt.Printf("INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Printf("  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Println()
	}

	if r.Valid {
		fmt.Printf("Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Printf("Result: INVALID (%s)\n", r.Summary)
	}
}

func printDifficulties(ds []episode.Difficulty) {
	fmt.Printf("%-12s %10s %10s %10s\n", "Difficulty", "Episodes", "Min (m)", "Max (m)")
	fmt.Printf("%-12s %10s %10s %10s\n", "------------", "----------", "----------", "----------")
	for _, d := range ds {
		fmt.Printf("%-12s %10s %10.1f %10.1f\n", d.Name, humanize.Comma(int64(d.Count)), d.MinDistance, d.MaxDistance)
	}
	fmt.Printf("%-12s %10s\n", "TOTAL", humanize.Comma(int64(episode.Total(ds))))
}

// bucketStats summarizes the total geodesic length of one difficulty.
type bucketStats struct {
	count         int
	min, sum, max float64
}

func summarize(ds []episode.Difficulty, episodes []episode.Episode) map[string]*bucketStats {
	stats := make(map[string]*bucketStats, len(ds))
	for _, d := range ds {
		stats[d.Name] = &bucketStats{min: math.Inf(1), max: math.Inf(-1)}
	}
	for _, ep := range episodes {
		st, ok := stats[ep.Info.Difficulty]
		if !ok {
			continue
		}
		g := ep.Info.GeodesicDistance
		st.count++
		st.sum += g
		st.min = math.Min(st.min, g)
		st.max = math.Max(st.max, g)
	}
	return stats
}

func printSummary(ds []episode.Difficulty, episodes []episode.Episode, path string) {
	fmt.Println("Episode Summary")
	fmt.Println("===============")
	fmt.Println()
	fmt.Printf("%-12s %10s %12s %12s %12s\n", "Difficulty", "Episodes", "Min path", "Mean path", "Max path")
	fmt.Printf("%-12s %10s %12s %12s %12s\n", "------------", "----------", "------------", "------------", "------------")

	stats := summarize(ds, episodes)
	for _, d := range ds {
		st := stats[d.Name]
		if st.count == 0 {
			fmt.Printf("%-12s %10s %12s %12s %12s\n", d.Name, "0", "-", "-", "-")
			continue
		}
		fmt.Printf("%-12s %10s %11.2fm %11.2fm %11.2fm\n", d.Name, humanize.Comma(int64(st.count)),
			st.min, st.sum/float64(st.count), st.max)
	}
	fmt.Printf("%-12s %10s\n", "TOTAL", humanize.Comma(int64(len(episodes))))
	fmt.Println()
	fmt.Printf("Written to %s\n", path)
}

func printUpload(up dataset.Upload) {
	fmt.Printf("Uploaded %s to %s/%s (etag %s)\n", humanize.Bytes(uint64(up.Size)), up.Bucket, up.Key, up.ETag)
}
