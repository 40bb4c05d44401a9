package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/AssemSadek/habitat-sim2real/pkg/episode"
)

const defaultConfigPath = "configs/multigoal_pointnav.yaml"

var verbose bool

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "pointnav",
		Short:        "Multi-goal point navigation dataset generator and viewer",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(publishCmd())
	rootCmd.AddCommand(serveCmd())
	return rootCmd
}

func generateCmd() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate [KEY VALUE ...]",
		Short: "Sample a multi-goal point navigation dataset",
		Long: `Sample episodes on the configured scene and write them as gzip compressed JSON.

Trailing KEY VALUE pairs override the loaded configuration, e.g.
  pointnav generate -c examples/citi/config.yaml DATASET.SPLIT val`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.overrides = args
			opts.seedSet = cmd.Flags().Changed("seed")
			return runGenerate(opts)
		},
	}

	// Flags stop at the first override key so values like -1 reach the config.
	cmd.Flags().SetInterspersed(false)
	addRunFlags(cmd, &opts.runOptions)
	cmd.Flags().IntVarP(&opts.goals, "n-goals-per-ep", "m", 10, "goals per episode")
	cmd.Flags().Int64VarP(&opts.seed, "seed", "s", 0, "random seed (random in [10000, 100000) when unset)")
	return cmd
}

func validateCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "validate [KEY VALUE ...]",
		Short: "Validate a configuration and show the episode counts it would produce",
		Args:  cobra.ArbitraryArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			opts.overrides = args
			return runValidate(opts)
		},
	}

	cmd.Flags().SetInterspersed(false)
	addRunFlags(cmd, &opts)
	return cmd
}

func verifyCmd() *cobra.Command {
	var opts verifyOptions

	cmd := &cobra.Command{
		Use:   "verify [flags] <dataset> [KEY VALUE ...]",
		Short: "Check a generated dataset against its schema and the scene",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			opts.datasetPath = args[0]
			opts.overrides = args[1:]
			return runVerify(opts)
		},
	}

	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVarP(&opts.configPath, "config-path", "c", defaultConfigPath, "run configuration")
	cmd.Flags().IntVarP(&opts.goals, "n-goals-per-ep", "m", 0, "required goals per episode (0 skips the check)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "concurrent geodesic queries (0 uses every CPU)")
	return cmd
}

func publishCmd() *cobra.Command {
	var key, envFile string

	cmd := &cobra.Command{
		Use:   "publish <dataset>",
		Short: "Upload a dataset file to the configured object store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd.Context(), args[0], key, envFile)
		},
	}

	cmd.Flags().StringVarP(&key, "key", "k", "", "object key (default <split>/<file>)")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file with POINTNAV_S3_* settings")
	return cmd
}

func serveCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve [KEY VALUE ...]",
		Short: "Start the interactive viewer backend",
		Args:  cobra.ArbitraryArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			return runServe(configPath, args, port)
		},
	}

	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVarP(&configPath, "config-path", "c", defaultConfigPath, "run configuration")
	cmd.Flags().IntVarP(&port, "port", "p", 3000, "HTTP server port")
	return cmd
}

func addRunFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVarP(&opts.configPath, "config-path", "c", defaultConfigPath, "run configuration")
	cmd.Flags().IntVarP(&opts.episodes, "n-episodes", "n", 300, "number of episodes")
	cmd.Flags().StringVarP(&opts.ratios, "difficulty-ratios", "r", episode.DefaultDifficultyRatios,
		"relative share of episodes per difficulty")
}
