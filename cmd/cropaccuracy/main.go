// Command cropaccuracy evaluates how the accuracy of a crop classifier
// evolves over the season, per crop and per week, with bootstrap
// confidence bands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/banshee-data/cropaccuracy/internal/config"
	"github.com/banshee-data/cropaccuracy/internal/monitoring"
	"github.com/banshee-data/cropaccuracy/internal/store"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	verbose    bool
	configPath string

	dataset          string
	input            string
	features         string
	outputDir        string
	exportDir        string
	predictionColumn string
	predictorURL     string
	nResamples       int
	seed             uint64
	workers          int
	sigma            float64
	html             bool
	dbPath           string

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "cropaccuracy",
		Short: "Per-crop, per-week bootstrap accuracy for crop classifiers",
		Long: `cropaccuracy measures how early in the season a crop classifier becomes
reliable. It predicts every field observation, groups the results by crop
and week, bootstraps the accuracy of each group and writes a CSV table, a
band plot and an optional interactive chart.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := monitoring.NewLogger(o.verbose)
			if err != nil {
				return err
			}
			o.logger = l
			monitoring.UseZap(l)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if o.logger != nil {
				_ = o.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "Enable verbose logging")
	pf.StringVarP(&o.configPath, "config", "c", "", "Path to a JSON evaluation config")
	pf.StringVar(&o.dataset, "dataset", "", "Dataset name used for artefact paths")
	pf.StringVar(&o.input, "input", "", "Input CSV (overrides the derived path)")
	pf.StringVar(&o.features, "features", "", "Feature list JSON (overrides the derived path)")
	pf.StringVar(&o.outputDir, "output-dir", "", "Directory for result files")
	pf.StringVar(&o.exportDir, "export-dir", "", "Directory for exported model input")
	pf.StringVar(&o.predictionColumn, "prediction-column", "", "Input column holding precomputed predictions")
	pf.StringVar(&o.predictorURL, "predictor-url", "", "Model server endpoint for remote prediction")
	pf.IntVar(&o.nResamples, "n-resamples", 0, "Bootstrap resamples per crop and week")
	pf.Uint64Var(&o.seed, "seed", 0, "Root random seed")
	pf.IntVar(&o.workers, "workers", 0, "Parallel bootstrap workers (0 = GOMAXPROCS)")
	pf.Float64Var(&o.sigma, "sigma", 0, "Gaussian smoothing sigma in weeks")
	pf.BoolVar(&o.html, "html", false, "Also write the interactive HTML chart")
	pf.StringVar(&o.dbPath, "db", "", "SQLite run history database")

	root.AddCommand(
		newBootstrapCmd(o),
		newWeekMetricsCmd(o),
		newExportInputCmd(o),
		newRunsCmd(o),
		newMigrateCmd(o),
		newConfigCmd(o),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the config file (if any), overlays flags the user set
// explicitly and validates the result.
func (o *options) loadConfig(cmd *cobra.Command) (*config.EvalConfig, error) {
	cfg := config.EmptyEvalConfig()
	if o.configPath != "" {
		loaded, err := config.LoadEvalConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.Merge(o.overrides(cmd))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (o *options) overrides(cmd *cobra.Command) *config.EvalConfig {
	set := cmd.Flags().Changed
	ov := config.EmptyEvalConfig()
	if set("dataset") {
		ov.DatasetName = &o.dataset
	}
	if set("input") {
		ov.InputFile = &o.input
	}
	if set("features") {
		ov.FeaturesFile = &o.features
	}
	if set("output-dir") {
		ov.OutputDir = &o.outputDir
	}
	if set("export-dir") {
		ov.ExportDir = &o.exportDir
	}
	if set("prediction-column") {
		ov.PredictionColumn = &o.predictionColumn
	}
	if set("predictor-url") {
		ov.PredictorURL = &o.predictorURL
	}
	if set("n-resamples") {
		ov.NResamples = &o.nResamples
	}
	if set("seed") {
		ov.Seed = &o.seed
	}
	if set("workers") {
		ov.Workers = &o.workers
	}
	if set("sigma") {
		ov.SmoothingSigma = &o.sigma
	}
	if set("html") {
		ov.WriteHTML = &o.html
	}
	if set("db") {
		ov.DBPath = &o.dbPath
	}
	return ov
}

// openStore opens the migrated run history, or returns nil when no
// database is configured.
func openStore(cfg *config.EvalConfig) (*store.Store, error) {
	path := cfg.GetDBPath()
	if path == "" {
		return nil, nil
	}
	return store.OpenMigrated(path)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
